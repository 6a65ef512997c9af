package comment

import "time"

// Comment belongs to one post and optionally replies to another comment on
// the same post. The reply tree is held as parent-id references and resolved
// by query, never as an in-memory owning structure.
type Comment struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	PostID     string     `gorm:"size:36;index;not null" json:"post_id"`
	UserID     string     `gorm:"size:36;index;not null" json:"user_id"`
	ParentID   *string    `gorm:"size:36;index" json:"parent_id,omitempty"`
	Content    string     `gorm:"not null" json:"content"`
	CreatedAt  time.Time  `json:"created_at"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
}
