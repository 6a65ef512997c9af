package post

import "time"

// Post represents a piece of user content. GroupID is nil for posts on the
// public feed.
type Post struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	Content    string     `gorm:"not null" json:"content"`
	UserID     string     `gorm:"size:36;index;not null" json:"user_id"`
	GroupID    *string    `gorm:"size:36;index" json:"group_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
}

// Image is a remote-hosted picture attached to a post. PublicID is the
// opaque handle the asset store expects on deletion.
type Image struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PostID    string    `gorm:"size:36;index;not null" json:"post_id"`
	UserID    string    `gorm:"size:36;index;not null" json:"user_id"`
	URL       string    `gorm:"not null" json:"url"`
	PublicID  string    `gorm:"size:255;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
