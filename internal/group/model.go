package group

import "time"

// Group represents a group in the system
type Group struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description *string   `json:"description,omitempty"`
	PictureURL  *string   `json:"picture_url,omitempty"`
	CreatorID   string    `gorm:"size:36;index;not null" json:"creator_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserGroup is the membership join record linking one user to one group. A
// given (user, group) pair appears at most once.
type UserGroup struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_user_group_pair" json:"user_id"`
	GroupID   string    `gorm:"size:36;not null;uniqueIndex:idx_user_group_pair;index" json:"group_id"`
	CreatedAt time.Time `json:"created_at"`
}
