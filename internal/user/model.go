package user

import "time"

// User represents an account in the system. Posts, comments, images,
// messages and created groups all point back at users by ID; the user record
// itself carries no collections — relationships are resolved by query.
type User struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Username     string     `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	DisplayName  string     `gorm:"size:100" json:"display_name"`
	PictureURL   *string    `json:"picture_url,omitempty"`
	Bio          *string    `json:"bio,omitempty"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	TierID       *string    `gorm:"size:36" json:"tier_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Tier is a named account tier users can reference
type Tier struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	Name        string `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description string `json:"description"`
}
