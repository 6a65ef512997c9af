package message

import "time"

// Message is one direct message between two users. There is no conversation
// entity; conversations are derived by querying (sender, receiver) pairs.
type Message struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	SenderID   string    `gorm:"size:36;index;not null" json:"sender_id"`
	ReceiverID string    `gorm:"size:36;index;not null" json:"receiver_id"`
	Content    string    `gorm:"not null" json:"content"`
	IsRead     bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}
