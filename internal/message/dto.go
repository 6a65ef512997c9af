package message

import "github.com/khaledmahi/linkup/pkg/response"

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	Username string `json:"username" validate:"required"`
	Content  string `json:"content" validate:"required"`
}

// MessageResponse is the read view of a message
type MessageResponse struct {
	ID         string `json:"id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
	IsRead     bool   `json:"is_read"`
	CreatedAt  string `json:"created_at"`
}

// ConversationSummary is one entry in the conversation-partner list
type ConversationSummary struct {
	UserID      string  `json:"user_id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	PictureURL  *string `json:"picture_url,omitempty"`
	LastMessage string  `json:"last_message"`
	LastSentAt  string  `json:"last_sent_at"`
	UnreadCount int64   `json:"unread_count"`
}

// ToResponse converts a Message model to a MessageResponse DTO
func (m *Message) ToResponse() *MessageResponse {
	return &MessageResponse{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		IsRead:     m.IsRead,
		CreatedAt:  response.FormatTime(m.CreatedAt),
	}
}
