package message

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/khaledmahi/linkup/pkg/logger"
	"github.com/khaledmahi/linkup/pkg/response"
)

// Common errors
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrContentRequired = errors.New("message content is required")
	ErrSelfMessage     = errors.New("cannot message yourself")
)

// Service handles direct-message business logic
type Service struct {
	repo *Repository
	log  *logger.Logger
}

// NewService creates a new message service
func NewService(repo *Repository, baseLog *logger.Logger) *Service {
	return &Service{repo: repo, log: baseLog.With("service", "message")}
}

// Send delivers a message from the sender to the named receiver
func (s *Service) Send(ctx context.Context, senderID string, req *SendMessageRequest) (*Message, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrContentRequired
	}

	receiverID, err := s.repo.LookupUserID(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, err
	}
	if receiverID == "" {
		return nil, ErrUserNotFound
	}
	if receiverID == senderID {
		return nil, ErrSelfMessage
	}

	m := &Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now(),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

// GetConversation returns the paginated message history with the named
// counterpart, newest first.
func (s *Service) GetConversation(ctx context.Context, userID, username string, page, limit int) ([]*MessageResponse, int64, int, error) {
	otherID, err := s.repo.LookupUserID(ctx, username)
	if err != nil {
		return nil, 0, 0, err
	}
	if otherID == "" {
		return nil, 0, 0, ErrUserNotFound
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	messages, total, err := s.repo.ListConversation(ctx, userID, otherID, limit, offset)
	if err != nil {
		return nil, 0, 0, err
	}

	responses := make([]*MessageResponse, len(messages))
	for i, m := range messages {
		responses[i] = m.ToResponse()
	}

	pages := int((total + int64(limit) - 1) / int64(limit))
	return responses, total, pages, nil
}

// ListConversations derives the user's conversation partners: each distinct
// counterpart with the latest exchanged message and the unread count.
func (s *Service) ListConversations(ctx context.Context, userID string) ([]*ConversationSummary, error) {
	messages, err := s.repo.ListInvolving(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	summaries := []*ConversationSummary{}
	for _, m := range messages {
		otherID := m.SenderID
		if otherID == userID {
			otherID = m.ReceiverID
		}
		if seen[otherID] {
			continue
		}
		seen[otherID] = true

		other, err := s.repo.GetUser(ctx, otherID)
		if err != nil {
			return nil, err
		}
		if other == nil {
			continue
		}

		unread, err := s.repo.CountUnreadFrom(ctx, userID, otherID)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, &ConversationSummary{
			UserID:      other.ID,
			Username:    other.Username,
			DisplayName: other.DisplayName,
			PictureURL:  other.PictureURL,
			LastMessage: m.Content,
			LastSentAt:  response.FormatTime(m.CreatedAt),
			UnreadCount: unread,
		})
	}

	return summaries, nil
}

// MarkConversationRead flags the unread messages from the named counterpart
// as read and returns how many were flipped.
func (s *Service) MarkConversationRead(ctx context.Context, userID, username string) (int64, error) {
	otherID, err := s.repo.LookupUserID(ctx, username)
	if err != nil {
		return 0, err
	}
	if otherID == "" {
		return 0, ErrUserNotFound
	}

	return s.repo.MarkConversationRead(ctx, userID, otherID)
}
