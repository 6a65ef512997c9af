package message

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Repository handles message persistence
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new message repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new message
func (r *Repository) Create(ctx context.Context, m *Message) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListConversation retrieves the messages exchanged between two users,
// newest first.
func (r *Repository) ListConversation(ctx context.Context, userID, otherID string, limit, offset int) ([]*Message, int64, error) {
	pair := "(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)"

	var total int64
	err := r.db.WithContext(ctx).Model(&Message{}).
		Where(pair, userID, otherID, otherID, userID).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	var messages []*Message
	err = r.db.WithContext(ctx).
		Where(pair, userID, otherID, otherID, userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, total, nil
}

// ListInvolving retrieves every message the user sent or received, newest
// first. Conversation partners are derived from this set.
func (r *Repository) ListInvolving(ctx context.Context, userID string) ([]*Message, error) {
	var messages []*Message
	err := r.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// CountUnreadFrom returns how many unread messages the user has from the
// given sender.
func (r *Repository) CountUnreadFrom(ctx context.Context, userID, senderID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", userID, senderID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

// MarkConversationRead flags every unread message from the given sender to
// the user as read and reports affected rows.
func (r *Repository) MarkConversationRead(ctx context.Context, userID, senderID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", userID, senderID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

type userRow struct {
	ID          string
	Username    string
	DisplayName string
	PictureURL  *string
}

// GetUser loads the counterpart's compact view; nil when absent
func (r *Repository) GetUser(ctx context.Context, userID string) (*userRow, error) {
	var row userRow
	err := r.db.WithContext(ctx).
		Table("users").
		Select("id, username, display_name, picture_url").
		Where("id = ?", userID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &row, nil
}

// LookupUserID resolves a username to a user ID; empty when unknown
func (r *Repository) LookupUserID(ctx context.Context, username string) (string, error) {
	var id string
	err := r.db.WithContext(ctx).
		Table("users").
		Select("id").
		Where("username = ?", username).
		Take(&id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	return id, nil
}
