package comment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Repository handles comment persistence
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new comment repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new comment
func (r *Repository) Create(ctx context.Context, c *Comment) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment by ID; returns nil when absent
func (r *Repository) GetByID(ctx context.Context, id string) (*Comment, error) {
	var c Comment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &c, nil
}

// ListByPost retrieves a post's comments oldest first
func (r *Repository) ListByPost(ctx context.Context, postID string) ([]*Comment, error) {
	var comments []*Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// ListChildIDs returns the IDs of the direct replies to the given comments
func (r *Repository) ListChildIDs(ctx context.Context, parentIDs []string) ([]string, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&Comment{}).
		Where("parent_id IN ?", parentIDs).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	return ids, nil
}

// CountReplies returns how many direct replies a comment has
func (r *Repository) CountReplies(ctx context.Context, commentID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Comment{}).
		Where("parent_id = ?", commentID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count replies: %w", err)
	}
	return count, nil
}

// UpdateContent rewrites a comment's content and stamps the modified time
func (r *Repository) UpdateContent(ctx context.Context, id, content string, modifiedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Comment{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"content":     content,
			"modified_at": modifiedAt,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update comment: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteByIDs removes comments by ID and reports affected rows
func (r *Repository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&Comment{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete comments: %w", res.Error)
	}
	return res.RowsAffected, nil
}

type authorRow struct {
	UserID      string
	Username    string
	DisplayName string
	PictureURL  *string
}

// GetAuthor loads the compact author view for embedding in responses
func (r *Repository) GetAuthor(ctx context.Context, userID string) (*AuthorSummary, error) {
	var row authorRow
	err := r.db.WithContext(ctx).
		Table("users").
		Select("id AS user_id, username, display_name, picture_url").
		Where("id = ?", userID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get author: %w", err)
	}
	return &AuthorSummary{
		UserID:      row.UserID,
		Username:    row.Username,
		DisplayName: row.DisplayName,
		PictureURL:  row.PictureURL,
	}, nil
}

// PostExists reports whether the given post is present
func (r *Repository) PostExists(ctx context.Context, postID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("posts").
		Where("id = ?", postID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check post: %w", err)
	}
	return count > 0, nil
}
