package post

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Repository handles post and image persistence
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new post repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new post
func (r *Repository) Create(ctx context.Context, p *Post) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// GetByID retrieves a post by ID; returns nil when absent
func (r *Repository) GetByID(ctx context.Context, id string) (*Post, error) {
	var p Post
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &p, nil
}

// Delete removes a post and its local image rows in one transaction
func (r *Repository) Delete(ctx context.Context, postID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&Image{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", postID).Delete(&Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

// ListFeed retrieves the global feed: ungrouped posts, newest first
func (r *Repository) ListFeed(ctx context.Context, limit, offset int) ([]*Post, int64, error) {
	base := r.db.WithContext(ctx).Model(&Post{}).Where("group_id IS NULL")

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	var posts []*Post
	err := r.db.WithContext(ctx).
		Where("group_id IS NULL").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}

	return posts, total, nil
}

// ListByUser retrieves a user's posts, newest first
func (r *Repository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Post, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&Post{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	var posts []*Post
	err = r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}

	return posts, total, nil
}

// ListByGroup retrieves a group's posts, newest first
func (r *Repository) ListByGroup(ctx context.Context, groupID string, limit, offset int) ([]*Post, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&Post{}).
		Where("group_id = ?", groupID).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	var posts []*Post
	err = r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}

	return posts, total, nil
}

// UpdateContent rewrites a post's content and stamps the modified time
func (r *Repository) UpdateContent(ctx context.Context, postID, content string, modifiedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Post{}).Where("id = ?", postID).
		Updates(map[string]interface{}{
			"content":     content,
			"modified_at": modifiedAt,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update post content: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// TouchModified stamps the post's modified time and reports affected rows
func (r *Repository) TouchModified(ctx context.Context, postID string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Post{}).Where("id = ?", postID).
		Update("modified_at", at)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to touch post: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CreateImages inserts image rows in one batch
func (r *Repository) CreateImages(ctx context.Context, images []*Image) error {
	if len(images) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&images).Error; err != nil {
		return fmt.Errorf("failed to create images: %w", err)
	}
	return nil
}

// ListImages retrieves a post's images oldest first. A limit of zero
// returns all of them.
func (r *Repository) ListImages(ctx context.Context, postID string, limit int) ([]*Image, error) {
	q := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var images []*Image
	if err := q.Find(&images).Error; err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	return images, nil
}

// FindImages filters a post's images down to the requested IDs owned by the
// given uploader.
func (r *Repository) FindImages(ctx context.Context, postID, userID string, imageIDs []string) ([]*Image, error) {
	if len(imageIDs) == 0 {
		return nil, nil
	}
	var images []*Image
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ? AND id IN ?", postID, userID, imageIDs).
		Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find images: %w", err)
	}
	return images, nil
}

// DeleteImages removes image rows by ID and reports affected rows
func (r *Repository) DeleteImages(ctx context.Context, imageIDs []string) (int64, error) {
	if len(imageIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", imageIDs).Delete(&Image{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete images: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CountImages returns how many images a post carries
func (r *Repository) CountImages(ctx context.Context, postID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Image{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count images: %w", err)
	}
	return count, nil
}

// CountComments returns how many comments a post carries
func (r *Repository) CountComments(ctx context.Context, postID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("comments").
		Where("post_id = ?", postID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}

type authorRow struct {
	UserID      string
	Username    string
	DisplayName string
	PictureURL  *string
}

// GetAuthor loads the compact creator view for embedding in post responses
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

// GetGroupRef loads the minimal parent-group projection
func (r *Repository) GetGroupRef(ctx context.Context, groupID string) (*GroupRef, error) {
	var ref GroupRef
	err := r.db.WithContext(ctx).
		Table("groups").
		Select("id, name").
		Where("id = ?", groupID).
		Take(&ref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &ref, nil
}
