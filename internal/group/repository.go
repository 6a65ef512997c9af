package group

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/khaledmahi/linkup/pkg/response"
)

// Repository handles group and membership persistence
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new group repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new group
func (r *Repository) Create(ctx context.Context, g *Group) error {
	if err := r.db.WithContext(ctx).Create(g).Error; err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

// GetByID retrieves a group by ID; returns nil when absent
func (r *Repository) GetByID(ctx context.Context, id string) (*Group, error) {
	var g Group
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &g, nil
}

// List retrieves groups newest first with a total count
func (r *Repository) List(ctx context.Context, limit, offset int) ([]*Group, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&Group{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count groups: %w", err)
	}

	var groups []*Group
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&groups).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list groups: %w", err)
	}

	return groups, total, nil
}

// Update applies the given column updates and reports affected rows
func (r *Repository) Update(ctx context.Context, id string, updates map[string]interface{}) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Group{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update group: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Delete removes a group, its membership rows and its post attachments in
// one transaction. Posts survive group deletion but lose their group
// reference.
func (r *Repository) Delete(ctx context.Context, groupID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table("posts").Where("group_id = ?", groupID).
			Update("group_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", groupID).Delete(&UserGroup{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", groupID).Delete(&Group{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}

// AddMember inserts a membership row
func (r *Repository) AddMember(ctx context.Context, m *UserGroup) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// RemoveMember deletes a membership row and reports affected rows
func (r *Repository) RemoveMember(ctx context.Context, userID, groupID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Delete(&UserGroup{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to remove member: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// IsMember reports whether the user currently belongs to the group
func (r *Repository) IsMember(ctx context.Context, userID, groupID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&UserGroup{}).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return count > 0, nil
}

// CountMembers returns the group's membership size
func (r *Repository) CountMembers(ctx context.Context, groupID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&UserGroup{}).
		Where("group_id = ?", groupID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

type memberRow struct {
	UserID      string
	Username    string
	DisplayName string
	PictureURL  *string
	JoinedAt    time.Time
}

// ListMembers retrieves member summaries ordered by membership recency,
// newest first. A limit of zero returns all members.
func (r *Repository) ListMembers(ctx context.Context, groupID string, limit int) ([]*MemberSummary, error) {
	q := r.db.WithContext(ctx).
		Table("user_groups ug").
		Select("ug.user_id, u.username, u.display_name, u.picture_url, ug.created_at AS joined_at").
		Joins("JOIN users u ON u.id = ug.user_id").
		Where("ug.group_id = ?", groupID).
		Order("ug.created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []memberRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	members := make([]*MemberSummary, len(rows))
	for i, row := range rows {
		members[i] = &MemberSummary{
			UserID:      row.UserID,
			Username:    row.Username,
			DisplayName: row.DisplayName,
			PictureURL:  row.PictureURL,
			JoinedAt:    response.FormatTime(row.JoinedAt),
		}
	}
	return members, nil
}

// GetUserSummary loads the compact user view for embedding in group
// responses; JoinedAt is left empty for non-members.
func (r *Repository) GetUserSummary(ctx context.Context, userID string) (*MemberSummary, error) {
	var row memberRow
	err := r.db.WithContext(ctx).
		Table("users").
		Select("id AS user_id, username, display_name, picture_url, created_at AS joined_at").
		Where("id = ?", userID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user summary: %w", err)
	}
	return &MemberSummary{
		UserID:      row.UserID,
		Username:    row.Username,
		DisplayName: row.DisplayName,
		PictureURL:  row.PictureURL,
	}, nil
}
