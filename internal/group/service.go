package group

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/khaledmahi/linkup/internal/assets"
	"github.com/khaledmahi/linkup/internal/post"
	"github.com/khaledmahi/linkup/pkg/logger"
	"github.com/khaledmahi/linkup/pkg/response"
)

// Group pictures are uploaded at a fixed crop size.
const (
	groupPictureWidth  = 500
	groupPictureHeight = 500
)

// Groups list views carry at most this many member previews.
const memberPreviewLimit = 5

// Common errors
var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrNameRequired    = errors.New("group name is required")
	ErrNotAuthorized   = errors.New("not authorized to perform this action")
	ErrNothingToUpdate = errors.New("nothing to update")
)

// PostFeed lists the posts attached to a group. Implemented by the post
// repository and injected at wiring time.
type PostFeed interface {
	ListByGroup(ctx context.Context, groupID string, limit, offset int) ([]*post.PostSummary, int64, error)
}

// Service handles group business logic
type Service struct {
	repo   *Repository
	posts  PostFeed
	assets assets.Store
	log    *logger.Logger
}

// NewService creates a new group service
func NewService(repo *Repository, posts PostFeed, store assets.Store, baseLog *logger.Logger) *Service {
	return &Service{repo: repo, posts: posts, assets: store, log: baseLog.With("service", "group")}
}

// Create validates the draft, uploads the optional picture and inserts the
// group together with the creator's membership row. The two inserts are
// separate commits: if the membership insert fails the group row already
// exists and the error is surfaced rather than rolled back.
func (s *Service) Create(ctx context.Context, creatorID string, req *CreateGroupRequest, picture *multipart.FileHeader) (*Group, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	g := &Group{
		ID:        uuid.NewString(),
		Name:      name,
		CreatorID: creatorID,
		CreatedAt: time.Now(),
	}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		g.Description = &desc
	}

	if picture != nil {
		file, err := picture.Open()
		if err != nil {
			return nil, err
		}
		defer file.Close()

		asset, err := s.assets.Upload(ctx, assets.File{Name: picture.Filename, Content: file}, groupPictureWidth, groupPictureHeight)
		if err != nil {
			return nil, err
		}
		g.PictureURL = &asset.URL
	}

	if err := s.repo.Create(ctx, g); err != nil {
		return nil, err
	}

	if err := s.repo.AddMember(ctx, &UserGroup{
		ID:        uuid.NewString(),
		UserID:    creatorID,
		GroupID:   g.ID,
		CreatedAt: time.Now(),
	}); err != nil {
		s.log.Error("group created but creator membership insert failed",
			"group_id", g.ID, "creator_id", creatorID, "error", err)
		return nil, err
	}

	return g, nil
}

// Delete removes a group and all of its membership rows. Only the creator
// may delete a group.
func (s *Service) Delete(ctx context.Context, groupID, requesterID string) error {
	g, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if g == nil {
		return ErrGroupNotFound
	}
	if g.CreatorID != requesterID {
		return ErrNotAuthorized
	}

	return s.repo.Delete(ctx, groupID)
}

// Get returns the group detail view. requesterID may be empty for anonymous
// reads; the is-member flag is then false.
func (s *Service) Get(ctx context.Context, groupID, requesterID string) (*GroupDetailResponse, error) {
	g, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGroupNotFound
	}

	members, err := s.repo.ListMembers(ctx, groupID, 0)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.CountMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	creator, err := s.repo.GetUserSummary(ctx, g.CreatorID)
	if err != nil {
		return nil, err
	}

	isMember := false
	if requesterID != "" {
		if isMember, err = s.repo.IsMember(ctx, requesterID, groupID); err != nil {
			return nil, err
		}
	}

	return &GroupDetailResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		PictureURL:  g.PictureURL,
		Creator:     creator,
		Members:     members,
		MemberCount: count,
		IsMember:    isMember,
		CreatedAt:   response.FormatTime(g.CreatedAt),
	}, nil
}

// List returns a page of group summaries with up to five member previews
// each, plus total and page counts.
func (s *Service) List(ctx context.Context, page, limit int) ([]*GroupSummary, int64, int, error) {
	page, limit = normalizePage(page, limit)
	offset := (page - 1) * limit

	groups, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, 0, err
	}

	summaries := make([]*GroupSummary, len(groups))
	for i, g := range groups {
		summary := g.ToSummary()

		if summary.Members, err = s.repo.ListMembers(ctx, g.ID, memberPreviewLimit); err != nil {
			return nil, 0, 0, err
		}
		if summary.MemberCount, err = s.repo.CountMembers(ctx, g.ID); err != nil {
			return nil, 0, 0, err
		}
		summaries[i] = summary
	}

	return summaries, total, totalPages(total, limit), nil
}

// GetPosts returns the group's post feed, newest first. Only current members
// may read it; non-members are rejected whether or not the group exists.
func (s *Service) GetPosts(ctx context.Context, groupID, requesterID string, page, limit int) ([]*post.PostSummary, int64, int, error) {
	isMember, err := s.repo.IsMember(ctx, requesterID, groupID)
	if err != nil {
		return nil, 0, 0, err
	}
	if !isMember {
		return nil, 0, 0, ErrNotAuthorized
	}

	page, limit = normalizePage(page, limit)
	offset := (page - 1) * limit

	posts, total, err := s.posts.ListByGroup(ctx, groupID, limit, offset)
	if err != nil {
		return nil, 0, 0, err
	}

	return posts, total, totalPages(total, limit), nil
}

// Join adds the user to the group. Duplicate joins are rejected.
func (s *Service) Join(ctx context.Context, userID, groupID string) (*MembershipResult, error) {
	g, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return &MembershipResult{Success: false, Message: "Group does not exist"}, nil
	}

	isMember, err := s.repo.IsMember(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	if isMember {
		return &MembershipResult{Success: false, Message: "Already a member of this group"}, nil
	}

	m := &UserGroup{
		ID:        uuid.NewString(),
		UserID:    userID,
		GroupID:   groupID,
		CreatedAt: time.Now(),
	}
	if err := s.repo.AddMember(ctx, m); err != nil {
		return nil, err
	}

	member, err := s.repo.GetUserSummary(ctx, userID)
	if err != nil {
		return nil, err
	}
	if member != nil {
		member.JoinedAt = response.FormatTime(m.CreatedAt)
	}

	return &MembershipResult{Success: true, Message: "Joined group", Member: member}, nil
}

// Leave removes the user from the group. Non-members are rejected.
func (s *Service) Leave(ctx context.Context, userID, groupID string) (*MembershipResult, error) {
	g, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return &MembershipResult{Success: false, Message: "Group does not exist"}, nil
	}

	rows, err := s.repo.RemoveMember(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return &MembershipResult{Success: false, Message: "Not a member of this group"}, nil
	}

	member, err := s.repo.GetUserSummary(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &MembershipResult{Success: true, Message: "Left group", Member: member}, nil
}

// Update applies the non-blank patch fields and/or a new picture. Only the
// creator may update a group; an all-empty patch fails.
func (s *Service) Update(ctx context.Context, groupID, requesterID string, req *UpdateGroupRequest, picture *multipart.FileHeader) error {
	g, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if g == nil {
		return ErrGroupNotFound
	}
	if g.CreatorID != requesterID {
		return ErrNotAuthorized
	}

	updates := map[string]interface{}{}
	if name := strings.TrimSpace(req.Name); name != "" {
		updates["name"] = name
	}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		updates["description"] = desc
	}

	if picture != nil {
		file, err := picture.Open()
		if err != nil {
			return err
		}
		defer file.Close()

		asset, err := s.assets.Upload(ctx, assets.File{Name: picture.Filename, Content: file}, groupPictureWidth, groupPictureHeight)
		if err != nil {
			return err
		}
		updates["picture_url"] = asset.URL
	}

	if len(updates) == 0 {
		return ErrNothingToUpdate
	}

	rows, err := s.repo.Update(ctx, groupID, updates)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// normalizePage clamps page/limit to the 1-indexed convention used across
// the API.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// totalPages is ceil(total/limit)
func totalPages(total int64, limit int) int {
	return int((total + int64(limit) - 1) / int64(limit))
}
