package post

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/khaledmahi/linkup/internal/assets"
	"github.com/khaledmahi/linkup/pkg/logger"
	"github.com/khaledmahi/linkup/pkg/response"
)

// Feed views carry at most this many image previews per post.
const imagePreviewLimit = 5

// Common errors
var (
	ErrPostNotFound    = errors.New("post not found")
	ErrContentRequired = errors.New("post content is required")
	ErrNotAuthorized   = errors.New("not authorized to perform this action")
	ErrNoImages        = errors.New("no images supplied")
	ErrNoImagesStored  = errors.New("no images were stored")
)

// MembershipChecker reports whether a user belongs to a group. Implemented
// by the group repository and injected at wiring time.
type MembershipChecker interface {
	IsMember(ctx context.Context, userID, groupID string) (bool, error)
}

// imageDeleter commits local image-row deletions and reports affected rows.
// Satisfied by *Repository.
type imageDeleter interface {
	DeleteImages(ctx context.Context, imageIDs []string) (int64, error)
}

// Service handles post business logic
type Service struct {
	repo   *Repository
	images imageDeleter
	groups MembershipChecker
	assets assets.Store
	log    *logger.Logger
}

// NewService creates a new post service
func NewService(repo *Repository, groups MembershipChecker, store assets.Store, baseLog *logger.Logger) *Service {
	return &Service{repo: repo, images: repo, groups: groups, assets: store, log: baseLog.With("service", "post")}
}

// Create inserts a new post. A supplied group ID only sticks if the creator
// is currently a member; otherwise the post is created ungrouped without an
// error. Supplied images are attached as a secondary step whose failure does
// not roll the post back.
func (s *Service) Create(ctx context.Context, userID string, req *CreatePostRequest, images []*multipart.FileHeader) (*Post, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrContentRequired
	}

	p := &Post{
		ID:        uuid.NewString(),
		Content:   content,
		UserID:    userID,
		CreatedAt: time.Now(),
	}

	if groupID := strings.TrimSpace(req.GroupID); groupID != "" {
		isMember, err := s.groups.IsMember(ctx, userID, groupID)
		if err != nil {
			return nil, err
		}
		if isMember {
			p.GroupID = &groupID
		}
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	if len(images) > 0 {
		if _, err := s.AddImages(ctx, p.ID, userID, images); err != nil {
			s.log.Warn("post created but image attachment failed",
				"post_id", p.ID, "error", err)
		}
	}

	return p, nil
}

// Delete removes a post, its local image rows and its remote image assets.
// Only the creator may delete a post.
func (s *Service) Delete(ctx context.Context, userID, postID string) error {
	p, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrPostNotFound
	}
	if p.UserID != userID {
		return ErrNotAuthorized
	}

	images, err := s.repo.ListImages(ctx, postID, 0)
	if err != nil {
		return err
	}
	if len(images) > 0 {
		publicIDs := make([]string, len(images))
		for i, img := range images {
			publicIDs[i] = img.PublicID
		}
		_, notDeleted, err := s.assets.Destroy(ctx, publicIDs)
		if err != nil {
			return err
		}
		if len(notDeleted) > 0 {
			s.log.Warn("remote assets left behind on post deletion",
				"post_id", postID, "public_ids", notDeleted)
		}
	}

	return s.repo.Delete(ctx, postID)
}

// Get returns the full post detail view
func (s *Service) Get(ctx context.Context, postID string) (*PostDetailResponse, error) {
	p, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPostNotFound
	}

	author, err := s.repo.GetAuthor(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	images, err := s.repo.ListImages(ctx, postID, 0)
	if err != nil {
		return nil, err
	}

	commentCount, err := s.repo.CountComments(ctx, postID)
	if err != nil {
		return nil, err
	}

	detail := &PostDetailResponse{
		ID:           p.ID,
		Content:      p.Content,
		Author:       author,
		Images:       toImageResponses(images),
		CommentCount: commentCount,
		CreatedAt:    response.FormatTime(p.CreatedAt),
	}
	if p.ModifiedAt != nil {
		detail.ModifiedAt = response.FormatTime(*p.ModifiedAt)
	}
	if p.GroupID != nil {
		if detail.Group, err = s.repo.GetGroupRef(ctx, *p.GroupID); err != nil {
			return nil, err
		}
	}

	return detail, nil
}

// ListFeed returns a page of the global feed: ungrouped posts, newest first
func (s *Service) ListFeed(ctx context.Context, page, limit int) ([]*PostSummary, int64, int, error) {
	page, limit = normalizePage(page, limit)
	offset := (page - 1) * limit

	posts, total, err := s.repo.ListFeed(ctx, limit, offset)
	if err != nil {
		return nil, 0, 0, err
	}

	summaries, err := s.toSummaries(ctx, posts)
	if err != nil {
		return nil, 0, 0, err
	}

	return summaries, total, totalPages(total, limit), nil
}

// ListByUsername returns a page of a user's posts. An unknown username
// yields an empty zero-count page rather than an error.
func (s *Service) ListByUsername(ctx context.Context, username string, page, limit int) ([]*PostSummary, int64, int, error) {
	page, limit = normalizePage(page, limit)

	userID, err := s.repo.LookupUserID(ctx, username)
	if err != nil {
		return nil, 0, 0, err
	}
	if userID == "" {
		return []*PostSummary{}, 0, 0, nil
	}

	offset := (page - 1) * limit
	posts, total, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, 0, err
	}

	summaries, err := s.toSummaries(ctx, posts)
	if err != nil {
		return nil, 0, 0, err
	}

	return summaries, total, totalPages(total, limit), nil
}

// ListByGroup returns one page of a group's posts as feed summaries. The
// membership gate lives in the group service; this is the raw listing.
func (s *Service) ListByGroup(ctx context.Context, groupID string, limit, offset int) ([]*PostSummary, int64, error) {
	posts, total, err := s.repo.ListByGroup(ctx, groupID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	summaries, err := s.toSummaries(ctx, posts)
	if err != nil {
		return nil, 0, err
	}

	return summaries, total, nil
}

// AddImages uploads the supplied files as a batch and persists records for
// the ones the asset store confirmed. Only the post's creator may attach
// images. The post's modified time is stamped on success.
func (s *Service) AddImages(ctx context.Context, postID, userID string, files []*multipart.FileHeader) ([]*ImageResponse, error) {
	p, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPostNotFound
	}
	if p.UserID != userID {
		return nil, ErrNotAuthorized
	}
	if len(files) == 0 {
		return nil, ErrNoImages
	}

	uploads := make([]assets.File, 0, len(files))
	opened := make([]multipart.File, 0, len(files))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		opened = append(opened, f)
		uploads = append(uploads, assets.File{Name: fh.Filename, Content: f})
	}

	results, err := s.assets.UploadBatch(ctx, uploads)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	stored := make([]*Image, 0, len(results))
	for _, res := range results {
		if !res.Stored() {
			continue
		}
		stored = append(stored, &Image{
			ID:        uuid.NewString(),
			PostID:    postID,
			UserID:    userID,
			URL:       res.URL,
			PublicID:  res.PublicID,
			CreatedAt: now,
		})
	}
	if len(stored) == 0 {
		return nil, ErrNoImagesStored
	}

	if err := s.repo.CreateImages(ctx, stored); err != nil {
		return nil, err
	}
	if _, err := s.repo.TouchModified(ctx, postID, now); err != nil {
		return nil, err
	}

	return toImageResponses(stored), nil
}

// DeleteImages removes images from a post using the two-phase pattern:
// the asset store deletes first, and only the remotely-confirmed subset is
// removed locally. IDs the store refused come back in NotDeleted. If the
// local commit touches zero rows the deleted set collapses to empty even
// though the remote objects are already gone.
func (s *Service) DeleteImages(ctx context.Context, postID, userID string, imageIDs []string) (*ImageDeleteResult, error) {
	p, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPostNotFound
	}
	if p.UserID != userID {
		return nil, ErrNotAuthorized
	}

	result := &ImageDeleteResult{Deleted: []string{}, NotDeleted: []string{}}

	candidates, err := s.repo.FindImages(ctx, postID, userID, imageIDs)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return result, nil
	}

	byPublicID := make(map[string]*Image, len(candidates))
	publicIDs := make([]string, len(candidates))
	for i, img := range candidates {
		byPublicID[img.PublicID] = img
		publicIDs[i] = img.PublicID
	}

	deletedPIDs, notDeletedPIDs, err := s.assets.Destroy(ctx, publicIDs)
	if err != nil {
		return nil, err
	}

	for _, pid := range notDeletedPIDs {
		if img, ok := byPublicID[pid]; ok {
			result.NotDeleted = append(result.NotDeleted, img.ID)
		}
	}

	confirmed := make([]string, 0, len(deletedPIDs))
	for _, pid := range deletedPIDs {
		if img, ok := byPublicID[pid]; ok {
			confirmed = append(confirmed, img.ID)
		}
	}
	if len(confirmed) == 0 {
		return result, nil
	}

	rows, err := s.images.DeleteImages(ctx, confirmed)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// The remote objects are gone but the local rows did not go with
		// them; report nothing deleted so the caller sees the drift.
		s.log.Error("image rows survived a confirmed remote deletion",
			"post_id", postID, "image_ids", confirmed)
		return result, nil
	}
	result.Deleted = confirmed

	if _, err := s.repo.TouchModified(ctx, postID, time.Now()); err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateContent rewrites a post's content. Only the creator may edit.
func (s *Service) UpdateContent(ctx context.Context, postID, userID, content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrContentRequired
	}

	p, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", ErrPostNotFound
	}
	if p.UserID != userID {
		return "", ErrNotAuthorized
	}

	rows, err := s.repo.UpdateContent(ctx, postID, content, time.Now())
	if err != nil {
		return "", err
	}
	if rows == 0 {
		return "", ErrPostNotFound
	}

	return content, nil
}

// UpdateAll performs a composite edit: content, image additions and image
// removals, then a single modified-timestamp commit. The ownership gate runs
// before any remote call; later partial failures surface in the result.
func (s *Service) UpdateAll(ctx context.Context, postID, userID, content string, newImages []*multipart.FileHeader, removeImageIDs []string) (*UpdateAllResult, error) {
	p, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPostNotFound
	}
	if p.UserID != userID {
		return nil, ErrNotAuthorized
	}

	result := &UpdateAllResult{
		Content:       p.Content,
		AddedImages:   []*ImageResponse{},
		RemovedImages: &ImageDeleteResult{Deleted: []string{}, NotDeleted: []string{}},
	}

	if trimmed := strings.TrimSpace(content); trimmed != "" {
		if _, err := s.repo.UpdateContent(ctx, postID, trimmed, time.Now()); err != nil {
			return nil, err
		}
		result.Content = trimmed
	}

	if len(newImages) > 0 {
		added, err := s.AddImages(ctx, postID, userID, newImages)
		if err != nil && !errors.Is(err, ErrNoImagesStored) {
			return nil, err
		}
		if added != nil {
			result.AddedImages = added
		}
	}

	if len(removeImageIDs) > 0 {
		removed, err := s.DeleteImages(ctx, postID, userID, removeImageIDs)
		if err != nil {
			return nil, err
		}
		result.RemovedImages = removed
	}

	if _, err := s.repo.TouchModified(ctx, postID, time.Now()); err != nil {
		return nil, err
	}

	return result, nil
}

// toSummaries projects posts into feed summaries with capped image previews
// and comment/image counts.
func (s *Service) toSummaries(ctx context.Context, posts []*Post) ([]*PostSummary, error) {
	summaries := make([]*PostSummary, len(posts))
	for i, p := range posts {
		author, err := s.repo.GetAuthor(ctx, p.UserID)
		if err != nil {
			return nil, err
		}
		previews, err := s.repo.ListImages(ctx, p.ID, imagePreviewLimit)
		if err != nil {
			return nil, err
		}
		imageCount, err := s.repo.CountImages(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		commentCount, err := s.repo.CountComments(ctx, p.ID)
		if err != nil {
			return nil, err
		}

		summary := &PostSummary{
			ID:           p.ID,
			Content:      p.Content,
			Author:       author,
			GroupID:      p.GroupID,
			Images:       toImageResponses(previews),
			ImageCount:   imageCount,
			CommentCount: commentCount,
			CreatedAt:    response.FormatTime(p.CreatedAt),
		}
		if p.ModifiedAt != nil {
			summary.ModifiedAt = response.FormatTime(*p.ModifiedAt)
		}
		summaries[i] = summary
	}
	return summaries, nil
}

func toImageResponses(images []*Image) []*ImageResponse {
	responses := make([]*ImageResponse, len(images))
	for i, img := range images {
		responses[i] = img.ToResponse()
	}
	return responses
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
