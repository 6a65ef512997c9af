package comment

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
	ErrCommentNotFound = errors.New("comment not found")
	ErrPostNotFound    = errors.New("post not found")
	ErrParentMismatch  = errors.New("parent comment belongs to a different post")
	ErrContentRequired = errors.New("comment content is required")
	ErrNotAuthorized   = errors.New("not authorized to perform this action")
)

// Service handles comment business logic
type Service struct {
	repo *Repository
	log  *logger.Logger
}

// NewService creates a new comment service
func NewService(repo *Repository, baseLog *logger.Logger) *Service {
	return &Service{repo: repo, log: baseLog.With("service", "comment")}
}

// Create adds a comment to a post, optionally as a reply. A reply's parent
// must exist and belong to the same post.
func (s *Service) Create(ctx context.Context, userID string, req *CreateCommentRequest) (*Comment, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrContentRequired
	}

	exists, err := s.repo.PostExists(ctx, req.PostID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrPostNotFound
	}

	c := &Comment{
		ID:        uuid.NewString(),
		PostID:    req.PostID,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now(),
	}

	if parentID := strings.TrimSpace(req.ParentID); parentID != "" {
		parent, err := s.repo.GetByID(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, ErrCommentNotFound
		}
		if parent.PostID != req.PostID {
			return nil, ErrParentMismatch
		}
		c.ParentID = &parentID
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// ListByPost returns a post's comments oldest first with author summaries
// and direct-reply counts.
func (s *Service) ListByPost(ctx context.Context, postID string) ([]*CommentResponse, error) {
	exists, err := s.repo.PostExists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrPostNotFound
	}

	comments, err := s.repo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	responses := make([]*CommentResponse, len(comments))
	for i, c := range comments {
		resp, err := s.toResponse(ctx, c)
		if err != nil {
			return nil, err
		}
		responses[i] = resp
	}
	return responses, nil
}

// UpdateContent rewrites a comment. Only the author may edit.
func (s *Service) UpdateContent(ctx context.Context, commentID, userID, content string) (*CommentResponse, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrContentRequired
	}

	c, err := s.repo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCommentNotFound
	}
	if c.UserID != userID {
		return nil, ErrNotAuthorized
	}

	now := time.Now()
	rows, err := s.repo.UpdateContent(ctx, commentID, content, now)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrCommentNotFound
	}

	c.Content = content
	c.ModifiedAt = &now
	return s.toResponse(ctx, c)
}

// Delete removes a comment and every descendant reply. Only the author may
// delete; the cascade runs level by level through parent-id lookups.
func (s *Service) Delete(ctx context.Context, commentID, userID string) error {
	c, err := s.repo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrCommentNotFound
	}
	if c.UserID != userID {
		return ErrNotAuthorized
	}

	doomed := []string{commentID}
	frontier := []string{commentID}
	for len(frontier) > 0 {
		children, err := s.repo.ListChildIDs(ctx, frontier)
		if err != nil {
			return err
		}
		doomed = append(doomed, children...)
		frontier = children
	}

	rows, err := s.repo.DeleteByIDs(ctx, doomed)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCommentNotFound
	}

	return nil
}

func (s *Service) toResponse(ctx context.Context, c *Comment) (*CommentResponse, error) {
	author, err := s.repo.GetAuthor(ctx, c.UserID)
	if err != nil {
		return nil, err
	}
	replyCount, err := s.repo.CountReplies(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	resp := &CommentResponse{
		ID:         c.ID,
		PostID:     c.PostID,
		ParentID:   c.ParentID,
		Content:    c.Content,
		Author:     author,
		ReplyCount: replyCount,
		CreatedAt:  response.FormatTime(c.CreatedAt),
	}
	if c.ModifiedAt != nil {
		resp.ModifiedAt = response.FormatTime(*c.ModifiedAt)
	}
	return resp, nil
}
