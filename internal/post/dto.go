package post

import "github.com/khaledmahi/linkup/pkg/response"

// CreatePostRequest represents the multipart fields for creating a post
type CreatePostRequest struct {
	Content string `json:"content" validate:"required"`
	GroupID string `json:"group_id,omitempty"`
}

// UpdateContentRequest represents the request body for a content-only edit
type UpdateContentRequest struct {
	Content string `json:"content" validate:"required"`
}

// DeleteImagesRequest carries the image IDs to detach from a post
type DeleteImagesRequest struct {
	ImageIDs []string `json:"image_ids" validate:"required,min=1"`
}

// AuthorSummary is the compact creator view embedded in post responses
type AuthorSummary struct {
	UserID      string  `json:"user_id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	PictureURL  *string `json:"picture_url,omitempty"`
}

// GroupRef is the minimal parent-group projection on a post detail view
type GroupRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ImageResponse represents an attached image
type ImageResponse struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	CreatedAt string `json:"created_at"`
}

// PostSummary is the feed projection of a post, capped to a handful of
// image previews.
type PostSummary struct {
	ID           string           `json:"id"`
	Content      string           `json:"content"`
	Author       *AuthorSummary   `json:"author,omitempty"`
	GroupID      *string          `json:"group_id,omitempty"`
	Images       []*ImageResponse `json:"images,omitempty"`
	ImageCount   int64            `json:"image_count"`
	CommentCount int64            `json:"comment_count"`
	CreatedAt    string           `json:"created_at"`
	ModifiedAt   string           `json:"modified_at,omitempty"`
}

// PostDetailResponse is the full post view
type PostDetailResponse struct {
	ID           string           `json:"id"`
	Content      string           `json:"content"`
	Author       *AuthorSummary   `json:"author,omitempty"`
	Group        *GroupRef        `json:"group,omitempty"`
	Images       []*ImageResponse `json:"images"`
	CommentCount int64            `json:"comment_count"`
	CreatedAt    string           `json:"created_at"`
	ModifiedAt   string           `json:"modified_at,omitempty"`
}

// ImageDeleteResult splits an image-removal request into the IDs confirmed
// gone and the IDs that could not be deleted.
type ImageDeleteResult struct {
	Deleted    []string `json:"deleted"`
	NotDeleted []string `json:"not_deleted"`
}

// UpdateAllResult bundles the outcome of a composite post update
type UpdateAllResult struct {
	Content       string             `json:"content"`
	AddedImages   []*ImageResponse   `json:"added_images"`
	RemovedImages *ImageDeleteResult `json:"removed_images"`
}

// ToResponse converts an Image model to an ImageResponse DTO
func (img *Image) ToResponse() *ImageResponse {
	return &ImageResponse{
		ID:        img.ID,
		URL:       img.URL,
		CreatedAt: response.FormatTime(img.CreatedAt),
	}
}
