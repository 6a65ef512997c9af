package comment

// CreateCommentRequest represents the request body for creating a comment
type CreateCommentRequest struct {
	PostID   string `json:"post_id" validate:"required"`
	ParentID string `json:"parent_id,omitempty"`
	Content  string `json:"content" validate:"required"`
}

// UpdateCommentRequest represents the request body for editing a comment
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required"`
}

// AuthorSummary is the compact author view embedded in comment responses
type AuthorSummary struct {
	UserID      string  `json:"user_id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	PictureURL  *string `json:"picture_url,omitempty"`
}

// CommentResponse is the read view of a comment
type CommentResponse struct {
	ID         string         `json:"id"`
	PostID     string         `json:"post_id"`
	ParentID   *string        `json:"parent_id,omitempty"`
	Content    string         `json:"content"`
	Author     *AuthorSummary `json:"author,omitempty"`
	ReplyCount int64          `json:"reply_count"`
	CreatedAt  string         `json:"created_at"`
	ModifiedAt string         `json:"modified_at,omitempty"`
}
