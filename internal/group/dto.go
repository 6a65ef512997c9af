package group

import "github.com/khaledmahi/linkup/pkg/response"

// CreateGroupRequest represents the multipart fields for creating a group
type CreateGroupRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description,omitempty"`
}

// UpdateGroupRequest carries the optional patch fields for a group. Blank
// fields are left untouched.
type UpdateGroupRequest struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// MemberSummary is the compact member view embedded in group responses
type MemberSummary struct {
	UserID      string  `json:"user_id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	PictureURL  *string `json:"picture_url,omitempty"`
	JoinedAt    string  `json:"joined_at"`
}

// GroupSummary is the list-view projection of a group, capped to a handful
// of member previews.
type GroupSummary struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	PictureURL  *string          `json:"picture_url,omitempty"`
	MemberCount int64            `json:"member_count"`
	Members     []*MemberSummary `json:"members,omitempty"`
	CreatedAt   string           `json:"created_at"`
}

// GroupDetailResponse is the full group view
type GroupDetailResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	PictureURL  *string          `json:"picture_url,omitempty"`
	Creator     *MemberSummary   `json:"creator,omitempty"`
	Members     []*MemberSummary `json:"members"`
	MemberCount int64            `json:"member_count"`
	IsMember    bool             `json:"is_member"`
	CreatedAt   string           `json:"created_at"`
}

// MembershipResult is the outcome of a join or leave attempt
type MembershipResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Member  *MemberSummary `json:"member,omitempty"`
}

// ToSummary converts a Group model to a GroupSummary DTO
func (g *Group) ToSummary() *GroupSummary {
	return &GroupSummary{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		PictureURL:  g.PictureURL,
		CreatedAt:   response.FormatTime(g.CreatedAt),
	}
}
