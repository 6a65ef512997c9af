package user

import "github.com/khaledmahi/linkup/pkg/response"

// RegisterRequest represents the request body for creating an account
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name,omitempty"`
}

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest carries the optional profile patch fields. Blank
// fields are left untouched.
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name,omitempty"`
	Bio         string `json:"bio,omitempty"`
}

// UserResponse represents the response for the authenticated user
type UserResponse struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	DisplayName string  `json:"display_name"`
	PictureURL  *string `json:"picture_url,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// ProfileResponse is the public view of a user
type ProfileResponse struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	PictureURL  *string `json:"picture_url,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	TierName    string  `json:"tier_name,omitempty"`
	PostCount   int64   `json:"post_count"`
	CreatedAt   string  `json:"created_at"`
}

// TierResponse represents an account tier
type TierResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ToResponse converts a User model to a UserResponse DTO
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PictureURL:  u.PictureURL,
		Bio:         u.Bio,
		CreatedAt:   response.FormatTime(u.CreatedAt),
	}
}

// ToResponse converts a Tier model to a TierResponse DTO
func (t *Tier) ToResponse() *TierResponse {
	return &TierResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
	}
}
