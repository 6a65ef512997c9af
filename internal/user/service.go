package user

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/khaledmahi/linkup/internal/assets"
	"github.com/khaledmahi/linkup/pkg/logger"
	"github.com/khaledmahi/linkup/pkg/response"
)

// Profile pictures are cropped server-side to a fixed square.
const profilePictureSize = 300

// Common errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNothingToUpdate    = errors.New("nothing to update")
)

// Service handles account business logic
type Service struct {
	repo   *Repository
	assets assets.Store
	log    *logger.Logger
}

// NewService creates a new user service
func NewService(repo *Repository, store assets.Store, baseLog *logger.Logger) *Service {
	return &Service{repo: repo, assets: store, log: baseLog.With("service", "user")}
}

// Register creates a new account. Username and email must be unused.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	if existing, err := s.repo.GetByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrUsernameTaken
	}
	if existing, err := s.repo.GetByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = username
	}

	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		CreatedAt:    time.Now(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.log.Info("user registered", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// Login verifies credentials and stamps the last-login time. The identifier
// may be a username or an email address.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*User, error) {
	identifier := strings.TrimSpace(req.Username)

	u, err := s.repo.GetByUsername(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if u == nil && strings.Contains(identifier, "@") {
		if u, err = s.repo.GetByEmail(ctx, identifier); err != nil {
			return nil, err
		}
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.repo.TouchLastLogin(ctx, u.ID, now); err != nil {
		return nil, err
	}
	u.LastLoginAt = &now

	return u, nil
}

// GetByID returns the account for the given ID
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// GetProfile returns the public profile view for a username
func (s *Service) GetProfile(ctx context.Context, username string) (*ProfileResponse, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	postCount, err := s.repo.CountPosts(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	profile := &ProfileResponse{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		PictureURL:  u.PictureURL,
		Bio:         u.Bio,
		PostCount:   postCount,
		CreatedAt:   response.FormatTime(u.CreatedAt),
	}
	if u.TierID != nil {
		tier, err := s.repo.GetTier(ctx, *u.TierID)
		if err != nil {
			return nil, err
		}
		if tier != nil {
			profile.TierName = tier.Name
		}
	}
	return profile, nil
}

// UpdateProfile applies the non-blank patch fields and an optional new
// profile picture. A patch with nothing in it fails.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest, picture *multipart.FileHeader) (*User, error) {
	updates := map[string]interface{}{}
	if name := strings.TrimSpace(req.DisplayName); name != "" {
		updates["display_name"] = name
	}
	if bio := strings.TrimSpace(req.Bio); bio != "" {
		updates["bio"] = bio
	}

	if picture != nil {
		file, err := picture.Open()
		if err != nil {
			return nil, err
		}
		defer file.Close()

		asset, err := s.assets.Upload(ctx, assets.File{Name: picture.Filename, Content: file}, profilePictureSize, profilePictureSize)
		if err != nil {
			return nil, err
		}
		updates["picture_url"] = asset.URL
	}

	if len(updates) == 0 {
		return nil, ErrNothingToUpdate
	}

	rows, err := s.repo.UpdateProfile(ctx, userID, updates)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrUserNotFound
	}

	return s.GetByID(ctx, userID)
}

// ListTiers returns all account tiers
func (s *Service) ListTiers(ctx context.Context) ([]*Tier, error) {
	return s.repo.ListTiers(ctx)
}
