package user

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/khaledmahi/linkup/pkg/middleware"
	"github.com/khaledmahi/linkup/pkg/response"
)

// Handler handles HTTP requests for account operations
type Handler struct {
	service  *Service
	sessions *middleware.SessionManager
}

// NewHandler creates a new user handler
func NewHandler(service *Service, sessions *middleware.SessionManager) *Handler {
	return &Handler{service: service, sessions: sessions}
}

// Routes returns the router for user endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/tiers", h.ListTiers)
	r.Get("/{username}", h.GetProfile)

	r.Group(func(r chi.Router) {
		r.Use(h.sessions.RequireAuth)
		r.Get("/me", h.Me)
		r.Patch("/me", h.UpdateProfile)
	})

	return r
}

// Register handles POST /users/register
// @Summary      Register a new account
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration request"
// @Success      201 {object} response.APIResponse{data=UserResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /users/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	u, err := h.service.Register(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrUsernameTaken), errors.Is(err, ErrEmailTaken):
			response.Conflict(w, err.Error())
		case errors.Is(err, ErrInvalidCredentials):
			response.BadRequest(w, "Username, email and password are required")
		default:
			response.InternalError(w, "Failed to register")
		}
		return
	}

	response.JSON(w, http.StatusCreated, u.ToResponse())
}

// Login handles POST /users/login
// @Summary      Log in and receive a session cookie
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login request"
// @Success      200 {object} response.APIResponse{data=UserResponse}
// @Failure      401 {object} response.APIResponse
// @Router       /users/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	u, err := h.service.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Unauthorized(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to log in")
		return
	}

	token, err := h.sessions.Issue(u.ID)
	if err != nil {
		response.InternalError(w, "Failed to create session")
		return
	}
	h.sessions.SetCookie(w, token)

	response.JSON(w, http.StatusOK, u.ToResponse())
}

// Logout handles POST /users/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	response.Message(w, http.StatusOK, "Logged out")
}

// Me handles GET /users/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	u, err := h.service.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to load account")
		return
	}

	response.JSON(w, http.StatusOK, u.ToResponse())
}

// GetProfile handles GET /users/{username}
// @Summary      Get a public profile
// @Tags         users
// @Produce      json
// @Param        username path string true "Username"
// @Success      200 {object} response.APIResponse{data=ProfileResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /users/{username} [get]
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	profile, err := h.service.GetProfile(r.Context(), username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to load profile")
		return
	}

	response.JSON(w, http.StatusOK, profile)
}

// UpdateProfile handles PATCH /users/me (multipart form)
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}

	req := UpdateProfileRequest{
		DisplayName: r.FormValue("display_name"),
		Bio:         r.FormValue("bio"),
	}

	var picture *multipart.FileHeader
	if files := r.MultipartForm.File["picture"]; len(files) > 0 {
		picture = files[0]
	}

	u, err := h.service.UpdateProfile(r.Context(), userID, &req, picture)
	if err != nil {
		switch {
		case errors.Is(err, ErrNothingToUpdate):
			response.BadRequest(w, err.Error())
		case errors.Is(err, ErrUserNotFound):
			response.NotFound(w, err.Error())
		default:
			response.InternalError(w, "Failed to update profile")
		}
		return
	}

	response.JSON(w, http.StatusOK, u.ToResponse())
}

// ListTiers handles GET /users/tiers
func (h *Handler) ListTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.service.ListTiers(r.Context())
	if err != nil {
		response.InternalError(w, "Failed to list tiers")
		return
	}

	tierResponses := make([]*TierResponse, len(tiers))
	for i, t := range tiers {
		tierResponses[i] = t.ToResponse()
	}

	response.JSON(w, http.StatusOK, tierResponses)
}
