package comment

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/khaledmahi/linkup/pkg/middleware"
	"github.com/khaledmahi/linkup/pkg/response"
)

// Handler handles HTTP requests for comment operations
type Handler struct {
	service  *Service
	sessions *middleware.SessionManager
}

// NewHandler creates a new comment handler
func NewHandler(service *Service, sessions *middleware.SessionManager) *Handler {
	return &Handler{service: service, sessions: sessions}
}

// Routes returns the router for comment endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/post/{postId}", h.ListByPost)

	r.Group(func(r chi.Router) {
		r.Use(h.sessions.RequireAuth)
		r.Post("/create", h.Create)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})

	return r
}

// Create handles POST /comments/create
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	c, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrPostNotFound), errors.Is(err, ErrCommentNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrContentRequired), errors.Is(err, ErrParentMismatch):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to create comment")
		}
		return
	}

	response.JSON(w, http.StatusCreated, c)
}

// ListByPost handles GET /comments/post/{postId}
func (h *Handler) ListByPost(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postId")

	comments, err := h.service.ListByPost(r.Context(), postID)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to list comments")
		return
	}

	response.JSON(w, http.StatusOK, comments)
}

// Update handles PATCH /comments/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	commentID := chi.URLParam(r, "id")
	userID, _ := middleware.GetUserID(r.Context())

	var req UpdateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	c, err := h.service.UpdateContent(r.Context(), commentID, userID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, ErrCommentNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotAuthorized):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrContentRequired):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to update comment")
		}
		return
	}

	response.JSON(w, http.StatusOK, c)
}

// Delete handles DELETE /comments/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	commentID := chi.URLParam(r, "id")
	userID, _ := middleware.GetUserID(r.Context())

	if err := h.service.Delete(r.Context(), commentID, userID); err != nil {
		switch {
		case errors.Is(err, ErrCommentNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotAuthorized):
			response.Forbidden(w, err.Error())
		default:
			response.InternalError(w, "Failed to delete comment")
		}
		return
	}

	response.Message(w, http.StatusOK, "Comment deleted")
}
