package post

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/khaledmahi/linkup/pkg/middleware"
	"github.com/khaledmahi/linkup/pkg/response"
)

// Handler handles HTTP requests for post operations
type Handler struct {
	service  *Service
	sessions *middleware.SessionManager
}

// NewHandler creates a new post handler
func NewHandler(service *Service, sessions *middleware.SessionManager) *Handler {
	return &Handler{service: service, sessions: sessions}
}

// Routes returns the router for post endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/all", h.List)
	r.Get("/user/{username}", h.ListByUser)
	r.Get("/{id}", h.GetByID)

	r.Group(func(r chi.Router) {
		r.Use(h.sessions.RequireAuth)
		r.Post("/create", h.Create)
		r.Patch("/{id}/content", h.UpdateContent)
		r.Patch("/{id}", h.UpdateAll)
		r.Post("/{id}/images", h.AddImages)
		r.Delete("/{id}/images", h.DeleteImages)
		r.Delete("/{id}", h.Delete)
	})

	return r
}

// List handles GET /posts/all
// @Summary      Global feed
// @Description  Paginated list of ungrouped posts, newest first
// @Tags         posts
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]PostSummary}
// @Router       /posts/all [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	posts, total, pages, err := h.service.ListFeed(r.Context(), page, limit)
	if err != nil {
		response.InternalError(w, "Failed to list posts")
		return
	}

	response.JSONWithMeta(w, http.StatusOK, posts, feedMeta(page, limit, total, pages))
}

// ListByUser handles GET /posts/user/{username}
func (h *Handler) ListByUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	posts, total, pages, err := h.service.ListByUsername(r.Context(), username, page, limit)
	if err != nil {
		response.InternalError(w, "Failed to list posts")
		return
	}

	response.JSONWithMeta(w, http.StatusOK, posts, feedMeta(page, limit, total, pages))
}

// GetByID handles GET /posts/{id}
// @Summary      Get post by ID
// @Tags         posts
// @Produce      json
// @Param        id path string true "Post ID"
// @Success      200 {object} response.APIResponse{data=PostDetailResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /posts/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")

	detail, err := h.service.Get(r.Context(), postID)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get post")
		return
	}

	response.JSON(w, http.StatusOK, detail)
}

// Create handles POST /posts/create (multipart form)
// @Summary      Create a post
// @Description  Create a post, optionally scoped to a group and carrying images
// @Tags         posts
// @Accept       multipart/form-data
// @Produce      json
// @Success      200 {object} response.APIResponse
// @Failure      400 {object} response.APIResponse
// @Router       /posts/create [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}

	req := CreatePostRequest{
		Content: r.FormValue("content"),
		GroupID: r.FormValue("group_id"),
	}

	p, err := h.service.Create(r.Context(), userID, &req, formFiles(r, "images"))
	if err != nil {
		if errors.Is(err, ErrContentRequired) {
			response.BadRequest(w, err.Error())
			return
		}
		response.BadRequest(w, "Failed to create post")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"id": p.ID})
}

// UpdateContent handles PATCH /posts/{id}/content
func (h *Handler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")
	userID, _ := middleware.GetUserID(r.Context())

	var req UpdateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	content, err := h.service.UpdateContent(r.Context(), postID, userID, req.Content)
	if err != nil {
		writePostError(w, err, "Failed to update post")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"content": content})
}

// UpdateAll handles PATCH /posts/{id} (multipart form): content edit, image
// additions and image removals in one request.
func (h *Handler) UpdateAll(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")
	userID, _ := middleware.GetUserID(r.Context())

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}

	content := r.FormValue("content")
	removeIDs := r.MultipartForm.Value["remove_image_ids"]

	result, err := h.service.UpdateAll(r.Context(), postID, userID, content, formFiles(r, "images"), removeIDs)
	if err != nil {
		writePostError(w, err, "Failed to update post")
		return
	}

	response.JSON(w, http.StatusOK, result)
}

// AddImages handles POST /posts/{id}/images (multipart form)
func (h *Handler) AddImages(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")
	userID, _ := middleware.GetUserID(r.Context())

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}

	images, err := h.service.AddImages(r.Context(), postID, userID, formFiles(r, "images"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNoImages), errors.Is(err, ErrNoImagesStored):
			response.BadRequest(w, err.Error())
		default:
			writePostError(w, err, "Failed to add images")
		}
		return
	}

	response.JSON(w, http.StatusOK, images)
}

// DeleteImages handles DELETE /posts/{id}/images
func (h *Handler) DeleteImages(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")
	userID, _ := middleware.GetUserID(r.Context())

	var req DeleteImagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.ImageIDs) == 0 {
		response.BadRequest(w, "Image IDs are required")
		return
	}

	result, err := h.service.DeleteImages(r.Context(), postID, userID, req.ImageIDs)
	if err != nil {
		writePostError(w, err, "Failed to delete images")
		return
	}

	response.JSON(w, http.StatusOK, result)
}

// Delete handles DELETE /posts/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")
	userID, _ := middleware.GetUserID(r.Context())

	if err := h.service.Delete(r.Context(), userID, postID); err != nil {
		writePostError(w, err, "Failed to delete post")
		return
	}

	response.Message(w, http.StatusOK, "Post deleted")
}

// writePostError maps the shared service sentinels onto HTTP statuses
func writePostError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrPostNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotAuthorized):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrContentRequired):
		response.BadRequest(w, err.Error())
	default:
		response.BadRequest(w, fallback)
	}
}

// feedMeta builds pagination metadata with the same clamping the service
// applies.
func feedMeta(page, limit int, total int64, pages int) *response.Meta {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return &response.Meta{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// formFiles returns the uploaded files under the given form key
func formFiles(r *http.Request, key string) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	return r.MultipartForm.File[key]
}
