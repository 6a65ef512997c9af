package group

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/khaledmahi/linkup/pkg/middleware"
	"github.com/khaledmahi/linkup/pkg/response"
)

// Handler handles HTTP requests for group operations
type Handler struct {
	service  *Service
	sessions *middleware.SessionManager
}

// NewHandler creates a new group handler
func NewHandler(service *Service, sessions *middleware.SessionManager) *Handler {
	return &Handler{service: service, sessions: sessions}
}

// Routes returns the router for group endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(h.sessions.OptionalAuth).Get("/all", h.List)
	r.With(h.sessions.OptionalAuth).Get("/{id}", h.GetByID)

	r.Group(func(r chi.Router) {
		r.Use(h.sessions.RequireAuth)
		r.Post("/create", h.Create)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Get("/{id}/posts", h.GetPosts)
		r.Post("/{id}/join", h.Join)
		r.Post("/{id}/leave", h.Leave)
	})

	return r
}

// List handles GET /groups/all
// @Summary      List groups
// @Description  Get a paginated list of groups with member previews
// @Tags         groups
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]GroupSummary}
// @Failure      404 {object} response.APIResponse
// @Router       /groups/all [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	groups, total, pages, err := h.service.List(r.Context(), page, limit)
	if err != nil {
		response.InternalError(w, "Failed to list groups")
		return
	}
	if len(groups) == 0 {
		response.NotFound(w, "No groups found")
		return
	}

	meta := &response.Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: pages,
	}

	response.JSONWithMeta(w, http.StatusOK, groups, meta)
}

// GetByID handles GET /groups/{id}
// @Summary      Get group by ID
// @Description  Get a group with its members and the requester's membership flag
// @Tags         groups
// @Produce      json
// @Param        id path string true "Group ID"
// @Success      200 {object} response.APIResponse{data=GroupDetailResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	requesterID, _ := middleware.GetUserID(r.Context())

	detail, err := h.service.Get(r.Context(), groupID, requesterID)
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get group")
		return
	}

	response.JSON(w, http.StatusOK, detail)
}

// Create handles POST /groups/create (multipart form)
// @Summary      Create a new group
// @Description  Create a group; the creator becomes its first member
// @Tags         groups
// @Accept       multipart/form-data
// @Produce      json
// @Success      200 {object} response.APIResponse
// @Failure      400 {object} response.APIResponse
// @Router       /groups/create [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	creatorID, _ := middleware.GetUserID(r.Context())

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}

	req := CreateGroupRequest{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
	}

	g, err := h.service.Create(r.Context(), creatorID, &req, formFile(r, "picture"))
	if err != nil {
		if errors.Is(err, ErrNameRequired) {
			response.BadRequest(w, err.Error())
			return
		}
		response.BadRequest(w, "Failed to create group")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"id": g.ID})
}

// Update handles PATCH /groups/{id} (multipart form)
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	requesterID, _ := middleware.GetUserID(r.Context())

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}

	req := UpdateGroupRequest{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
	}

	err := h.service.Update(r.Context(), groupID, requesterID, &req, formFile(r, "picture"))
	if err != nil {
		switch {
		case errors.Is(err, ErrGroupNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotAuthorized):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrNothingToUpdate):
			response.BadRequest(w, err.Error())
		default:
			response.BadRequest(w, "Failed to update group")
		}
		return
	}

	response.Message(w, http.StatusOK, "Group updated")
}

// Delete handles DELETE /groups/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	requesterID, _ := middleware.GetUserID(r.Context())

	if err := h.service.Delete(r.Context(), groupID, requesterID); err != nil {
		switch {
		case errors.Is(err, ErrGroupNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotAuthorized):
			response.Forbidden(w, err.Error())
		default:
			response.BadRequest(w, "Failed to delete group")
		}
		return
	}

	response.Message(w, http.StatusOK, "Group deleted")
}

// GetPosts handles GET /groups/{id}/posts
func (h *Handler) GetPosts(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	requesterID, _ := middleware.GetUserID(r.Context())

	page, limit := pageParams(r)

	posts, total, pages, err := h.service.GetPosts(r.Context(), groupID, requesterID, page, limit)
	if err != nil {
		if errors.Is(err, ErrNotAuthorized) {
			response.Forbidden(w, "Only members can view group posts")
			return
		}
		response.InternalError(w, "Failed to get group posts")
		return
	}

	meta := &response.Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: pages,
	}

	response.JSONWithMeta(w, http.StatusOK, posts, meta)
}

// Join handles POST /groups/{id}/join
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	userID, _ := middleware.GetUserID(r.Context())

	result, err := h.service.Join(r.Context(), userID, groupID)
	if err != nil {
		response.InternalError(w, "Failed to join group")
		return
	}
	if !result.Success {
		response.JSON(w, http.StatusBadRequest, result)
		return
	}

	response.JSON(w, http.StatusOK, result)
}

// Leave handles POST /groups/{id}/leave
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	userID, _ := middleware.GetUserID(r.Context())

	result, err := h.service.Leave(r.Context(), userID, groupID)
	if err != nil {
		response.InternalError(w, "Failed to leave group")
		return
	}
	if !result.Success {
		response.JSON(w, http.StatusBadRequest, result)
		return
	}

	response.JSON(w, http.StatusOK, result)
}

// pageParams reads and clamps the pagination query parameters
func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// formFile returns the first uploaded file under the given form key, or nil
func formFile(r *http.Request, key string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	if files := r.MultipartForm.File[key]; len(files) > 0 {
		return files[0]
	}
	return nil
}
