package message

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/khaledmahi/linkup/pkg/middleware"
	"github.com/khaledmahi/linkup/pkg/response"
)

// Handler handles HTTP requests for direct messages
type Handler struct {
	service  *Service
	sessions *middleware.SessionManager
}

// NewHandler creates a new message handler
func NewHandler(service *Service, sessions *middleware.SessionManager) *Handler {
	return &Handler{service: service, sessions: sessions}
}

// Routes returns the router for message endpoints. Everything requires a
// session.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.sessions.RequireAuth)

	r.Post("/send", h.Send)
	r.Get("/conversations", h.ListConversations)
	r.Get("/with/{username}", h.GetConversation)
	r.Post("/with/{username}/read", h.MarkRead)

	return r
}

// Send handles POST /messages/send
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	senderID, _ := middleware.GetUserID(r.Context())

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	m, err := h.service.Send(r.Context(), senderID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrContentRequired), errors.Is(err, ErrSelfMessage):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to send message")
		}
		return
	}

	response.JSON(w, http.StatusCreated, m.ToResponse())
}

// ListConversations handles GET /messages/conversations
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	conversations, err := h.service.ListConversations(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "Failed to list conversations")
		return
	}

	response.JSON(w, http.StatusOK, conversations)
}

// GetConversation handles GET /messages/with/{username}
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	username := chi.URLParam(r, "username")

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, total, pages, err := h.service.GetConversation(r.Context(), userID, username, page, limit)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to load conversation")
		return
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	meta := &response.Meta{Page: page, Limit: limit, Total: total, TotalPages: pages}

	response.JSONWithMeta(w, http.StatusOK, messages, meta)
}

// MarkRead handles POST /messages/with/{username}/read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	username := chi.URLParam(r, "username")

	count, err := h.service.MarkConversationRead(r.Context(), userID, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to mark conversation read")
		return
	}

	response.JSON(w, http.StatusOK, map[string]int64{"marked_read": count})
}
