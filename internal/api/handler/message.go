package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Rrens/collab-gateway/internal/api/middleware"
	"github.com/Rrens/collab-gateway/internal/api/response"
	"github.com/Rrens/collab-gateway/internal/service"
)

// MessageHandler handles chat history endpoints
type MessageHandler struct {
	chat *service.ChatService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(chat *service.ChatService) *MessageHandler {
	return &MessageHandler{chat: chat}
}

// List handles GET /workspaces/{workspaceID}/messages?limit=&cursor=
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := middleware.GetWorkspaceID(r.Context())
	if !ok {
		response.BadRequest(w, "missing workspace ID")
		return
	}

	query := r.URL.Query()

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.BadRequest(w, "invalid limit")
			return
		}
		limit = n
	}

	var cursor *time.Time
	if raw := query.Get("cursor"); raw != "" {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			response.BadRequest(w, "invalid cursor")
			return
		}
		cursor = &ts
	}

	page, err := h.chat.History(r.Context(), workspaceID, limit, cursor)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, page)
}
