package handler

import (
	"net/http"

	"github.com/Rrens/collab-gateway/internal/api/middleware"
	"github.com/Rrens/collab-gateway/internal/api/response"
	"github.com/Rrens/collab-gateway/internal/service"
)

// BoardHandler handles board endpoints
type BoardHandler struct {
	boards *service.BoardService
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(boards *service.BoardService) *BoardHandler {
	return &BoardHandler{boards: boards}
}

// Get handles GET /workspaces/{workspaceID}/board
func (h *BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := middleware.GetWorkspaceID(r.Context())
	if !ok {
		response.BadRequest(w, "missing workspace ID")
		return
	}

	board, err := h.boards.GetBoard(r.Context(), workspaceID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, board)
}
