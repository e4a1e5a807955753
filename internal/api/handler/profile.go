package handler

import (
	"net/http"
	"strings"

	"github.com/Rrens/collab-gateway/internal/api/response"
	"github.com/Rrens/collab-gateway/internal/service"
)

// ProfileHandler handles profile lookups
type ProfileHandler struct {
	profiles *service.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// List handles GET /profiles?ids=a,b,c
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for _, id := range strings.Split(r.URL.Query().Get("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	profiles, err := h.profiles.List(r.Context(), ids)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, profiles)
}
