package handler

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/Rrens/collab-gateway/internal/api/middleware"
	"github.com/Rrens/collab-gateway/internal/api/response"
	"github.com/Rrens/collab-gateway/internal/domain"
	"github.com/Rrens/collab-gateway/internal/service"
	"github.com/go-chi/chi/v5"
)

// DocumentHandler handles document state and snapshot endpoints
type DocumentHandler struct {
	docs *service.DocumentStore
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(docs *service.DocumentStore) *DocumentHandler {
	return &DocumentHandler{docs: docs}
}

type snapshotInput struct {
	StateBase64 string `json:"stateBase64"`
	StateHex    string `json:"stateHex"`
}

type documentStateResponse struct {
	UpdateB64 *string    `json:"updateB64"`
	UpdatedAt *time.Time `json:"updatedAt"`
	Size      int        `json:"size"`
}

type stateVectorResponse struct {
	SVB64 *string `json:"svB64"`
}

type stateUpdateInput struct {
	UpdateB64 string `json:"updateB64" validate:"required,base64"`
}

// CreateSnapshot handles POST /workspaces/{workspaceID}/documents/{documentID}/snapshots
func (h *DocumentHandler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := middleware.GetWorkspaceID(r.Context())
	if !ok {
		response.BadRequest(w, "missing workspace ID")
		return
	}
	documentID := chi.URLParam(r, "documentID")

	state, err := readSnapshotBody(r)
	if err != nil {
		response.PayloadTooLarge(w, "snapshot too large")
		return
	}

	snap, err := h.docs.CreateSnapshot(r.Context(), workspaceID, documentID, state)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			response.BadRequest(w, "missing snapshot bytes")
		case errors.Is(err, domain.ErrNotFound):
			response.NotFound(w, "document not found")
		default:
			writeError(w, r, err)
		}
		return
	}

	response.Created(w, snap)
}

// LatestSnapshot handles GET /workspaces/{workspaceID}/documents/{documentID}/snapshots/latest
func (h *DocumentHandler) LatestSnapshot(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := middleware.GetWorkspaceID(r.Context())
	if !ok {
		response.BadRequest(w, "missing workspace ID")
		return
	}
	documentID := chi.URLParam(r, "documentID")
	includeBytes := r.URL.Query().Get("include") == "bytes"

	snap, err := h.docs.LatestSnapshot(r.Context(), workspaceID, documentID, includeBytes)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(w, "document not found")
			return
		}
		writeError(w, r, err)
		return
	}
	if snap == nil {
		response.NoContent(w)
		return
	}

	if includeBytes {
		response.Binary(w, "application/octet-stream", snap.State)
		return
	}
	response.OK(w, snap)
}

// GetState handles GET /documents/{documentID}/state
func (h *DocumentHandler) GetState(w http.ResponseWriter, r *http.Request) {
	state, err := h.docs.GetState(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := documentStateResponse{}
	if state != nil {
		encoded := base64.StdEncoding.EncodeToString(state.Update)
		resp.UpdateB64 = &encoded
		resp.UpdatedAt = &state.UpdatedAt
		resp.Size = state.Size
	}
	response.OK(w, resp)
}

// GetStateVector handles GET /documents/{documentID}/state/vector
func (h *DocumentHandler) GetStateVector(w http.ResponseWriter, r *http.Request) {
	vector, err := h.docs.GetStateVector(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := stateVectorResponse{}
	if vector != nil {
		encoded := base64.StdEncoding.EncodeToString(vector)
		resp.SVB64 = &encoded
	}
	response.OK(w, resp)
}

// PostState handles POST /documents/{documentID}/state
func (h *DocumentHandler) PostState(w http.ResponseWriter, r *http.Request) {
	var input stateUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if isTooLarge(err) {
			response.PayloadTooLarge(w, "update too large")
			return
		}
		response.BadRequest(w, "invalid payload")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	update, err := base64.StdEncoding.DecodeString(input.UpdateB64)
	if err != nil {
		response.BadRequest(w, "invalid payload")
		return
	}

	size, err := h.docs.ApplyUpdate(r.Context(), chi.URLParam(r, "documentID"), update)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, map[string]int{"size": size})
}

// readSnapshotBody accepts raw bytes or JSON {stateBase64} / {stateHex}.
// Unrecognized bodies yield nil; only an oversized body is an error.
func readSnapshotBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		if isTooLarge(err) {
			return nil, domain.ErrPayloadTooLarge
		}
		return nil, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/octet-stream":
		return body, nil
	case "application/json":
		var input snapshotInput
		if err := json.Unmarshal(body, &input); err != nil {
			return nil, nil
		}
		if input.StateBase64 != "" {
			state, err := base64.StdEncoding.DecodeString(input.StateBase64)
			if err != nil {
				return nil, nil
			}
			return state, nil
		}
		if input.StateHex != "" {
			state, err := hex.DecodeString(input.StateHex)
			if err != nil {
				return nil, nil
			}
			return state, nil
		}
	}
	return nil, nil
}
