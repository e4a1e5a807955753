package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Rrens/collab-gateway/internal/api/response"
	"github.com/Rrens/collab-gateway/internal/domain"
	"github.com/Rrens/collab-gateway/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	UserIDKey      contextKey = "userID"
	WorkspaceIDKey contextKey = "workspaceID"
)

// AuthMiddleware authenticates bearer tokens through the identity gate
type AuthMiddleware struct {
	gate *service.IdentityGate
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(gate *service.IdentityGate) *AuthMiddleware {
	return &AuthMiddleware{gate: gate}
}

// Authenticate rejects the request with a generic 401 unless the token is valid
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			token = parts[1]
		}

		userID, err := m.gate.Authenticate(r.Context(), token)
		if err != nil {
			response.Unauthorized(w, "unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID gets the user ID from context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

// GetWorkspaceID gets the workspace ID from context
func GetWorkspaceID(ctx context.Context) (string, bool) {
	workspaceID, ok := ctx.Value(WorkspaceIDKey).(string)
	return workspaceID, ok && workspaceID != ""
}

// WorkspaceMember requires the caller to belong to the {workspaceID} of the URL
func WorkspaceMember(oracle *service.MembershipOracle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r.Context())
			if !ok {
				response.Unauthorized(w, "unauthorized")
				return
			}

			workspaceID := chi.URLParam(r, "workspaceID")
			if workspaceID == "" {
				response.BadRequest(w, "missing workspace ID")
				return
			}

			if err := oracle.Authorize(r.Context(), userID, workspaceID); err != nil {
				if errors.Is(err, domain.ErrForbidden) {
					response.Forbidden(w, "forbidden")
					return
				}
				log.Error().Err(err).Str("workspace_id", workspaceID).Msg("membership check failed")
				response.InternalError(w, "internal error")
				return
			}

			ctx := context.WithValue(r.Context(), WorkspaceIDKey, workspaceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DocumentResolver finds the workspace that owns a document
type DocumentResolver interface {
	WorkspaceOf(ctx context.Context, documentID string) (string, error)
}

// DocumentMember resolves the workspace of the {documentID} of the URL and requires
// the caller to belong to it. Missing documents and foreign documents both give 404.
func DocumentMember(docs DocumentResolver, oracle *service.MembershipOracle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r.Context())
			if !ok {
				response.Unauthorized(w, "unauthorized")
				return
			}

			documentID := chi.URLParam(r, "documentID")
			workspaceID, err := docs.WorkspaceOf(r.Context(), documentID)
			if err == nil {
				err = oracle.Authorize(r.Context(), userID, workspaceID)
			}
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrForbidden) {
					response.NotFound(w, "document not found")
					return
				}
				log.Error().Err(err).Str("document_id", documentID).Msg("document access check failed")
				response.InternalError(w, "internal error")
				return
			}

			ctx := context.WithValue(r.Context(), WorkspaceIDKey, workspaceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
