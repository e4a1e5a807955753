package handler

import (
	"errors"
	"net/http"

	"github.com/Rrens/collab-gateway/internal/api/response"
	"github.com/Rrens/collab-gateway/internal/domain"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

// writeError maps domain errors to HTTP statuses. Unexpected errors are logged
// and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		response.BadRequest(w, "invalid request")
	case errors.Is(err, domain.ErrUnauthorized):
		response.Unauthorized(w, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		response.Forbidden(w, "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, "not found")
	case errors.Is(err, domain.ErrPayloadTooLarge):
		response.PayloadTooLarge(w, "payload too large")
	case errors.Is(err, domain.ErrRateLimited):
		response.TooManyRequests(w, "rate limit exceeded")
	default:
		log.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		response.InternalError(w, "internal error")
	}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
