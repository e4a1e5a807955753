package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Rrens/collab-gateway/internal/api/response"
	"github.com/Rrens/collab-gateway/internal/domain"
	"github.com/Rrens/collab-gateway/internal/metrics"
	"github.com/rs/zerolog/log"
)

// RateLimitMiddleware applies a per-user sliding window to HTTP requests
type RateLimitMiddleware struct {
	store  domain.BucketStore
	limit  int
	window time.Duration
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(store domain.BucketStore, limit int, window time.Duration) *RateLimitMiddleware {
	return &RateLimitMiddleware{store: store, limit: limit, window: window}
}

// Limit applies rate limiting based on user ID
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserID(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthorized")
			return
		}

		allowed, err := m.store.Admit(r.Context(), "http:"+userID, time.Now(), m.window, m.limit)
		if err != nil {
			// If rate limiter fails, allow the request but log the error
			log.Warn().Err(err).Msg("http rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.limit))
		w.Header().Set("X-RateLimit-Window", m.window.String())

		if !allowed {
			metrics.RateLimitHits.WithLabelValues("http").Inc()
			w.Header().Set("Retry-After", strconv.Itoa(int(m.window.Seconds())))
			response.TooManyRequests(w, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}
