package service

import (
	"context"
	"time"

	"github.com/Rrens/collab-gateway/internal/domain"
	"github.com/Rrens/collab-gateway/internal/metrics"
	"github.com/rs/zerolog/log"
)

// ChatRateLimiter admits chat sends per user over a sliding window
type ChatRateLimiter struct {
	store  domain.BucketStore
	limit  int
	window time.Duration
}

// NewChatRateLimiter creates a new chat rate limiter
func NewChatRateLimiter(store domain.BucketStore, limit int, window time.Duration) *ChatRateLimiter {
	if limit <= 0 {
		limit = domain.DefaultChatMessages
	}
	if window <= 0 {
		window = domain.DefaultChatWindow
	}
	return &ChatRateLimiter{store: store, limit: limit, window: window}
}

// TryAdmit records a send at now if the user is under the limit.
// A failing bucket store admits the send: limits are advisory.
func (l *ChatRateLimiter) TryAdmit(ctx context.Context, userID string, now time.Time) bool {
	ok, err := l.store.Admit(ctx, "chat:"+userID, now, l.window, l.limit)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("chat rate limiter unavailable")
		return true
	}
	if !ok {
		metrics.RateLimitHits.WithLabelValues("chat").Inc()
	}
	return ok
}
