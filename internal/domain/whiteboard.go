package domain

import (
	"context"
	"encoding/json"
	"time"
)

// WhiteboardEntry is the last received whiteboard payload of a workspace
type WhiteboardEntry struct {
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"receivedAt"`
}

// WhiteboardStore is a key-value store with time-based eviction. Implementations
// may evict on their own (ttl is passed on Set) or rely on Sweep.
type WhiteboardStore interface {
	Get(ctx context.Context, workspaceID string) (*WhiteboardEntry, error)
	Set(ctx context.Context, workspaceID string, entry WhiteboardEntry, ttl time.Duration) error
	// Sweep removes entries older than ttl relative to now and reports how many.
	Sweep(ctx context.Context, now time.Time, ttl time.Duration) (int, error)
}

// BucketStore keeps per-key sliding windows of admission timestamps.
type BucketStore interface {
	// Admit prunes timestamps at or before now-window, then records now and
	// returns true only if fewer than limit remain. A rejection leaves the bucket as is.
	Admit(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, error)
}
