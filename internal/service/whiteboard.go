package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Rrens/collab-gateway/internal/domain"
	"github.com/Rrens/collab-gateway/internal/metrics"
	"github.com/rs/zerolog/log"
)

// WhiteboardCache keeps the last whiteboard payload per workspace. It owns a
// sweeper that evicts entries older than the TTL.
type WhiteboardCache struct {
	store    domain.WhiteboardStore
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWhiteboardCache creates a new whiteboard cache
func NewWhiteboardCache(store domain.WhiteboardStore, ttl, interval time.Duration) *WhiteboardCache {
	if ttl <= 0 {
		ttl = domain.DefaultWhiteboardTTL
	}
	if interval <= 0 {
		interval = domain.DefaultWhiteboardSweep
	}
	return &WhiteboardCache{
		store:    store,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
	}
}

// Get returns the cached payload of a workspace, or nil
func (c *WhiteboardCache) Get(ctx context.Context, workspaceID string) (json.RawMessage, error) {
	entry, err := c.store.Get(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get whiteboard: %w", err)
	}
	if entry == nil || c.now().Sub(entry.ReceivedAt) > c.ttl {
		return nil, nil
	}
	return entry.Payload, nil
}

// Set replaces the cached payload. Payloads over the size cap are dropped and
// reported as not stored.
func (c *WhiteboardCache) Set(ctx context.Context, workspaceID string, payload json.RawMessage) (bool, error) {
	var compact bytes.Buffer
	if err := json.Compact(&compact, payload); err != nil {
		return false, domain.ErrValidation
	}
	if compact.Len() > domain.MaxWhiteboardBytes {
		log.Warn().Str("workspace_id", workspaceID).Int("bytes", compact.Len()).Msg("whiteboard payload dropped")
		return false, nil
	}

	entry := domain.WhiteboardEntry{
		Payload:    json.RawMessage(compact.Bytes()),
		ReceivedAt: c.now(),
	}
	if err := c.store.Set(ctx, workspaceID, entry, c.ttl); err != nil {
		return false, fmt.Errorf("failed to set whiteboard: %w", err)
	}
	return true, nil
}

// Sweep evicts expired entries
func (c *WhiteboardCache) Sweep(ctx context.Context, now time.Time) (int, error) {
	return c.store.Sweep(ctx, now, c.ttl)
}

// Start launches the periodic sweeper. Calling Start twice is a no-op.
func (c *WhiteboardCache) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := c.Sweep(ctx, c.now())
				if err != nil {
					log.Error().Err(err).Msg("whiteboard sweep failed")
					continue
				}
				if removed > 0 {
					metrics.WhiteboardEvictions.Add(float64(removed))
					log.Debug().Int("removed", removed).Msg("whiteboard sweep")
				}
			}
		}
	}(c.done)
}

// Stop halts the sweeper and waits for it to exit
func (c *WhiteboardCache) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
