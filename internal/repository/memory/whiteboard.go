package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Rrens/collab-gateway/internal/domain"
)

// WhiteboardStore is a map of the latest whiteboard entry per workspace.
// Entries are evicted only by Sweep.
type WhiteboardStore struct {
	mu      sync.RWMutex
	entries map[string]domain.WhiteboardEntry
}

// NewWhiteboardStore creates an empty whiteboard store
func NewWhiteboardStore() *WhiteboardStore {
	return &WhiteboardStore{entries: make(map[string]domain.WhiteboardEntry)}
}

// Get returns the entry for a workspace or nil
func (s *WhiteboardStore) Get(_ context.Context, workspaceID string) (*domain.WhiteboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[workspaceID]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// Set replaces the entry for a workspace
func (s *WhiteboardStore) Set(_ context.Context, workspaceID string, entry domain.WhiteboardEntry, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[workspaceID] = entry
	return nil
}

// Sweep deletes entries whose age exceeds ttl
func (s *WhiteboardStore) Sweep(_ context.Context, now time.Time, ttl time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for workspaceID, entry := range s.entries {
		if now.Sub(entry.ReceivedAt) > ttl {
			delete(s.entries, workspaceID)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of cached workspaces
func (s *WhiteboardStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
