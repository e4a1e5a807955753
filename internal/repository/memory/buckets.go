// Package memory provides process-local implementations of the cache ports.
// State is lost on restart and is not shared between processes.
package memory

import (
	"context"
	"sync"
	"time"
)

// BucketStore keeps sliding windows of admission timestamps per key
type BucketStore struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
}

// NewBucketStore creates an empty bucket store
func NewBucketStore() *BucketStore {
	return &BucketStore{buckets: make(map[string][]time.Time)}
}

// Admit implements domain.BucketStore
func (s *BucketStore) Admit(_ context.Context, key string, now time.Time, window time.Duration, limit int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-window)
	bucket := s.buckets[key]
	kept := bucket[:0]
	for _, ts := range bucket {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= limit {
		s.store(key, kept)
		return false, nil
	}

	s.store(key, append(kept, now))
	return true, nil
}

func (s *BucketStore) store(key string, bucket []time.Time) {
	if len(bucket) == 0 {
		delete(s.buckets, key)
		return
	}
	s.buckets[key] = bucket
}

// Len reports how many keys hold at least one timestamp
func (s *BucketStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}
