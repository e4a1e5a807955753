package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Rrens/collab-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketStore_SlidingWindow(t *testing.T) {
	store := NewBucketStore()
	ctx := context.Background()
	start := time.Unix(1_700_000_000, 0)

	for i := 0; i < 120; i++ {
		ok, err := store.Admit(ctx, "u1", start.Add(time.Duration(i)*100*time.Millisecond), time.Minute, 120)
		require.NoError(t, err)
		require.True(t, ok, "admit %d", i)
	}

	ok, err := store.Admit(ctx, "u1", start.Add(30*time.Second), time.Minute, 120)
	require.NoError(t, err)
	assert.False(t, ok)

	// other users are independent
	ok, _ = store.Admit(ctx, "u2", start.Add(30*time.Second), time.Minute, 120)
	assert.True(t, ok)

	// the first timestamp leaves the window exactly one window later
	ok, _ = store.Admit(ctx, "u1", start.Add(time.Minute), time.Minute, 120)
	assert.True(t, ok)

	ok, _ = store.Admit(ctx, "u1", start.Add(time.Minute+time.Millisecond), time.Minute, 120)
	assert.False(t, ok)

	ok, _ = store.Admit(ctx, "u1", start.Add(3*time.Minute), time.Minute, 120)
	assert.True(t, ok)
}

func TestBucketStore_RejectionDoesNotGrowBucket(t *testing.T) {
	store := NewBucketStore()
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	ok, _ := store.Admit(ctx, "u1", now, time.Minute, 1)
	require.True(t, ok)
	for i := 1; i <= 5; i++ {
		ok, _ = store.Admit(ctx, "u1", now.Add(time.Duration(i)*time.Second), time.Minute, 1)
		require.False(t, ok)
	}

	// only the admitted timestamp counts, so the window reopens after it expires
	ok, _ = store.Admit(ctx, "u1", now.Add(time.Minute), time.Minute, 1)
	assert.True(t, ok)
}

func TestWhiteboardStore_SweepByAge(t *testing.T) {
	store := NewWhiteboardStore()
	ctx := context.Background()
	t0 := time.Unix(1_700_000_000, 0)

	require.NoError(t, store.Set(ctx, "w1", domain.WhiteboardEntry{Payload: json.RawMessage(`{"elements":[]}`), ReceivedAt: t0}, time.Hour))
	require.NoError(t, store.Set(ctx, "w2", domain.WhiteboardEntry{Payload: json.RawMessage(`{}`), ReceivedAt: t0.Add(30 * time.Minute)}, time.Hour))

	removed, err := store.Sweep(ctx, t0.Add(59*time.Minute), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	removed, err = store.Sweep(ctx, t0.Add(61*time.Minute), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	entry, _ := store.Get(ctx, "w1")
	assert.Nil(t, entry)
	entry, _ = store.Get(ctx, "w2")
	require.NotNil(t, entry)
	assert.JSONEq(t, `{}`, string(entry.Payload))
	assert.Equal(t, 1, store.Len())
}
