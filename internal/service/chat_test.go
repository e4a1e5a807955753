package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Rrens/collab-gateway/internal/domain"
	"github.com/Rrens/collab-gateway/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestChatRateLimiter_Boundary(t *testing.T) {
	ctx := context.Background()
	limiter := NewChatRateLimiter(memory.NewBucketStore(), 120, time.Minute)
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 120; i++ {
		assert.True(t, limiter.TryAdmit(ctx, "u1", start.Add(time.Duration(i)*100*time.Millisecond)), "send %d", i)
	}
	assert.False(t, limiter.TryAdmit(ctx, "u1", start.Add(30*time.Second)))
	assert.True(t, limiter.TryAdmit(ctx, "u2", start.Add(30*time.Second)), "buckets are per user")
	assert.True(t, limiter.TryAdmit(ctx, "u1", start.Add(time.Minute+12*time.Second)))
}

func TestChatRateLimiter_FailsOpen(t *testing.T) {
	store := new(MockBucketStore)
	store.On("Admit", mock.Anything, "chat:u1", mock.Anything, time.Minute, 120).Return(false, errors.New("redis down"))

	limiter := NewChatRateLimiter(store, 120, time.Minute)
	assert.True(t, limiter.TryAdmit(context.Background(), "u1", time.Now()))
	store.AssertExpectations(t)
}

func TestChatService_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo := new(MockMessageRepository)
		repo.On("Create", ctx, mock.AnythingOfType("*domain.Message")).Return(nil)
		svc := NewChatService(repo, NewChatRateLimiter(memory.NewBucketStore(), 120, time.Minute), 50, 200)

		msg, err := svc.Send(ctx, "ws-1", "u1", "hi")
		require.NoError(t, err)
		assert.Equal(t, "hi", msg.Content)
		assert.Equal(t, "u1", msg.UserID)
		assert.Equal(t, "ws-1", msg.WorkspaceID)
		assert.NotEmpty(t, msg.ID)
		repo.AssertExpectations(t)
	})

	t.Run("timestamp matches stored precision", func(t *testing.T) {
		repo := new(MockMessageRepository)
		repo.On("Create", ctx, mock.AnythingOfType("*domain.Message")).Return(nil)
		svc := NewChatService(repo, nil, 50, 200)
		svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 123456789, time.UTC) }

		msg, err := svc.Send(ctx, "ws-1", "u1", "hi")
		require.NoError(t, err)
		assert.Equal(t, 123456000, msg.CreatedAt.Nanosecond())
	})

	t.Run("content bounds", func(t *testing.T) {
		repo := new(MockMessageRepository)
		repo.On("Create", ctx, mock.AnythingOfType("*domain.Message")).Return(nil)
		svc := NewChatService(repo, nil, 50, 200)

		_, err := svc.Send(ctx, "ws-1", "u1", "")
		assert.ErrorIs(t, err, domain.ErrValidation)

		_, err = svc.Send(ctx, "ws-1", "u1", strings.Repeat("é", domain.MaxChatContent+1))
		assert.ErrorIs(t, err, domain.ErrValidation)

		_, err = svc.Send(ctx, "ws-1", "u1", strings.Repeat("é", domain.MaxChatContent))
		assert.NoError(t, err)
	})

	t.Run("rate limited", func(t *testing.T) {
		repo := new(MockMessageRepository)
		repo.On("Create", ctx, mock.AnythingOfType("*domain.Message")).Return(nil)
		svc := NewChatService(repo, NewChatRateLimiter(memory.NewBucketStore(), 2, time.Minute), 50, 200)

		_, err := svc.Send(ctx, "ws-1", "u1", "one")
		require.NoError(t, err)
		_, err = svc.Send(ctx, "ws-1", "u1", "two")
		require.NoError(t, err)
		_, err = svc.Send(ctx, "ws-1", "u1", "three")
		assert.ErrorIs(t, err, domain.ErrRateLimited)
		repo.AssertNumberOfCalls(t, "Create", 2)
	})
}

func TestChatService_History(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	newest := []domain.Message{
		{ID: "m3", CreatedAt: base.Add(3 * time.Second)},
		{ID: "m2", CreatedAt: base.Add(2 * time.Second)},
		{ID: "m1", CreatedAt: base.Add(1 * time.Second)},
	}

	t.Run("more pages remain", func(t *testing.T) {
		repo := new(MockMessageRepository)
		repo.On("ListBefore", ctx, "ws-1", (*time.Time)(nil), 3).Return(newest, nil)
		svc := NewChatService(repo, nil, 50, 200)

		page, err := svc.History(ctx, "ws-1", 2, nil)
		require.NoError(t, err)
		require.Len(t, page.Data, 2)
		assert.Equal(t, "m2", page.Data[0].ID)
		assert.Equal(t, "m3", page.Data[1].ID)
		require.NotNil(t, page.NextCursor)
		assert.Equal(t, base.Add(2*time.Second), *page.NextCursor)
	})

	t.Run("last page", func(t *testing.T) {
		cursor := base.Add(time.Hour)
		repo := new(MockMessageRepository)
		repo.On("ListBefore", ctx, "ws-1", &cursor, 51).Return(newest, nil)
		svc := NewChatService(repo, nil, 50, 200)

		page, err := svc.History(ctx, "ws-1", 0, &cursor)
		require.NoError(t, err)
		assert.Len(t, page.Data, 3)
		assert.Equal(t, "m1", page.Data[0].ID)
		assert.Nil(t, page.NextCursor)
	})

	t.Run("limit is capped", func(t *testing.T) {
		repo := new(MockMessageRepository)
		repo.On("ListBefore", ctx, "ws-1", (*time.Time)(nil), 201).Return([]domain.Message{}, nil)
		svc := NewChatService(repo, nil, 50, 200)

		page, err := svc.History(ctx, "ws-1", 1000, nil)
		require.NoError(t, err)
		assert.Empty(t, page.Data)
		repo.AssertExpectations(t)
	})
}
