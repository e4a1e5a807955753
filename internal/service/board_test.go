package service

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/Rrens/collab-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBoard() *fakeBoardRepo {
	repo := newFakeBoardRepo()
	repo.addColumn("ws-1", "todo", "t1", "t2", "t3")
	repo.addColumn("ws-1", "doing", "t4")
	repo.addColumn("ws-1", "done")
	repo.addColumn("ws-2", "other", "x1")
	return repo
}

func TestBoardService_MoveTask(t *testing.T) {
	ctx := context.Background()

	t.Run("within column", func(t *testing.T) {
		repo := newTestBoard()
		svc := NewBoardService(repo)

		move, err := svc.MoveTask(ctx, "ws-1", "t3", "todo", 0)
		require.NoError(t, err)
		assert.Equal(t, &domain.TaskMove{TaskID: "t3", ToColumnID: "todo", ToIndex: 0}, move)
		assert.Equal(t, []string{"t3", "t1", "t2"}, repo.column("todo"))
		assert.Equal(t, []int{0, 1, 2}, repo.orders("todo"))
	})

	t.Run("across columns", func(t *testing.T) {
		repo := newTestBoard()
		svc := NewBoardService(repo)

		_, err := svc.MoveTask(ctx, "ws-1", "t1", "doing", 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"t4", "t1"}, repo.column("doing"))
		assert.Equal(t, []int{0, 1}, repo.orders("doing"))
		assert.Equal(t, []string{"t2", "t3"}, repo.column("todo"))
		assert.Equal(t, []int{0, 1}, repo.orders("todo"))
	})

	t.Run("into empty column", func(t *testing.T) {
		repo := newTestBoard()
		svc := NewBoardService(repo)

		move, err := svc.MoveTask(ctx, "ws-1", "t2", "done", 0)
		require.NoError(t, err)
		assert.Equal(t, 0, move.ToIndex)
		assert.Equal(t, []string{"t2"}, repo.column("done"))
		assert.Equal(t, []int{0, 1}, repo.orders("todo"))
	})

	t.Run("index is clamped", func(t *testing.T) {
		repo := newTestBoard()
		svc := NewBoardService(repo)

		move, err := svc.MoveTask(ctx, "ws-1", "t1", "todo", 99)
		require.NoError(t, err)
		assert.Equal(t, 2, move.ToIndex)
		assert.Equal(t, []string{"t2", "t3", "t1"}, repo.column("todo"))
	})

	t.Run("negative index", func(t *testing.T) {
		svc := NewBoardService(newTestBoard())

		_, err := svc.MoveTask(ctx, "ws-1", "t1", "todo", -1)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("missing task", func(t *testing.T) {
		svc := NewBoardService(newTestBoard())

		_, err := svc.MoveTask(ctx, "ws-1", "nope", "todo", 0)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("missing column", func(t *testing.T) {
		repo := newTestBoard()
		svc := NewBoardService(repo)

		_, err := svc.MoveTask(ctx, "ws-1", "t1", "nope", 0)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, []string{"t1", "t2", "t3"}, repo.column("todo"))
	})

	t.Run("column of another workspace", func(t *testing.T) {
		repo := newTestBoard()
		svc := NewBoardService(repo)

		_, err := svc.MoveTask(ctx, "ws-1", "t1", "other", 0)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, []string{"x1"}, repo.column("other"))
	})

	t.Run("task of another workspace", func(t *testing.T) {
		repo := newTestBoard()
		svc := NewBoardService(repo)

		_, err := svc.MoveTask(ctx, "ws-1", "x1", "todo", 0)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, []string{"t1", "t2", "t3"}, repo.column("todo"))
	})

	t.Run("repairs drifted orders", func(t *testing.T) {
		repo := newTestBoard()
		repo.tasks["t1"].order = 4
		repo.tasks["t2"].order = 9
		repo.tasks["t3"].order = 9
		svc := NewBoardService(repo)

		_, err := svc.MoveTask(ctx, "ws-1", "t4", "todo", 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"t1", "t4", "t2", "t3"}, repo.column("todo"))
		assert.Equal(t, []int{0, 1, 2, 3}, repo.orders("todo"))
	})

	t.Run("failure leaves no partial reorder", func(t *testing.T) {
		repo := newTestBoard()
		repo.failOn = "t2"
		svc := NewBoardService(repo)

		_, err := svc.MoveTask(ctx, "ws-1", "t3", "todo", 0)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, []string{"t1", "t2", "t3"}, repo.column("todo"))
		assert.Equal(t, []int{0, 1, 2}, repo.orders("todo"))
	})
}

func TestBoardService_ConcurrentMovesKeepOrderDense(t *testing.T) {
	repo := newFakeBoardRepo()
	columns := []string{"a", "b", "c"}
	repo.addColumn("ws-1", "a", "t0", "t1", "t2", "t3", "t4", "t5")
	repo.addColumn("ws-1", "b", "t6", "t7", "t8")
	repo.addColumn("ws-1", "c", "t9")
	tasks := []string{"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8", "t9"}
	svc := NewBoardService(repo)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 50; i++ {
				task := tasks[rng.Intn(len(tasks))]
				col := columns[rng.Intn(len(columns))]
				_, err := svc.MoveTask(context.Background(), "ws-1", task, col, rng.Intn(12))
				assert.NoError(t, err)
			}
		}(int64(w))
	}
	wg.Wait()

	total := 0
	for _, col := range columns {
		orders := repo.orders(col)
		for i, o := range orders {
			assert.Equal(t, i, o, "column %s", col)
		}
		total += len(orders)
	}
	assert.Equal(t, len(tasks), total)
}
