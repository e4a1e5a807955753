package domain

import (
	"context"
	"time"
)

// Task is a card on a board column. Order is dense and zero-based within its column.
type Task struct {
	ID        string    `json:"id"`
	ColumnID  string    `json:"columnId"`
	Title     string    `json:"title"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
}

// Column is an ordered lane on a board
type Column struct {
	ID      string `json:"id"`
	BoardID string `json:"boardId"`
	Title   string `json:"title"`
	Order   int    `json:"order"`
	Tasks   []Task `json:"tasks"`
}

// Board is the kanban board of a workspace
type Board struct {
	ID          string   `json:"id"`
	WorkspaceID string   `json:"workspaceId"`
	Name        string   `json:"name"`
	Columns     []Column `json:"columns"`
}

// TaskMove is the effective result of a committed move
type TaskMove struct {
	TaskID     string `json:"taskId"`
	ToColumnID string `json:"toColumnId"`
	ToIndex    int    `json:"toIndex"`
}

// BoardTx exposes the row-level operations the reorder engine performs inside a
// single storage transaction.
type BoardTx interface {
	// TaskColumn returns the column currently holding the task, or ErrNotFound.
	TaskColumn(ctx context.Context, taskID string) (string, error)
	// ColumnWorkspace returns the workspace owning the column, or ErrNotFound.
	ColumnWorkspace(ctx context.Context, columnID string) (string, error)
	SetTaskColumn(ctx context.Context, taskID, columnID string) error
	// ColumnTaskIDs lists the tasks of a column ordered by their stored order.
	ColumnTaskIDs(ctx context.Context, columnID string) ([]string, error)
	SetTaskOrder(ctx context.Context, taskID string, order int) error
}

// BoardRepository defines the interface for board storage
type BoardRepository interface {
	GetByWorkspace(ctx context.Context, workspaceID string) (*Board, error)
	// InTx runs fn in one atomic transaction. Any error from fn rolls back.
	InTx(ctx context.Context, fn func(tx BoardTx) error) error
}
