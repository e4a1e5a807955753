package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/collab-gateway/internal/domain"
	"github.com/jackc/pgx/v5"
)

// BoardRepository implements domain.BoardRepository
type BoardRepository struct {
	db *DB
}

// NewBoardRepository creates a new board repository
func NewBoardRepository(db *DB) *BoardRepository {
	return &BoardRepository{db: db}
}

// GetByWorkspace loads the board of a workspace with columns and tasks in order.
// It returns nil when the workspace has no board.
func (r *BoardRepository) GetByWorkspace(ctx context.Context, workspaceID string) (*domain.Board, error) {
	var board domain.Board
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, workspace_id, name
		FROM boards
		WHERE workspace_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`, workspaceID).Scan(&board.ID, &board.WorkspaceID, &board.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get board: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, board_id, title, position
		FROM board_columns
		WHERE board_id = $1
		ORDER BY position ASC, id ASC
	`, board.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	columns, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Column, error) {
		c := domain.Column{Tasks: []domain.Task{}}
		err := row.Scan(&c.ID, &c.BoardID, &c.Title, &c.Order)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan column: %w", err)
	}

	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c.ID] = i
	}

	rows, err = r.db.Pool.Query(ctx, `
		SELECT t.id, t.column_id, t.title, t.position, t.created_at
		FROM tasks t
		JOIN board_columns c ON c.id = t.column_id
		WHERE c.board_id = $1
		ORDER BY t.column_id, t.position ASC, t.id ASC
	`, board.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	tasks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Task, error) {
		var t domain.Task
		err := row.Scan(&t.ID, &t.ColumnID, &t.Title, &t.Order, &t.CreatedAt)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}

	for _, t := range tasks {
		if i, ok := index[t.ColumnID]; ok {
			columns[i].Tasks = append(columns[i].Tasks, t)
		}
	}

	board.Columns = columns
	return &board, nil
}

// InTx runs fn inside a serializable transaction
func (r *BoardRepository) InTx(ctx context.Context, fn func(tx domain.BoardTx) error) error {
	return pgx.BeginTxFunc(ctx, r.db.Pool, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(tx pgx.Tx) error {
		return fn(&boardTx{tx: tx})
	})
}

type boardTx struct {
	tx pgx.Tx
}

func (b *boardTx) TaskColumn(ctx context.Context, taskID string) (string, error) {
	var columnID string
	err := b.tx.QueryRow(ctx, `SELECT column_id FROM tasks WHERE id = $1 FOR UPDATE`, taskID).Scan(&columnID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("failed to get task: %w", err)
	}
	return columnID, nil
}

func (b *boardTx) ColumnWorkspace(ctx context.Context, columnID string) (string, error) {
	var workspaceID string
	err := b.tx.QueryRow(ctx, `
		SELECT b.workspace_id
		FROM board_columns c
		JOIN boards b ON b.id = c.board_id
		WHERE c.id = $1
	`, columnID).Scan(&workspaceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("failed to get column: %w", err)
	}
	return workspaceID, nil
}

func (b *boardTx) SetTaskColumn(ctx context.Context, taskID, columnID string) error {
	tag, err := b.tx.Exec(ctx, `UPDATE tasks SET column_id = $2 WHERE id = $1`, taskID, columnID)
	if err != nil {
		return fmt.Errorf("failed to move task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (b *boardTx) ColumnTaskIDs(ctx context.Context, columnID string) ([]string, error) {
	rows, err := b.tx.Query(ctx, `
		SELECT id FROM tasks
		WHERE column_id = $1
		ORDER BY position ASC, id ASC
		FOR UPDATE
	`, columnID)
	if err != nil {
		return nil, fmt.Errorf("failed to list column tasks: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan task id: %w", err)
	}
	return ids, nil
}

func (b *boardTx) SetTaskOrder(ctx context.Context, taskID string, order int) error {
	tag, err := b.tx.Exec(ctx, `UPDATE tasks SET position = $2 WHERE id = $1`, taskID, order)
	if err != nil {
		return fmt.Errorf("failed to reorder task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
