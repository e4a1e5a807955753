package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/collab-gateway/internal/domain"
)

// BoardService reads boards and reorders tasks
type BoardService struct {
	boardRepo domain.BoardRepository
}

// NewBoardService creates a new board service
func NewBoardService(boardRepo domain.BoardRepository) *BoardService {
	return &BoardService{boardRepo: boardRepo}
}

// GetBoard returns the workspace board, or nil when it has none
func (s *BoardService) GetBoard(ctx context.Context, workspaceID string) (*domain.Board, error) {
	board, err := s.boardRepo.GetByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	return board, nil
}

// MoveTask relocates a task to toIndex of toColumnID in one transaction and
// rewrites the order of every affected column to 0..n-1. toIndex is clamped to
// the destination bounds; the effective move is returned.
func (s *BoardService) MoveTask(ctx context.Context, workspaceID, taskID, toColumnID string, toIndex int) (*domain.TaskMove, error) {
	if toIndex < 0 {
		return nil, domain.ErrValidation
	}

	move := &domain.TaskMove{TaskID: taskID, ToColumnID: toColumnID}

	err := s.boardRepo.InTx(ctx, func(tx domain.BoardTx) error {
		fromColumnID, err := tx.TaskColumn(ctx, taskID)
		if err != nil {
			return err
		}
		if err := sameWorkspace(ctx, tx, workspaceID, fromColumnID); err != nil {
			return err
		}
		if fromColumnID != toColumnID {
			if err := sameWorkspace(ctx, tx, workspaceID, toColumnID); err != nil {
				return err
			}
		}

		if err := tx.SetTaskColumn(ctx, taskID, toColumnID); err != nil {
			return err
		}

		ids, err := tx.ColumnTaskIDs(ctx, toColumnID)
		if err != nil {
			return err
		}
		dest := make([]string, 0, len(ids)+1)
		for _, id := range ids {
			if id != taskID {
				dest = append(dest, id)
			}
		}

		at := toIndex
		if at > len(dest) {
			at = len(dest)
		}
		dest = append(dest, "")
		copy(dest[at+1:], dest[at:])
		dest[at] = taskID
		move.ToIndex = at

		if err := rewriteOrder(ctx, tx, dest); err != nil {
			return err
		}

		if fromColumnID != toColumnID {
			rest, err := tx.ColumnTaskIDs(ctx, fromColumnID)
			if err != nil {
				return err
			}
			if err := rewriteOrder(ctx, tx, rest); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to move task: %w", err)
	}

	return move, nil
}

func sameWorkspace(ctx context.Context, tx domain.BoardTx, workspaceID, columnID string) error {
	owner, err := tx.ColumnWorkspace(ctx, columnID)
	if err != nil {
		return err
	}
	if owner != workspaceID {
		return domain.ErrNotFound
	}
	return nil
}

func rewriteOrder(ctx context.Context, tx domain.BoardTx, ids []string) error {
	for i, id := range ids {
		if err := tx.SetTaskOrder(ctx, id, i); err != nil {
			return err
		}
	}
	return nil
}
