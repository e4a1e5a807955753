package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/collab-gateway/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DocumentRepository implements domain.DocumentRepository
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// WorkspaceOf returns the workspace that owns a document
func (r *DocumentRepository) WorkspaceOf(ctx context.Context, documentID string) (string, error) {
	var workspaceID string
	err := r.db.Pool.QueryRow(ctx, `SELECT workspace_id FROM documents WHERE id = $1`, documentID).Scan(&workspaceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("failed to get document: %w", err)
	}
	return workspaceID, nil
}

// GetState retrieves the merged state of a document
func (r *DocumentRepository) GetState(ctx context.Context, documentID string) (*domain.DocumentState, error) {
	state := &domain.DocumentState{DocumentID: documentID}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT update, size, updated_at
		FROM document_states
		WHERE document_id = $1 AND size > 0
	`, documentID).Scan(&state.Update, &state.Size, &state.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document state: %w", err)
	}
	return state, nil
}

// UpdateState merges under a row lock so concurrent writers never lose an update
func (r *DocumentRepository) UpdateState(ctx context.Context, documentID string, fn func(prev []byte) ([]byte, error)) (*domain.DocumentState, error) {
	state := &domain.DocumentState{DocumentID: documentID}

	err := pgx.BeginTxFunc(ctx, r.db.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO document_states (document_id, update, size, updated_at)
			VALUES ($1, ''::bytea, 0, now())
			ON CONFLICT (document_id) DO NOTHING
		`, documentID); err != nil {
			return fmt.Errorf("failed to init document state: %w", err)
		}

		var prev []byte
		if err := tx.QueryRow(ctx, `
			SELECT update FROM document_states WHERE document_id = $1 FOR UPDATE
		`, documentID).Scan(&prev); err != nil {
			return fmt.Errorf("failed to lock document state: %w", err)
		}
		if len(prev) == 0 {
			prev = nil
		}

		next, err := fn(prev)
		if err != nil {
			return err
		}

		state.Update = next
		state.Size = len(next)
		return tx.QueryRow(ctx, `
			UPDATE document_states
			SET update = $2, size = $3, updated_at = now()
			WHERE document_id = $1
			RETURNING updated_at
		`, documentID, next, len(next)).Scan(&state.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}

	return state, nil
}

// CreateSnapshot stores a snapshot and prunes older ones in the same transaction.
// The document row is locked so concurrent creators cannot both skip each other's insert.
func (r *DocumentRepository) CreateSnapshot(ctx context.Context, documentID string, state []byte, keep int) (*domain.DocumentSnapshot, error) {
	snap := &domain.DocumentSnapshot{
		ID:         uuid.New().String(),
		DocumentID: documentID,
	}

	err := pgx.BeginTxFunc(ctx, r.db.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var locked string
		if err := tx.QueryRow(ctx, `SELECT id FROM documents WHERE id = $1 FOR UPDATE`, documentID).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("failed to lock document: %w", err)
		}

		if err := tx.QueryRow(ctx, `
			INSERT INTO document_snapshots (id, document_id, state, created_at)
			VALUES ($1, $2, $3, clock_timestamp())
			RETURNING created_at
		`, snap.ID, documentID, state).Scan(&snap.CreatedAt); err != nil {
			return fmt.Errorf("failed to create snapshot: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			DELETE FROM document_snapshots
			WHERE document_id = $1
			  AND id NOT IN (
				SELECT id FROM document_snapshots
				WHERE document_id = $1
				ORDER BY created_at DESC, id DESC
				LIMIT $2
			  )
		`, documentID, keep); err != nil {
			return fmt.Errorf("failed to prune snapshots: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return snap, nil
}

// LatestSnapshot returns the most recent snapshot of a document
func (r *DocumentRepository) LatestSnapshot(ctx context.Context, documentID string, includeState bool) (*domain.DocumentSnapshot, error) {
	snap := &domain.DocumentSnapshot{}
	var state []byte
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, document_id, created_at, CASE WHEN $2 THEN state ELSE NULL END
		FROM document_snapshots
		WHERE document_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, documentID, includeState).Scan(&snap.ID, &snap.DocumentID, &snap.CreatedAt, &state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	if includeState {
		snap.State = state
	}
	return snap, nil
}
