package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/collab-gateway/internal/crdt"
	"github.com/Rrens/collab-gateway/internal/domain"
)

// DocumentStore keeps the merged update blob and snapshots of each document
type DocumentStore struct {
	repo      domain.DocumentRepository
	merger    crdt.Merger
	retention int
}

// NewDocumentStore creates a new document store
func NewDocumentStore(repo domain.DocumentRepository, merger crdt.Merger, retention int) *DocumentStore {
	if retention <= 0 {
		retention = domain.DefaultSnapshotRetention
	}
	return &DocumentStore{
		repo:      repo,
		merger:    merger,
		retention: retention,
	}
}

// WorkspaceOf returns the workspace that owns a document
func (s *DocumentStore) WorkspaceOf(ctx context.Context, documentID string) (string, error) {
	return s.repo.WorkspaceOf(ctx, documentID)
}

// GetState returns the stored state, or nil if nothing was recorded yet
func (s *DocumentStore) GetState(ctx context.Context, documentID string) (*domain.DocumentState, error) {
	state, err := s.repo.GetState(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get document state: %w", err)
	}
	return state, nil
}

// GetStateVector summarizes what the stored state already incorporates
func (s *DocumentStore) GetStateVector(ctx context.Context, documentID string) ([]byte, error) {
	state, err := s.GetState(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, nil
	}

	vector, err := s.merger.StateVector(state.Update)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state vector: %w", err)
	}
	return vector, nil
}

// ApplyUpdate merges an update into the stored state and returns the merged size
func (s *DocumentStore) ApplyUpdate(ctx context.Context, documentID string, update []byte) (int, error) {
	if len(update) == 0 {
		return 0, domain.ErrValidation
	}
	if len(update) > domain.MaxDocumentBytes {
		return 0, domain.ErrPayloadTooLarge
	}

	state, err := s.repo.UpdateState(ctx, documentID, func(prev []byte) ([]byte, error) {
		merged, err := s.merger.Merge(prev, update)
		if errors.Is(err, crdt.ErrCorrupt) {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		return merged, err
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to apply update: %w", err)
	}

	return state.Size, nil
}

// CreateSnapshot stores a snapshot of a document that must live in workspaceID
func (s *DocumentStore) CreateSnapshot(ctx context.Context, workspaceID, documentID string, state []byte) (*domain.DocumentSnapshot, error) {
	if err := s.checkWorkspace(ctx, workspaceID, documentID); err != nil {
		return nil, err
	}
	if len(state) == 0 {
		return nil, domain.ErrValidation
	}
	if len(state) > domain.MaxDocumentBytes {
		return nil, domain.ErrPayloadTooLarge
	}

	snap, err := s.repo.CreateSnapshot(ctx, documentID, state, s.retention)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot: %w", err)
	}
	return snap, nil
}

// LatestSnapshot returns the newest snapshot, or nil when there is none
func (s *DocumentStore) LatestSnapshot(ctx context.Context, workspaceID, documentID string, includeState bool) (*domain.DocumentSnapshot, error) {
	if err := s.checkWorkspace(ctx, workspaceID, documentID); err != nil {
		return nil, err
	}

	snap, err := s.repo.LatestSnapshot(ctx, documentID, includeState)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return snap, nil
}

func (s *DocumentStore) checkWorkspace(ctx context.Context, workspaceID, documentID string) error {
	owner, err := s.repo.WorkspaceOf(ctx, documentID)
	if err != nil {
		return err
	}
	if owner != workspaceID {
		return domain.ErrNotFound
	}
	return nil
}
