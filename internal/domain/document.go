package domain

import (
	"context"
	"time"
)

// DocumentState is the cumulative merge of every accepted update of a document
type DocumentState struct {
	DocumentID string    `json:"documentId"`
	Update     []byte    `json:"-"`
	Size       int       `json:"size"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// DocumentSnapshot is an immutable point-in-time capture of a document state.
// State is only populated when requested.
type DocumentSnapshot struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId"`
	CreatedAt  time.Time `json:"createdAt"`
	State      []byte    `json:"-"`
}

// DocumentRepository defines the interface for document storage
type DocumentRepository interface {
	// WorkspaceOf returns the owning workspace of a document, or ErrNotFound.
	WorkspaceOf(ctx context.Context, documentID string) (string, error)
	// GetState returns nil when no state has been recorded.
	GetState(ctx context.Context, documentID string) (*DocumentState, error)
	// UpdateState replaces the stored blob with fn(previous) while holding the row,
	// so concurrent writers are serialized. previous is nil when none exists.
	UpdateState(ctx context.Context, documentID string, fn func(prev []byte) ([]byte, error)) (*DocumentState, error)
	// CreateSnapshot inserts a snapshot and prunes to the keep most recent, atomically.
	CreateSnapshot(ctx context.Context, documentID string, state []byte, keep int) (*DocumentSnapshot, error)
	// LatestSnapshot returns nil when the document has no snapshot.
	LatestSnapshot(ctx context.Context, documentID string, includeState bool) (*DocumentSnapshot, error)
}
