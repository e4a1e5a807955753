package api_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Rrens/collab-gateway/internal/domain"
)

type tokenVerifier struct{}

func (tokenVerifier) Verify(_ context.Context, token string) (string, error) {
	if token == "bad" {
		return "", errors.New("invalid token")
	}
	return token, nil
}

type fakeStore struct {
	mu        sync.Mutex
	members   map[string]bool
	documents map[string]string
	states    map[string]*domain.DocumentState
	snapshots map[string][]domain.DocumentSnapshot
	messages  []domain.Message
	profiles  map[string]domain.Profile
	board     *domain.Board
	clock     time.Time
	seq       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members:   map[string]bool{"ws-1/alice": true, "ws-2/bob": true},
		documents: map[string]string{"doc-1": "ws-1", "doc-2": "ws-2"},
		states:    map[string]*domain.DocumentState{},
		snapshots: map[string][]domain.DocumentSnapshot{},
		profiles: map[string]domain.Profile{
			"alice": {ID: "alice", Name: "Alice", Email: "alice@example.com"},
			"bob":   {ID: "bob", Name: "Bob", Email: "bob@example.com"},
		},
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *fakeStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *fakeStore) IsMember(_ context.Context, workspaceID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members[workspaceID+"/"+userID], nil
}

func (s *fakeStore) WorkspaceOf(_ context.Context, documentID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.documents[documentID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return ws, nil
}

func (s *fakeStore) GetState(_ context.Context, documentID string) (*domain.DocumentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[documentID]
	if !ok {
		return nil, nil
	}
	cp := *state
	return &cp, nil
}

func (s *fakeStore) UpdateState(_ context.Context, documentID string, fn func(prev []byte) ([]byte, error)) (*domain.DocumentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var prev []byte
	if state, ok := s.states[documentID]; ok {
		prev = state.Update
	}
	next, err := fn(prev)
	if err != nil {
		return nil, err
	}
	state := &domain.DocumentState{DocumentID: documentID, Update: next, Size: len(next), UpdatedAt: s.tick()}
	s.states[documentID] = state
	cp := *state
	return &cp, nil
}

func (s *fakeStore) CreateSnapshot(_ context.Context, documentID string, state []byte, keep int) (*domain.DocumentSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	snap := domain.DocumentSnapshot{ID: fmt.Sprintf("snap-%d", s.seq), DocumentID: documentID, CreatedAt: s.tick(), State: state}
	list := append([]domain.DocumentSnapshot{snap}, s.snapshots[documentID]...)
	if len(list) > keep {
		list = list[:keep]
	}
	s.snapshots[documentID] = list
	return &snap, nil
}

func (s *fakeStore) LatestSnapshot(_ context.Context, documentID string, includeState bool) (*domain.DocumentSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.snapshots[documentID]
	if len(list) == 0 {
		return nil, nil
	}
	snap := list[0]
	if !includeState {
		snap.State = nil
	}
	return &snap, nil
}

func (s *fakeStore) Create(_ context.Context, message *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, *message)
	return nil
}

func (s *fakeStore) ListBefore(_ context.Context, workspaceID string, cursor *time.Time, limit int) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Message
	for _, m := range s.messages {
		if m.WorkspaceID != workspaceID {
			continue
		}
		if cursor != nil && !m.CreatedAt.Before(*cursor) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) ListByIDs(_ context.Context, ids []string) ([]domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Profile{}
	for _, id := range ids {
		if p, ok := s.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStore) GetByWorkspace(_ context.Context, workspaceID string) (*domain.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.board == nil || s.board.WorkspaceID != workspaceID {
		return nil, nil
	}
	return s.board, nil
}

func (s *fakeStore) InTx(context.Context, func(tx domain.BoardTx) error) error {
	return errors.New("not supported")
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }
