package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Rrens/collab-gateway/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockMessageRepository mocks the MessageRepository interface
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) ListBefore(ctx context.Context, workspaceID string, cursor *time.Time, limit int) ([]domain.Message, error) {
	args := m.Called(ctx, workspaceID, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Message), args.Error(1)
}

// MockMembershipRepository mocks the MembershipRepository interface
type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) IsMember(ctx context.Context, workspaceID, userID string) (bool, error) {
	args := m.Called(ctx, workspaceID, userID)
	return args.Bool(0), args.Error(1)
}

// MockProfileRepository mocks the ProfileRepository interface
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Profile, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Profile), args.Error(1)
}

// MockVerifier mocks the Verifier interface
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

// MockBucketStore mocks the BucketStore interface
type MockBucketStore struct {
	mock.Mock
}

func (m *MockBucketStore) Admit(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, error) {
	args := m.Called(ctx, key, now, window, limit)
	return args.Bool(0), args.Error(1)
}

// fakeDocumentRepo is an in-memory DocumentRepository with the same locking and
// retention behaviour as the postgres one.
type fakeDocumentRepo struct {
	mu        sync.Mutex
	owners    map[string]string
	states    map[string]*domain.DocumentState
	snapshots map[string][]domain.DocumentSnapshot
	clock     time.Time
	seq       int
}

func newFakeDocumentRepo(owners map[string]string) *fakeDocumentRepo {
	return &fakeDocumentRepo{
		owners:    owners,
		states:    map[string]*domain.DocumentState{},
		snapshots: map[string][]domain.DocumentSnapshot{},
		clock:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *fakeDocumentRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Millisecond)
	return r.clock
}

func (r *fakeDocumentRepo) WorkspaceOf(_ context.Context, documentID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.owners[documentID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return ws, nil
}

func (r *fakeDocumentRepo) GetState(_ context.Context, documentID string) (*domain.DocumentState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[documentID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *fakeDocumentRepo) UpdateState(_ context.Context, documentID string, fn func(prev []byte) ([]byte, error)) (*domain.DocumentState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var prev []byte
	if s, ok := r.states[documentID]; ok {
		prev = s.Update
	}
	next, err := fn(prev)
	if err != nil {
		return nil, err
	}
	s := &domain.DocumentState{DocumentID: documentID, Update: next, Size: len(next), UpdatedAt: r.tick()}
	r.states[documentID] = s
	cp := *s
	return &cp, nil
}

func (r *fakeDocumentRepo) CreateSnapshot(_ context.Context, documentID string, state []byte, keep int) (*domain.DocumentSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	snap := domain.DocumentSnapshot{
		ID:         fmt.Sprintf("snap-%02d", r.seq),
		DocumentID: documentID,
		CreatedAt:  r.tick(),
		State:      state,
	}
	list := append(r.snapshots[documentID], snap)
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if len(list) > keep {
		list = list[:keep]
	}
	r.snapshots[documentID] = list
	return &snap, nil
}

func (r *fakeDocumentRepo) LatestSnapshot(_ context.Context, documentID string, includeState bool) (*domain.DocumentSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.snapshots[documentID]
	if len(list) == 0 {
		return nil, nil
	}
	snap := list[0]
	if !includeState {
		snap.State = nil
	}
	return &snap, nil
}

var errFakeWrite = errors.New("write failed")

// fakeBoardRepo runs every transaction under one lock on a copy of the rows,
// committing only when fn succeeds.
type fakeBoardRepo struct {
	mu       sync.Mutex
	columnWS map[string]string
	tasks    map[string]*fakeTask
	failOn   string
}

type fakeTask struct {
	column string
	order  int
}

func newFakeBoardRepo() *fakeBoardRepo {
	return &fakeBoardRepo{columnWS: map[string]string{}, tasks: map[string]*fakeTask{}}
}

func (r *fakeBoardRepo) addColumn(workspaceID, columnID string, taskIDs ...string) {
	r.columnWS[columnID] = workspaceID
	for i, id := range taskIDs {
		r.tasks[id] = &fakeTask{column: columnID, order: i}
	}
}

// column returns the task ids of a column ordered by their stored order
func (r *fakeBoardRepo) column(columnID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return columnIDs(r.tasks, columnID)
}

func (r *fakeBoardRepo) orders(columnID string) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, id := range columnIDs(r.tasks, columnID) {
		out = append(out, r.tasks[id].order)
	}
	return out
}

func columnIDs(tasks map[string]*fakeTask, columnID string) []string {
	var ids []string
	for id, t := range tasks {
		if t.column == columnID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := tasks[ids[i]], tasks[ids[j]]
		if a.order != b.order {
			return a.order < b.order
		}
		return ids[i] < ids[j]
	})
	return ids
}

func (r *fakeBoardRepo) GetByWorkspace(_ context.Context, workspaceID string) (*domain.Board, error) {
	return nil, nil
}

func (r *fakeBoardRepo) InTx(_ context.Context, fn func(tx domain.BoardTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	work := make(map[string]*fakeTask, len(r.tasks))
	for id, t := range r.tasks {
		cp := *t
		work[id] = &cp
	}
	tx := &fakeBoardTx{repo: r, tasks: work}
	if err := fn(tx); err != nil {
		return err
	}
	r.tasks = work
	return nil
}

type fakeBoardTx struct {
	repo  *fakeBoardRepo
	tasks map[string]*fakeTask
}

func (tx *fakeBoardTx) TaskColumn(_ context.Context, taskID string) (string, error) {
	t, ok := tx.tasks[taskID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return t.column, nil
}

func (tx *fakeBoardTx) ColumnWorkspace(_ context.Context, columnID string) (string, error) {
	ws, ok := tx.repo.columnWS[columnID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return ws, nil
}

func (tx *fakeBoardTx) SetTaskColumn(_ context.Context, taskID, columnID string) error {
	t, ok := tx.tasks[taskID]
	if !ok {
		return domain.ErrNotFound
	}
	t.column = columnID
	return nil
}

func (tx *fakeBoardTx) ColumnTaskIDs(_ context.Context, columnID string) ([]string, error) {
	return columnIDs(tx.tasks, columnID), nil
}

func (tx *fakeBoardTx) SetTaskOrder(_ context.Context, taskID string, order int) error {
	if taskID == tx.repo.failOn {
		return errFakeWrite
	}
	t, ok := tx.tasks[taskID]
	if !ok {
		return domain.ErrNotFound
	}
	t.order = order
	return nil
}
