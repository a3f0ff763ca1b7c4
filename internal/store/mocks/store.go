package mocks

import (
	"context"

	"github.com/atlanticdynamic/pcstate/internal/store"
	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of store.Manager and store.Transactional
type MockStore struct {
	mock.Mock
}

var (
	_ store.Manager       = (*MockStore)(nil)
	_ store.Transactional = (*MockStore)(nil)
)

// NewMockStore creates a new MockStore instance
func NewMockStore() *MockStore {
	return &MockStore{}
}

// Insert is a mock implementation of store.Manager.Insert
func (m *MockStore) Insert(
	ctx context.Context,
	loaded, dirty *bitset.BitSet,
	h store.Handle,
) (store.FlushStatus, error) {
	args := m.Called(ctx, loaded, dirty, h)
	return args.Get(0).(store.FlushStatus), args.Error(1)
}

// Update is a mock implementation of store.Manager.Update
func (m *MockStore) Update(
	ctx context.Context,
	loaded, dirty *bitset.BitSet,
	h store.Handle,
) (store.FlushStatus, error) {
	args := m.Called(ctx, loaded, dirty, h)
	return args.Get(0).(store.FlushStatus), args.Error(1)
}

// Delete is a mock implementation of store.Manager.Delete
func (m *MockStore) Delete(
	ctx context.Context,
	loaded, dirty *bitset.BitSet,
	h store.Handle,
) (store.FlushStatus, error) {
	args := m.Called(ctx, loaded, dirty, h)
	return args.Get(0).(store.FlushStatus), args.Error(1)
}

// Fetch is a mock implementation of store.Manager.Fetch
func (m *MockStore) Fetch(ctx context.Context, fields *bitset.BitSet, h store.Handle) error {
	args := m.Called(ctx, fields, h)
	return args.Error(0)
}

// Begin is a mock implementation of store.Transactional.Begin
func (m *MockStore) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Commit is a mock implementation of store.Transactional.Commit
func (m *MockStore) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Rollback is a mock implementation of store.Transactional.Rollback
func (m *MockStore) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
