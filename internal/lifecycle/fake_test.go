package lifecycle

import (
	"context"

	"github.com/atlanticdynamic/pcstate/internal/model"
	"github.com/atlanticdynamic/pcstate/internal/store"
	"github.com/bits-and-blooms/bitset"
	"github.com/gofrs/uuid/v5"
)

var testClass = model.NewClass("Item", nil,
	model.FieldOf[string]("name"),
	model.FieldOf[int]("count"),
)

type fakeTx struct {
	active, optimistic, ntRead, ntWrite, retain, restore bool
}

func (t *fakeTx) IsActive() bool              { return t.active }
func (t *fakeTx) IsOptimistic() bool          { return t.optimistic }
func (t *fakeTx) NontransactionalRead() bool  { return t.ntRead }
func (t *fakeTx) NontransactionalWrite() bool { return t.ntWrite }
func (t *fakeTx) RetainValues() bool          { return t.retain }
func (t *fakeTx) RestoreValues() bool         { return t.restore }

// fakeManager records every primitive call in order.
type fakeManager struct {
	tx           *fakeTx
	insideCommit bool
	loadErr      error
	loaded       *bitset.BitSet
	dirty        *bitset.BitSet
	calls        []string
}

func newFakeManager(tx *fakeTx) *fakeManager {
	return &fakeManager{
		tx:     tx,
		loaded: bitset.New(2).Set(0).Set(1),
		dirty:  bitset.New(2),
	}
}

func (m *fakeManager) record(name string) { m.calls = append(m.calls, name) }

func (m *fakeManager) ObjectID() uuid.UUID          { return uuid.Nil }
func (m *fakeManager) Class() *model.Class          { return testClass }
func (m *fakeManager) ProvideField(int) any         { return nil }
func (m *fakeManager) ReplaceField(int, any)        {}
func (m *fakeManager) InsideCommit() bool           { return m.insideCommit }
func (m *fakeManager) LoadedFields() *bitset.BitSet { return m.loaded }
func (m *fakeManager) DirtyFields() *bitset.BitSet  { return m.dirty }

func (m *fakeManager) Transaction() Transaction {
	if m.tx == nil {
		return nil
	}
	return m.tx
}

func (m *fakeManager) RegisterTransactional()         { m.record("registerTransactional") }
func (m *fakeManager) RegisterNonTransactional()      { m.record("registerNonTransactional") }
func (m *fakeManager) PreDelete()                     { m.record("preDelete") }
func (m *fakeManager) CreateBeforeImage()             { m.record("createBeforeImage") }
func (m *fakeManager) RestoreFields()                 { m.record("restoreFields") }
func (m *fakeManager) UnsetTrackedContainerFields()   { m.record("unsetTrackedContainerFields") }
func (m *fakeManager) ClearFields()                   { m.record("clearFields") }
func (m *fakeManager) MarkAsFlushed()                 { m.record("markAsFlushed") }
func (m *fakeManager) ReplaceTrackedContainerFields() { m.record("replaceTrackedContainerFields") }
func (m *fakeManager) Disconnect()                    { m.record("disconnect") }
func (m *fakeManager) Reset()                         { m.record("reset") }

func (m *fakeManager) LoadUnloaded(context.Context) error {
	m.record("loadUnloaded")
	return m.loadErr
}

func (m *fakeManager) ReloadFields(context.Context) error {
	m.record("reloadFields")
	return m.loadErr
}

// fakeStore answers every call with status and records the operation.
type fakeStore struct {
	status store.FlushStatus
	err    error
	calls  []string
}

func (s *fakeStore) Insert(_ context.Context, _, _ *bitset.BitSet, _ store.Handle) (store.FlushStatus, error) {
	s.calls = append(s.calls, "insert")
	return s.status, s.err
}

func (s *fakeStore) Update(_ context.Context, _, _ *bitset.BitSet, _ store.Handle) (store.FlushStatus, error) {
	s.calls = append(s.calls, "update")
	return s.status, s.err
}

func (s *fakeStore) Delete(_ context.Context, _, _ *bitset.BitSet, _ store.Handle) (store.FlushStatus, error) {
	s.calls = append(s.calls, "delete")
	return s.status, s.err
}

func (s *fakeStore) Fetch(context.Context, *bitset.BitSet, store.Handle) error {
	s.calls = append(s.calls, "fetch")
	return s.err
}
