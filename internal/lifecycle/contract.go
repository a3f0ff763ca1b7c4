package lifecycle

import (
	"context"

	"github.com/atlanticdynamic/pcstate/internal/store"
	"github.com/bits-and-blooms/bitset"
)

// Transaction is the read-only view of the surrounding transaction that
// transitions consult.
type Transaction interface {
	IsActive() bool
	IsOptimistic() bool
	NontransactionalRead() bool
	NontransactionalWrite() bool
	RetainValues() bool
	RestoreValues() bool
}

// Manager is the per-object bookkeeping a transition may call back into.
// Handlers never see the concrete state manager; they only drive these
// primitives and return the next state.
type Manager interface {
	store.Handle

	Transaction() Transaction
	// InsideCommit distinguishes a commit-time flush from a query-time flush.
	InsideCommit() bool

	LoadedFields() *bitset.BitSet
	DirtyFields() *bitset.BitSet

	RegisterTransactional()
	RegisterNonTransactional()
	PreDelete()
	CreateBeforeImage()
	RestoreFields()
	UnsetTrackedContainerFields()
	ClearFields()
	LoadUnloaded(ctx context.Context) error
	// ReloadFields replaces every field with a fresh fetch. On error the
	// object keeps its current values.
	ReloadFields(ctx context.Context) error
	MarkAsFlushed()
	ReplaceTrackedContainerFields()
	Disconnect()
	Reset()
}

// Args carries the event parameters that are not part of the manager.
type Args struct {
	RetainValues  bool
	RestoreValues bool
	Store         store.Manager
}
