// Package statemanager drives one managed object through the lifecycle
// table. A StateManager owns the object's field bookkeeping (loaded and
// dirty sets, before-image, registration) and serializes every event on the
// object behind its own lock. All decisions about the next state are made by
// the lifecycle package.
package statemanager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/atlanticdynamic/pcstate/internal/lifecycle"
	"github.com/atlanticdynamic/pcstate/internal/metrics"
	"github.com/atlanticdynamic/pcstate/internal/model"
	"github.com/atlanticdynamic/pcstate/internal/store"
	"github.com/bits-and-blooms/bitset"
	"github.com/gofrs/uuid/v5"
)

// Owner is the session a managed object belongs to.
type Owner interface {
	Transaction() lifecycle.Transaction
	InsideCommit() bool
	Store() store.Manager
	RegisterTransactional(sm *StateManager)
	RegisterNonTransactional(sm *StateManager)
	Deregister(sm *StateManager)
}

// Registration records which of the owner's registries holds the object.
type Registration uint8

const (
	Unregistered Registration = iota
	RegisteredTransactional
	RegisteredNonTransactional
)

// String implements fmt.Stringer
func (r Registration) String() string {
	switch r {
	case Unregistered:
		return "unregistered"
	case RegisteredTransactional:
		return "transactional"
	case RegisteredNonTransactional:
		return "nontransactional"
	default:
		return fmt.Sprintf("Registration(%d)", uint8(r))
	}
}

// StateManager is the per-object driver.
type StateManager struct {
	mu sync.Mutex

	id    uuid.UUID
	inst  model.Instance
	owner Owner
	state lifecycle.State

	loaded *bitset.BitSet
	dirty  *bitset.BitSet

	// beforeImage holds detached field values captured at the first dirtying
	// write; beforeLoaded lists which entries are meaningful.
	beforeImage  []any
	beforeLoaded *bitset.BitSet

	registration Registration

	logger   *slog.Logger
	recorder metrics.Recorder
}

var _ model.DirtyMarker = (*StateManager)(nil)

// New wraps a transient instance. The object becomes managed by owner once
// MakePersistent or MakeAutoPersistent succeeds.
func New(inst model.Instance, owner Owner, opts ...Option) *StateManager {
	sm := newManager(inst, owner, lifecycle.Transient, opts...)
	sm.loaded = fullSet(sm.numFields())
	sm.bindContainers()
	return sm
}

// NewHollow creates the manager of an object known only by identity. Fields
// are loaded from the owner's store on first access.
func NewHollow(id uuid.UUID, cls *model.Class, owner Owner, opts ...Option) *StateManager {
	opts = append(slices.Clone(opts), WithObjectID(id))
	sm := newManager(cls.New(), owner, lifecycle.Hollow, opts...)
	sm.registration = RegisteredNonTransactional
	return sm
}

func newManager(inst model.Instance, owner Owner, state lifecycle.State, opts ...Option) *StateManager {
	sm := &StateManager{
		inst:     inst,
		owner:    owner,
		state:    state,
		logger:   slog.Default().WithGroup("statemanager"),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(sm)
	}
	if sm.id.IsNil() {
		sm.id = uuid.Must(uuid.NewV6())
	}
	n := sm.numFields()
	sm.loaded = bitset.New(uint(n))
	sm.dirty = bitset.New(uint(n))
	sm.logger = sm.logger.With("id", sm.id.String(), "class", inst.Class().Name)
	return sm
}

func fullSet(n int) *bitset.BitSet {
	b := bitset.New(uint(n))
	for i := range n {
		b.Set(uint(i))
	}
	return b
}

func (sm *StateManager) numFields() int {
	return sm.inst.Class().NumFields()
}

// ObjectID returns the object's identity.
func (sm *StateManager) ObjectID() uuid.UUID {
	return sm.id
}

// Instance returns the managed instance.
func (sm *StateManager) Instance() model.Instance {
	return sm.inst
}

// State returns the current lifecycle state.
func (sm *StateManager) State() lifecycle.State {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.state
}

// Registration returns the registry currently holding the object.
func (sm *StateManager) Registration() Registration {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.registration
}

// LoadedFields returns a copy of the loaded field set.
func (sm *StateManager) LoadedFields() *bitset.BitSet {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.loaded.Clone()
}

// DirtyFields returns a copy of the dirty field set.
func (sm *StateManager) DirtyFields() *bitset.BitSet {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.dirty.Clone()
}

// BeforeImage returns a copy of the captured before-image, or nil.
func (sm *StateManager) BeforeImage() []any {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return slices.Clone(sm.beforeImage)
}

// NeedsFlush reports whether the object has store work pending.
func (sm *StateManager) NeedsFlush(insideCommit bool) bool {
	return sm.State().NeedsFlush(insideCommit)
}

func (sm *StateManager) IsPersistent() bool    { return sm.State().IsPersistent() }
func (sm *StateManager) IsTransactional() bool { return sm.State().IsTransactional() }
func (sm *StateManager) IsDirty() bool         { return sm.State().IsDirty() }
func (sm *StateManager) IsNew() bool           { return sm.State().IsNew() }
func (sm *StateManager) IsDeleted() bool       { return sm.State().IsDeleted() }

func (sm *StateManager) checkField(i int) error {
	if i < 0 || i >= sm.numFields() {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrFieldIndex, i, sm.numFields())
	}
	return nil
}

// dispatch runs ev through the current state. It must be called with sm.mu
// held. On error the state and bookkeeping flags are left as they were.
func (sm *StateManager) dispatch(ctx context.Context, ev lifecycle.Event, args lifecycle.Args) error {
	from := sm.state
	if args.Store == nil {
		args.Store = sm.store()
	}

	next, err := from.Apply(ctx, ev, (*driver)(sm), args)
	if err != nil {
		if errors.Is(err, lifecycle.ErrIllegalTransition) || errors.Is(err, lifecycle.ErrTransactionMismatch) {
			sm.recorder.IncIllegalTransition(from.String(), ev.String())
		}
		sm.logger.Debug("Lifecycle event rejected", "state", from, "event", ev, "error", err)
		return err
	}

	sm.state = next
	if !next.HoldsBeforeImage() {
		sm.beforeImage = nil
		sm.beforeLoaded = nil
	}
	sm.recorder.ObserveTransition(from.String(), ev.String(), next.String())
	if next != from {
		sm.logger.Debug("Lifecycle transition", "from", from, "event", ev, "to", next)
	}
	return nil
}

func (sm *StateManager) store() store.Manager {
	if sm.owner == nil {
		return nil
	}
	inner := sm.owner.Store()
	if inner == nil {
		return nil
	}
	return &observedStore{inner: inner, recorder: sm.recorder}
}

func (sm *StateManager) event(ctx context.Context, ev lifecycle.Event, args lifecycle.Args) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.dispatch(ctx, ev, args)
}

// MakePersistent requests that a transient object become persistent in the
// owner's transaction.
func (sm *StateManager) MakePersistent(ctx context.Context) error {
	return sm.event(ctx, lifecycle.EventMakePersistent, lifecycle.Args{})
}

// MakeAutoPersistent makes the object persistent by cascade from another
// object. It is removed again at commit unless made persistent explicitly.
func (sm *StateManager) MakeAutoPersistent(ctx context.Context) error {
	return sm.event(ctx, lifecycle.EventMakeAutoPersistent, lifecycle.Args{})
}

// DeletePersistent marks the object for deletion.
func (sm *StateManager) DeletePersistent(ctx context.Context) error {
	return sm.event(ctx, lifecycle.EventDeletePersistent, lifecycle.Args{})
}

// MakeTransactional brings the object into the current transaction.
func (sm *StateManager) MakeTransactional(ctx context.Context) error {
	return sm.event(ctx, lifecycle.EventMakeTransactional, lifecycle.Args{})
}

// MakeNontransactional removes a clean object from the current transaction.
func (sm *StateManager) MakeNontransactional(ctx context.Context) error {
	return sm.event(ctx, lifecycle.EventMakeNontransactional, lifecycle.Args{})
}

// MakeTransient detaches the object from management.
func (sm *StateManager) MakeTransient(ctx context.Context) error {
	return sm.event(ctx, lifecycle.EventMakeTransient, lifecycle.Args{})
}

// Retrieve loads every unloaded field.
func (sm *StateManager) Retrieve(ctx context.Context) error {
	return sm.event(ctx, lifecycle.EventRetrieve, lifecycle.Args{})
}

// Evict drops loaded values of a clean object.
func (sm *StateManager) Evict(ctx context.Context) error {
	return sm.event(ctx, lifecycle.EventEvict, lifecycle.Args{})
}

// Refresh reloads the object from the store, discarding pending changes
// where the state allows it.
func (sm *StateManager) Refresh(ctx context.Context) error {
	return sm.event(ctx, lifecycle.EventRefresh, lifecycle.Args{})
}

// Flush sends pending changes to the owner's store.
func (sm *StateManager) Flush(ctx context.Context) error {
	return sm.event(ctx, lifecycle.EventFlush, lifecycle.Args{})
}

// Commit ends the transaction for this object.
func (sm *StateManager) Commit(ctx context.Context, retainValues bool) error {
	return sm.event(ctx, lifecycle.EventCommit, lifecycle.Args{RetainValues: retainValues})
}

// Rollback abandons the transaction for this object.
func (sm *StateManager) Rollback(ctx context.Context, restoreValues bool) error {
	return sm.event(ctx, lifecycle.EventRollback, lifecycle.Args{RestoreValues: restoreValues})
}

// ReadField returns the value of field i, loading it first when the state
// requires it.
func (sm *StateManager) ReadField(ctx context.Context, i int) (any, error) {
	if err := sm.checkField(i); err != nil {
		return nil, err
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if err := sm.dispatch(ctx, lifecycle.EventReadField, lifecycle.Args{}); err != nil {
		return nil, err
	}
	return sm.inst.ProvideField(i), nil
}

// WriteField assigns v to field i. The value is applied only after the
// state accepted the write, so a rejected write leaves the instance as it was.
func (sm *StateManager) WriteField(ctx context.Context, i int, v any) error {
	if err := sm.checkField(i); err != nil {
		return err
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if err := sm.dispatch(ctx, lifecycle.EventWriteField, lifecycle.Args{}); err != nil {
		return err
	}

	if old, ok := sm.inst.ProvideField(i).(model.TrackedContainer); ok && old != v {
		old.Unset()
	}
	sm.inst.ReplaceField(i, v)
	if b, ok := v.(model.Binder); ok {
		b.Bind(sm, i)
	}
	sm.markWritten(i)
	return nil
}

// MakeDirty implements model.DirtyMarker. Tracked containers call it before
// they mutate, so the before-image still sees the old contents.
func (sm *StateManager) MakeDirty(ctx context.Context, i int) error {
	if err := sm.checkField(i); err != nil {
		return err
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if err := sm.dispatch(ctx, lifecycle.EventWriteField, lifecycle.Args{}); err != nil {
		return err
	}
	sm.markWritten(i)
	return nil
}

func (sm *StateManager) markWritten(i int) {
	sm.loaded.Set(uint(i))
	if sm.state.IsPersistent() && !sm.state.IsDeleted() {
		sm.dirty.Set(uint(i))
	}
}

// bindContainers attaches every tracked container field to sm.
func (sm *StateManager) bindContainers() {
	for i := range sm.numFields() {
		if b, ok := sm.inst.ProvideField(i).(model.Binder); ok {
			b.Bind(sm, i)
		}
	}
}

// String implements fmt.Stringer
func (sm *StateManager) String() string {
	return fmt.Sprintf("%s(%s)", sm.inst.Class().Name, sm.id)
}
