// Package session owns the transaction context of a group of managed
// objects: the identity map, the transactional and non-transactional
// registries, and the flush-then-commit protocol against the store.
package session

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/atlanticdynamic/pcstate/internal/lifecycle"
	"github.com/atlanticdynamic/pcstate/internal/metrics"
	"github.com/atlanticdynamic/pcstate/internal/model"
	"github.com/atlanticdynamic/pcstate/internal/session/txhistory"
	"github.com/atlanticdynamic/pcstate/internal/statemanager"
	"github.com/atlanticdynamic/pcstate/internal/store"
	"github.com/gofrs/uuid/v5"
)

type objectSet map[*statemanager.StateManager]struct{}

// Session manages objects against one store. Object operations may run
// concurrently; Begin, Commit, Rollback, Flush and Close are serialized.
//
// Lock order: a StateManager's lock may be held while taking s.mu (its
// handlers register and deregister), so s.mu is never held while calling
// into a StateManager.
type Session struct {
	id    uuid.UUID
	store store.Manager
	tx    *Transaction

	insideCommit atomic.Bool
	storeTxOpen  bool

	settings       Settings
	maxFlushPasses int
	concurrency    int
	handler        slog.Handler
	logger         *slog.Logger
	recorder       metrics.Recorder
	history        *txhistory.History

	// opMu serializes transaction boundaries.
	opMu sync.Mutex

	mu               sync.Mutex
	byID             map[uuid.UUID]*statemanager.StateManager
	byInstance       map[model.Instance]*statemanager.StateManager
	transactional    objectSet
	nonTransactional objectSet
	closed           bool
}

var _ statemanager.Owner = (*Session)(nil)

// New creates a session on st.
func New(st store.Manager, opts ...Option) (*Session, error) {
	s := &Session{
		id:               uuid.Must(uuid.NewV6()),
		store:            st,
		settings:         DefaultSettings(),
		maxFlushPasses:   DefaultMaxFlushPasses,
		concurrency:      DefaultConcurrency,
		handler:          slog.Default().Handler(),
		recorder:         metrics.NoopRecorder{},
		byID:             make(map[uuid.UUID]*statemanager.StateManager),
		byInstance:       make(map[model.Instance]*statemanager.StateManager),
		transactional:    make(objectSet),
		nonTransactional: make(objectSet),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.history == nil {
		s.history = txhistory.New(txhistory.WithLogHandler(s.handler))
	}
	s.logger = slog.New(s.handler).WithGroup("session").With("session", s.id.String())

	tx, err := newTransaction(s.settings, s.handler)
	if err != nil {
		return nil, err
	}
	s.tx = tx
	return s, nil
}

// ID returns the session's ID.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// CurrentTransaction returns the session's transaction context.
func (s *Session) CurrentTransaction() *Transaction {
	return s.tx
}

// History returns the transaction history.
func (s *Session) History() *txhistory.History {
	return s.history
}

// Transaction implements statemanager.Owner
func (s *Session) Transaction() lifecycle.Transaction {
	return s.tx
}

// InsideCommit implements statemanager.Owner
func (s *Session) InsideCommit() bool {
	return s.insideCommit.Load()
}

// Store implements statemanager.Owner
func (s *Session) Store() store.Manager {
	return s.store
}

// RegisterTransactional implements statemanager.Owner
func (s *Session) RegisterTransactional(sm *statemanager.StateManager) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track(sm)
	delete(s.nonTransactional, sm)
	s.transactional[sm] = struct{}{}
}

// RegisterNonTransactional implements statemanager.Owner
func (s *Session) RegisterNonTransactional(sm *statemanager.StateManager) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track(sm)
	delete(s.transactional, sm)
	s.nonTransactional[sm] = struct{}{}
}

// Deregister implements statemanager.Owner
func (s *Session) Deregister(sm *statemanager.StateManager) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.transactional, sm)
	delete(s.nonTransactional, sm)
	if s.byID[sm.ObjectID()] == sm {
		delete(s.byID, sm.ObjectID())
	}
	if s.byInstance[sm.Instance()] == sm {
		delete(s.byInstance, sm.Instance())
	}
}

// track adds sm to the identity map. Must be called with s.mu held.
func (s *Session) track(sm *statemanager.StateManager) {
	s.byID[sm.ObjectID()] = sm
	s.byInstance[sm.Instance()] = sm
}

// StateManagerFor returns the manager of inst, if the session manages it.
func (s *Session) StateManagerFor(inst model.Instance) (*statemanager.StateManager, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sm, ok := s.byInstance[inst]
	return sm, ok
}

// ObjectState returns the lifecycle state of inst. Unmanaged instances are
// transient.
func (s *Session) ObjectState(inst model.Instance) lifecycle.State {
	sm, ok := s.StateManagerFor(inst)
	if !ok {
		return lifecycle.Transient
	}
	return sm.State()
}

// Len returns the number of managed objects.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// TransactionalObjects returns the objects registered with the active
// transaction, in creation order.
func (s *Session) TransactionalObjects() []*statemanager.StateManager {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sorted(s.transactional)
}

// NonTransactionalObjects returns the managed objects outside the
// transaction, in creation order.
func (s *Session) NonTransactionalObjects() []*statemanager.StateManager {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sorted(s.nonTransactional)
}

func (s *Session) allObjects() []*statemanager.StateManager {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(objectSet, len(s.byID))
	for _, sm := range s.byID {
		set[sm] = struct{}{}
	}
	return sorted(set)
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// managerOptions are passed to every StateManager the session creates.
func (s *Session) managerOptions(extra ...statemanager.Option) []statemanager.Option {
	return append([]statemanager.Option{
		statemanager.WithLogHandler(s.handler),
		statemanager.WithRecorder(s.recorder),
	}, extra...)
}

// sorted orders objects by ID. IDs are time ordered, so this is creation order.
func sorted(set objectSet) []*statemanager.StateManager {
	out := slices.Collect(maps.Keys(set))
	slices.SortFunc(out, func(a, b *statemanager.StateManager) int {
		ia, ib := a.ObjectID(), b.ObjectID()
		return bytes.Compare(ia[:], ib[:])
	})
	return out
}

// Close rolls back an active transaction and releases every object as
// transient. Non-transactional changes that were never flushed are
// discarded first.
func (s *Session) Close(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.isClosed() {
		return nil
	}

	var errs []error
	if s.tx.IsActive() {
		if err := s.rollbackLocked(ctx, nil); err != nil {
			errs = append(errs, err)
		}
	}
	for _, sm := range s.allObjects() {
		if sm.State() == lifecycle.PersistentNonTransactionalDirty {
			if err := sm.Refresh(ctx); err != nil {
				errs = append(errs, err)
				continue
			}
		}
		if err := sm.MakeTransient(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	s.mu.Lock()
	s.closed = true
	clear(s.byID)
	clear(s.byInstance)
	clear(s.transactional)
	clear(s.nonTransactional)
	s.mu.Unlock()

	s.logger.Debug("Session closed")
	return errors.Join(errs...)
}
