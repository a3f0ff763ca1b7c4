// Package memstore is an in-memory store.Manager with staged transactions.
// Field values are kept in their encoded form so that stored data never
// aliases instance memory.
package memstore

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/atlanticdynamic/pcstate/internal/store"
	"github.com/bits-and-blooms/bitset"
	"github.com/gofrs/uuid/v5"
)

// Op names a store call recorded by Calls.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpFetch  Op = "fetch"
)

// Call is one recorded store call.
type Call struct {
	Op     Op
	ID     uuid.UUID
	Fields []int
	Status store.FlushStatus
}

type record struct {
	class  string
	fields map[int][]byte
}

func (r *record) clone() *record {
	return &record{class: r.class, fields: maps.Clone(r.fields)}
}

// Store keeps records in memory. Between Begin and Commit writes are staged
// and only visible through this store; Rollback discards them.
type Store struct {
	mu        sync.Mutex
	committed map[uuid.UUID]*record
	// staged overlays committed while a transaction is open; a nil record
	// marks a staged delete.
	staged     map[uuid.UUID]*record
	incomplete map[uuid.UUID]int
	calls      []Call
	closed     bool
	logger     *slog.Logger
}

var (
	_ store.Manager       = (*Store)(nil)
	_ store.Transactional = (*Store)(nil)
	_ store.Closer        = (*Store)(nil)
)

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		committed:  make(map[uuid.UUID]*record),
		incomplete: make(map[uuid.UUID]int),
		logger:     slog.Default().WithGroup("memstore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetIncomplete makes the next n write calls for id report NotComplete
// without touching the data.
func (s *Store) SetIncomplete(id uuid.UUID, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 {
		delete(s.incomplete, id)
		return
	}
	s.incomplete[id] = n
}

// Calls returns a copy of every call made so far.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// Has reports whether id exists in the store as seen by the current transaction.
func (s *Store) Has(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.lookup(id)
	return ok
}

// CommittedLen returns the number of committed records.
func (s *Store) CommittedLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.committed)
}

// Insert implements store.Manager
func (s *Store) Insert(
	ctx context.Context,
	loaded, dirty *bitset.BitSet,
	h store.Handle,
) (store.FlushStatus, error) {
	return s.write(ctx, OpInsert, loaded, h, func(id uuid.UUID, rec *record, exists bool) (*record, error) {
		if exists {
			return nil, fmt.Errorf("%w: %s", store.ErrDuplicateObject, id)
		}
		return &record{class: h.Class().Name, fields: make(map[int][]byte)}, nil
	})
}

// Update implements store.Manager
func (s *Store) Update(
	ctx context.Context,
	loaded, dirty *bitset.BitSet,
	h store.Handle,
) (store.FlushStatus, error) {
	return s.write(ctx, OpUpdate, dirty, h, func(id uuid.UUID, rec *record, exists bool) (*record, error) {
		if !exists {
			return nil, fmt.Errorf("%w: %s", store.ErrObjectNotFound, id)
		}
		return rec.clone(), nil
	})
}

// Delete implements store.Manager
func (s *Store) Delete(
	ctx context.Context,
	loaded, dirty *bitset.BitSet,
	h store.Handle,
) (store.FlushStatus, error) {
	return s.write(ctx, OpDelete, nil, h, func(id uuid.UUID, rec *record, exists bool) (*record, error) {
		if !exists {
			return nil, fmt.Errorf("%w: %s", store.ErrObjectNotFound, id)
		}
		return nil, nil
	})
}

// Fetch implements store.Manager
func (s *Store) Fetch(ctx context.Context, fields *bitset.BitSet, h store.Handle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id := h.ObjectID()
	indices := store.Fields(fields)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return store.ErrClosed
	}
	s.calls = append(s.calls, Call{Op: OpFetch, ID: id, Fields: indices, Status: store.Complete})
	rec, ok := s.lookup(id)
	if ok {
		rec = rec.clone()
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", store.ErrObjectNotFound, id)
	}
	cls := h.Class()
	for _, i := range indices {
		data, found := rec.fields[i]
		if !found {
			h.ReplaceField(i, cls.Zero(i))
			continue
		}
		if err := store.DecodeField(h, i, data); err != nil {
			return err
		}
	}
	return nil
}

// write encodes fields outside the lock, then applies mutate to the current
// record under it. mutate returns the record to store, or nil to delete.
func (s *Store) write(
	ctx context.Context,
	op Op,
	fields *bitset.BitSet,
	h store.Handle,
	mutate func(id uuid.UUID, rec *record, exists bool) (*record, error),
) (store.FlushStatus, error) {
	if err := ctx.Err(); err != nil {
		return store.NotComplete, err
	}
	id := h.ObjectID()
	indices := store.Fields(fields)
	encoded := make(map[int][]byte, len(indices))
	for _, i := range indices {
		data, err := store.EncodeField(h, i)
		if err != nil {
			return store.NotComplete, err
		}
		encoded[i] = data
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.NotComplete, store.ErrClosed
	}

	if n := s.incomplete[id]; n > 0 {
		if n == 1 {
			delete(s.incomplete, id)
		} else {
			s.incomplete[id] = n - 1
		}
		s.calls = append(s.calls, Call{Op: op, ID: id, Fields: indices, Status: store.NotComplete})
		s.logger.Debug("Store call incomplete", "op", op, "id", id)
		return store.NotComplete, nil
	}

	current, exists := s.lookup(id)
	next, err := mutate(id, current, exists)
	if err != nil {
		return store.NotComplete, err
	}
	if next != nil {
		maps.Copy(next.fields, encoded)
	}
	s.put(id, next)
	s.calls = append(s.calls, Call{Op: op, ID: id, Fields: indices, Status: store.Complete})
	s.logger.Debug("Store call complete", "op", op, "id", id, "fields", indices)
	return store.Complete, nil
}

func (s *Store) lookup(id uuid.UUID) (*record, bool) {
	if s.staged != nil {
		if rec, ok := s.staged[id]; ok {
			return rec, rec != nil
		}
	}
	rec, ok := s.committed[id]
	return rec, ok
}

func (s *Store) put(id uuid.UUID, rec *record) {
	if s.staged != nil {
		s.staged[id] = rec
		return
	}
	if rec == nil {
		delete(s.committed, id)
		return
	}
	s.committed[id] = rec
}

// Begin implements store.Transactional
func (s *Store) Begin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	s.staged = make(map[uuid.UUID]*record)
	return nil
}

// Commit implements store.Transactional
func (s *Store) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	if s.staged == nil {
		return store.ErrNoTransaction
	}
	for id, rec := range s.staged {
		if rec == nil {
			delete(s.committed, id)
			continue
		}
		s.committed[id] = rec
	}
	s.logger.Debug("Store transaction committed", "records", len(s.staged))
	s.staged = nil
	return nil
}

// Rollback implements store.Transactional
func (s *Store) Rollback(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	if s.staged == nil {
		return store.ErrNoTransaction
	}
	s.logger.Debug("Store transaction rolled back", "records", len(s.staged))
	s.staged = nil
	return nil
}

// Close implements store.Closer
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.staged = nil
	return nil
}
