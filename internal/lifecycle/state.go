// Package lifecycle implements the managed-object lifecycle state machine.
//
// Every state is a value of type State. Its flags live in an immutable
// descriptor table and its behavior in a [state][event] handler table, both
// built once at package initialization and only read afterwards, so lookups
// are safe from any goroutine without locking.
//
// State families:
//   - Transient: not managed.
//   - PersistentNew and its Deleted, Flushed, FlushedDirty and FlushedDeleted variants.
//   - PersistentClean, PersistentDirty, PersistentDirtyFlushed.
//   - PersistentDeleted, PersistentDeletedFlushed.
//   - PersistentNonTransactional, PersistentNonTransactionalDirty.
//   - Hollow: persistent, not transactional, no fields loaded.
//   - AutoPersistent*: counterparts of the New family for objects that entered
//     management by cascade, plus AutoPersistentPending.
package lifecycle

import "fmt"

// State identifies a lifecycle state. States carry no per-object data, so a
// State value is its own singleton.
type State uint8

const (
	Transient State = iota
	PersistentNew
	PersistentNewDeleted
	PersistentNewFlushed
	PersistentNewFlushedDirty
	PersistentNewFlushedDeleted
	PersistentClean
	PersistentDirty
	PersistentDirtyFlushed
	PersistentDeleted
	PersistentDeletedFlushed
	PersistentNonTransactional
	PersistentNonTransactionalDirty
	Hollow
	AutoPersistentNew
	AutoPersistentNewDeleted
	AutoPersistentNewFlushed
	AutoPersistentNewFlushedDirty
	AutoPersistentNewFlushedDeleted
	AutoPersistentPending

	numStates
)

var stateNames = [numStates]string{
	Transient:                       "Transient",
	PersistentNew:                   "PersistentNew",
	PersistentNewDeleted:            "PersistentNewDeleted",
	PersistentNewFlushed:            "PersistentNewFlushed",
	PersistentNewFlushedDirty:       "PersistentNewFlushedDirty",
	PersistentNewFlushedDeleted:     "PersistentNewFlushedDeleted",
	PersistentClean:                 "PersistentClean",
	PersistentDirty:                 "PersistentDirty",
	PersistentDirtyFlushed:          "PersistentDirtyFlushed",
	PersistentDeleted:               "PersistentDeleted",
	PersistentDeletedFlushed:        "PersistentDeletedFlushed",
	PersistentNonTransactional:      "PersistentNonTransactional",
	PersistentNonTransactionalDirty: "PersistentNonTransactionalDirty",
	Hollow:                          "Hollow",
	AutoPersistentNew:               "AutoPersistentNew",
	AutoPersistentNewDeleted:        "AutoPersistentNewDeleted",
	AutoPersistentNewFlushed:        "AutoPersistentNewFlushed",
	AutoPersistentNewFlushedDirty:   "AutoPersistentNewFlushedDirty",
	AutoPersistentNewFlushedDeleted: "AutoPersistentNewFlushedDeleted",
	AutoPersistentPending:           "AutoPersistentPending",
}

// String implements fmt.Stringer
func (s State) String() string {
	if s >= numStates {
		return fmt.Sprintf("State(%d)", uint8(s))
	}
	return stateNames[s]
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	return s < numStates
}

// AllStates returns every state in declaration order.
func AllStates() []State {
	out := make([]State, numStates)
	for i := range out {
		out[i] = State(i)
	}
	return out
}

// ParseState resolves a state by name.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownState, name)
}

// Descriptor returns the flag tuple of s. The tuple is returned by value, so
// callers cannot alter the shared table.
func (s State) Descriptor() Descriptor {
	if s >= numStates {
		return Descriptor{Tag: s}
	}
	return descriptors[s]
}

func (s State) IsPersistent() bool           { return s.Descriptor().Persistent }
func (s State) IsTransactional() bool        { return s.Descriptor().Transactional }
func (s State) IsDirty() bool                { return s.Descriptor().Dirty }
func (s State) IsNew() bool                  { return s.Descriptor().New }
func (s State) IsDeleted() bool              { return s.Descriptor().Deleted }
func (s State) IsFlushed() bool              { return s.Descriptor().Flushed }
func (s State) IsNavigable() bool            { return s.Descriptor().Navigable }
func (s State) IsRefreshable() bool          { return s.Descriptor().Refreshable }
func (s State) IsBeforeImageUpdatable() bool { return s.Descriptor().BeforeImageUpdatable }
func (s State) IsAutoPersistent() bool       { return s.Descriptor().AutoPersistent }

// HoldsBeforeImage reports whether an object in state s may keep a
// before-image.
func (s State) HoldsBeforeImage() bool {
	d := s.Descriptor()
	return d.Dirty && d.BeforeImageUpdatable
}

// NeedsFlush reports whether an object in state s still has store work
// pending. At commit, auto-persistent objects that reached the store must be
// flushed again so they can be removed.
func (s State) NeedsFlush(insideCommit bool) bool {
	d := s.Descriptor()
	if !d.Persistent {
		return false
	}
	if !d.Flushed {
		return true
	}
	return insideCommit && s == AutoPersistentNewFlushed
}
