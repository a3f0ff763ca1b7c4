package lifecycle

import (
	"context"
	"fmt"
	"slices"
)

// handler runs one transition for state s. On error the returned state is
// ignored and the object keeps s.
type handler func(ctx context.Context, s State, m Manager, args Args) (State, error)

// cell is one [state][event] entry: the handler and every state it may return.
type cell struct {
	handle handler
	next   []State
}

// rules maps the events a state family accepts to their cells.
type rules map[Event]cell

// with returns a copy of r with the given cells replaced or added.
func (r rules) with(overrides rules) rules {
	out := make(rules, len(r)+len(overrides))
	for ev, c := range r {
		out[ev] = c
	}
	for ev, c := range overrides {
		out[ev] = c
	}
	return out
}

// without returns a copy of r with the given events left to the default handler.
func (r rules) without(events ...Event) rules {
	out := r.with(nil)
	for _, ev := range events {
		delete(out, ev)
	}
	return out
}

var illegalCell = cell{handle: illegal}

// selfState stands for "the state the cell is registered on" in declared
// targets, so shared cells can be reused across a family.
const selfState = numStates

var table [numStates][numEvents]cell

func init() {
	for s := range table {
		for ev := range table[s] {
			table[s][ev] = illegalCell
		}
	}

	families := map[State]rules{
		Transient:                       transientRules,
		PersistentNew:                   persistentNewRules,
		PersistentNewFlushed:            persistentNewFlushedRules,
		PersistentNewFlushedDirty:       persistentNewFlushedDirtyRules,
		PersistentNewDeleted:            persistentNewDeletedRules,
		PersistentNewFlushedDeleted:     persistentNewFlushedDeletedRules,
		AutoPersistentNew:               autoPersistentNewRules,
		AutoPersistentNewFlushed:        autoPersistentNewFlushedRules,
		AutoPersistentNewFlushedDirty:   autoPersistentNewFlushedDirtyRules,
		AutoPersistentNewDeleted:        autoPersistentNewDeletedRules,
		AutoPersistentNewFlushedDeleted: autoPersistentNewFlushedDeletedRules,
		AutoPersistentPending:           autoPersistentPendingRules,
		PersistentClean:                 persistentCleanRules,
		PersistentDirty:                 persistentDirtyRules,
		PersistentDirtyFlushed:          persistentDirtyFlushedRules,
		PersistentDeleted:               persistentDeletedRules,
		PersistentDeletedFlushed:        persistentDeletedFlushedRules,
		PersistentNonTransactional:      nonTransactionalRules,
		PersistentNonTransactionalDirty: nonTransactionalDirtyRules,
		Hollow:                          hollowRules,
	}
	for s, r := range families {
		for ev, c := range r {
			table[s][ev] = cell{handle: c.handle, next: resolveTargets(s, c.next)}
		}
	}
}

func resolveTargets(s State, declared []State) []State {
	if len(declared) == 0 {
		return []State{s}
	}
	out := make([]State, 0, len(declared))
	for _, t := range declared {
		if t == selfState {
			t = s
		}
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

// Apply dispatches ev to the handler registered for s and returns the next
// state. When an error is returned the caller must keep s.
func (s State) Apply(ctx context.Context, ev Event, m Manager, args Args) (State, error) {
	if !s.Valid() {
		return s, &TransitionError{State: s, Event: ev, Err: ErrUnknownState}
	}
	if ev >= numEvents {
		return s, &TransitionError{State: s, Event: ev, Err: ErrUnknownEvent}
	}
	next, err := table[s][ev].handle(ctx, s, m, args)
	if err != nil {
		return s, &TransitionError{State: s, Event: ev, Err: err}
	}
	return next, nil
}

// Accepts reports whether s has a handler other than the illegal default for ev.
func (s State) Accepts(ev Event) bool {
	if !s.Valid() || ev >= numEvents {
		return false
	}
	return table[s][ev].next != nil
}

// Targets returns the states the handler for (s, ev) may return, in
// declaration order. Illegal cells have no targets.
func (s State) Targets(ev Event) []State {
	if !s.Valid() || ev >= numEvents {
		return nil
	}
	return slices.Clone(table[s][ev].next)
}

// Edge is one accepted event of a state and where it may lead.
type Edge struct {
	Event   Event
	Targets []State
}

// Edges lists the accepted events of s in event order.
func (s State) Edges() []Edge {
	var out []Edge
	for _, ev := range AllEvents() {
		if !s.Accepts(ev) {
			continue
		}
		out = append(out, Edge{Event: ev, Targets: s.Targets(ev)})
	}
	return out
}

// Transitions returns the lifecycle graph as a map of state names to the
// names of every state reachable by one accepted event, excluding self-loops.
// The result is the transition table a go-fsm machine is built from.
func Transitions() map[string][]string {
	out := make(map[string][]string, numStates)
	for _, s := range AllStates() {
		seen := make(map[State]struct{})
		targets := []string{}
		for _, e := range s.Edges() {
			for _, t := range e.Targets {
				if t == s {
					continue
				}
				if _, ok := seen[t]; ok {
					continue
				}
				seen[t] = struct{}{}
				targets = append(targets, t.String())
			}
		}
		slices.Sort(targets)
		out[s.String()] = targets
	}
	return out
}

func illegal(_ context.Context, s State, _ Manager, _ Args) (State, error) {
	return s, fmt.Errorf("%w: state %s", ErrIllegalTransition, s)
}

func noop(_ context.Context, s State, _ Manager, _ Args) (State, error) {
	return s, nil
}

var noopCell = cell{handle: noop}

// goTo is a side-effect free move to next.
func goTo(next State) cell {
	return cell{
		handle: func(context.Context, State, Manager, Args) (State, error) { return next, nil },
		next:   []State{next},
	}
}

// noops builds a rules set where every listed event is a noop.
func noops(events ...Event) rules {
	r := make(rules, len(events))
	for _, ev := range events {
		r[ev] = noopCell
	}
	return r
}

func txActive(m Manager) bool {
	tx := m.Transaction()
	return tx != nil && tx.IsActive()
}

func txOptimistic(m Manager) bool {
	tx := m.Transaction()
	return tx != nil && tx.IsOptimistic()
}

func nontransactionalRead(m Manager) bool {
	tx := m.Transaction()
	return tx != nil && tx.NontransactionalRead()
}

func nontransactionalWrite(m Manager) bool {
	tx := m.Transaction()
	return tx != nil && tx.NontransactionalWrite()
}
