package statemanager

import (
	"sync"
	"time"

	"github.com/atlanticdynamic/pcstate/internal/lifecycle"
	"github.com/atlanticdynamic/pcstate/internal/metrics"
	"github.com/atlanticdynamic/pcstate/internal/store"
)

type testTx struct {
	active, optimistic, ntRead, ntWrite bool
}

func (t *testTx) IsActive() bool              { return t.active }
func (t *testTx) IsOptimistic() bool          { return t.optimistic }
func (t *testTx) NontransactionalRead() bool  { return t.ntRead }
func (t *testTx) NontransactionalWrite() bool { return t.ntWrite }
func (t *testTx) RetainValues() bool          { return false }
func (t *testTx) RestoreValues() bool         { return false }

// testOwner is a minimal session: one transaction, one store and two
// registries.
type testOwner struct {
	mu     sync.Mutex
	tx     *testTx
	inside bool
	st     store.Manager

	transactional    map[*StateManager]struct{}
	nonTransactional map[*StateManager]struct{}
}

func newTestOwner(st store.Manager) *testOwner {
	return &testOwner{
		tx:               &testTx{active: true, ntRead: true},
		st:               st,
		transactional:    make(map[*StateManager]struct{}),
		nonTransactional: make(map[*StateManager]struct{}),
	}
}

func (o *testOwner) Transaction() lifecycle.Transaction { return o.tx }
func (o *testOwner) InsideCommit() bool                 { return o.inside }
func (o *testOwner) Store() store.Manager               { return o.st }

func (o *testOwner) RegisterTransactional(sm *StateManager) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.nonTransactional, sm)
	o.transactional[sm] = struct{}{}
}

func (o *testOwner) RegisterNonTransactional(sm *StateManager) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.transactional, sm)
	o.nonTransactional[sm] = struct{}{}
}

func (o *testOwner) Deregister(sm *StateManager) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.transactional, sm)
	delete(o.nonTransactional, sm)
}

func (o *testOwner) isTransactional(sm *StateManager) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.transactional[sm]
	return ok
}

func (o *testOwner) isNonTransactional(sm *StateManager) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.nonTransactional[sm]
	return ok
}

// recorder captures metric calls.
type recorder struct {
	mu          sync.Mutex
	transitions []string
	illegal     []string
	flushes     []string
}

func (r *recorder) ObserveTransition(from, event, to string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, from+" -"+event+"-> "+to)
}

func (r *recorder) IncIllegalTransition(state, event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.illegal = append(r.illegal, state+" "+event)
}

func (r *recorder) IncFlush(operation string, result metrics.FlushLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushes = append(r.flushes, operation+" "+string(result))
}

func (r *recorder) ObserveCommit(metrics.OutcomeLabel, time.Duration) {}
