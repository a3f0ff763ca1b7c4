package lifecycle

import "context"

// Hollow objects have an identity but no loaded values. Any access loads them
// and decides whether they join the transaction.

var hollowRules = noops(
	EventMakePersistent,
	EventMakeAutoPersistent,
	EventMakeNontransactional,
	EventEvict,
	EventRefresh,
	EventCommit,
	EventRollback,
	EventFlush,
).with(rules{
	EventDeletePersistent:  deleteToTransactional(true),
	EventMakeTransactional: registerAs(PersistentClean),
	EventMakeTransient:     makeTransientCell,
	EventRetrieve:          hollowLoad,
	EventReadField:         hollowLoad,
	EventWriteField:        hollowWrite,
})

var hollowLoad = cell{
	handle: func(ctx context.Context, s State, m Manager, _ Args) (State, error) {
		active := txActive(m)
		if !active && !nontransactionalRead(m) {
			return s, assertTransaction(m.Transaction(), true)
		}
		if err := m.LoadUnloaded(ctx); err != nil {
			return s, err
		}
		if active && !txOptimistic(m) {
			m.RegisterTransactional()
			return PersistentClean, nil
		}
		m.RegisterNonTransactional()
		return PersistentNonTransactional, nil
	},
	next: []State{PersistentClean, PersistentNonTransactional},
}

var hollowWrite = cell{
	handle: func(ctx context.Context, s State, m Manager, _ Args) (State, error) {
		next := PersistentDirty
		switch {
		case txActive(m):
		case nontransactionalWrite(m):
			next = PersistentNonTransactionalDirty
		default:
			return s, assertTransaction(m.Transaction(), true)
		}
		if err := m.LoadUnloaded(ctx); err != nil {
			return s, err
		}
		m.CreateBeforeImage()
		if next == PersistentDirty {
			m.RegisterTransactional()
		} else {
			m.RegisterNonTransactional()
		}
		return next, nil
	},
	next: []State{PersistentDirty, PersistentNonTransactionalDirty},
}
