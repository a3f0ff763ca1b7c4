package lifecycle

import "context"

// Transactional objects that already exist in the store.

var persistentCleanRules = noops(
	EventMakePersistent,
	EventMakeAutoPersistent,
	EventMakeTransactional,
	EventFlush,
).with(rules{
	EventDeletePersistent:     deleteToTransactional(false),
	EventMakeNontransactional: nontransactionalCell,
	EventMakeTransient:        makeTransientCell,
	EventEvict:                evictToHollow,
	EventRetrieve:             loadInPlace,
	EventReadField:            loadInPlace,
	EventRefresh:              reloadInPlace,
	EventWriteField:           cleanWrite,
	EventCommit:               commitRetain,
	EventRollback:             cleanRollback,
})

var persistentDirtyRules = noops(
	EventMakePersistent,
	EventMakeAutoPersistent,
	EventMakeTransactional,
	EventEvict,
	EventWriteField,
).with(rules{
	EventDeletePersistent: preDeleteTo(PersistentDeleted),
	EventRetrieve:         loadInPlace,
	EventReadField:        loadInPlace,
	EventRefresh:          dirtyRefresh,
	EventFlush:            flushTo(opUpdate, PersistentDirtyFlushed, true),
	EventCommit:           commitRetain,
	EventRollback:         rollbackStored,
})

var persistentDirtyFlushedRules = persistentDirtyRules.with(rules{
	EventWriteField: goTo(PersistentDirty),
	EventFlush:      noopCell,
})

var persistentDeletedRules = noops(
	EventMakePersistent,
	EventMakeAutoPersistent,
	EventDeletePersistent,
	EventMakeTransactional,
	EventEvict,
	EventRefresh,
).with(rules{
	EventFlush:    flushTo(opDelete, PersistentDeletedFlushed, true),
	EventCommit:   commitDisconnect,
	EventRollback: rollbackStored,
})

var persistentDeletedFlushedRules = persistentDeletedRules.with(rules{
	EventFlush: noopCell,
})

var nontransactionalCell = cell{
	handle: func(_ context.Context, _ State, m Manager, _ Args) (State, error) {
		m.RegisterNonTransactional()
		return PersistentNonTransactional, nil
	},
	next: []State{PersistentNonTransactional},
}

var cleanWrite = cell{
	handle: func(_ context.Context, s State, m Manager, _ Args) (State, error) {
		if txActive(m) {
			m.CreateBeforeImage()
			m.RegisterTransactional()
			return PersistentDirty, nil
		}
		if nontransactionalWrite(m) {
			m.RegisterNonTransactional()
			return PersistentNonTransactional, nil
		}
		return s, assertTransaction(m.Transaction(), true)
	},
	next: []State{PersistentDirty, PersistentNonTransactional},
}

// cleanRollback has nothing to restore; it only decides whether values stay.
var cleanRollback = cell{
	handle: func(_ context.Context, _ State, m Manager, args Args) (State, error) {
		next := PersistentNonTransactional
		if !args.RestoreValues {
			m.ClearFields()
			next = Hollow
		}
		m.Reset()
		return next, nil
	},
	next: []State{PersistentNonTransactional, Hollow},
}

// dirtyRefresh discards pending changes. Under an optimistic transaction the
// reloaded object leaves the transaction.
var dirtyRefresh = cell{
	handle: func(ctx context.Context, s State, m Manager, _ Args) (State, error) {
		if err := m.ReloadFields(ctx); err != nil {
			return s, err
		}
		m.Reset()
		if txOptimistic(m) {
			m.RegisterNonTransactional()
			return PersistentNonTransactional, nil
		}
		return PersistentClean, nil
	},
	next: []State{PersistentClean, PersistentNonTransactional},
}
