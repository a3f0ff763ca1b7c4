package lifecycle

import "context"

// Objects that exist in the store but are not part of the active transaction.

var nonTransactionalRules = noops(
	EventMakeNontransactional,
	EventMakePersistent,
	EventMakeAutoPersistent,
	EventCommit,
	EventRollback,
	EventFlush,
).with(rules{
	EventDeletePersistent:  deleteToTransactional(true),
	EventMakeTransactional: nontxMakeTransactional,
	EventMakeTransient:     makeTransientCell,
	EventEvict:             evictToHollow,
	EventRetrieve:          loadInPlace,
	EventRefresh:           reloadInPlace,
	EventReadField:         nontxRead,
	EventWriteField:        nontxWrite,
})

var nonTransactionalDirtyRules = noops(
	EventMakePersistent,
	EventMakeAutoPersistent,
	EventEvict,
).with(rules{
	EventMakeTransactional: joinAsDirty,
	EventDeletePersistent:  deleteToTransactional(true),
	EventWriteField:        joinAsDirty,
	EventReadField:         loadInPlace,
	EventRetrieve:          loadInPlace,
	EventRefresh:           nontxDirtyRefresh,
	EventFlush:             flushTo(opUpdate, PersistentNonTransactional, true),
	EventCommit:            commitRetain,
	EventRollback:          rollbackStored,
})

var nontxMakeTransactional = cell{
	handle: func(_ context.Context, s State, m Manager, _ Args) (State, error) {
		if !txActive(m) {
			return s, nil
		}
		if !txOptimistic(m) {
			m.ClearFields()
		}
		m.RegisterTransactional()
		return PersistentClean, nil
	},
	next: []State{PersistentClean, selfState},
}

var nontxRead = cell{
	handle: func(ctx context.Context, s State, m Manager, _ Args) (State, error) {
		if txActive(m) && !txOptimistic(m) {
			if err := m.ReloadFields(ctx); err != nil {
				return s, err
			}
			m.RegisterTransactional()
			return PersistentClean, nil
		}
		if !txActive(m) && !nontransactionalRead(m) {
			return s, assertTransaction(m.Transaction(), true)
		}
		if err := m.LoadUnloaded(ctx); err != nil {
			return s, err
		}
		return s, nil
	},
	next: []State{PersistentClean, selfState},
}

var nontxWrite = cell{
	handle: func(ctx context.Context, s State, m Manager, _ Args) (State, error) {
		switch {
		case txActive(m):
			if !txOptimistic(m) {
				if err := m.ReloadFields(ctx); err != nil {
					return s, err
				}
			}
			m.CreateBeforeImage()
			m.RegisterTransactional()
			return PersistentDirty, nil
		case nontransactionalWrite(m):
			m.CreateBeforeImage()
			m.RegisterNonTransactional()
			return PersistentNonTransactionalDirty, nil
		default:
			return s, assertTransaction(m.Transaction(), true)
		}
	},
	next: []State{PersistentDirty, PersistentNonTransactionalDirty},
}

var joinAsDirty = cell{
	handle: func(_ context.Context, s State, m Manager, _ Args) (State, error) {
		if !txActive(m) {
			return s, nil
		}
		m.RegisterTransactional()
		return PersistentDirty, nil
	},
	next: []State{PersistentDirty, selfState},
}

var nontxDirtyRefresh = cell{
	handle: func(ctx context.Context, s State, m Manager, _ Args) (State, error) {
		if err := m.ReloadFields(ctx); err != nil {
			return s, err
		}
		m.Reset()
		m.RegisterNonTransactional()
		return PersistentNonTransactional, nil
	},
	next: []State{PersistentNonTransactional},
}
