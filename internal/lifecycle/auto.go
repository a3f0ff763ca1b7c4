package lifecycle

import "context"

// Objects that entered management by cascade. An explicit makePersistent
// demotes them to the matching PersistentNew state; anything still
// auto-persistent at commit was unreachable and is removed again.

var autoBase = rules{
	EventMakeAutoPersistent: noopCell,
	EventCommit:             commitAuto,
	EventRollback:           rollbackNew,
}

var autoPersistentNewRules = autoBase.with(noops(
	EventWriteField,
	EventReadField,
	EventRetrieve,
	EventEvict,
	EventRefresh,
	EventMakeTransactional,
)).with(rules{
	EventMakePersistent:   goTo(PersistentNew),
	EventDeletePersistent: preDeleteTo(AutoPersistentNewDeleted),
	EventFlush:            autoNewFlush,
})

var autoPersistentNewFlushedRules = autoPersistentNewRules.with(rules{
	EventMakePersistent:   goTo(PersistentNewFlushed),
	EventDeletePersistent: preDeleteTo(AutoPersistentNewFlushedDeleted),
	EventWriteField:       beforeImageTo(AutoPersistentNewFlushedDirty),
	EventFlush:            autoFlushedFlush,
})

var autoPersistentNewFlushedDirtyRules = autoPersistentNewRules.with(rules{
	EventMakePersistent:   goTo(PersistentNewFlushedDirty),
	EventDeletePersistent: preDeleteTo(PersistentNewFlushedDeleted),
	EventFlush:            autoFlushedDirtyFlush,
})

var autoPersistentNewDeletedRules = autoBase.with(noops(
	EventDeletePersistent,
	EventEvict,
	EventRefresh,
	EventMakeTransactional,
	EventFlush,
)).with(rules{
	EventMakePersistent: goTo(PersistentNewDeleted),
})

var autoPersistentNewFlushedDeletedRules = autoPersistentNewDeletedRules.with(rules{
	EventMakePersistent: goTo(PersistentNewFlushedDeleted),
	EventFlush:          flushTo(opDelete, AutoPersistentNewDeleted, true),
})

var autoPersistentPendingRules = autoBase.with(noops(
	EventWriteField,
	EventReadField,
	EventRetrieve,
	EventEvict,
	EventRefresh,
	EventMakeTransactional,
	EventFlush,
)).with(rules{
	EventMakePersistent:     goTo(PersistentNew),
	EventMakeAutoPersistent: goTo(AutoPersistentNew),
	EventDeletePersistent:   preDeleteTo(AutoPersistentNewDeleted),
	EventMakeTransient:      makeTransientCell,
})

// autoNewFlush never inserts at commit time: the object is simply finished.
// A query flush inserts it so queries can see it, without marking it flushed.
var autoNewFlush = cell{
	handle: func(ctx context.Context, s State, m Manager, args Args) (State, error) {
		if m.InsideCommit() {
			m.MarkAsFlushed()
			return AutoPersistentPending, nil
		}
		return flushWithoutMark(ctx, opInsert, s, AutoPersistentNewFlushed, m, args)
	},
	next: []State{AutoPersistentPending, AutoPersistentNewFlushed, selfState},
}

// autoFlushedFlush removes a query-flushed object from the store at commit.
var autoFlushedFlush = cell{
	handle: func(ctx context.Context, s State, m Manager, args Args) (State, error) {
		if !m.InsideCommit() {
			return s, nil
		}
		return removeAtCommit(ctx, s, m, args)
	},
	next: []State{AutoPersistentPending, selfState},
}

var autoFlushedDirtyFlush = cell{
	handle: func(ctx context.Context, s State, m Manager, args Args) (State, error) {
		if m.InsideCommit() {
			return removeAtCommit(ctx, s, m, args)
		}
		return flushWithoutMark(ctx, opUpdate, s, AutoPersistentNewFlushed, m, args)
	},
	next: []State{AutoPersistentPending, AutoPersistentNewFlushed, selfState},
}

func removeAtCommit(ctx context.Context, s State, m Manager, args Args) (State, error) {
	status, err := callStore(ctx, opDelete, m, args)
	if err != nil || !status.IsComplete() {
		return s, err
	}
	m.MarkAsFlushed()
	return AutoPersistentPending, nil
}

// flushWithoutMark leaves the dirty set intact so the commit flush sees the
// object again.
func flushWithoutMark(ctx context.Context, op storeOp, s, next State, m Manager, args Args) (State, error) {
	status, err := callStore(ctx, op, m, args)
	if err != nil || !status.IsComplete() {
		return s, err
	}
	return next, nil
}
