package lifecycle

// Objects made persistent in the current transaction. They are not in the
// store until flushed, and rollback always returns them to Transient.

var persistentNewRules = noops(
	EventMakePersistent,
	EventMakeAutoPersistent,
	EventMakeTransactional,
	EventRetrieve,
	EventEvict,
	EventRefresh,
	EventReadField,
	EventWriteField,
).with(rules{
	EventDeletePersistent: preDeleteTo(PersistentNewDeleted),
	EventFlush:            flushTo(opInsert, PersistentNewFlushed, true),
	EventCommit:           commitRetain,
	EventRollback:         rollbackNew,
})

var persistentNewFlushedRules = persistentNewRules.with(rules{
	EventDeletePersistent: preDeleteTo(PersistentNewFlushedDeleted),
	EventWriteField:       beforeImageTo(PersistentNewFlushedDirty),
	EventFlush:            noopCell,
})

var persistentNewFlushedDirtyRules = persistentNewRules.with(rules{
	EventDeletePersistent: preDeleteTo(PersistentNewFlushedDeleted),
	EventWriteField:       noopCell,
	EventFlush:            flushTo(opUpdate, PersistentNewFlushed, true),
})

var persistentNewDeletedRules = noops(
	EventMakePersistent,
	EventMakeAutoPersistent,
	EventDeletePersistent,
	EventMakeTransactional,
	EventEvict,
	EventRefresh,
	EventFlush,
).with(rules{
	EventCommit:   commitDisconnect,
	EventRollback: rollbackNew,
})

var persistentNewFlushedDeletedRules = persistentNewDeletedRules.with(rules{
	EventFlush: flushTo(opDelete, PersistentNewDeleted, true),
})
