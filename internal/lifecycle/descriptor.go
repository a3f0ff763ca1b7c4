package lifecycle

// Descriptor is the immutable flag tuple of one lifecycle state.
type Descriptor struct {
	Tag                  State
	Persistent           bool
	Transactional        bool
	Dirty                bool
	New                  bool
	Deleted              bool
	Flushed              bool
	Navigable            bool
	Refreshable          bool
	BeforeImageUpdatable bool
	AutoPersistent       bool
}

// flag order: persistent, transactional, dirty, new, deleted, flushed,
// navigable, refreshable, beforeImageUpdatable, autoPersistent
func desc(tag State, p, tx, dirty, isNew, del, flushed, nav, refresh, bi, auto bool) Descriptor {
	return Descriptor{
		Tag:                  tag,
		Persistent:           p,
		Transactional:        tx,
		Dirty:                dirty,
		New:                  isNew,
		Deleted:              del,
		Flushed:              flushed,
		Navigable:            nav,
		Refreshable:          refresh,
		BeforeImageUpdatable: bi,
		AutoPersistent:       auto,
	}
}

const (
	on  = true
	off = false
)

var descriptors = [numStates]Descriptor{
	Transient:                       desc(Transient, off, off, off, off, off, on, on, off, off, off),
	PersistentNew:                   desc(PersistentNew, on, on, on, on, off, off, on, off, off, off),
	PersistentNewDeleted:            desc(PersistentNewDeleted, on, on, on, on, on, on, off, off, off, off),
	PersistentNewFlushed:            desc(PersistentNewFlushed, on, on, off, on, off, on, on, off, off, off),
	PersistentNewFlushedDirty:       desc(PersistentNewFlushedDirty, on, on, on, on, off, off, on, off, on, off),
	PersistentNewFlushedDeleted:     desc(PersistentNewFlushedDeleted, on, on, on, on, on, off, off, off, on, off),
	PersistentClean:                 desc(PersistentClean, on, on, off, off, off, on, on, on, off, off),
	PersistentDirty:                 desc(PersistentDirty, on, on, on, off, off, off, on, on, on, off),
	PersistentDirtyFlushed:          desc(PersistentDirtyFlushed, on, on, on, off, off, on, on, on, on, off),
	PersistentDeleted:               desc(PersistentDeleted, on, on, on, off, on, off, off, off, on, off),
	PersistentDeletedFlushed:        desc(PersistentDeletedFlushed, on, on, on, off, on, on, off, off, on, off),
	PersistentNonTransactional:      desc(PersistentNonTransactional, on, off, off, off, off, on, on, on, off, off),
	PersistentNonTransactionalDirty: desc(PersistentNonTransactionalDirty, on, off, on, off, off, off, on, on, on, off),
	Hollow:                          desc(Hollow, on, off, off, off, off, on, on, off, off, off),
	AutoPersistentNew:               desc(AutoPersistentNew, on, on, on, on, off, off, on, off, off, on),
	AutoPersistentNewDeleted:        desc(AutoPersistentNewDeleted, on, on, on, on, on, on, off, off, off, on),
	AutoPersistentNewFlushed:        desc(AutoPersistentNewFlushed, on, on, off, on, off, on, on, off, off, on),
	AutoPersistentNewFlushedDirty:   desc(AutoPersistentNewFlushedDirty, on, on, on, on, off, off, on, off, on, on),
	AutoPersistentNewFlushedDeleted: desc(AutoPersistentNewFlushedDeleted, on, on, on, on, on, off, off, off, on, on),
	AutoPersistentPending:           desc(AutoPersistentPending, on, on, off, on, off, on, on, off, off, on),
}

// Descriptors returns a copy of the whole table in state order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors[:])
	return out
}
