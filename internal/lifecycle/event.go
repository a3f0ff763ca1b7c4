package lifecycle

import "fmt"

// Event identifies an operation that may change the lifecycle state of a
// managed object.
type Event uint8

const (
	EventMakePersistent Event = iota
	EventMakeAutoPersistent
	EventDeletePersistent
	EventMakeTransactional
	EventMakeNontransactional
	EventMakeTransient
	EventRetrieve
	EventEvict
	EventRefresh
	EventReadField
	EventWriteField
	EventCommit
	EventRollback
	EventFlush

	numEvents
)

var eventNames = [numEvents]string{
	EventMakePersistent:       "makePersistent",
	EventMakeAutoPersistent:   "makeAutoPersistent",
	EventDeletePersistent:     "deletePersistent",
	EventMakeTransactional:    "makeTransactional",
	EventMakeNontransactional: "makeNontransactional",
	EventMakeTransient:        "makeTransient",
	EventRetrieve:             "retrieve",
	EventEvict:                "evict",
	EventRefresh:              "refresh",
	EventReadField:            "readField",
	EventWriteField:           "writeField",
	EventCommit:               "commit",
	EventRollback:             "rollback",
	EventFlush:                "flush",
}

// String implements fmt.Stringer
func (e Event) String() string {
	if e >= numEvents {
		return fmt.Sprintf("Event(%d)", uint8(e))
	}
	return eventNames[e]
}

// AllEvents returns every event in declaration order.
func AllEvents() []Event {
	out := make([]Event, numEvents)
	for i := range out {
		out[i] = Event(i)
	}
	return out
}
