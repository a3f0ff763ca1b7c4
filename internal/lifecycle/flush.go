package lifecycle

import (
	"context"
	"fmt"

	"github.com/atlanticdynamic/pcstate/internal/store"
)

type storeOp uint8

const (
	opInsert storeOp = iota
	opUpdate
	opDelete
)

func (op storeOp) String() string {
	switch op {
	case opInsert:
		return "insert"
	case opUpdate:
		return "update"
	case opDelete:
		return "delete"
	default:
		return fmt.Sprintf("storeOp(%d)", uint8(op))
	}
}

// callStore sends the object's loaded and dirty field sets to the store.
func callStore(ctx context.Context, op storeOp, m Manager, args Args) (store.FlushStatus, error) {
	if args.Store == nil {
		return store.NotComplete, ErrNoStore
	}
	loaded, dirty := m.LoadedFields(), m.DirtyFields()

	var (
		status store.FlushStatus
		err    error
	)
	switch op {
	case opInsert:
		status, err = args.Store.Insert(ctx, loaded, dirty, m)
	case opUpdate:
		status, err = args.Store.Update(ctx, loaded, dirty, m)
	case opDelete:
		status, err = args.Store.Delete(ctx, loaded, dirty, m)
	}
	if err != nil {
		return store.NotComplete, fmt.Errorf("store %s: %w", op, err)
	}
	return status, nil
}

// flushTo calls op and, when the store reports completion, optionally marks
// the object flushed and moves to next. An incomplete flush keeps the current
// state with no bookkeeping change.
func flushTo(op storeOp, next State, mark bool) cell {
	return cell{
		handle: func(ctx context.Context, s State, m Manager, args Args) (State, error) {
			status, err := callStore(ctx, op, m, args)
			if err != nil {
				return s, err
			}
			if status != store.Complete {
				return s, nil
			}
			if mark {
				m.MarkAsFlushed()
			}
			return next, nil
		},
		next: []State{next, selfState},
	}
}
