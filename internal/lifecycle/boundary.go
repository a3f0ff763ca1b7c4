package lifecycle

import "context"

// Transaction boundary handlers shared by several families.

// commitRetain keeps values for non-transactional access or drops them,
// leaving the object hollow.
var commitRetain = cell{
	handle: func(_ context.Context, _ State, m Manager, args Args) (State, error) {
		next := Hollow
		if args.RetainValues {
			m.ReplaceTrackedContainerFields()
			next = PersistentNonTransactional
		} else {
			m.ClearFields()
		}
		m.Reset()
		return next, nil
	},
	next: []State{PersistentNonTransactional, Hollow},
}

// commitDisconnect ends management of an object removed from the store.
var commitDisconnect = cell{
	handle: func(_ context.Context, _ State, m Manager, _ Args) (State, error) {
		m.Reset()
		m.Disconnect()
		return Transient, nil
	},
	next: []State{Transient},
}

// commitAuto drops an auto-persistent object that was never made reachable.
var commitAuto = cell{
	handle: func(_ context.Context, _ State, m Manager, _ Args) (State, error) {
		m.UnsetTrackedContainerFields()
		m.Reset()
		m.Disconnect()
		return Transient, nil
	},
	next: []State{Transient},
}

// rollbackNew returns a new object to the caller as transient.
var rollbackNew = cell{
	handle: func(_ context.Context, _ State, m Manager, args Args) (State, error) {
		if args.RestoreValues {
			m.RestoreFields()
		} else {
			m.UnsetTrackedContainerFields()
		}
		m.Disconnect()
		return Transient, nil
	},
	next: []State{Transient},
}

// rollbackStored restores or drops values of an object that exists in the store.
var rollbackStored = cell{
	handle: func(_ context.Context, _ State, m Manager, args Args) (State, error) {
		next := Hollow
		if args.RestoreValues {
			m.RestoreFields()
			next = PersistentNonTransactional
		} else {
			m.ClearFields()
		}
		m.Reset()
		return next, nil
	},
	next: []State{PersistentNonTransactional, Hollow},
}

// makeTransientCell detaches a clean object from management.
var makeTransientCell = cell{
	handle: func(_ context.Context, _ State, m Manager, _ Args) (State, error) {
		m.Disconnect()
		return Transient, nil
	},
	next: []State{Transient},
}

// evictToHollow drops loaded values and parks the object as hollow.
var evictToHollow = cell{
	handle: func(_ context.Context, _ State, m Manager, _ Args) (State, error) {
		m.ClearFields()
		m.Reset()
		m.RegisterNonTransactional()
		return Hollow, nil
	},
	next: []State{Hollow},
}

// loadInPlace fetches unloaded fields without changing state.
var loadInPlace = cell{
	handle: func(ctx context.Context, s State, m Manager, _ Args) (State, error) {
		if err := m.LoadUnloaded(ctx); err != nil {
			return s, err
		}
		return s, nil
	},
}

// reloadInPlace discards loaded values and fetches them again.
var reloadInPlace = cell{
	handle: func(ctx context.Context, s State, m Manager, _ Args) (State, error) {
		if err := m.ReloadFields(ctx); err != nil {
			return s, err
		}
		return s, nil
	},
}

// deleteToTransactional registers a stored object and marks it deleted.
// requireTx guards states that are not yet transactional.
func deleteToTransactional(requireTx bool) cell {
	return cell{
		handle: func(_ context.Context, s State, m Manager, _ Args) (State, error) {
			if requireTx {
				if err := assertTransaction(m.Transaction(), true); err != nil {
					return s, err
				}
			}
			m.RegisterTransactional()
			m.PreDelete()
			return PersistentDeleted, nil
		},
		next: []State{PersistentDeleted},
	}
}

// preDeleteTo runs the pre-delete hook and moves to next.
func preDeleteTo(next State) cell {
	return cell{
		handle: func(_ context.Context, _ State, m Manager, _ Args) (State, error) {
			m.PreDelete()
			return next, nil
		},
		next: []State{next},
	}
}

// beforeImageTo captures the before-image and moves to next.
func beforeImageTo(next State) cell {
	return cell{
		handle: func(_ context.Context, _ State, m Manager, _ Args) (State, error) {
			m.CreateBeforeImage()
			return next, nil
		},
		next: []State{next},
	}
}
