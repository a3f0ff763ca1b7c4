package lifecycle

import "context"

func registerAs(next State) cell {
	return cell{
		handle: func(_ context.Context, s State, m Manager, _ Args) (State, error) {
			if err := assertTransaction(m.Transaction(), true); err != nil {
				return s, err
			}
			m.RegisterTransactional()
			return next, nil
		},
		next: []State{next},
	}
}

var transientRules = noops(
	EventMakeTransient,
	EventRetrieve,
	EventEvict,
	EventRefresh,
	EventReadField,
	EventWriteField,
).with(rules{
	EventMakePersistent:     registerAs(PersistentNew),
	EventMakeAutoPersistent: registerAs(AutoPersistentNew),
})
