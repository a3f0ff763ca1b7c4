package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/atlanticdynamic/pcstate/internal/model"
	"github.com/atlanticdynamic/pcstate/internal/statemanager"
	"github.com/atlanticdynamic/pcstate/internal/store"
	"github.com/gofrs/uuid/v5"
)

// MakePersistent makes inst persistent in the active transaction and
// returns its manager. An instance the session already manages is passed
// to its existing manager.
func (s *Session) MakePersistent(ctx context.Context, inst model.Instance) (*statemanager.StateManager, error) {
	return s.adopt(ctx, inst, (*statemanager.StateManager).MakePersistent)
}

// MakeAutoPersistent makes inst persistent by cascade. It is removed again
// at commit unless made persistent explicitly.
func (s *Session) MakeAutoPersistent(ctx context.Context, inst model.Instance) (*statemanager.StateManager, error) {
	return s.adopt(ctx, inst, (*statemanager.StateManager).MakeAutoPersistent)
}

func (s *Session) adopt(
	ctx context.Context,
	inst model.Instance,
	event func(*statemanager.StateManager, context.Context) error,
) (*statemanager.StateManager, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	sm, ok := s.StateManagerFor(inst)
	if !ok {
		sm = statemanager.New(inst, s, s.managerOptions()...)
	}
	if err := event(sm, ctx); err != nil {
		return nil, err
	}
	return sm, nil
}

// DeletePersistent marks inst for deletion.
func (s *Session) DeletePersistent(ctx context.Context, inst model.Instance) error {
	return s.apply(ctx, inst, (*statemanager.StateManager).DeletePersistent)
}

// MakeTransactional brings inst into the active transaction.
func (s *Session) MakeTransactional(ctx context.Context, inst model.Instance) error {
	return s.apply(ctx, inst, (*statemanager.StateManager).MakeTransactional)
}

// MakeNontransactional removes a clean inst from the transaction.
func (s *Session) MakeNontransactional(ctx context.Context, inst model.Instance) error {
	return s.apply(ctx, inst, (*statemanager.StateManager).MakeNontransactional)
}

// MakeTransient releases inst from the session.
func (s *Session) MakeTransient(ctx context.Context, inst model.Instance) error {
	return s.apply(ctx, inst, (*statemanager.StateManager).MakeTransient)
}

// Retrieve loads every field of inst.
func (s *Session) Retrieve(ctx context.Context, inst model.Instance) error {
	return s.apply(ctx, inst, (*statemanager.StateManager).Retrieve)
}

// Evict drops the loaded values of inst if it is clean.
func (s *Session) Evict(ctx context.Context, inst model.Instance) error {
	return s.apply(ctx, inst, (*statemanager.StateManager).Evict)
}

// Refresh reloads inst from the store.
func (s *Session) Refresh(ctx context.Context, inst model.Instance) error {
	return s.apply(ctx, inst, (*statemanager.StateManager).Refresh)
}

// EvictAll evicts every managed object. Objects whose state keeps their
// values are left alone.
func (s *Session) EvictAll(ctx context.Context) error {
	if s.isClosed() {
		return ErrClosed
	}
	var errs []error
	for _, sm := range s.allObjects() {
		if err := sm.Evict(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Session) apply(
	ctx context.Context,
	inst model.Instance,
	event func(*statemanager.StateManager, context.Context) error,
) error {
	if s.isClosed() {
		return ErrClosed
	}
	sm, ok := s.StateManagerFor(inst)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotManaged, inst.Class())
	}
	return event(sm, ctx)
}

// GetObjectByID returns the managed object with id, creating a hollow one
// of class cls when the session has not seen it yet. With validate set the
// object is loaded immediately, so a missing object is reported here.
func (s *Session) GetObjectByID(
	ctx context.Context,
	cls *model.Class,
	id uuid.UUID,
	validate bool,
) (*statemanager.StateManager, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	if id.IsNil() {
		return nil, fmt.Errorf("%w: nil object ID", store.ErrObjectNotFound)
	}

	s.mu.Lock()
	sm, ok := s.byID[id]
	if !ok {
		sm = statemanager.NewHollow(id, cls, s, s.managerOptions()...)
		s.track(sm)
		s.nonTransactional[sm] = struct{}{}
	}
	s.mu.Unlock()

	if !validate {
		return sm, nil
	}
	if err := sm.Retrieve(ctx); err != nil {
		if !ok && errors.Is(err, store.ErrObjectNotFound) {
			s.Deregister(sm)
		}
		return nil, err
	}
	return sm, nil
}
