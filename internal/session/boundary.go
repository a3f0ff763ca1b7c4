package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/atlanticdynamic/pcstate/internal/metrics"
	"github.com/atlanticdynamic/pcstate/internal/session/finitestate"
	"github.com/atlanticdynamic/pcstate/internal/session/txhistory"
	"github.com/atlanticdynamic/pcstate/internal/statemanager"
	"github.com/atlanticdynamic/pcstate/internal/store"
	"golang.org/x/sync/errgroup"
)

// Begin starts a transaction. A transactional store opens its own
// transaction first.
func (s *Session) Begin(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.isClosed() {
		return ErrClosed
	}
	if s.tx.IsActive() {
		return ErrAlreadyActive
	}

	if ts, ok := s.store.(store.Transactional); ok {
		if err := ts.Begin(ctx); err != nil {
			return NewTransactionError(s.tx.ID(), PhaseBegin, "store begin failed", err)
		}
		s.storeTxOpen = true
	}

	id, logs, err := s.tx.begin()
	if err != nil {
		_ = s.rollbackStore(ctx)
		return NewTransactionError(id, PhaseBegin, "status change failed", err)
	}
	s.history.SetCurrent(txhistory.NewRecord(id, logs))
	s.tx.log().Info("Transaction started", "settings", fmt.Sprintf("%+v", s.tx.Settings()))
	return nil
}

// Commit flushes every pending object, commits the store and then
// completes each transactional object. Any failure before the store commit
// rolls the transaction back and is returned as a *TransactionError.
func (s *Session) Commit(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.isClosed() {
		return ErrClosed
	}
	if !s.tx.IsActive() {
		return ErrNotActive
	}
	rec := s.history.GetCurrent()
	id := s.tx.ID()
	logger := s.tx.log()

	if err := s.tx.transitionFrom(finitestate.StatusActive, finitestate.StatusCommitting); err != nil {
		return NewTransactionError(id, PhaseCommit, "status change failed", err)
	}

	s.insideCommit.Store(true)
	passes, err := s.flushAll(ctx, true)
	s.insideCommit.Store(false)
	if err != nil {
		logger.Error("Commit flush failed", "passes", passes, "error", err)
		return s.failCommit(ctx, rec, passes, NewTransactionError(id, PhaseFlush, "flush failed", err))
	}

	if s.storeTxOpen {
		if err := s.store.(store.Transactional).Commit(ctx); err != nil {
			logger.Error("Store commit failed", "error", err)
			return s.failCommit(ctx, rec, passes, NewTransactionError(id, PhaseCommit, "store commit failed", err))
		}
		s.storeTxOpen = false
	}

	objects := s.TransactionalObjects()
	retain := s.tx.RetainValues()
	err = s.fanOut(ctx, objects, func(ctx context.Context, sm *statemanager.StateManager) error {
		return sm.Commit(ctx, retain)
	})
	s.settle(objects)
	if err != nil {
		// The store has committed; objects that failed keep their state.
		logger.Error("Object commit failed", "error", err)
		_ = s.tx.transition(finitestate.StatusError)
		s.finish(rec, txhistory.OutcomeFailed, metrics.OutcomeFailed, len(objects), passes, err)
		return NewTransactionError(id, PhaseCommit, "object completion failed", err)
	}

	// Non-transactional changes held back from the store transaction are
	// written now that it has committed.
	more, err := s.flushAll(ctx, false)
	passes += more
	if err != nil {
		logger.Error("Non-transactional flush failed", "passes", more, "error", err)
		_ = s.tx.transition(finitestate.StatusError)
		s.finish(rec, txhistory.OutcomeFailed, metrics.OutcomeFailed, len(objects), passes, err)
		return NewTransactionError(id, PhaseFlush, "non-transactional flush failed", err)
	}

	if err := s.tx.transition(finitestate.StatusCommitted); err != nil {
		return NewTransactionError(id, PhaseCommit, "status change failed", err)
	}
	logger.Info("Transaction committed", "objects", len(objects), "passes", passes)
	s.finish(rec, txhistory.OutcomeCommitted, metrics.OutcomeCommitted, len(objects), passes, nil)
	return nil
}

// failCommit rolls back after a failed commit attempt and returns cause,
// joined with any rollback error.
func (s *Session) failCommit(ctx context.Context, rec *txhistory.Record, passes int, cause error) error {
	objects := s.TransactionalObjects()
	rbErr := s.rollbackObjects(ctx)
	err := errors.Join(cause, rbErr)
	s.finish(rec, txhistory.OutcomeFailed, metrics.OutcomeFailed, len(objects), passes, err)
	return err
}

// Rollback abandons the active transaction.
func (s *Session) Rollback(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.isClosed() {
		return ErrClosed
	}
	if !s.tx.IsActive() {
		return ErrNotActive
	}
	return s.rollbackLocked(ctx, nil)
}

func (s *Session) rollbackLocked(ctx context.Context, cause error) error {
	rec := s.history.GetCurrent()
	objects := s.TransactionalObjects()
	err := s.rollbackObjects(ctx)
	outcome, label := txhistory.OutcomeRolledBack, metrics.OutcomeRolledBack
	if err != nil || cause != nil {
		outcome, label = txhistory.OutcomeFailed, metrics.OutcomeFailed
	}
	s.finish(rec, outcome, label, len(objects), 0, errors.Join(cause, err))
	return err
}

// rollbackObjects rolls back the store and every transactional object.
func (s *Session) rollbackObjects(ctx context.Context) error {
	id := s.tx.ID()
	logger := s.tx.log()
	if err := s.tx.transition(finitestate.StatusRollingBack); err != nil {
		return NewTransactionError(id, PhaseRollback, "status change failed", err)
	}

	var errs []error
	if err := s.rollbackStore(ctx); err != nil {
		errs = append(errs, err)
	}

	objects := s.TransactionalObjects()
	restore := s.tx.RestoreValues()
	if err := s.fanOut(ctx, objects, func(ctx context.Context, sm *statemanager.StateManager) error {
		return sm.Rollback(ctx, restore)
	}); err != nil {
		errs = append(errs, err)
	}
	s.settle(objects)

	if err := errors.Join(errs...); err != nil {
		logger.Error("Rollback failed", "error", err)
		_ = s.tx.transition(finitestate.StatusError)
		return NewTransactionError(id, PhaseRollback, "rollback failed", err)
	}
	if err := s.tx.transition(finitestate.StatusRolledBack); err != nil {
		return NewTransactionError(id, PhaseRollback, "status change failed", err)
	}
	logger.Info("Transaction rolled back", "objects", len(objects))
	return nil
}

func (s *Session) rollbackStore(ctx context.Context) error {
	if !s.storeTxOpen {
		return nil
	}
	s.storeTxOpen = false
	if err := s.store.(store.Transactional).Rollback(ctx); err != nil {
		return fmt.Errorf("store rollback: %w", err)
	}
	return nil
}

// Flush sends pending changes to the store without ending the transaction,
// so that the store sees them before commit.
func (s *Session) Flush(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.isClosed() {
		return ErrClosed
	}
	if !s.tx.IsActive() {
		return ErrNotActive
	}
	passes, err := s.flushAll(ctx, false)
	if err != nil {
		return NewTransactionError(s.tx.ID(), PhaseFlush, "flush failed", err)
	}
	s.tx.log().Debug("Flushed", "passes", passes)
	return nil
}

// flushAll flushes transactional and non-transactional objects until none
// needs a flush. Objects answered with NotComplete are retried in the next
// pass; objects still pending after the last pass stall the flush. While a
// store transaction is open only transactional objects are flushed, since a
// store rollback would otherwise discard changes their objects no longer
// report as dirty.
func (s *Session) flushAll(ctx context.Context, insideCommit bool) (int, error) {
	passes := 0
	for {
		pending := s.pendingFlush(insideCommit)
		if len(pending) == 0 {
			return passes, nil
		}
		if passes == s.maxFlushPasses {
			return passes, fmt.Errorf("%w: %d objects pending after %d passes", ErrFlushStalled, len(pending), passes)
		}
		passes++
		for _, sm := range pending {
			if err := sm.Flush(ctx); err != nil {
				return passes, fmt.Errorf("flush %s: %w", sm, err)
			}
		}
	}
}

func (s *Session) pendingFlush(insideCommit bool) []*statemanager.StateManager {
	s.mu.Lock()
	candidates := sorted(s.transactional)
	if !s.storeTxOpen {
		candidates = append(candidates, sorted(s.nonTransactional)...)
	}
	s.mu.Unlock()

	pending := candidates[:0]
	for _, sm := range candidates {
		if sm.NeedsFlush(insideCommit) {
			pending = append(pending, sm)
		}
	}
	return pending
}

// fanOut runs fn for every object with bounded parallelism and returns the
// joined errors. Every object is visited even when some fail.
func (s *Session) fanOut(
	ctx context.Context,
	objects []*statemanager.StateManager,
	fn func(context.Context, *statemanager.StateManager) error,
) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(s.concurrency)
	for _, sm := range objects {
		g.Go(func() error {
			if err := fn(ctx, sm); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// settle moves objects that ended a transaction out of the transactional
// registry. Objects still in the identity map stay managed outside the
// transaction.
func (s *Session) settle(objects []*statemanager.StateManager) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sm := range objects {
		delete(s.transactional, sm)
		if s.byID[sm.ObjectID()] == sm {
			s.nonTransactional[sm] = struct{}{}
		}
	}
}

func (s *Session) finish(
	rec *txhistory.Record,
	outcome txhistory.Outcome,
	label metrics.OutcomeLabel,
	objects, passes int,
	err error,
) {
	if rec == nil {
		return
	}
	rec.Finish(outcome, objects, passes, err)
	s.history.Add(rec)
	s.recorder.ObserveCommit(label, rec.Duration())
	s.logger.Debug("Transaction finished",
		"id", rec.ID.String(),
		"outcome", outcome,
		"duration", rec.Duration(),
		"objects", objects)
}
