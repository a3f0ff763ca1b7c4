// Package retrystore decorates a store.Manager so that transient failures of
// individual store calls are retried with Fibonacci backoff. A NotComplete
// status is not a failure and is passed through unchanged.
package retrystore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/atlanticdynamic/pcstate/internal/store"
	"github.com/bits-and-blooms/bitset"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 50 * time.Millisecond
)

// Store retries calls on an inner store.Manager.
type Store struct {
	inner      store.Manager
	maxRetries uint64
	baseDelay  time.Duration
	logger     *slog.Logger
}

var (
	_ store.Manager       = (*Store)(nil)
	_ store.Transactional = (*Store)(nil)
	_ store.Closer        = (*Store)(nil)
)

// Option is a functional option for configuring the Store
type Option func(*Store)

// WithMaxRetries sets how many times a failed call is retried
func WithMaxRetries(n uint64) Option {
	return func(s *Store) {
		s.maxRetries = n
	}
}

// WithBaseDelay sets the first backoff interval
func WithBaseDelay(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.baseDelay = d
		}
	}
}

// WithLogHandler sets the log handler for the store
func WithLogHandler(handler slog.Handler) Option {
	return func(s *Store) {
		if handler != nil {
			s.logger = slog.New(handler).WithGroup("retrystore")
		}
	}
}

// New wraps inner.
func New(inner store.Manager, opts ...Option) *Store {
	s := &Store{
		inner:      inner,
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		logger:     slog.Default().WithGroup("retrystore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Unwrap returns the decorated store.
func (s *Store) Unwrap() store.Manager {
	return s.inner
}

// ShouldRetry reports whether err is worth another attempt. Missing or
// duplicate objects, codec failures, closed stores and context errors are
// permanent.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, store.ErrObjectNotFound),
		errors.Is(err, store.ErrDuplicateObject),
		errors.Is(err, store.ErrFieldCodec),
		errors.Is(err, store.ErrClosed),
		errors.Is(err, store.ErrNoTransaction):
		return false
	}
	return true
}

func (s *Store) backoff() retry.Backoff {
	return retry.WithMaxRetries(s.maxRetries, retry.NewFibonacci(s.baseDelay))
}

// retryable marks err for another attempt when ShouldRetry allows it.
func (s *Store) retryable(op string, attempt int, err error) error {
	if !ShouldRetry(err) {
		return err
	}
	s.logger.Warn("Store call failed, retrying", "op", op, "attempt", attempt, "error", err)
	return retry.RetryableError(err)
}

func (s *Store) flush(
	ctx context.Context,
	op string,
	call func(context.Context, *bitset.BitSet, *bitset.BitSet, store.Handle) (store.FlushStatus, error),
	loaded, dirty *bitset.BitSet,
	h store.Handle,
) (store.FlushStatus, error) {
	attempt := 0
	status, err := retry.DoValue(ctx, s.backoff(), func(ctx context.Context) (store.FlushStatus, error) {
		attempt++
		status, err := call(ctx, loaded, dirty, h)
		return status, s.retryable(op, attempt, err)
	})
	if err != nil {
		return store.NotComplete, err
	}
	return status, nil
}

// Insert implements store.Manager
func (s *Store) Insert(
	ctx context.Context,
	loaded, dirty *bitset.BitSet,
	h store.Handle,
) (store.FlushStatus, error) {
	return s.flush(ctx, "insert", s.inner.Insert, loaded, dirty, h)
}

// Update implements store.Manager
func (s *Store) Update(
	ctx context.Context,
	loaded, dirty *bitset.BitSet,
	h store.Handle,
) (store.FlushStatus, error) {
	return s.flush(ctx, "update", s.inner.Update, loaded, dirty, h)
}

// Delete implements store.Manager
func (s *Store) Delete(
	ctx context.Context,
	loaded, dirty *bitset.BitSet,
	h store.Handle,
) (store.FlushStatus, error) {
	return s.flush(ctx, "delete", s.inner.Delete, loaded, dirty, h)
}

// Fetch implements store.Manager
func (s *Store) Fetch(ctx context.Context, fields *bitset.BitSet, h store.Handle) error {
	attempt := 0
	return retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		attempt++
		return s.retryable("fetch", attempt, s.inner.Fetch(ctx, fields, h))
	})
}

// Begin implements store.Transactional. Transaction boundaries are never
// retried.
func (s *Store) Begin(ctx context.Context) error {
	if tx, ok := s.inner.(store.Transactional); ok {
		return tx.Begin(ctx)
	}
	return nil
}

// Commit implements store.Transactional
func (s *Store) Commit(ctx context.Context) error {
	if tx, ok := s.inner.(store.Transactional); ok {
		return tx.Commit(ctx)
	}
	return nil
}

// Rollback implements store.Transactional
func (s *Store) Rollback(ctx context.Context) error {
	if tx, ok := s.inner.(store.Transactional); ok {
		return tx.Rollback(ctx)
	}
	return nil
}

// Close implements store.Closer
func (s *Store) Close() error {
	if c, ok := s.inner.(store.Closer); ok {
		return c.Close()
	}
	return nil
}
