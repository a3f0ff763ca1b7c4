package session

import (
	"log/slog"

	"github.com/atlanticdynamic/pcstate/internal/metrics"
	"github.com/atlanticdynamic/pcstate/internal/session/txhistory"
)

// DefaultMaxFlushPasses bounds the flush passes of one commit.
const DefaultMaxFlushPasses = 8

// DefaultConcurrency is the number of objects completed in parallel at
// commit and rollback.
const DefaultConcurrency = 4

// Option is a functional option for configuring a Session
type Option func(*Session)

// WithLogHandler sets the log handler for the session and its objects
func WithLogHandler(handler slog.Handler) Option {
	return func(s *Session) {
		if handler != nil {
			s.handler = handler
		}
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Session) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithSettings sets the initial transaction settings
func WithSettings(settings Settings) Option {
	return func(s *Session) {
		s.settings = settings
	}
}

// WithMaxFlushPasses bounds the flush passes of one commit
func WithMaxFlushPasses(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxFlushPasses = n
		}
	}
}

// WithConcurrency sets how many objects complete in parallel
func WithConcurrency(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithHistory shares a transaction history between sessions
func WithHistory(h *txhistory.History) Option {
	return func(s *Session) {
		if h != nil {
			s.history = h
		}
	}
}
