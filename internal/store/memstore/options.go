package memstore

import "log/slog"

// Option is a functional option for configuring the Store
type Option func(*Store)

// WithLogHandler sets the log handler for the store
func WithLogHandler(handler slog.Handler) Option {
	return func(s *Store) {
		if handler != nil {
			s.logger = slog.New(handler).WithGroup("memstore")
		}
	}
}

// WithLogger sets the logger for the store
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}
