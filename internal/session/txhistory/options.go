package txhistory

import "log/slog"

// Option is a functional option for configuring the History
type Option func(*History)

// WithMaxRecords sets the maximum number of records to keep
func WithMaxRecords(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.maxRecords = n
		}
	}
}

// WithCleanupFunc sets a custom cleanup function
func WithCleanupFunc(fn func([]*Record) []*Record) Option {
	return func(h *History) {
		if fn != nil {
			h.cleanupFunc = fn
		}
	}
}

// WithLogHandler sets the log handler for the history
func WithLogHandler(handler slog.Handler) Option {
	return func(h *History) {
		if handler != nil {
			h.logger = slog.New(handler).WithGroup("txhistory")
		}
	}
}
