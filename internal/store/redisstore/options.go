package redisstore

import "log/slog"

// Options configures the Redis connection.
type Options struct {
	// Address of the Redis server.
	Address string
	// Password required when connecting to the Redis server.
	Password string
	// DB to select after connecting.
	DB int
	// KeyPrefix is prepended to every object key.
	KeyPrefix string
}

// DefaultOptions returns options for a local server.
func DefaultOptions() Options {
	return Options{
		Address:   "localhost:6379",
		KeyPrefix: "pcstate:",
	}
}

// Option is a functional option for configuring the Store
type Option func(*Store)

// WithLogHandler sets the log handler for the store
func WithLogHandler(handler slog.Handler) Option {
	return func(s *Store) {
		if handler != nil {
			s.logger = slog.New(handler).WithGroup("redisstore")
		}
	}
}
