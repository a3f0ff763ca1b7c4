package statemanager

import (
	"log/slog"

	"github.com/atlanticdynamic/pcstate/internal/metrics"
	"github.com/gofrs/uuid/v5"
)

// Option is a functional option for configuring a StateManager
type Option func(*StateManager)

// WithLogHandler sets the log handler for the state manager
func WithLogHandler(handler slog.Handler) Option {
	return func(sm *StateManager) {
		if handler != nil {
			sm.logger = slog.New(handler).WithGroup("statemanager")
		}
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r metrics.Recorder) Option {
	return func(sm *StateManager) {
		if r != nil {
			sm.recorder = r
		}
	}
}

// WithObjectID assigns a known object ID instead of generating one
func WithObjectID(id uuid.UUID) Option {
	return func(sm *StateManager) {
		if !id.IsNil() {
			sm.id = id
		}
	}
}
