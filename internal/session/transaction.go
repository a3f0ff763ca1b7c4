package session

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/atlanticdynamic/pcstate/internal/lifecycle"
	"github.com/atlanticdynamic/pcstate/internal/session/finitestate"
	"github.com/gofrs/uuid/v5"
	"github.com/robbyt/go-loglater"
)

// Settings are the transaction options a session starts with.
type Settings struct {
	Optimistic            bool
	NontransactionalRead  bool
	NontransactionalWrite bool
	RetainValues          bool
	RestoreValues         bool
}

// DefaultSettings returns datastore transactions that retain values at
// commit and allow nontransactional reads.
func DefaultSettings() Settings {
	return Settings{
		NontransactionalRead: true,
		RetainValues:         true,
	}
}

// Transaction is the transaction context of a session. It is reused for
// every Begin; each run gets a fresh ID and log collector.
type Transaction struct {
	mu       sync.RWMutex
	settings Settings
	fsm      finitestate.Machine

	id           uuid.UUID
	logger       *slog.Logger
	logCollector *loglater.LogCollector
	handler      slog.Handler
}

var _ lifecycle.Transaction = (*Transaction)(nil)

func newTransaction(settings Settings, handler slog.Handler) (*Transaction, error) {
	machine, err := finitestate.New(handler)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction state machine: %w", err)
	}
	return &Transaction{
		settings: settings,
		fsm:      machine,
		handler:  handler,
		logger:   slog.New(handler).WithGroup("transaction"),
	}, nil
}

// ID returns the ID of the current or last run.
func (tx *Transaction) ID() uuid.UUID {
	tx.mu.RLock()
	defer tx.mu.RUnlock()
	return tx.id
}

// Status returns the status machine's current state.
func (tx *Transaction) Status() string {
	return tx.fsm.GetState()
}

// IsActive implements lifecycle.Transaction
func (tx *Transaction) IsActive() bool {
	return slices.Contains(finitestate.OpenStatuses, tx.fsm.GetState())
}

// IsOptimistic implements lifecycle.Transaction
func (tx *Transaction) IsOptimistic() bool {
	tx.mu.RLock()
	defer tx.mu.RUnlock()
	return tx.settings.Optimistic
}

// NontransactionalRead implements lifecycle.Transaction
func (tx *Transaction) NontransactionalRead() bool {
	tx.mu.RLock()
	defer tx.mu.RUnlock()
	return tx.settings.NontransactionalRead
}

// NontransactionalWrite implements lifecycle.Transaction
func (tx *Transaction) NontransactionalWrite() bool {
	tx.mu.RLock()
	defer tx.mu.RUnlock()
	return tx.settings.NontransactionalWrite
}

// RetainValues implements lifecycle.Transaction
func (tx *Transaction) RetainValues() bool {
	tx.mu.RLock()
	defer tx.mu.RUnlock()
	return tx.settings.RetainValues
}

// RestoreValues implements lifecycle.Transaction
func (tx *Transaction) RestoreValues() bool {
	tx.mu.RLock()
	defer tx.mu.RUnlock()
	return tx.settings.RestoreValues
}

// Settings returns a copy of the current settings.
func (tx *Transaction) Settings() Settings {
	tx.mu.RLock()
	defer tx.mu.RUnlock()
	return tx.settings
}

// SetOptimistic switches between optimistic and datastore transactions.
// The mode cannot change while the transaction is active.
func (tx *Transaction) SetOptimistic(v bool) error {
	if tx.IsActive() {
		return fmt.Errorf("%w: cannot change optimistic mode", ErrAlreadyActive)
	}
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.settings.Optimistic = v
	return nil
}

// SetNontransactionalRead allows reads outside an active transaction.
func (tx *Transaction) SetNontransactionalRead(v bool) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.settings.NontransactionalRead = v
}

// SetNontransactionalWrite allows writes outside an active transaction.
func (tx *Transaction) SetNontransactionalWrite(v bool) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.settings.NontransactionalWrite = v
}

// SetRetainValues keeps field values readable after commit.
func (tx *Transaction) SetRetainValues(v bool) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.settings.RetainValues = v
}

// SetRestoreValues restores before-images at rollback.
func (tx *Transaction) SetRestoreValues(v bool) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.settings.RestoreValues = v
}

// begin starts a new run with its own ID and log collector.
func (tx *Transaction) begin() (uuid.UUID, *loglater.LogCollector, error) {
	id := uuid.Must(uuid.NewV6())
	collector := loglater.NewLogCollector(tx.handler)
	if err := tx.fsm.Transition(finitestate.StatusActive); err != nil {
		return uuid.Nil, nil, err
	}

	tx.mu.Lock()
	tx.id = id
	tx.logCollector = collector
	tx.logger = slog.New(collector).WithGroup("transaction").With("id", id.String())
	tx.mu.Unlock()
	return id, collector, nil
}

func (tx *Transaction) log() *slog.Logger {
	tx.mu.RLock()
	defer tx.mu.RUnlock()
	return tx.logger
}

// transitionFrom moves the status machine only when it is currently in from.
func (tx *Transaction) transitionFrom(from, to string) error {
	if err := tx.fsm.TransitionIfCurrentState(from, to); err != nil {
		tx.log().Error("Failed to change transaction status", "from", from, "status", to, "error", err)
		return err
	}
	return nil
}

// transition moves the status machine, forcing the error status if the
// move is not allowed.
func (tx *Transaction) transition(status string) error {
	if err := tx.fsm.Transition(status); err != nil {
		tx.log().Error("Failed to change transaction status", "status", status, "error", err)
		if status != finitestate.StatusError {
			tx.fsm.TransitionBool(finitestate.StatusError)
		}
		return err
	}
	return nil
}
