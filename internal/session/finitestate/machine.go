// Package finitestate tracks the status of a session transaction with a
// finite state machine.
package finitestate

import (
	"log/slog"

	"github.com/robbyt/go-fsm"
)

// Transaction status constants
const (
	StatusIdle        = "idle"
	StatusActive      = "active"
	StatusCommitting  = "committing"
	StatusCommitted   = "committed"
	StatusRollingBack = "rolling_back"
	StatusRolledBack  = "rolled_back"
	StatusError       = "error"
)

// TransactionTransitions lists the allowed status changes. A finished
// transaction may begin again; error is reachable from everywhere.
var TransactionTransitions = map[string][]string{
	StatusIdle:        {StatusActive, StatusError},
	StatusActive:      {StatusCommitting, StatusRollingBack, StatusError},
	StatusCommitting:  {StatusCommitted, StatusRollingBack, StatusError},
	StatusCommitted:   {StatusActive, StatusError},
	StatusRollingBack: {StatusRolledBack, StatusError},
	StatusRolledBack:  {StatusActive, StatusError},
	StatusError:       {StatusActive},
}

// OpenStatuses are the statuses in which the transaction is active.
var OpenStatuses = []string{StatusActive, StatusCommitting, StatusRollingBack}

// Machine defines the interface for the finite state machine that tracks a
// transaction's status.
type Machine interface {
	// Transition attempts to transition the state machine to the specified state.
	Transition(state string) error

	// TransitionBool attempts to transition the state machine to the specified state.
	TransitionBool(state string) bool

	// TransitionIfCurrentState attempts to transition the state machine to the specified state
	TransitionIfCurrentState(currentState, newState string) error

	// GetState returns the current state of the state machine.
	GetState() string
}

var _ Machine = (*fsm.Machine)(nil)

// New creates a transaction status machine in the idle status.
func New(handler slog.Handler) (Machine, error) {
	machine, err := fsm.New(handler, StatusIdle, TransactionTransitions)
	if err != nil {
		return nil, err
	}
	return machine, nil
}
