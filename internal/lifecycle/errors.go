package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrIllegalTransition indicates an event that the current state does not accept
	ErrIllegalTransition = errors.New("illegal lifecycle transition")

	// ErrTransactionMismatch indicates the transaction's active flag contradicts the transition
	ErrTransactionMismatch = errors.New("transaction state mismatch")

	// ErrUnknownState indicates a state tag outside the descriptor table
	ErrUnknownState = errors.New("unknown lifecycle state")

	// ErrUnknownEvent indicates an event tag outside the transition table
	ErrUnknownEvent = errors.New("unknown lifecycle event")

	// ErrNoStore indicates a flush was requested without a store collaborator
	ErrNoStore = errors.New("no store for flush")
)

// TransitionError reports a failed event dispatch. The object's state is
// unchanged whenever a TransitionError is returned.
type TransitionError struct {
	State State
	Event Event
	Err   error
}

// Error implements the error interface
func (te *TransitionError) Error() string {
	return fmt.Sprintf("%s on %s: %v", te.Event, te.State, te.Err)
}

// Unwrap returns the underlying error
func (te *TransitionError) Unwrap() error {
	return te.Err
}

// assertTransaction verifies the transaction's active flag matches expected.
func assertTransaction(tx Transaction, expected bool) error {
	active := tx != nil && tx.IsActive()
	if active == expected {
		return nil
	}
	if expected {
		return fmt.Errorf("%w: transaction is not active", ErrTransactionMismatch)
	}
	return fmt.Errorf("%w: transaction is active", ErrTransactionMismatch)
}
