package session

import (
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
)

var (
	// ErrNotActive indicates an operation that needs an active transaction
	ErrNotActive = errors.New("transaction is not active")

	// ErrAlreadyActive indicates Begin on an active transaction, or a setting
	// that cannot change while the transaction is active
	ErrAlreadyActive = errors.New("transaction is already active")

	// ErrNotManaged indicates an instance the session does not manage
	ErrNotManaged = errors.New("instance is not managed by this session")

	// ErrFlushStalled indicates flush passes that stopped making progress
	ErrFlushStalled = errors.New("flush made no progress")

	// ErrClosed indicates use of a closed session
	ErrClosed = errors.New("session is closed")
)

// Transaction phases reported by TransactionError.
const (
	PhaseBegin    = "begin"
	PhaseFlush    = "flush"
	PhaseCommit   = "commit"
	PhaseRollback = "rollback"
)

// TransactionError wraps an error related to transaction processing
type TransactionError struct {
	Phase    string
	ID       uuid.UUID
	Message  string
	Original error
}

// Error implements the error interface
func (te *TransactionError) Error() string {
	if te.Original != nil {
		return fmt.Sprintf(
			"transaction %s failed during %s: %s: %v",
			te.ID,
			te.Phase,
			te.Message,
			te.Original,
		)
	}
	return fmt.Sprintf("transaction %s failed during %s: %s", te.ID, te.Phase, te.Message)
}

// Unwrap returns the underlying error
func (te *TransactionError) Unwrap() error {
	return te.Original
}

// NewTransactionError creates a new transaction error
func NewTransactionError(id uuid.UUID, phase, message string, err error) *TransactionError {
	return &TransactionError{
		ID:       id,
		Phase:    phase,
		Message:  message,
		Original: err,
	}
}
