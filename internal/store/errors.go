package store

import "errors"

var (
	// ErrObjectNotFound indicates the store has no record for an object ID
	ErrObjectNotFound = errors.New("object not found in store")

	// ErrDuplicateObject indicates an insert for an ID that already exists
	ErrDuplicateObject = errors.New("object already exists in store")

	// ErrClosed indicates the store was used after Close
	ErrClosed = errors.New("store is closed")

	// ErrNoTransaction indicates Commit or Rollback without Begin
	ErrNoTransaction = errors.New("no store transaction in progress")

	// ErrFieldCodec indicates a field value could not be encoded or decoded
	ErrFieldCodec = errors.New("field codec failure")
)
