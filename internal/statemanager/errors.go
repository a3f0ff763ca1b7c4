package statemanager

import "errors"

var (
	// ErrFieldIndex indicates a field index outside the instance's class
	ErrFieldIndex = errors.New("field index out of range")

	// ErrNotManaged indicates an operation that needs an owning session on a detached object
	ErrNotManaged = errors.New("object is not managed")
)
