package model

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
)

// TrackedContainer is a mutable field value that reports its own mutations
// to the managing state manager.
type TrackedContainer interface {
	// Detach returns a copy that is not connected to any owner.
	Detach() any
	// Unset disconnects the container from its owner in place.
	Unset()
}

// Binder is implemented by tracked containers that can be attached to the
// field of a managed object.
type Binder interface {
	Bind(owner DirtyMarker, field int)
}

// DirtyMarker receives mutation notifications from tracked containers.
type DirtyMarker interface {
	MakeDirty(ctx context.Context, field int) error
}

// TrackedSlice is a list field that turns every mutation into a write of
// the owning field.
type TrackedSlice[T any] struct {
	mu    sync.RWMutex
	owner DirtyMarker
	field int
	items []T
}

// NewTrackedSlice returns an unbound tracked slice holding items.
func NewTrackedSlice[T any](items ...T) *TrackedSlice[T] {
	return &TrackedSlice[T]{items: slices.Clone(items)}
}

// Bind attaches the slice to a field of a managed object.
func (s *TrackedSlice[T]) Bind(owner DirtyMarker, field int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner = owner
	s.field = field
}

// Bound reports whether the slice currently reports to an owner.
func (s *TrackedSlice[T]) Bound() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner != nil
}

// Detach implements TrackedContainer
func (s *TrackedSlice[T]) Detach() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &TrackedSlice[T]{items: slices.Clone(s.items)}
}

// Unset implements TrackedContainer
func (s *TrackedSlice[T]) Unset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner = nil
}

// Len returns the number of items.
func (s *TrackedSlice[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// At returns the item at index i.
func (s *TrackedSlice[T]) At(i int) T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items[i]
}

// Items returns a copy of the items.
func (s *TrackedSlice[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Append adds items to the end of the slice.
func (s *TrackedSlice[T]) Append(ctx context.Context, items ...T) error {
	return s.mutate(ctx, func() { s.items = append(s.items, items...) })
}

// Set replaces the item at index i.
func (s *TrackedSlice[T]) Set(ctx context.Context, i int, v T) error {
	return s.mutate(ctx, func() { s.items[i] = v })
}

// Remove deletes the item at index i.
func (s *TrackedSlice[T]) Remove(ctx context.Context, i int) error {
	return s.mutate(ctx, func() { s.items = slices.Delete(s.items, i, i+1) })
}

// mutate notifies the owner first so that a before-image is taken while the
// old contents are still in place.
func (s *TrackedSlice[T]) mutate(ctx context.Context, fn func()) error {
	s.mu.RLock()
	owner, field := s.owner, s.field
	s.mu.RUnlock()

	if owner != nil {
		if err := owner.MakeDirty(ctx, field); err != nil {
			return err
		}
	}

	s.mu.Lock()
	fn()
	s.mu.Unlock()
	return nil
}

// MarshalJSON encodes the items only.
func (s *TrackedSlice[T]) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.items)
}

// UnmarshalJSON decodes items into an unbound slice.
func (s *TrackedSlice[T]) UnmarshalJSON(data []byte) error {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	return nil
}
