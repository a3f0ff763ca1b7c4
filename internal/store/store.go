// Package store defines the collaborator that lifecycle transitions call when
// an object's pending changes are flushed, and the codec shared by its
// implementations.
package store

import (
	"context"
	"fmt"

	"github.com/atlanticdynamic/pcstate/internal/model"
	"github.com/bits-and-blooms/bitset"
	"github.com/gofrs/uuid/v5"
)

// FlushStatus is the outcome of a store call. NotComplete is a normal
// continuation signal: the caller retries later in the same commit cycle.
type FlushStatus uint8

const (
	NotComplete FlushStatus = iota
	Complete
)

// IsComplete reports whether the store finished the operation.
func (s FlushStatus) IsComplete() bool {
	return s == Complete
}

// String implements fmt.Stringer
func (s FlushStatus) String() string {
	switch s {
	case NotComplete:
		return "not_complete"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("FlushStatus(%d)", uint8(s))
	}
}

// Handle is the store's view of one managed object.
type Handle interface {
	ObjectID() uuid.UUID
	Class() *model.Class
	ProvideField(i int) any
	ReplaceField(i int, v any)
}

// Manager writes managed objects to a backing store. loaded and dirty are
// field index sets; implementations must not modify them.
type Manager interface {
	Insert(ctx context.Context, loaded, dirty *bitset.BitSet, h Handle) (FlushStatus, error)
	Update(ctx context.Context, loaded, dirty *bitset.BitSet, h Handle) (FlushStatus, error)
	Delete(ctx context.Context, loaded, dirty *bitset.BitSet, h Handle) (FlushStatus, error)

	// Fetch loads the listed fields of h from the store and replaces them
	// on the handle.
	Fetch(ctx context.Context, fields *bitset.BitSet, h Handle) error
}

// Transactional is implemented by stores that stage writes until the
// session commits.
type Transactional interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Closer is implemented by stores holding connections.
type Closer interface {
	Close() error
}

// Fields yields the indices set in b in ascending order.
func Fields(b *bitset.BitSet) []int {
	if b == nil {
		return nil
	}
	out := make([]int, 0, b.Count())
	for i, ok := b.NextSet(0); ok; i, ok = b.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}
