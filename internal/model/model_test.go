package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct{}

var noteClass = NewClass("Note",
	func() Instance { return &note{} },
	FieldOf[string]("title"),
	FieldOf[*TrackedSlice[string]]("tags"),
	Field{Name: "untyped"},
)

func (n *note) Class() *Class          { return noteClass }
func (n *note) ProvideField(int) any    { return nil }
func (n *note) ReplaceField(int, any)  {}

type dirtyRecorder struct {
	fields []int
	err    error
}

func (d *dirtyRecorder) MakeDirty(_ context.Context, field int) error {
	d.fields = append(d.fields, field)
	return d.err
}

func TestClass(t *testing.T) {
	assert.Equal(t, "Note", noteClass.String())
	assert.Equal(t, 3, noteClass.NumFields())

	i, ok := noteClass.FieldIndex("tags")
	require.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = noteClass.FieldIndex("body")
	assert.False(t, ok)
	assert.Panics(t, func() { noteClass.MustFieldIndex("body") })

	assert.Equal(t, "", noteClass.Zero(0))
	assert.Nil(t, noteClass.Zero(1))
	assert.Nil(t, noteClass.Zero(2))

	inst := noteClass.New()
	assert.IsType(t, &note{}, inst)
}

func TestTrackedSlice(t *testing.T) {
	ctx := t.Context()

	t.Run("unbound mutations are silent", func(t *testing.T) {
		s := NewTrackedSlice("a")
		require.NoError(t, s.Append(ctx, "b"))
		assert.False(t, s.Bound())
		assert.Equal(t, []string{"a", "b"}, s.Items())
	})

	t.Run("bound mutations notify the owner first", func(t *testing.T) {
		owner := &dirtyRecorder{}
		s := NewTrackedSlice("a", "b", "c")
		s.Bind(owner, 4)
		assert.True(t, s.Bound())

		require.NoError(t, s.Set(ctx, 0, "z"))
		require.NoError(t, s.Remove(ctx, 1))
		require.NoError(t, s.Append(ctx, "d"))

		assert.Equal(t, []int{4, 4, 4}, owner.fields)
		assert.Equal(t, []string{"z", "c", "d"}, s.Items())
		assert.Equal(t, 3, s.Len())
		assert.Equal(t, "c", s.At(1))
	})

	t.Run("rejected notification leaves contents", func(t *testing.T) {
		boom := errors.New("not writable")
		s := NewTrackedSlice("a")
		s.Bind(&dirtyRecorder{err: boom}, 0)

		require.ErrorIs(t, s.Append(ctx, "b"), boom)
		assert.Equal(t, []string{"a"}, s.Items())
	})

	t.Run("detach and unset", func(t *testing.T) {
		owner := &dirtyRecorder{}
		s := NewTrackedSlice("a")
		s.Bind(owner, 0)

		copied, ok := s.Detach().(*TrackedSlice[string])
		require.True(t, ok)
		assert.False(t, copied.Bound())
		require.NoError(t, copied.Append(ctx, "b"))
		assert.Equal(t, []string{"a"}, s.Items())
		assert.Empty(t, owner.fields)

		s.Unset()
		assert.False(t, s.Bound())
		require.NoError(t, s.Append(ctx, "c"))
		assert.Empty(t, owner.fields)
	})

	t.Run("json", func(t *testing.T) {
		data, err := NewTrackedSlice[string]().MarshalJSON()
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(data))

		var s TrackedSlice[int]
		require.NoError(t, s.UnmarshalJSON([]byte(`[1,2]`)))
		assert.Equal(t, []int{1, 2}, s.Items())
		assert.False(t, s.Bound())
	})
}
