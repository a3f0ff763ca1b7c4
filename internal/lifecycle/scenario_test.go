package lifecycle

import (
	"testing"

	"github.com/atlanticdynamic/pcstate/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoPersistentCommitFlush(t *testing.T) {
	t.Parallel()

	t.Run("complete then repeated flush", func(t *testing.T) {
		m := newFakeManager(datastoreTx)
		m.insideCommit = true
		st := &fakeStore{status: store.Complete}
		args := Args{Store: st}

		next, err := AutoPersistentNewFlushedDirty.Apply(t.Context(), EventFlush, m, args)
		require.NoError(t, err)
		assert.Equal(t, AutoPersistentPending, next)
		assert.Equal(t, []string{"markAsFlushed"}, m.calls)
		assert.Equal(t, []string{"delete"}, st.calls)

		again, err := next.Apply(t.Context(), EventFlush, m, args)
		require.NoError(t, err)
		assert.Equal(t, AutoPersistentPending, again)
		assert.Equal(t, []string{"markAsFlushed"}, m.calls, "pending flush must not mark again")
		assert.Equal(t, []string{"delete"}, st.calls)
	})

	t.Run("not complete is retried", func(t *testing.T) {
		m := newFakeManager(datastoreTx)
		m.insideCommit = true
		st := &fakeStore{status: store.NotComplete}
		args := Args{Store: st}

		next, err := AutoPersistentNewFlushedDirty.Apply(t.Context(), EventFlush, m, args)
		require.NoError(t, err)
		assert.Equal(t, AutoPersistentNewFlushedDirty, next)
		assert.Empty(t, m.calls)

		st.status = store.Complete
		next, err = next.Apply(t.Context(), EventFlush, m, args)
		require.NoError(t, err)
		assert.Equal(t, AutoPersistentPending, next)
		assert.Equal(t, []string{"markAsFlushed"}, m.calls)
		assert.Equal(t, []string{"delete", "delete"}, st.calls)
	})

	t.Run("pending commits to transient", func(t *testing.T) {
		m := newFakeManager(datastoreTx)
		next, err := AutoPersistentPending.Apply(t.Context(), EventCommit, m, Args{})
		require.NoError(t, err)
		assert.Equal(t, Transient, next)
		assert.False(t, next.IsPersistent())
	})
}

func TestWriteFieldOnDeletedIsIllegal(t *testing.T) {
	t.Parallel()

	for _, s := range []State{
		PersistentDeleted,
		PersistentDeletedFlushed,
		PersistentNewDeleted,
		PersistentNewFlushedDeleted,
		AutoPersistentNewDeleted,
		AutoPersistentNewFlushedDeleted,
	} {
		t.Run(s.String(), func(t *testing.T) {
			m := newFakeManager(datastoreTx)
			next, err := s.Apply(t.Context(), EventWriteField, m, Args{})
			require.ErrorIs(t, err, ErrIllegalTransition)

			var te *TransitionError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, s, te.State)
			assert.Equal(t, EventWriteField, te.Event)
			assert.Equal(t, s, next)
			assert.Empty(t, m.calls)
		})
	}
}

// A new object made persistent, flushed during the transaction, modified,
// then committed without retaining values.
func TestNewObjectThroughCommit(t *testing.T) {
	t.Parallel()

	m := newFakeManager(datastoreTx)
	st := &fakeStore{status: store.Complete}
	args := Args{Store: st}

	steps := []struct {
		event Event
		want  State
	}{
		{EventMakePersistent, PersistentNew},
		{EventWriteField, PersistentNew},
		{EventFlush, PersistentNewFlushed},
		{EventWriteField, PersistentNewFlushedDirty},
		{EventFlush, PersistentNewFlushed},
		{EventCommit, Hollow},
		{EventMakeTransactional, PersistentClean},
		{EventWriteField, PersistentDirty},
		{EventRollback, Hollow},
	}

	s := Transient
	for _, step := range steps {
		next, err := s.Apply(t.Context(), step.event, m, args)
		require.NoError(t, err, "%s on %s", step.event, s)
		require.Equal(t, step.want, next, "%s on %s", step.event, s)
		s = next
	}
	assert.Equal(t, []string{"insert", "update"}, st.calls)
}
