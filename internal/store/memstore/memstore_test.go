package memstore

import (
	"testing"

	"github.com/atlanticdynamic/pcstate/internal/store"
	"github.com/atlanticdynamic/pcstate/internal/testutil"
	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allFields() *bitset.BitSet {
	return bitset.New(3).Set(0).Set(1).Set(2)
}

func TestStore_InsertFetch(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	s := New()

	h := testutil.NewHandle(testutil.NewEmployee("ada", 100, "go", "sql"))
	status, err := s.Insert(ctx, allFields(), allFields(), h)
	require.NoError(t, err)
	assert.Equal(t, store.Complete, status)
	assert.True(t, s.Has(h.ID))

	loaded := &testutil.Employee{}
	target := &testutil.Handle{ID: h.ID, Instance: loaded}
	require.NoError(t, s.Fetch(ctx, allFields(), target))
	assert.Equal(t, "ada", loaded.Name)
	assert.Equal(t, 100, loaded.Salary)
	require.NotNil(t, loaded.Skills)
	assert.Equal(t, []string{"go", "sql"}, loaded.Skills.Items())

	_, err = s.Insert(ctx, allFields(), allFields(), h)
	require.ErrorIs(t, err, store.ErrDuplicateObject)
}

func TestStore_UpdateWritesDirtyFieldsOnly(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	s := New()

	emp := testutil.NewEmployee("ada", 100)
	h := testutil.NewHandle(emp)
	_, err := s.Insert(ctx, allFields(), allFields(), h)
	require.NoError(t, err)

	emp.Name = "grace"
	emp.Salary = 200
	status, err := s.Update(ctx, allFields(), bitset.New(3).Set(testutil.EmployeeSalary), h)
	require.NoError(t, err)
	assert.Equal(t, store.Complete, status)

	loaded := &testutil.Employee{}
	require.NoError(t, s.Fetch(ctx, allFields(), &testutil.Handle{ID: h.ID, Instance: loaded}))
	assert.Equal(t, "ada", loaded.Name)
	assert.Equal(t, 200, loaded.Salary)
}

func TestStore_MissingObject(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	s := New()
	h := testutil.NewHandle(testutil.NewEmployee("ada", 1))

	_, err := s.Update(ctx, allFields(), allFields(), h)
	require.ErrorIs(t, err, store.ErrObjectNotFound)

	_, err = s.Delete(ctx, allFields(), allFields(), h)
	require.ErrorIs(t, err, store.ErrObjectNotFound)

	err = s.Fetch(ctx, allFields(), h)
	require.ErrorIs(t, err, store.ErrObjectNotFound)
}

func TestStore_Transactions(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("commit publishes staged writes", func(t *testing.T) {
		s := New()
		h := testutil.NewHandle(testutil.NewEmployee("ada", 1))
		require.NoError(t, s.Begin(ctx))
		_, err := s.Insert(ctx, allFields(), allFields(), h)
		require.NoError(t, err)
		assert.True(t, s.Has(h.ID))
		assert.Equal(t, 0, s.CommittedLen())

		require.NoError(t, s.Commit(ctx))
		assert.Equal(t, 1, s.CommittedLen())
	})

	t.Run("rollback discards staged writes", func(t *testing.T) {
		s := New()
		h := testutil.NewHandle(testutil.NewEmployee("ada", 1))
		_, err := s.Insert(ctx, allFields(), allFields(), h)
		require.NoError(t, err)

		require.NoError(t, s.Begin(ctx))
		_, err = s.Delete(ctx, allFields(), allFields(), h)
		require.NoError(t, err)
		assert.False(t, s.Has(h.ID))

		require.NoError(t, s.Rollback(ctx))
		assert.True(t, s.Has(h.ID))
	})

	t.Run("commit without begin", func(t *testing.T) {
		s := New()
		require.ErrorIs(t, s.Commit(ctx), store.ErrNoTransaction)
		require.ErrorIs(t, s.Rollback(ctx), store.ErrNoTransaction)
	})
}

func TestStore_IncompleteBudget(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	s := New()
	h := testutil.NewHandle(testutil.NewEmployee("ada", 1))
	s.SetIncomplete(h.ID, 2)

	for range 2 {
		status, err := s.Insert(ctx, allFields(), allFields(), h)
		require.NoError(t, err)
		assert.Equal(t, store.NotComplete, status)
		assert.False(t, s.Has(h.ID))
	}

	status, err := s.Insert(ctx, allFields(), allFields(), h)
	require.NoError(t, err)
	assert.Equal(t, store.Complete, status)

	calls := s.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, store.NotComplete, calls[0].Status)
	assert.Equal(t, store.Complete, calls[2].Status)
	assert.Equal(t, OpInsert, calls[2].Op)
}

func TestStore_Closed(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	s := New()
	require.NoError(t, s.Close())

	h := testutil.NewHandle(testutil.NewEmployee("ada", 1))
	_, err := s.Insert(ctx, allFields(), allFields(), h)
	require.ErrorIs(t, err, store.ErrClosed)
	require.ErrorIs(t, s.Begin(ctx), store.ErrClosed)
}
