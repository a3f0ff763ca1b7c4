package lifecycle

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorTable(t *testing.T) {
	t.Parallel()

	type flags struct {
		p, tx, dirty, isNew, del, flushed, nav, refresh, biu, auto bool
	}
	want := map[State]flags{
		Transient:                       {flushed: true, nav: true},
		PersistentNew:                   {p: true, tx: true, dirty: true, isNew: true, nav: true},
		PersistentNewDeleted:            {p: true, tx: true, dirty: true, isNew: true, del: true, flushed: true},
		PersistentNewFlushed:            {p: true, tx: true, isNew: true, flushed: true, nav: true},
		PersistentNewFlushedDirty:       {p: true, tx: true, dirty: true, isNew: true, nav: true, biu: true},
		PersistentNewFlushedDeleted:     {p: true, tx: true, dirty: true, isNew: true, del: true, biu: true},
		PersistentClean:                 {p: true, tx: true, flushed: true, nav: true, refresh: true},
		PersistentDirty:                 {p: true, tx: true, dirty: true, nav: true, refresh: true, biu: true},
		PersistentDirtyFlushed:          {p: true, tx: true, dirty: true, flushed: true, nav: true, refresh: true, biu: true},
		PersistentDeleted:               {p: true, tx: true, dirty: true, del: true, biu: true},
		PersistentDeletedFlushed:        {p: true, tx: true, dirty: true, del: true, flushed: true, biu: true},
		PersistentNonTransactional:      {p: true, flushed: true, nav: true, refresh: true},
		PersistentNonTransactionalDirty: {p: true, dirty: true, nav: true, refresh: true, biu: true},
		Hollow:                          {p: true, flushed: true, nav: true},
		AutoPersistentNew:               {p: true, tx: true, dirty: true, isNew: true, nav: true, auto: true},
		AutoPersistentNewDeleted:        {p: true, tx: true, dirty: true, isNew: true, del: true, flushed: true, auto: true},
		AutoPersistentNewFlushed:        {p: true, tx: true, isNew: true, flushed: true, nav: true, auto: true},
		AutoPersistentNewFlushedDirty:   {p: true, tx: true, dirty: true, isNew: true, nav: true, biu: true, auto: true},
		AutoPersistentNewFlushedDeleted: {p: true, tx: true, dirty: true, isNew: true, del: true, biu: true, auto: true},
		AutoPersistentPending:           {p: true, tx: true, isNew: true, flushed: true, nav: true, auto: true},
	}
	require.Len(t, want, len(AllStates()))

	for _, s := range AllStates() {
		t.Run(s.String(), func(t *testing.T) {
			w, ok := want[s]
			require.True(t, ok)
			d := s.Descriptor()
			assert.Equal(t, s, d.Tag)
			assert.Equal(t, w.p, s.IsPersistent(), "persistent")
			assert.Equal(t, w.tx, s.IsTransactional(), "transactional")
			assert.Equal(t, w.dirty, s.IsDirty(), "dirty")
			assert.Equal(t, w.isNew, s.IsNew(), "new")
			assert.Equal(t, w.del, s.IsDeleted(), "deleted")
			assert.Equal(t, w.flushed, s.IsFlushed(), "flushed")
			assert.Equal(t, w.nav, s.IsNavigable(), "navigable")
			assert.Equal(t, w.refresh, s.IsRefreshable(), "refreshable")
			assert.Equal(t, w.biu, s.IsBeforeImageUpdatable(), "before-image updatable")
			assert.Equal(t, w.auto, s.IsAutoPersistent(), "auto")
		})
	}
}

func TestDescriptorInvariants(t *testing.T) {
	t.Parallel()
	for _, d := range Descriptors() {
		if d.Dirty {
			assert.True(t, d.Persistent, "%s: dirty implies persistent", d.Tag)
		}
		if d.Deleted {
			assert.True(t, d.Persistent, "%s: deleted implies persistent", d.Tag)
			assert.False(t, d.Navigable, "%s: deleted objects are not navigable", d.Tag)
		}
		if d.AutoPersistent {
			assert.True(t, d.New, "%s: auto-persistent objects are new", d.Tag)
		}
	}
}

func TestDescriptorsIsACopy(t *testing.T) {
	t.Parallel()
	ds := Descriptors()
	ds[PersistentClean].Dirty = true
	assert.False(t, PersistentClean.IsDirty())
}

func TestParseState(t *testing.T) {
	t.Parallel()
	for _, s := range AllStates() {
		got, err := ParseState(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseState("Limbo")
	require.ErrorIs(t, err, ErrUnknownState)
	assert.False(t, State(200).Valid())
	assert.Equal(t, "State(200)", State(200).String())
}

func TestHoldsBeforeImage(t *testing.T) {
	t.Parallel()
	holding := []State{
		PersistentNewFlushedDirty,
		PersistentNewFlushedDeleted,
		PersistentDirty,
		PersistentDirtyFlushed,
		PersistentDeleted,
		PersistentDeletedFlushed,
		PersistentNonTransactionalDirty,
		AutoPersistentNewFlushedDirty,
		AutoPersistentNewFlushedDeleted,
	}
	for _, s := range AllStates() {
		assert.Equal(t, slices.Contains(holding, s), s.HoldsBeforeImage(), s.String())
	}
}

func TestNeedsFlush(t *testing.T) {
	t.Parallel()
	tests := []struct {
		state         State
		query, commit bool
	}{
		{Transient, false, false},
		{PersistentNew, true, true},
		{PersistentNewFlushed, false, false},
		{PersistentClean, false, false},
		{PersistentDirty, true, true},
		{PersistentDirtyFlushed, false, false},
		{PersistentDeleted, true, true},
		{PersistentNonTransactionalDirty, true, true},
		{Hollow, false, false},
		{AutoPersistentNew, true, true},
		{AutoPersistentNewFlushed, false, true},
		{AutoPersistentNewFlushedDirty, true, true},
		{AutoPersistentPending, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			assert.Equal(t, tt.query, tt.state.NeedsFlush(false), "query flush")
			assert.Equal(t, tt.commit, tt.state.NeedsFlush(true), "commit flush")
		})
	}
}
