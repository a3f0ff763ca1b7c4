package statemanager

import (
	"context"
	"fmt"

	"github.com/atlanticdynamic/pcstate/internal/lifecycle"
	"github.com/atlanticdynamic/pcstate/internal/model"
	"github.com/bits-and-blooms/bitset"
	"github.com/gofrs/uuid/v5"
)

// driver is the bookkeeping view of a StateManager handed to lifecycle
// handlers. Its methods run with the manager's lock already held.
type driver StateManager

var _ lifecycle.Manager = (*driver)(nil)

func (d *driver) ObjectID() uuid.UUID          { return d.id }
func (d *driver) Class() *model.Class          { return d.inst.Class() }
func (d *driver) ProvideField(i int) any       { return d.inst.ProvideField(i) }
func (d *driver) ReplaceField(i int, v any)    { d.inst.ReplaceField(i, v) }
func (d *driver) LoadedFields() *bitset.BitSet { return d.loaded }
func (d *driver) DirtyFields() *bitset.BitSet  { return d.dirty }

func (d *driver) sm() *StateManager { return (*StateManager)(d) }

func (d *driver) Transaction() lifecycle.Transaction {
	if d.owner == nil {
		return nil
	}
	return d.owner.Transaction()
}

func (d *driver) InsideCommit() bool {
	return d.owner != nil && d.owner.InsideCommit()
}

func (d *driver) RegisterTransactional() {
	if d.owner != nil {
		d.owner.RegisterTransactional(d.sm())
	}
	d.registration = RegisteredTransactional
}

func (d *driver) RegisterNonTransactional() {
	if d.owner != nil {
		d.owner.RegisterNonTransactional(d.sm())
	}
	d.registration = RegisteredNonTransactional
}

func (d *driver) PreDelete() {
	if pd, ok := d.inst.(model.PreDeleter); ok {
		pd.PreDelete()
	}
}

// CreateBeforeImage snapshots the loaded fields once per transaction.
func (d *driver) CreateBeforeImage() {
	if d.beforeImage != nil {
		return
	}
	n := d.sm().numFields()
	d.beforeImage = make([]any, n)
	d.beforeLoaded = d.loaded.Clone()
	for i := range n {
		if d.loaded.Test(uint(i)) {
			d.beforeImage[i] = detached(d.inst.ProvideField(i))
		}
	}
}

// RestoreFields puts the before-image values back.
func (d *driver) RestoreFields() {
	if d.beforeImage == nil {
		return
	}
	for i, v := range d.beforeImage {
		if !d.beforeLoaded.Test(uint(i)) {
			continue
		}
		d.replaceBound(i, detached(v))
	}
	d.loaded = d.beforeLoaded.Clone()
}

func (d *driver) UnsetTrackedContainerFields() {
	for i := range d.sm().numFields() {
		if tc, ok := d.inst.ProvideField(i).(model.TrackedContainer); ok {
			tc.Unset()
		}
	}
}

// ClearFields resets every field to its zero value and marks all unloaded.
func (d *driver) ClearFields() {
	cls := d.inst.Class()
	for i := range cls.NumFields() {
		if tc, ok := d.inst.ProvideField(i).(model.TrackedContainer); ok {
			tc.Unset()
		}
		d.inst.ReplaceField(i, cls.Zero(i))
	}
	d.loaded.ClearAll()
}

// LoadUnloaded fetches the fields not yet loaded. Fields fetched while a
// before-image exists are added to it, so a later restore sees them too.
func (d *driver) LoadUnloaded(ctx context.Context) error {
	n := d.sm().numFields()
	unloaded := fullSet(n).Difference(d.loaded)
	if unloaded.None() {
		return nil
	}
	st := d.sm().store()
	if st == nil {
		return fmt.Errorf("%w: %s", lifecycle.ErrNoStore, d.sm())
	}
	if err := st.Fetch(ctx, unloaded, d); err != nil {
		return fmt.Errorf("load %s: %w", d.sm(), err)
	}
	d.loaded.InPlaceUnion(unloaded)

	updateImage := d.beforeImage != nil && d.state.IsBeforeImageUpdatable()
	for i, ok := unloaded.NextSet(0); ok; i, ok = unloaded.NextSet(i + 1) {
		v := d.inst.ProvideField(int(i))
		if b, isBinder := v.(model.Binder); isBinder {
			b.Bind(d.sm(), int(i))
		}
		if updateImage {
			d.beforeImage[i] = detached(v)
			d.beforeLoaded.Set(i)
		}
	}
	return nil
}

// ReloadFields fetches every field into a scratch image and swaps it in only
// when the fetch succeeds, so a failed reload leaves the object untouched.
func (d *driver) ReloadFields(ctx context.Context) error {
	st := d.sm().store()
	if st == nil {
		return fmt.Errorf("%w: %s", lifecycle.ErrNoStore, d.sm())
	}
	n := d.sm().numFields()
	img := newScratchImage(d.id, d.inst.Class())
	if err := st.Fetch(ctx, fullSet(n), img); err != nil {
		return fmt.Errorf("reload %s: %w", d.sm(), err)
	}

	updateImage := d.beforeImage != nil && d.state.IsBeforeImageUpdatable()
	for i := range n {
		if tc, ok := d.inst.ProvideField(i).(model.TrackedContainer); ok {
			tc.Unset()
		}
		d.replaceBound(i, img.values[i])
		if updateImage && !d.beforeLoaded.Test(uint(i)) {
			d.beforeImage[i] = detached(img.values[i])
			d.beforeLoaded.Set(uint(i))
		}
	}
	d.loaded = fullSet(n)
	return nil
}

func (d *driver) MarkAsFlushed() {
	d.dirty.ClearAll()
}

// ReplaceTrackedContainerFields swaps every tracked container for a fresh
// copy bound to this manager, cutting off references taken during the
// transaction.
func (d *driver) ReplaceTrackedContainerFields() {
	for i := range d.sm().numFields() {
		tc, ok := d.inst.ProvideField(i).(model.TrackedContainer)
		if !ok {
			continue
		}
		tc.Unset()
		d.replaceBound(i, tc.Detach())
	}
}

// Disconnect ends management: the owner forgets the object and every field
// counts as loaded again.
func (d *driver) Disconnect() {
	if d.owner != nil {
		d.owner.Deregister(d.sm())
	}
	d.owner = nil
	d.registration = Unregistered
	d.beforeImage = nil
	d.beforeLoaded = nil
	n := d.sm().numFields()
	d.dirty = bitset.New(uint(n))
	d.loaded = fullSet(n)
}

func (d *driver) Reset() {
	d.dirty.ClearAll()
	d.beforeImage = nil
	d.beforeLoaded = nil
	d.registration = Unregistered
}

func (d *driver) replaceBound(i int, v any) {
	d.inst.ReplaceField(i, v)
	if b, ok := v.(model.Binder); ok {
		b.Bind(d.sm(), i)
	}
}

func detached(v any) any {
	if tc, ok := v.(model.TrackedContainer); ok {
		return tc.Detach()
	}
	return v
}

// scratchImage receives fetched values before they replace the live ones.
type scratchImage struct {
	id     uuid.UUID
	cls    *model.Class
	values []any
}

func newScratchImage(id uuid.UUID, cls *model.Class) *scratchImage {
	img := &scratchImage{id: id, cls: cls, values: make([]any, cls.NumFields())}
	for i := range img.values {
		img.values[i] = cls.Zero(i)
	}
	return img
}

func (img *scratchImage) ObjectID() uuid.UUID       { return img.id }
func (img *scratchImage) Class() *model.Class       { return img.cls }
func (img *scratchImage) ProvideField(i int) any    { return img.values[i] }
func (img *scratchImage) ReplaceField(i int, v any) { img.values[i] = v }
