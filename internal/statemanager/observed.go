package statemanager

import (
	"context"

	"github.com/atlanticdynamic/pcstate/internal/metrics"
	"github.com/atlanticdynamic/pcstate/internal/store"
	"github.com/bits-and-blooms/bitset"
)

// observedStore counts store calls made on behalf of one object.
type observedStore struct {
	inner    store.Manager
	recorder metrics.Recorder
}

func (o *observedStore) record(op string, status store.FlushStatus, err error) {
	switch {
	case err != nil:
		o.recorder.IncFlush(op, metrics.FlushError)
	case status.IsComplete():
		o.recorder.IncFlush(op, metrics.FlushComplete)
	default:
		o.recorder.IncFlush(op, metrics.FlushNotComplete)
	}
}

func (o *observedStore) Insert(
	ctx context.Context,
	loaded, dirty *bitset.BitSet,
	h store.Handle,
) (store.FlushStatus, error) {
	status, err := o.inner.Insert(ctx, loaded, dirty, h)
	o.record("insert", status, err)
	return status, err
}

func (o *observedStore) Update(
	ctx context.Context,
	loaded, dirty *bitset.BitSet,
	h store.Handle,
) (store.FlushStatus, error) {
	status, err := o.inner.Update(ctx, loaded, dirty, h)
	o.record("update", status, err)
	return status, err
}

func (o *observedStore) Delete(
	ctx context.Context,
	loaded, dirty *bitset.BitSet,
	h store.Handle,
) (store.FlushStatus, error) {
	status, err := o.inner.Delete(ctx, loaded, dirty, h)
	o.record("delete", status, err)
	return status, err
}

func (o *observedStore) Fetch(ctx context.Context, fields *bitset.BitSet, h store.Handle) error {
	err := o.inner.Fetch(ctx, fields, h)
	status := store.Complete
	if err != nil {
		status = store.NotComplete
	}
	o.record("fetch", status, err)
	return err
}
