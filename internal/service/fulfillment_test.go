package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/washline/api/internal/database"
)

func TestInTx_NotifiesOnlyAfterCommit(t *testing.T) {
	f := newFixture(t)
	f.store.commitErr = errBoom

	_, err := f.svc.RequestPickup(f.ctx, f.customer, PickupRequest{AddressID: f.address.ID, OutletID: f.outlet.ID})
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, f.rec.Sent())
}

func TestAdvanceOrder_RejectsRegression(t *testing.T) {
	f := newFixture(t)
	o := f.processedOrder()

	_, err := f.svc.advanceOrder(f.ctx, f.store, f.order(o.ID), database.OrderStatusARRIVEDATOUTLET)
	assert.ErrorIs(t, err, ErrStatusRegression)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = f.svc.advanceOrder(f.ctx, f.store, f.order(o.ID), database.OrderStatusONPROGRESSWASHING)
	assert.ErrorIs(t, err, ErrStatusRegression)
	assert.Equal(t, database.OrderStatusONPROGRESSWASHING, f.order(o.ID).CurrentStatus)
}

func TestAdvanceOrder_DetectsConcurrentUpdate(t *testing.T) {
	f := newFixture(t)
	stale := f.pickup()
	f.arrive(stale.ID)

	// stale still says WAITING_FOR_PICKUP_DRIVER, so the compare-and-swap misses.
	_, err := f.svc.advanceOrder(f.ctx, f.store, stale, database.OrderStatusONPROGRESSPICKUP)
	assert.ErrorIs(t, err, ErrConcurrentUpdate)
	assert.Equal(t, database.OrderStatusARRIVEDATOUTLET, f.order(stale.ID).CurrentStatus)
}

func TestAdvanceOrder_AppendsProgress(t *testing.T) {
	f := newFixture(t)
	o := f.pickup()

	updated, err := f.svc.advanceOrder(f.ctx, f.store, o, database.OrderStatusONPROGRESSPICKUP)
	require.NoError(t, err)
	assert.Equal(t, int32(2), updated.ProgressSeq)

	progress, err := f.store.ListOrderProgress(f.ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, progress, 2)
	assert.Equal(t, database.OrderStatusONPROGRESSPICKUP, progress[1].Status)
	assert.Equal(t, int32(2), progress[1].Seq)
}
