package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/washline/api/internal/config"
	"github.com/washline/api/internal/database"
	"github.com/washline/api/internal/enum"
	"github.com/washline/api/internal/gateway"
	"github.com/washline/api/internal/notify"
	"github.com/washline/api/internal/policy"
)

const testServerKey = "SB-Mid-server-test"

func testPricing() config.Pricing {
	return config.Pricing{
		MaxRadiusKm:       10,
		PricePerKm:        decimal.NewFromInt(5000),
		LaundryPricePerKg: decimal.NewFromInt(8000),
	}
}

// fakeGateway implements PaymentGateway.
type fakeGateway struct {
	calls int
	last  gateway.TransactionRequest
	tx    gateway.Transaction
	err   error
}

func (g *fakeGateway) CreateTransaction(ctx context.Context, req gateway.TransactionRequest) (gateway.Transaction, error) {
	g.calls++
	g.last = req
	return g.tx, g.err
}

// fixture is one outlet with a full staff, a customer with an address about
// 1 km away, and two laundry items.
type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *memStore
	rec   *notify.Recorder
	gw    *fakeGateway
	svc   *FulfillmentService

	outlet  database.Outlet
	address database.Address
	shirt   uuid.UUID
	pants   uuid.UUID

	customer policy.Actor
	admin    policy.Actor
	washer   policy.Actor
	washer2  policy.Actor
	ironer   policy.Actor
	packer   policy.Actor
	driver   policy.Actor
	driver2  policy.Actor
	super    policy.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		store: store,
		rec:   &notify.Recorder{},
		gw: &fakeGateway{tx: gateway.Transaction{
			Token:       "snap-token",
			RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/snap-token",
		}},
	}

	f.outlet = database.Outlet{ID: uuid.New(), Name: "Washline Kemang", Latitude: -6.2607, Longitude: 106.8137}
	store.outlets[f.outlet.ID] = f.outlet

	f.customer = f.addUser(enum.RoleCustomer, uuid.Nil)
	f.admin = f.addUser(enum.RoleOutletAdmin, f.outlet.ID)
	f.washer = f.addUser(enum.RoleWashingWorker, f.outlet.ID)
	f.washer2 = f.addUser(enum.RoleWashingWorker, f.outlet.ID)
	f.ironer = f.addUser(enum.RoleIroningWorker, f.outlet.ID)
	f.packer = f.addUser(enum.RolePackingWorker, f.outlet.ID)
	f.driver = f.addUser(enum.RoleDriver, f.outlet.ID)
	f.driver2 = f.addUser(enum.RoleDriver, f.outlet.ID)
	f.super = f.addUser(enum.RoleSuperAdmin, uuid.Nil)

	f.address = database.Address{
		ID:         uuid.New(),
		CustomerID: f.customer.UserID,
		Label:      "Home",
		Latitude:   -6.2700,
		Longitude:  106.8137,
	}
	store.addresses[f.address.ID] = f.address

	f.shirt = uuid.New()
	f.pants = uuid.New()
	store.items[f.shirt] = database.LaundryItem{ID: f.shirt, Name: "Shirt"}
	store.items[f.pants] = database.LaundryItem{ID: f.pants, Name: "Pants"}

	f.svc = NewFulfillmentService(store, store.factory(), FulfillmentOptions{
		Notifier:         f.rec,
		Gateway:          f.gw,
		GatewayServerKey: testServerKey,
		Pricing:          testPricing(),
	})
	return f
}

func (f *fixture) addUser(role string, outletID uuid.UUID) policy.Actor {
	id := uuid.New()
	f.store.users[id] = database.User{
		ID:       id,
		Email:    id.String() + "@washline.test",
		FullName: "Test " + role,
		Role:     role,
		OutletID: optionalUUID(outletID, outletID != uuid.Nil),
		IsActive: true,
	}
	return policy.Actor{UserID: id, OutletID: outletID, Role: role}
}

// intake is the item list recorded at processing: 2 shirts, 1 pants.
func (f *fixture) intake() []ItemQuantity {
	return []ItemQuantity{
		{LaundryItemID: f.shirt, Quantity: 2},
		{LaundryItemID: f.pants, Quantity: 1},
	}
}

func (f *fixture) pickup() database.Order {
	f.t.Helper()
	res, err := f.svc.RequestPickup(f.ctx, f.customer, PickupRequest{AddressID: f.address.ID, OutletID: f.outlet.ID})
	require.NoError(f.t, err)
	return res.Order
}

// arrive runs the pickup leg to ARRIVED_AT_OUTLET.
func (f *fixture) arrive(orderID uuid.UUID) {
	f.t.Helper()
	d := f.delivery(orderID, database.DeliveryTypePICKUP)
	_, err := f.svc.UpdateDelivery(f.ctx, f.driver, d.ID)
	require.NoError(f.t, err)
	_, err = f.svc.UpdateDelivery(f.ctx, f.driver, d.ID)
	require.NoError(f.t, err)
}

// process weighs 3 kg with the intake items.
func (f *fixture) process(orderID uuid.UUID) *ProcessOrderResult {
	f.t.Helper()
	res, err := f.svc.ProcessOrder(f.ctx, f.admin, orderID, ProcessOrderRequest{
		WeightKg: decimal.NewFromInt(3),
		Items:    f.intake(),
	})
	require.NoError(f.t, err)
	return res
}

// processedOrder returns an order waiting on its washing job.
func (f *fixture) processedOrder() database.Order {
	f.t.Helper()
	o := f.pickup()
	f.arrive(o.ID)
	return f.process(o.ID).Order
}

// work accepts and confirms the order's job of type jt as actor.
func (f *fixture) work(actor policy.Actor, orderID uuid.UUID, jt database.JobType) *ConfirmJobResult {
	f.t.Helper()
	job := f.job(orderID, jt)
	_, err := f.svc.AcceptJob(f.ctx, actor, job.ID)
	require.NoError(f.t, err)
	res, err := f.svc.ConfirmJob(f.ctx, actor, job.ID, f.intake())
	require.NoError(f.t, err)
	return res
}

// packedOrder returns an order that finished packing.
func (f *fixture) packedOrder() database.Order {
	f.t.Helper()
	o := f.processedOrder()
	f.work(f.washer, o.ID, database.JobTypeWASHING)
	f.work(f.ironer, o.ID, database.JobTypeIRONING)
	return f.work(f.packer, o.ID, database.JobTypePACKING).Order
}

func (f *fixture) job(orderID uuid.UUID, jt database.JobType) database.Job {
	f.t.Helper()
	for _, j := range f.store.jobs {
		if j.OrderID == orderID && j.Type == jt {
			return j
		}
	}
	f.t.Fatalf("no %s job for order %s", jt, orderID)
	return database.Job{}
}

func (f *fixture) delivery(orderID uuid.UUID, dt database.DeliveryType) database.Delivery {
	f.t.Helper()
	for _, d := range f.store.deliveries {
		if d.OrderID == orderID && d.Type == dt {
			return d
		}
	}
	f.t.Fatalf("no %s delivery for order %s", dt, orderID)
	return database.Delivery{}
}

func (f *fixture) countDeliveries(orderID uuid.UUID, dt database.DeliveryType) int {
	n := 0
	for _, d := range f.store.deliveries {
		if d.OrderID == orderID && d.Type == dt {
			n++
		}
	}
	return n
}

func (f *fixture) order(id uuid.UUID) database.Order {
	return f.store.orders[id]
}

func (f *fixture) statuses(orderID uuid.UUID) []database.OrderStatus {
	progress, _ := f.store.ListOrderProgress(f.ctx, orderID)
	out := make([]database.OrderStatus, 0, len(progress))
	for _, p := range progress {
		out = append(out, p.Status)
	}
	return out
}

// callback builds a correctly signed settlement callback.
func (f *fixture) callback(orderID uuid.UUID, gross string) gateway.Callback {
	cb := gateway.Callback{
		OrderID:           orderID.String(),
		StatusCode:        "200",
		GrossAmount:       gross,
		TransactionStatus: enum.GatewayTransactionSettlement,
	}
	cb.SignatureKey = gateway.Signature(cb.OrderID, cb.StatusCode, cb.GrossAmount, testServerKey)
	return cb
}

// requireForwardOnly checks the order's timeline ranks strictly increase
// and its seq numbers run 1..n.
func requireForwardOnly(t *testing.T, store *memStore, orderID uuid.UUID) {
	t.Helper()
	progress, err := store.ListOrderProgress(context.Background(), orderID)
	require.NoError(t, err)
	for i, p := range progress {
		require.Equal(t, int32(i+1), p.Seq)
		if i > 0 {
			require.True(t, CanAdvance(progress[i-1].Status, p.Status),
				"regression %s -> %s", progress[i-1].Status, p.Status)
		}
	}
	require.Equal(t, store.orders[orderID].CurrentStatus, progress[len(progress)-1].Status)
}
