package service

import (
	"context"
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/washline/api/internal/database"
)

// --- Mock transaction ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr  error
	onCommit   func()
	onRollback func()
	done       bool
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.done = true
	if m.onCommit != nil {
		m.onCommit()
	}
	return nil
}
func (m *mockTx) Rollback(ctx context.Context) error {
	if m.done {
		return pgx.ErrTxClosed
	}
	m.done = true
	if m.onRollback != nil {
		m.onRollback()
	}
	return nil
}
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// --- In-memory store ---

type memState struct {
	users      map[uuid.UUID]database.User
	outlets    map[uuid.UUID]database.Outlet
	addresses  map[uuid.UUID]database.Address
	items      map[uuid.UUID]database.LaundryItem
	orders     map[uuid.UUID]database.Order
	progress   []database.OrderProgress
	orderItems []database.OrderItem
	jobs       map[uuid.UUID]database.Job
	deliveries map[uuid.UUID]database.Delivery
	payments   map[uuid.UUID]database.Payment
	requests   map[uuid.UUID]database.RequestAccess
}

func (s memState) clone() memState {
	return memState{
		users:      maps.Clone(s.users),
		outlets:    maps.Clone(s.outlets),
		addresses:  maps.Clone(s.addresses),
		items:      maps.Clone(s.items),
		orders:     maps.Clone(s.orders),
		progress:   slices.Clone(s.progress),
		orderItems: slices.Clone(s.orderItems),
		jobs:       maps.Clone(s.jobs),
		deliveries: maps.Clone(s.deliveries),
		payments:   maps.Clone(s.payments),
		requests:   maps.Clone(s.requests),
	}
}

// memStore implements TxBeginner and FulfillmentStore. Begin snapshots the
// state and a rollback without commit restores it, so a failed operation
// leaves no partial writes behind. Tests drive it from a single goroutine.
type memStore struct {
	memState

	beginErr  error
	commitErr error

	// nextOrderNumber overrides GetNextOrderNumber when set.
	nextOrderNumber func(outletID uuid.UUID) int32
	// failOn makes the named store method return the error.
	failOn map[string]error

	commits   int
	rollbacks int
}

func newMemStore() *memStore {
	return &memStore{
		memState: memState{
			users:      map[uuid.UUID]database.User{},
			outlets:    map[uuid.UUID]database.Outlet{},
			addresses:  map[uuid.UUID]database.Address{},
			items:      map[uuid.UUID]database.LaundryItem{},
			orders:     map[uuid.UUID]database.Order{},
			jobs:       map[uuid.UUID]database.Job{},
			deliveries: map[uuid.UUID]database.Delivery{},
			payments:   map[uuid.UUID]database.Payment{},
			requests:   map[uuid.UUID]database.RequestAccess{},
		},
		failOn: map[string]error{},
	}
}

func (m *memStore) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	snapshot := m.memState.clone()
	return &mockTx{
		commitErr: m.commitErr,
		onCommit:  func() { m.commits++ },
		onRollback: func() {
			m.rollbacks++
			m.memState = snapshot
		},
	}, nil
}

func (m *memStore) factory() NewFulfillmentStore {
	return func(database.DBTX) FulfillmentStore { return m }
}

func (m *memStore) fail(method string) error {
	return m.failOn[method]
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

func num(s string) pgtype.Numeric {
	return decimalToNumeric(decimal.RequireFromString(s))
}

func (m *memStore) GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error) {
	u, ok := m.users[id]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *memStore) GetOutlet(ctx context.Context, id uuid.UUID) (database.Outlet, error) {
	o, ok := m.outlets[id]
	if !ok {
		return database.Outlet{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *memStore) ListOutletsInBox(ctx context.Context, arg database.ListOutletsInBoxParams) ([]database.Outlet, error) {
	out := []database.Outlet{}
	for _, o := range m.outlets {
		if o.Latitude >= arg.MinLat && o.Latitude <= arg.MaxLat && o.Longitude >= arg.MinLon && o.Longitude <= arg.MaxLon {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memStore) GetAddressForCustomer(ctx context.Context, arg database.GetAddressForCustomerParams) (database.Address, error) {
	a, ok := m.addresses[arg.ID]
	if !ok || a.CustomerID != arg.CustomerID {
		return database.Address{}, pgx.ErrNoRows
	}
	return a, nil
}

func (m *memStore) CountLaundryItems(ctx context.Context, ids []uuid.UUID) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := m.items[id]; ok {
			n++
		}
	}
	return n, nil
}

func (m *memStore) GetNextOrderNumber(ctx context.Context, outletID uuid.UUID) (int32, error) {
	if m.nextOrderNumber != nil {
		return m.nextOrderNumber(outletID), nil
	}
	var n int32
	for _, o := range m.orders {
		if o.OutletID == outletID {
			n++
		}
	}
	return n + 1, nil
}

func (m *memStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	if err := m.fail("CreateOrder"); err != nil {
		return database.Order{}, err
	}
	for _, o := range m.orders {
		if o.OutletID == arg.OutletID && o.OrderNumber == arg.OrderNumber {
			return database.Order{}, uniqueViolation("orders_outlet_id_order_number_key")
		}
	}
	now := time.Now()
	o := database.Order{
		ID:            uuid.New(),
		OrderNumber:   arg.OrderNumber,
		CustomerID:    arg.CustomerID,
		OutletID:      arg.OutletID,
		AddressID:     arg.AddressID,
		CurrentStatus: arg.CurrentStatus,
		ProgressSeq:   1,
		WeightKg:      num("0"),
		LaundryFee:    num("0"),
		DeliveryFee:   arg.DeliveryFee,
		Price:         arg.DeliveryFee,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.orders[o.ID] = o
	return o, nil
}

func (m *memStore) GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *memStore) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error) {
	return m.GetOrder(ctx, id)
}

func (m *memStore) ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error) {
	out := []database.Order{}
	for _, o := range m.orders {
		if arg.CustomerID.Valid && o.CustomerID != uuid.UUID(arg.CustomerID.Bytes) {
			continue
		}
		if arg.OutletID.Valid && o.OutletID != uuid.UUID(arg.OutletID.Bytes) {
			continue
		}
		if arg.Status.Valid && string(o.CurrentStatus) != arg.Status.String {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *memStore) AdvanceOrderStatus(ctx context.Context, arg database.AdvanceOrderStatusParams) (database.Order, error) {
	o, ok := m.orders[arg.ID]
	if !ok || o.CurrentStatus != arg.From {
		return database.Order{}, pgx.ErrNoRows
	}
	o.CurrentStatus = arg.To
	o.ProgressSeq++
	m.orders[o.ID] = o
	return o, nil
}

func (m *memStore) CreateOrderProgress(ctx context.Context, arg database.CreateOrderProgressParams) (database.OrderProgress, error) {
	for _, p := range m.progress {
		if p.OrderID == arg.OrderID && p.Seq == arg.Seq {
			return database.OrderProgress{}, uniqueViolation("order_progress_order_seq_key")
		}
	}
	p := database.OrderProgress{ID: uuid.New(), OrderID: arg.OrderID, Seq: arg.Seq, Status: arg.Status, CreatedAt: time.Now()}
	m.progress = append(m.progress, p)
	return p, nil
}

func (m *memStore) ListOrderProgress(ctx context.Context, orderID uuid.UUID) ([]database.OrderProgress, error) {
	out := []database.OrderProgress{}
	for _, p := range m.progress {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b database.OrderProgress) int { return int(a.Seq - b.Seq) })
	return out, nil
}

func (m *memStore) SetOrderFees(ctx context.Context, arg database.SetOrderFeesParams) (database.Order, error) {
	o, ok := m.orders[arg.ID]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	o.WeightKg = arg.WeightKg
	o.LaundryFee = arg.LaundryFee
	o.Price = decimalToNumeric(numericToDecimal(arg.LaundryFee).Add(numericToDecimal(o.DeliveryFee)))
	m.orders[o.ID] = o
	return o, nil
}

func (m *memStore) SetOrderPayable(ctx context.Context, arg database.SetOrderPayableParams) (database.Order, error) {
	o, ok := m.orders[arg.ID]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	o.IsPayable = arg.IsPayable
	m.orders[o.ID] = o
	return o, nil
}

func (m *memStore) MarkOrderPaid(ctx context.Context, id uuid.UUID) (database.Order, error) {
	o, ok := m.orders[id]
	if !ok || o.IsPaid {
		return database.Order{}, pgx.ErrNoRows
	}
	o.IsPaid = true
	o.IsPayable = false
	m.orders[o.ID] = o
	return o, nil
}

func (m *memStore) CompleteOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	o.IsCompleted = true
	m.orders[o.ID] = o
	return o, nil
}

func (m *memStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	it := database.OrderItem{ID: uuid.New(), OrderID: arg.OrderID, LaundryItemID: arg.LaundryItemID, Quantity: arg.Quantity}
	m.orderItems = append(m.orderItems, it)
	return it, nil
}

func (m *memStore) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	out := []database.OrderItem{}
	for _, it := range m.orderItems {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memStore) CreateJob(ctx context.Context, arg database.CreateJobParams) (database.Job, error) {
	for _, j := range m.jobs {
		if j.OrderID == arg.OrderID && j.Type == arg.Type {
			return database.Job{}, uniqueViolation("jobs_order_type_key")
		}
	}
	j := database.Job{
		ID:        uuid.New(),
		OrderID:   arg.OrderID,
		OutletID:  arg.OutletID,
		Type:      arg.Type,
		Progress:  database.ProgressPENDING,
		CreatedAt: time.Now(),
	}
	m.jobs[j.ID] = j
	return j, nil
}

func (m *memStore) GetJob(ctx context.Context, id uuid.UUID) (database.Job, error) {
	j, ok := m.jobs[id]
	if !ok {
		return database.Job{}, pgx.ErrNoRows
	}
	return j, nil
}

func (m *memStore) ClaimJob(ctx context.Context, arg database.ClaimJobParams) (database.Job, error) {
	j, ok := m.jobs[arg.ID]
	if !ok || j.Progress != database.ProgressPENDING {
		return database.Job{}, pgx.ErrNoRows
	}
	j.Progress = database.ProgressONGOING
	j.EmployeeID = arg.EmployeeID
	m.jobs[j.ID] = j
	return j, nil
}

func (m *memStore) CompleteJob(ctx context.Context, arg database.CompleteJobParams) (database.Job, error) {
	j, ok := m.jobs[arg.ID]
	if !ok || j.Progress != database.ProgressONGOING {
		return database.Job{}, pgx.ErrNoRows
	}
	if arg.EmployeeID.Valid && j.EmployeeID.Valid && j.EmployeeID != arg.EmployeeID {
		return database.Job{}, pgx.ErrNoRows
	}
	if !j.EmployeeID.Valid {
		j.EmployeeID = arg.EmployeeID
	}
	j.Progress = database.ProgressCOMPLETED
	m.jobs[j.ID] = j
	return j, nil
}

func (m *memStore) ListJobs(ctx context.Context, arg database.ListJobsParams) ([]database.Job, error) {
	out := []database.Job{}
	for _, j := range m.jobs {
		if j.OutletID != arg.OutletID {
			continue
		}
		if arg.Type.Valid && string(j.Type) != arg.Type.String {
			continue
		}
		if arg.Progress.Valid && string(j.Progress) != arg.Progress.String {
			continue
		}
		if arg.EmployeeID.Valid && j.EmployeeID != arg.EmployeeID {
			continue
		}
		out = append(out, j)
	}
	return out, nil
}

func (m *memStore) ListJobsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Job, error) {
	out := []database.Job{}
	for _, j := range m.jobs {
		if j.OrderID == orderID {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m *memStore) CreateDelivery(ctx context.Context, arg database.CreateDeliveryParams) (database.Delivery, error) {
	if err := m.fail("CreateDelivery"); err != nil {
		return database.Delivery{}, err
	}
	for _, d := range m.deliveries {
		if d.OrderID == arg.OrderID && d.Type == arg.Type {
			return database.Delivery{}, uniqueViolation("deliveries_order_type_key")
		}
	}
	d := database.Delivery{
		ID:         uuid.New(),
		OrderID:    arg.OrderID,
		OutletID:   arg.OutletID,
		Type:       arg.Type,
		Progress:   database.ProgressPENDING,
		DistanceKm: arg.DistanceKm,
		CreatedAt:  time.Now(),
	}
	m.deliveries[d.ID] = d
	return d, nil
}

func (m *memStore) GetDelivery(ctx context.Context, id uuid.UUID) (database.Delivery, error) {
	d, ok := m.deliveries[id]
	if !ok {
		return database.Delivery{}, pgx.ErrNoRows
	}
	return d, nil
}

func (m *memStore) ClaimDelivery(ctx context.Context, arg database.ClaimDeliveryParams) (database.Delivery, error) {
	d, ok := m.deliveries[arg.ID]
	if !ok || d.Progress != database.ProgressPENDING {
		return database.Delivery{}, pgx.ErrNoRows
	}
	d.Progress = database.ProgressONGOING
	d.DriverID = arg.DriverID
	m.deliveries[d.ID] = d
	return d, nil
}

func (m *memStore) CompleteDelivery(ctx context.Context, arg database.CompleteDeliveryParams) (database.Delivery, error) {
	d, ok := m.deliveries[arg.ID]
	if !ok || d.Progress != database.ProgressONGOING {
		return database.Delivery{}, pgx.ErrNoRows
	}
	if arg.DriverID.Valid && d.DriverID != arg.DriverID {
		return database.Delivery{}, pgx.ErrNoRows
	}
	d.Progress = database.ProgressCOMPLETED
	m.deliveries[d.ID] = d
	return d, nil
}

func (m *memStore) ListDeliveries(ctx context.Context, arg database.ListDeliveriesParams) ([]database.Delivery, error) {
	out := []database.Delivery{}
	for _, d := range m.deliveries {
		if d.OutletID != arg.OutletID {
			continue
		}
		if arg.Progress.Valid && string(d.Progress) != arg.Progress.String {
			continue
		}
		if arg.DriverID.Valid && d.DriverID != arg.DriverID {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *memStore) ListDeliveriesByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Delivery, error) {
	out := []database.Delivery{}
	for _, d := range m.deliveries {
		if d.OrderID == orderID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memStore) CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error) {
	if _, ok := m.payments[arg.OrderID]; ok {
		return database.Payment{}, uniqueViolation("payments_order_id_key")
	}
	p := database.Payment{
		ID:         uuid.New(),
		OrderID:    arg.OrderID,
		Method:     arg.Method,
		Status:     arg.Status,
		Amount:     arg.Amount,
		ReceiptURL: arg.ReceiptURL,
		PaymentURL: arg.PaymentURL,
		PaidAt:     arg.PaidAt,
		CreatedAt:  time.Now(),
	}
	m.payments[p.OrderID] = p
	return p, nil
}

func (m *memStore) GetPaymentByOrder(ctx context.Context, orderID uuid.UUID) (database.Payment, error) {
	p, ok := m.payments[orderID]
	if !ok {
		return database.Payment{}, pgx.ErrNoRows
	}
	return p, nil
}

func (m *memStore) MarkPaymentPaid(ctx context.Context, orderID uuid.UUID) (database.Payment, error) {
	p, ok := m.payments[orderID]
	if !ok || p.Status != database.PaymentStatusPENDING {
		return database.Payment{}, pgx.ErrNoRows
	}
	p.Status = database.PaymentStatusPAID
	p.PaidAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	m.payments[orderID] = p
	return p, nil
}

func (m *memStore) CreateRequestAccess(ctx context.Context, arg database.CreateRequestAccessParams) (database.RequestAccess, error) {
	for _, ra := range m.requests {
		if ra.JobID == arg.JobID {
			return database.RequestAccess{}, uniqueViolation("request_accesses_job_id_key")
		}
	}
	ra := database.RequestAccess{
		ID:         uuid.New(),
		JobID:      arg.JobID,
		EmployeeID: arg.EmployeeID,
		Status:     database.RequestAccessStatusPENDING,
		Reason:     arg.Reason,
		CreatedAt:  time.Now(),
	}
	m.requests[ra.ID] = ra
	return ra, nil
}

func (m *memStore) GetRequestAccess(ctx context.Context, id uuid.UUID) (database.RequestAccess, error) {
	ra, ok := m.requests[id]
	if !ok {
		return database.RequestAccess{}, pgx.ErrNoRows
	}
	return ra, nil
}

func (m *memStore) RespondRequestAccess(ctx context.Context, arg database.RespondRequestAccessParams) (database.RequestAccess, error) {
	ra, ok := m.requests[arg.ID]
	if !ok || ra.Status != database.RequestAccessStatusPENDING {
		return database.RequestAccess{}, pgx.ErrNoRows
	}
	ra.Status = arg.Status
	m.requests[ra.ID] = ra
	return ra, nil
}

func (m *memStore) HasAcceptedRequestAccess(ctx context.Context, arg database.HasAcceptedRequestAccessParams) (bool, error) {
	for _, ra := range m.requests {
		j, ok := m.jobs[ra.JobID]
		if ok && j.OrderID == arg.OrderID && ra.EmployeeID == arg.EmployeeID && ra.Status == database.RequestAccessStatusACCEPTED {
			return true, nil
		}
	}
	return false, nil
}

var errBoom = errors.New("boom")
