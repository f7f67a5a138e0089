package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/washline/api/internal/config"
	"github.com/washline/api/internal/database"
	"github.com/washline/api/internal/gateway"
	"github.com/washline/api/internal/notify"
	"github.com/washline/api/internal/policy"
	"go.uber.org/zap"
)

const maxOrderNumberRetries = 3

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// FulfillmentStore defines the DB methods the fulfillment workflow needs.
// Satisfied by *database.Queries.
type FulfillmentStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error)
	GetOutlet(ctx context.Context, id uuid.UUID) (database.Outlet, error)
	ListOutletsInBox(ctx context.Context, arg database.ListOutletsInBoxParams) ([]database.Outlet, error)
	GetAddressForCustomer(ctx context.Context, arg database.GetAddressForCustomerParams) (database.Address, error)
	CountLaundryItems(ctx context.Context, ids []uuid.UUID) (int64, error)

	GetNextOrderNumber(ctx context.Context, outletID uuid.UUID) (int32, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	AdvanceOrderStatus(ctx context.Context, arg database.AdvanceOrderStatusParams) (database.Order, error)
	CreateOrderProgress(ctx context.Context, arg database.CreateOrderProgressParams) (database.OrderProgress, error)
	ListOrderProgress(ctx context.Context, orderID uuid.UUID) ([]database.OrderProgress, error)
	SetOrderFees(ctx context.Context, arg database.SetOrderFeesParams) (database.Order, error)
	SetOrderPayable(ctx context.Context, arg database.SetOrderPayableParams) (database.Order, error)
	MarkOrderPaid(ctx context.Context, id uuid.UUID) (database.Order, error)
	CompleteOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)

	CreateJob(ctx context.Context, arg database.CreateJobParams) (database.Job, error)
	GetJob(ctx context.Context, id uuid.UUID) (database.Job, error)
	ClaimJob(ctx context.Context, arg database.ClaimJobParams) (database.Job, error)
	CompleteJob(ctx context.Context, arg database.CompleteJobParams) (database.Job, error)
	ListJobs(ctx context.Context, arg database.ListJobsParams) ([]database.Job, error)
	ListJobsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Job, error)

	CreateDelivery(ctx context.Context, arg database.CreateDeliveryParams) (database.Delivery, error)
	GetDelivery(ctx context.Context, id uuid.UUID) (database.Delivery, error)
	ClaimDelivery(ctx context.Context, arg database.ClaimDeliveryParams) (database.Delivery, error)
	CompleteDelivery(ctx context.Context, arg database.CompleteDeliveryParams) (database.Delivery, error)
	ListDeliveries(ctx context.Context, arg database.ListDeliveriesParams) ([]database.Delivery, error)
	ListDeliveriesByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Delivery, error)

	CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error)
	GetPaymentByOrder(ctx context.Context, orderID uuid.UUID) (database.Payment, error)
	MarkPaymentPaid(ctx context.Context, orderID uuid.UUID) (database.Payment, error)

	CreateRequestAccess(ctx context.Context, arg database.CreateRequestAccessParams) (database.RequestAccess, error)
	GetRequestAccess(ctx context.Context, id uuid.UUID) (database.RequestAccess, error)
	RespondRequestAccess(ctx context.Context, arg database.RespondRequestAccessParams) (database.RequestAccess, error)
	HasAcceptedRequestAccess(ctx context.Context, arg database.HasAcceptedRequestAccessParams) (bool, error)
}

// NewFulfillmentStore creates a FulfillmentStore from a DBTX (pool or tx).
type NewFulfillmentStore func(db database.DBTX) FulfillmentStore

// PaymentGateway opens hosted payment transactions.
type PaymentGateway interface {
	CreateTransaction(ctx context.Context, req gateway.TransactionRequest) (gateway.Transaction, error)
}

// FulfillmentOptions carries the collaborators of FulfillmentService.
type FulfillmentOptions struct {
	Notifier         notify.Notifier
	Gateway          PaymentGateway
	GatewayServerKey string
	Pricing          config.Pricing
	Logger           *zap.Logger
}

// FulfillmentService drives an order from pickup request to completion.
// Every transition runs in one transaction; notifications go out only after
// it commits.
type FulfillmentService struct {
	pool      TxBeginner
	newStore  NewFulfillmentStore
	notifier  notify.Notifier
	gateway   PaymentGateway
	serverKey string
	pricing   config.Pricing
	logger    *zap.Logger
	now       func() time.Time
}

func NewFulfillmentService(pool TxBeginner, newStore NewFulfillmentStore, opts FulfillmentOptions) *FulfillmentService {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FulfillmentService{
		pool:      pool,
		newStore:  newStore,
		notifier:  opts.Notifier,
		gateway:   opts.Gateway,
		serverKey: opts.GatewayServerKey,
		pricing:   opts.Pricing,
		logger:    logger.Named("fulfillment"),
		now:       time.Now,
	}
}

type notice struct {
	target notify.Target
	msg    notify.Message
}

// outbox collects notifications produced inside a transaction.
type outbox struct {
	notices []notice
}

func (o *outbox) add(target notify.Target, title, description string) {
	o.notices = append(o.notices, notice{
		target: target,
		msg:    notify.Message{Title: title, Description: description},
	})
}

// addOutletRoles notifies each role at outletID.
func (o *outbox) addOutletRoles(outletID uuid.UUID, roles []string, title, description string) {
	for _, role := range roles {
		o.add(notify.Outlet(outletID, role), title, description)
	}
}

// inTx runs fn in a transaction and, once it commits, emits the collected
// notifications.
func (s *FulfillmentService) inTx(ctx context.Context, fn func(store FulfillmentStore, out *outbox) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	out := &outbox{}
	if err := fn(s.newStore(tx), out); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	if s.notifier != nil {
		for _, n := range out.notices {
			s.notifier.Notify(ctx, n.target, n.msg)
		}
	}
	return nil
}

// advanceOrder moves order to status with a compare-and-swap on its current
// status and appends the matching progress row.
func (s *FulfillmentService) advanceOrder(ctx context.Context, store FulfillmentStore, order database.Order, to database.OrderStatus) (database.Order, error) {
	if !CanAdvance(order.CurrentStatus, to) {
		return database.Order{}, fmt.Errorf("%w: %s -> %s", ErrStatusRegression, order.CurrentStatus, to)
	}

	updated, err := store.AdvanceOrderStatus(ctx, database.AdvanceOrderStatusParams{
		ID:   order.ID,
		From: order.CurrentStatus,
		To:   to,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrConcurrentUpdate
		}
		return database.Order{}, fmt.Errorf("advance order status: %w", err)
	}

	if _, err := store.CreateOrderProgress(ctx, database.CreateOrderProgressParams{
		OrderID: updated.ID,
		Seq:     updated.ProgressSeq,
		Status:  to,
	}); err != nil {
		return database.Order{}, fmt.Errorf("create order progress: %w", err)
	}

	s.logger.Info("order status advanced",
		zap.String("order_id", order.ID.String()),
		zap.String("from", string(order.CurrentStatus)),
		zap.String("to", string(to)),
		zap.Int32("seq", updated.ProgressSeq),
	)
	return updated, nil
}

// createDropoff opens the return trip, reusing the pickup distance.
func (s *FulfillmentService) createDropoff(ctx context.Context, store FulfillmentStore, order database.Order) (database.Delivery, error) {
	deliveries, err := store.ListDeliveriesByOrder(ctx, order.ID)
	if err != nil {
		return database.Delivery{}, fmt.Errorf("list deliveries: %w", err)
	}
	var distance float64
	for _, d := range deliveries {
		if d.Type == database.DeliveryTypePICKUP {
			distance = d.DistanceKm
		}
	}

	d, err := store.CreateDelivery(ctx, database.CreateDeliveryParams{
		OrderID:    order.ID,
		OutletID:   order.OutletID,
		Type:       database.DeliveryTypeDROPOFF,
		DistanceKm: distance,
	})
	if err != nil {
		if isUniqueViolation(err, "deliveries_order_type_key") {
			return database.Delivery{}, fmt.Errorf("%w: dropoff already exists", ErrInvalidState)
		}
		return database.Delivery{}, fmt.Errorf("create dropoff delivery: %w", err)
	}
	return d, nil
}

// paymentOutstanding reports whether the order still has to be paid before
// it can be returned.
func paymentOutstanding(order database.Order) bool {
	return !order.IsPaid && numericToDecimal(order.Price).IsPositive()
}

func optionalUUID(id uuid.UUID, valid bool) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: valid}
}

func uuidOrNil(id pgtype.UUID) uuid.UUID {
	if !id.Valid {
		return uuid.Nil
	}
	return id.Bytes
}

// assigneeParam is the actor's id for conditional updates, or null for a
// super admin acting as dispatcher.
func assigneeParam(actor policy.Actor) pgtype.UUID {
	return optionalUUID(actor.UserID, !actor.IsSuperAdmin())
}

func optionalText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
