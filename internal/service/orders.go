package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/washline/api/internal/database"
	"github.com/washline/api/internal/enum"
	"github.com/washline/api/internal/notify"
	"github.com/washline/api/internal/policy"
)

// ProcessOrderRequest is the outlet admin's intake record: weight and the
// item list workers must reproduce at every stage.
type ProcessOrderRequest struct {
	WeightKg decimal.Decimal
	Items    []ItemQuantity
}

type ProcessOrderResult struct {
	Order database.Order
	Items []database.OrderItem
	Job   database.Job
}

// ProcessOrder weighs an order that arrived at its outlet, prices the
// laundry and starts the washing stage.
func (s *FulfillmentService) ProcessOrder(ctx context.Context, actor policy.Actor, orderID uuid.UUID, req ProcessOrderRequest) (*ProcessOrderResult, error) {
	if !req.WeightKg.IsPositive() {
		return nil, ErrInvalidWeight
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for i, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
	}
	items, err := mergeItems(req.Items)
	if err != nil {
		return nil, err
	}

	var result ProcessOrderResult
	err = s.inTx(ctx, func(store FulfillmentStore, out *outbox) error {
		order, err := store.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("get order: %w", err)
		}
		if !policy.Can(actor, policy.ActionProcessOrder, policy.Resource{OutletID: order.OutletID}) {
			return ErrForbidden
		}
		if order.CurrentStatus != database.OrderStatusARRIVEDATOUTLET {
			return ErrOrderNotArrived
		}

		ids := make([]uuid.UUID, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.LaundryItemID)
		}
		known, err := store.CountLaundryItems(ctx, ids)
		if err != nil {
			return fmt.Errorf("count laundry items: %w", err)
		}
		if known != int64(len(ids)) {
			return ErrUnknownLaundryItem
		}

		for _, it := range items {
			created, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
				OrderID:       order.ID,
				LaundryItemID: it.LaundryItemID,
				Quantity:      it.Quantity,
			})
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
			result.Items = append(result.Items, created)
		}

		// Fees are whole currency units, matching what the gateway charges.
		laundryFee := req.WeightKg.Mul(s.pricing.LaundryPricePerKg).Round(0)
		order, err = store.SetOrderFees(ctx, database.SetOrderFeesParams{
			ID:         order.ID,
			WeightKg:   decimalToNumeric(req.WeightKg),
			LaundryFee: decimalToNumeric(laundryFee),
		})
		if err != nil {
			return fmt.Errorf("set order fees: %w", err)
		}

		order, err = s.advanceOrder(ctx, store, order, database.OrderStatusONPROGRESSWASHING)
		if err != nil {
			return err
		}

		job, err := store.CreateJob(ctx, database.CreateJobParams{
			OrderID:  order.ID,
			OutletID: order.OutletID,
			Type:     database.JobTypeWASHING,
		})
		if err != nil {
			return fmt.Errorf("create washing job: %w", err)
		}

		out.add(notify.Outlet(order.OutletID, enum.RoleWashingWorker),
			"New washing job",
			fmt.Sprintf("Order %s is ready for washing.", order.OrderNumber))
		out.add(notify.Customer(order.CustomerID),
			"Order processed",
			fmt.Sprintf("Order %s weighs %s kg. Total price: %s.",
				order.OrderNumber, req.WeightKg.String(), numericToDecimal(order.Price).StringFixed(2)))

		result.Order = order
		result.Job = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// OrderDetail is an order with everything it owns.
type OrderDetail struct {
	Order      database.Order           `json:"order"`
	Items      []database.OrderItem     `json:"items"`
	Progress   []database.OrderProgress `json:"progress"`
	Jobs       []database.Job           `json:"jobs"`
	Deliveries []database.Delivery      `json:"deliveries"`
	Payment    *database.Payment        `json:"payment"`
}

// GetOrder returns the order if actor may view it. Outlet workers see only
// orders they are currently working on, or were granted access to.
func (s *FulfillmentService) GetOrder(ctx context.Context, actor policy.Actor, orderID uuid.UUID) (*OrderDetail, error) {
	var detail OrderDetail
	err := s.inTx(ctx, func(store FulfillmentStore, _ *outbox) error {
		order, err := store.GetOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("get order: %w", err)
		}

		jobs, err := store.ListJobsByOrder(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("list jobs: %w", err)
		}
		deliveries, err := store.ListDeliveriesByOrder(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("list deliveries: %w", err)
		}

		res := policy.Resource{OutletID: order.OutletID, CustomerID: order.CustomerID}
		if enum.IsEmployeeRole(actor.Role) && actor.Role != enum.RoleOutletAdmin {
			if activeOn(actor.UserID, jobs, deliveries) {
				res.AssigneeID = actor.UserID
			} else {
				granted, err := store.HasAcceptedRequestAccess(ctx, database.HasAcceptedRequestAccessParams{
					OrderID:    order.ID,
					EmployeeID: actor.UserID,
				})
				if err != nil {
					return fmt.Errorf("check request access: %w", err)
				}
				res.Granted = granted
			}
		}
		if !policy.Can(actor, policy.ActionViewOrder, res) {
			return ErrForbidden
		}

		items, err := store.ListOrderItemsByOrder(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("list order items: %w", err)
		}
		progress, err := store.ListOrderProgress(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("list order progress: %w", err)
		}

		detail = OrderDetail{
			Order:      order,
			Items:      items,
			Progress:   progress,
			Jobs:       jobs,
			Deliveries: deliveries,
		}

		payment, err := store.GetPaymentByOrder(ctx, order.ID)
		switch {
		case err == nil:
			detail.Payment = &payment
		case !errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("get payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// activeOn reports whether userID holds an ongoing job or delivery of the order.
func activeOn(userID uuid.UUID, jobs []database.Job, deliveries []database.Delivery) bool {
	for _, j := range jobs {
		if j.Progress == database.ProgressONGOING && uuidOrNil(j.EmployeeID) == userID {
			return true
		}
	}
	for _, d := range deliveries {
		if d.Progress == database.ProgressONGOING && uuidOrNil(d.DriverID) == userID {
			return true
		}
	}
	return false
}

// OrderFilter narrows ListOrders. OutletID is honoured for super admins only.
type OrderFilter struct {
	OutletID uuid.UUID
	Status   string
	Limit    int32
	Offset   int32
}

// ListOrders returns the orders visible to actor: their own for customers,
// their outlet's for outlet admins.
func (s *FulfillmentService) ListOrders(ctx context.Context, actor policy.Actor, f OrderFilter) ([]database.Order, error) {
	params := database.ListOrdersParams{
		Status: optionalText(f.Status),
		Limit:  f.Limit,
		Offset: f.Offset,
	}
	switch actor.Role {
	case enum.RoleSuperAdmin:
		params.OutletID = optionalUUID(f.OutletID, f.OutletID != uuid.Nil)
	case enum.RoleCustomer:
		params.CustomerID = optionalUUID(actor.UserID, true)
	case enum.RoleOutletAdmin:
		params.OutletID = optionalUUID(actor.OutletID, true)
	default:
		return nil, ErrForbidden
	}

	var orders []database.Order
	err := s.inTx(ctx, func(store FulfillmentStore, _ *outbox) error {
		var err error
		orders, err = store.ListOrders(ctx, params)
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		return nil
	})
	return orders, err
}
