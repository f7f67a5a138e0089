package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/washline/api/internal/database"
	"github.com/washline/api/internal/enum"
	"github.com/washline/api/internal/notify"
	"github.com/washline/api/internal/policy"
)

type DeliveryResult struct {
	Delivery database.Delivery `json:"delivery"`
	Order    database.Order    `json:"order"`
}

// UpdateDelivery moves a delivery exactly one step forward. Claiming a pending
// delivery makes the caller its driver; only that driver (or a super admin)
// can complete it.
func (s *FulfillmentService) UpdateDelivery(ctx context.Context, actor policy.Actor, deliveryID uuid.UUID) (*DeliveryResult, error) {
	var result DeliveryResult
	err := s.inTx(ctx, func(store FulfillmentStore, out *outbox) error {
		d, err := store.GetDelivery(ctx, deliveryID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrDeliveryNotFound
			}
			return fmt.Errorf("get delivery: %w", err)
		}
		res := policy.Resource{OutletID: d.OutletID, AssigneeID: uuidOrNil(d.DriverID)}
		if !policy.Can(actor, policy.ActionClaimDelivery, res) {
			return ErrForbidden
		}

		switch d.Progress {
		case database.ProgressPENDING:
			return s.claimDelivery(ctx, store, out, actor, d, &result)
		case database.ProgressONGOING:
			if !policy.Can(actor, policy.ActionCompleteDelivery, res) {
				return ErrForbidden
			}
			return s.completeDelivery(ctx, store, out, actor, d, &result)
		}
		return ErrDeliveryCompleted
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *FulfillmentService) claimDelivery(ctx context.Context, store FulfillmentStore, out *outbox, actor policy.Actor, d database.Delivery, result *DeliveryResult) error {
	order, err := store.GetOrderForUpdate(ctx, d.OrderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}

	claimed, err := store.ClaimDelivery(ctx, database.ClaimDeliveryParams{
		ID:       d.ID,
		DriverID: assigneeParam(actor),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDeliveryNotPending
		}
		return fmt.Errorf("claim delivery: %w", err)
	}

	next := database.OrderStatusONPROGRESSPICKUP
	title, desc := "Driver on the way", fmt.Sprintf("A driver is on the way to pick up order %s.", order.OrderNumber)
	if d.Type == database.DeliveryTypeDROPOFF {
		next = database.OrderStatusONPROGRESSDROPOFF
		title, desc = "Out for delivery", fmt.Sprintf("Order %s is on its way back to you.", order.OrderNumber)
	}

	order, err = s.advanceOrder(ctx, store, order, next)
	if err != nil {
		return err
	}
	out.add(notify.Customer(order.CustomerID), title, desc)

	*result = DeliveryResult{Delivery: claimed, Order: order}
	return nil
}

func (s *FulfillmentService) completeDelivery(ctx context.Context, store FulfillmentStore, out *outbox, actor policy.Actor, d database.Delivery, result *DeliveryResult) error {
	order, err := store.GetOrderForUpdate(ctx, d.OrderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}

	completed, err := store.CompleteDelivery(ctx, database.CompleteDeliveryParams{
		ID:       d.ID,
		DriverID: assigneeParam(actor),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDeliveryNotOngoing
		}
		return fmt.Errorf("complete delivery: %w", err)
	}

	switch d.Type {
	case database.DeliveryTypePICKUP:
		order, err = s.advanceOrder(ctx, store, order, database.OrderStatusARRIVEDATOUTLET)
		if err != nil {
			return err
		}
		out.add(notify.Outlet(order.OutletID, enum.RoleOutletAdmin),
			"Laundry arrived",
			fmt.Sprintf("Order %s arrived at the outlet and is waiting to be processed.", order.OrderNumber))
	case database.DeliveryTypeDROPOFF:
		order, err = s.advanceOrder(ctx, store, order, database.OrderStatusCOMPLETEDORDER)
		if err != nil {
			return err
		}
		order, err = store.CompleteOrder(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("complete order: %w", err)
		}
		out.add(notify.Customer(order.CustomerID),
			"Order completed",
			fmt.Sprintf("Order %s has been delivered. Thank you!", order.OrderNumber))
	}

	*result = DeliveryResult{Delivery: completed, Order: order}
	return nil
}

// DeliveryFilter narrows ListDeliveries. OutletID applies to super admins only.
type DeliveryFilter struct {
	OutletID uuid.UUID
	Progress string
	Mine     bool
	Limit    int32
	Offset   int32
}

func (s *FulfillmentService) ListDeliveries(ctx context.Context, actor policy.Actor, f DeliveryFilter) ([]database.Delivery, error) {
	params := database.ListDeliveriesParams{
		Progress: optionalText(f.Progress),
		Limit:    f.Limit,
		Offset:   f.Offset,
	}
	switch actor.Role {
	case enum.RoleSuperAdmin:
		if f.OutletID == uuid.Nil {
			return nil, ErrOutletRequired
		}
		params.OutletID = f.OutletID
	case enum.RoleOutletAdmin:
		params.OutletID = actor.OutletID
	case enum.RoleDriver:
		params.OutletID = actor.OutletID
		params.DriverID = optionalUUID(actor.UserID, f.Mine)
	default:
		return nil, ErrForbidden
	}

	var deliveries []database.Delivery
	err := s.inTx(ctx, func(store FulfillmentStore, _ *outbox) error {
		var err error
		deliveries, err = store.ListDeliveries(ctx, params)
		if err != nil {
			return fmt.Errorf("list deliveries: %w", err)
		}
		return nil
	})
	return deliveries, err
}
