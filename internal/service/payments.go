package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/washline/api/internal/database"
	"github.com/washline/api/internal/enum"
	"github.com/washline/api/internal/gateway"
	"github.com/washline/api/internal/notify"
	"github.com/washline/api/internal/policy"
	"go.uber.org/zap"
)

type PaymentResult struct {
	Payment  database.Payment   `json:"payment"`
	Order    database.Order     `json:"order"`
	Delivery *database.Delivery `json:"delivery,omitempty"`
}

// payableOrder locks the order and checks that actor may open a payment on it.
func payableOrder(ctx context.Context, store FulfillmentStore, actor policy.Actor, orderID uuid.UUID) (database.Order, error) {
	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}
	if !policy.Can(actor, policy.ActionPayOrder, policy.Resource{CustomerID: order.CustomerID}) {
		return database.Order{}, ErrForbidden
	}
	if !isProcessed(order.CurrentStatus) {
		return database.Order{}, ErrOrderNotProcessed
	}
	if order.IsPaid {
		return database.Order{}, ErrAlreadyPaid
	}

	_, err = store.GetPaymentByOrder(ctx, order.ID)
	switch {
	case err == nil:
		return database.Order{}, ErrPaymentExists
	case !errors.Is(err, pgx.ErrNoRows):
		return database.Order{}, fmt.Errorf("get payment: %w", err)
	}
	return order, nil
}

func orderAmount(order database.Order) decimal.Decimal {
	return numericToDecimal(order.LaundryFee).Add(numericToDecimal(order.DeliveryFee))
}

// PayManual records a receipt upload as an immediate settlement.
func (s *FulfillmentService) PayManual(ctx context.Context, actor policy.Actor, orderID uuid.UUID, receiptURL string) (*PaymentResult, error) {
	if receiptURL == "" {
		return nil, ErrReceiptRequired
	}

	var result PaymentResult
	err := s.inTx(ctx, func(store FulfillmentStore, out *outbox) error {
		order, err := payableOrder(ctx, store, actor, orderID)
		if err != nil {
			return err
		}

		payment, err := store.CreatePayment(ctx, database.CreatePaymentParams{
			OrderID:    order.ID,
			Method:     database.PaymentMethodMANUAL,
			Status:     database.PaymentStatusPAID,
			Amount:     decimalToNumeric(orderAmount(order)),
			ReceiptURL: optionalText(receiptURL),
			PaidAt:     pgtype.Timestamptz{Time: s.now(), Valid: true},
		})
		if err != nil {
			if isUniqueViolation(err, "payments_order_id_key") {
				return ErrPaymentExists
			}
			return fmt.Errorf("create payment: %w", err)
		}

		order, delivery, err := s.settle(ctx, store, out, order)
		if err != nil {
			return err
		}
		result = PaymentResult{Payment: payment, Order: order, Delivery: delivery}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// PayGateway opens a hosted payment for the order. The gateway is called
// before the transaction so no row lock is held across the network call.
func (s *FulfillmentService) PayGateway(ctx context.Context, actor policy.Actor, orderID uuid.UUID) (*PaymentResult, error) {
	var (
		txReq    gateway.TransactionRequest
		snapshot database.Order
	)
	err := s.inTx(ctx, func(store FulfillmentStore, _ *outbox) error {
		order, err := payableOrder(ctx, store, actor, orderID)
		if err != nil {
			return err
		}
		customer, err := store.GetUserByID(ctx, order.CustomerID)
		if err != nil {
			return fmt.Errorf("get customer: %w", err)
		}
		snapshot = order
		txReq = gatewayRequest(order, customer)
		return nil
	})
	if err != nil {
		return nil, err
	}

	gwTx, err := s.gateway.CreateTransaction(ctx, txReq)
	if err != nil {
		s.logger.Error("gateway create transaction failed",
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
		return nil, upstreamError("payment gateway", err)
	}

	var result PaymentResult
	err = s.inTx(ctx, func(store FulfillmentStore, _ *outbox) error {
		order, err := payableOrder(ctx, store, actor, orderID)
		if err != nil {
			return err
		}
		if !orderAmount(order).Equal(orderAmount(snapshot)) {
			return fmt.Errorf("%w: order amount changed during checkout", ErrInvalidState)
		}

		payment, err := store.CreatePayment(ctx, database.CreatePaymentParams{
			OrderID:    order.ID,
			Method:     database.PaymentMethodGATEWAY,
			Status:     database.PaymentStatusPENDING,
			Amount:     decimalToNumeric(orderAmount(order)),
			PaymentURL: optionalText(gwTx.RedirectURL),
		})
		if err != nil {
			if isUniqueViolation(err, "payments_order_id_key") {
				return ErrPaymentExists
			}
			return fmt.Errorf("create payment: %w", err)
		}
		result = PaymentResult{Payment: payment, Order: order}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func gatewayRequest(order database.Order, customer database.User) gateway.TransactionRequest {
	laundry := numericToDecimal(order.LaundryFee)
	delivery := numericToDecimal(order.DeliveryFee)
	return gateway.TransactionRequest{
		OrderID: order.ID.String(),
		Amount:  laundry.Add(delivery),
		Items: []gateway.Item{
			{ID: "laundry", Name: fmt.Sprintf("Laundry %s kg", numericToDecimal(order.WeightKg).String()), Price: laundry, Quantity: 1},
			{ID: "delivery", Name: "Pickup and delivery", Price: delivery, Quantity: 1},
		},
		Customer: gateway.Customer{
			FirstName: customer.FullName,
			Email:     customer.Email,
		},
	}
}

func upstreamError(service string, err error) error {
	var statusErr *gateway.StatusError
	if errors.As(err, &statusErr) {
		return &UpstreamError{Service: service, StatusCode: statusErr.StatusCode, Body: statusErr.Body, Err: err}
	}
	return &UpstreamError{Service: service, Err: err}
}

type CallbackResult struct {
	// Ignored is set for callbacks whose status is not a settlement.
	Ignored  bool               `json:"ignored"`
	Payment  *database.Payment  `json:"payment,omitempty"`
	Order    *database.Order    `json:"order,omitempty"`
	Delivery *database.Delivery `json:"delivery,omitempty"`
}

// HandleCallback settles a gateway payment. Checks run in a fixed order:
// settlement status, amount, signature, not already paid. A replayed callback
// fails on the last check and changes nothing.
func (s *FulfillmentService) HandleCallback(ctx context.Context, cb gateway.Callback) (*CallbackResult, error) {
	if cb.TransactionStatus != enum.GatewayTransactionSettlement {
		s.logger.Info("gateway callback ignored",
			zap.String("order_id", cb.OrderID),
			zap.String("transaction_status", cb.TransactionStatus),
		)
		return &CallbackResult{Ignored: true}, nil
	}

	orderID, err := uuid.Parse(cb.OrderID)
	if err != nil {
		return nil, ErrInvalidOrderID
	}
	gross, err := decimal.NewFromString(cb.GrossAmount)
	if err != nil {
		return nil, ErrAmountMismatch
	}

	var result CallbackResult
	err = s.inTx(ctx, func(store FulfillmentStore, out *outbox) error {
		order, err := store.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("get order: %w", err)
		}

		if !gross.Equal(orderAmount(order)) {
			return ErrAmountMismatch
		}
		if !cb.Verify(s.serverKey) {
			return ErrInvalidSignature
		}
		if order.IsPaid {
			return ErrAlreadyPaid
		}

		payment, err := store.MarkPaymentPaid(ctx, order.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNoPendingPayment
			}
			return fmt.Errorf("mark payment paid: %w", err)
		}

		order, delivery, err := s.settle(ctx, store, out, order)
		if err != nil {
			return err
		}
		result = CallbackResult{Payment: &payment, Order: &order, Delivery: delivery}
		return nil
	})
	if err != nil {
		s.logger.Warn("gateway callback rejected", zap.String("order_id", cb.OrderID), zap.Error(err))
		return nil, err
	}
	return &result, nil
}

// settle marks the order paid and, if fulfilment was blocked on payment,
// schedules the dropoff.
func (s *FulfillmentService) settle(ctx context.Context, store FulfillmentStore, out *outbox, order database.Order) (database.Order, *database.Delivery, error) {
	wasWaiting := order.CurrentStatus == database.OrderStatusWAITINGFORPAYMENT

	order, err := store.MarkOrderPaid(ctx, order.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, nil, ErrAlreadyPaid
		}
		return database.Order{}, nil, fmt.Errorf("mark order paid: %w", err)
	}

	if !wasWaiting {
		out.add(notify.Customer(order.CustomerID),
			"Payment received",
			fmt.Sprintf("Payment for order %s was received.", order.OrderNumber))
		return order, nil, nil
	}

	order, err = s.advanceOrder(ctx, store, order, database.OrderStatusWAITINGFORDROPOFF)
	if err != nil {
		return database.Order{}, nil, err
	}
	d, err := s.createDropoff(ctx, store, order)
	if err != nil {
		return database.Order{}, nil, err
	}

	desc := fmt.Sprintf("Order %s is paid and waiting for a dropoff driver.", order.OrderNumber)
	out.add(notify.Customer(order.CustomerID), "Payment received", desc)
	out.addOutletRoles(order.OutletID, []string{enum.RoleDriver, enum.RoleOutletAdmin}, "Ready for delivery", desc)
	return order, &d, nil
}
