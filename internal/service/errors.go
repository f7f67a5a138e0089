package service

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Error kinds. Every error returned by the service wraps one of these, or is
// an *UpstreamError, or is an unexpected infrastructure failure.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
)

var (
	ErrAddressNotFound  = fmt.Errorf("address %w", ErrNotFound)
	ErrOutletNotFound   = fmt.Errorf("outlet %w", ErrNotFound)
	ErrOrderNotFound    = fmt.Errorf("order %w", ErrNotFound)
	ErrJobNotFound      = fmt.Errorf("job %w", ErrNotFound)
	ErrDeliveryNotFound = fmt.Errorf("delivery %w", ErrNotFound)
	ErrRequestNotFound  = fmt.Errorf("request access %w", ErrNotFound)

	ErrOutOfRange         = fmt.Errorf("%w: outlet is outside the service radius", ErrValidation)
	ErrEmptyItems         = fmt.Errorf("%w: items are required", ErrValidation)
	ErrInvalidQuantity    = fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	ErrQuantityTooLarge   = fmt.Errorf("%w: item quantity is too large", ErrValidation)
	ErrInvalidWeight      = fmt.Errorf("%w: weight_kg must be > 0", ErrValidation)
	ErrUnknownLaundryItem = fmt.Errorf("%w: unknown laundry item", ErrValidation)
	ErrItemsMismatch      = fmt.Errorf("%w: items do not match the order", ErrValidation)
	ErrReceiptRequired    = fmt.Errorf("%w: receipt_url is required", ErrValidation)
	ErrAmountMismatch     = fmt.Errorf("%w: gross_amount does not match the order", ErrValidation)
	ErrInvalidSignature   = fmt.Errorf("%w: invalid signature", ErrValidation)
	ErrInvalidOrderID     = fmt.Errorf("%w: invalid order_id", ErrValidation)
	ErrOutletRequired     = fmt.Errorf("%w: outlet_id is required", ErrValidation)

	ErrJobNotPending         = fmt.Errorf("%w: job is not pending", ErrInvalidState)
	ErrJobNotOngoing         = fmt.Errorf("%w: job is not ongoing", ErrInvalidState)
	ErrDeliveryNotPending    = fmt.Errorf("%w: delivery is not pending", ErrInvalidState)
	ErrDeliveryNotOngoing    = fmt.Errorf("%w: delivery is not ongoing", ErrInvalidState)
	ErrDeliveryCompleted     = fmt.Errorf("%w: delivery is already completed", ErrInvalidState)
	ErrOrderNotArrived       = fmt.Errorf("%w: order has not arrived at the outlet", ErrInvalidState)
	ErrOrderNotProcessed     = fmt.Errorf("%w: order has not been processed yet", ErrInvalidState)
	ErrPaymentExists         = fmt.Errorf("%w: payment already exists", ErrInvalidState)
	ErrAlreadyPaid           = fmt.Errorf("%w: order is already paid", ErrInvalidState)
	ErrNoPendingPayment      = fmt.Errorf("%w: no pending payment for order", ErrInvalidState)
	ErrStatusRegression      = fmt.Errorf("%w: order status cannot move backwards", ErrInvalidState)
	ErrConcurrentUpdate      = fmt.Errorf("%w: order was modified concurrently", ErrInvalidState)
	ErrRequestAccessExists   = fmt.Errorf("%w: request access already exists for job", ErrInvalidState)
	ErrRequestAccessAnswered = fmt.Errorf("%w: request access already answered", ErrInvalidState)
)

// UpstreamError reports a failed call to the payment gateway or geocoder.
// StatusCode is 0 when the upstream could not be reached.
type UpstreamError struct {
	Service    string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s upstream: status %d: %s", e.Service, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s upstream: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// isUniqueViolation checks for pgconn error code 23505 on the given constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
	}
	return false
}

// isOrderNumberConflict reports a race on the per-outlet order number.
func isOrderNumberConflict(err error) bool {
	return isUniqueViolation(err, "orders_outlet_id_order_number_key")
}
