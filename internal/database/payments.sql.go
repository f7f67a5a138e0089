package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const paymentColumns = `id, order_id, method, status, amount, receipt_url, payment_url, paid_at, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (Payment, error) {
	var i Payment
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.Method,
		&i.Status,
		&i.Amount,
		&i.ReceiptURL,
		&i.PaymentURL,
		&i.PaidAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createPayment = `-- name: CreatePayment :one
INSERT INTO payments (order_id, method, status, amount, receipt_url, payment_url, paid_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + paymentColumns

type CreatePaymentParams struct {
	OrderID    uuid.UUID
	Method     PaymentMethod
	Status     PaymentStatus
	Amount     pgtype.Numeric
	ReceiptURL pgtype.Text
	PaymentURL pgtype.Text
	PaidAt     pgtype.Timestamptz
}

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	row := q.db.QueryRow(ctx, createPayment,
		arg.OrderID,
		arg.Method,
		arg.Status,
		arg.Amount,
		arg.ReceiptURL,
		arg.PaymentURL,
		arg.PaidAt,
	)
	return scanPayment(row)
}

const getPaymentByOrder = `-- name: GetPaymentByOrder :one
SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1`

func (q *Queries) GetPaymentByOrder(ctx context.Context, orderID uuid.UUID) (Payment, error) {
	return scanPayment(q.db.QueryRow(ctx, getPaymentByOrder, orderID))
}

const markPaymentPaid = `-- name: MarkPaymentPaid :one
UPDATE payments SET status = 'PAID', paid_at = now(), updated_at = now()
WHERE order_id = $1 AND status = 'PENDING'
RETURNING ` + paymentColumns

func (q *Queries) MarkPaymentPaid(ctx context.Context, orderID uuid.UUID) (Payment, error) {
	return scanPayment(q.db.QueryRow(ctx, markPaymentPaid, orderID))
}
