package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_number, customer_id, outlet_id, address_id, current_status, progress_seq,
    weight_kg, laundry_fee, delivery_fee, price, is_payable, is_paid, is_completed, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderNumber,
		&i.CustomerID,
		&i.OutletID,
		&i.AddressID,
		&i.CurrentStatus,
		&i.ProgressSeq,
		&i.WeightKg,
		&i.LaundryFee,
		&i.DeliveryFee,
		&i.Price,
		&i.IsPayable,
		&i.IsPaid,
		&i.IsCompleted,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getNextOrderNumber = `-- name: GetNextOrderNumber :one
SELECT (COALESCE(MAX(CAST(substring(order_number FROM '[0-9]+$') AS INTEGER)), 0) + 1)::int4
FROM orders
WHERE outlet_id = $1`

func (q *Queries) GetNextOrderNumber(ctx context.Context, outletID uuid.UUID) (int32, error) {
	row := q.db.QueryRow(ctx, getNextOrderNumber, outletID)
	var next int32
	err := row.Scan(&next)
	return next, err
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (order_number, customer_id, outlet_id, address_id, current_status, progress_seq, delivery_fee, price)
VALUES ($1, $2, $3, $4, $5, 1, $6, $6)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	OrderNumber   string
	CustomerID    uuid.UUID
	OutletID      uuid.UUID
	AddressID     uuid.UUID
	CurrentStatus OrderStatus
	DeliveryFee   pgtype.Numeric
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.OrderNumber,
		arg.CustomerID,
		arg.OutletID,
		arg.AddressID,
		arg.CurrentStatus,
		arg.DeliveryFee,
	)
	return scanOrder(row)
}

const getOrder = `-- name: GetOrder :one
SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderForUpdate = `-- name: GetOrderForUpdate :one
SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

// GetOrderForUpdate locks the order row until the surrounding transaction ends.
func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, id))
}

const listOrders = `-- name: ListOrders :many
SELECT ` + orderColumns + ` FROM orders
WHERE ($1::uuid IS NULL OR customer_id = $1)
  AND ($2::uuid IS NULL OR outlet_id = $2)
  AND ($3::text IS NULL OR current_status = $3)
ORDER BY created_at DESC
LIMIT $4 OFFSET $5`

type ListOrdersParams struct {
	CustomerID pgtype.UUID
	OutletID   pgtype.UUID
	Status     pgtype.Text
	Limit      int32
	Offset     int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders,
		arg.CustomerID,
		arg.OutletID,
		arg.Status,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const advanceOrderStatus = `-- name: AdvanceOrderStatus :one
UPDATE orders
SET current_status = $3, progress_seq = progress_seq + 1, updated_at = now()
WHERE id = $1 AND current_status = $2
RETURNING ` + orderColumns

type AdvanceOrderStatusParams struct {
	ID   uuid.UUID
	From OrderStatus
	To   OrderStatus
}

// AdvanceOrderStatus moves the order to To only if it is still in From.
// Returns pgx.ErrNoRows when another writer got there first.
func (q *Queries) AdvanceOrderStatus(ctx context.Context, arg AdvanceOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, advanceOrderStatus, arg.ID, arg.From, arg.To))
}

const setOrderFees = `-- name: SetOrderFees :one
UPDATE orders
SET weight_kg = $2, laundry_fee = $3, price = $3 + delivery_fee, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type SetOrderFeesParams struct {
	ID         uuid.UUID
	WeightKg   pgtype.Numeric
	LaundryFee pgtype.Numeric
}

func (q *Queries) SetOrderFees(ctx context.Context, arg SetOrderFeesParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, setOrderFees, arg.ID, arg.WeightKg, arg.LaundryFee))
}

const setOrderPayable = `-- name: SetOrderPayable :one
UPDATE orders SET is_payable = $2, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type SetOrderPayableParams struct {
	ID        uuid.UUID
	IsPayable bool
}

func (q *Queries) SetOrderPayable(ctx context.Context, arg SetOrderPayableParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, setOrderPayable, arg.ID, arg.IsPayable))
}

const markOrderPaid = `-- name: MarkOrderPaid :one
UPDATE orders SET is_paid = TRUE, is_payable = FALSE, updated_at = now()
WHERE id = $1 AND is_paid = FALSE
RETURNING ` + orderColumns

// MarkOrderPaid returns pgx.ErrNoRows if the order was already paid.
func (q *Queries) MarkOrderPaid(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, markOrderPaid, id))
}

const completeOrder = `-- name: CompleteOrder :one
UPDATE orders SET is_completed = TRUE, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

func (q *Queries) CompleteOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, completeOrder, id))
}

const createOrderProgress = `-- name: CreateOrderProgress :one
INSERT INTO order_progress (order_id, seq, status)
VALUES ($1, $2, $3)
RETURNING id, order_id, seq, status, created_at`

type CreateOrderProgressParams struct {
	OrderID uuid.UUID
	Seq     int32
	Status  OrderStatus
}

func (q *Queries) CreateOrderProgress(ctx context.Context, arg CreateOrderProgressParams) (OrderProgress, error) {
	row := q.db.QueryRow(ctx, createOrderProgress, arg.OrderID, arg.Seq, arg.Status)
	var i OrderProgress
	err := row.Scan(&i.ID, &i.OrderID, &i.Seq, &i.Status, &i.CreatedAt)
	return i, err
}

const listOrderProgress = `-- name: ListOrderProgress :many
SELECT id, order_id, seq, status, created_at FROM order_progress
WHERE order_id = $1
ORDER BY seq`

func (q *Queries) ListOrderProgress(ctx context.Context, orderID uuid.UUID) ([]OrderProgress, error) {
	rows, err := q.db.Query(ctx, listOrderProgress, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderProgress{}
	for rows.Next() {
		var i OrderProgress
		if err := rows.Scan(&i.ID, &i.OrderID, &i.Seq, &i.Status, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createOrderItem = `-- name: CreateOrderItem :one
INSERT INTO order_items (order_id, laundry_item_id, quantity)
VALUES ($1, $2, $3)
RETURNING id, order_id, laundry_item_id, quantity`

type CreateOrderItemParams struct {
	OrderID       uuid.UUID
	LaundryItemID uuid.UUID
	Quantity      int32
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem, arg.OrderID, arg.LaundryItemID, arg.Quantity)
	var i OrderItem
	err := row.Scan(&i.ID, &i.OrderID, &i.LaundryItemID, &i.Quantity)
	return i, err
}

const listOrderItemsByOrder = `-- name: ListOrderItemsByOrder :many
SELECT id, order_id, laundry_item_id, quantity FROM order_items
WHERE order_id = $1`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderItem{}
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(&i.ID, &i.OrderID, &i.LaundryItemID, &i.Quantity); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
