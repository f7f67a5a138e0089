package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const deliveryColumns = `id, order_id, outlet_id, type, progress, driver_id, distance_km, created_at, updated_at`

func scanDelivery(row interface{ Scan(...any) error }) (Delivery, error) {
	var i Delivery
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.OutletID,
		&i.Type,
		&i.Progress,
		&i.DriverID,
		&i.DistanceKm,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createDelivery = `-- name: CreateDelivery :one
INSERT INTO deliveries (order_id, outlet_id, type, distance_km)
VALUES ($1, $2, $3, $4)
RETURNING ` + deliveryColumns

type CreateDeliveryParams struct {
	OrderID    uuid.UUID
	OutletID   uuid.UUID
	Type       DeliveryType
	DistanceKm float64
}

func (q *Queries) CreateDelivery(ctx context.Context, arg CreateDeliveryParams) (Delivery, error) {
	return scanDelivery(q.db.QueryRow(ctx, createDelivery, arg.OrderID, arg.OutletID, arg.Type, arg.DistanceKm))
}

const getDelivery = `-- name: GetDelivery :one
SELECT ` + deliveryColumns + ` FROM deliveries WHERE id = $1`

func (q *Queries) GetDelivery(ctx context.Context, id uuid.UUID) (Delivery, error) {
	return scanDelivery(q.db.QueryRow(ctx, getDelivery, id))
}

const listDeliveriesByOrder = `-- name: ListDeliveriesByOrder :many
SELECT ` + deliveryColumns + ` FROM deliveries WHERE order_id = $1 ORDER BY created_at`

func (q *Queries) ListDeliveriesByOrder(ctx context.Context, orderID uuid.UUID) ([]Delivery, error) {
	rows, err := q.db.Query(ctx, listDeliveriesByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Delivery{}
	for rows.Next() {
		i, err := scanDelivery(rows)
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

const claimDelivery = `-- name: ClaimDelivery :one
UPDATE deliveries SET progress = 'ONGOING', driver_id = $2, updated_at = now()
WHERE id = $1 AND progress = 'PENDING'
RETURNING ` + deliveryColumns

type ClaimDeliveryParams struct {
	ID       uuid.UUID
	DriverID pgtype.UUID
}

// ClaimDelivery returns pgx.ErrNoRows when another driver claimed it first.
func (q *Queries) ClaimDelivery(ctx context.Context, arg ClaimDeliveryParams) (Delivery, error) {
	return scanDelivery(q.db.QueryRow(ctx, claimDelivery, arg.ID, arg.DriverID))
}

const completeDelivery = `-- name: CompleteDelivery :one
UPDATE deliveries SET progress = 'COMPLETED', updated_at = now()
WHERE id = $1 AND progress = 'ONGOING' AND ($2::uuid IS NULL OR driver_id = $2)
RETURNING ` + deliveryColumns

type CompleteDeliveryParams struct {
	ID       uuid.UUID
	DriverID pgtype.UUID
}

func (q *Queries) CompleteDelivery(ctx context.Context, arg CompleteDeliveryParams) (Delivery, error) {
	return scanDelivery(q.db.QueryRow(ctx, completeDelivery, arg.ID, arg.DriverID))
}

const listDeliveries = `-- name: ListDeliveries :many
SELECT ` + deliveryColumns + ` FROM deliveries
WHERE outlet_id = $1
  AND ($2::text IS NULL OR progress = $2)
  AND ($3::uuid IS NULL OR driver_id = $3)
ORDER BY created_at
LIMIT $4 OFFSET $5`

type ListDeliveriesParams struct {
	OutletID uuid.UUID
	Progress pgtype.Text
	DriverID pgtype.UUID
	Limit    int32
	Offset   int32
}

func (q *Queries) ListDeliveries(ctx context.Context, arg ListDeliveriesParams) ([]Delivery, error) {
	rows, err := q.db.Query(ctx, listDeliveries,
		arg.OutletID,
		arg.Progress,
		arg.DriverID,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Delivery{}
	for rows.Next() {
		i, err := scanDelivery(rows)
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
