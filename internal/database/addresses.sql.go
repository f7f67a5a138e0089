package database

import (
	"context"

	"github.com/google/uuid"
)

const addressColumns = `id, customer_id, label, address, latitude, longitude, is_primary, created_at`

func scanAddress(row interface{ Scan(...any) error }) (Address, error) {
	var i Address
	err := row.Scan(
		&i.ID,
		&i.CustomerID,
		&i.Label,
		&i.Address,
		&i.Latitude,
		&i.Longitude,
		&i.IsPrimary,
		&i.CreatedAt,
	)
	return i, err
}

const createAddress = `-- name: CreateAddress :one
INSERT INTO addresses (customer_id, label, address, latitude, longitude, is_primary)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + addressColumns

type CreateAddressParams struct {
	CustomerID uuid.UUID
	Label      string
	Address    string
	Latitude   float64
	Longitude  float64
	IsPrimary  bool
}

func (q *Queries) CreateAddress(ctx context.Context, arg CreateAddressParams) (Address, error) {
	row := q.db.QueryRow(ctx, createAddress,
		arg.CustomerID,
		arg.Label,
		arg.Address,
		arg.Latitude,
		arg.Longitude,
		arg.IsPrimary,
	)
	return scanAddress(row)
}

const getAddressForCustomer = `-- name: GetAddressForCustomer :one
SELECT ` + addressColumns + ` FROM addresses WHERE id = $1 AND customer_id = $2`

type GetAddressForCustomerParams struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
}

func (q *Queries) GetAddressForCustomer(ctx context.Context, arg GetAddressForCustomerParams) (Address, error) {
	return scanAddress(q.db.QueryRow(ctx, getAddressForCustomer, arg.ID, arg.CustomerID))
}

const listAddressesByCustomer = `-- name: ListAddressesByCustomer :many
SELECT ` + addressColumns + ` FROM addresses
WHERE customer_id = $1
ORDER BY is_primary DESC, created_at`

func (q *Queries) ListAddressesByCustomer(ctx context.Context, customerID uuid.UUID) ([]Address, error) {
	rows, err := q.db.Query(ctx, listAddressesByCustomer, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Address{}
	for rows.Next() {
		i, err := scanAddress(rows)
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

const clearPrimaryAddress = `-- name: ClearPrimaryAddress :exec
UPDATE addresses SET is_primary = FALSE WHERE customer_id = $1 AND is_primary = TRUE`

func (q *Queries) ClearPrimaryAddress(ctx context.Context, customerID uuid.UUID) error {
	_, err := q.db.Exec(ctx, clearPrimaryAddress, customerID)
	return err
}

const listLaundryItems = `-- name: ListLaundryItems :many
SELECT id, name FROM laundry_items ORDER BY name`

func (q *Queries) ListLaundryItems(ctx context.Context) ([]LaundryItem, error) {
	rows, err := q.db.Query(ctx, listLaundryItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []LaundryItem{}
	for rows.Next() {
		var i LaundryItem
		if err := rows.Scan(&i.ID, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countLaundryItems = `-- name: CountLaundryItems :one
SELECT count(*) FROM laundry_items WHERE id = ANY($1::uuid[])`

func (q *Queries) CountLaundryItems(ctx context.Context, ids []uuid.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countLaundryItems, ids)
	var count int64
	err := row.Scan(&count)
	return count, err
}
