package database

import (
	"context"

	"github.com/google/uuid"
)

const outletColumns = `id, name, latitude, longitude, address, city, region, suburb, postal_code, created_at, updated_at`

func scanOutlet(row interface{ Scan(...any) error }) (Outlet, error) {
	var i Outlet
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Latitude,
		&i.Longitude,
		&i.Address,
		&i.City,
		&i.Region,
		&i.Suburb,
		&i.PostalCode,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) collectOutlets(ctx context.Context, sql string, args ...interface{}) ([]Outlet, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Outlet{}
	for rows.Next() {
		i, err := scanOutlet(rows)
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

const createOutlet = `-- name: CreateOutlet :one
INSERT INTO outlets (name, latitude, longitude, address, city, region, suburb, postal_code)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + outletColumns

type CreateOutletParams struct {
	Name       string
	Latitude   float64
	Longitude  float64
	Address    string
	City       string
	Region     string
	Suburb     string
	PostalCode string
}

func (q *Queries) CreateOutlet(ctx context.Context, arg CreateOutletParams) (Outlet, error) {
	row := q.db.QueryRow(ctx, createOutlet,
		arg.Name,
		arg.Latitude,
		arg.Longitude,
		arg.Address,
		arg.City,
		arg.Region,
		arg.Suburb,
		arg.PostalCode,
	)
	return scanOutlet(row)
}

const updateOutlet = `-- name: UpdateOutlet :one
UPDATE outlets
SET name = $2, latitude = $3, longitude = $4, address = $5, city = $6,
    region = $7, suburb = $8, postal_code = $9, updated_at = now()
WHERE id = $1
RETURNING ` + outletColumns

type UpdateOutletParams struct {
	ID         uuid.UUID
	Name       string
	Latitude   float64
	Longitude  float64
	Address    string
	City       string
	Region     string
	Suburb     string
	PostalCode string
}

func (q *Queries) UpdateOutlet(ctx context.Context, arg UpdateOutletParams) (Outlet, error) {
	row := q.db.QueryRow(ctx, updateOutlet,
		arg.ID,
		arg.Name,
		arg.Latitude,
		arg.Longitude,
		arg.Address,
		arg.City,
		arg.Region,
		arg.Suburb,
		arg.PostalCode,
	)
	return scanOutlet(row)
}

const getOutlet = `-- name: GetOutlet :one
SELECT ` + outletColumns + ` FROM outlets WHERE id = $1`

func (q *Queries) GetOutlet(ctx context.Context, id uuid.UUID) (Outlet, error) {
	return scanOutlet(q.db.QueryRow(ctx, getOutlet, id))
}

const listOutlets = `-- name: ListOutlets :many
SELECT ` + outletColumns + ` FROM outlets ORDER BY name`

func (q *Queries) ListOutlets(ctx context.Context) ([]Outlet, error) {
	return q.collectOutlets(ctx, listOutlets)
}

const listOutletsInBox = `-- name: ListOutletsInBox :many
SELECT ` + outletColumns + ` FROM outlets
WHERE latitude BETWEEN $1 AND $2
  AND longitude BETWEEN $3 AND $4`

type ListOutletsInBoxParams struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

func (q *Queries) ListOutletsInBox(ctx context.Context, arg ListOutletsInBoxParams) ([]Outlet, error) {
	return q.collectOutlets(ctx, listOutletsInBox, arg.MinLat, arg.MaxLat, arg.MinLon, arg.MaxLon)
}
