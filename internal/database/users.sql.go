package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `id, email, hashed_password, full_name, role, outlet_id, shift_id, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.HashedPassword,
		&i.FullName,
		&i.Role,
		&i.OutletID,
		&i.ShiftID,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (email, hashed_password, full_name, role, outlet_id, shift_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + userColumns

type CreateUserParams struct {
	Email          string
	HashedPassword string
	FullName       string
	Role           string
	OutletID       pgtype.UUID
	ShiftID        pgtype.UUID
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser,
		arg.Email,
		arg.HashedPassword,
		arg.FullName,
		arg.Role,
		arg.OutletID,
		arg.ShiftID,
	)
	return scanUser(row)
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT ` + userColumns + ` FROM users WHERE email = $1 AND is_active = TRUE`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByEmail, email))
}

const getUserByID = `-- name: GetUserByID :one
SELECT ` + userColumns + ` FROM users WHERE id = $1 AND is_active = TRUE`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByID, id))
}

const listEmployees = `-- name: ListEmployees :many
SELECT ` + userColumns + ` FROM users
WHERE role NOT IN ('SUPER_ADMIN', 'CUSTOMER')
  AND is_active = TRUE
  AND ($1::uuid IS NULL OR outlet_id = $1)
  AND ($2::text IS NULL OR role = $2)
ORDER BY full_name`

type ListEmployeesParams struct {
	OutletID pgtype.UUID
	Role     pgtype.Text
}

func (q *Queries) ListEmployees(ctx context.Context, arg ListEmployeesParams) ([]User, error) {
	rows, err := q.db.Query(ctx, listEmployees, arg.OutletID, arg.Role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []User{}
	for rows.Next() {
		i, err := scanUser(rows)
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

const getShift = `-- name: GetShift :one
SELECT id, name, starts_at, ends_at FROM shifts WHERE id = $1`

func (q *Queries) GetShift(ctx context.Context, id uuid.UUID) (Shift, error) {
	row := q.db.QueryRow(ctx, getShift, id)
	var i Shift
	err := row.Scan(&i.ID, &i.Name, &i.StartsAt, &i.EndsAt)
	return i, err
}

const listShifts = `-- name: ListShifts :many
SELECT id, name, starts_at, ends_at FROM shifts ORDER BY starts_at`

func (q *Queries) ListShifts(ctx context.Context) ([]Shift, error) {
	rows, err := q.db.Query(ctx, listShifts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Shift{}
	for rows.Next() {
		var i Shift
		if err := rows.Scan(&i.ID, &i.Name, &i.StartsAt, &i.EndsAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
