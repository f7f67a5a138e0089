package database

import (
	"context"

	"github.com/google/uuid"
)

const requestAccessColumns = `id, job_id, employee_id, status, reason, created_at, updated_at`

func scanRequestAccess(row interface{ Scan(...any) error }) (RequestAccess, error) {
	var i RequestAccess
	err := row.Scan(
		&i.ID,
		&i.JobID,
		&i.EmployeeID,
		&i.Status,
		&i.Reason,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createRequestAccess = `-- name: CreateRequestAccess :one
INSERT INTO request_accesses (job_id, employee_id, reason)
VALUES ($1, $2, $3)
RETURNING ` + requestAccessColumns

type CreateRequestAccessParams struct {
	JobID      uuid.UUID
	EmployeeID uuid.UUID
	Reason     string
}

func (q *Queries) CreateRequestAccess(ctx context.Context, arg CreateRequestAccessParams) (RequestAccess, error) {
	return scanRequestAccess(q.db.QueryRow(ctx, createRequestAccess, arg.JobID, arg.EmployeeID, arg.Reason))
}

const getRequestAccess = `-- name: GetRequestAccess :one
SELECT ` + requestAccessColumns + ` FROM request_accesses WHERE id = $1`

func (q *Queries) GetRequestAccess(ctx context.Context, id uuid.UUID) (RequestAccess, error) {
	return scanRequestAccess(q.db.QueryRow(ctx, getRequestAccess, id))
}

const respondRequestAccess = `-- name: RespondRequestAccess :one
UPDATE request_accesses SET status = $2, updated_at = now()
WHERE id = $1 AND status = 'PENDING'
RETURNING ` + requestAccessColumns

type RespondRequestAccessParams struct {
	ID     uuid.UUID
	Status RequestAccessStatus
}

// RespondRequestAccess returns pgx.ErrNoRows when the request was already answered.
func (q *Queries) RespondRequestAccess(ctx context.Context, arg RespondRequestAccessParams) (RequestAccess, error) {
	return scanRequestAccess(q.db.QueryRow(ctx, respondRequestAccess, arg.ID, arg.Status))
}

const hasAcceptedRequestAccess = `-- name: HasAcceptedRequestAccess :one
SELECT EXISTS (
    SELECT 1 FROM request_accesses ra
    JOIN jobs j ON j.id = ra.job_id
    WHERE j.order_id = $1 AND ra.employee_id = $2 AND ra.status = 'ACCEPTED'
)`

type HasAcceptedRequestAccessParams struct {
	OrderID    uuid.UUID
	EmployeeID uuid.UUID
}

func (q *Queries) HasAcceptedRequestAccess(ctx context.Context, arg HasAcceptedRequestAccessParams) (bool, error) {
	row := q.db.QueryRow(ctx, hasAcceptedRequestAccess, arg.OrderID, arg.EmployeeID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}
