package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const jobColumns = `id, order_id, outlet_id, type, progress, employee_id, created_at, updated_at`

func scanJob(row interface{ Scan(...any) error }) (Job, error) {
	var i Job
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.OutletID,
		&i.Type,
		&i.Progress,
		&i.EmployeeID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createJob = `-- name: CreateJob :one
INSERT INTO jobs (order_id, outlet_id, type)
VALUES ($1, $2, $3)
RETURNING ` + jobColumns

type CreateJobParams struct {
	OrderID  uuid.UUID
	OutletID uuid.UUID
	Type     JobType
}

func (q *Queries) CreateJob(ctx context.Context, arg CreateJobParams) (Job, error) {
	return scanJob(q.db.QueryRow(ctx, createJob, arg.OrderID, arg.OutletID, arg.Type))
}

const getJob = `-- name: GetJob :one
SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

func (q *Queries) GetJob(ctx context.Context, id uuid.UUID) (Job, error) {
	return scanJob(q.db.QueryRow(ctx, getJob, id))
}

const claimJob = `-- name: ClaimJob :one
UPDATE jobs SET progress = 'ONGOING', employee_id = $2, updated_at = now()
WHERE id = $1 AND progress = 'PENDING'
RETURNING ` + jobColumns

// ClaimJobParams.EmployeeID stays null when a SuperAdmin dispatches the job.
type ClaimJobParams struct {
	ID         uuid.UUID
	EmployeeID pgtype.UUID
}

// ClaimJob returns pgx.ErrNoRows when the job is no longer pending.
func (q *Queries) ClaimJob(ctx context.Context, arg ClaimJobParams) (Job, error) {
	return scanJob(q.db.QueryRow(ctx, claimJob, arg.ID, arg.EmployeeID))
}

const completeJob = `-- name: CompleteJob :one
UPDATE jobs SET progress = 'COMPLETED', employee_id = COALESCE(employee_id, $2), updated_at = now()
WHERE id = $1 AND progress = 'ONGOING' AND ($2::uuid IS NULL OR employee_id IS NULL OR employee_id = $2)
RETURNING ` + jobColumns

// CompleteJobParams.EmployeeID is left null for a SuperAdmin override. A
// worker completing an unassigned job becomes its assignee.
type CompleteJobParams struct {
	ID         uuid.UUID
	EmployeeID pgtype.UUID
}

func (q *Queries) CompleteJob(ctx context.Context, arg CompleteJobParams) (Job, error) {
	return scanJob(q.db.QueryRow(ctx, completeJob, arg.ID, arg.EmployeeID))
}

const listJobs = `-- name: ListJobs :many
SELECT ` + jobColumns + ` FROM jobs
WHERE outlet_id = $1
  AND ($2::text IS NULL OR type = $2)
  AND ($3::text IS NULL OR progress = $3)
  AND ($4::uuid IS NULL OR employee_id = $4)
ORDER BY created_at
LIMIT $5 OFFSET $6`

type ListJobsParams struct {
	OutletID   uuid.UUID
	Type       pgtype.Text
	Progress   pgtype.Text
	EmployeeID pgtype.UUID
	Limit      int32
	Offset     int32
}

func (q *Queries) ListJobs(ctx context.Context, arg ListJobsParams) ([]Job, error) {
	rows, err := q.db.Query(ctx, listJobs,
		arg.OutletID,
		arg.Type,
		arg.Progress,
		arg.EmployeeID,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Job{}
	for rows.Next() {
		i, err := scanJob(rows)
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

const listJobsByOrder = `-- name: ListJobsByOrder :many
SELECT ` + jobColumns + ` FROM jobs WHERE order_id = $1 ORDER BY created_at`

func (q *Queries) ListJobsByOrder(ctx context.Context, orderID uuid.UUID) ([]Job, error) {
	rows, err := q.db.Query(ctx, listJobsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Job{}
	for rows.Next() {
		i, err := scanJob(rows)
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
