package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/washline/api/internal/database"
	"github.com/washline/api/internal/enum"
	"github.com/washline/api/internal/notify"
	"github.com/washline/api/internal/policy"
	"go.uber.org/zap"
)

func jobResource(job database.Job) policy.Resource {
	return policy.Resource{
		OutletID:   job.OutletID,
		JobType:    string(job.Type),
		AssigneeID: uuidOrNil(job.EmployeeID),
	}
}

func getJob(ctx context.Context, store FulfillmentStore, id uuid.UUID) (database.Job, error) {
	job, err := store.GetJob(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Job{}, ErrJobNotFound
		}
		return database.Job{}, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// AcceptJob claims a pending job. A super admin dispatches it without
// becoming the assignee.
func (s *FulfillmentService) AcceptJob(ctx context.Context, actor policy.Actor, jobID uuid.UUID) (database.Job, error) {
	var claimed database.Job
	err := s.inTx(ctx, func(store FulfillmentStore, _ *outbox) error {
		job, err := getJob(ctx, store, jobID)
		if err != nil {
			return err
		}
		if !policy.Can(actor, policy.ActionAcceptJob, jobResource(job)) {
			return ErrForbidden
		}
		if job.Progress != database.ProgressPENDING {
			return ErrJobNotPending
		}

		claimed, err = store.ClaimJob(ctx, database.ClaimJobParams{
			ID:         job.ID,
			EmployeeID: assigneeParam(actor),
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrJobNotPending
			}
			return fmt.Errorf("claim job: %w", err)
		}
		return nil
	})
	if err != nil {
		return database.Job{}, err
	}

	s.logger.Info("job accepted",
		zap.String("job_id", claimed.ID.String()),
		zap.String("type", string(claimed.Type)),
		zap.String("actor_id", actor.UserID.String()),
	)
	return claimed, nil
}

type ConfirmJobResult struct {
	Job      database.Job       `json:"job"`
	Order    database.Order     `json:"order"`
	NextJob  *database.Job      `json:"next_job,omitempty"`
	Delivery *database.Delivery `json:"delivery,omitempty"`
}

// ConfirmJob completes an ongoing job after checking the worker's item count
// against the intake record, then advances the order to its next stage.
func (s *FulfillmentService) ConfirmJob(ctx context.Context, actor policy.Actor, jobID uuid.UUID, items []ItemQuantity) (*ConfirmJobResult, error) {
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}

	var result ConfirmJobResult
	err := s.inTx(ctx, func(store FulfillmentStore, out *outbox) error {
		job, err := getJob(ctx, store, jobID)
		if err != nil {
			return err
		}
		res := jobResource(job)
		if !policy.Can(actor, policy.ActionAcceptJob, res) {
			return ErrForbidden
		}
		if job.Progress != database.ProgressONGOING {
			return ErrJobNotOngoing
		}
		if !policy.Can(actor, policy.ActionConfirmJob, res) {
			return ErrForbidden
		}

		order, err := store.GetOrderForUpdate(ctx, job.OrderID)
		if err != nil {
			return fmt.Errorf("get order: %w", err)
		}

		recorded, err := store.ListOrderItemsByOrder(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("list order items: %w", err)
		}
		if !MatchItems(recorded, items) {
			return ErrItemsMismatch
		}

		tr, err := Advance(job.Type, paymentOutstanding(order))
		if err != nil {
			return err
		}

		completed, err := store.CompleteJob(ctx, database.CompleteJobParams{
			ID:         job.ID,
			EmployeeID: assigneeParam(actor),
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrJobNotOngoing
			}
			return fmt.Errorf("complete job: %w", err)
		}

		order, err = s.advanceOrder(ctx, store, order, tr.NextStatus)
		if err != nil {
			return err
		}

		if tr.CreatesJob != "" {
			next, err := store.CreateJob(ctx, database.CreateJobParams{
				OrderID:  order.ID,
				OutletID: order.OutletID,
				Type:     tr.CreatesJob,
			})
			if err != nil {
				return fmt.Errorf("create %s job: %w", tr.CreatesJob, err)
			}
			result.NextJob = &next
		}

		if tr.SetsPayable {
			order, err = store.SetOrderPayable(ctx, database.SetOrderPayableParams{ID: order.ID, IsPayable: true})
			if err != nil {
				return fmt.Errorf("set order payable: %w", err)
			}
		}

		if tr.CreatesDelivery == database.DeliveryTypeDROPOFF {
			d, err := s.createDropoff(ctx, store, order)
			if err != nil {
				return err
			}
			result.Delivery = &d
		}

		title, desc := transitionMessage(order, tr)
		if tr.NotifyCustomer {
			out.add(notify.Customer(order.CustomerID), title, desc)
		}
		out.addOutletRoles(order.OutletID, tr.NotifyRoles, title, desc)

		result.Job = completed
		result.Order = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func transitionMessage(order database.Order, tr Transition) (string, string) {
	switch tr.NextStatus {
	case database.OrderStatusONPROGRESSIRONING:
		return "New ironing job", fmt.Sprintf("Order %s finished washing and is ready for ironing.", order.OrderNumber)
	case database.OrderStatusONPROGRESSPACKING:
		return "New packing job", fmt.Sprintf("Order %s finished ironing and is ready for packing.", order.OrderNumber)
	case database.OrderStatusWAITINGFORPAYMENT:
		return "Payment required", fmt.Sprintf("Order %s is packed. Please pay %s to schedule the delivery.",
			order.OrderNumber, numericToDecimal(order.Price).StringFixed(2))
	case database.OrderStatusWAITINGFORDROPOFF:
		return "Ready for delivery", fmt.Sprintf("Order %s is packed and waiting for a dropoff driver.", order.OrderNumber)
	}
	return "Order updated", fmt.Sprintf("Order %s is now %s.", order.OrderNumber, tr.NextStatus)
}

// JobFilter narrows ListJobs. OutletID and Type apply to admins only; workers
// always see their own outlet and job type.
type JobFilter struct {
	OutletID uuid.UUID
	Type     string
	Progress string
	Mine     bool
	Limit    int32
	Offset   int32
}

func (s *FulfillmentService) ListJobs(ctx context.Context, actor policy.Actor, f JobFilter) ([]database.Job, error) {
	params := database.ListJobsParams{
		Type:     optionalText(f.Type),
		Progress: optionalText(f.Progress),
		Limit:    f.Limit,
		Offset:   f.Offset,
	}

	switch {
	case actor.IsSuperAdmin():
		if f.OutletID == uuid.Nil {
			return nil, ErrOutletRequired
		}
		params.OutletID = f.OutletID
	case actor.Role == enum.RoleOutletAdmin:
		params.OutletID = actor.OutletID
	case isWorker(actor.Role):
		if f.Type != "" && f.Type != jobTypeForRole(actor.Role) {
			return nil, ErrForbidden
		}
		params.OutletID = actor.OutletID
		params.Type = optionalText(jobTypeForRole(actor.Role))
		params.EmployeeID = optionalUUID(actor.UserID, f.Mine)
	default:
		return nil, ErrForbidden
	}

	var jobs []database.Job
	err := s.inTx(ctx, func(store FulfillmentStore, _ *outbox) error {
		var err error
		jobs, err = store.ListJobs(ctx, params)
		if err != nil {
			return fmt.Errorf("list jobs: %w", err)
		}
		return nil
	})
	return jobs, err
}

func isWorker(role string) bool {
	return jobTypeForRole(role) != ""
}

func jobTypeForRole(role string) string {
	switch role {
	case enum.RoleWashingWorker:
		return string(database.JobTypeWASHING)
	case enum.RoleIroningWorker:
		return string(database.JobTypeIRONING)
	case enum.RolePackingWorker:
		return string(database.JobTypePACKING)
	}
	return ""
}
