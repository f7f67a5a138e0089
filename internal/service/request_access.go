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
)

// CreateRequestAccess lets the worker on an ongoing job ask to view its order
// beyond the job itself. One request per job.
func (s *FulfillmentService) CreateRequestAccess(ctx context.Context, actor policy.Actor, jobID uuid.UUID, reason string) (database.RequestAccess, error) {
	var ra database.RequestAccess
	err := s.inTx(ctx, func(store FulfillmentStore, out *outbox) error {
		job, err := getJob(ctx, store, jobID)
		if err != nil {
			return err
		}
		if !policy.Can(actor, policy.ActionRequestAccess, jobResource(job)) {
			return ErrForbidden
		}
		if job.Progress != database.ProgressONGOING {
			return ErrJobNotOngoing
		}

		ra, err = store.CreateRequestAccess(ctx, database.CreateRequestAccessParams{
			JobID:      job.ID,
			EmployeeID: actor.UserID,
			Reason:     reason,
		})
		if err != nil {
			if isUniqueViolation(err, "request_accesses_job_id_key") {
				return ErrRequestAccessExists
			}
			return fmt.Errorf("create request access: %w", err)
		}

		out.add(notify.Outlet(job.OutletID, enum.RoleOutletAdmin),
			"Access requested",
			fmt.Sprintf("A %s worker requested access to an order.", job.Type))
		return nil
	})
	return ra, err
}

// RespondRequestAccess accepts or rejects a pending request, once.
func (s *FulfillmentService) RespondRequestAccess(ctx context.Context, actor policy.Actor, id uuid.UUID, accept bool) (database.RequestAccess, error) {
	status := database.RequestAccessStatusREJECTED
	if accept {
		status = database.RequestAccessStatusACCEPTED
	}

	var ra database.RequestAccess
	err := s.inTx(ctx, func(store FulfillmentStore, out *outbox) error {
		current, err := store.GetRequestAccess(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrRequestNotFound
			}
			return fmt.Errorf("get request access: %w", err)
		}
		job, err := getJob(ctx, store, current.JobID)
		if err != nil {
			return err
		}
		if !policy.Can(actor, policy.ActionRespondRequestAccess, policy.Resource{OutletID: job.OutletID}) {
			return ErrForbidden
		}
		if current.Status != database.RequestAccessStatusPENDING {
			return ErrRequestAccessAnswered
		}

		ra, err = store.RespondRequestAccess(ctx, database.RespondRequestAccessParams{ID: id, Status: status})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrRequestAccessAnswered
			}
			return fmt.Errorf("respond request access: %w", err)
		}

		if role := policy.RoleForJobType(string(job.Type)); role != "" {
			out.add(notify.Outlet(job.OutletID, role),
				"Access request answered",
				fmt.Sprintf("An access request for a %s job was %s.", job.Type, status))
		}
		return nil
	})
	return ra, err
}
