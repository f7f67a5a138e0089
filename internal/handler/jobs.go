package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/washline/api/internal/database"
	"github.com/washline/api/internal/policy"
	"github.com/washline/api/internal/service"
)

// JobServicer defines the service methods needed by job handlers.
// Satisfied by *service.FulfillmentService; narrow interface for testability.
type JobServicer interface {
	ListJobs(ctx context.Context, actor policy.Actor, f service.JobFilter) ([]database.Job, error)
	AcceptJob(ctx context.Context, actor policy.Actor, jobID uuid.UUID) (database.Job, error)
	ConfirmJob(ctx context.Context, actor policy.Actor, jobID uuid.UUID, items []service.ItemQuantity) (*service.ConfirmJobResult, error)
	CreateRequestAccess(ctx context.Context, actor policy.Actor, jobID uuid.UUID, reason string) (database.RequestAccess, error)
}

// JobHandler handles washing, ironing and packing job endpoints.
type JobHandler struct {
	svc JobServicer
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(svc JobServicer) *JobHandler {
	return &JobHandler{svc: svc}
}

// RegisterRoutes registers job endpoints on the given Chi router.
// Expected to be mounted at /jobs
func (h *JobHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/{id}/accept", h.Accept)
	r.Post("/{id}/confirm", h.Confirm)
	r.Post("/{id}/request-access", h.RequestAccess)
}

// --- Request / Response types ---

type confirmJobRequest struct {
	Items []itemRequest `json:"items"`
}

type confirmJobResponse struct {
	Job      jobResponse       `json:"job"`
	Order    orderResponse     `json:"order"`
	NextJob  *jobResponse      `json:"next_job,omitempty"`
	Delivery *deliveryResponse `json:"delivery,omitempty"`
}

type requestAccessRequest struct {
	Reason string `json:"reason"`
}

type requestAccessResponse struct {
	ID         uuid.UUID `json:"id"`
	JobID      uuid.UUID `json:"job_id"`
	EmployeeID uuid.UUID `json:"employee_id"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason"`
}

func toRequestAccessResponse(ra database.RequestAccess) requestAccessResponse {
	return requestAccessResponse{
		ID:         ra.ID,
		JobID:      ra.JobID,
		EmployeeID: ra.EmployeeID,
		Status:     string(ra.Status),
		Reason:     ra.Reason,
	}
}

var (
	jobTypes   = map[string]bool{"WASHING": true, "IRONING": true, "PACKING": true}
	progresses = map[string]bool{"PENDING": true, "ONGOING": true, "COMPLETED": true}
)

// --- Handlers ---

// List returns jobs of an outlet. Workers always see their own outlet and
// job type; ?mine=true narrows to jobs they hold.
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	jobType := strings.ToUpper(q.Get("type"))
	if jobType != "" && !jobTypes[jobType] {
		writeError(w, http.StatusBadRequest, "invalid type")
		return
	}
	progress := strings.ToUpper(q.Get("progress"))
	if progress != "" && !progresses[progress] {
		writeError(w, http.StatusBadRequest, "invalid progress")
		return
	}
	outletID, ok := queryUUID(w, r, "outlet_id")
	if !ok {
		return
	}
	limit, offset := pagination(r)

	jobs, err := h.svc.ListJobs(r.Context(), actor, service.JobFilter{
		OutletID: outletID,
		Type:     jobType,
		Progress: progress,
		Mine:     q.Get("mine") == "true",
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toJobListResponse(jobs))
}

// Accept assigns a pending job to the caller.
func (h *JobHandler) Accept(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	jobID, ok := urlUUID(w, r, "id", "job ID")
	if !ok {
		return
	}

	job, err := h.svc.AcceptJob(r.Context(), actor, jobID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toJobResponse(job))
}

// Confirm completes an ongoing job with the worker's item count.
func (h *JobHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	jobID, ok := urlUUID(w, r, "id", "job ID")
	if !ok {
		return
	}

	var req confirmJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	items, msg := parseItems(req.Items)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	result, err := h.svc.ConfirmJob(r.Context(), actor, jobID, items)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := confirmJobResponse{
		Job:   toJobResponse(result.Job),
		Order: toOrderResponse(result.Order),
	}
	if result.NextJob != nil {
		j := toJobResponse(*result.NextJob)
		resp.NextJob = &j
	}
	if result.Delivery != nil {
		d := toDeliveryResponse(*result.Delivery)
		resp.Delivery = &d
	}
	writeJSON(w, http.StatusOK, resp)
}

// RequestAccess asks the outlet admin for access to an order the caller's
// job belongs to.
func (h *JobHandler) RequestAccess(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	jobID, ok := urlUUID(w, r, "id", "job ID")
	if !ok {
		return
	}

	var req requestAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Reason == "" {
		writeError(w, http.StatusBadRequest, "reason is required")
		return
	}

	ra, err := h.svc.CreateRequestAccess(r.Context(), actor, jobID, req.Reason)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRequestAccessResponse(ra))
}
