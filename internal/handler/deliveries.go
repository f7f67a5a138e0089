package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/washline/api/internal/database"
	"github.com/washline/api/internal/policy"
	"github.com/washline/api/internal/service"
)

// DeliveryServicer defines the service methods needed by delivery handlers.
// Satisfied by *service.FulfillmentService; narrow interface for testability.
type DeliveryServicer interface {
	ListDeliveries(ctx context.Context, actor policy.Actor, f service.DeliveryFilter) ([]database.Delivery, error)
	UpdateDelivery(ctx context.Context, actor policy.Actor, deliveryID uuid.UUID) (*service.DeliveryResult, error)
}

// DeliveryHandler handles pickup and dropoff endpoints.
type DeliveryHandler struct {
	svc DeliveryServicer
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(svc DeliveryServicer) *DeliveryHandler {
	return &DeliveryHandler{svc: svc}
}

// RegisterRoutes registers delivery endpoints on the given Chi router.
// Expected to be mounted at /deliveries
func (h *DeliveryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/{id}/update", h.Update)
}

type deliveryResultResponse struct {
	Delivery deliveryResponse `json:"delivery"`
	Order    orderResponse    `json:"order"`
}

func (h *DeliveryHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
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

	deliveries, err := h.svc.ListDeliveries(r.Context(), actor, service.DeliveryFilter{
		OutletID: outletID,
		Progress: progress,
		Mine:     q.Get("mine") == "true",
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toDeliveryListResponse(deliveries))
}

// Update moves a delivery one step: a pending delivery is claimed by the
// caller, an ongoing one is completed.
func (h *DeliveryHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	deliveryID, ok := urlUUID(w, r, "id", "delivery ID")
	if !ok {
		return
	}

	result, err := h.svc.UpdateDelivery(r.Context(), actor, deliveryID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, deliveryResultResponse{
		Delivery: toDeliveryResponse(result.Delivery),
		Order:    toOrderResponse(result.Order),
	})
}
