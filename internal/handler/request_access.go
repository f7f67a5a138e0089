package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/washline/api/internal/database"
	"github.com/washline/api/internal/policy"
)

// RequestAccessServicer defines the service methods needed by request access handlers.
// Satisfied by *service.FulfillmentService.
type RequestAccessServicer interface {
	RespondRequestAccess(ctx context.Context, actor policy.Actor, id uuid.UUID, accept bool) (database.RequestAccess, error)
}

// RequestAccessHandler lets outlet admins answer workers' access requests.
type RequestAccessHandler struct {
	svc RequestAccessServicer
}

// NewRequestAccessHandler creates a new RequestAccessHandler.
func NewRequestAccessHandler(svc RequestAccessServicer) *RequestAccessHandler {
	return &RequestAccessHandler{svc: svc}
}

// RegisterRoutes registers request access endpoints on the given Chi router.
// Expected to be mounted at /request-accesses
func (h *RequestAccessHandler) RegisterRoutes(r chi.Router) {
	r.Post("/{id}/respond", h.Respond)
}

type respondRequestAccessRequest struct {
	Accept *bool `json:"accept"`
}

func (h *RequestAccessHandler) Respond(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := urlUUID(w, r, "id", "request access ID")
	if !ok {
		return
	}

	var req respondRequestAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Accept == nil {
		writeError(w, http.StatusBadRequest, "accept is required")
		return
	}

	ra, err := h.svc.RespondRequestAccess(r.Context(), actor, id, *req.Accept)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toRequestAccessResponse(ra))
}
