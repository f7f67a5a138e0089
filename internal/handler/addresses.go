package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/washline/api/internal/database"
	"github.com/washline/api/internal/enum"
	"github.com/washline/api/internal/service"
)

// AddressStore defines the database methods needed by address handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AddressStore interface {
	ListAddressesByCustomer(ctx context.Context, customerID uuid.UUID) ([]database.Address, error)
	CreateAddress(ctx context.Context, arg database.CreateAddressParams) (database.Address, error)
	ClearPrimaryAddress(ctx context.Context, customerID uuid.UUID) error
}

// NewAddressStore creates an AddressStore from a DBTX (pool or tx).
type NewAddressStore func(db database.DBTX) AddressStore

// AddressHandler handles customer address endpoints.
type AddressHandler struct {
	store    AddressStore
	pool     service.TxBeginner
	newStore NewAddressStore
}

// NewAddressHandler creates a new AddressHandler.
func NewAddressHandler(store AddressStore, pool service.TxBeginner, newStore NewAddressStore) *AddressHandler {
	return &AddressHandler{store: store, pool: pool, newStore: newStore}
}

// RegisterRoutes registers address endpoints on the given Chi router.
// Expected to be mounted at /addresses
func (h *AddressHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
}

// --- Request / Response types ---

type createAddressRequest struct {
	Label     string   `json:"label"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	IsPrimary bool     `json:"is_primary"`
}

type addressResponse struct {
	ID        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	Address   string    `json:"address"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	IsPrimary bool      `json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
}

func toAddressResponse(a database.Address) addressResponse {
	return addressResponse{
		ID:        a.ID,
		Label:     a.Label,
		Address:   a.Address,
		Latitude:  a.Latitude,
		Longitude: a.Longitude,
		IsPrimary: a.IsPrimary,
		CreatedAt: a.CreatedAt,
	}
}

// --- Handlers ---

// List returns the caller's addresses.
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if actor.Role != enum.RoleCustomer {
		writeError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	addresses, err := h.store.ListAddressesByCustomer(r.Context(), actor.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := make([]addressResponse, len(addresses))
	for i, a := range addresses {
		resp[i] = toAddressResponse(a)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create saves a pickup address. A customer's first address, or one sent with
// is_primary, becomes the primary address.
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if actor.Role != enum.RoleCustomer {
		writeError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	var req createAddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Label = strings.TrimSpace(req.Label)
	req.Address = strings.TrimSpace(req.Address)
	if req.Label == "" || req.Address == "" {
		writeError(w, http.StatusBadRequest, "label and address are required")
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		writeError(w, http.StatusBadRequest, "latitude and longitude are required")
		return
	}
	if *req.Latitude < -90 || *req.Latitude > 90 || *req.Longitude < -180 || *req.Longitude > 180 {
		writeError(w, http.StatusBadRequest, "coordinates out of range")
		return
	}

	tx, err := h.pool.Begin(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer tx.Rollback(r.Context())

	txStore := h.newStore(tx)

	existing, err := txStore.ListAddressesByCustomer(r.Context(), actor.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	primary := req.IsPrimary || len(existing) == 0
	if primary {
		if err := txStore.ClearPrimaryAddress(r.Context(), actor.UserID); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}

	address, err := txStore.CreateAddress(r.Context(), database.CreateAddressParams{
		CustomerID: actor.UserID,
		Label:      req.Label,
		Address:    req.Address,
		Latitude:   *req.Latitude,
		Longitude:  *req.Longitude,
		IsPrimary:  primary,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAddressResponse(address))
}
