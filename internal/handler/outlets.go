package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/washline/api/internal/database"
	"github.com/washline/api/internal/geocode"
	"github.com/washline/api/internal/logging"
	"github.com/washline/api/internal/policy"
	"github.com/washline/api/internal/service"
	"go.uber.org/zap"
)

// OutletStore defines the database methods needed by outlet handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OutletStore interface {
	CreateOutlet(ctx context.Context, arg database.CreateOutletParams) (database.Outlet, error)
	UpdateOutlet(ctx context.Context, arg database.UpdateOutletParams) (database.Outlet, error)
	GetOutlet(ctx context.Context, id uuid.UUID) (database.Outlet, error)
	ListOutlets(ctx context.Context) ([]database.Outlet, error)
}

// Geocoder resolves coordinates to a postal address.
// Satisfied by *geocode.Client.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (geocode.Place, error)
}

// NearbyFinder lists outlets that serve a customer address.
// Satisfied by *service.FulfillmentService.
type NearbyFinder interface {
	NearbyOutlets(ctx context.Context, actor policy.Actor, addressID uuid.UUID) ([]service.NearbyOutlet, error)
}

// OutletHandler handles outlet endpoints.
type OutletHandler struct {
	store    OutletStore
	geocoder Geocoder
	nearby   NearbyFinder
}

// NewOutletHandler creates a new OutletHandler.
func NewOutletHandler(store OutletStore, geocoder Geocoder, nearby NearbyFinder) *OutletHandler {
	return &OutletHandler{store: store, geocoder: geocoder, nearby: nearby}
}

// RegisterRoutes registers outlet endpoints on the given Chi router.
// Expected to be mounted at /outlets.
func (h *OutletHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/nearby", h.Nearby)
	r.Get("/{oid}", h.Get)
	r.Put("/{oid}", h.Update)
}

// --- Request / Response types ---

type outletRequest struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type outletResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	Region     string    `json:"region"`
	Suburb     string    `json:"suburb"`
	PostalCode string    `json:"postal_code"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type nearbyOutletResponse struct {
	outletResponse
	DistanceKm float64 `json:"distance_km"`
}

func toOutletResponse(o database.Outlet) outletResponse {
	return outletResponse{
		ID:         o.ID,
		Name:       o.Name,
		Latitude:   o.Latitude,
		Longitude:  o.Longitude,
		Address:    o.Address,
		City:       o.City,
		Region:     o.Region,
		Suburb:     o.Suburb,
		PostalCode: o.PostalCode,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

// validate trims the name and checks coordinates are present and on the globe.
func (req *outletRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if req.Latitude == nil || req.Longitude == nil {
		return "latitude and longitude are required"
	}
	if *req.Latitude < -90 || *req.Latitude > 90 || *req.Longitude < -180 || *req.Longitude > 180 {
		return "coordinates out of range"
	}
	return ""
}

// --- Handlers ---

// List returns every outlet ordered by name.
func (h *OutletHandler) List(w http.ResponseWriter, r *http.Request) {
	outlets, err := h.store.ListOutlets(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := make([]outletResponse, len(outlets))
	for i, o := range outlets {
		resp[i] = toOutletResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *OutletHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "oid", "outlet ID")
	if !ok {
		return
	}

	outlet, err := h.store.GetOutlet(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "outlet not found")
			return
		}
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOutletResponse(outlet))
}

// Nearby lists outlets within the service radius of ?address_id=.
func (h *OutletHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("address_id") == "" {
		writeError(w, http.StatusBadRequest, "address_id is required")
		return
	}
	addressID, ok := queryUUID(w, r, "address_id")
	if !ok {
		return
	}

	outlets, err := h.nearby.NearbyOutlets(r.Context(), actor, addressID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := make([]nearbyOutletResponse, len(outlets))
	for i, o := range outlets {
		resp[i] = nearbyOutletResponse{outletResponse: toOutletResponse(o.Outlet), DistanceKm: o.DistanceKm}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create registers an outlet. Address fields are filled by reverse geocoding.
func (h *OutletHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if !policy.Can(actor, policy.ActionManageOutlets, policy.Resource{}) {
		writeError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	var req outletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	place, ok := h.resolve(w, r, *req.Latitude, *req.Longitude)
	if !ok {
		return
	}

	outlet, err := h.store.CreateOutlet(r.Context(), database.CreateOutletParams{
		Name:       req.Name,
		Latitude:   *req.Latitude,
		Longitude:  *req.Longitude,
		Address:    place.Formatted,
		City:       place.City,
		Region:     place.Region,
		Suburb:     place.Suburb,
		PostalCode: place.PostalCode,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOutletResponse(outlet))
}

// Update renames or moves an outlet. The address is looked up again only
// when the coordinates change.
func (h *OutletHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if !policy.Can(actor, policy.ActionManageOutlets, policy.Resource{}) {
		writeError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	id, ok := urlUUID(w, r, "oid", "outlet ID")
	if !ok {
		return
	}

	var req outletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	current, err := h.store.GetOutlet(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "outlet not found")
			return
		}
		writeServiceError(w, r, err)
		return
	}

	params := database.UpdateOutletParams{
		ID:         id,
		Name:       req.Name,
		Latitude:   *req.Latitude,
		Longitude:  *req.Longitude,
		Address:    current.Address,
		City:       current.City,
		Region:     current.Region,
		Suburb:     current.Suburb,
		PostalCode: current.PostalCode,
	}
	if params.Latitude != current.Latitude || params.Longitude != current.Longitude {
		place, ok := h.resolve(w, r, params.Latitude, params.Longitude)
		if !ok {
			return
		}
		params.Address = place.Formatted
		params.City = place.City
		params.Region = place.Region
		params.Suburb = place.Suburb
		params.PostalCode = place.PostalCode
	}

	outlet, err := h.store.UpdateOutlet(r.Context(), params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "outlet not found")
			return
		}
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toOutletResponse(outlet))
}

// resolve reverse geocodes a point, writing the error response on failure.
func (h *OutletHandler) resolve(w http.ResponseWriter, r *http.Request, lat, lon float64) (geocode.Place, bool) {
	place, err := h.geocoder.ReverseGeocode(r.Context(), lat, lon)
	if err == nil {
		return place, true
	}
	if errors.Is(err, geocode.ErrNoResult) {
		writeError(w, http.StatusBadRequest, "no address found for coordinates")
		return geocode.Place{}, false
	}

	logging.FromContext(r.Context()).Warn("reverse geocode failed",
		zap.Float64("latitude", lat),
		zap.Float64("longitude", lon),
		zap.Error(err),
	)
	upErr := &service.UpstreamError{Service: "geocoder", Err: err}
	var statusErr *geocode.StatusError
	if errors.As(err, &statusErr) {
		upErr.StatusCode = statusErr.StatusCode
		upErr.Body = statusErr.Body
	}
	writeServiceError(w, r, upErr)
	return geocode.Place{}, false
}
