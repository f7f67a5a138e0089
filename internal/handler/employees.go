package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/washline/api/internal/auth"
	"github.com/washline/api/internal/database"
	"github.com/washline/api/internal/enum"
	"github.com/washline/api/internal/logging"
	"github.com/washline/api/internal/policy"
	"go.uber.org/zap"
)

// EmployeeStore defines the database methods needed by employee handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type EmployeeStore interface {
	ListEmployees(ctx context.Context, arg database.ListEmployeesParams) ([]database.User, error)
	CreateUser(ctx context.Context, arg database.CreateUserParams) (database.User, error)
	GetOutlet(ctx context.Context, id uuid.UUID) (database.Outlet, error)
	GetShift(ctx context.Context, id uuid.UUID) (database.Shift, error)
	ListShifts(ctx context.Context) ([]database.Shift, error)
}

// EmployeeHandler handles outlet staff endpoints.
type EmployeeHandler struct {
	store EmployeeStore
}

// NewEmployeeHandler creates a new EmployeeHandler.
func NewEmployeeHandler(store EmployeeStore) *EmployeeHandler {
	return &EmployeeHandler{store: store}
}

// RegisterRoutes registers employee endpoints on the given Chi router.
// Expected to be mounted inside an outlet-scoped subrouter: /outlets/{oid}/employees
func (h *EmployeeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
}

// --- Request / Response types ---

type createEmployeeRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	ShiftID  string `json:"shift_id"`
}

type shiftResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	StartsAt string    `json:"starts_at"`
	EndsAt   string    `json:"ends_at"`
}

// clockString renders a time-of-day column as HH:MM.
func clockString(t pgtype.Time) string {
	if !t.Valid {
		return ""
	}
	minutes := t.Microseconds / 60_000_000
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// --- Handlers ---

// List returns the active staff of an outlet, optionally filtered by ?role=.
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	outletID, ok := urlUUID(w, r, "oid", "outlet ID")
	if !ok {
		return
	}
	if !policy.Can(actor, policy.ActionViewEmployees, policy.Resource{OutletID: outletID}) {
		writeError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	params := database.ListEmployeesParams{OutletID: pgtype.UUID{Bytes: outletID, Valid: true}}
	if role := r.URL.Query().Get("role"); role != "" {
		if !enum.IsEmployeeRole(role) {
			writeError(w, http.StatusBadRequest, "invalid role")
			return
		}
		params.Role = pgtype.Text{String: role, Valid: true}
	}

	users, err := h.store.ListEmployees(r.Context(), params)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := make([]userResponse, len(users))
	for i, u := range users {
		resp[i] = toUserResponse(u)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create adds a staff account to the outlet.
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	outletID, ok := urlUUID(w, r, "oid", "outlet ID")
	if !ok {
		return
	}
	if !policy.Can(actor, policy.ActionManageEmployees, policy.Resource{OutletID: outletID}) {
		writeError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	var req createEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || req.Password == "" || req.FullName == "" || req.Role == "" {
		writeError(w, http.StatusBadRequest, "email, password, full_name and role are required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if !enum.IsEmployeeRole(req.Role) {
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}

	if _, err := h.store.GetOutlet(r.Context(), outletID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "outlet not found")
			return
		}
		writeServiceError(w, r, err)
		return
	}

	var shiftID pgtype.UUID
	if req.ShiftID != "" {
		id, err := uuid.Parse(req.ShiftID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid shift_id")
			return
		}
		if _, err := h.store.GetShift(r.Context(), id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeError(w, http.StatusBadRequest, "shift not found")
				return
			}
			writeServiceError(w, r, err)
			return
		}
		shiftID = pgtype.UUID{Bytes: id, Valid: true}
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		logging.FromContext(r.Context()).Error("hash password", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	user, err := h.store.CreateUser(r.Context(), database.CreateUserParams{
		Email:          req.Email,
		HashedPassword: hashed,
		FullName:       req.FullName,
		Role:           req.Role,
		OutletID:       pgtype.UUID{Bytes: outletID, Valid: true},
		ShiftID:        shiftID,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		writeServiceError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("employee created",
		zap.String("user_id", user.ID.String()),
		zap.String("outlet_id", outletID.String()),
		zap.String("role", user.Role),
	)
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// Shifts lists the work shifts employees can be assigned to.
func (h *EmployeeHandler) Shifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.store.ListShifts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := make([]shiftResponse, len(shifts))
	for i, s := range shifts {
		resp[i] = shiftResponse{ID: s.ID, Name: s.Name, StartsAt: clockString(s.StartsAt), EndsAt: clockString(s.EndsAt)}
	}
	writeJSON(w, http.StatusOK, resp)
}
