package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/washline/api/internal/logging"
	"github.com/washline/api/internal/middleware"
	"github.com/washline/api/internal/policy"
	"github.com/washline/api/internal/service"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to encode JSON response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps a service error to its HTTP status. Authorization
// failures are reported as 404 so callers cannot discover resources they
// may not see.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var upErr *service.UpstreamError
	switch {
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidState), errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &upErr):
		status := upErr.StatusCode
		if status == 0 {
			status = http.StatusBadGateway
		}
		logging.FromContext(r.Context()).Warn("upstream call failed",
			zap.String("service", upErr.Service),
			zap.Int("upstream_status", upErr.StatusCode),
			zap.Error(err),
		)
		body := map[string]string{"error": upErr.Service + " request failed"}
		if upErr.Body != "" {
			body["upstream"] = upErr.Body
		}
		writeJSON(w, status, body)
	default:
		logging.FromContext(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// actorFrom returns the authenticated caller. Handlers are mounted behind
// middleware.Authenticate, so a missing claim is answered with 401.
func actorFrom(w http.ResponseWriter, r *http.Request) (policy.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
	}
	return actor, ok
}

func urlUUID(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+label)
		return uuid.Nil, false
	}
	return id, true
}

// queryUUID parses an optional UUID query parameter; absent yields uuid.Nil.
func queryUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// pagination reads limit (default 20, max 100) and offset from the query.
func pagination(r *http.Request) (int32, int32) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}
	return int32(limit), int32(offset)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
