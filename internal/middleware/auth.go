package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/washline/api/internal/auth"
	"github.com/washline/api/internal/enum"
	"github.com/washline/api/internal/logging"
	"github.com/washline/api/internal/policy"
	"go.uber.org/zap"
)

type contextKey string

const claimsKey contextKey = "claims"

// Authenticate validates the bearer access token and stores its claims on the
// request context. The request logger is tagged with the caller's id and role.
func Authenticate(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, msg := bearerToken(r)
			if msg != "" {
				deny(w, http.StatusUnauthorized, msg)
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, token)
			if err != nil {
				logging.FromContext(r.Context()).Debug("token rejected", zap.Error(err))
				deny(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := WithClaims(r.Context(), claims)
			logger := logging.FromContext(ctx).With(
				zap.String("user_id", claims.UserID.String()),
				zap.String("role", claims.Role),
			)
			next.ServeHTTP(w, r.WithContext(logging.WithLogger(ctx, logger)))
		})
	}
}

func bearerToken(r *http.Request) (string, string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", "invalid authorization format"
	}
	return strings.TrimSpace(token), ""
}

// RequireOutlet restricts /outlets/{oid}/... routes to staff of that outlet.
// Super admins may access any outlet.
func RequireOutlet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			deny(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		if actor.IsSuperAdmin() {
			next.ServeHTTP(w, r)
			return
		}

		oidStr := r.PathValue("oid")
		if oidStr == "" {
			deny(w, http.StatusBadRequest, "missing outlet ID")
			return
		}
		oid, err := uuid.Parse(oidStr)
		if err != nil {
			deny(w, http.StatusBadRequest, "invalid outlet ID")
			return
		}

		if actor.OutletID != oid {
			logging.FromContext(r.Context()).Warn("outlet scope denied",
				zap.String("outlet_id", oid.String()),
				zap.String("actor_outlet_id", actor.OutletID.String()),
			)
			deny(w, http.StatusForbidden, "access denied for this outlet")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireRole lets through only callers holding one of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		if !enum.IsValidRole(role) {
			panic("middleware: unknown role " + role)
		}
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				deny(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if !allowed[claims.Role] {
				deny(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// ActorFromContext converts the authenticated claims into a policy actor.
func ActorFromContext(ctx context.Context) (policy.Actor, bool) {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return policy.Actor{}, false
	}
	return policy.Actor{UserID: claims.UserID, OutletID: claims.OutletID, Role: claims.Role}, true
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
