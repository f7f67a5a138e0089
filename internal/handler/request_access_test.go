package handler_test

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/washline/api/internal/database"
	"github.com/washline/api/internal/enum"
	"github.com/washline/api/internal/handler"
	"github.com/washline/api/internal/middleware"
	"github.com/washline/api/internal/policy"
	"github.com/washline/api/internal/service"
)

func setupRequestAccessRouter(svc *mockService) *chi.Mux {
	h := handler.NewRequestAccessHandler(svc)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Route("/request-accesses", h.RegisterRoutes)
	return r
}

func TestRespondRequestAccess(t *testing.T) {
	for _, accept := range []bool{true, false} {
		var gotAccept bool
		svc := &mockService{
			respondRequestAccess: func(_ policy.Actor, id uuid.UUID, a bool) (database.RequestAccess, error) {
				gotAccept = a
				status := database.RequestAccessStatusREJECTED
				if a {
					status = database.RequestAccessStatusACCEPTED
				}
				return database.RequestAccess{ID: id, Status: status}, nil
			},
		}

		rr := doAuthRequest(t, setupRequestAccessRouter(svc), "POST", "/request-accesses/"+uuid.NewString()+"/respond",
			map[string]bool{"accept": accept}, claimsFor(enum.RoleOutletAdmin, uuid.New()))
		expectStatus(t, rr, http.StatusOK)

		if gotAccept != accept {
			t.Errorf("accept: got %v, want %v", gotAccept, accept)
		}
	}
}

func TestRespondRequestAccess_AcceptRequired(t *testing.T) {
	rr := doAuthRequest(t, setupRequestAccessRouter(&mockService{}), "POST", "/request-accesses/"+uuid.NewString()+"/respond",
		map[string]string{}, claimsFor(enum.RoleOutletAdmin, uuid.New()))
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestRespondRequestAccess_AlreadyAnswered(t *testing.T) {
	svc := &mockService{
		respondRequestAccess: func(policy.Actor, uuid.UUID, bool) (database.RequestAccess, error) {
			return database.RequestAccess{}, service.ErrRequestAccessAnswered
		},
	}

	rr := doAuthRequest(t, setupRequestAccessRouter(svc), "POST", "/request-accesses/"+uuid.NewString()+"/respond",
		map[string]bool{"accept": true}, claimsFor(enum.RoleOutletAdmin, uuid.New()))
	expectStatus(t, rr, http.StatusBadRequest)
}
