package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/washline/api/internal/auth"
	"github.com/washline/api/internal/database"
	"github.com/washline/api/internal/enum"
	"github.com/washline/api/internal/gateway"
	"github.com/washline/api/internal/policy"
	"github.com/washline/api/internal/service"
)

const testJWTSecret = "test-secret-for-handlers"

// --- Mock fulfillment service ---

// mockService satisfies every servicer interface the handlers declare.
// Unset funcs fail the call with errUnexpectedCall.
type mockService struct {
	requestPickup        func(policy.Actor, service.PickupRequest) (*service.PickupResult, error)
	listOrders           func(policy.Actor, service.OrderFilter) ([]database.Order, error)
	getOrder             func(policy.Actor, uuid.UUID) (*service.OrderDetail, error)
	processOrder         func(policy.Actor, uuid.UUID, service.ProcessOrderRequest) (*service.ProcessOrderResult, error)
	payManual            func(policy.Actor, uuid.UUID, string) (*service.PaymentResult, error)
	payGateway           func(policy.Actor, uuid.UUID) (*service.PaymentResult, error)
	handleCallback       func(gateway.Callback) (*service.CallbackResult, error)
	listJobs             func(policy.Actor, service.JobFilter) ([]database.Job, error)
	acceptJob            func(policy.Actor, uuid.UUID) (database.Job, error)
	confirmJob           func(policy.Actor, uuid.UUID, []service.ItemQuantity) (*service.ConfirmJobResult, error)
	createRequestAccess  func(policy.Actor, uuid.UUID, string) (database.RequestAccess, error)
	respondRequestAccess func(policy.Actor, uuid.UUID, bool) (database.RequestAccess, error)
	listDeliveries       func(policy.Actor, service.DeliveryFilter) ([]database.Delivery, error)
	updateDelivery       func(policy.Actor, uuid.UUID) (*service.DeliveryResult, error)
	nearbyOutlets        func(policy.Actor, uuid.UUID) ([]service.NearbyOutlet, error)
}

var errUnexpectedCall = errors.New("unexpected call")

func (m *mockService) RequestPickup(_ context.Context, a policy.Actor, req service.PickupRequest) (*service.PickupResult, error) {
	if m.requestPickup == nil {
		return nil, errUnexpectedCall
	}
	return m.requestPickup(a, req)
}

func (m *mockService) ListOrders(_ context.Context, a policy.Actor, f service.OrderFilter) ([]database.Order, error) {
	if m.listOrders == nil {
		return nil, errUnexpectedCall
	}
	return m.listOrders(a, f)
}

func (m *mockService) GetOrder(_ context.Context, a policy.Actor, id uuid.UUID) (*service.OrderDetail, error) {
	if m.getOrder == nil {
		return nil, errUnexpectedCall
	}
	return m.getOrder(a, id)
}

func (m *mockService) ProcessOrder(_ context.Context, a policy.Actor, id uuid.UUID, req service.ProcessOrderRequest) (*service.ProcessOrderResult, error) {
	if m.processOrder == nil {
		return nil, errUnexpectedCall
	}
	return m.processOrder(a, id, req)
}

func (m *mockService) PayManual(_ context.Context, a policy.Actor, id uuid.UUID, receiptURL string) (*service.PaymentResult, error) {
	if m.payManual == nil {
		return nil, errUnexpectedCall
	}
	return m.payManual(a, id, receiptURL)
}

func (m *mockService) PayGateway(_ context.Context, a policy.Actor, id uuid.UUID) (*service.PaymentResult, error) {
	if m.payGateway == nil {
		return nil, errUnexpectedCall
	}
	return m.payGateway(a, id)
}

func (m *mockService) HandleCallback(_ context.Context, cb gateway.Callback) (*service.CallbackResult, error) {
	if m.handleCallback == nil {
		return nil, errUnexpectedCall
	}
	return m.handleCallback(cb)
}

func (m *mockService) ListJobs(_ context.Context, a policy.Actor, f service.JobFilter) ([]database.Job, error) {
	if m.listJobs == nil {
		return nil, errUnexpectedCall
	}
	return m.listJobs(a, f)
}

func (m *mockService) AcceptJob(_ context.Context, a policy.Actor, id uuid.UUID) (database.Job, error) {
	if m.acceptJob == nil {
		return database.Job{}, errUnexpectedCall
	}
	return m.acceptJob(a, id)
}

func (m *mockService) ConfirmJob(_ context.Context, a policy.Actor, id uuid.UUID, items []service.ItemQuantity) (*service.ConfirmJobResult, error) {
	if m.confirmJob == nil {
		return nil, errUnexpectedCall
	}
	return m.confirmJob(a, id, items)
}

func (m *mockService) CreateRequestAccess(_ context.Context, a policy.Actor, id uuid.UUID, reason string) (database.RequestAccess, error) {
	if m.createRequestAccess == nil {
		return database.RequestAccess{}, errUnexpectedCall
	}
	return m.createRequestAccess(a, id, reason)
}

func (m *mockService) RespondRequestAccess(_ context.Context, a policy.Actor, id uuid.UUID, accept bool) (database.RequestAccess, error) {
	if m.respondRequestAccess == nil {
		return database.RequestAccess{}, errUnexpectedCall
	}
	return m.respondRequestAccess(a, id, accept)
}

func (m *mockService) ListDeliveries(_ context.Context, a policy.Actor, f service.DeliveryFilter) ([]database.Delivery, error) {
	if m.listDeliveries == nil {
		return nil, errUnexpectedCall
	}
	return m.listDeliveries(a, f)
}

func (m *mockService) UpdateDelivery(_ context.Context, a policy.Actor, id uuid.UUID) (*service.DeliveryResult, error) {
	if m.updateDelivery == nil {
		return nil, errUnexpectedCall
	}
	return m.updateDelivery(a, id)
}

func (m *mockService) NearbyOutlets(_ context.Context, a policy.Actor, addressID uuid.UUID) ([]service.NearbyOutlet, error) {
	if m.nearbyOutlets == nil {
		return nil, errUnexpectedCall
	}
	return m.nearbyOutlets(a, addressID)
}

// --- Mock TxBeginner ---

type mockTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (m *mockTx) Commit(ctx context.Context) error {
	m.committed = true
	return nil
}

func (m *mockTx) Rollback(ctx context.Context) error {
	if !m.committed {
		m.rolledBack = true
	}
	return nil
}

type mockPool struct {
	tx *mockTx
}

func (m *mockPool) Begin(ctx context.Context) (pgx.Tx, error) {
	m.tx = &mockTx{}
	return m.tx, nil
}

// --- Helpers ---

func claimsFor(role string, outletID uuid.UUID) *auth.Claims {
	return &auth.Claims{UserID: uuid.New(), OutletID: outletID, Role: role}
}

func customerClaims() *auth.Claims {
	return claimsFor(enum.RoleCustomer, uuid.Nil)
}

func superAdminClaims() *auth.Claims {
	return claimsFor(enum.RoleSuperAdmin, uuid.Nil)
}

func doAuthRequest(t *testing.T, router http.Handler, method, path string, body interface{}, claims *auth.Claims) *httptest.ResponseRecorder {
	t.Helper()

	// Generate a real JWT token from claims
	token, err := auth.GenerateToken(testJWTSecret, claims.UserID, claims.OutletID, claims.Role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	req := newRequest(t, method, path, body)
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, newRequest(t, method, path, body))
	return rr
}

func newRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}
	var b []byte
	if s, ok := body.(string); ok {
		b = []byte(s)
	} else {
		var err error
		b, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func decodeListResponse(t *testing.T, rr *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	return resp
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, want, rr.Body.String())
	}
}
