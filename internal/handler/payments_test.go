package handler_test

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/washline/api/internal/database"
	"github.com/washline/api/internal/gateway"
	"github.com/washline/api/internal/handler"
	"github.com/washline/api/internal/service"
)

func setupCallbackRouter(svc *mockService) *chi.Mux {
	h := handler.NewPaymentCallbackHandler(svc)
	r := chi.NewRouter()
	r.Post("/payments/callback", h.Callback)
	return r
}

func callbackBody(orderID uuid.UUID, status string) map[string]string {
	return map[string]string{
		"order_id":           orderID.String(),
		"status_code":        "200",
		"gross_amount":       "34000.00",
		"transaction_status": status,
		"signature_key":      gateway.Signature(orderID.String(), "200", "34000.00", "server-key"),
	}
}

func TestCallback_Settles(t *testing.T) {
	order := testOrder(uuid.New(), uuid.New())

	var got gateway.Callback
	svc := &mockService{
		handleCallback: func(cb gateway.Callback) (*service.CallbackResult, error) {
			got = cb
			order.IsPaid = true
			order.CurrentStatus = database.OrderStatusWAITINGFORDROPOFF
			dropoff := testDelivery(order, database.DeliveryTypeDROPOFF)
			return &service.CallbackResult{Order: &order, Delivery: &dropoff}, nil
		},
	}

	body := callbackBody(order.ID, "settlement")
	rr := doRequest(t, setupCallbackRouter(svc), "POST", "/payments/callback", body)
	expectStatus(t, rr, http.StatusOK)

	if got.OrderID != order.ID.String() || got.SignatureKey != body["signature_key"] || got.GrossAmount != "34000.00" {
		t.Errorf("callback decoded as %+v", got)
	}

	resp := decodeResponse(t, rr)
	if resp["status"] != "settled" {
		t.Errorf("status: got %v", resp["status"])
	}
	if resp["delivery"].(map[string]interface{})["type"] != "DROPOFF" {
		t.Errorf("delivery: got %v", resp["delivery"])
	}
}

func TestCallback_IgnoredStatus(t *testing.T) {
	svc := &mockService{
		handleCallback: func(gateway.Callback) (*service.CallbackResult, error) {
			return &service.CallbackResult{Ignored: true}, nil
		},
	}

	rr := doRequest(t, setupCallbackRouter(svc), "POST", "/payments/callback", callbackBody(uuid.New(), "pending"))
	expectStatus(t, rr, http.StatusOK)

	if resp := decodeResponse(t, rr); resp["status"] != "ignored" {
		t.Errorf("status: got %v", resp["status"])
	}
}

func TestCallback_Rejections(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"amount mismatch", service.ErrAmountMismatch, http.StatusBadRequest},
		{"bad signature", service.ErrInvalidSignature, http.StatusBadRequest},
		{"replay after settlement", service.ErrAlreadyPaid, http.StatusBadRequest},
		{"unknown order", service.ErrOrderNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockService{
				handleCallback: func(gateway.Callback) (*service.CallbackResult, error) {
					return nil, tc.err
				},
			}
			rr := doRequest(t, setupCallbackRouter(svc), "POST", "/payments/callback", callbackBody(uuid.New(), "settlement"))
			expectStatus(t, rr, tc.want)
		})
	}
}

func TestCallback_MalformedBody(t *testing.T) {
	rr := doRequest(t, setupCallbackRouter(&mockService{}), "POST", "/payments/callback", "{")
	expectStatus(t, rr, http.StatusBadRequest)
}
