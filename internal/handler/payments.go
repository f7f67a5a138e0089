package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/washline/api/internal/gateway"
	"github.com/washline/api/internal/logging"
	"github.com/washline/api/internal/service"
	"go.uber.org/zap"
)

// CallbackServicer defines the service method behind the gateway callback.
// Satisfied by *service.FulfillmentService.
type CallbackServicer interface {
	HandleCallback(ctx context.Context, cb gateway.Callback) (*service.CallbackResult, error)
}

// PaymentCallbackHandler receives server-to-server gateway notifications.
// It is mounted outside authentication; the signature is the credential.
type PaymentCallbackHandler struct {
	svc CallbackServicer
}

// NewPaymentCallbackHandler creates a new PaymentCallbackHandler.
func NewPaymentCallbackHandler(svc CallbackServicer) *PaymentCallbackHandler {
	return &PaymentCallbackHandler{svc: svc}
}

type callbackResponse struct {
	Status   string            `json:"status"`
	Order    *orderResponse    `json:"order,omitempty"`
	Delivery *deliveryResponse `json:"delivery,omitempty"`
}

// Callback handles POST /payments/callback.
func (h *PaymentCallbackHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var cb gateway.Callback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	log := logging.FromContext(r.Context()).With(
		zap.String("order_id", cb.OrderID),
		zap.String("transaction_status", cb.TransactionStatus),
	)

	result, err := h.svc.HandleCallback(r.Context(), cb)
	if err != nil {
		log.Warn("payment callback rejected", zap.Error(err))
		writeServiceError(w, r, err)
		return
	}
	if result.Ignored {
		log.Info("payment callback ignored")
		writeJSON(w, http.StatusOK, callbackResponse{Status: "ignored"})
		return
	}

	log.Info("payment settled")
	resp := callbackResponse{Status: "settled"}
	if result.Order != nil {
		o := toOrderResponse(*result.Order)
		resp.Order = &o
	}
	if result.Delivery != nil {
		d := toDeliveryResponse(*result.Delivery)
		resp.Delivery = &d
	}
	writeJSON(w, http.StatusOK, resp)
}
