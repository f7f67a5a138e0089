package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/washline/api/internal/database"
	"github.com/washline/api/internal/policy"
	"github.com/washline/api/internal/service"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.FulfillmentService; narrow interface for testability.
type OrderServicer interface {
	RequestPickup(ctx context.Context, actor policy.Actor, req service.PickupRequest) (*service.PickupResult, error)
	ListOrders(ctx context.Context, actor policy.Actor, f service.OrderFilter) ([]database.Order, error)
	GetOrder(ctx context.Context, actor policy.Actor, orderID uuid.UUID) (*service.OrderDetail, error)
	ProcessOrder(ctx context.Context, actor policy.Actor, orderID uuid.UUID, req service.ProcessOrderRequest) (*service.ProcessOrderResult, error)
	PayManual(ctx context.Context, actor policy.Actor, orderID uuid.UUID, receiptURL string) (*service.PaymentResult, error)
	PayGateway(ctx context.Context, actor policy.Actor, orderID uuid.UUID) (*service.PaymentResult, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc OrderServicer
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /orders
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/pickup", h.RequestPickup)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/process", h.Process)
	r.Post("/{id}/payments/manual", h.PayManual)
	r.Post("/{id}/payments/gateway", h.PayGateway)
}

// --- Request / Response types ---

type pickupRequest struct {
	AddressID string `json:"address_id"`
	OutletID  string `json:"outlet_id"`
}

type itemRequest struct {
	LaundryItemID string `json:"laundry_item_id"`
	Quantity      int32  `json:"quantity"`
}

type processOrderRequest struct {
	WeightKg string        `json:"weight_kg"`
	Items    []itemRequest `json:"items"`
}

type manualPaymentRequest struct {
	ReceiptURL string `json:"receipt_url"`
}

type pickupResponse struct {
	Order    orderResponse    `json:"order"`
	Delivery deliveryResponse `json:"delivery"`
}

type processOrderResponse struct {
	Order orderResponse       `json:"order"`
	Items []orderItemResponse `json:"items"`
	Job   jobResponse         `json:"job"`
}

type paymentResultResponse struct {
	Payment  paymentResponse   `json:"payment"`
	Order    orderResponse     `json:"order"`
	Delivery *deliveryResponse `json:"delivery,omitempty"`
}

var orderStatuses = map[string]bool{
	string(database.OrderStatusWAITINGFORPICKUPDRIVER): true,
	string(database.OrderStatusONPROGRESSPICKUP):       true,
	string(database.OrderStatusARRIVEDATOUTLET):        true,
	string(database.OrderStatusONPROGRESSWASHING):      true,
	string(database.OrderStatusONPROGRESSIRONING):      true,
	string(database.OrderStatusONPROGRESSPACKING):      true,
	string(database.OrderStatusWAITINGFORPAYMENT):      true,
	string(database.OrderStatusWAITINGFORDROPOFF):      true,
	string(database.OrderStatusONPROGRESSDROPOFF):      true,
	string(database.OrderStatusCOMPLETEDORDER):         true,
}

// parseItems converts request lines, rejecting malformed laundry item ids.
// Quantities are checked by the service.
func parseItems(items []itemRequest) ([]service.ItemQuantity, string) {
	out := make([]service.ItemQuantity, 0, len(items))
	for _, it := range items {
		id, err := uuid.Parse(it.LaundryItemID)
		if err != nil {
			return nil, "invalid laundry_item_id"
		}
		out = append(out, service.ItemQuantity{LaundryItemID: id, Quantity: it.Quantity})
	}
	return out, ""
}

func toPaymentResultResponse(res *service.PaymentResult) paymentResultResponse {
	resp := paymentResultResponse{
		Payment: toPaymentResponse(res.Payment),
		Order:   toOrderResponse(res.Order),
	}
	if res.Delivery != nil {
		d := toDeliveryResponse(*res.Delivery)
		resp.Delivery = &d
	}
	return resp
}

// --- Handlers ---

// RequestPickup opens an order for one of the customer's addresses.
func (h *OrderHandler) RequestPickup(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req pickupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	addressID, err := uuid.Parse(req.AddressID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid address_id")
		return
	}
	outletID, err := uuid.Parse(req.OutletID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid outlet_id")
		return
	}

	result, err := h.svc.RequestPickup(r.Context(), actor, service.PickupRequest{AddressID: addressID, OutletID: outletID})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, pickupResponse{
		Order:    toOrderResponse(result.Order),
		Delivery: toDeliveryResponse(result.Delivery),
	})
}

// List returns orders visible to the caller with optional status filter and
// pagination. Super admins may narrow by ?outlet_id=.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	status := strings.ToUpper(r.URL.Query().Get("status"))
	if status != "" && !orderStatuses[status] {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	outletID, ok := queryUUID(w, r, "outlet_id")
	if !ok {
		return
	}
	limit, offset := pagination(r)

	orders, err := h.svc.ListOrders(r.Context(), actor, service.OrderFilter{
		OutletID: outletID,
		Status:   status,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderListResponse(orders))
}

// Get returns an order with its items, progress history, jobs, deliveries
// and payment.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	orderID, ok := urlUUID(w, r, "id", "order ID")
	if !ok {
		return
	}

	detail, err := h.svc.GetOrder(r.Context(), actor, orderID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderDetailResponse(detail))
}

// Process records weight and items of an order that arrived at its outlet.
func (h *OrderHandler) Process(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	orderID, ok := urlUUID(w, r, "id", "order ID")
	if !ok {
		return
	}

	var req processOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	weight, err := decimal.NewFromString(req.WeightKg)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid weight_kg")
		return
	}
	items, msg := parseItems(req.Items)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	result, err := h.svc.ProcessOrder(r.Context(), actor, orderID, service.ProcessOrderRequest{WeightKg: weight, Items: items})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := processOrderResponse{
		Order: toOrderResponse(result.Order),
		Items: make([]orderItemResponse, len(result.Items)),
		Job:   toJobResponse(result.Job),
	}
	for i, it := range result.Items {
		resp.Items[i] = orderItemResponse{ID: it.ID, LaundryItemID: it.LaundryItemID, Quantity: it.Quantity}
	}
	writeJSON(w, http.StatusOK, resp)
}

// PayManual settles an order with an uploaded transfer receipt.
func (h *OrderHandler) PayManual(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	orderID, ok := urlUUID(w, r, "id", "order ID")
	if !ok {
		return
	}

	var req manualPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.PayManual(r.Context(), actor, orderID, strings.TrimSpace(req.ReceiptURL))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPaymentResultResponse(result))
}

// PayGateway opens a hosted gateway transaction; the response carries the
// payment_url the customer is redirected to.
func (h *OrderHandler) PayGateway(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	orderID, ok := urlUUID(w, r, "id", "order ID")
	if !ok {
		return
	}

	result, err := h.svc.PayGateway(r.Context(), actor, orderID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPaymentResultResponse(result))
}
