package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/washline/api/internal/database"
	"github.com/washline/api/internal/service"
)

type orderResponse struct {
	ID          uuid.UUID `json:"id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	OutletID    uuid.UUID `json:"outlet_id"`
	AddressID   uuid.UUID `json:"address_id"`
	Status      string    `json:"status"`
	WeightKg    string    `json:"weight_kg"`
	LaundryFee  string    `json:"laundry_fee"`
	DeliveryFee string    `json:"delivery_fee"`
	Price       string    `json:"price"`
	IsPayable   bool      `json:"is_payable"`
	IsPaid      bool      `json:"is_paid"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type orderItemResponse struct {
	ID            uuid.UUID `json:"id"`
	LaundryItemID uuid.UUID `json:"laundry_item_id"`
	Quantity      int32     `json:"quantity"`
}

type progressResponse struct {
	Seq       int32     `json:"seq"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type jobResponse struct {
	ID         uuid.UUID  `json:"id"`
	OrderID    uuid.UUID  `json:"order_id"`
	OutletID   uuid.UUID  `json:"outlet_id"`
	Type       string     `json:"type"`
	Progress   string     `json:"progress"`
	EmployeeID *uuid.UUID `json:"employee_id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type deliveryResponse struct {
	ID         uuid.UUID  `json:"id"`
	OrderID    uuid.UUID  `json:"order_id"`
	OutletID   uuid.UUID  `json:"outlet_id"`
	Type       string     `json:"type"`
	Progress   string     `json:"progress"`
	DriverID   *uuid.UUID `json:"driver_id"`
	DistanceKm float64    `json:"distance_km"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type paymentResponse struct {
	ID         uuid.UUID  `json:"id"`
	OrderID    uuid.UUID  `json:"order_id"`
	Method     string     `json:"method"`
	Status     string     `json:"status"`
	Amount     string     `json:"amount"`
	ReceiptURL *string    `json:"receipt_url"`
	PaymentURL *string    `json:"payment_url"`
	PaidAt     *time.Time `json:"paid_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

type orderDetailResponse struct {
	orderResponse
	Items      []orderItemResponse `json:"items"`
	Progress   []progressResponse  `json:"progress"`
	Jobs       []jobResponse       `json:"jobs"`
	Deliveries []deliveryResponse  `json:"deliveries"`
	Payment    *paymentResponse    `json:"payment"`
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func optionalUUIDPtr(id pgtype.UUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	u := uuid.UUID(id.Bytes)
	return &u
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func toOrderResponse(o database.Order) orderResponse {
	return orderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID,
		OutletID:    o.OutletID,
		AddressID:   o.AddressID,
		Status:      string(o.CurrentStatus),
		WeightKg:    numericToString(o.WeightKg),
		LaundryFee:  numericToString(o.LaundryFee),
		DeliveryFee: numericToString(o.DeliveryFee),
		Price:       numericToString(o.Price),
		IsPayable:   o.IsPayable,
		IsPaid:      o.IsPaid,
		IsCompleted: o.IsCompleted,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func toOrderListResponse(orders []database.Order) []orderResponse {
	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	return resp
}

func toJobResponse(j database.Job) jobResponse {
	return jobResponse{
		ID:         j.ID,
		OrderID:    j.OrderID,
		OutletID:   j.OutletID,
		Type:       string(j.Type),
		Progress:   string(j.Progress),
		EmployeeID: optionalUUIDPtr(j.EmployeeID),
		CreatedAt:  j.CreatedAt,
		UpdatedAt:  j.UpdatedAt,
	}
}

func toJobListResponse(jobs []database.Job) []jobResponse {
	resp := make([]jobResponse, len(jobs))
	for i, j := range jobs {
		resp[i] = toJobResponse(j)
	}
	return resp
}

func toDeliveryResponse(d database.Delivery) deliveryResponse {
	return deliveryResponse{
		ID:         d.ID,
		OrderID:    d.OrderID,
		OutletID:   d.OutletID,
		Type:       string(d.Type),
		Progress:   string(d.Progress),
		DriverID:   optionalUUIDPtr(d.DriverID),
		DistanceKm: d.DistanceKm,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func toDeliveryListResponse(deliveries []database.Delivery) []deliveryResponse {
	resp := make([]deliveryResponse, len(deliveries))
	for i, d := range deliveries {
		resp[i] = toDeliveryResponse(d)
	}
	return resp
}

func toPaymentResponse(p database.Payment) paymentResponse {
	resp := paymentResponse{
		ID:         p.ID,
		OrderID:    p.OrderID,
		Method:     string(p.Method),
		Status:     string(p.Status),
		Amount:     numericToString(p.Amount),
		ReceiptURL: textPtr(p.ReceiptURL),
		PaymentURL: textPtr(p.PaymentURL),
		CreatedAt:  p.CreatedAt,
	}
	if p.PaidAt.Valid {
		t := p.PaidAt.Time
		resp.PaidAt = &t
	}
	return resp
}

func toOrderDetailResponse(d *service.OrderDetail) orderDetailResponse {
	resp := orderDetailResponse{
		orderResponse: toOrderResponse(d.Order),
		Items:         make([]orderItemResponse, len(d.Items)),
		Progress:      make([]progressResponse, len(d.Progress)),
		Jobs:          toJobListResponse(d.Jobs),
		Deliveries:    toDeliveryListResponse(d.Deliveries),
	}
	for i, it := range d.Items {
		resp.Items[i] = orderItemResponse{ID: it.ID, LaundryItemID: it.LaundryItemID, Quantity: it.Quantity}
	}
	for i, p := range d.Progress {
		resp.Progress[i] = progressResponse{Seq: p.Seq, Status: string(p.Status), CreatedAt: p.CreatedAt}
	}
	if d.Payment != nil {
		p := toPaymentResponse(*d.Payment)
		resp.Payment = &p
	}
	return resp
}
