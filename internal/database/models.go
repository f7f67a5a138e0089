package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type OrderStatus string

const (
	OrderStatusWAITINGFORPICKUPDRIVER OrderStatus = "WAITING_FOR_PICKUP_DRIVER"
	OrderStatusONPROGRESSPICKUP       OrderStatus = "ON_PROGRESS_PICKUP"
	OrderStatusARRIVEDATOUTLET        OrderStatus = "ARRIVED_AT_OUTLET"
	OrderStatusONPROGRESSWASHING      OrderStatus = "ON_PROGRESS_WASHING"
	OrderStatusONPROGRESSIRONING      OrderStatus = "ON_PROGRESS_IRONING"
	OrderStatusONPROGRESSPACKING      OrderStatus = "ON_PROGRESS_PACKING"
	OrderStatusWAITINGFORPAYMENT      OrderStatus = "WAITING_FOR_PAYMENT"
	OrderStatusWAITINGFORDROPOFF      OrderStatus = "WAITING_FOR_DROPOFF"
	OrderStatusONPROGRESSDROPOFF      OrderStatus = "ON_PROGRESS_DROPOFF"
	OrderStatusCOMPLETEDORDER         OrderStatus = "COMPLETED_ORDER"
)

type JobType string

const (
	JobTypeWASHING JobType = "WASHING"
	JobTypeIRONING JobType = "IRONING"
	JobTypePACKING JobType = "PACKING"
)

// Progress is shared by jobs and deliveries.
type Progress string

const (
	ProgressPENDING   Progress = "PENDING"
	ProgressONGOING   Progress = "ONGOING"
	ProgressCOMPLETED Progress = "COMPLETED"
)

type DeliveryType string

const (
	DeliveryTypePICKUP  DeliveryType = "PICKUP"
	DeliveryTypeDROPOFF DeliveryType = "DROPOFF"
)

type PaymentMethod string

const (
	PaymentMethodMANUAL  PaymentMethod = "MANUAL"
	PaymentMethodGATEWAY PaymentMethod = "GATEWAY"
)

type PaymentStatus string

const (
	PaymentStatusPENDING PaymentStatus = "PENDING"
	PaymentStatusPAID    PaymentStatus = "PAID"
)

type RequestAccessStatus string

const (
	RequestAccessStatusPENDING  RequestAccessStatus = "PENDING"
	RequestAccessStatusACCEPTED RequestAccessStatus = "ACCEPTED"
	RequestAccessStatusREJECTED RequestAccessStatus = "REJECTED"
)

type User struct {
	ID             uuid.UUID   `json:"id"`
	Email          string      `json:"email"`
	HashedPassword string      `json:"hashed_password"`
	FullName       string      `json:"full_name"`
	Role           string      `json:"role"`
	OutletID       pgtype.UUID `json:"outlet_id"`
	ShiftID        pgtype.UUID `json:"shift_id"`
	IsActive       bool        `json:"is_active"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

type Shift struct {
	ID       uuid.UUID   `json:"id"`
	Name     string      `json:"name"`
	StartsAt pgtype.Time `json:"starts_at"`
	EndsAt   pgtype.Time `json:"ends_at"`
}

type Outlet struct {
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

type Address struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customer_id"`
	Label      string    `json:"label"`
	Address    string    `json:"address"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	IsPrimary  bool      `json:"is_primary"`
	CreatedAt  time.Time `json:"created_at"`
}

type LaundryItem struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Order struct {
	ID            uuid.UUID      `json:"id"`
	OrderNumber   string         `json:"order_number"`
	CustomerID    uuid.UUID      `json:"customer_id"`
	OutletID      uuid.UUID      `json:"outlet_id"`
	AddressID     uuid.UUID      `json:"address_id"`
	CurrentStatus OrderStatus    `json:"current_status"`
	ProgressSeq   int32          `json:"progress_seq"`
	WeightKg      pgtype.Numeric `json:"weight_kg"`
	LaundryFee    pgtype.Numeric `json:"laundry_fee"`
	DeliveryFee   pgtype.Numeric `json:"delivery_fee"`
	Price         pgtype.Numeric `json:"price"`
	IsPayable     bool           `json:"is_payable"`
	IsPaid        bool           `json:"is_paid"`
	IsCompleted   bool           `json:"is_completed"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type OrderItem struct {
	ID            uuid.UUID `json:"id"`
	OrderID       uuid.UUID `json:"order_id"`
	LaundryItemID uuid.UUID `json:"laundry_item_id"`
	Quantity      int32     `json:"quantity"`
}

type OrderProgress struct {
	ID        uuid.UUID   `json:"id"`
	OrderID   uuid.UUID   `json:"order_id"`
	Seq       int32       `json:"seq"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

type Job struct {
	ID         uuid.UUID   `json:"id"`
	OrderID    uuid.UUID   `json:"order_id"`
	OutletID   uuid.UUID   `json:"outlet_id"`
	Type       JobType     `json:"type"`
	Progress   Progress    `json:"progress"`
	EmployeeID pgtype.UUID `json:"employee_id"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

type Delivery struct {
	ID         uuid.UUID    `json:"id"`
	OrderID    uuid.UUID    `json:"order_id"`
	OutletID   uuid.UUID    `json:"outlet_id"`
	Type       DeliveryType `json:"type"`
	Progress   Progress     `json:"progress"`
	DriverID   pgtype.UUID  `json:"driver_id"`
	DistanceKm float64      `json:"distance_km"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

type Payment struct {
	ID         uuid.UUID          `json:"id"`
	OrderID    uuid.UUID          `json:"order_id"`
	Method     PaymentMethod      `json:"method"`
	Status     PaymentStatus      `json:"status"`
	Amount     pgtype.Numeric     `json:"amount"`
	ReceiptURL pgtype.Text        `json:"receipt_url"`
	PaymentURL pgtype.Text        `json:"payment_url"`
	PaidAt     pgtype.Timestamptz `json:"paid_at"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

type RequestAccess struct {
	ID         uuid.UUID           `json:"id"`
	JobID      uuid.UUID           `json:"job_id"`
	EmployeeID uuid.UUID           `json:"employee_id"`
	Status     RequestAccessStatus `json:"status"`
	Reason     string              `json:"reason"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

type Notification struct {
	ID          uuid.UUID `json:"id"`
	Room        string    `json:"room"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
