// Package notify fans fulfillment events out to customers and outlet staff.
// Delivery is best effort and never blocks or fails the caller.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Target addresses either one customer or every holder of a role at an outlet.
type Target struct {
	CustomerID uuid.UUID
	OutletID   uuid.UUID
	Role       string
}

func Customer(id uuid.UUID) Target {
	return Target{CustomerID: id}
}

func Outlet(outletID uuid.UUID, role string) Target {
	return Target{OutletID: outletID, Role: role}
}

// Room renders the target as the channel name shared by every sink.
func (t Target) Room() string {
	if t.CustomerID != uuid.Nil {
		return CustomerRoom(t.CustomerID)
	}
	return OutletRoom(t.OutletID, t.Role)
}

func CustomerRoom(id uuid.UUID) string {
	return "customer:" + id.String()
}

func OutletRoom(outletID uuid.UUID, role string) string {
	return fmt.Sprintf("outlet:%s:%s", outletID, role)
}

type Message struct {
	Title       string
	Description string
}

// Notification is what sinks receive.
type Notification struct {
	Room        string    `json:"room"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Notifier is the port the fulfillment service emits events through.
type Notifier interface {
	Notify(ctx context.Context, target Target, msg Message)
}

// Sink delivers a notification to one channel (database, websocket, broker).
type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}
