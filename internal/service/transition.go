package service

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/washline/api/internal/database"
	"github.com/washline/api/internal/enum"
)

// stageRank orders the fulfillment stages. A status may only be replaced by
// one with a strictly higher rank.
var stageRank = map[database.OrderStatus]int{
	database.OrderStatusWAITINGFORPICKUPDRIVER: 1,
	database.OrderStatusONPROGRESSPICKUP:       2,
	database.OrderStatusARRIVEDATOUTLET:        3,
	database.OrderStatusONPROGRESSWASHING:      4,
	database.OrderStatusONPROGRESSIRONING:      5,
	database.OrderStatusONPROGRESSPACKING:      6,
	database.OrderStatusWAITINGFORPAYMENT:      7,
	database.OrderStatusWAITINGFORDROPOFF:      8,
	database.OrderStatusONPROGRESSDROPOFF:      9,
	database.OrderStatusCOMPLETEDORDER:         10,
}

// CanAdvance reports whether an order in from may move to to.
func CanAdvance(from, to database.OrderStatus) bool {
	rf, ok := stageRank[from]
	if !ok {
		return false
	}
	rt, ok := stageRank[to]
	if !ok {
		return false
	}
	return rt > rf
}

// isProcessed reports whether the outlet has weighed the order, so its fees
// are final.
func isProcessed(status database.OrderStatus) bool {
	return stageRank[status] >= stageRank[database.OrderStatusONPROGRESSWASHING]
}

// Transition describes what completing a job does to its order.
type Transition struct {
	NextStatus      database.OrderStatus
	CreatesJob      database.JobType
	CreatesDelivery database.DeliveryType
	SetsPayable     bool
	NotifyCustomer  bool
	// NotifyRoles are outlet roles to notify.
	NotifyRoles []string
}

// Advance maps a completed job type to the order's next stage. Packing
// branches on whether payment is still outstanding.
func Advance(completed database.JobType, paymentOutstanding bool) (Transition, error) {
	switch completed {
	case database.JobTypeWASHING:
		return Transition{
			NextStatus:  database.OrderStatusONPROGRESSIRONING,
			CreatesJob:  database.JobTypeIRONING,
			NotifyRoles: []string{enum.RoleIroningWorker},
		}, nil
	case database.JobTypeIRONING:
		return Transition{
			NextStatus:  database.OrderStatusONPROGRESSPACKING,
			CreatesJob:  database.JobTypePACKING,
			NotifyRoles: []string{enum.RolePackingWorker},
		}, nil
	case database.JobTypePACKING:
		if paymentOutstanding {
			return Transition{
				NextStatus:     database.OrderStatusWAITINGFORPAYMENT,
				SetsPayable:    true,
				NotifyCustomer: true,
			}, nil
		}
		return Transition{
			NextStatus:      database.OrderStatusWAITINGFORDROPOFF,
			CreatesDelivery: database.DeliveryTypeDROPOFF,
			NotifyCustomer:  true,
			NotifyRoles:     []string{enum.RoleDriver, enum.RoleOutletAdmin},
		}, nil
	}
	return Transition{}, fmt.Errorf("%w: unknown job type %q", ErrInvalidState, completed)
}

// ItemQuantity is one submitted order line.
type ItemQuantity struct {
	LaundryItemID uuid.UUID
	Quantity      int32
}

// MatchItems reports whether submitted equals recorded as a multiset of
// (laundry item, quantity). Repeated item ids are summed on both sides.
func MatchItems(recorded []database.OrderItem, submitted []ItemQuantity) bool {
	want := make(map[uuid.UUID]int64, len(recorded))
	for _, it := range recorded {
		want[it.LaundryItemID] += int64(it.Quantity)
	}
	got := make(map[uuid.UUID]int64, len(submitted))
	for _, it := range submitted {
		if it.Quantity <= 0 {
			return false
		}
		got[it.LaundryItemID] += int64(it.Quantity)
	}
	if len(want) != len(got) {
		return false
	}
	for id, q := range want {
		if got[id] != q {
			return false
		}
	}
	return true
}

// mergeItems sums quantities of repeated item ids, keeping first-seen order.
// A summed quantity that does not fit the quantity column is rejected.
func mergeItems(items []ItemQuantity) ([]ItemQuantity, error) {
	idx := make(map[uuid.UUID]int, len(items))
	totals := make([]int64, 0, len(items))
	out := make([]ItemQuantity, 0, len(items))
	for _, it := range items {
		i, ok := idx[it.LaundryItemID]
		if !ok {
			i = len(out)
			idx[it.LaundryItemID] = i
			out = append(out, ItemQuantity{LaundryItemID: it.LaundryItemID})
			totals = append(totals, 0)
		}
		totals[i] += int64(it.Quantity)
		if totals[i] > math.MaxInt32 {
			return nil, ErrQuantityTooLarge
		}
		out[i].Quantity = int32(totals[i])
	}
	return out, nil
}
