package service

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/washline/api/internal/database"
	"github.com/washline/api/internal/enum"
)

func TestCanAdvance(t *testing.T) {
	tests := []struct {
		name string
		from database.OrderStatus
		to   database.OrderStatus
		want bool
	}{
		{"next stage", database.OrderStatusWAITINGFORPICKUPDRIVER, database.OrderStatusONPROGRESSPICKUP, true},
		{"skip ahead", database.OrderStatusONPROGRESSPACKING, database.OrderStatusWAITINGFORDROPOFF, true},
		{"same stage", database.OrderStatusONPROGRESSWASHING, database.OrderStatusONPROGRESSWASHING, false},
		{"backwards", database.OrderStatusONPROGRESSIRONING, database.OrderStatusONPROGRESSWASHING, false},
		{"out of completed", database.OrderStatusCOMPLETEDORDER, database.OrderStatusONPROGRESSDROPOFF, false},
		{"unknown from", "LOST", database.OrderStatusCOMPLETEDORDER, false},
		{"unknown to", database.OrderStatusARRIVEDATOUTLET, "LOST", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAdvance(tt.from, tt.to))
		})
	}
}

func TestIsProcessed(t *testing.T) {
	assert.False(t, isProcessed(database.OrderStatusARRIVEDATOUTLET))
	assert.True(t, isProcessed(database.OrderStatusONPROGRESSWASHING))
	assert.True(t, isProcessed(database.OrderStatusWAITINGFORPAYMENT))
	assert.True(t, isProcessed(database.OrderStatusCOMPLETEDORDER))
}

func TestAdvance(t *testing.T) {
	t.Run("washing creates ironing job", func(t *testing.T) {
		tr, err := Advance(database.JobTypeWASHING, true)
		require.NoError(t, err)
		assert.Equal(t, database.OrderStatusONPROGRESSIRONING, tr.NextStatus)
		assert.Equal(t, database.JobTypeIRONING, tr.CreatesJob)
		assert.Empty(t, tr.CreatesDelivery)
		assert.Equal(t, []string{enum.RoleIroningWorker}, tr.NotifyRoles)
	})

	t.Run("ironing creates packing job", func(t *testing.T) {
		tr, err := Advance(database.JobTypeIRONING, false)
		require.NoError(t, err)
		assert.Equal(t, database.OrderStatusONPROGRESSPACKING, tr.NextStatus)
		assert.Equal(t, database.JobTypePACKING, tr.CreatesJob)
	})

	t.Run("packing with payment outstanding waits for payment", func(t *testing.T) {
		tr, err := Advance(database.JobTypePACKING, true)
		require.NoError(t, err)
		assert.Equal(t, database.OrderStatusWAITINGFORPAYMENT, tr.NextStatus)
		assert.True(t, tr.SetsPayable)
		assert.True(t, tr.NotifyCustomer)
		assert.Empty(t, tr.CreatesJob)
		assert.Empty(t, tr.CreatesDelivery)
	})

	t.Run("packing when settled schedules dropoff", func(t *testing.T) {
		tr, err := Advance(database.JobTypePACKING, false)
		require.NoError(t, err)
		assert.Equal(t, database.OrderStatusWAITINGFORDROPOFF, tr.NextStatus)
		assert.Equal(t, database.DeliveryTypeDROPOFF, tr.CreatesDelivery)
		assert.False(t, tr.SetsPayable)
		assert.Empty(t, tr.CreatesJob)
	})

	t.Run("unknown job type", func(t *testing.T) {
		_, err := Advance("DRYING", false)
		assert.True(t, errors.Is(err, ErrInvalidState))
	})
}

func TestMatchItems(t *testing.T) {
	shirt, pants, socks := uuid.New(), uuid.New(), uuid.New()
	recorded := []database.OrderItem{
		{LaundryItemID: shirt, Quantity: 2},
		{LaundryItemID: pants, Quantity: 1},
	}

	tests := []struct {
		name      string
		submitted []ItemQuantity
		want      bool
	}{
		{"exact", []ItemQuantity{{shirt, 2}, {pants, 1}}, true},
		{"reordered", []ItemQuantity{{pants, 1}, {shirt, 2}}, true},
		{"split line", []ItemQuantity{{shirt, 1}, {pants, 1}, {shirt, 1}}, true},
		{"missing line", []ItemQuantity{{shirt, 2}}, false},
		{"extra line", []ItemQuantity{{shirt, 2}, {pants, 1}, {socks, 1}}, false},
		{"altered quantity", []ItemQuantity{{shirt, 3}, {pants, 1}}, false},
		{"zero quantity", []ItemQuantity{{shirt, 2}, {pants, 1}, {socks, 0}}, false},
		{"negative quantity", []ItemQuantity{{shirt, 3}, {shirt, -1}, {pants, 1}}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchItems(recorded, tt.submitted))
		})
	}
}

func TestMergeItems(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	got, err := mergeItems([]ItemQuantity{{a, 1}, {b, 2}, {a, 3}})
	require.NoError(t, err)
	assert.Equal(t, []ItemQuantity{{a, 4}, {b, 2}}, got)

	_, err = mergeItems([]ItemQuantity{{a, math.MaxInt32}, {b, 1}, {a, 1}})
	assert.ErrorIs(t, err, ErrQuantityTooLarge)
	assert.ErrorIs(t, err, ErrValidation)

	got, err = mergeItems([]ItemQuantity{{a, math.MaxInt32 - 1}, {a, 1}})
	require.NoError(t, err)
	assert.Equal(t, []ItemQuantity{{a, math.MaxInt32}}, got)
}
