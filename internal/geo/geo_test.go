package geo_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/washline/api/internal/geo"
)

var (
	monas     = geo.Point{Lat: -6.175392, Lon: 106.827153}
	bundaranH = geo.Point{Lat: -6.195000, Lon: 106.823056}
)

func TestDistanceSamePoint(t *testing.T) {
	assert.InDelta(t, 0, geo.Distance(monas, monas), 1e-9)
}

func TestDistanceKnownPair(t *testing.T) {
	// Roughly 2.2 km between the two landmarks.
	d := geo.Distance(monas, bundaranH)
	assert.InDelta(t, 2.22, d, 0.05)
	assert.InDelta(t, d, geo.Distance(bundaranH, monas), 1e-9)
}

func TestDistanceOneDegreeLatitude(t *testing.T) {
	d := geo.Distance(geo.Point{Lat: 0, Lon: 0}, geo.Point{Lat: 1, Lon: 0})
	assert.InDelta(t, 111.19, d, 0.01)
}

func TestThresholdContainsCircle(t *testing.T) {
	box := geo.Threshold(monas, 5)
	assert.True(t, box.Contains(monas))
	assert.True(t, box.Contains(bundaranH))

	far := geo.Point{Lat: -6.9175, Lon: 107.6191} // Bandung
	assert.False(t, box.Contains(far))

	// A point 4.9 km due north sits inside the box.
	north := geo.Point{Lat: monas.Lat + 4.9/111.19, Lon: monas.Lon}
	assert.True(t, box.Contains(north))
}

func TestWithinRadiusBoundaryIsInclusive(t *testing.T) {
	assert.True(t, geo.WithinRadius(10, 10))
	assert.True(t, geo.WithinRadius(9.999, 10))
	assert.False(t, geo.WithinRadius(10.0001, 10))
}

func TestDeliveryFeeRoundsDistanceUp(t *testing.T) {
	perKm := decimal.NewFromInt(5000)

	tests := []struct {
		name     string
		distance float64
		want     string
	}{
		{"zero", 0, "0"},
		{"fraction", 0.2, "5000"},
		{"exact", 3, "15000"},
		{"just over", 3.01, "20000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, geo.DeliveryFee(tt.distance, perKm).String())
		})
	}
}

func TestDeliveryFeeIsWholeUnits(t *testing.T) {
	fee := geo.DeliveryFee(2.4, decimal.RequireFromString("2500.40"))
	assert.Equal(t, "7501", fee.String())
}
