// Package geo holds the pure distance helpers used for pickup quoting and
// outlet lookup.
package geo

import (
	"math"

	"github.com/shopspring/decimal"
)

const earthRadiusKm = 6371.0

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Distance returns the great-circle distance between a and b in kilometers
// using the haversine formula.
func Distance(a, b Point) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Box is an axis-aligned latitude/longitude rectangle.
type Box struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Contains reports whether p lies inside the box, edges included.
func (b Box) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// Threshold returns the bounding box that encloses every point within
// radiusKm of center. It over-approximates the circle, so candidates still
// need an exact Distance check.
func Threshold(center Point, radiusKm float64) Box {
	dLat := radiusKm / earthRadiusKm * 180 / math.Pi
	cosLat := math.Cos(toRadians(center.Lat))
	dLon := 180.0
	if cosLat > 1e-9 {
		dLon = math.Min(180, dLat/cosLat)
	}
	return Box{
		MinLat: math.Max(-90, center.Lat-dLat),
		MaxLat: math.Min(90, center.Lat+dLat),
		MinLon: center.Lon - dLon,
		MaxLon: center.Lon + dLon,
	}
}

// WithinRadius reports whether distanceKm is acceptable for a pickup.
// The boundary is inclusive.
func WithinRadius(distanceKm, maxRadiusKm float64) bool {
	return distanceKm <= maxRadiusKm
}

// DeliveryFee prices a trip as ceil(distance) * pricePerKm.
func DeliveryFee(distanceKm float64, pricePerKm decimal.Decimal) decimal.Decimal {
	km := decimal.NewFromFloat(math.Ceil(distanceKm))
	return km.Mul(pricePerKm).Round(0)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
