package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/washline/api/internal/database"
	"github.com/washline/api/internal/enum"
	"github.com/washline/api/internal/geo"
	"github.com/washline/api/internal/notify"
	"github.com/washline/api/internal/policy"
	"go.uber.org/zap"
)

// PickupRequest asks an outlet to collect laundry from a customer address.
type PickupRequest struct {
	AddressID uuid.UUID
	OutletID  uuid.UUID
}

type PickupResult struct {
	Order    database.Order
	Delivery database.Delivery
}

// RequestPickup opens an order with its pickup delivery. Outlets farther than
// the service radius are rejected before anything is written.
// Retries on order_number unique violations (concurrent MAX readers).
func (s *FulfillmentService) RequestPickup(ctx context.Context, actor policy.Actor, req PickupRequest) (*PickupResult, error) {
	if actor.Role != enum.RoleCustomer {
		return nil, ErrForbidden
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.requestPickupTx(ctx, actor, req)
		if err == nil {
			return result, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			s.logger.Warn("order number conflict, retrying", zap.Int("attempt", attempt+1))
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

func (s *FulfillmentService) requestPickupTx(ctx context.Context, actor policy.Actor, req PickupRequest) (*PickupResult, error) {
	var result PickupResult
	err := s.inTx(ctx, func(store FulfillmentStore, out *outbox) error {
		address, err := store.GetAddressForCustomer(ctx, database.GetAddressForCustomerParams{
			ID:         req.AddressID,
			CustomerID: actor.UserID,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrAddressNotFound
			}
			return fmt.Errorf("get address: %w", err)
		}

		outlet, err := store.GetOutlet(ctx, req.OutletID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOutletNotFound
			}
			return fmt.Errorf("get outlet: %w", err)
		}

		distance := geo.Distance(
			geo.Point{Lat: address.Latitude, Lon: address.Longitude},
			geo.Point{Lat: outlet.Latitude, Lon: outlet.Longitude},
		)
		if !geo.WithinRadius(distance, s.pricing.MaxRadiusKm) {
			return fmt.Errorf("%w (%.2f km > %.2f km)", ErrOutOfRange, distance, s.pricing.MaxRadiusKm)
		}
		fee := geo.DeliveryFee(distance, s.pricing.PricePerKm)

		nextNum, err := store.GetNextOrderNumber(ctx, outlet.ID)
		if err != nil {
			return fmt.Errorf("get next order number: %w", err)
		}

		order, err := store.CreateOrder(ctx, database.CreateOrderParams{
			OrderNumber:   fmt.Sprintf("WL-%04d", nextNum),
			CustomerID:    actor.UserID,
			OutletID:      outlet.ID,
			AddressID:     address.ID,
			CurrentStatus: database.OrderStatusWAITINGFORPICKUPDRIVER,
			DeliveryFee:   decimalToNumeric(fee),
		})
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		if _, err := store.CreateOrderProgress(ctx, database.CreateOrderProgressParams{
			OrderID: order.ID,
			Seq:     order.ProgressSeq,
			Status:  order.CurrentStatus,
		}); err != nil {
			return fmt.Errorf("create order progress: %w", err)
		}

		delivery, err := store.CreateDelivery(ctx, database.CreateDeliveryParams{
			OrderID:    order.ID,
			OutletID:   outlet.ID,
			Type:       database.DeliveryTypePICKUP,
			DistanceKm: distance,
		})
		if err != nil {
			return fmt.Errorf("create pickup delivery: %w", err)
		}

		out.add(notify.Outlet(outlet.ID, enum.RoleDriver),
			"New pickup request",
			fmt.Sprintf("Order %s is waiting for a pickup driver (%.1f km).", order.OrderNumber, distance))

		result = PickupResult{Order: order, Delivery: delivery}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

type NearbyOutlet struct {
	Outlet     database.Outlet `json:"outlet"`
	DistanceKm float64         `json:"distance_km"`
}

// NearbyOutlets lists outlets within the service radius of a customer
// address, closest first.
func (s *FulfillmentService) NearbyOutlets(ctx context.Context, actor policy.Actor, addressID uuid.UUID) ([]NearbyOutlet, error) {
	if actor.Role != enum.RoleCustomer {
		return nil, ErrForbidden
	}

	result := []NearbyOutlet{}
	err := s.inTx(ctx, func(store FulfillmentStore, _ *outbox) error {
		address, err := store.GetAddressForCustomer(ctx, database.GetAddressForCustomerParams{
			ID:         addressID,
			CustomerID: actor.UserID,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrAddressNotFound
			}
			return fmt.Errorf("get address: %w", err)
		}

		center := geo.Point{Lat: address.Latitude, Lon: address.Longitude}
		box := geo.Threshold(center, s.pricing.MaxRadiusKm)
		candidates, err := store.ListOutletsInBox(ctx, database.ListOutletsInBoxParams{
			MinLat: box.MinLat,
			MaxLat: box.MaxLat,
			MinLon: box.MinLon,
			MaxLon: box.MaxLon,
		})
		if err != nil {
			return fmt.Errorf("list outlets in box: %w", err)
		}

		for _, o := range candidates {
			d := geo.Distance(center, geo.Point{Lat: o.Latitude, Lon: o.Longitude})
			if geo.WithinRadius(d, s.pricing.MaxRadiusKm) {
				result = append(result, NearbyOutlet{Outlet: o, DistanceKm: d})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool { return result[i].DistanceKm < result[j].DistanceKm })
	return result, nil
}
