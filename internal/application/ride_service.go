package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/freewheels/service-rides/internal/domain"
	bookingDomain "github.com/freewheels/service-rides/internal/domain/booking"
	rideDomain "github.com/freewheels/service-rides/internal/domain/ride"
	vehicleDomain "github.com/freewheels/service-rides/internal/domain/vehicle"
	"github.com/freewheels/service-rides/internal/events"
	"github.com/freewheels/service-rides/internal/geo"
	"github.com/freewheels/service-rides/internal/kafka"
	"github.com/freewheels/service-rides/internal/locker"
	"github.com/freewheels/service-rides/internal/observability"
)

// CreateRideRequest holds the data needed to publish a new ride.
type CreateRideRequest struct {
	VehicleID   *uuid.UUID   `json:"vehicle_id"`
	Pickup      domain.Point `json:"pickup" binding:"required"`
	Drop        domain.Point `json:"drop" binding:"required"`
	DepartureAt time.Time    `json:"departure_at" binding:"required"`
	SeatsTotal  int          `json:"seats_total" binding:"required"`
	CostPerSeat int64        `json:"cost_per_seat" binding:"required"`
	Notes       string       `json:"notes"`
}

// UpdateRideRequest holds owner mutations of non-seat ride fields. Nil fields
// are left unchanged.
type UpdateRideRequest struct {
	Pickup      *domain.Point `json:"pickup"`
	Drop        *domain.Point `json:"drop"`
	DepartureAt *time.Time    `json:"departure_at"`
	CostPerSeat *int64        `json:"cost_per_seat"`
	Notes       *string       `json:"notes"`
}

// RideService is the ride inventory: the single writer of seat counts and
// ride status. Every mutation of one ride runs under that ride's lock.
type RideService struct {
	rides    rideDomain.RideRepository
	bookings bookingDomain.BookingRepository
	vehicles vehicleDomain.VehicleRepository
	geoIndex geo.Index
	locks    *locker.KeyedMutex
	fare     rideDomain.FareSuggester
	producer EventPublisher
	logger   *zap.Logger
}

// NewRideService creates a new RideService.
func NewRideService(
	rides rideDomain.RideRepository,
	bookings bookingDomain.BookingRepository,
	vehicles vehicleDomain.VehicleRepository,
	geoIndex geo.Index,
	locks *locker.KeyedMutex,
	fare rideDomain.FareSuggester,
	producer EventPublisher,
	logger *zap.Logger,
) *RideService {
	return &RideService{
		rides:    rides,
		bookings: bookings,
		vehicles: vehicles,
		geoIndex: geoIndex,
		locks:    locks,
		fare:     fare,
		producer: producer,
		logger:   logger,
	}
}

// Locks returns the per-ride lock registry shared with the booking ledger.
func (s *RideService) Locks() *locker.KeyedMutex {
	return s.locks
}

// CreateRide publishes a new ride for the given provider.
func (s *RideService) CreateRide(ctx context.Context, providerID uuid.UUID, req CreateRideRequest) (*RideDTO, error) {
	if req.VehicleID != nil {
		v, err := s.vehicles.FindByID(ctx, *req.VehicleID)
		if err != nil {
			return nil, err
		}
		if !v.IsOwnedBy(providerID) {
			return nil, domain.NewForbiddenError("vehicle does not belong to this provider")
		}
		if !v.IsActive() {
			return nil, domain.NewValidationError("vehicle profile is archived")
		}
		if !v.CanCarry(req.SeatsTotal) {
			return nil, domain.NewValidationError(fmt.Sprintf("vehicle capacity is %d seats", v.SeatCapacity()))
		}
	}

	rd, err := rideDomain.NewRide(providerID, req.VehicleID, req.Pickup, req.Drop,
		req.DepartureAt, req.SeatsTotal, req.CostPerSeat, req.Notes)
	if err != nil {
		return nil, err
	}

	if err := s.rides.Save(ctx, rd); err != nil {
		return nil, fmt.Errorf("failed to save ride: %w", err)
	}

	if err := s.geoIndex.Insert(ctx, rd.ID(), rd.Pickup()); err != nil {
		// the index is rebuildable; do not fail the publish
		s.logger.Warn("failed to index ride pickup", zap.String("ride_id", rd.ID().String()), zap.Error(err))
	}

	s.publishRideEvent(ctx, events.RideCreated, rd)

	result := toRideDTO(rd)
	return &result, nil
}

// SuggestFare proposes a per-seat price for a route before it is posted.
func (s *RideService) SuggestFare(pickup, drop domain.Point, seatsTotal int) (int64, error) {
	if !pickup.Valid() || !drop.Valid() {
		return 0, domain.NewValidationError("coordinates are out of range")
	}
	distKm := geo.Haversine(pickup.Latitude, pickup.Longitude, drop.Latitude, drop.Longitude) / 1000.0
	suggested, err := s.fare.Suggest(rideDomain.FareParams{DistanceKm: distKm, SeatsTotal: seatsTotal})
	if err != nil {
		return 0, domain.NewValidationError(err.Error())
	}
	return suggested, nil
}

// GetRide retrieves a single ride by ID.
func (s *RideService) GetRide(ctx context.Context, rideID uuid.UUID) (*RideDTO, error) {
	rd, err := s.rides.FindByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	result := toRideDTO(rd)
	return &result, nil
}

// GetProviderRides retrieves paginated rides published by a provider.
func (s *RideService) GetProviderRides(ctx context.Context, providerID uuid.UUID, page, limit int) (*domain.PaginatedResult[RideDTO], error) {
	rides, total, err := s.rides.FindByProviderID(ctx, providerID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]RideDTO, len(rides))
	for i, rd := range rides {
		dtos[i] = toRideDTO(rd)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// UpdateRide applies owner mutations to non-seat fields.
func (s *RideService) UpdateRide(ctx context.Context, rideID, callerID uuid.UUID, req UpdateRideRequest) (*RideDTO, error) {
	s.locks.Lock(rideID)
	defer s.locks.Unlock(rideID)

	rd, err := s.rides.FindByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !rd.IsOwnedBy(callerID) {
		return nil, domain.NewForbiddenError("ride does not belong to this provider")
	}

	if err := rd.UpdateDetails(req.Pickup, req.Drop, req.DepartureAt, req.CostPerSeat, req.Notes); err != nil {
		return nil, err
	}

	rd.IncrementVersion()
	if err := s.rides.Update(ctx, rd); err != nil {
		return nil, err
	}

	if req.Pickup != nil {
		if err := s.geoIndex.Insert(ctx, rd.ID(), rd.Pickup()); err != nil {
			s.logger.Warn("failed to re-index ride pickup", zap.String("ride_id", rd.ID().String()), zap.Error(err))
		}
	}

	s.publishRideEvent(ctx, events.RideUpdated, rd)

	result := toRideDTO(rd)
	return &result, nil
}

// DeleteRide removes a ride permanently. Deletion is blocked while pending or
// accepted bookings reference the ride, so no booking is ever orphaned.
func (s *RideService) DeleteRide(ctx context.Context, rideID, callerID uuid.UUID) error {
	s.locks.Lock(rideID)
	defer s.locks.Unlock(rideID)

	rd, err := s.rides.FindByID(ctx, rideID)
	if err != nil {
		return err
	}
	if !rd.IsOwnedBy(callerID) {
		return domain.NewForbiddenError("ride does not belong to this provider")
	}

	active, err := s.bookings.CountActiveByRideID(ctx, rideID)
	if err != nil {
		return err
	}
	if active > 0 {
		return domain.NewRideHasActiveBookingsError(rideID.String())
	}

	if err := s.rides.Delete(ctx, rideID); err != nil {
		return err
	}
	if err := s.geoIndex.Remove(ctx, rideID); err != nil {
		s.logger.Warn("failed to remove ride from index", zap.String("ride_id", rideID.String()), zap.Error(err))
	}
	return nil
}

// CancelRide transitions an owned ride to cancelled. Pending bookings on the
// ride are settled separately by the booking ledger.
func (s *RideService) CancelRide(ctx context.Context, rideID, callerID uuid.UUID) (*RideDTO, error) {
	s.locks.Lock(rideID)
	defer s.locks.Unlock(rideID)

	rd, err := s.rides.FindByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !rd.IsOwnedBy(callerID) {
		return nil, domain.NewForbiddenError("ride does not belong to this provider")
	}

	if err := rd.Cancel(); err != nil {
		return nil, err
	}

	rd.IncrementVersion()
	if err := s.rides.Update(ctx, rd); err != nil {
		return nil, err
	}
	if err := s.geoIndex.Remove(ctx, rideID); err != nil {
		s.logger.Warn("failed to remove ride from index", zap.String("ride_id", rideID.String()), zap.Error(err))
	}

	s.publishRideEvent(ctx, events.RideCancelled, rd)

	result := toRideDTO(rd)
	return &result, nil
}

// MarkCompleted transitions a departed ride to completed. Invoked by the
// completion sweeper, never by request handlers.
func (s *RideService) MarkCompleted(ctx context.Context, rideID uuid.UUID) (*RideDTO, error) {
	s.locks.Lock(rideID)
	defer s.locks.Unlock(rideID)

	rd, err := s.rides.FindByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if err := rd.MarkCompleted(); err != nil {
		return nil, err
	}

	rd.IncrementVersion()
	if err := s.rides.Update(ctx, rd); err != nil {
		return nil, err
	}
	if err := s.geoIndex.Remove(ctx, rideID); err != nil {
		s.logger.Warn("failed to remove ride from index", zap.String("ride_id", rideID.String()), zap.Error(err))
	}

	observability.RidesCompleted.Inc()
	s.publishRideEvent(ctx, events.RideCompleted, rd)

	result := toRideDTO(rd)
	return &result, nil
}

// FindDepartedRides lists non-terminal rides whose departure has passed.
func (s *RideService) FindDepartedRides(ctx context.Context, cutoff time.Time, limit int) ([]RideDTO, error) {
	rides, err := s.rides.FindDeparted(ctx, cutoff, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]RideDTO, len(rides))
	for i, rd := range rides {
		dtos[i] = toRideDTO(rd)
	}
	return dtos, nil
}

// RebuildGeoIndex reloads every open ride's pickup into the geo index.
func (s *RideService) RebuildGeoIndex(ctx context.Context) error {
	rides, err := s.rides.ListOpen(ctx)
	if err != nil {
		return fmt.Errorf("failed to load open rides: %w", err)
	}
	for _, rd := range rides {
		if err := s.geoIndex.Insert(ctx, rd.ID(), rd.Pickup()); err != nil {
			return fmt.Errorf("failed to index ride %s: %w", rd.ID(), err)
		}
	}
	s.logger.Info("geo index rebuilt", zap.Int("rides", len(rides)))
	return nil
}

// --- Seat operations ---
//
// These are called by the booking ledger only, while it holds the ride's
// lock; they do not lock themselves.

// ReserveSeat places a provisional hold on one seat and returns its token.
func (s *RideService) ReserveSeat(ctx context.Context, rideID uuid.UUID) (rideDomain.ReservationToken, error) {
	var zero rideDomain.ReservationToken

	rd, err := s.rides.FindByID(ctx, rideID)
	if err != nil {
		return zero, err
	}

	if err := rd.ReserveSeat(); err != nil {
		return zero, err
	}
	if err := rd.CheckSeatInvariant(); err != nil {
		return zero, err
	}

	rd.IncrementVersion()
	if err := s.rides.Update(ctx, rd); err != nil {
		return zero, err
	}
	return rideDomain.NewReservationToken(rideID), nil
}

// CommitReservation makes a hold permanent. The seat count was already
// decremented at reservation time, so this only verifies ride state.
func (s *RideService) CommitReservation(ctx context.Context, token rideDomain.ReservationToken) error {
	rd, err := s.rides.FindByID(ctx, token.RideID)
	if err != nil {
		return err
	}
	if rd.Status().IsTerminal() {
		return domain.NewRideNotActiveError(rd.ID().String(), string(rd.Status()))
	}
	return rd.CheckSeatInvariant()
}

// ReleaseReservation reverses a hold, returning the seat to availability.
func (s *RideService) ReleaseReservation(ctx context.Context, token rideDomain.ReservationToken) error {
	rd, err := s.rides.FindByID(ctx, token.RideID)
	if err != nil {
		return err
	}

	if err := rd.ReleaseSeat(); err != nil {
		return err
	}
	if err := rd.CheckSeatInvariant(); err != nil {
		return err
	}

	rd.IncrementVersion()
	return s.rides.Update(ctx, rd)
}

// --- Admin methods ---

// ListAllRides returns a paginated list of all rides (admin).
func (s *RideService) ListAllRides(ctx context.Context, page, limit int) ([]RideDTO, int64, error) {
	rides, total, err := s.rides.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rides: %w", err)
	}

	dtos := make([]RideDTO, len(rides))
	for i, rd := range rides {
		dtos[i] = toRideDTO(rd)
	}
	return dtos, total, nil
}

// --- Helpers ---

func (s *RideService) publishRideEvent(ctx context.Context, eventType string, rd *rideDomain.Ride) {
	evt := events.RideEvent{
		RideID:         rd.ID(),
		ProviderID:     rd.ProviderID(),
		Status:         string(rd.Status()),
		SeatsTotal:     rd.SeatsTotal(),
		SeatsAvailable: rd.SeatsAvailable(),
		DepartureAt:    rd.DepartureAt(),
		OccurredAt:     time.Now().UTC(),
	}

	cloudEvent, err := kafka.NewCloudEvent("service-rides", eventType, evt)
	if err != nil {
		s.logger.Error("failed to create cloud event", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	if err := s.producer.PublishEvent(ctx, events.TopicRideEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish ride event",
			zap.String("event_type", eventType),
			zap.String("ride_id", rd.ID().String()),
			zap.Error(err),
		)
	}
}
