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
	"github.com/freewheels/service-rides/internal/events"
	"github.com/freewheels/service-rides/internal/kafka"
	"github.com/freewheels/service-rides/internal/locker"
	"github.com/freewheels/service-rides/internal/observability"
)

// BookingDecision is the provider's response to a pending booking.
type BookingDecision string

const (
	DecisionAccept BookingDecision = "accept"
	DecisionReject BookingDecision = "reject"
)

// PendingRequestDTO is a pending booking paired with its ride, as shown on
// the provider's requests page.
type PendingRequestDTO struct {
	Booking BookingDTO `json:"booking"`
	Ride    RideDTO    `json:"ride"`
}

// BookingService is the booking ledger: it enforces the one-active-booking
// per (ride, seeker) rule and drives the accept/reject protocol against the
// ride inventory. All mutations for a booking run under its ride's lock, so
// a provider's accept racing a seeker's cancel settles in lock order and the
// loser observes AlreadyResolved.
type BookingService struct {
	bookings  bookingDomain.BookingRepository
	rides     rideDomain.RideRepository
	inventory *RideService
	locks     *locker.KeyedMutex
	producer  EventPublisher
	logger    *zap.Logger
}

// NewBookingService creates a new BookingService sharing the ride inventory's
// lock registry.
func NewBookingService(
	bookings bookingDomain.BookingRepository,
	rides rideDomain.RideRepository,
	inventory *RideService,
	producer EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings:  bookings,
		rides:     rides,
		inventory: inventory,
		locks:     inventory.Locks(),
		producer:  producer,
		logger:    logger,
	}
}

// RequestBooking creates a pending booking holding one seat on the ride.
func (s *BookingService) RequestBooking(ctx context.Context, rideID, seekerID uuid.UUID, note string) (*BookingDTO, error) {
	if rideID == uuid.Nil || seekerID == uuid.Nil {
		return nil, domain.NewValidationError("ride ID and seeker ID are required")
	}

	s.locks.Lock(rideID)
	defer s.locks.Unlock(rideID)

	rd, err := s.rides.FindByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if rd.ProviderID() == seekerID {
		return nil, domain.NewSelfBookingError()
	}

	existing, err := s.bookings.FindActive(ctx, rideID, seekerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.NewDuplicateRequestError(rideID.String())
	}

	token, err := s.inventory.ReserveSeat(ctx, rideID)
	if err != nil {
		if domain.IsCode(err, domain.CodeNoSeatsAvailable) {
			observability.SeatContention.Inc()
		}
		return nil, err
	}

	bk, err := bookingDomain.NewBooking(rideID, seekerID, token, note)
	if err != nil {
		return nil, err
	}
	if err := s.bookings.Save(ctx, bk); err != nil {
		// the hold would leak without the booking row; give the seat back
		if relErr := s.inventory.ReleaseReservation(ctx, token); relErr != nil {
			s.logger.Error("failed to release orphaned hold",
				zap.String("ride_id", rideID.String()), zap.Error(relErr))
		}
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	observability.BookingsRequested.Inc()
	s.publishBookingEvent(ctx, events.BookingRequested, bk, rd.ProviderID())

	result := toBookingDTO(bk)
	return &result, nil
}

// RespondToBooking settles a pending booking with the provider's decision.
func (s *BookingService) RespondToBooking(ctx context.Context, bookingID, responderID uuid.UUID, decision BookingDecision) (*BookingDTO, error) {
	if decision != DecisionAccept && decision != DecisionReject {
		return nil, domain.NewValidationError(fmt.Sprintf("unknown decision: %s", decision))
	}

	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(bk.RideID())
	defer s.locks.Unlock(bk.RideID())

	// re-read under the lock: a racing cancel may have settled it already
	bk, err = s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	rd, err := s.rides.FindByID(ctx, bk.RideID())
	if err != nil {
		return nil, err
	}
	if !rd.IsOwnedBy(responderID) {
		return nil, domain.NewForbiddenError("only the ride's provider may respond")
	}

	switch decision {
	case DecisionAccept:
		if err := bk.Accept(); err != nil {
			return nil, err
		}
		if err := s.inventory.CommitReservation(ctx, bk.Reservation()); err != nil {
			return nil, err
		}
	case DecisionReject:
		if err := bk.Reject(); err != nil {
			return nil, err
		}
		if err := s.inventory.ReleaseReservation(ctx, bk.Reservation()); err != nil {
			return nil, err
		}
	}

	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}

	observability.BookingsResolved.WithLabelValues(string(bk.Status())).Inc()
	eventType := events.BookingAccepted
	if decision == DecisionReject {
		eventType = events.BookingRejected
	}
	s.publishBookingEvent(ctx, eventType, bk, rd.ProviderID())

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking withdraws a pending booking at the seeker's request and
// releases the held seat.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, requesterID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(bk.RideID())
	defer s.locks.Unlock(bk.RideID())

	bk, err = s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if bk.SeekerID() != requesterID {
		return nil, domain.NewForbiddenError("booking does not belong to this seeker")
	}

	if err := bk.Cancel(); err != nil {
		return nil, err
	}
	if err := s.inventory.ReleaseReservation(ctx, bk.Reservation()); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}

	observability.BookingsResolved.WithLabelValues(string(bk.Status())).Inc()

	rd, err := s.rides.FindByID(ctx, bk.RideID())
	if err == nil {
		s.publishBookingEvent(ctx, events.BookingCancelled, bk, rd.ProviderID())
	}

	result := toBookingDTO(bk)
	return &result, nil
}

// RejectPendingForRide settles every pending booking on a ride as rejected.
// Called after a ride is cancelled or completed, so no request stays pending
// against a ride that can no longer run.
func (s *BookingService) RejectPendingForRide(ctx context.Context, rideID uuid.UUID) error {
	s.locks.Lock(rideID)
	defer s.locks.Unlock(rideID)

	pending, err := s.bookings.FindPendingByRideIDs(ctx, []uuid.UUID{rideID})
	if err != nil {
		return err
	}

	for _, bk := range pending {
		if err := bk.Reject(); err != nil {
			continue
		}
		if err := s.inventory.ReleaseReservation(ctx, bk.Reservation()); err != nil {
			return err
		}
		bk.IncrementVersion()
		if err := s.bookings.Update(ctx, bk); err != nil {
			return err
		}
		observability.BookingsResolved.WithLabelValues(string(bk.Status())).Inc()
	}
	return nil
}

// CancelActiveForSeeker withdraws every pending booking held by a seeker.
// Driven by account-deactivation events from the identity service.
func (s *BookingService) CancelActiveForSeeker(ctx context.Context, seekerID uuid.UUID) error {
	active, err := s.bookings.FindActiveBySeekerID(ctx, seekerID)
	if err != nil {
		return err
	}

	for _, bk := range active {
		if bk.Status() != bookingDomain.StatusPending {
			continue
		}
		if _, err := s.CancelBooking(ctx, bk.ID(), seekerID); err != nil {
			// a racing provider response is fine; anything else is not
			if domain.IsCode(err, domain.CodeAlreadyResolved) {
				continue
			}
			return err
		}
	}
	return nil
}

// GetBooking retrieves a single booking visible to the caller.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, callerID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if bk.SeekerID() != callerID {
		rd, err := s.rides.FindByID(ctx, bk.RideID())
		if err != nil || !rd.IsOwnedBy(callerID) {
			return nil, domain.NewForbiddenError("booking is not visible to this user")
		}
	}

	result := toBookingDTO(bk)
	return &result, nil
}

// ListForSeeker retrieves paginated bookings made by a seeker.
func (s *BookingService) ListForSeeker(ctx context.Context, seekerID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.bookings.FindBySeekerID(ctx, seekerID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// ListPendingForProvider retrieves pending requests across all of a
// provider's rides, each paired with its ride.
func (s *BookingService) ListPendingForProvider(ctx context.Context, providerID uuid.UUID) ([]PendingRequestDTO, error) {
	rides, _, err := s.rides.FindByProviderID(ctx, providerID, 1, providerRidesScanLimit)
	if err != nil {
		return nil, err
	}
	if len(rides) == 0 {
		return []PendingRequestDTO{}, nil
	}

	rideByID := make(map[uuid.UUID]RideDTO, len(rides))
	rideIDs := make([]uuid.UUID, len(rides))
	for i, rd := range rides {
		rideIDs[i] = rd.ID()
		rideByID[rd.ID()] = toRideDTO(rd)
	}

	pending, err := s.bookings.FindPendingByRideIDs(ctx, rideIDs)
	if err != nil {
		return nil, err
	}

	out := make([]PendingRequestDTO, 0, len(pending))
	for _, bk := range pending {
		out = append(out, PendingRequestDTO{
			Booking: toBookingDTO(bk),
			Ride:    rideByID[bk.RideID()],
		})
	}
	return out, nil
}

// providerRidesScanLimit bounds the rides scanned for the requests page.
const providerRidesScanLimit = 200

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.bookings.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos, total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	return &BookingStatsDTO{TotalBookings: total, ByStatus: counts}, nil
}

// --- Helpers ---

func (s *BookingService) publishBookingEvent(ctx context.Context, eventType string, bk *bookingDomain.Booking, providerID uuid.UUID) {
	evt := events.BookingEvent{
		BookingID:  bk.ID(),
		RideID:     bk.RideID(),
		SeekerID:   bk.SeekerID(),
		ProviderID: providerID,
		Status:     string(bk.Status()),
		OccurredAt: time.Now().UTC(),
	}

	cloudEvent, err := kafka.NewCloudEvent("service-rides", eventType, evt)
	if err != nil {
		s.logger.Error("failed to create cloud event", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	if err := s.producer.PublishEvent(ctx, events.TopicBookingEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish booking event",
			zap.String("event_type", eventType),
			zap.String("booking_id", bk.ID().String()),
			zap.Error(err),
		)
	}
}
