package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/freewheels/service-rides/internal/domain"
	rideDomain "github.com/freewheels/service-rides/internal/domain/ride"
)

// Booking is the aggregate root for a seat request on a ride. It is created
// pending with a reservation token already holding the seat; the provider's
// response (or the seeker's withdrawal) settles the hold exactly once.
type Booking struct {
	id          uuid.UUID
	rideID      uuid.UUID
	seekerID    uuid.UUID
	status      BookingStatus
	reservation rideDomain.ReservationToken
	note        string

	createdAt   time.Time
	respondedAt *time.Time
	version     int64
	updatedAt   time.Time
}

// NewBooking creates a pending booking holding the given reservation.
func NewBooking(rideID, seekerID uuid.UUID, reservation rideDomain.ReservationToken, note string) (*Booking, error) {
	if rideID == uuid.Nil {
		return nil, domain.NewValidationError("ride ID is required")
	}
	if seekerID == uuid.Nil {
		return nil, domain.NewValidationError("seeker ID is required")
	}
	if reservation.RideID != rideID {
		return nil, domain.NewInternalError("reservation token does not belong to this ride")
	}

	now := time.Now().UTC()
	return &Booking{
		id:          uuid.New(),
		rideID:      rideID,
		seekerID:    seekerID,
		status:      StatusPending,
		reservation: reservation,
		note:        note,
		createdAt:   now,
		version:     1,
		updatedAt:   now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id, rideID, seekerID uuid.UUID,
	status BookingStatus,
	reservation rideDomain.ReservationToken,
	note string,
	createdAt time.Time,
	respondedAt *time.Time,
	version int64,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:          id,
		rideID:      rideID,
		seekerID:    seekerID,
		status:      status,
		reservation: reservation,
		note:        note,
		createdAt:   createdAt,
		respondedAt: respondedAt,
		version:     version,
		updatedAt:   updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// RideID returns the ride this booking requests a seat on.
func (b *Booking) RideID() uuid.UUID { return b.rideID }

// SeekerID returns the requesting seeker's user ID.
func (b *Booking) SeekerID() uuid.UUID { return b.seekerID }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// Reservation returns the seat hold token issued at request time.
func (b *Booking) Reservation() rideDomain.ReservationToken { return b.reservation }

// Note returns the seeker's free-form note to the provider.
func (b *Booking) Note() string { return b.note }

// CreatedAt returns the request timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// RespondedAt returns when the booking was settled, or nil while pending.
func (b *Booking) RespondedAt() *time.Time { return b.respondedAt }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// IsActive reports whether the booking still counts against the
// one-per-(ride, seeker) limit.
func (b *Booking) IsActive() bool { return b.status.IsActive() }

// --- Behavior ---

// Accept settles the booking as accepted; the held seat becomes permanent.
func (b *Booking) Accept() error {
	return b.settle(StatusAccepted)
}

// Reject settles the booking as rejected; the caller must release the hold.
func (b *Booking) Reject() error {
	return b.settle(StatusRejected)
}

// Cancel settles the booking as withdrawn by the seeker before response.
func (b *Booking) Cancel() error {
	return b.settle(StatusCancelled)
}

func (b *Booking) settle(target BookingStatus) error {
	if !b.status.CanTransitionTo(target) {
		return domain.NewAlreadyResolvedError(b.id.String())
	}
	now := time.Now().UTC()
	b.status = target
	b.respondedAt = &now
	b.updatedAt = now
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
