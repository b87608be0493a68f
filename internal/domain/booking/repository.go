package booking

import (
	"context"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindActive retrieves the pending or accepted booking for a (ride, seeker)
	// pair, or nil if none exists.
	FindActive(ctx context.Context, rideID, seekerID uuid.UUID) (*Booking, error)

	// FindBySeekerID retrieves bookings made by a seeker with pagination.
	FindBySeekerID(ctx context.Context, seekerID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindPendingByRideIDs retrieves pending bookings across the given rides.
	FindPendingByRideIDs(ctx context.Context, rideIDs []uuid.UUID) ([]*Booking, error)

	// FindActiveBySeekerID retrieves every pending or accepted booking held by a seeker.
	FindActiveBySeekerID(ctx context.Context, seekerID uuid.UUID) ([]*Booking, error)

	// CountActiveByRideID counts pending and accepted bookings on a ride.
	CountActiveByRideID(ctx context.Context, rideID uuid.UUID) (int64, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error
}
