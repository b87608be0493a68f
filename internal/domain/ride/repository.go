package ride

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RideRepository defines the persistence contract for ride aggregates.
type RideRepository interface {
	// FindByID retrieves a ride by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Ride, error)

	// FindByIDs retrieves rides for a set of identifiers, skipping unknown ones.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Ride, error)

	// FindByProviderID retrieves rides published by a provider with pagination.
	FindByProviderID(ctx context.Context, providerID uuid.UUID, page, limit int) ([]*Ride, int64, error)

	// FindDeparted retrieves non-terminal rides whose departure precedes the cutoff.
	FindDeparted(ctx context.Context, cutoff time.Time, limit int) ([]*Ride, error)

	// ListAll retrieves all rides with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Ride, int64, error)

	// ListOpen retrieves every ride in a non-terminal status, for geo index rebuild.
	ListOpen(ctx context.Context) ([]*Ride, error)

	// Save persists a new ride.
	Save(ctx context.Context, ride *Ride) error

	// Update persists changes to an existing ride with optimistic locking.
	Update(ctx context.Context, ride *Ride) error

	// Delete removes a ride permanently.
	Delete(ctx context.Context, id uuid.UUID) error
}
