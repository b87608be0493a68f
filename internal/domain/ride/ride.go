package ride

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/freewheels/service-rides/internal/domain"
)

// Ride is the aggregate root for the ride inventory. It is the single owner
// of the seat count: seatsAvailable changes only through ReserveSeat and
// ReleaseSeat, and 0 <= seatsAvailable <= seatsTotal holds at all times.
type Ride struct {
	id             uuid.UUID
	providerID     uuid.UUID
	vehicleID      *uuid.UUID
	pickup         domain.Point
	drop           domain.Point
	departureAt    time.Time
	seatsTotal     int
	seatsAvailable int
	costPerSeat    int64
	status         RideStatus
	notes          string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewRide creates a new Ride aggregate with status=active and all seats free.
func NewRide(
	providerID uuid.UUID,
	vehicleID *uuid.UUID,
	pickup, drop domain.Point,
	departureAt time.Time,
	seatsTotal int,
	costPerSeat int64,
	notes string,
) (*Ride, error) {
	if providerID == uuid.Nil {
		return nil, domain.NewValidationError("provider ID is required")
	}
	if !pickup.Valid() {
		return nil, domain.NewValidationError("pickup coordinates are out of range")
	}
	if !drop.Valid() {
		return nil, domain.NewValidationError("drop coordinates are out of range")
	}
	if departureAt.IsZero() {
		return nil, domain.NewValidationError("departure time is required")
	}
	if seatsTotal < 1 {
		return nil, domain.NewValidationError("seats total must be at least 1")
	}
	if costPerSeat <= 0 {
		return nil, domain.NewValidationError("cost per seat must be positive")
	}

	now := time.Now().UTC()
	return &Ride{
		id:             uuid.New(),
		providerID:     providerID,
		vehicleID:      vehicleID,
		pickup:         pickup,
		drop:           drop,
		departureAt:    departureAt.UTC(),
		seatsTotal:     seatsTotal,
		seatsAvailable: seatsTotal,
		costPerSeat:    costPerSeat,
		status:         StatusActive,
		notes:          notes,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructRide rebuilds a Ride from persistence data (no validation).
func ReconstructRide(
	id, providerID uuid.UUID,
	vehicleID *uuid.UUID,
	pickup, drop domain.Point,
	departureAt time.Time,
	seatsTotal, seatsAvailable int,
	costPerSeat int64,
	status RideStatus,
	notes string,
	version int64,
	createdAt, updatedAt time.Time,
) *Ride {
	return &Ride{
		id:             id,
		providerID:     providerID,
		vehicleID:      vehicleID,
		pickup:         pickup,
		drop:           drop,
		departureAt:    departureAt,
		seatsTotal:     seatsTotal,
		seatsAvailable: seatsAvailable,
		costPerSeat:    costPerSeat,
		status:         status,
		notes:          notes,
		version:        version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// --- Getters ---

// ID returns the ride's unique identifier.
func (r *Ride) ID() uuid.UUID { return r.id }

// ProviderID returns the owning provider's user ID.
func (r *Ride) ProviderID() uuid.UUID { return r.providerID }

// VehicleID returns the linked vehicle ID, or nil if none.
func (r *Ride) VehicleID() *uuid.UUID { return r.vehicleID }

// Pickup returns the pickup point.
func (r *Ride) Pickup() domain.Point { return r.pickup }

// Drop returns the drop-off point.
func (r *Ride) Drop() domain.Point { return r.drop }

// DepartureAt returns the scheduled departure instant.
func (r *Ride) DepartureAt() time.Time { return r.departureAt }

// SeatsTotal returns the immutable total seat count.
func (r *Ride) SeatsTotal() int { return r.seatsTotal }

// SeatsAvailable returns the current free seat count, holds included.
func (r *Ride) SeatsAvailable() int { return r.seatsAvailable }

// CostPerSeat returns the per-seat price.
func (r *Ride) CostPerSeat() int64 { return r.costPerSeat }

// Status returns the current ride status.
func (r *Ride) Status() RideStatus { return r.status }

// Notes returns free-form notes shown to seekers.
func (r *Ride) Notes() string { return r.notes }

// Version returns the entity version for optimistic locking.
func (r *Ride) Version() int64 { return r.version }

// CreatedAt returns the creation timestamp.
func (r *Ride) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (r *Ride) UpdatedAt() time.Time { return r.updatedAt }

// --- Behavior ---

// IsOwnedBy checks if the ride belongs to the given provider.
func (r *Ride) IsOwnedBy(providerID uuid.UUID) bool {
	return r.providerID == providerID
}

// IsBookable reports whether the ride can currently accept booking requests.
func (r *Ride) IsBookable() bool {
	return r.status == StatusActive && r.seatsAvailable > 0
}

// ReserveSeat places a provisional hold: the seat is counted against
// availability immediately but can be released if the request is rejected.
func (r *Ride) ReserveSeat() error {
	switch r.status {
	case StatusActive:
	case StatusFull:
		return domain.NewNoSeatsAvailableError(r.id.String())
	default:
		return domain.NewRideNotActiveError(r.id.String(), string(r.status))
	}
	if r.seatsAvailable <= 0 {
		// active with zero seats would already violate the status invariant
		return domain.NewInternalError(fmt.Sprintf("ride %s is active with %d seats", r.id, r.seatsAvailable))
	}

	r.seatsAvailable--
	if r.seatsAvailable == 0 {
		r.status = StatusFull
	}
	r.updatedAt = time.Now().UTC()
	return nil
}

// ReleaseSeat reverses a hold after a rejection or cancellation. A full ride
// reverts to active.
func (r *Ride) ReleaseSeat() error {
	if r.status == StatusCancelled || r.status == StatusCompleted {
		// terminal rides keep their counts; the hold simply dissolves
		return nil
	}
	if r.seatsAvailable >= r.seatsTotal {
		return domain.NewInternalError(fmt.Sprintf("ride %s seat release would exceed total %d", r.id, r.seatsTotal))
	}

	r.seatsAvailable++
	if r.status == StatusFull {
		r.status = StatusActive
	}
	r.updatedAt = time.Now().UTC()
	return nil
}

// UpdateDetails applies owner mutations to non-seat fields.
func (r *Ride) UpdateDetails(pickup, drop *domain.Point, departureAt *time.Time, costPerSeat *int64, notes *string) error {
	if r.status.IsTerminal() {
		return domain.NewRideNotActiveError(r.id.String(), string(r.status))
	}
	if pickup != nil {
		if !pickup.Valid() {
			return domain.NewValidationError("pickup coordinates are out of range")
		}
		r.pickup = *pickup
	}
	if drop != nil {
		if !drop.Valid() {
			return domain.NewValidationError("drop coordinates are out of range")
		}
		r.drop = *drop
	}
	if departureAt != nil {
		if departureAt.IsZero() {
			return domain.NewValidationError("departure time is required")
		}
		r.departureAt = departureAt.UTC()
	}
	if costPerSeat != nil {
		if *costPerSeat <= 0 {
			return domain.NewValidationError("cost per seat must be positive")
		}
		r.costPerSeat = *costPerSeat
	}
	if notes != nil {
		r.notes = *notes
	}
	r.updatedAt = time.Now().UTC()
	return nil
}

// Cancel transitions the ride to cancelled if it is not in a terminal state.
func (r *Ride) Cancel() error {
	if !r.status.CanTransitionTo(StatusCancelled) {
		return domain.NewInvalidStateError(string(r.status), string(StatusCancelled))
	}
	r.status = StatusCancelled
	r.updatedAt = time.Now().UTC()
	return nil
}

// MarkCompleted transitions the ride to completed once its departure has
// passed. Invoked by the completion sweeper, not by request handlers.
func (r *Ride) MarkCompleted() error {
	if !r.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidStateError(string(r.status), string(StatusCompleted))
	}
	r.status = StatusCompleted
	r.updatedAt = time.Now().UTC()
	return nil
}

// CheckSeatInvariant verifies the seat-count invariants. A violation is an
// internal-consistency error that must abort the surrounding operation.
func (r *Ride) CheckSeatInvariant() error {
	if r.seatsAvailable < 0 || r.seatsAvailable > r.seatsTotal {
		return domain.NewInternalError(fmt.Sprintf("ride %s has %d/%d seats", r.id, r.seatsAvailable, r.seatsTotal))
	}
	if r.status == StatusActive && r.seatsAvailable == 0 {
		return domain.NewInternalError(fmt.Sprintf("ride %s is active with no seats", r.id))
	}
	if r.status == StatusFull && r.seatsAvailable != 0 {
		return domain.NewInternalError(fmt.Sprintf("ride %s is full with %d seats", r.id, r.seatsAvailable))
	}
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (r *Ride) IncrementVersion() {
	r.version++
	r.updatedAt = time.Now().UTC()
}
