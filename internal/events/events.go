package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics published and consumed by the rides service.
const (
	TopicRideEvents    = "ride.events"
	TopicBookingEvents = "booking.events"
	TopicUserEvents    = "user.events"
)

// Event type identifiers.
const (
	RideCreated   = "ride.created"
	RideUpdated   = "ride.updated"
	RideCancelled = "ride.cancelled"
	RideCompleted = "ride.completed"

	BookingRequested = "booking.requested"
	BookingAccepted  = "booking.accepted"
	BookingRejected  = "booking.rejected"
	BookingCancelled = "booking.cancelled"

	UserDeactivated = "user.deactivated"
)

// RideEvent is the payload for ride lifecycle events.
type RideEvent struct {
	RideID         uuid.UUID `json:"ride_id"`
	ProviderID     uuid.UUID `json:"provider_id"`
	Status         string    `json:"status"`
	SeatsTotal     int       `json:"seats_total"`
	SeatsAvailable int       `json:"seats_available"`
	DepartureAt    time.Time `json:"departure_at"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// BookingEvent is the payload for booking lifecycle events.
type BookingEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	RideID     uuid.UUID `json:"ride_id"`
	SeekerID   uuid.UUID `json:"seeker_id"`
	ProviderID uuid.UUID `json:"provider_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// UserDeactivatedEvent is consumed from the identity service when an account
// is closed; the rides service withdraws that user's pending bookings.
type UserDeactivatedEvent struct {
	UserID     uuid.UUID `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
