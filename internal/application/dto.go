package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/freewheels/service-rides/internal/domain"
	bookingDomain "github.com/freewheels/service-rides/internal/domain/booking"
	rideDomain "github.com/freewheels/service-rides/internal/domain/ride"
	vehicleDomain "github.com/freewheels/service-rides/internal/domain/vehicle"
	"github.com/freewheels/service-rides/internal/kafka"
)

// EventPublisher emits lifecycle events onto the bus. Satisfied by
// kafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// RideDTO is the response representation of a ride.
type RideDTO struct {
	ID             uuid.UUID    `json:"id"`
	ProviderID     uuid.UUID    `json:"provider_id"`
	VehicleID      *uuid.UUID   `json:"vehicle_id,omitempty"`
	Pickup         domain.Point `json:"pickup"`
	Drop           domain.Point `json:"drop"`
	DepartureAt    time.Time    `json:"departure_at"`
	SeatsTotal     int          `json:"seats_total"`
	SeatsAvailable int          `json:"seats_available"`
	CostPerSeat    int64        `json:"cost_per_seat"`
	Status         string       `json:"status"`
	Notes          string       `json:"notes,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// RideSearchResult is a ride surfaced by a search, with its distance from the
// query point.
type RideSearchResult struct {
	RideDTO
	DistanceMeters float64 `json:"distance_meters"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID          uuid.UUID  `json:"id"`
	RideID      uuid.UUID  `json:"ride_id"`
	SeekerID    uuid.UUID  `json:"seeker_id"`
	Status      string     `json:"status"`
	Note        string     `json:"note,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// VehicleDTO is the response representation of a vehicle profile.
type VehicleDTO struct {
	ID           uuid.UUID `json:"id"`
	ProviderID   uuid.UUID `json:"provider_id"`
	Make         string    `json:"make,omitempty"`
	Model        string    `json:"model"`
	Color        string    `json:"color,omitempty"`
	PlateNumber  string    `json:"plate_number"`
	SeatCapacity int       `json:"seat_capacity"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func toRideDTO(rd *rideDomain.Ride) RideDTO {
	return RideDTO{
		ID:             rd.ID(),
		ProviderID:     rd.ProviderID(),
		VehicleID:      rd.VehicleID(),
		Pickup:         rd.Pickup(),
		Drop:           rd.Drop(),
		DepartureAt:    rd.DepartureAt(),
		SeatsTotal:     rd.SeatsTotal(),
		SeatsAvailable: rd.SeatsAvailable(),
		CostPerSeat:    rd.CostPerSeat(),
		Status:         string(rd.Status()),
		Notes:          rd.Notes(),
		CreatedAt:      rd.CreatedAt(),
		UpdatedAt:      rd.UpdatedAt(),
	}
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:          bk.ID(),
		RideID:      bk.RideID(),
		SeekerID:    bk.SeekerID(),
		Status:      string(bk.Status()),
		Note:        bk.Note(),
		CreatedAt:   bk.CreatedAt(),
		RespondedAt: bk.RespondedAt(),
	}
}

func toVehicleDTO(v *vehicleDomain.Vehicle) VehicleDTO {
	return VehicleDTO{
		ID:           v.ID(),
		ProviderID:   v.ProviderID(),
		Make:         v.Make(),
		Model:        v.Model(),
		Color:        v.Color(),
		PlateNumber:  v.PlateNumber(),
		SeatCapacity: v.SeatCapacity(),
		Status:       string(v.Status()),
		CreatedAt:    v.CreatedAt(),
	}
}
