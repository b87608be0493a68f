package vehicle

import (
	"time"

	"github.com/google/uuid"

	"github.com/freewheels/service-rides/internal/domain"
)

// VehicleStatus represents the lifecycle state of a vehicle profile.
type VehicleStatus string

const (
	VehicleStatusActive   VehicleStatus = "active"
	VehicleStatusArchived VehicleStatus = "archived"
)

// Vehicle is the aggregate root for a provider's registered vehicle. Rides
// may link a vehicle, in which case their seat total is capped by its
// passenger capacity.
type Vehicle struct {
	id           uuid.UUID
	providerID   uuid.UUID
	make_        string
	model        string
	color        string
	plateNumber  string
	seatCapacity int
	status       VehicleStatus
	version      int64
	createdAt    time.Time
	updatedAt    time.Time
}

// NewVehicle creates a new active vehicle profile with validated fields.
func NewVehicle(providerID uuid.UUID, make_, model, color, plateNumber string, seatCapacity int) (*Vehicle, error) {
	if providerID == uuid.Nil {
		return nil, domain.NewValidationError("provider ID is required")
	}
	if model == "" {
		return nil, domain.NewValidationError("vehicle model is required")
	}
	if plateNumber == "" {
		return nil, domain.NewValidationError("plate number is required")
	}
	if seatCapacity < 1 {
		return nil, domain.NewValidationError("seat capacity must be at least 1")
	}

	now := time.Now().UTC()
	return &Vehicle{
		id:           uuid.New(),
		providerID:   providerID,
		make_:        make_,
		model:        model,
		color:        color,
		plateNumber:  plateNumber,
		seatCapacity: seatCapacity,
		status:       VehicleStatusActive,
		version:      1,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstruct rebuilds a Vehicle from persistence data (no validation).
func Reconstruct(
	id, providerID uuid.UUID,
	make_, model, color, plateNumber string,
	seatCapacity int,
	status VehicleStatus,
	version int64,
	createdAt, updatedAt time.Time,
) *Vehicle {
	return &Vehicle{
		id:           id,
		providerID:   providerID,
		make_:        make_,
		model:        model,
		color:        color,
		plateNumber:  plateNumber,
		seatCapacity: seatCapacity,
		status:       status,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// --- Getters ---

func (v *Vehicle) ID() uuid.UUID         { return v.id }
func (v *Vehicle) ProviderID() uuid.UUID { return v.providerID }
func (v *Vehicle) Make() string          { return v.make_ }
func (v *Vehicle) Model() string         { return v.model }
func (v *Vehicle) Color() string         { return v.color }
func (v *Vehicle) PlateNumber() string   { return v.plateNumber }
func (v *Vehicle) SeatCapacity() int     { return v.seatCapacity }
func (v *Vehicle) Status() VehicleStatus { return v.status }
func (v *Vehicle) Version() int64        { return v.version }
func (v *Vehicle) CreatedAt() time.Time  { return v.createdAt }
func (v *Vehicle) UpdatedAt() time.Time  { return v.updatedAt }

// --- Behavior ---

// IsOwnedBy checks if the vehicle belongs to the given provider.
func (v *Vehicle) IsOwnedBy(providerID uuid.UUID) bool {
	return v.providerID == providerID
}

// CanCarry reports whether the vehicle has capacity for the given seat total.
func (v *Vehicle) CanCarry(seats int) bool {
	return seats <= v.seatCapacity
}

// Update applies partial updates to the vehicle profile.
func (v *Vehicle) Update(make_, model, color, plateNumber string, seatCapacity int) {
	if make_ != "" {
		v.make_ = make_
	}
	if model != "" {
		v.model = model
	}
	if color != "" {
		v.color = color
	}
	if plateNumber != "" {
		v.plateNumber = plateNumber
	}
	if seatCapacity > 0 {
		v.seatCapacity = seatCapacity
	}
	v.version++
	v.updatedAt = time.Now().UTC()
}

// Archive marks the vehicle profile as archived.
func (v *Vehicle) Archive() {
	v.status = VehicleStatusArchived
	v.version++
	v.updatedAt = time.Now().UTC()
}

// IsActive returns true if the vehicle profile is active.
func (v *Vehicle) IsActive() bool {
	return v.status == VehicleStatusActive
}
