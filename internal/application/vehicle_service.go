package application

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/freewheels/service-rides/internal/domain"
	vehicleDomain "github.com/freewheels/service-rides/internal/domain/vehicle"
)

// RegisterVehicleInput holds the fields for registering a vehicle profile.
type RegisterVehicleInput struct {
	Make         string `json:"make"`
	Model        string `json:"model" binding:"required"`
	Color        string `json:"color"`
	PlateNumber  string `json:"plate_number" binding:"required"`
	SeatCapacity int    `json:"seat_capacity" binding:"required,min=1"`
}

// UpdateVehicleInput holds the fields for a partial vehicle profile update.
type UpdateVehicleInput struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	Color        string `json:"color"`
	PlateNumber  string `json:"plate_number"`
	SeatCapacity int    `json:"seat_capacity" binding:"omitempty,min=1"`
}

// VehicleService manages a provider's vehicle profiles.
type VehicleService struct {
	vehicles vehicleDomain.VehicleRepository
	logger   *zap.Logger
}

// NewVehicleService creates a new VehicleService.
func NewVehicleService(vehicles vehicleDomain.VehicleRepository, logger *zap.Logger) *VehicleService {
	return &VehicleService{vehicles: vehicles, logger: logger}
}

// RegisterVehicle creates a new vehicle profile for a provider.
func (s *VehicleService) RegisterVehicle(ctx context.Context, providerID uuid.UUID, input RegisterVehicleInput) (*VehicleDTO, error) {
	v, err := vehicleDomain.NewVehicle(providerID, input.Make, input.Model, input.Color, input.PlateNumber, input.SeatCapacity)
	if err != nil {
		return nil, err
	}
	if err := s.vehicles.Save(ctx, v); err != nil {
		return nil, err
	}

	s.logger.Info("vehicle registered",
		zap.String("vehicle_id", v.ID().String()),
		zap.String("provider_id", providerID.String()),
	)
	result := toVehicleDTO(v)
	return &result, nil
}

// GetVehicle retrieves a vehicle profile owned by the caller.
func (s *VehicleService) GetVehicle(ctx context.Context, vehicleID, providerID uuid.UUID) (*VehicleDTO, error) {
	v, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if !v.IsOwnedBy(providerID) {
		return nil, domain.NewForbiddenError("vehicle does not belong to this provider")
	}

	result := toVehicleDTO(v)
	return &result, nil
}

// ListVehicles retrieves all vehicle profiles owned by a provider.
func (s *VehicleService) ListVehicles(ctx context.Context, providerID uuid.UUID) ([]VehicleDTO, error) {
	vehicles, err := s.vehicles.FindByProviderID(ctx, providerID)
	if err != nil {
		return nil, err
	}

	dtos := make([]VehicleDTO, len(vehicles))
	for i, v := range vehicles {
		dtos[i] = toVehicleDTO(v)
	}
	return dtos, nil
}

// UpdateVehicle applies a partial update to a vehicle profile.
func (s *VehicleService) UpdateVehicle(ctx context.Context, vehicleID, providerID uuid.UUID, input UpdateVehicleInput) (*VehicleDTO, error) {
	v, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if !v.IsOwnedBy(providerID) {
		return nil, domain.NewForbiddenError("vehicle does not belong to this provider")
	}
	if !v.IsActive() {
		return nil, domain.NewConflictError("archived vehicles cannot be updated")
	}

	v.Update(input.Make, input.Model, input.Color, input.PlateNumber, input.SeatCapacity)
	if err := s.vehicles.Update(ctx, v); err != nil {
		return nil, err
	}

	result := toVehicleDTO(v)
	return &result, nil
}

// ArchiveVehicle retires a vehicle profile. Existing rides keep their link;
// new rides can no longer reference it.
func (s *VehicleService) ArchiveVehicle(ctx context.Context, vehicleID, providerID uuid.UUID) error {
	v, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return err
	}
	if !v.IsOwnedBy(providerID) {
		return domain.NewForbiddenError("vehicle does not belong to this provider")
	}
	if !v.IsActive() {
		return domain.NewConflictError("vehicle is already archived")
	}

	v.Archive()
	if err := s.vehicles.Update(ctx, v); err != nil {
		return err
	}

	s.logger.Info("vehicle archived", zap.String("vehicle_id", vehicleID.String()))
	return nil
}
