package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freewheels/service-rides/internal/domain"
	rideDomain "github.com/freewheels/service-rides/internal/domain/ride"
)

// RideModel is the GORM model for the rides table.
type RideModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ProviderID     uuid.UUID  `gorm:"type:uuid;index;not null"`
	VehicleID      *uuid.UUID `gorm:"type:uuid;index"`
	PickupLat      float64    `gorm:"not null"`
	PickupLng      float64    `gorm:"not null"`
	DropLat        float64    `gorm:"not null"`
	DropLng        float64    `gorm:"not null"`
	DepartureAt    time.Time  `gorm:"not null;index"`
	SeatsTotal     int        `gorm:"not null"`
	SeatsAvailable int        `gorm:"not null"`
	CostPerSeat    int64      `gorm:"not null"`
	Status         string     `gorm:"not null;size:20;index"`
	Notes          string     `gorm:"size:1000"`
	Version        int64      `gorm:"not null;default:1"`
	CreatedAt      time.Time  `gorm:"not null"`
	UpdatedAt      time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (RideModel) TableName() string {
	return "rides"
}

// GormRideRepository is the GORM-based implementation of RideRepository.
type GormRideRepository struct {
	db *gorm.DB
}

// NewGormRideRepository creates a new GormRideRepository.
func NewGormRideRepository(db *gorm.DB) *GormRideRepository {
	return &GormRideRepository{db: db}
}

// FindByID retrieves a ride by its unique identifier.
func (r *GormRideRepository) FindByID(ctx context.Context, id uuid.UUID) (*rideDomain.Ride, error) {
	var model RideModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Ride", id.String())
		}
		return nil, fmt.Errorf("failed to find ride by ID: %w", err)
	}
	return toDomainRide(&model)
}

// FindByIDs retrieves rides for a set of identifiers, skipping unknown ones.
func (r *GormRideRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*rideDomain.Ride, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []RideModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find rides by IDs: %w", err)
	}
	return toDomainRides(models)
}

// FindByProviderID retrieves rides published by a provider with pagination.
func (r *GormRideRepository) FindByProviderID(ctx context.Context, providerID uuid.UUID, page, limit int) ([]*rideDomain.Ride, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&RideModel{}).Where("provider_id = ?", providerID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count provider rides: %w", err)
	}

	var models []RideModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("departure_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find provider rides: %w", err)
	}

	rides, err := toDomainRides(models)
	if err != nil {
		return nil, 0, err
	}
	return rides, total, nil
}

// FindDeparted retrieves non-terminal rides whose departure precedes the cutoff.
func (r *GormRideRepository) FindDeparted(ctx context.Context, cutoff time.Time, limit int) ([]*rideDomain.Ride, error) {
	var models []RideModel
	if err := r.db.WithContext(ctx).
		Where("departure_at < ? AND status IN ?", cutoff, []string{string(rideDomain.StatusActive), string(rideDomain.StatusFull)}).
		Order("departure_at ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find departed rides: %w", err)
	}
	return toDomainRides(models)
}

// ListAll retrieves all rides with pagination (admin).
func (r *GormRideRepository) ListAll(ctx context.Context, page, limit int) ([]*rideDomain.Ride, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&RideModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count rides: %w", err)
	}

	var models []RideModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list rides: %w", err)
	}

	rides, err := toDomainRides(models)
	if err != nil {
		return nil, 0, err
	}
	return rides, total, nil
}

// ListOpen retrieves every ride in a non-terminal status, for geo index rebuild.
func (r *GormRideRepository) ListOpen(ctx context.Context) ([]*rideDomain.Ride, error) {
	var models []RideModel
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []string{string(rideDomain.StatusActive), string(rideDomain.StatusFull)}).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list open rides: %w", err)
	}
	return toDomainRides(models)
}

// Save persists a new ride.
func (r *GormRideRepository) Save(ctx context.Context, rd *rideDomain.Ride) error {
	model := toRideModel(rd)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save ride: %w", err)
	}
	return nil
}

// Update persists changes to an existing ride with optimistic locking.
func (r *GormRideRepository) Update(ctx context.Context, rd *rideDomain.Ride) error {
	model := toRideModel(rd)

	// Only update if the version matches (current version - 1 since
	// IncrementVersion was called before persisting).
	expectedVersion := rd.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&RideModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"vehicle_id":      model.VehicleID,
			"pickup_lat":      model.PickupLat,
			"pickup_lng":      model.PickupLng,
			"drop_lat":        model.DropLat,
			"drop_lng":        model.DropLng,
			"departure_at":    model.DepartureAt,
			"seats_available": model.SeatsAvailable,
			"cost_per_seat":   model.CostPerSeat,
			"status":          model.Status,
			"notes":           model.Notes,
			"version":         model.Version,
			"updated_at":      model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update ride: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("ride was modified by another transaction")
	}
	return nil
}

// Delete removes a ride permanently.
func (r *GormRideRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&RideModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete ride: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Ride", id.String())
	}
	return nil
}

// --- Conversion Helpers ---

func toRideModel(rd *rideDomain.Ride) *RideModel {
	return &RideModel{
		ID:             rd.ID(),
		ProviderID:     rd.ProviderID(),
		VehicleID:      rd.VehicleID(),
		PickupLat:      rd.Pickup().Latitude,
		PickupLng:      rd.Pickup().Longitude,
		DropLat:        rd.Drop().Latitude,
		DropLng:        rd.Drop().Longitude,
		DepartureAt:    rd.DepartureAt(),
		SeatsTotal:     rd.SeatsTotal(),
		SeatsAvailable: rd.SeatsAvailable(),
		CostPerSeat:    rd.CostPerSeat(),
		Status:         string(rd.Status()),
		Notes:          rd.Notes(),
		Version:        rd.Version(),
		CreatedAt:      rd.CreatedAt(),
		UpdatedAt:      rd.UpdatedAt(),
	}
}

func toDomainRide(m *RideModel) (*rideDomain.Ride, error) {
	status, err := rideDomain.ParseRideStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return rideDomain.ReconstructRide(
		m.ID,
		m.ProviderID,
		m.VehicleID,
		domain.Point{Latitude: m.PickupLat, Longitude: m.PickupLng},
		domain.Point{Latitude: m.DropLat, Longitude: m.DropLng},
		m.DepartureAt,
		m.SeatsTotal,
		m.SeatsAvailable,
		m.CostPerSeat,
		status,
		m.Notes,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainRides(models []RideModel) ([]*rideDomain.Ride, error) {
	rides := make([]*rideDomain.Ride, len(models))
	for i, m := range models {
		rd, err := toDomainRide(&m)
		if err != nil {
			return nil, err
		}
		rides[i] = rd
	}
	return rides, nil
}
