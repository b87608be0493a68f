package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freewheels/service-rides/internal/domain"
	bookingDomain "github.com/freewheels/service-rides/internal/domain/booking"
	rideDomain "github.com/freewheels/service-rides/internal/domain/ride"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	RideID        uuid.UUID  `gorm:"type:uuid;index;not null"`
	SeekerID      uuid.UUID  `gorm:"type:uuid;index;not null"`
	Status        string     `gorm:"not null;size:20;index"`
	ReservationID uuid.UUID  `gorm:"type:uuid;not null"`
	Note          string     `gorm:"size:500"`
	CreatedAt     time.Time  `gorm:"not null"`
	RespondedAt   *time.Time `gorm:""`
	Version       int64      `gorm:"not null;default:1"`
	UpdatedAt     time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

var activeStatuses = []string{
	string(bookingDomain.StatusPending),
	string(bookingDomain.StatusAccepted),
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindActive retrieves the pending or accepted booking for a (ride, seeker)
// pair, or nil if none exists.
func (r *GormBookingRepository) FindActive(ctx context.Context, rideID, seekerID uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	err := r.db.WithContext(ctx).
		Where("ride_id = ? AND seeker_id = ? AND status IN ?", rideID, seekerID, activeStatuses).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active booking: %w", err)
	}
	return toDomainBooking(&model)
}

// FindBySeekerID retrieves bookings made by a seeker with pagination.
func (r *GormBookingRepository) FindBySeekerID(ctx context.Context, seekerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Where("seeker_id = ?", seekerID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count seeker bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("seeker_id = ?", seekerID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find seeker bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// FindPendingByRideIDs retrieves pending bookings across the given rides.
func (r *GormBookingRepository) FindPendingByRideIDs(ctx context.Context, rideIDs []uuid.UUID) ([]*bookingDomain.Booking, error) {
	if len(rideIDs) == 0 {
		return nil, nil
	}
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("ride_id IN ? AND status = ?", rideIDs, string(bookingDomain.StatusPending)).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find pending bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindActiveBySeekerID retrieves every pending or accepted booking held by a seeker.
func (r *GormBookingRepository) FindActiveBySeekerID(ctx context.Context, seekerID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("seeker_id = ? AND status IN ?", seekerID, activeStatuses).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find active seeker bookings: %w", err)
	}
	return toDomainBookings(models)
}

// CountActiveByRideID counts pending and accepted bookings on a ride.
func (r *GormBookingRepository) CountActiveByRideID(ctx context.Context, rideID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Where("ride_id = ? AND status IN ?", rideID, activeStatuses).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count active bookings: %w", err)
	}
	return count, nil
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":       model.Status,
			"responded_at": model.RespondedAt,
			"version":      model.Version,
			"updated_at":   model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:            bk.ID(),
		RideID:        bk.RideID(),
		SeekerID:      bk.SeekerID(),
		Status:        string(bk.Status()),
		ReservationID: bk.Reservation().ID,
		Note:          bk.Note(),
		CreatedAt:     bk.CreatedAt(),
		RespondedAt:   bk.RespondedAt(),
		Version:       bk.Version(),
		UpdatedAt:     bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return bookingDomain.ReconstructBooking(
		m.ID,
		m.RideID,
		m.SeekerID,
		status,
		rideDomain.ReservationToken{ID: m.ReservationID, RideID: m.RideID},
		m.Note,
		m.CreatedAt,
		m.RespondedAt,
		m.Version,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
