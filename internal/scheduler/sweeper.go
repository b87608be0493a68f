package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/freewheels/service-rides/internal/application"
)

const sweepBatchSize = 100

// RideCompleter is the slice of the ride inventory the sweeper drives.
// Implemented by application.RideService.
type RideCompleter interface {
	FindDepartedRides(ctx context.Context, cutoff time.Time, limit int) ([]application.RideDTO, error)
	MarkCompleted(ctx context.Context, rideID uuid.UUID) (*application.RideDTO, error)
}

// PendingRejecter settles leftover pending bookings on a finished ride.
// Implemented by application.BookingService.
type PendingRejecter interface {
	RejectPendingForRide(ctx context.Context, rideID uuid.UUID) error
}

// CompletionSweeper periodically marks departed rides as completed and
// rejects any booking requests still pending against them.
type CompletionSweeper struct {
	rides    RideCompleter
	bookings PendingRejecter
	interval time.Duration
	logger   *zap.Logger
}

// NewCompletionSweeper creates a new CompletionSweeper.
func NewCompletionSweeper(rides RideCompleter, bookings PendingRejecter, interval time.Duration, logger *zap.Logger) *CompletionSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CompletionSweeper{rides: rides, bookings: bookings, interval: interval, logger: logger}
}

// Run sweeps on a fixed interval until the context is cancelled.
func (s *CompletionSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("completion sweeper started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("completion sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce completes every ride whose departure time has passed.
func (s *CompletionSweeper) SweepOnce(ctx context.Context) {
	departed, err := s.rides.FindDepartedRides(ctx, time.Now().UTC(), sweepBatchSize)
	if err != nil {
		s.logger.Error("failed to fetch departed rides", zap.Error(err))
		return
	}
	if len(departed) == 0 {
		return
	}

	s.logger.Info("sweeping departed rides", zap.Int("count", len(departed)))

	for _, rd := range departed {
		s.completeRide(ctx, rd.ID)
	}
}

func (s *CompletionSweeper) completeRide(ctx context.Context, rideID uuid.UUID) {
	if _, err := s.rides.MarkCompleted(ctx, rideID); err != nil {
		s.logger.Error("failed to complete departed ride",
			zap.String("ride_id", rideID.String()), zap.Error(err))
		return
	}
	// pending requests must not outlive the ride
	if err := s.bookings.RejectPendingForRide(ctx, rideID); err != nil {
		s.logger.Error("failed to reject pending bookings for completed ride",
			zap.String("ride_id", rideID.String()), zap.Error(err))
	}
}
