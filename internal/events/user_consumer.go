package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/freewheels/service-rides/internal/kafka"
)

// BookingWithdrawer cancels a seeker's pending bookings. Implemented by the
// booking ledger.
type BookingWithdrawer interface {
	CancelActiveForSeeker(ctx context.Context, seekerID uuid.UUID) error
}

// UserEventConsumer listens to identity events and withdraws the pending
// bookings of deactivated accounts.
type UserEventConsumer struct {
	consumer *kafka.Consumer
	bookings BookingWithdrawer
	logger   *zap.Logger
}

// NewUserEventConsumer creates a new UserEventConsumer.
func NewUserEventConsumer(
	brokers []string,
	groupID string,
	bookings BookingWithdrawer,
	logger *zap.Logger,
) *UserEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicUserEvents, logger)
	return &UserEventConsumer{
		consumer: consumer,
		bookings: bookings,
		logger:   logger,
	}
}

// Start begins consuming user events. This blocks until the context is cancelled.
func (c *UserEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *UserEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *UserEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from user topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case UserDeactivated:
		return c.handleUserDeactivated(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled user event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *UserEventConsumer) handleUserDeactivated(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt UserDeactivatedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse UserDeactivatedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing user deactivation",
		zap.String("user_id", evt.UserID.String()),
	)

	if err := c.bookings.CancelActiveForSeeker(ctx, evt.UserID); err != nil {
		c.logger.Error("failed to withdraw bookings for deactivated user",
			zap.String("user_id", evt.UserID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("pending bookings withdrawn for deactivated user",
		zap.String("user_id", evt.UserID.String()),
	)
	return nil
}
