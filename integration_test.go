//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freewheels/service-rides/internal/application"
	"github.com/freewheels/service-rides/internal/domain"
	rideEvents "github.com/freewheels/service-rides/internal/events"
	"github.com/freewheels/service-rides/internal/repository"
)

// TestBookingFlow_HoldAndAccept drives the full request/accept protocol
// against real PostgreSQL and Kafka: the seat is held at request time, the
// provider's accept keeps it, and both lifecycle events land on the topic.
func TestBookingFlow_HoldAndAccept(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupRidesStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx := context.Background()
	providerID := uuid.New()
	seekerID := uuid.New()

	ride, err := stack.Rides.CreateRide(ctx, providerID, application.CreateRideRequest{
		Pickup:      domain.Point{Latitude: 3.1201, Longitude: 101.6544},
		Drop:        domain.Point{Latitude: 3.0738, Longitude: 101.5183},
		DepartureAt: time.Now().Add(2 * time.Hour),
		SeatsTotal:  2,
		CostPerSeat: 1200,
	})
	require.NoError(t, err)

	booking, err := stack.Bookings.RequestBooking(ctx, ride.ID, seekerID, "front seat please")
	require.NoError(t, err)
	assert.Equal(t, "pending", booking.Status)

	// Seat held while pending.
	held, err := stack.Rides.GetRide(ctx, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, held.SeatsAvailable)

	accepted, err := stack.Bookings.RespondToBooking(ctx, booking.ID, providerID, application.DecisionAccept)
	require.NoError(t, err)
	assert.Equal(t, "accepted", accepted.Status)
	require.NotNil(t, accepted.RespondedAt)

	// Accept does not change the count again.
	after, err := stack.Rides.GetRide(ctx, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.SeatsAvailable)

	ce := consumeOneEvent(t, infra.KafkaBrokers, rideEvents.TopicBookingEvents,
		rideEvents.BookingAccepted, 15*time.Second)

	var evt rideEvents.BookingEvent
	require.NoError(t, ce.ParseData(&evt))
	assert.Equal(t, booking.ID, evt.BookingID)
	assert.Equal(t, ride.ID, evt.RideID)
	assert.Equal(t, seekerID, evt.SeekerID)
	assert.Equal(t, "accepted", evt.Status)
}

// TestUserDeactivated_WithdrawsPendingBookings verifies that a
// user.deactivated event on user.events makes the service cancel the
// seeker's pending booking and restore the held seat.
func TestUserDeactivated_WithdrawsPendingBookings(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupRidesStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx := context.Background()
	providerID := uuid.New()
	seekerID := uuid.New()

	ride, err := stack.Rides.CreateRide(ctx, providerID, application.CreateRideRequest{
		Pickup:      domain.Point{Latitude: 3.1201, Longitude: 101.6544},
		Drop:        domain.Point{Latitude: 3.0738, Longitude: 101.5183},
		DepartureAt: time.Now().Add(3 * time.Hour),
		SeatsTotal:  1,
		CostPerSeat: 900,
	})
	require.NoError(t, err)

	booking, err := stack.Bookings.RequestBooking(ctx, ride.ID, seekerID, "")
	require.NoError(t, err)

	// The single seat is held; the ride reads as full.
	held, err := stack.Rides.GetRide(ctx, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, held.SeatsAvailable)
	assert.Equal(t, "full", held.Status)

	// Start the consumer.
	consumerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(consumerCtx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	evt := rideEvents.UserDeactivatedEvent{
		UserID:     seekerID,
		OccurredAt: time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, rideEvents.TopicUserEvents,
		"service-identity", rideEvents.UserDeactivated, evt)

	// The pending booking is withdrawn and the seat returns.
	waitForBookingStatus(t, infra.DB, booking.ID, "cancelled", 15*time.Second)

	var rideModel repository.RideModel
	require.NoError(t, infra.DB.Where("id = ?", ride.ID).First(&rideModel).Error)
	assert.Equal(t, 1, rideModel.SeatsAvailable)
	assert.Equal(t, "active", rideModel.Status)
}

// TestSearch_FindsNearbyOpenRides exercises the geo-backed search path end
// to end: only the bookable ride within the radius comes back, nearest first.
func TestSearch_FindsNearbyOpenRides(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupRidesStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx := context.Background()
	providerID := uuid.New()

	near, err := stack.Rides.CreateRide(ctx, providerID, application.CreateRideRequest{
		Pickup:      domain.Point{Latitude: 3.1201, Longitude: 101.6544},
		Drop:        domain.Point{Latitude: 3.0738, Longitude: 101.5183},
		DepartureAt: time.Now().Add(4 * time.Hour),
		SeatsTotal:  3,
		CostPerSeat: 800,
	})
	require.NoError(t, err)

	// Roughly 15 km away, outside the search radius.
	_, err = stack.Rides.CreateRide(ctx, providerID, application.CreateRideRequest{
		Pickup:      domain.Point{Latitude: 3.2500, Longitude: 101.7000},
		Drop:        domain.Point{Latitude: 3.0738, Longitude: 101.5183},
		DepartureAt: time.Now().Add(4 * time.Hour),
		SeatsTotal:  3,
		CostPerSeat: 800,
	})
	require.NoError(t, err)

	results, err := stack.Search.Search(ctx, application.SearchQuery{
		Pickup:       domain.Point{Latitude: 3.1190, Longitude: 101.6530},
		RadiusMeters: 2000,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, near.ID, results[0].ID)
	assert.Less(t, results[0].DistanceMeters, 2000.0)
}
