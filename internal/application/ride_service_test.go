package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freewheels/service-rides/internal/application"
	"github.com/freewheels/service-rides/internal/domain"
	"github.com/freewheels/service-rides/internal/events"
)

var (
	campusGate = domain.Point{Latitude: 3.1201, Longitude: 101.6544}
	downtown   = domain.Point{Latitude: 3.0738, Longitude: 101.5183}
)

func validCreateRequest() application.CreateRideRequest {
	return application.CreateRideRequest{
		Pickup:      campusGate,
		Drop:        downtown,
		DepartureAt: time.Now().Add(2 * time.Hour),
		SeatsTotal:  3,
		CostPerSeat: 500,
	}
}

func TestCreateRide(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()
	providerID := uuid.New()

	ride, err := s.rides.CreateRide(ctx, providerID, validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, providerID, ride.ProviderID)
	assert.Equal(t, "active", ride.Status)
	assert.Equal(t, 3, ride.SeatsAvailable)
	assert.Equal(t, []string{events.RideCreated}, s.publisher.eventTypes())

	// the new ride is immediately searchable
	candidates, err := s.geoIndex.Query(ctx, campusGate, 500)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, ride.ID, candidates[0].RideID)
}

func TestCreateRide_VehicleCapacityCapsSeats(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()
	providerID := uuid.New()

	v, err := s.vehicles.RegisterVehicle(ctx, providerID, application.RegisterVehicleInput{
		Model:        "City",
		PlateNumber:  "WXY 1234",
		SeatCapacity: 2,
	})
	require.NoError(t, err)

	req := validCreateRequest()
	req.VehicleID = &v.ID
	req.SeatsTotal = 4
	_, err = s.rides.CreateRide(ctx, providerID, req)
	assert.True(t, domain.IsCode(err, domain.CodeValidation))

	req.SeatsTotal = 2
	ride, err := s.rides.CreateRide(ctx, providerID, req)
	require.NoError(t, err)
	assert.Equal(t, &v.ID, ride.VehicleID)
}

func TestCreateRide_RejectsForeignVehicle(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()

	v, err := s.vehicles.RegisterVehicle(ctx, uuid.New(), application.RegisterVehicleInput{
		Model:        "Axia",
		PlateNumber:  "ABC 777",
		SeatCapacity: 4,
	})
	require.NoError(t, err)

	req := validCreateRequest()
	req.VehicleID = &v.ID
	_, err = s.rides.CreateRide(ctx, uuid.New(), req)
	assert.True(t, domain.IsCode(err, domain.CodeForbidden))
}

func TestUpdateRide_OwnerOnly(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()
	providerID := uuid.New()

	ride, err := s.rides.CreateRide(ctx, providerID, validCreateRequest())
	require.NoError(t, err)

	newCost := int64(650)
	_, err = s.rides.UpdateRide(ctx, ride.ID, uuid.New(), application.UpdateRideRequest{CostPerSeat: &newCost})
	assert.True(t, domain.IsCode(err, domain.CodeForbidden))

	updated, err := s.rides.UpdateRide(ctx, ride.ID, providerID, application.UpdateRideRequest{CostPerSeat: &newCost})
	require.NoError(t, err)
	assert.Equal(t, int64(650), updated.CostPerSeat)
}

func TestUpdateRide_MovedPickupReindexes(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()
	providerID := uuid.New()

	ride, err := s.rides.CreateRide(ctx, providerID, validCreateRequest())
	require.NoError(t, err)

	newPickup := domain.Point{Latitude: 3.2000, Longitude: 101.7000}
	_, err = s.rides.UpdateRide(ctx, ride.ID, providerID, application.UpdateRideRequest{Pickup: &newPickup})
	require.NoError(t, err)

	old, err := s.geoIndex.Query(ctx, campusGate, 500)
	require.NoError(t, err)
	assert.Empty(t, old)

	moved, err := s.geoIndex.Query(ctx, newPickup, 500)
	require.NoError(t, err)
	require.Len(t, moved, 1)
}

func TestDeleteRide_BlockedByActiveBookings(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()
	providerID := uuid.New()

	ride, err := s.rides.CreateRide(ctx, providerID, validCreateRequest())
	require.NoError(t, err)

	_, err = s.bookings.RequestBooking(ctx, ride.ID, uuid.New(), "")
	require.NoError(t, err)

	err = s.rides.DeleteRide(ctx, ride.ID, providerID)
	assert.True(t, domain.IsCode(err, domain.CodeRideActiveBookings))

	// still retrievable
	_, err = s.rides.GetRide(ctx, ride.ID)
	require.NoError(t, err)
}

func TestDeleteRide_RemovesFromGeoIndex(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()
	providerID := uuid.New()

	ride, err := s.rides.CreateRide(ctx, providerID, validCreateRequest())
	require.NoError(t, err)

	require.NoError(t, s.rides.DeleteRide(ctx, ride.ID, providerID))

	_, err = s.rides.GetRide(ctx, ride.ID)
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))

	candidates, err := s.geoIndex.Query(ctx, campusGate, 500)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestCancelRide(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()
	providerID := uuid.New()

	ride, err := s.rides.CreateRide(ctx, providerID, validCreateRequest())
	require.NoError(t, err)

	cancelled, err := s.rides.CancelRide(ctx, ride.ID, providerID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)

	// terminal: a second cancel is rejected
	_, err = s.rides.CancelRide(ctx, ride.ID, providerID)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidState))

	candidates, err := s.geoIndex.Query(ctx, campusGate, 500)
	require.NoError(t, err)
	assert.Empty(t, candidates, "cancelled rides leave the index")
}

func TestMarkCompleted(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()
	providerID := uuid.New()

	req := validCreateRequest()
	ride, err := s.rides.CreateRide(ctx, providerID, req)
	require.NoError(t, err)

	done, err := s.rides.MarkCompleted(ctx, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", done.Status)
	assert.Contains(t, s.publisher.eventTypes(), events.RideCompleted)
}

func TestSuggestFare(t *testing.T) {
	s := newTestStack()

	// campusGate to downtown is roughly 16 km: (20 + 16*8) / 2 = ~74 per seat
	fare, err := s.rides.SuggestFare(campusGate, downtown, 2)
	require.NoError(t, err)
	assert.InDelta(t, 74, float64(fare), 5)

	_, err = s.rides.SuggestFare(domain.Point{Latitude: 91, Longitude: 0}, downtown, 2)
	assert.True(t, domain.IsCode(err, domain.CodeValidation))
}

func TestRebuildGeoIndex(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()
	providerID := uuid.New()

	open, err := s.rides.CreateRide(ctx, providerID, validCreateRequest())
	require.NoError(t, err)
	closed, err := s.rides.CreateRide(ctx, providerID, validCreateRequest())
	require.NoError(t, err)
	_, err = s.rides.CancelRide(ctx, closed.ID, providerID)
	require.NoError(t, err)

	// simulate a cold start with an empty index
	require.NoError(t, s.geoIndex.Remove(ctx, open.ID))

	require.NoError(t, s.rides.RebuildGeoIndex(ctx))

	candidates, err := s.geoIndex.Query(ctx, campusGate, 500)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, open.ID, candidates[0].RideID)
}

func TestFindDepartedRides(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()
	providerID := uuid.New()

	past := validCreateRequest()
	past.DepartureAt = time.Now().Add(-time.Hour)
	departed, err := s.rides.CreateRide(ctx, providerID, past)
	require.NoError(t, err)

	_, err = s.rides.CreateRide(ctx, providerID, validCreateRequest())
	require.NoError(t, err)

	got, err := s.rides.FindDepartedRides(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, departed.ID, got[0].ID)
}
