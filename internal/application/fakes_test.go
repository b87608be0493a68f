package application_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/freewheels/service-rides/internal/application"
	"github.com/freewheels/service-rides/internal/domain"
	bookingDomain "github.com/freewheels/service-rides/internal/domain/booking"
	rideDomain "github.com/freewheels/service-rides/internal/domain/ride"
	vehicleDomain "github.com/freewheels/service-rides/internal/domain/vehicle"
	"github.com/freewheels/service-rides/internal/geo"
	"github.com/freewheels/service-rides/internal/kafka"
	"github.com/freewheels/service-rides/internal/locker"
)

// The fakes below store detached copies the way the real repositories
// rehydrate rows, so a service mutation that skips Update is not silently
// persisted.

func cloneRide(rd *rideDomain.Ride) *rideDomain.Ride {
	return rideDomain.ReconstructRide(
		rd.ID(), rd.ProviderID(), rd.VehicleID(), rd.Pickup(), rd.Drop(),
		rd.DepartureAt(), rd.SeatsTotal(), rd.SeatsAvailable(), rd.CostPerSeat(),
		rd.Status(), rd.Notes(), rd.Version(), rd.CreatedAt(), rd.UpdatedAt(),
	)
}

func cloneBooking(bk *bookingDomain.Booking) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(
		bk.ID(), bk.RideID(), bk.SeekerID(), bk.Status(), bk.Reservation(),
		bk.Note(), bk.CreatedAt(), bk.RespondedAt(), bk.Version(), bk.UpdatedAt(),
	)
}

func cloneVehicle(v *vehicleDomain.Vehicle) *vehicleDomain.Vehicle {
	return vehicleDomain.Reconstruct(
		v.ID(), v.ProviderID(), v.Make(), v.Model(), v.Color(), v.PlateNumber(),
		v.SeatCapacity(), v.Status(), v.Version(), v.CreatedAt(), v.UpdatedAt(),
	)
}

type fakeRideRepo struct {
	mu    sync.Mutex
	rides map[uuid.UUID]*rideDomain.Ride
	order []uuid.UUID
}

func newFakeRideRepo() *fakeRideRepo {
	return &fakeRideRepo{rides: make(map[uuid.UUID]*rideDomain.Ride)}
}

func (f *fakeRideRepo) FindByID(_ context.Context, id uuid.UUID) (*rideDomain.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rd, ok := f.rides[id]
	if !ok {
		return nil, domain.NewNotFoundError("ride", id.String())
	}
	return cloneRide(rd), nil
}

func (f *fakeRideRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*rideDomain.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*rideDomain.Ride, 0, len(ids))
	for _, id := range ids {
		if rd, ok := f.rides[id]; ok {
			out = append(out, cloneRide(rd))
		}
	}
	return out, nil
}

func (f *fakeRideRepo) FindByProviderID(_ context.Context, providerID uuid.UUID, page, limit int) ([]*rideDomain.Ride, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*rideDomain.Ride
	for _, id := range f.order {
		if rd := f.rides[id]; rd != nil && rd.ProviderID() == providerID {
			all = append(all, cloneRide(rd))
		}
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

func (f *fakeRideRepo) FindDeparted(_ context.Context, cutoff time.Time, limit int) ([]*rideDomain.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*rideDomain.Ride
	for _, id := range f.order {
		rd := f.rides[id]
		if rd == nil || rd.Status().IsTerminal() {
			continue
		}
		if rd.DepartureAt().Before(cutoff) {
			out = append(out, cloneRide(rd))
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeRideRepo) ListAll(_ context.Context, page, limit int) ([]*rideDomain.Ride, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*rideDomain.Ride
	for _, id := range f.order {
		if rd := f.rides[id]; rd != nil {
			all = append(all, cloneRide(rd))
		}
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

func (f *fakeRideRepo) ListOpen(_ context.Context) ([]*rideDomain.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*rideDomain.Ride
	for _, id := range f.order {
		if rd := f.rides[id]; rd != nil && !rd.Status().IsTerminal() {
			out = append(out, cloneRide(rd))
		}
	}
	return out, nil
}

func (f *fakeRideRepo) Save(_ context.Context, rd *rideDomain.Ride) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rides[rd.ID()] = cloneRide(rd)
	f.order = append(f.order, rd.ID())
	return nil
}

func (f *fakeRideRepo) Update(_ context.Context, rd *rideDomain.Ride) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rides[rd.ID()]; !ok {
		return domain.NewNotFoundError("ride", rd.ID().String())
	}
	f.rides[rd.ID()] = cloneRide(rd)
	return nil
}

func (f *fakeRideRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rides[id]; !ok {
		return domain.NewNotFoundError("ride", id.String())
	}
	delete(f.rides, id)
	return nil
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
	order    []uuid.UUID
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

func (f *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bk, ok := f.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("booking", id.String())
	}
	return cloneBooking(bk), nil
}

func (f *fakeBookingRepo) FindActive(_ context.Context, rideID, seekerID uuid.UUID) (*bookingDomain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, bk := range f.bookings {
		if bk.RideID() == rideID && bk.SeekerID() == seekerID && bk.IsActive() {
			return cloneBooking(bk), nil
		}
	}
	return nil, nil
}

func (f *fakeBookingRepo) FindBySeekerID(_ context.Context, seekerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*bookingDomain.Booking
	for _, id := range f.order {
		if bk := f.bookings[id]; bk != nil && bk.SeekerID() == seekerID {
			all = append(all, cloneBooking(bk))
		}
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

func (f *fakeBookingRepo) FindPendingByRideIDs(_ context.Context, rideIDs []uuid.UUID) ([]*bookingDomain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(rideIDs))
	for _, id := range rideIDs {
		wanted[id] = true
	}
	var out []*bookingDomain.Booking
	for _, id := range f.order {
		if bk := f.bookings[id]; bk != nil && wanted[bk.RideID()] && bk.Status() == bookingDomain.StatusPending {
			out = append(out, cloneBooking(bk))
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) FindActiveBySeekerID(_ context.Context, seekerID uuid.UUID) ([]*bookingDomain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, id := range f.order {
		if bk := f.bookings[id]; bk != nil && bk.SeekerID() == seekerID && bk.IsActive() {
			out = append(out, cloneBooking(bk))
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) CountActiveByRideID(_ context.Context, rideID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, bk := range f.bookings {
		if bk.RideID() == rideID && bk.IsActive() {
			n++
		}
	}
	return n, nil
}

func (f *fakeBookingRepo) ListAll(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*bookingDomain.Booking
	for _, id := range f.order {
		if bk := f.bookings[id]; bk != nil {
			all = append(all, cloneBooking(bk))
		}
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

func (f *fakeBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int64)
	for _, bk := range f.bookings {
		out[string(bk.Status())]++
	}
	return out, nil
}

func (f *fakeBookingRepo) Save(_ context.Context, bk *bookingDomain.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings[bk.ID()] = cloneBooking(bk)
	f.order = append(f.order, bk.ID())
	return nil
}

func (f *fakeBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[bk.ID()]; !ok {
		return domain.NewNotFoundError("booking", bk.ID().String())
	}
	f.bookings[bk.ID()] = cloneBooking(bk)
	return nil
}

type fakeVehicleRepo struct {
	mu       sync.Mutex
	vehicles map[uuid.UUID]*vehicleDomain.Vehicle
}

func newFakeVehicleRepo() *fakeVehicleRepo {
	return &fakeVehicleRepo{vehicles: make(map[uuid.UUID]*vehicleDomain.Vehicle)}
}

func (f *fakeVehicleRepo) FindByID(_ context.Context, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[id]
	if !ok {
		return nil, domain.NewNotFoundError("vehicle", id.String())
	}
	return cloneVehicle(v), nil
}

func (f *fakeVehicleRepo) FindByProviderID(_ context.Context, providerID uuid.UUID) ([]*vehicleDomain.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*vehicleDomain.Vehicle
	for _, v := range f.vehicles {
		if v.ProviderID() == providerID {
			out = append(out, cloneVehicle(v))
		}
	}
	return out, nil
}

func (f *fakeVehicleRepo) Save(_ context.Context, v *vehicleDomain.Vehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vehicles[v.ID()] = cloneVehicle(v)
	return nil
}

func (f *fakeVehicleRepo) Update(_ context.Context, v *vehicleDomain.Vehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vehicles[v.ID()]; !ok {
		return domain.NewNotFoundError("vehicle", v.ID().String())
	}
	f.vehicles[v.ID()] = cloneVehicle(v)
	return nil
}

func (f *fakeVehicleRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.vehicles, id)
	return nil
}

// fakePublisher records published events for assertions.
type fakePublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
}

func (f *fakePublisher) PublishEvent(_ context.Context, _ string, event kafka.CloudEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) eventTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.Type
	}
	return out
}

// testStack wires the services against in-memory collaborators.
type testStack struct {
	rideRepo    *fakeRideRepo
	bookingRepo *fakeBookingRepo
	vehicleRepo *fakeVehicleRepo
	geoIndex    *geo.MemoryIndex
	publisher   *fakePublisher
	rides       *application.RideService
	bookings    *application.BookingService
	search      *application.SearchService
	vehicles    *application.VehicleService
}

func newTestStack() *testStack {
	s := &testStack{
		rideRepo:    newFakeRideRepo(),
		bookingRepo: newFakeBookingRepo(),
		vehicleRepo: newFakeVehicleRepo(),
		geoIndex:    geo.NewMemoryIndex(),
		publisher:   &fakePublisher{},
	}
	log := zap.NewNop()
	locks := locker.NewKeyedMutex()
	s.rides = application.NewRideService(
		s.rideRepo, s.bookingRepo, s.vehicleRepo, s.geoIndex, locks,
		rideDomain.NewStandardFareSuggester(), s.publisher, log,
	)
	s.bookings = application.NewBookingService(s.bookingRepo, s.rideRepo, s.rides, s.publisher, log)
	s.search = application.NewSearchService(s.rideRepo, s.geoIndex, log)
	s.vehicles = application.NewVehicleService(s.vehicleRepo, log)
	return s
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return nil
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
