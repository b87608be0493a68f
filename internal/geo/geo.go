package geo

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/freewheels/service-rides/internal/domain"
)

// Candidate is a ride surfaced by a radius query, with its great-circle
// distance from the query point in meters.
type Candidate struct {
	RideID         uuid.UUID
	DistanceMeters float64
}

// Index stores ride pickup locations and answers radius queries. It holds no
// durable state: the ride repository is the source of truth and the index is
// rebuilt from it on startup.
type Index interface {
	// Insert adds or updates a ride's pickup location. Idempotent per ride.
	Insert(ctx context.Context, rideID uuid.UUID, p domain.Point) error

	// Remove drops a ride from the index on cancellation or completion.
	Remove(ctx context.Context, rideID uuid.UUID) error

	// Query returns rides within radiusMeters of p (boundary inclusive),
	// ordered by ascending distance.
	Query(ctx context.Context, p domain.Point, radiusMeters float64) ([]Candidate, error)
}

// MemoryIndex is an in-process Index guarded by a read-write lock: searches
// are frequent and concurrent, inserts and removals are not.
type MemoryIndex struct {
	mu    sync.RWMutex
	rides map[uuid.UUID]domain.Point
}

// NewMemoryIndex creates an empty in-memory geo index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{rides: make(map[uuid.UUID]domain.Point)}
}

// Insert adds or updates a ride's pickup location.
func (g *MemoryIndex) Insert(_ context.Context, rideID uuid.UUID, p domain.Point) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rides[rideID] = p
	return nil
}

// Remove drops a ride from the index.
func (g *MemoryIndex) Remove(_ context.Context, rideID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.rides, rideID)
	return nil
}

// Query scans all rides and returns those within the radius, nearest first.
// A linear haversine scan is plenty at campus scale; swap in the Redis index
// when the fleet outgrows it.
func (g *MemoryIndex) Query(_ context.Context, p domain.Point, radiusMeters float64) ([]Candidate, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Candidate, 0, len(g.rides))
	for id, loc := range g.rides {
		dist := Haversine(p.Latitude, p.Longitude, loc.Latitude, loc.Longitude)
		if dist <= radiusMeters {
			out = append(out, Candidate{RideID: id, DistanceMeters: dist})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceMeters < out[j].DistanceMeters })
	return out, nil
}

// Haversine returns the great-circle distance between two coordinates in meters.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
