package geo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/freewheels/service-rides/internal/domain"
)

// RedisIndex implements Index on Redis GEO commands, sharing one sorted set
// across service instances.
type RedisIndex struct {
	client redis.UniversalClient
	key    string
}

// NewRedisIndex creates a geo index backed by the given Redis client and key.
func NewRedisIndex(client redis.UniversalClient, key string) *RedisIndex {
	return &RedisIndex{client: client, key: key}
}

// Insert adds or updates a ride's pickup location via GEOADD.
func (r *RedisIndex) Insert(ctx context.Context, rideID uuid.UUID, p domain.Point) error {
	err := r.client.GeoAdd(ctx, r.key, &redis.GeoLocation{
		Name:      rideID.String(),
		Longitude: p.Longitude,
		Latitude:  p.Latitude,
	}).Err()
	if err != nil {
		return fmt.Errorf("geo insert: %w", err)
	}
	return nil
}

// Remove drops a ride from the geo set.
func (r *RedisIndex) Remove(ctx context.Context, rideID uuid.UUID) error {
	if err := r.client.ZRem(ctx, r.key, rideID.String()).Err(); err != nil {
		return fmt.Errorf("geo remove: %w", err)
	}
	return nil
}

// Query runs GEOSEARCH around the point, ascending by distance.
func (r *RedisIndex) Query(ctx context.Context, p domain.Point, radiusMeters float64) ([]Candidate, error) {
	locs, err := r.client.GeoSearchLocation(ctx, r.key, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  p.Longitude,
			Latitude:   p.Latitude,
			Radius:     radiusMeters,
			RadiusUnit: "m",
			Sort:       "ASC",
		},
		WithDist: true,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("geo query: %w", err)
	}

	out := make([]Candidate, 0, len(locs))
	for _, loc := range locs {
		id, err := uuid.Parse(loc.Name)
		if err != nil {
			// stale non-uuid member; skip rather than fail the search
			continue
		}
		out = append(out, Candidate{RideID: id, DistanceMeters: loc.Dist})
	}
	return out, nil
}
