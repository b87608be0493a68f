package application

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/freewheels/service-rides/internal/domain"
	rideDomain "github.com/freewheels/service-rides/internal/domain/ride"
	"github.com/freewheels/service-rides/internal/geo"
	"github.com/freewheels/service-rides/internal/observability"
)

const (
	// DefaultSearchRadiusMeters is used when the caller gives no radius.
	DefaultSearchRadiusMeters = 5000
	// MaxSearchRadiusMeters caps how wide a single search may scan.
	MaxSearchRadiusMeters = 50000
)

// SearchQuery holds the parameters of a ride search.
type SearchQuery struct {
	Pickup       domain.Point
	RadiusMeters float64
	// Date, when set, restricts results to rides departing that calendar
	// day (UTC).
	Date *time.Time
}

// SearchService matches seekers to bookable rides near a pickup point.
type SearchService struct {
	rides    rideDomain.RideRepository
	geoIndex geo.Index
	logger   *zap.Logger
}

// NewSearchService creates a new SearchService.
func NewSearchService(rides rideDomain.RideRepository, geoIndex geo.Index, logger *zap.Logger) *SearchService {
	return &SearchService{rides: rides, geoIndex: geoIndex, logger: logger}
}

// Search returns bookable rides whose pickup lies within the query radius,
// nearest first. Rides that are full, cancelled, completed, or already
// departed are filtered out even if the geo index still carries them.
func (s *SearchService) Search(ctx context.Context, query SearchQuery) ([]RideSearchResult, error) {
	start := time.Now()
	defer func() {
		observability.SearchLatency.Observe(time.Since(start).Seconds())
	}()

	if !query.Pickup.Valid() {
		return nil, domain.NewValidationError("pickup coordinates are out of range")
	}
	radius := query.RadiusMeters
	if radius <= 0 {
		radius = DefaultSearchRadiusMeters
	}
	if radius > MaxSearchRadiusMeters {
		radius = MaxSearchRadiusMeters
	}

	candidates, err := s.geoIndex.Query(ctx, query.Pickup, radius)
	if err != nil {
		return nil, domain.NewInternalError("geo index query failed")
	}
	if len(candidates) == 0 {
		return []RideSearchResult{}, nil
	}

	distances := make(map[string]float64, len(candidates))
	ids := make([]uuid.UUID, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.RideID)
		distances[c.RideID.String()] = c.DistanceMeters
	}

	rides, err := s.rides.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	results := make([]RideSearchResult, 0, len(rides))
	for _, rd := range rides {
		if !rd.IsBookable() || !rd.DepartureAt().After(now) {
			continue
		}
		if query.Date != nil && !sameDay(rd.DepartureAt(), *query.Date) {
			continue
		}
		results = append(results, RideSearchResult{
			RideDTO:        toRideDTO(rd),
			DistanceMeters: distances[rd.ID().String()],
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].DistanceMeters != results[j].DistanceMeters {
			return results[i].DistanceMeters < results[j].DistanceMeters
		}
		return results[i].DepartureAt.Before(results[j].DepartureAt)
	})

	s.logger.Debug("ride search",
		zap.Float64("radius_m", radius),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)),
	)
	return results, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
