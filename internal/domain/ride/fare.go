package ride

import "fmt"

// FareSuggester proposes a per-seat price for a route before a ride is posted.
type FareSuggester interface {
	// Suggest returns the suggested cost per seat for the given trip length.
	Suggest(params FareParams) (int64, error)
}

// FareParams holds the inputs for fare suggestion.
type FareParams struct {
	DistanceKm float64
	SeatsTotal int
}

// StandardFareSuggester implements the default campus fare heuristic: riders
// split fuel-plus-wear costs, so the per-seat price falls as seats increase.
type StandardFareSuggester struct{}

// NewStandardFareSuggester creates a new StandardFareSuggester.
func NewStandardFareSuggester() *StandardFareSuggester {
	return &StandardFareSuggester{}
}

// Suggest computes the suggested cost per seat.
//
// Formula:
//   - Base charge: 20 per ride
//   - Distance: 8 per km
//   - Split evenly across offered seats, floor of 10 per seat
func (s *StandardFareSuggester) Suggest(params FareParams) (int64, error) {
	if params.DistanceKm < 0 {
		return 0, fmt.Errorf("distance cannot be negative")
	}
	if params.SeatsTotal < 1 {
		return 0, fmt.Errorf("seats total must be at least 1")
	}

	total := 20.0 + params.DistanceKm*8.0
	perSeat := int64(total / float64(params.SeatsTotal))
	if perSeat < 10 {
		perSeat = 10
	}
	return perSeat, nil
}
