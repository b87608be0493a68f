package ride

import "github.com/google/uuid"

// ReservationToken identifies a provisional seat hold on a ride. The seat is
// already decremented when the token is issued; the token is later committed
// (provider accepted) or released (rejected or withdrawn), exactly once.
type ReservationToken struct {
	ID     uuid.UUID `json:"id"`
	RideID uuid.UUID `json:"ride_id"`
}

// NewReservationToken issues a token for a hold on the given ride.
func NewReservationToken(rideID uuid.UUID) ReservationToken {
	return ReservationToken{ID: uuid.New(), RideID: rideID}
}
