package ride

import "fmt"

// RideStatus represents the current state of a ride in its lifecycle.
type RideStatus string

const (
	StatusActive    RideStatus = "active"
	StatusFull      RideStatus = "full"
	StatusCancelled RideStatus = "cancelled"
	StatusCompleted RideStatus = "completed"
)

// validTransitions defines the state machine for ride status transitions.
// "full" is not terminal: releasing a held seat reverts the ride to active.
var validTransitions = map[RideStatus][]RideStatus{
	StatusActive:    {StatusFull, StatusCancelled, StatusCompleted},
	StatusFull:      {StatusActive, StatusCancelled, StatusCompleted},
	StatusCancelled: {},
	StatusCompleted: {},
}

// IsValid returns true if the status is a recognized ride status.
func (s RideStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s RideStatus) CanTransitionTo(target RideStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s RideStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// String returns the string representation of the status.
func (s RideStatus) String() string {
	return string(s)
}

// ParseRideStatus converts a string to a RideStatus, returning an error if invalid.
func ParseRideStatus(s string) (RideStatus, error) {
	status := RideStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid ride status: %s", s)
	}
	return status, nil
}
