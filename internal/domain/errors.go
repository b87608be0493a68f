package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies the category of an application error.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "VALIDATION_ERROR"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeConflict           ErrorCode = "CONFLICT"
	CodeInvalidState       ErrorCode = "INVALID_STATE"
	CodeNoSeatsAvailable   ErrorCode = "NO_SEATS_AVAILABLE"
	CodeRideNotActive      ErrorCode = "RIDE_NOT_ACTIVE"
	CodeDuplicateRequest   ErrorCode = "DUPLICATE_REQUEST"
	CodeSelfBooking        ErrorCode = "SELF_BOOKING"
	CodeAlreadyResolved    ErrorCode = "ALREADY_RESOLVED"
	CodeRideActiveBookings ErrorCode = "RIDE_HAS_ACTIVE_BOOKINGS"
	CodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// AppError is the typed error returned by all domain and application operations.
type AppError struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPStatus maps the error code to an HTTP status code for the transport layer.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden, CodeSelfBooking:
		return http.StatusForbidden
	case CodeConflict, CodeDuplicateRequest, CodeAlreadyResolved,
		CodeRideActiveBookings, CodeNoSeatsAvailable, CodeRideNotActive,
		CodeInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError creates an AppError for malformed request data.
func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

// NewNotFoundError creates an AppError for an unknown entity.
func NewNotFoundError(entity, id string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// NewForbiddenError creates an AppError for a caller lacking permission.
func NewForbiddenError(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

// NewConflictError creates an AppError for a concurrent-modification conflict.
func NewConflictError(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

// NewInvalidStateError creates an AppError for an illegal status transition.
func NewInvalidStateError(from, to string) *AppError {
	return &AppError{Code: CodeInvalidState, Message: fmt.Sprintf("cannot transition from %s to %s", from, to)}
}

// NewNoSeatsAvailableError signals that a ride has no free seats. This is an
// expected outcome of concurrent booking and not a fault.
func NewNoSeatsAvailableError(rideID string) *AppError {
	return &AppError{Code: CodeNoSeatsAvailable, Message: fmt.Sprintf("ride %s has no seats available", rideID)}
}

// NewRideNotActiveError signals that a ride is cancelled or completed.
func NewRideNotActiveError(rideID, status string) *AppError {
	return &AppError{Code: CodeRideNotActive, Message: fmt.Sprintf("ride %s is %s", rideID, status)}
}

// NewDuplicateRequestError signals that the seeker already holds an active
// booking on this ride.
func NewDuplicateRequestError(rideID string) *AppError {
	return &AppError{Code: CodeDuplicateRequest, Message: fmt.Sprintf("an active booking already exists for ride %s", rideID)}
}

// NewSelfBookingError signals that a provider tried to book their own ride.
func NewSelfBookingError() *AppError {
	return &AppError{Code: CodeSelfBooking, Message: "providers cannot book their own rides"}
}

// NewAlreadyResolvedError signals a stale transition attempt on a booking
// that is no longer pending. Expected under concurrent accept/reject/cancel.
func NewAlreadyResolvedError(bookingID string) *AppError {
	return &AppError{Code: CodeAlreadyResolved, Message: fmt.Sprintf("booking %s is already resolved", bookingID)}
}

// NewRideHasActiveBookingsError blocks deletion of a ride that still has
// pending or accepted bookings.
func NewRideHasActiveBookingsError(rideID string) *AppError {
	return &AppError{Code: CodeRideActiveBookings, Message: fmt.Sprintf("ride %s has unresolved bookings", rideID)}
}

// NewInternalError creates an AppError for an internal-consistency violation.
// Seat-count invariant breaches surface through this and abort the operation.
func NewInternalError(message string) *AppError {
	return &AppError{Code: CodeInternal, Message: message}
}

// AsAppError extracts an *AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
