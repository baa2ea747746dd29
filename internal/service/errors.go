package service

import (
	"errors"
)

// Error kinds. Every *Error wraps exactly one of these.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidDateRange   = errors.New("invalid date range")
	ErrBookingConflict    = errors.New("booking conflict")
	ErrDuplicateReview    = errors.New("duplicate review")
	ErrDuplicateUser      = errors.New("duplicate user")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyRequests    = errors.New("too many requests")
	ErrImageLimit         = errors.New("image limit reached")
)

const (
	MsgBadRequest         = "Bad Request"
	MsgSpotNotFound       = "Spot couldn't be found"
	MsgSpotImageNotFound  = "Spot Image couldn't be found"
	MsgReviewNotFound     = "Review couldn't be found"
	MsgReviewImageMissing = "Review Image couldn't be found"
	MsgBookingNotFound    = "Booking couldn't be found"
	MsgForbidden          = "Current user is prohibited from accessing the selected data"
	MsgOwnSpotBooking     = "Owners cannot book spots that belong to them"
	MsgBookingConflict    = "Sorry, this spot is already booked for the specified dates"
	MsgDuplicateReview    = "User already has a review for this spot"
	MsgDuplicateUser      = "User already exists"
	MsgUnauthenticated    = "Authentication required"
	MsgInvalidCredentials = "Invalid credentials"
	MsgTooManyRequests    = "Too many login attempts, please try again later"
	MsgImageLimit         = "Maximum number of images for this resource was reached"
	MsgPastBooking        = "Past bookings can't be modified"
	MsgStartedBooking     = "Bookings that have been started can't be deleted"
)

// Error is a business-rule failure with the message and field errors shown to clients.
type Error struct {
	Kind    error
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func validationError(fields map[string]string) *Error {
	return &Error{Kind: ErrValidation, Message: MsgBadRequest, Fields: fields}
}

func invalidDateRange() *Error {
	return &Error{
		Kind:    ErrInvalidDateRange,
		Message: MsgBadRequest,
		Fields:  map[string]string{"endDate": "endDate cannot be on or before startDate"},
	}
}

func bookingConflict() *Error {
	return &Error{
		Kind:    ErrBookingConflict,
		Message: MsgBookingConflict,
		Fields: map[string]string{
			"startDate": "Start date conflicts with an existing booking",
			"endDate":   "End date conflicts with an existing booking",
		},
	}
}

func forbidden() *Error {
	return newError(ErrForbidden, MsgForbidden)
}

// AsError extracts the *Error from err, if any.
func AsError(err error) (*Error, bool) {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}
