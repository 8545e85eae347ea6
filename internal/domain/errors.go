package domain

import "errors"

// Not-found class: surfaced as 404, never retried.
var (
	ErrAccommodationNotFound = errors.New("accommodation not found")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrChatNotFound          = errors.New("no chat registered for this user")
	ErrNoBookingsFound       = errors.New("no bookings found for the specified filters")
	ErrNoPaymentsFound       = errors.New("no payments found")
)

// Conflict class: business-rule rejections, surfaced as 409.
var (
	ErrCapacityExceeded   = errors.New("no available accommodations left for booking")
	ErrAlreadyCanceled    = errors.New("booking is already canceled")
	ErrUnpaidReservation  = errors.New("the user has unpaid reservations")
	ErrAccommodationBusy  = errors.New("accommodation is being booked by someone else, try again")
	ErrEmailAlreadyExists = errors.New("user with this email already exists")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccommodationNotFound) ||
		errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrNoBookingsFound) ||
		errors.Is(err, ErrNoPaymentsFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrAlreadyCanceled) ||
		errors.Is(err, ErrUnpaidReservation) ||
		errors.Is(err, ErrAccommodationBusy) ||
		errors.Is(err, ErrEmailAlreadyExists)
}
