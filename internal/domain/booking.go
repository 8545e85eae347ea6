package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCanceled  BookingStatus = "CANCELED"
	BookingStatusExpired   BookingStatus = "EXPIRED"
)

type Booking struct {
	ID              int64
	CheckInDate     time.Time
	CheckOutDate    time.Time
	AccommodationID int64
	UserID          int64
	Status          BookingStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BookingFilter is a conjunction of IN-predicates: a booking matches when its
// user id is in UserIDs (if any given) and its status is in Statuses (if any given).
type BookingFilter struct {
	UserIDs  []int64
	Statuses []BookingStatus
}

type Page struct {
	Number int
	Size   int
}

func (p Page) Limit() int {
	if p.Size <= 0 {
		return 20
	}
	return p.Size
}

func (p Page) Offset() int {
	if p.Number <= 0 {
		return 0
	}
	return p.Number * p.Limit()
}
