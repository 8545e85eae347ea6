package booking

import (
	"context"
	"time"

	"stayfinder/internal/domain"
)

// overlaps reports whether two date ranges conflict. The comparison is
// boundary-inclusive: ranges that touch at a boundary count as overlapping.
func overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	return !(aIn.After(bOut) || aOut.Before(bIn))
}

// CheckAvailability decides whether the candidate range can be admitted for
// the accommodation. excludeBookingID (0 for none) removes a booking from the
// overlap set so an update does not conflict with itself.
//
// Capacity is only consulted when at least one overlapping booking exists: a
// candidate with zero overlaps is always admitted, even when availability is
// zero. Historical behavior, kept deliberately.
func (s *BookingService) CheckAvailability(ctx context.Context, accommodationID int64, checkIn, checkOut time.Time, excludeBookingID int64) error {
	accommodation, err := s.accommodations.GetByID(ctx, accommodationID)
	if err != nil {
		return err
	}

	existing, err := s.bookings.ListByAccommodation(ctx, accommodationID)
	if err != nil {
		return err
	}

	overlapping := 0
	for _, b := range existing {
		if excludeBookingID != 0 && b.ID == excludeBookingID {
			continue
		}
		if overlaps(checkIn, checkOut, b.CheckInDate, b.CheckOutDate) {
			overlapping++
		}
	}

	if overlapping > 0 && overlapping >= accommodation.Availability {
		return domain.ErrCapacityExceeded
	}
	return nil
}
