package booking

import (
	"context"
	"time"

	"stayfinder/internal/domain"
	"stayfinder/internal/kafka"
)

// expirableStatuses is the sweep eligibility set. EXPIRED is not in it, so a
// rerun within the same hour finds nothing and sends nothing.
var expirableStatuses = []domain.BookingStatus{domain.BookingStatusPending, domain.BookingStatusConfirmed}

// ExpireHourlyBookings transitions every PENDING or CONFIRMED booking whose
// check-out matches the current hour boundary to EXPIRED and sends one
// batched notification for the affected users.
func (s *BookingService) ExpireHourlyBookings(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	hour := now.Truncate(time.Hour)

	expired, err := s.bookings.ListByCheckoutHourAndStatuses(ctx, hour, expirableStatuses)
	if err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(expired))
	for _, b := range expired {
		ids = append(ids, b.ID)
	}
	if err := s.bookings.BulkUpdateStatus(ctx, ids, domain.BookingStatusExpired); err != nil {
		return nil, err
	}

	users, err := s.resolveAffectedUsers(ctx, expired, ids)
	if err != nil {
		return nil, err
	}
	userIDs := make([]int64, 0, len(users))
	for _, u := range users {
		userIDs = append(userIDs, u.ID)
	}

	s.publish(ctx, kafka.NotificationEvent{
		Type:       kafka.EventAccommodationsFreed,
		BookingIDs: ids,
		UserIDs:    userIDs,
	})
	return expired, nil
}

func (s *BookingService) resolveAffectedUsers(ctx context.Context, expired []domain.Booking, bookingIDs []int64) ([]domain.User, error) {
	if s.userLookupByBookingID {
		// Resolves users by the booking ids themselves, not by the user ids
		// the bookings reference. Kept behind a flag for parity with the
		// previous system; see DESIGN.md before relying on it.
		return s.users.ListByIDs(ctx, bookingIDs)
	}

	seen := make(map[int64]struct{}, len(expired))
	userIDs := make([]int64, 0, len(expired))
	for _, b := range expired {
		if _, ok := seen[b.UserID]; ok {
			continue
		}
		seen[b.UserID] = struct{}{}
		userIDs = append(userIDs, b.UserID)
	}
	return s.users.ListByIDs(ctx, userIDs)
}
