package telegram

import (
	"context"
	"fmt"
	"strings"

	"stayfinder/internal/kafka"
)

const (
	bookingCreatedTemplate       = "New booking #%d created: %s - %s, accommodation #%d."
	bookingCanceledTemplate      = "Booking #%d has been canceled."
	accommodationCreatedTemplate = "New accommodation #%d has been listed."
	accommodationsFreedTemplate  = "Accommodations released, expired bookings: %s."
	paymentSuccessTemplate       = "Payment for booking #%d received, amount %.2f."
)

// HandleEvent formats a lifecycle event and fans it out to the affected
// users. Used as the kafka consumer handler in the worker process.
func (g *Gateway) HandleEvent(ctx context.Context, event kafka.NotificationEvent) error {
	switch event.Type {
	case kafka.EventBookingCreated:
		g.Notify(ctx, event.UserID, fmt.Sprintf(bookingCreatedTemplate,
			event.BookingID, event.CheckInDate, event.CheckOutDate, event.AccommodationID))
	case kafka.EventBookingCanceled:
		g.Notify(ctx, event.UserID, fmt.Sprintf(bookingCanceledTemplate, event.BookingID))
	case kafka.EventAccommodationCreated:
		g.Notify(ctx, event.UserID, fmt.Sprintf(accommodationCreatedTemplate, event.AccommodationID))
	case kafka.EventAccommodationsFreed:
		g.NotifyBatch(ctx, event.UserIDs, fmt.Sprintf(accommodationsFreedTemplate, joinIDs(event.BookingIDs)))
	case kafka.EventPaymentSuccess:
		g.Notify(ctx, event.UserID, fmt.Sprintf(paymentSuccessTemplate,
			event.BookingID, float64(event.AmountCents)/100))
	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}
	return nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	return strings.Join(parts, ", ")
}
