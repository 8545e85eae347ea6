package payment

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"stayfinder/internal/domain"
	"stayfinder/internal/kafka"
	"stayfinder/internal/repository"
	"stayfinder/internal/stripe"
)

type PaymentUseCase interface {
	CreateSession(ctx context.Context, bookingID int64) (*domain.Payment, error)
	ProcessSuccess(ctx context.Context, sessionID string) (*domain.Payment, error)
	ProcessCancel(ctx context.Context, sessionID string) (*domain.Payment, error)
	FindAllByUser(ctx context.Context, userID int64, page domain.Page) ([]domain.Payment, error)
	HasPendingPayment(ctx context.Context, userID int64) (bool, error)
	ExpireStalePayments(ctx context.Context, now time.Time) (int64, error)
}

// SessionCreator is the payment-provider boundary: a hosted checkout page
// for an amount, returning an external id, URL and expiry.
type SessionCreator interface {
	CreateCheckoutSession(ctx context.Context, amountCents int64) (*stripe.CheckoutSession, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type PaymentService struct {
	payments       repository.PaymentRepository
	bookings       repository.BookingRepository
	accommodations repository.AccommodationRepository
	sessions       SessionCreator
	producer       Producer
	topic          string
}

func NewPaymentService(
	payments repository.PaymentRepository,
	bookings repository.BookingRepository,
	accommodations repository.AccommodationRepository,
	sessions SessionCreator,
	producer Producer,
	topic string,
) *PaymentService {
	return &PaymentService{
		payments:       payments,
		bookings:       bookings,
		accommodations: accommodations,
		sessions:       sessions,
		producer:       producer,
		topic:          topic,
	}
}

func (s *PaymentService) CreateSession(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	accommodation, err := s.accommodations.GetByID(ctx, booking.AccommodationID)
	if err != nil {
		return nil, err
	}

	amount := totalAmountCents(booking, accommodation)
	session, err := s.sessions.CreateCheckoutSession(ctx, amount)
	if err != nil {
		return nil, fmt.Errorf("error occurred while creating payment session: %w", err)
	}

	payment := &domain.Payment{
		BookingID:   booking.ID,
		SessionID:   session.ID,
		SessionURL:  session.URL,
		ExpiresAt:   session.ExpiresAt,
		AmountCents: amount,
		Status:      domain.PaymentStatusPending,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *PaymentService) ProcessSuccess(ctx context.Context, sessionID string) (*domain.Payment, error) {
	payment, err := s.payments.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.payments.UpdateStatus(ctx, payment.ID, domain.PaymentStatusPaid); err != nil {
		return nil, err
	}
	if err := s.bookings.BulkUpdateStatus(ctx, []int64{payment.BookingID}, domain.BookingStatusConfirmed); err != nil {
		return nil, err
	}
	payment.Status = domain.PaymentStatusPaid

	if booking, err := s.bookings.GetByID(ctx, payment.BookingID); err == nil {
		s.publish(ctx, kafka.NotificationEvent{
			Type:        kafka.EventPaymentSuccess,
			BookingID:   payment.BookingID,
			UserID:      booking.UserID,
			AmountCents: payment.AmountCents,
		})
	}
	return payment, nil
}

// ProcessCancel leaves the payment PENDING so the user can retry later, and
// moves the booking back to PENDING.
func (s *PaymentService) ProcessCancel(ctx context.Context, sessionID string) (*domain.Payment, error) {
	payment, err := s.payments.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.payments.UpdateStatus(ctx, payment.ID, domain.PaymentStatusPending); err != nil {
		return nil, err
	}
	if err := s.bookings.BulkUpdateStatus(ctx, []int64{payment.BookingID}, domain.BookingStatusPending); err != nil {
		return nil, err
	}
	payment.Status = domain.PaymentStatusPending
	return payment, nil
}

func (s *PaymentService) FindAllByUser(ctx context.Context, userID int64, page domain.Page) ([]domain.Payment, error) {
	payments, err := s.payments.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, domain.ErrNoPaymentsFound
	}
	return payments, nil
}

func (s *PaymentService) HasPendingPayment(ctx context.Context, userID int64) (bool, error) {
	return s.payments.ExistsPendingByUser(ctx, userID)
}

// ExpireStalePayments marks PENDING payments whose checkout session expiry
// has passed as EXPIRED.
func (s *PaymentService) ExpireStalePayments(ctx context.Context, now time.Time) (int64, error) {
	return s.payments.ExpirePendingBefore(ctx, now.Unix())
}

func (s *PaymentService) publish(ctx context.Context, event kafka.NotificationEvent) {
	if s.producer == nil || s.topic == "" {
		return
	}
	if err := s.producer.Publish(ctx, s.topic, strconv.FormatInt(event.BookingID, 10), event); err != nil {
		log.Printf("WARNING: failed to publish %s event for booking %d: %v", event.Type, event.BookingID, err)
	}
}

func totalAmountCents(booking *domain.Booking, accommodation *domain.Accommodation) int64 {
	nights := int64(booking.CheckOutDate.Sub(booking.CheckInDate).Hours() / 24)
	if nights < 1 {
		nights = 1
	}
	return nights * accommodation.DailyRateCents
}

var _ PaymentUseCase = (*PaymentService)(nil)
