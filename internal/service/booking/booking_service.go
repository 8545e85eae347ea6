package booking

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"stayfinder/internal/domain"
	"stayfinder/internal/kafka"
	"stayfinder/internal/repository"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, userID int64, input CreateBookingInput) (*domain.Booking, error)
	FindAll(ctx context.Context, filter domain.BookingFilter, page domain.Page) ([]domain.Booking, error)
	FindAllByUser(ctx context.Context, userID int64, page domain.Page) ([]domain.Booking, error)
	FindByUserAndID(ctx context.Context, userID, bookingID int64) (*domain.Booking, error)
	UpdateBooking(ctx context.Context, userID, bookingID int64, input CreateBookingInput) (*domain.Booking, error)
	CancelBooking(ctx context.Context, userID, bookingID int64) error
	ExpireHourlyBookings(ctx context.Context, now time.Time) ([]domain.Booking, error)
}

// PaymentGate blocks new bookings while the user still has a pending payment.
type PaymentGate interface {
	HasPendingPayment(ctx context.Context, userID int64) (bool, error)
}

// AdmissionLocker serializes the availability check and the following write
// for a single accommodation across concurrent requests and processes.
type AdmissionLocker interface {
	AcquireAdmissionLock(ctx context.Context, accommodationID int64, ttl time.Duration) (bool, error)
	ReleaseAdmissionLock(ctx context.Context, accommodationID int64) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings       repository.BookingRepository
	accommodations repository.AccommodationRepository
	users          repository.UserRepository
	gate           PaymentGate
	locks          AdmissionLocker
	producer       Producer
	topic          string
	lockTTL        time.Duration

	// userLookupByBookingID keeps the historical sweep behavior of resolving
	// notified users by booking ids. See DESIGN.md.
	userLookupByBookingID bool
}

type CreateBookingInput struct {
	CheckInDate     time.Time `json:"check_in_date"`
	CheckOutDate    time.Time `json:"check_out_date"`
	AccommodationID int64     `json:"accommodation_id"`
}

type BookingServiceOption func(*BookingService)

func WithLegacySweepUserLookup() BookingServiceOption {
	return func(s *BookingService) {
		s.userLookupByBookingID = true
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	accommodations repository.AccommodationRepository,
	users repository.UserRepository,
	gate PaymentGate,
	locks AdmissionLocker,
	producer Producer,
	topic string,
	lockTTL time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:       bookings,
		accommodations: accommodations,
		users:          users,
		gate:           gate,
		locks:          locks,
		producer:       producer,
		topic:          topic,
		lockTTL:        lockTTL,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, userID int64, input CreateBookingInput) (*domain.Booking, error) {
	if err := validateDates(input, time.Now()); err != nil {
		return nil, err
	}

	if s.gate != nil {
		pending, err := s.gate.HasPendingPayment(ctx, userID)
		if err != nil {
			return nil, err
		}
		if pending {
			return nil, domain.ErrUnpaidReservation
		}
	}

	release, err := s.lockAdmission(ctx, input.AccommodationID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.CheckAvailability(ctx, input.AccommodationID, input.CheckInDate, input.CheckOutDate, 0); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		CheckInDate:     input.CheckInDate,
		CheckOutDate:    input.CheckOutDate,
		AccommodationID: input.AccommodationID,
		UserID:          user.ID,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.NotificationEvent{
		Type:            kafka.EventBookingCreated,
		BookingID:       booking.ID,
		UserID:          user.ID,
		AccommodationID: booking.AccommodationID,
		CheckInDate:     booking.CheckInDate.Format(time.RFC3339),
		CheckOutDate:    booking.CheckOutDate.Format(time.RFC3339),
	})
	return booking, nil
}

func (s *BookingService) FindAll(ctx context.Context, filter domain.BookingFilter, page domain.Page) ([]domain.Booking, error) {
	bookings, err := s.bookings.ListByFilter(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, domain.ErrNoBookingsFound
	}
	return bookings, nil
}

func (s *BookingService) FindAllByUser(ctx context.Context, userID int64, page domain.Page) ([]domain.Booking, error) {
	bookings, err := s.bookings.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, domain.ErrNoBookingsFound
	}
	return bookings, nil
}

func (s *BookingService) FindByUserAndID(ctx context.Context, userID, bookingID int64) (*domain.Booking, error) {
	return s.bookings.GetByUserAndID(ctx, userID, bookingID)
}

func (s *BookingService) UpdateBooking(ctx context.Context, userID, bookingID int64, input CreateBookingInput) (*domain.Booking, error) {
	current, err := s.bookings.GetByUserAndID(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	if err := validateDates(input, time.Now()); err != nil {
		return nil, err
	}

	release, err := s.lockAdmission(ctx, input.AccommodationID)
	if err != nil {
		return nil, err
	}
	defer release()

	// The booking must not conflict with itself, so its own id is excluded
	// from the overlap set.
	if err := s.CheckAvailability(ctx, input.AccommodationID, input.CheckInDate, input.CheckOutDate, current.ID); err != nil {
		return nil, err
	}

	current.CheckInDate = input.CheckInDate
	current.CheckOutDate = input.CheckOutDate
	current.AccommodationID = input.AccommodationID
	return s.bookings.Update(ctx, current)
}

func (s *BookingService) CancelBooking(ctx context.Context, userID, bookingID int64) error {
	current, err := s.bookings.GetByUserAndID(ctx, userID, bookingID)
	if err != nil {
		return err
	}
	if current.Status == domain.BookingStatusCanceled {
		return domain.ErrAlreadyCanceled
	}

	if err := s.bookings.BulkUpdateStatus(ctx, []int64{bookingID}, domain.BookingStatusCanceled); err != nil {
		return err
	}

	s.publish(ctx, kafka.NotificationEvent{
		Type:      kafka.EventBookingCanceled,
		BookingID: bookingID,
		UserID:    userID,
	})
	return nil
}

func (s *BookingService) lockAdmission(ctx context.Context, accommodationID int64) (func(), error) {
	if s.locks == nil {
		return func() {}, nil
	}
	for attempt := 0; attempt < 10; attempt++ {
		ok, err := s.locks.AcquireAdmissionLock(ctx, accommodationID, s.lockTTL)
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				if err := s.locks.ReleaseAdmissionLock(ctx, accommodationID); err != nil {
					log.Printf("WARNING: failed to release admission lock for accommodation %d: %v", accommodationID, err)
				}
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil, domain.ErrAccommodationBusy
}

// publish is fire-and-forget: a notification failure must never fail the
// booking operation that triggered it.
func (s *BookingService) publish(ctx context.Context, event kafka.NotificationEvent) {
	if s.producer == nil || s.topic == "" {
		return
	}
	if err := s.producer.Publish(ctx, s.topic, strconv.FormatInt(event.BookingID, 10), event); err != nil {
		log.Printf("WARNING: failed to publish %s event for booking %d: %v", event.Type, event.BookingID, err)
	}
}

func validateDates(input CreateBookingInput, now time.Time) error {
	if input.CheckOutDate.Before(input.CheckInDate) {
		return errors.New("check-out date must not be before check-in date")
	}
	if input.CheckInDate.Before(now) {
		return errors.New("check-in date must not be in the past")
	}
	return nil
}

var _ BookingUseCase = (*BookingService)(nil)
