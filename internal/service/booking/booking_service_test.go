package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"stayfinder/internal/domain"
	"stayfinder/internal/kafka"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByUserAndID(ctx context.Context, userID, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID int64, page domain.Page) ([]domain.Booking, error) {
	args := m.Called(ctx, userID, page)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByFilter(ctx context.Context, filter domain.BookingFilter, page domain.Page) ([]domain.Booking, error) {
	args := m.Called(ctx, filter, page)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByAccommodation(ctx context.Context, accommodationID int64) ([]domain.Booking, error) {
	args := m.Called(ctx, accommodationID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByCheckoutHourAndStatuses(ctx context.Context, hour time.Time, statuses []domain.BookingStatus) ([]domain.Booking, error) {
	args := m.Called(ctx, hour, statuses)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) Update(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	args := m.Called(ctx, booking)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) BulkUpdateStatus(ctx context.Context, ids []int64, status domain.BookingStatus) error {
	args := m.Called(ctx, ids, status)
	return args.Error(0)
}

type MockAccommodationRepository struct {
	mock.Mock
}

func (m *MockAccommodationRepository) Create(ctx context.Context, accommodation *domain.Accommodation) error {
	args := m.Called(ctx, accommodation)
	return args.Error(0)
}

func (m *MockAccommodationRepository) GetByID(ctx context.Context, id int64) (*domain.Accommodation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Accommodation), args.Error(1)
}

func (m *MockAccommodationRepository) List(ctx context.Context, page domain.Page) ([]domain.Accommodation, error) {
	args := m.Called(ctx, page)
	return args.Get(0).([]domain.Accommodation), args.Error(1)
}

func (m *MockAccommodationRepository) Update(ctx context.Context, accommodation *domain.Accommodation) (*domain.Accommodation, error) {
	args := m.Called(ctx, accommodation)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Accommodation), args.Error(1)
}

func (m *MockAccommodationRepository) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) ListByIDs(ctx context.Context, ids []int64) ([]domain.User, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]domain.User), args.Error(1)
}

type MockPaymentGate struct {
	mock.Mock
}

func (m *MockPaymentGate) HasPendingPayment(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

type MockAdmissionLocker struct {
	mock.Mock
}

func (m *MockAdmissionLocker) AcquireAdmissionLock(ctx context.Context, accommodationID int64, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, accommodationID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockAdmissionLocker) ReleaseAdmissionLock(ctx context.Context, accommodationID int64) error {
	args := m.Called(ctx, accommodationID)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	testCases := []struct {
		name string
		aIn  time.Time
		aOut time.Time
		bIn  time.Time
		bOut time.Time
		want bool
	}{
		{"disjoint before", day(2026, 3, 1), day(2026, 3, 5), day(2026, 3, 6), day(2026, 3, 9), false},
		{"disjoint after", day(2026, 3, 6), day(2026, 3, 9), day(2026, 3, 1), day(2026, 3, 5), false},
		{"shared check-out boundary", day(2026, 3, 1), day(2026, 3, 5), day(2026, 3, 5), day(2026, 3, 9), true},
		{"shared check-in boundary", day(2026, 3, 5), day(2026, 3, 9), day(2026, 3, 1), day(2026, 3, 5), true},
		{"fully contained", day(2026, 3, 2), day(2026, 3, 4), day(2026, 3, 1), day(2026, 3, 9), true},
		{"identical ranges", day(2026, 3, 1), day(2026, 3, 5), day(2026, 3, 1), day(2026, 3, 5), true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, overlaps(tc.aIn, tc.aOut, tc.bIn, tc.bOut))
			// The relation is symmetric.
			assert.Equal(t, tc.want, overlaps(tc.bIn, tc.bOut, tc.aIn, tc.aOut))
		})
	}
}

func TestCheckAvailability_CapacityReached(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockAccommodationRepo := &MockAccommodationRepository{}

	service := &BookingService{
		bookings:       mockBookingRepo,
		accommodations: mockAccommodationRepo,
	}

	ctx := context.Background()
	mockAccommodationRepo.On("GetByID", ctx, int64(7)).Return(&domain.Accommodation{ID: 7, Availability: 2}, nil).Once()
	mockBookingRepo.On("ListByAccommodation", ctx, int64(7)).Return([]domain.Booking{
		{ID: 1, CheckInDate: day(2026, 3, 1), CheckOutDate: day(2026, 3, 10)},
		{ID: 2, CheckInDate: day(2026, 3, 3), CheckOutDate: day(2026, 3, 8)},
	}, nil).Once()

	err := service.CheckAvailability(ctx, 7, day(2026, 3, 4), day(2026, 3, 6), 0)

	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
	mockBookingRepo.AssertExpectations(t)
	mockAccommodationRepo.AssertExpectations(t)
}

func TestCheckAvailability_UnderCapacity(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockAccommodationRepo := &MockAccommodationRepository{}

	service := &BookingService{
		bookings:       mockBookingRepo,
		accommodations: mockAccommodationRepo,
	}

	ctx := context.Background()
	mockAccommodationRepo.On("GetByID", ctx, int64(7)).Return(&domain.Accommodation{ID: 7, Availability: 2}, nil).Once()
	mockBookingRepo.On("ListByAccommodation", ctx, int64(7)).Return([]domain.Booking{
		{ID: 1, CheckInDate: day(2026, 3, 1), CheckOutDate: day(2026, 3, 10)},
	}, nil).Once()

	err := service.CheckAvailability(ctx, 7, day(2026, 3, 4), day(2026, 3, 6), 0)

	assert.NoError(t, err)
}

// A candidate with no overlaps is admitted even when availability is zero:
// capacity is only consulted against the overlapping set.
func TestCheckAvailability_ZeroOverlapsAdmitted(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockAccommodationRepo := &MockAccommodationRepository{}

	service := &BookingService{
		bookings:       mockBookingRepo,
		accommodations: mockAccommodationRepo,
	}

	ctx := context.Background()
	mockAccommodationRepo.On("GetByID", ctx, int64(7)).Return(&domain.Accommodation{ID: 7, Availability: 0}, nil).Once()
	mockBookingRepo.On("ListByAccommodation", ctx, int64(7)).Return([]domain.Booking{
		{ID: 1, CheckInDate: day(2026, 1, 1), CheckOutDate: day(2026, 1, 5)},
	}, nil).Once()

	err := service.CheckAvailability(ctx, 7, day(2026, 3, 4), day(2026, 3, 6), 0)

	assert.NoError(t, err)
}

func TestCheckAvailability_ExcludesOwnBooking(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockAccommodationRepo := &MockAccommodationRepository{}

	service := &BookingService{
		bookings:       mockBookingRepo,
		accommodations: mockAccommodationRepo,
	}

	ctx := context.Background()
	mockAccommodationRepo.On("GetByID", ctx, int64(7)).Return(&domain.Accommodation{ID: 7, Availability: 1}, nil).Twice()
	mockBookingRepo.On("ListByAccommodation", ctx, int64(7)).Return([]domain.Booking{
		{ID: 42, CheckInDate: day(2026, 3, 1), CheckOutDate: day(2026, 3, 10)},
	}, nil).Twice()

	// Without the exclusion the booking conflicts with itself.
	err := service.CheckAvailability(ctx, 7, day(2026, 3, 2), day(2026, 3, 9), 0)
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)

	err = service.CheckAvailability(ctx, 7, day(2026, 3, 2), day(2026, 3, 9), 42)
	assert.NoError(t, err)
}

func TestCreateBooking_Success(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockAccommodationRepo := &MockAccommodationRepository{}
	mockUserRepo := &MockUserRepository{}
	mockGate := &MockPaymentGate{}
	mockLocker := &MockAdmissionLocker{}
	mockProducer := &MockProducer{}

	service := &BookingService{
		bookings:       mockBookingRepo,
		accommodations: mockAccommodationRepo,
		users:          mockUserRepo,
		gate:           mockGate,
		locks:          mockLocker,
		producer:       mockProducer,
		topic:          "notifications",
		lockTTL:        10 * time.Second,
	}

	ctx := context.Background()
	checkIn := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	checkOut := checkIn.Add(72 * time.Hour)
	input := CreateBookingInput{CheckInDate: checkIn, CheckOutDate: checkOut, AccommodationID: 7}

	mockGate.On("HasPendingPayment", ctx, int64(3)).Return(false, nil).Once()
	mockLocker.On("AcquireAdmissionLock", ctx, int64(7), 10*time.Second).Return(true, nil).Once()
	mockLocker.On("ReleaseAdmissionLock", ctx, int64(7)).Return(nil).Once()
	mockAccommodationRepo.On("GetByID", ctx, int64(7)).Return(&domain.Accommodation{ID: 7, Availability: 2}, nil).Once()
	mockBookingRepo.On("ListByAccommodation", ctx, int64(7)).Return([]domain.Booking{}, nil).Once()
	mockUserRepo.On("GetByID", ctx, int64(3)).Return(&domain.User{ID: 3, Email: "guest@example.com"}, nil).Once()
	mockBookingRepo.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Run(func(args mock.Arguments) {
		b := args.Get(1).(*domain.Booking)
		b.ID = 101
		b.Status = domain.BookingStatusPending
	}).Return(nil).Once()
	mockProducer.On("Publish", ctx, "notifications", "101", mock.Anything).Return(nil).Once()

	booking, err := service.CreateBooking(ctx, 3, input)

	assert.NoError(t, err)
	assert.NotNil(t, booking)
	assert.Equal(t, int64(101), booking.ID)
	assert.Equal(t, domain.BookingStatusPending, booking.Status)
	assert.Equal(t, int64(7), booking.AccommodationID)
	assert.Equal(t, int64(3), booking.UserID)

	mockGate.AssertExpectations(t)
	mockLocker.AssertExpectations(t)
	mockBookingRepo.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestCreateBooking_ValidationErrors(t *testing.T) {
	service := &BookingService{}
	ctx := context.Background()
	future := time.Now().Add(24 * time.Hour)

	testCases := []struct {
		name        string
		input       CreateBookingInput
		expectedErr string
	}{
		{
			name: "check-out before check-in",
			input: CreateBookingInput{
				CheckInDate:     future.Add(48 * time.Hour),
				CheckOutDate:    future,
				AccommodationID: 7,
			},
			expectedErr: "check-out date must not be before check-in date",
		},
		{
			name: "check-in in the past",
			input: CreateBookingInput{
				CheckInDate:     time.Now().Add(-24 * time.Hour),
				CheckOutDate:    future,
				AccommodationID: 7,
			},
			expectedErr: "check-in date must not be in the past",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			booking, err := service.CreateBooking(ctx, 3, tc.input)
			assert.Error(t, err)
			assert.Nil(t, booking)
			assert.Contains(t, err.Error(), tc.expectedErr)
		})
	}
}

func TestCreateBooking_UnpaidReservation(t *testing.T) {
	mockGate := &MockPaymentGate{}
	mockLocker := &MockAdmissionLocker{}

	service := &BookingService{
		gate:  mockGate,
		locks: mockLocker,
	}

	ctx := context.Background()
	checkIn := time.Now().Add(24 * time.Hour)
	input := CreateBookingInput{CheckInDate: checkIn, CheckOutDate: checkIn.Add(48 * time.Hour), AccommodationID: 7}

	mockGate.On("HasPendingPayment", ctx, int64(3)).Return(true, nil).Once()

	booking, err := service.CreateBooking(ctx, 3, input)

	assert.ErrorIs(t, err, domain.ErrUnpaidReservation)
	assert.Nil(t, booking)
	mockGate.AssertExpectations(t)
	mockLocker.AssertNotCalled(t, "AcquireAdmissionLock")
}

func TestCreateBooking_AdmissionLockBusy(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockGate := &MockPaymentGate{}
	mockLocker := &MockAdmissionLocker{}

	service := &BookingService{
		bookings: mockBookingRepo,
		gate:     mockGate,
		locks:    mockLocker,
		lockTTL:  10 * time.Second,
	}

	ctx := context.Background()
	checkIn := time.Now().Add(24 * time.Hour)
	input := CreateBookingInput{CheckInDate: checkIn, CheckOutDate: checkIn.Add(48 * time.Hour), AccommodationID: 7}

	mockGate.On("HasPendingPayment", ctx, int64(3)).Return(false, nil).Once()
	// Another writer holds the lock for the whole retry window.
	mockLocker.On("AcquireAdmissionLock", ctx, int64(7), 10*time.Second).Return(false, nil).Times(10)

	booking, err := service.CreateBooking(ctx, 3, input)

	assert.ErrorIs(t, err, domain.ErrAccommodationBusy)
	assert.Nil(t, booking)
	mockLocker.AssertExpectations(t)
	mockBookingRepo.AssertNotCalled(t, "Create")
}

func TestUpdateBooking_ExcludesSelfFromOverlaps(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockAccommodationRepo := &MockAccommodationRepository{}
	mockLocker := &MockAdmissionLocker{}

	service := &BookingService{
		bookings:       mockBookingRepo,
		accommodations: mockAccommodationRepo,
		locks:          mockLocker,
		lockTTL:        10 * time.Second,
	}

	ctx := context.Background()
	checkIn := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	checkOut := checkIn.Add(96 * time.Hour)
	current := &domain.Booking{ID: 42, UserID: 3, AccommodationID: 7, Status: domain.BookingStatusPending,
		CheckInDate: checkIn, CheckOutDate: checkIn.Add(48 * time.Hour)}

	mockBookingRepo.On("GetByUserAndID", ctx, int64(3), int64(42)).Return(current, nil).Once()
	mockLocker.On("AcquireAdmissionLock", ctx, int64(7), 10*time.Second).Return(true, nil).Once()
	mockLocker.On("ReleaseAdmissionLock", ctx, int64(7)).Return(nil).Once()
	mockAccommodationRepo.On("GetByID", ctx, int64(7)).Return(&domain.Accommodation{ID: 7, Availability: 1}, nil).Once()
	// The only stored overlap is the booking being moved.
	mockBookingRepo.On("ListByAccommodation", ctx, int64(7)).Return([]domain.Booking{*current}, nil).Once()
	mockBookingRepo.On("Update", ctx, mock.AnythingOfType("*domain.Booking")).Return(current, nil).Once()

	updated, err := service.UpdateBooking(ctx, 3, 42, CreateBookingInput{
		CheckInDate: checkIn, CheckOutDate: checkOut, AccommodationID: 7,
	})

	assert.NoError(t, err)
	assert.NotNil(t, updated)
	mockBookingRepo.AssertExpectations(t)
	mockLocker.AssertExpectations(t)
}

func TestCancelBooking_Success(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockProducer := &MockProducer{}

	service := &BookingService{
		bookings: mockBookingRepo,
		producer: mockProducer,
		topic:    "notifications",
	}

	ctx := context.Background()
	mockBookingRepo.On("GetByUserAndID", ctx, int64(3), int64(42)).
		Return(&domain.Booking{ID: 42, UserID: 3, Status: domain.BookingStatusPending}, nil).Once()
	mockBookingRepo.On("BulkUpdateStatus", ctx, []int64{42}, domain.BookingStatusCanceled).Return(nil).Once()
	mockProducer.On("Publish", ctx, "notifications", "42", mock.Anything).Return(nil).Once()

	err := service.CancelBooking(ctx, 3, 42)

	assert.NoError(t, err)
	mockBookingRepo.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

// Cancellation is terminal: canceling twice fails and sends no second notification.
func TestCancelBooking_AlreadyCanceled(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockProducer := &MockProducer{}

	service := &BookingService{
		bookings: mockBookingRepo,
		producer: mockProducer,
		topic:    "notifications",
	}

	ctx := context.Background()
	mockBookingRepo.On("GetByUserAndID", ctx, int64(3), int64(42)).
		Return(&domain.Booking{ID: 42, UserID: 3, Status: domain.BookingStatusCanceled}, nil).Once()

	err := service.CancelBooking(ctx, 3, 42)

	assert.ErrorIs(t, err, domain.ErrAlreadyCanceled)
	mockBookingRepo.AssertNotCalled(t, "BulkUpdateStatus")
	mockProducer.AssertNotCalled(t, "Publish")
}

// Only CANCELED is rejected: an EXPIRED booking can still be canceled.
func TestCancelBooking_ExpiredBooking(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockProducer := &MockProducer{}

	service := &BookingService{
		bookings: mockBookingRepo,
		producer: mockProducer,
		topic:    "notifications",
	}

	ctx := context.Background()
	mockBookingRepo.On("GetByUserAndID", ctx, int64(3), int64(42)).
		Return(&domain.Booking{ID: 42, UserID: 3, Status: domain.BookingStatusExpired}, nil).Once()
	mockBookingRepo.On("BulkUpdateStatus", ctx, []int64{42}, domain.BookingStatusCanceled).Return(nil).Once()
	mockProducer.On("Publish", ctx, "notifications", "42", mock.Anything).Return(nil).Once()

	err := service.CancelBooking(ctx, 3, 42)

	assert.NoError(t, err)
	mockBookingRepo.AssertExpectations(t)
}

// A notification failure must not fail the cancellation itself.
func TestCancelBooking_PublishFailureIgnored(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockProducer := &MockProducer{}

	service := &BookingService{
		bookings: mockBookingRepo,
		producer: mockProducer,
		topic:    "notifications",
	}

	ctx := context.Background()
	mockBookingRepo.On("GetByUserAndID", ctx, int64(3), int64(42)).
		Return(&domain.Booking{ID: 42, UserID: 3, Status: domain.BookingStatusConfirmed}, nil).Once()
	mockBookingRepo.On("BulkUpdateStatus", ctx, []int64{42}, domain.BookingStatusCanceled).Return(nil).Once()
	mockProducer.On("Publish", ctx, "notifications", "42", mock.Anything).Return(assert.AnError).Once()

	err := service.CancelBooking(ctx, 3, 42)

	assert.NoError(t, err)
	mockProducer.AssertExpectations(t)
}

func TestFindAll_EmptyResult(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}

	service := &BookingService{bookings: mockBookingRepo}

	ctx := context.Background()
	filter := domain.BookingFilter{Statuses: []domain.BookingStatus{domain.BookingStatusPending}}
	mockBookingRepo.On("ListByFilter", ctx, filter, domain.Page{}).Return([]domain.Booking{}, nil).Once()

	bookings, err := service.FindAll(ctx, filter, domain.Page{})

	assert.ErrorIs(t, err, domain.ErrNoBookingsFound)
	assert.Nil(t, bookings)
}

func TestExpireHourlyBookings(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockUserRepo := &MockUserRepository{}
	mockProducer := &MockProducer{}

	service := &BookingService{
		bookings: mockBookingRepo,
		users:    mockUserRepo,
		producer: mockProducer,
		topic:    "notifications",
	}

	ctx := context.Background()
	now := time.Date(2026, 3, 10, 11, 37, 12, 0, time.UTC)
	hour := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)

	// Two bookings for the same user plus one for another; the user list is
	// deduplicated before the batched notification goes out.
	due := []domain.Booking{
		{ID: 1, UserID: 3, Status: domain.BookingStatusPending, CheckOutDate: hour},
		{ID: 2, UserID: 3, Status: domain.BookingStatusConfirmed, CheckOutDate: hour},
		{ID: 5, UserID: 9, Status: domain.BookingStatusPending, CheckOutDate: hour},
	}
	mockBookingRepo.On("ListByCheckoutHourAndStatuses", ctx, hour, expirableStatuses).Return(due, nil).Once()
	mockBookingRepo.On("BulkUpdateStatus", ctx, []int64{1, 2, 5}, domain.BookingStatusExpired).Return(nil).Once()
	mockUserRepo.On("ListByIDs", ctx, []int64{3, 9}).Return([]domain.User{{ID: 3}, {ID: 9}}, nil).Once()
	mockProducer.On("Publish", ctx, "notifications", mock.Anything, mock.MatchedBy(func(v interface{}) bool {
		event, ok := v.(kafka.NotificationEvent)
		return ok && event.Type == kafka.EventAccommodationsFreed &&
			len(event.BookingIDs) == 3 && len(event.UserIDs) == 2
	})).Return(nil).Once()

	expired, err := service.ExpireHourlyBookings(ctx, now)

	assert.NoError(t, err)
	assert.Len(t, expired, 3)
	mockBookingRepo.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

// fakeBookingStore keeps bookings in memory and applies the same eligibility
// predicate as the SQL query, so status transitions persist between sweep runs.
type fakeBookingStore struct {
	MockBookingRepository
	bookings []domain.Booking
}

func (f *fakeBookingStore) ListByCheckoutHourAndStatuses(ctx context.Context, hour time.Time, statuses []domain.BookingStatus) ([]domain.Booking, error) {
	eligible := make(map[domain.BookingStatus]struct{}, len(statuses))
	for _, s := range statuses {
		eligible[s] = struct{}{}
	}
	out := make([]domain.Booking, 0)
	for _, b := range f.bookings {
		if _, ok := eligible[b.Status]; ok && b.CheckOutDate.Equal(hour) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) BulkUpdateStatus(ctx context.Context, ids []int64, status domain.BookingStatus) error {
	for _, id := range ids {
		for i := range f.bookings {
			if f.bookings[i].ID == id {
				f.bookings[i].Status = status
			}
		}
	}
	return nil
}

// The sweep is idempotent per hour: a second run over the same hour finds the
// bookings already EXPIRED, changes nothing and sends no second notification.
func TestExpireHourlyBookings_Idempotent(t *testing.T) {
	mockUserRepo := &MockUserRepository{}
	mockProducer := &MockProducer{}

	hour := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)
	store := &fakeBookingStore{bookings: []domain.Booking{
		{ID: 1, UserID: 3, Status: domain.BookingStatusPending, CheckOutDate: hour},
		{ID: 2, UserID: 9, Status: domain.BookingStatusConfirmed, CheckOutDate: hour},
		{ID: 4, UserID: 9, Status: domain.BookingStatusCanceled, CheckOutDate: hour},
	}}

	service := &BookingService{
		bookings: store,
		users:    mockUserRepo,
		producer: mockProducer,
		topic:    "notifications",
	}

	ctx := context.Background()
	mockUserRepo.On("ListByIDs", ctx, []int64{3, 9}).Return([]domain.User{{ID: 3}, {ID: 9}}, nil).Once()
	mockProducer.On("Publish", ctx, "notifications", mock.Anything, mock.Anything).Return(nil).Once()

	first, err := service.ExpireHourlyBookings(ctx, hour.Add(5*time.Minute))
	assert.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := service.ExpireHourlyBookings(ctx, hour.Add(25*time.Minute))
	assert.NoError(t, err)
	assert.Empty(t, second)

	assert.Equal(t, domain.BookingStatusExpired, store.bookings[0].Status)
	assert.Equal(t, domain.BookingStatusExpired, store.bookings[1].Status)
	assert.Equal(t, domain.BookingStatusCanceled, store.bookings[2].Status)
	mockProducer.AssertNumberOfCalls(t, "Publish", 1)
	mockUserRepo.AssertExpectations(t)
}

func TestExpireHourlyBookings_LegacyUserLookup(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockUserRepo := &MockUserRepository{}
	mockProducer := &MockProducer{}

	service := &BookingService{
		bookings:              mockBookingRepo,
		users:                 mockUserRepo,
		producer:              mockProducer,
		topic:                 "notifications",
		userLookupByBookingID: true,
	}

	ctx := context.Background()
	now := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)
	hour := now

	due := []domain.Booking{{ID: 8, UserID: 3, Status: domain.BookingStatusPending, CheckOutDate: hour}}
	mockBookingRepo.On("ListByCheckoutHourAndStatuses", ctx, hour, expirableStatuses).Return(due, nil).Once()
	mockBookingRepo.On("BulkUpdateStatus", ctx, []int64{8}, domain.BookingStatusExpired).Return(nil).Once()
	// The legacy mode resolves users by booking id, not by user id.
	mockUserRepo.On("ListByIDs", ctx, []int64{8}).Return([]domain.User{}, nil).Once()
	mockProducer.On("Publish", ctx, "notifications", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := service.ExpireHourlyBookings(ctx, now)

	assert.NoError(t, err)
	mockUserRepo.AssertExpectations(t)
}
