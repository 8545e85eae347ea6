package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stayfinder/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByUserAndID(ctx context.Context, userID, id int64) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID int64, page domain.Page) ([]domain.Booking, error)
	ListByFilter(ctx context.Context, filter domain.BookingFilter, page domain.Page) ([]domain.Booking, error)
	ListByAccommodation(ctx context.Context, accommodationID int64) ([]domain.Booking, error)
	ListByCheckoutHourAndStatuses(ctx context.Context, hour time.Time, statuses []domain.BookingStatus) ([]domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	BulkUpdateStatus(ctx context.Context, ids []int64, status domain.BookingStatus) error
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, check_in_date, check_out_date, accommodation_id, user_id, status, created_at, updated_at`

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Row lock on the accommodation keeps the insert serialized with other
	// writers that touch the same listing inside their own transactions.
	var accommodationID int64
	if err := tx.QueryRow(ctx, `SELECT id FROM accommodations WHERE id=$1 AND is_deleted=false FOR UPDATE`, booking.AccommodationID).Scan(&accommodationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrAccommodationNotFound
		}
		return err
	}

	booking.Status = domain.BookingStatusPending
	if err := tx.QueryRow(ctx, `INSERT INTO bookings (check_in_date, check_out_date, accommodation_id, user_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`, booking.CheckInDate, booking.CheckOutDate, booking.AccommodationID, booking.UserID, booking.Status).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1 AND is_deleted=false`, id)
	return scanBooking(row)
}

func (r *PGBookingRepository) GetByUserAndID(ctx context.Context, userID, id int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1 AND user_id=$2 AND is_deleted=false`, id, userID)
	return scanBooking(row)
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID int64, page domain.Page) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id=$1 AND is_deleted=false ORDER BY id LIMIT $2 OFFSET $3`, userID, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (r *PGBookingRepository) ListByFilter(ctx context.Context, filter domain.BookingFilter, page domain.Page) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE is_deleted=false`
	args := []interface{}{}
	if len(filter.UserIDs) > 0 {
		args = append(args, filter.UserIDs)
		query += fmt.Sprintf(` AND user_id = ANY($%d)`, len(args))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		args = append(args, statuses)
		query += fmt.Sprintf(` AND status = ANY($%d)`, len(args))
	}
	query += fmt.Sprintf(` ORDER BY id LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, page.Limit(), page.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (r *PGBookingRepository) ListByAccommodation(ctx context.Context, accommodationID int64) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE accommodation_id=$1 AND status != $2 AND is_deleted=false`, accommodationID, domain.BookingStatusCanceled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (r *PGBookingRepository) ListByCheckoutHourAndStatuses(ctx context.Context, hour time.Time, statuses []domain.BookingStatus) ([]domain.Booking, error) {
	vals := make([]string, 0, len(statuses))
	for _, s := range statuses {
		vals = append(vals, string(s))
	}
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE check_out_date=$1 AND status = ANY($2) AND is_deleted=false`, hour, vals)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (r *PGBookingRepository) Update(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET check_in_date=$1, check_out_date=$2, accommodation_id=$3, updated_at=now()
		WHERE id=$4 AND is_deleted=false
		RETURNING `+bookingColumns, booking.CheckInDate, booking.CheckOutDate, booking.AccommodationID, booking.ID)
	return scanBooking(row)
}

func (r *PGBookingRepository) BulkUpdateStatus(ctx context.Context, ids []int64, status domain.BookingStatus) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE id = ANY($2) AND is_deleted=false`, status, ids)
	return err
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.CheckInDate, &b.CheckOutDate, &b.AccommodationID, &b.UserID, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func scanBookings(rows pgx.Rows) ([]domain.Booking, error) {
	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.CheckInDate, &b.CheckOutDate, &b.AccommodationID, &b.UserID, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
