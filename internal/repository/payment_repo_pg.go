package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stayfinder/internal/domain"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetBySessionID(ctx context.Context, sessionID string) (*domain.Payment, error)
	ListByUser(ctx context.Context, userID int64, page domain.Page) ([]domain.Payment, error)
	UpdateStatus(ctx context.Context, id int64, status domain.PaymentStatus) error
	ExistsPendingByUser(ctx context.Context, userID int64) (bool, error)
	ExpirePendingBefore(ctx context.Context, nowUnix int64) (int64, error)
}

type PGPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) PaymentRepository {
	return &PGPaymentRepository{db: db}
}

const paymentColumns = `id, booking_id, session_id, session_url, expires_at, amount_cents, status`

func (r *PGPaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	return r.db.QueryRow(ctx, `INSERT INTO payments (booking_id, session_id, session_url, expires_at, amount_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`, p.BookingID, p.SessionID, p.SessionURL, p.ExpiresAt, p.AmountCents, p.Status).Scan(&p.ID)
}

func (r *PGPaymentRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE session_id=$1`, sessionID)
	var p domain.Payment
	if err := row.Scan(&p.ID, &p.BookingID, &p.SessionID, &p.SessionURL, &p.ExpiresAt, &p.AmountCents, &p.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGPaymentRepository) ListByUser(ctx context.Context, userID int64, page domain.Page) ([]domain.Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT p.id, p.booking_id, p.session_id, p.session_url, p.expires_at, p.amount_cents, p.status
		FROM payments p
		JOIN bookings b ON b.id = p.booking_id AND b.is_deleted=false
		WHERE b.user_id=$1 ORDER BY p.id LIMIT $2 OFFSET $3`, userID, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.BookingID, &p.SessionID, &p.SessionURL, &p.ExpiresAt, &p.AmountCents, &p.Status); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *PGPaymentRepository) UpdateStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	cmd, err := r.db.Exec(ctx, `UPDATE payments SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

func (r *PGPaymentRepository) ExistsPendingByUser(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM payments p
		JOIN bookings b ON b.id = p.booking_id AND b.is_deleted=false
		WHERE b.user_id=$1 AND p.status=$2)`, userID, domain.PaymentStatusPending).Scan(&exists)
	return exists, err
}

func (r *PGPaymentRepository) ExpirePendingBefore(ctx context.Context, nowUnix int64) (int64, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE payments SET status=$1 WHERE status=$2 AND expires_at < $3`,
		domain.PaymentStatusExpired, domain.PaymentStatusPending, nowUnix)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
