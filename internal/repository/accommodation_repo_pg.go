package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stayfinder/internal/domain"
)

type AccommodationRepository interface {
	Create(ctx context.Context, accommodation *domain.Accommodation) error
	GetByID(ctx context.Context, id int64) (*domain.Accommodation, error)
	List(ctx context.Context, page domain.Page) ([]domain.Accommodation, error)
	Update(ctx context.Context, accommodation *domain.Accommodation) (*domain.Accommodation, error)
	SoftDelete(ctx context.Context, id int64) error
}

type PGAccommodationRepository struct {
	db *pgxpool.Pool
}

func NewAccommodationRepository(db *pgxpool.Pool) AccommodationRepository {
	return &PGAccommodationRepository{db: db}
}

func (r *PGAccommodationRepository) Create(ctx context.Context, a *domain.Accommodation) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx, `INSERT INTO addresses (address) VALUES ($1) RETURNING id`, a.Location).Scan(&a.LocationID); err != nil {
		return err
	}
	if err := tx.QueryRow(ctx, `INSERT INTO accommodations (type, location_id, size, amenities, daily_rate_cents, availability)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`, a.Type, a.LocationID, a.Size, a.Amenities, a.DailyRateCents, a.Availability).Scan(&a.ID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGAccommodationRepository) GetByID(ctx context.Context, id int64) (*domain.Accommodation, error) {
	row := r.db.QueryRow(ctx, `SELECT a.id, a.type, a.location_id, ad.address, a.size, a.amenities, a.daily_rate_cents, a.availability
		FROM accommodations a
		JOIN addresses ad ON ad.id = a.location_id AND ad.is_deleted=false
		WHERE a.id=$1 AND a.is_deleted=false`, id)
	return scanAccommodation(row)
}

func (r *PGAccommodationRepository) List(ctx context.Context, page domain.Page) ([]domain.Accommodation, error) {
	rows, err := r.db.Query(ctx, `SELECT a.id, a.type, a.location_id, ad.address, a.size, a.amenities, a.daily_rate_cents, a.availability
		FROM accommodations a
		JOIN addresses ad ON ad.id = a.location_id AND ad.is_deleted=false
		WHERE a.is_deleted=false ORDER BY a.id LIMIT $1 OFFSET $2`, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accommodations := make([]domain.Accommodation, 0)
	for rows.Next() {
		var a domain.Accommodation
		if err := rows.Scan(&a.ID, &a.Type, &a.LocationID, &a.Location, &a.Size, &a.Amenities, &a.DailyRateCents, &a.Availability); err != nil {
			return nil, err
		}
		accommodations = append(accommodations, a)
	}
	return accommodations, rows.Err()
}

func (r *PGAccommodationRepository) Update(ctx context.Context, a *domain.Accommodation) (*domain.Accommodation, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var locationID int64
	err = tx.QueryRow(ctx, `UPDATE accommodations SET type=$1, size=$2, amenities=$3, daily_rate_cents=$4, availability=$5
		WHERE id=$6 AND is_deleted=false RETURNING location_id`,
		a.Type, a.Size, a.Amenities, a.DailyRateCents, a.Availability, a.ID).Scan(&locationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccommodationNotFound
		}
		return nil, err
	}
	a.LocationID = locationID

	if a.Location != "" {
		if _, err := tx.Exec(ctx, `UPDATE addresses SET address=$1 WHERE id=$2`, a.Location, locationID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, a.ID)
}

func (r *PGAccommodationRepository) SoftDelete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accommodations SET is_deleted=true WHERE id=$1 AND is_deleted=false`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrAccommodationNotFound
	}
	return nil
}

func scanAccommodation(row pgx.Row) (*domain.Accommodation, error) {
	var a domain.Accommodation
	if err := row.Scan(&a.ID, &a.Type, &a.LocationID, &a.Location, &a.Size, &a.Amenities, &a.DailyRateCents, &a.Availability); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccommodationNotFound
		}
		return nil, err
	}
	return &a, nil
}

var _ AccommodationRepository = (*PGAccommodationRepository)(nil)
