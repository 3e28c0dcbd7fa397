package repository

import (
	"context"
	"errors"

	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/domain"
	"github.com/jackc/pgx/v5"
)

var ErrApartmentNotFound = errors.New("apartment not found")

type ApartmentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Apartment, error)
}

type PGApartmentRepository struct {
	db PgxConn
}

func NewApartmentRepository(db PgxConn) ApartmentRepository {
	return &PGApartmentRepository{db: db}
}

func (r *PGApartmentRepository) GetByID(ctx context.Context, id string) (*domain.Apartment, error) {
	row := r.db.QueryRow(ctx, `SELECT id, title, host_email, host_name, price_per_night FROM apartments WHERE id=$1`, id)
	var a domain.Apartment
	if err := row.Scan(&a.ID, &a.Title, &a.HostEmail, &a.HostName, &a.PricePerNight); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrApartmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

var _ ApartmentRepository = (*PGApartmentRepository)(nil)
