package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// uniqueViolation is the postgres code raised by the one-active-record index.
const uniqueViolation = "23505"

type EscrowRepository interface {
	Create(ctx context.Context, rec *domain.EscrowRecord) error
	GetLatestByBooking(ctx context.Context, bookingID string) (*domain.EscrowRecord, error)
	TransitionStatus(ctx context.Context, id string, from, to domain.EscrowStatus) (*domain.EscrowRecord, error)
}

type SQLEscrowRepository struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

func NewEscrowRepository(db *sqlx.DB, logger *logrus.Logger) *SQLEscrowRepository {
	return &SQLEscrowRepository{db: db, logger: logger}
}

func (r *SQLEscrowRepository) Create(ctx context.Context, rec *domain.EscrowRecord) error {
	err := r.db.QueryRowxContext(ctx, `INSERT INTO escrow_records (id, booking_id, status, amount, transaction_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING created_at, updated_at`,
		rec.ID, rec.BookingID, rec.Status, rec.Amount, rec.TransactionRef).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrActiveEscrowExists
		}
		r.logger.WithError(err).WithField("booking_id", rec.BookingID).Error("Failed to create escrow record")
		return fmt.Errorf("failed to create escrow record: %w", err)
	}
	return nil
}

func (r *SQLEscrowRepository) GetLatestByBooking(ctx context.Context, bookingID string) (*domain.EscrowRecord, error) {
	var rec domain.EscrowRecord
	err := r.db.GetContext(ctx, &rec, `SELECT id, booking_id, status, amount, transaction_ref, created_at, updated_at
		FROM escrow_records WHERE booking_id=$1 ORDER BY created_at DESC LIMIT 1`, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEscrowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get escrow record: %w", err)
	}
	return &rec, nil
}

// TransitionStatus only applies when the record is still in from, so two
// concurrent transitions cannot both win.
func (r *SQLEscrowRepository) TransitionStatus(ctx context.Context, id string, from, to domain.EscrowStatus) (*domain.EscrowRecord, error) {
	var rec domain.EscrowRecord
	err := r.db.QueryRowxContext(ctx, `UPDATE escrow_records SET status=$1, updated_at=now()
		WHERE id=$2 AND status=$3
		RETURNING id, booking_id, status, amount, transaction_ref, created_at, updated_at`,
		to, id, from).StructScan(&rec)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrInvalidTransition
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update escrow record: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"escrow_id":  id,
		"booking_id": rec.BookingID,
		"from":       from,
		"to":         to,
	}).Info("Escrow status changed")
	return &rec, nil
}

var _ EscrowRepository = (*SQLEscrowRepository)(nil)
