package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/domain"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var escrowColumns = []string{"id", "booking_id", "status", "amount", "transaction_ref", "created_at", "updated_at"}

func TestEscrowRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEscrowRepository(db, discardLogger())
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		rec := &domain.EscrowRecord{ID: "esc-1", BookingID: "bk-1", Status: domain.EscrowStatusInEscrow, Amount: 60000, TransactionRef: "TX-1"}
		mock.ExpectQuery(`INSERT INTO escrow_records`).
			WithArgs("esc-1", "bk-1", domain.EscrowStatusInEscrow, int64(60000), "TX-1").
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		require.NoError(t, repo.Create(context.Background(), rec))
		assert.Equal(t, now, rec.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Active Record Exists", func(t *testing.T) {
		rec := &domain.EscrowRecord{ID: "esc-2", BookingID: "bk-1", Status: domain.EscrowStatusInEscrow}
		mock.ExpectQuery(`INSERT INTO escrow_records`).
			WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

		err := repo.Create(context.Background(), rec)
		assert.ErrorIs(t, err, domain.ErrActiveEscrowExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEscrowRepository_GetLatestByBooking(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEscrowRepository(db, discardLogger())
	now := time.Now()

	mock.ExpectQuery(`SELECT id, booking_id, status, amount, transaction_ref, created_at, updated_at`).
		WithArgs("bk-1").
		WillReturnRows(sqlmock.NewRows(escrowColumns).AddRow("esc-1", "bk-1", "payment_requested", int64(60000), "TX-1", now, now))

	rec, err := repo.GetLatestByBooking(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domain.EscrowStatusPaymentRequested, rec.Status)

	mock.ExpectQuery(`SELECT id, booking_id, status`).
		WithArgs("bk-missing").
		WillReturnRows(sqlmock.NewRows(escrowColumns))

	_, err = repo.GetLatestByBooking(context.Background(), "bk-missing")
	assert.ErrorIs(t, err, domain.ErrEscrowNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscrowRepository_TransitionStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEscrowRepository(db, discardLogger())
	now := time.Now()

	mock.ExpectQuery(`UPDATE escrow_records SET status`).
		WithArgs(domain.EscrowStatusPaymentReleased, "esc-1", domain.EscrowStatusPaymentRequested).
		WillReturnRows(sqlmock.NewRows(escrowColumns).AddRow("esc-1", "bk-1", "payment_released", int64(60000), "TX-1", now, now))

	rec, err := repo.TransitionStatus(context.Background(), "esc-1", domain.EscrowStatusPaymentRequested, domain.EscrowStatusPaymentReleased)
	require.NoError(t, err)
	assert.Equal(t, domain.EscrowStatusPaymentReleased, rec.Status)

	mock.ExpectQuery(`UPDATE escrow_records SET status`).
		WithArgs(domain.EscrowStatusPaymentReleased, "esc-1", domain.EscrowStatusPaymentRequested).
		WillReturnRows(sqlmock.NewRows(escrowColumns))

	_, err = repo.TransitionStatus(context.Background(), "esc-1", domain.EscrowStatusPaymentRequested, domain.EscrowStatusPaymentReleased)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}
