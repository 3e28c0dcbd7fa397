package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxConn is the part of *pgxpool.Pool the repositories use.
type PgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	CreateHostBooking(ctx context.Context, hb *domain.HostBooking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	ListByGuest(ctx context.Context, guestEmail string) ([]domain.Booking, error)
	ListByHost(ctx context.Context, hostEmail string) ([]domain.HostBooking, error)
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error)
	HasOverlap(ctx context.Context, apartmentID string, checkIn, checkOut time.Time) (bool, error)
}

type PGBookingRepository struct {
	db PgxConn
}

func NewBookingRepository(db PgxConn) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, apartment_id, guest_email, host_email, check_in, check_out, guests, amount, payment_method, status, payment_reference, created_at, updated_at`

// Create inserts the booking. Re-inserting an existing id is a no-op so a
// fallback replay cannot duplicate a booking.
func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	return r.db.QueryRow(ctx, `INSERT INTO bookings (id, apartment_id, guest_email, host_email, check_in, check_out, guests, amount, payment_method, status, payment_reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		RETURNING created_at, updated_at`,
		booking.ID, booking.ApartmentID, booking.GuestEmail, booking.HostEmail, booking.CheckIn, booking.CheckOut,
		booking.Guests, booking.Amount, booking.PaymentMethod, booking.Status, booking.PaymentReference, booking.CreatedAt).
		Scan(&booking.CreatedAt, &booking.UpdatedAt)
}

func (r *PGBookingRepository) CreateHostBooking(ctx context.Context, hb *domain.HostBooking) error {
	_, err := r.db.Exec(ctx, `INSERT INTO host_bookings (booking_id, host_email, guest_email, guest_name, apartment_id, check_in, check_out, guests, amount, host_payout, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (booking_id) DO UPDATE SET status = EXCLUDED.status, host_payout = EXCLUDED.host_payout`,
		hb.BookingID, hb.HostEmail, hb.GuestEmail, hb.GuestName, hb.ApartmentID, hb.CheckIn, hb.CheckOut,
		hb.Guests, hb.Amount, hb.HostPayout, hb.Status, hb.CreatedAt)
	return err
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	return b, err
}

func (r *PGBookingRepository) ListByGuest(ctx context.Context, guestEmail string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE lower(guest_email)=$1 ORDER BY created_at DESC`, domain.NormalizeEmail(guestEmail))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *PGBookingRepository) ListByHost(ctx context.Context, hostEmail string) ([]domain.HostBooking, error) {
	rows, err := r.db.Query(ctx, `SELECT booking_id, host_email, guest_email, guest_name, apartment_id, check_in, check_out, guests, amount, host_payout, status, created_at
		FROM host_bookings WHERE host_email=$1 ORDER BY created_at DESC`, domain.NormalizeEmail(hostEmail))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]domain.HostBooking, 0)
	for rows.Next() {
		var hb domain.HostBooking
		if err := rows.Scan(&hb.BookingID, &hb.HostEmail, &hb.GuestEmail, &hb.GuestName, &hb.ApartmentID, &hb.CheckIn, &hb.CheckOut,
			&hb.Guests, &hb.Amount, &hb.HostPayout, &hb.Status, &hb.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, hb)
	}
	return list, rows.Err()
}

// UpdateStatus moves the booking and its host projection to status together.
func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE id=$2 RETURNING `+bookingColumns, status, id)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `UPDATE host_bookings SET status=$1 WHERE booking_id=$2`, status, id); err != nil {
		return nil, err
	}
	return b, tx.Commit(ctx)
}

// HasOverlap reports whether a blocking booking of the apartment intersects
// the half-open range [checkIn, checkOut).
func (r *PGBookingRepository) HasOverlap(ctx context.Context, apartmentID string, checkIn, checkOut time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM bookings
		WHERE apartment_id=$1
		  AND status = ANY($2)
		  AND check_in < $4 AND check_out > $3)`,
		apartmentID, domain.BlockingStatuses(), checkIn, checkOut).
		Scan(&exists)
	return exists, err
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.ApartmentID, &b.GuestEmail, &b.HostEmail, &b.CheckIn, &b.CheckOut, &b.Guests, &b.Amount,
		&b.PaymentMethod, &b.Status, &b.PaymentReference, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
