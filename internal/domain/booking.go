package domain

import (
	"errors"
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "Pending"
	BookingStatusConfirmed BookingStatus = "Confirmed"
	BookingStatusCancelled BookingStatus = "Cancelled"
)

var (
	ErrBookingNotFound    = errors.New("booking not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrMissingGuest       = errors.New("guest email is required")
	ErrNegativeAmount     = errors.New("amount must not be negative")
	ErrInvalidDateRange   = errors.New("check-out must be after check-in")
	ErrInvalidGuestCount  = errors.New("guest count must be positive")
	ErrMissingApartmentID = errors.New("apartment id is required")
)

type Booking struct {
	ID               string        `json:"id"`
	ApartmentID      string        `json:"apartment_id"`
	GuestEmail       string        `json:"guest_email"`
	HostEmail        string        `json:"host_email"`
	CheckIn          time.Time     `json:"check_in"`
	CheckOut         time.Time     `json:"check_out"`
	Guests           int           `json:"guests"`
	Amount           int64         `json:"amount"`
	PaymentMethod    string        `json:"payment_method"`
	Status           BookingStatus `json:"status"`
	PaymentReference string        `json:"payment_reference,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// HostBooking is the host-side projection of a booking.
type HostBooking struct {
	BookingID   string        `json:"booking_id"`
	HostEmail   string        `json:"host_email"`
	GuestEmail  string        `json:"guest_email"`
	GuestName   string        `json:"guest_name"`
	ApartmentID string        `json:"apartment_id"`
	CheckIn     time.Time     `json:"check_in"`
	CheckOut    time.Time     `json:"check_out"`
	Guests      int           `json:"guests"`
	Amount      int64         `json:"amount"`
	HostPayout  int64         `json:"host_payout"`
	Status      BookingStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (b *Booking) Validate() error {
	if strings.TrimSpace(b.GuestEmail) == "" {
		return ErrMissingGuest
	}
	if strings.TrimSpace(b.ApartmentID) == "" {
		return ErrMissingApartmentID
	}
	if b.Amount < 0 {
		return ErrNegativeAmount
	}
	if !b.CheckOut.After(b.CheckIn) {
		return ErrInvalidDateRange
	}
	if b.Guests < 1 {
		return ErrInvalidGuestCount
	}
	return nil
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to BookingStatus) bool {
	switch from {
	case BookingStatusPending:
		return to == BookingStatusConfirmed || to == BookingStatusCancelled
	case BookingStatusConfirmed:
		return to == BookingStatusCancelled
	default:
		return false
	}
}

// BlockingStatuses are the statuses whose bookings occupy their dates.
func BlockingStatuses() []string {
	return []string{string(BookingStatusPending), string(BookingStatusConfirmed)}
}

// NormalizeEmail is the canonical key for host projections and wallets.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
