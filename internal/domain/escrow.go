package domain

import (
	"errors"
	"time"
)

type EscrowStatus string

const (
	EscrowStatusInEscrow         EscrowStatus = "in_escrow"
	EscrowStatusPaymentRequested EscrowStatus = "payment_requested"
	EscrowStatusPaymentReleased  EscrowStatus = "payment_released"

	// Older clients report release as payment_confirmed.
	EscrowStatusPaymentConfirmed EscrowStatus = "payment_confirmed"
)

var (
	ErrEscrowNotFound     = errors.New("escrow record not found")
	ErrActiveEscrowExists = errors.New("booking already has an active escrow record")
)

type EscrowRecord struct {
	ID             string       `json:"id" db:"id"`
	BookingID      string       `json:"booking_id" db:"booking_id"`
	Status         EscrowStatus `json:"status" db:"status"`
	Amount         int64        `json:"amount" db:"amount"`
	TransactionRef string       `json:"transaction_ref" db:"transaction_ref"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at" db:"updated_at"`
}

// Canonical folds aliases onto the stored status names.
func (s EscrowStatus) Canonical() EscrowStatus {
	if s == EscrowStatusPaymentConfirmed {
		return EscrowStatusPaymentReleased
	}
	return s
}

func (s EscrowStatus) Active() bool {
	return s.Canonical() != EscrowStatusPaymentReleased
}

func CanTransitionEscrow(from, to EscrowStatus) bool {
	from, to = from.Canonical(), to.Canonical()
	switch from {
	case EscrowStatusInEscrow:
		return to == EscrowStatusPaymentRequested || to == EscrowStatusPaymentReleased
	case EscrowStatusPaymentRequested:
		return to == EscrowStatusPaymentReleased
	default:
		return false
	}
}
