package escrow

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/domain"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/repository"
	"github.com/sirupsen/logrus"
)

var (
	ErrForbidden = errors.New("escrow record belongs to another user")
)

type EscrowUseCase interface {
	Open(ctx context.Context, bookingID string, amount int64, txRef string) (*domain.EscrowRecord, error)
	Get(ctx context.Context, auth domain.AuthContext, bookingID string) (*domain.EscrowRecord, error)
	RequestPayment(ctx context.Context, auth domain.AuthContext, bookingID string) (*domain.EscrowRecord, error)
	ConfirmRelease(ctx context.Context, auth domain.AuthContext, bookingID string) (*domain.EscrowRecord, error)
}

type BookingReader interface {
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
}

// EscrowService tracks the guest payment for a booking until the guest
// releases it to the host.
type EscrowService struct {
	repo     repository.EscrowRepository
	bookings BookingReader
	logger   *logrus.Logger
}

func NewEscrowService(repo repository.EscrowRepository, bookings BookingReader, logger *logrus.Logger) *EscrowService {
	return &EscrowService{repo: repo, bookings: bookings, logger: logger}
}

// Open places a new payment in escrow. A booking holds at most one active record.
func (s *EscrowService) Open(ctx context.Context, bookingID string, amount int64, txRef string) (*domain.EscrowRecord, error) {
	if amount < 0 {
		return nil, domain.ErrNegativeAmount
	}
	latest, err := s.repo.GetLatestByBooking(ctx, bookingID)
	switch {
	case err == nil && latest.Status.Active():
		return nil, domain.ErrActiveEscrowExists
	case err != nil && !errors.Is(err, domain.ErrEscrowNotFound):
		return nil, fmt.Errorf("load escrow for booking %s: %w", bookingID, err)
	}

	rec := &domain.EscrowRecord{
		ID:             uuid.NewString(),
		BookingID:      bookingID,
		Status:         domain.EscrowStatusInEscrow,
		Amount:         amount,
		TransactionRef: txRef,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"escrow_id":  rec.ID,
		"booking_id": bookingID,
		"amount":     amount,
	}).Info("Escrow opened")
	return rec, nil
}

func (s *EscrowService) Get(ctx context.Context, auth domain.AuthContext, bookingID string) (*domain.EscrowRecord, error) {
	b, err := s.authorize(ctx, auth, bookingID)
	if err != nil {
		return nil, err
	}
	email := domain.NormalizeEmail(auth.Email)
	if email != domain.NormalizeEmail(b.GuestEmail) && email != domain.NormalizeEmail(b.HostEmail) {
		return nil, ErrForbidden
	}
	return s.repo.GetLatestByBooking(ctx, bookingID)
}

// RequestPayment is the host asking the guest to release the escrowed amount.
func (s *EscrowService) RequestPayment(ctx context.Context, auth domain.AuthContext, bookingID string) (*domain.EscrowRecord, error) {
	b, err := s.authorize(ctx, auth, bookingID)
	if err != nil {
		return nil, err
	}
	if domain.NormalizeEmail(auth.Email) != domain.NormalizeEmail(b.HostEmail) {
		return nil, ErrForbidden
	}
	return s.advance(ctx, bookingID, domain.EscrowStatusPaymentRequested)
}

// ConfirmRelease is the guest releasing the escrowed amount to the host.
func (s *EscrowService) ConfirmRelease(ctx context.Context, auth domain.AuthContext, bookingID string) (*domain.EscrowRecord, error) {
	b, err := s.authorize(ctx, auth, bookingID)
	if err != nil {
		return nil, err
	}
	if domain.NormalizeEmail(auth.Email) != domain.NormalizeEmail(b.GuestEmail) {
		return nil, ErrForbidden
	}
	return s.advance(ctx, bookingID, domain.EscrowStatusPaymentReleased)
}

func (s *EscrowService) authorize(ctx context.Context, auth domain.AuthContext, bookingID string) (*domain.Booking, error) {
	if !auth.Authenticated() {
		return nil, ErrForbidden
	}
	return s.bookings.GetByID(ctx, bookingID)
}

func (s *EscrowService) advance(ctx context.Context, bookingID string, to domain.EscrowStatus) (*domain.EscrowRecord, error) {
	rec, err := s.repo.GetLatestByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransitionEscrow(rec.Status, to) {
		return nil, fmt.Errorf("%w: escrow %s -> %s", domain.ErrInvalidTransition, rec.Status.Canonical(), to)
	}
	return s.repo.TransitionStatus(ctx, rec.ID, rec.Status, to)
}

var _ EscrowUseCase = (*EscrowService)(nil)
