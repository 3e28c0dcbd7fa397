package booking

import (
	"context"
	"errors"
	"time"

	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/domain"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/notification"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/repository"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/service/settlement"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/service/verification"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnauthenticated     = errors.New("authenticated user email is required")
	ErrInvalidInput        = errors.New("invalid booking request")
	ErrDateConflict        = errors.New("apartment is unavailable for the selected dates, choose another date")
	ErrAvailabilityUnknown = errors.New("could not check apartment availability")
	ErrForbidden           = errors.New("booking belongs to another user")
	ErrHostUnresolved      = errors.New("could not resolve apartment host")
)

type BookingUseCase interface {
	ConfirmTransfer(ctx context.Context, auth domain.AuthContext, input ConfirmTransferInput) (*ConfirmationResult, error)
	GetBooking(ctx context.Context, auth domain.AuthContext, id string) (*domain.Booking, error)
	ListGuestBookings(ctx context.Context, auth domain.AuthContext) ([]domain.Booking, error)
	ListHostBookings(ctx context.Context, auth domain.AuthContext) ([]domain.HostBooking, error)
	CancelBooking(ctx context.Context, auth domain.AuthContext, id string) (*domain.Booking, error)
	ConfirmBooking(ctx context.Context, auth domain.AuthContext, id string) (*domain.Booking, error)
	SyncFallbackBookings(ctx context.Context) (int, error)
}

// FallbackStore keeps bookings locally when the primary store is unreachable.
type FallbackStore interface {
	SaveFallbackBooking(ctx context.Context, booking *domain.Booking) error
	GetFallbackBooking(ctx context.Context, id string) (*domain.Booking, error)
	ListFallbackBookings(ctx context.Context) ([]domain.Booking, error)
	RemoveFallbackBooking(ctx context.Context, id string) error
}

type ApartmentLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Apartment, error)
}

type PaymentVerifier interface {
	Verify(ctx context.Context, req verification.Request) verification.Result
}

type WalletFunder interface {
	Fund(ctx context.Context, email string, amount int64, memo, senderName, senderEmail string) (int64, error)
}

type EscrowOpener interface {
	Open(ctx context.Context, bookingID string, amount int64, txRef string) (*domain.EscrowRecord, error)
}

type Notifier interface {
	NotifyHostNewBooking(ctx context.Context, notice notification.BookingNotice) error
	NotifyHostWalletFunded(ctx context.Context, notice notification.WalletNotice) error
}

type EmailSender interface {
	SendGuestConfirmationEmail(ctx context.Context, r notification.Receipt) error
	SendHostNotificationEmail(ctx context.Context, r notification.Receipt) error
}

type BookingService struct {
	bookings   repository.BookingRepository
	fallback   FallbackStore
	apartments ApartmentLookup
	guard      *ConflictGuard
	verifier   PaymentVerifier
	wallets    WalletFunder
	escrow     EscrowOpener
	notifier   Notifier
	emails     EmailSender
	fees       settlement.FeePolicy
	logger     *logrus.Logger
	now        func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithEscrow(escrow EscrowOpener) BookingServiceOption {
	return func(s *BookingService) {
		s.escrow = escrow
	}
}

// WithConflictFailClosed makes an availability lookup error block the booking
// instead of letting it through.
func WithConflictFailClosed(failClosed bool) BookingServiceOption {
	return func(s *BookingService) {
		s.guard.failClosed = failClosed
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	fallback FallbackStore,
	apartments ApartmentLookup,
	verifier PaymentVerifier,
	wallets WalletFunder,
	notifier Notifier,
	emails EmailSender,
	fees settlement.FeePolicy,
	logger *logrus.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:   bookings,
		fallback:   fallback,
		apartments: apartments,
		guard:      NewConflictGuard(bookings, logger),
		verifier:   verifier,
		wallets:    wallets,
		notifier:   notifier,
		emails:     emails,
		fees:       fees,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

var _ BookingUseCase = (*BookingService)(nil)
