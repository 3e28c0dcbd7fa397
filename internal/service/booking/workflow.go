package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/domain"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/notification"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/service/settlement"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/service/verification"
	"github.com/sirupsen/logrus"
)

const (
	MessageVerified   = "Payment verified and wallet funded"
	MessageProcessing = "Transfer is being processed, wallet will be funded automatically"
)

type ConfirmTransferInput struct {
	ApartmentID   string    `json:"apartment_id"`
	HostEmail     string    `json:"host_email"`
	CheckIn       time.Time `json:"check_in"`
	CheckOut      time.Time `json:"check_out"`
	Guests        int       `json:"guests"`
	Amount        int64     `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	TxRef         string    `json:"tx_ref"`
}

// Warning is a side effect that failed without undoing the booking.
type Warning struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

type ConfirmationResult struct {
	Booking           *domain.Booking      `json:"booking"`
	Verification      verification.Result  `json:"verification"`
	Settlement        settlement.Breakdown `json:"settlement"`
	HostWalletBalance *int64               `json:"host_wallet_balance,omitempty"`
	UsedFallback      bool                 `json:"used_fallback"`
	Message           string               `json:"message"`
	Warnings          []Warning            `json:"warnings,omitempty"`
}

func (r *ConfirmationResult) warn(step string, err error) {
	r.Warnings = append(r.Warnings, Warning{Step: step, Message: err.Error()})
}

// ConfirmTransfer runs the "I've completed the transfer" action: conflict
// check, payment verification, booking persistence, host projection,
// confirmation emails, host payout and host notifications, in that order.
//
// Only a date conflict (or, when configured, an availability lookup error),
// invalid input, and losing the booking write in both stores abort the call.
// Every later step is best effort and reported in Warnings. The call is
// detached from ctx cancellation: once started, the poll budget is the only
// bound and the booking write still happens.
func (s *BookingService) ConfirmTransfer(ctx context.Context, auth domain.AuthContext, input ConfirmTransferInput) (*ConfirmationResult, error) {
	ctx = context.WithoutCancel(ctx)
	if !auth.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(input.TxRef) == "" {
		return nil, fmt.Errorf("%w: transaction reference is required", ErrInvalidInput)
	}

	apartment, hostEmail, err := s.resolveHost(ctx, input)
	if err != nil {
		return nil, err
	}

	now := s.now()
	booking := &domain.Booking{
		ID:               uuid.NewString(),
		ApartmentID:      input.ApartmentID,
		GuestEmail:       domain.NormalizeEmail(auth.Email),
		HostEmail:        hostEmail,
		CheckIn:          input.CheckIn,
		CheckOut:         input.CheckOut,
		Guests:           input.Guests,
		Amount:           input.Amount,
		PaymentMethod:    input.PaymentMethod,
		Status:           domain.BookingStatusPending,
		PaymentReference: strings.TrimSpace(input.TxRef),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := booking.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	log := s.logger.WithFields(logrus.Fields{
		"booking_id":   booking.ID,
		"apartment_id": booking.ApartmentID,
		"tx_ref":       booking.PaymentReference,
	})

	conflict, err := s.guard.HasConflict(ctx, booking.ApartmentID, hostEmail, booking.CheckIn, booking.CheckOut)
	if err != nil {
		return nil, err
	}
	if conflict {
		log.Info("Booking rejected, dates overlap an existing booking")
		return nil, ErrDateConflict
	}

	verified := s.verifier.Verify(ctx, verification.Request{
		TxRef:      booking.PaymentReference,
		GuestEmail: booking.GuestEmail,
		Amount:     booking.Amount,
		Method:     booking.PaymentMethod,
	})
	if verified.Verified() {
		booking.Status = domain.BookingStatusConfirmed
	}

	result := &ConfirmationResult{
		Booking:      booking,
		Verification: verified,
		Settlement:   s.fees.Breakdown(booking.Amount),
		Message:      MessageProcessing,
	}
	if verified.Verified() {
		result.Message = MessageVerified
	}

	if err := s.persist(ctx, booking, result); err != nil {
		log.WithError(err).Error("Booking could not be stored")
		return nil, err
	}

	s.projectForHost(ctx, booking, auth.Name, result)
	s.openEscrow(ctx, booking, result)

	receipt := notification.Receipt{
		BookingID:     booking.ID,
		TxRef:         booking.PaymentReference,
		GuestName:     auth.Name,
		GuestEmail:    booking.GuestEmail,
		HostEmail:     hostEmail,
		CheckIn:       booking.CheckIn,
		CheckOut:      booking.CheckOut,
		Guests:        booking.Guests,
		Amount:        booking.Amount,
		CleaningFee:   result.Settlement.CleaningFee,
		ServiceFee:    result.Settlement.ServiceFee,
		HostPayout:    result.Settlement.HostPayout,
		WalletBalance: verified.Balance,
	}
	receipt.ApartmentTitle = apartment.Title

	if verified.Verified() {
		s.sendEmails(ctx, receipt, result)
	}

	credited := s.creditHost(ctx, booking, auth.Name, result)

	notice := notification.BookingNotice{
		BookingID:      booking.ID,
		ApartmentID:    booking.ApartmentID,
		ApartmentTitle: receipt.ApartmentTitle,
		HostEmail:      hostEmail,
		GuestName:      auth.Name,
		GuestEmail:     booking.GuestEmail,
		CheckIn:        booking.CheckIn,
		CheckOut:       booking.CheckOut,
		Guests:         booking.Guests,
		Amount:         booking.Amount,
		Verified:       verified.Verified(),
	}
	if err := s.notifier.NotifyHostNewBooking(ctx, notice); err != nil {
		log.WithError(err).Warn("Failed to notify host about new booking")
		result.warn("notify_host_booking", err)
	}
	if credited {
		if err := s.notifier.NotifyHostWalletFunded(ctx, notification.WalletNotice{
			BookingID: booking.ID,
			HostEmail: hostEmail,
			Amount:    result.Settlement.HostPayout,
			Balance:   *result.HostWalletBalance,
			GuestName: auth.Name,
		}); err != nil {
			log.WithError(err).Warn("Failed to notify host about wallet credit")
			result.warn("notify_host_wallet", err)
		}
	}

	log.WithFields(logrus.Fields{
		"status":   booking.Status,
		"outcome":  verified.Outcome,
		"attempts": verified.Attempts,
		"warnings": len(result.Warnings),
		"fallback": result.UsedFallback,
	}).Info("Transfer confirmation completed")
	return result, nil
}

// resolveHost loads the apartment and returns its normalized host email. A
// host email in the request is only accepted when it names the same host.
func (s *BookingService) resolveHost(ctx context.Context, input ConfirmTransferInput) (*domain.Apartment, string, error) {
	if s.apartments == nil || input.ApartmentID == "" {
		return nil, "", ErrHostUnresolved
	}
	apartment, err := s.apartments.GetByID(ctx, input.ApartmentID)
	if err != nil {
		s.logger.WithError(err).WithField("apartment_id", input.ApartmentID).Warn("Apartment lookup failed")
		return nil, "", fmt.Errorf("%w: %v", ErrHostUnresolved, err)
	}

	host := domain.NormalizeEmail(apartment.HostEmail)
	if host == "" {
		return nil, "", ErrHostUnresolved
	}
	if claimed := domain.NormalizeEmail(input.HostEmail); claimed != "" && claimed != host {
		return nil, "", fmt.Errorf("%w: host email does not match apartment %s", ErrInvalidInput, input.ApartmentID)
	}
	return apartment, host, nil
}

func (s *BookingService) persist(ctx context.Context, booking *domain.Booking, result *ConfirmationResult) error {
	err := s.bookings.Create(ctx, booking)
	if err == nil {
		return nil
	}

	s.logger.WithError(err).WithField("booking_id", booking.ID).Warn("Primary booking store failed, saving locally")
	result.warn("booking_store", err)
	if s.fallback == nil {
		return fmt.Errorf("store booking: %w", err)
	}
	if ferr := s.fallback.SaveFallbackBooking(ctx, booking); ferr != nil {
		return fmt.Errorf("store booking: %w", errors.Join(err, ferr))
	}
	result.UsedFallback = true
	return nil
}

func (s *BookingService) projectForHost(ctx context.Context, booking *domain.Booking, guestName string, result *ConfirmationResult) {
	hb := hostProjection(booking, guestName, result.Settlement.HostPayout)
	if err := s.bookings.CreateHostBooking(ctx, hb); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"host_email": hb.HostEmail,
		}).Warn("Failed to store host booking")
		result.warn("host_booking", err)
	}
}

func (s *BookingService) openEscrow(ctx context.Context, booking *domain.Booking, result *ConfirmationResult) {
	if s.escrow == nil {
		return
	}
	if _, err := s.escrow.Open(ctx, booking.ID, booking.Amount, booking.PaymentReference); err != nil {
		s.logger.WithError(err).WithField("booking_id", booking.ID).Warn("Failed to open escrow record")
		result.warn("escrow", err)
	}
}

func (s *BookingService) sendEmails(ctx context.Context, receipt notification.Receipt, result *ConfirmationResult) {
	if err := s.emails.SendGuestConfirmationEmail(ctx, receipt); err != nil {
		s.logger.WithError(err).WithField("booking_id", receipt.BookingID).Warn("Failed to send guest confirmation email")
		result.warn("guest_email", err)
	}
	if err := s.emails.SendHostNotificationEmail(ctx, receipt); err != nil {
		s.logger.WithError(err).WithField("booking_id", receipt.BookingID).Warn("Failed to send host notification email")
		result.warn("host_email", err)
	}
}

func (s *BookingService) creditHost(ctx context.Context, booking *domain.Booking, guestName string, result *ConfirmationResult) bool {
	payout := result.Settlement.HostPayout
	if payout <= 0 {
		return false
	}

	memo := fmt.Sprintf("Booking %s payout", booking.ID)
	balance, err := s.wallets.Fund(ctx, booking.HostEmail, payout, memo, guestName, booking.GuestEmail)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"host_email": booking.HostEmail,
			"amount":     payout,
		}).Warn("Failed to credit host wallet")
		result.warn("host_wallet", err)
		return false
	}
	result.HostWalletBalance = &balance
	return true
}

func hostProjection(booking *domain.Booking, guestName string, payout int64) *domain.HostBooking {
	return &domain.HostBooking{
		BookingID:   booking.ID,
		HostEmail:   domain.NormalizeEmail(booking.HostEmail),
		GuestEmail:  booking.GuestEmail,
		GuestName:   guestName,
		ApartmentID: booking.ApartmentID,
		CheckIn:     booking.CheckIn,
		CheckOut:    booking.CheckOut,
		Guests:      booking.Guests,
		Amount:      booking.Amount,
		HostPayout:  payout,
		Status:      booking.Status,
		CreatedAt:   booking.CreatedAt,
	}
}
