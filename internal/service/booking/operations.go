package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/domain"
	"github.com/sirupsen/logrus"
)

// GetBooking looks in the primary store first and then in the local fallback.
func (s *BookingService) GetBooking(ctx context.Context, auth domain.AuthContext, id string) (*domain.Booking, error) {
	b, _, err := s.lookup(ctx, auth, id)
	return b, err
}

// lookup is GetBooking that also reports whether the booking only exists in
// the fallback store.
func (s *BookingService) lookup(ctx context.Context, auth domain.AuthContext, id string) (*domain.Booking, bool, error) {
	if !auth.Authenticated() {
		return nil, false, ErrUnauthenticated
	}

	local := false
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if s.fallback == nil {
			return nil, false, err
		}
		fb, ferr := s.fallback.GetFallbackBooking(ctx, id)
		if ferr != nil {
			return nil, false, err
		}
		b, local = fb, true
	}

	if !isParty(auth, b) {
		return nil, false, ErrForbidden
	}
	return b, local, nil
}

// ListGuestBookings merges the primary store with bookings still waiting in the
// local fallback. A primary outage degrades to the fallback list.
func (s *BookingService) ListGuestBookings(ctx context.Context, auth domain.AuthContext) ([]domain.Booking, error) {
	if !auth.Authenticated() {
		return nil, ErrUnauthenticated
	}
	email := domain.NormalizeEmail(auth.Email)

	primary, err := s.bookings.ListByGuest(ctx, email)
	if err != nil {
		if s.fallback == nil {
			return nil, err
		}
		s.logger.WithError(err).WithField("guest_email", email).Warn("Primary booking store unavailable, listing local bookings only")
		primary = nil
	}
	if s.fallback == nil {
		return primary, nil
	}

	local, ferr := s.fallback.ListFallbackBookings(ctx)
	if ferr != nil {
		if err != nil {
			return nil, fmt.Errorf("list bookings: %w", errors.Join(err, ferr))
		}
		s.logger.WithError(ferr).Warn("Failed to read local fallback bookings")
		return primary, nil
	}

	seen := make(map[string]struct{}, len(primary))
	for _, b := range primary {
		seen[b.ID] = struct{}{}
	}
	merged := append(make([]domain.Booking, 0, len(primary)+len(local)), primary...)
	for _, b := range local {
		if _, ok := seen[b.ID]; ok || domain.NormalizeEmail(b.GuestEmail) != email {
			continue
		}
		merged = append(merged, b)
	}
	return merged, nil
}

func (s *BookingService) ListHostBookings(ctx context.Context, auth domain.AuthContext) ([]domain.HostBooking, error) {
	if !auth.Authenticated() {
		return nil, ErrUnauthenticated
	}
	return s.bookings.ListByHost(ctx, domain.NormalizeEmail(auth.Email))
}

// CancelBooking lets either party cancel. Cancelling twice returns the
// cancelled booking unchanged.
func (s *BookingService) CancelBooking(ctx context.Context, auth domain.AuthContext, id string) (*domain.Booking, error) {
	current, local, err := s.lookup(ctx, auth, id)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusCancelled {
		return current, nil
	}
	return s.transition(ctx, current, local, domain.BookingStatusCancelled)
}

// ConfirmBooking is the host accepting a booking whose payment is still pending.
func (s *BookingService) ConfirmBooking(ctx context.Context, auth domain.AuthContext, id string) (*domain.Booking, error) {
	current, local, err := s.lookup(ctx, auth, id)
	if err != nil {
		return nil, err
	}
	if domain.NormalizeEmail(current.HostEmail) != domain.NormalizeEmail(auth.Email) {
		return nil, ErrForbidden
	}
	return s.transition(ctx, current, local, domain.BookingStatusConfirmed)
}

// transition moves current to status to. A booking that only exists in the
// fallback store is updated there and reaches the primary store on the next
// sync with its new status.
func (s *BookingService) transition(ctx context.Context, current *domain.Booking, local bool, to domain.BookingStatus) (*domain.Booking, error) {
	if !domain.CanTransition(current.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.Status, to)
	}

	var (
		updated *domain.Booking
		err     error
	)
	if local {
		updated, err = s.transitionLocal(ctx, current, to)
	} else {
		updated, err = s.bookings.UpdateStatus(ctx, current.ID, to)
	}
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"booking_id": updated.ID,
		"from":       current.Status,
		"to":         to,
		"fallback":   local,
	}).Info("Booking status changed")
	return updated, nil
}

func (s *BookingService) transitionLocal(ctx context.Context, current *domain.Booking, to domain.BookingStatus) (*domain.Booking, error) {
	updated := *current
	updated.Status = to
	updated.UpdatedAt = s.now()
	if err := s.fallback.SaveFallbackBooking(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update fallback booking %s: %w", current.ID, err)
	}
	return &updated, nil
}

// SyncFallbackBookings replays locally stored bookings into the primary store
// and removes them once written. It returns how many were moved.
func (s *BookingService) SyncFallbackBookings(ctx context.Context) (int, error) {
	if s.fallback == nil {
		return 0, nil
	}

	pending, err := s.fallback.ListFallbackBookings(ctx)
	if err != nil {
		return 0, fmt.Errorf("list fallback bookings: %w", err)
	}

	var (
		synced int
		errs   []error
	)
	for i := range pending {
		b := &pending[i]
		if err := s.bookings.Create(ctx, b); err != nil {
			errs = append(errs, fmt.Errorf("booking %s: %w", b.ID, err))
			continue
		}
		hb := hostProjection(b, "", s.fees.Payout(b.Amount))
		if err := s.bookings.CreateHostBooking(ctx, hb); err != nil {
			s.logger.WithError(err).WithField("booking_id", b.ID).Warn("Failed to store host booking during sync")
		}
		if err := s.fallback.RemoveFallbackBooking(ctx, b.ID); err != nil {
			errs = append(errs, fmt.Errorf("remove fallback booking %s: %w", b.ID, err))
			continue
		}
		synced++
	}

	if synced > 0 {
		s.logger.WithField("count", synced).Info("Synced fallback bookings")
	}
	return synced, errors.Join(errs...)
}

func isParty(auth domain.AuthContext, b *domain.Booking) bool {
	email := domain.NormalizeEmail(auth.Email)
	return email == domain.NormalizeEmail(b.GuestEmail) || email == domain.NormalizeEmail(b.HostEmail)
}
