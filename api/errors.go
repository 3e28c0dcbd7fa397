package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/domain"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/service/booking"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/service/escrow"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, booking.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, booking.ErrForbidden), errors.Is(err, escrow.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrBookingNotFound), errors.Is(err, domain.ErrEscrowNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrDateConflict),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrActiveEscrowExists):
		return http.StatusConflict
	case errors.Is(err, booking.ErrHostUnresolved):
		return http.StatusUnprocessableEntity
	case errors.Is(err, booking.ErrAvailabilityUnknown):
		return http.StatusServiceUnavailable
	case errors.Is(err, booking.ErrInvalidInput),
		errors.Is(err, domain.ErrMissingGuest),
		errors.Is(err, domain.ErrMissingApartmentID),
		errors.Is(err, domain.ErrNegativeAmount),
		errors.Is(err, domain.ErrInvalidDateRange),
		errors.Is(err, domain.ErrInvalidGuestCount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal server error"
	}
	c.JSON(code, gin.H{"error": msg})
}
