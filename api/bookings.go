package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/auth"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/service/booking"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type confirmTransferRequest struct {
	ApartmentID   string `json:"apartment_id" binding:"required"`
	HostEmail     string `json:"host_email"`
	CheckIn       string `json:"check_in" binding:"required"`
	CheckOut      string `json:"check_out" binding:"required"`
	Guests        int    `json:"guests"`
	Amount        int64  `json:"amount"`
	PaymentMethod string `json:"payment_method"`
	TxRef         string `json:"tx_ref" binding:"required"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/bookings/confirm-transfer", h.confirmTransfer)
	router.GET("/bookings", h.list)
	router.GET("/bookings/:id", h.get)
	router.DELETE("/bookings/:id", h.cancel)
	router.PUT("/bookings/:id/confirm", h.confirm)
	router.GET("/host/bookings", h.listHost)
}

func (h *BookingHandler) confirmTransfer(c *gin.Context) {
	var req confirmTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	checkIn, err := parseDate(req.CheckIn)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkOut, err := parseDate(req.CheckOut)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.ConfirmTransfer(c.Request.Context(), auth.FromContext(c), booking.ConfirmTransferInput{
		ApartmentID:   req.ApartmentID,
		HostEmail:     req.HostEmail,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Guests:        req.Guests,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		TxRef:         req.TxRef,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *BookingHandler) list(c *gin.Context) {
	bookings, err := h.service.ListGuestBookings(c.Request.Context(), auth.FromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (h *BookingHandler) listHost(c *gin.Context) {
	bookings, err := h.service.ListHostBookings(c.Request.Context(), auth.FromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), auth.FromContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) confirm(c *gin.Context) {
	b, err := h.service.ConfirmBooking(c.Request.Context(), auth.FromContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	b, err := h.service.CancelBooking(c.Request.Context(), auth.FromContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}
