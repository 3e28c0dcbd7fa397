package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/auth"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/service/escrow"
)

type EscrowHandler struct {
	service escrow.EscrowUseCase
}

func NewEscrowHandler(service escrow.EscrowUseCase) *EscrowHandler {
	return &EscrowHandler{service: service}
}

func (h *EscrowHandler) Register(router *gin.RouterGroup) {
	router.GET("/escrow/:bookingId", h.get)
	router.POST("/escrow/:bookingId/request", h.request)
	router.POST("/escrow/:bookingId/release", h.release)
}

func (h *EscrowHandler) get(c *gin.Context) {
	rec, err := h.service.Get(c.Request.Context(), auth.FromContext(c), c.Param("bookingId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *EscrowHandler) request(c *gin.Context) {
	rec, err := h.service.RequestPayment(c.Request.Context(), auth.FromContext(c), c.Param("bookingId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *EscrowHandler) release(c *gin.Context) {
	rec, err := h.service.ConfirmRelease(c.Request.Context(), auth.FromContext(c), c.Param("bookingId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
