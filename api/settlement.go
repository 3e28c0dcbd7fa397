package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/service/settlement"
)

// SettlementHandler quotes the host payout for a gross amount.
type SettlementHandler struct {
	fees settlement.FeePolicy
}

func NewSettlementHandler(fees settlement.FeePolicy) *SettlementHandler {
	return &SettlementHandler{fees: fees}
}

func (h *SettlementHandler) Register(router *gin.RouterGroup) {
	router.GET("/settlement/quote", h.quote)
}

func (h *SettlementHandler) quote(c *gin.Context) {
	amount, err := strconv.ParseInt(c.Query("amount"), 10, 64)
	if err != nil || amount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a non-negative integer"})
		return
	}
	c.JSON(http.StatusOK, h.fees.Breakdown(amount))
}
