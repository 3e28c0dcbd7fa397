package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/auth"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/domain"
)

type WalletReader interface {
	Balance(ctx context.Context, email string) (int64, error)
	Transactions(ctx context.Context, email string) ([]domain.WalletTransaction, error)
}

type WalletHandler struct {
	wallets WalletReader
}

func NewWalletHandler(wallets WalletReader) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

func (h *WalletHandler) Register(router *gin.RouterGroup) {
	router.GET("/wallet", h.balance)
	router.GET("/wallet/transactions", h.transactions)
}

func (h *WalletHandler) balance(c *gin.Context) {
	caller := auth.FromContext(c)
	email := domain.NormalizeEmail(caller.Email)
	balance, err := h.wallets.Balance(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.Wallet{Email: email, Balance: balance})
}

func (h *WalletHandler) transactions(c *gin.Context) {
	caller := auth.FromContext(c)
	txs, err := h.wallets.Transactions(c.Request.Context(), domain.NormalizeEmail(caller.Email))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}
