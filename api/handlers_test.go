package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/domain"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/kafka"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/service/escrow"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/service/settlement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockWalletReader struct {
	mock.Mock
}

func (m *MockWalletReader) Balance(ctx context.Context, email string) (int64, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWalletReader) Transactions(ctx context.Context, email string) ([]domain.WalletTransaction, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WalletTransaction), args.Error(1)
}

type MockEscrowUseCase struct {
	mock.Mock
}

func (m *MockEscrowUseCase) Open(ctx context.Context, bookingID string, amount int64, txRef string) (*domain.EscrowRecord, error) {
	args := m.Called(ctx, bookingID, amount, txRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EscrowRecord), args.Error(1)
}

func (m *MockEscrowUseCase) Get(ctx context.Context, a domain.AuthContext, bookingID string) (*domain.EscrowRecord, error) {
	args := m.Called(ctx, a, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EscrowRecord), args.Error(1)
}

func (m *MockEscrowUseCase) RequestPayment(ctx context.Context, a domain.AuthContext, bookingID string) (*domain.EscrowRecord, error) {
	args := m.Called(ctx, a, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EscrowRecord), args.Error(1)
}

func (m *MockEscrowUseCase) ConfirmRelease(ctx context.Context, a domain.AuthContext, bookingID string) (*domain.EscrowRecord, error) {
	args := m.Called(ctx, a, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EscrowRecord), args.Error(1)
}

type MockInbox struct {
	mock.Mock
}

func (m *MockInbox) ListNotifications(ctx context.Context, recipient string, limit int64) ([]kafka.NotificationEvent, error) {
	args := m.Called(ctx, recipient, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]kafka.NotificationEvent), args.Error(1)
}

func TestWalletHandler_balance(t *testing.T) {
	wallets := &MockWalletReader{}
	handler := NewWalletHandler(wallets)

	c, w := newTestContext("GET", "/api/v1/wallet", nil)
	wallets.On("Balance", c.Request.Context(), "guest@example.com").Return(int64(52500), nil)

	handler.balance(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response domain.Wallet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, int64(52500), response.Balance)
	assert.Equal(t, "guest@example.com", response.Email)
}

func TestWalletHandler_transactions(t *testing.T) {
	wallets := &MockWalletReader{}
	handler := NewWalletHandler(wallets)

	c, w := newTestContext("GET", "/api/v1/wallet/transactions", nil)
	wallets.On("Transactions", c.Request.Context(), "guest@example.com").
		Return([]domain.WalletTransaction{{ID: "t-1", Amount: 52500, Memo: "Booking b-1 payout"}}, nil)

	handler.transactions(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Booking b-1 payout")
}

func TestWalletHandler_storeError(t *testing.T) {
	wallets := &MockWalletReader{}
	handler := NewWalletHandler(wallets)

	c, w := newTestContext("GET", "/api/v1/wallet", nil)
	wallets.On("Balance", c.Request.Context(), "guest@example.com").Return(int64(0), errors.New("db down"))

	handler.balance(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestEscrowHandler(t *testing.T) {
	testCases := []struct {
		name   string
		method string
		call   func(h *EscrowHandler, c *gin.Context)
		err    error
		code   int
	}{
		{"get", "Get", func(h *EscrowHandler, c *gin.Context) { h.get(c) }, nil, http.StatusOK},
		{"get missing", "Get", func(h *EscrowHandler, c *gin.Context) { h.get(c) }, domain.ErrEscrowNotFound, http.StatusNotFound},
		{"request", "RequestPayment", func(h *EscrowHandler, c *gin.Context) { h.request(c) }, nil, http.StatusOK},
		{"request forbidden", "RequestPayment", func(h *EscrowHandler, c *gin.Context) { h.request(c) }, escrow.ErrForbidden, http.StatusForbidden},
		{"release", "ConfirmRelease", func(h *EscrowHandler, c *gin.Context) { h.release(c) }, nil, http.StatusOK},
		{"release twice", "ConfirmRelease", func(h *EscrowHandler, c *gin.Context) { h.release(c) }, domain.ErrInvalidTransition, http.StatusConflict},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			service := &MockEscrowUseCase{}
			handler := NewEscrowHandler(service)

			c, w := newTestContext("POST", "/api/v1/escrow/b-1", nil)
			c.Params = gin.Params{{Key: "bookingId", Value: "b-1"}}
			if tc.err != nil {
				service.On(tc.method, c.Request.Context(), caller, "b-1").Return(nil, tc.err)
			} else {
				service.On(tc.method, c.Request.Context(), caller, "b-1").
					Return(&domain.EscrowRecord{ID: "e-1", BookingID: "b-1", Status: domain.EscrowStatusInEscrow}, nil)
			}

			tc.call(handler, c)

			assert.Equal(t, tc.code, w.Code)
			service.AssertExpectations(t)
		})
	}
}

func TestSettlementHandler_quote(t *testing.T) {
	handler := NewSettlementHandler(settlement.FeePolicy{CleaningFee: 5000, ServiceFee: 2500})

	c, w := newTestContext("GET", "/api/v1/settlement/quote?amount=60000", nil)
	handler.quote(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response settlement.Breakdown
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, settlement.Breakdown{Gross: 60000, CleaningFee: 5000, ServiceFee: 2500, HostPayout: 52500}, response)

	for _, q := range []string{"", "abc", "-1"} {
		c, w = newTestContext("GET", "/api/v1/settlement/quote?amount="+q, nil)
		handler.quote(c)
		assert.Equal(t, http.StatusBadRequest, w.Code, "amount=%q", q)
	}
}

func TestNotificationHandler_list(t *testing.T) {
	inbox := &MockInbox{}
	handler := NewNotificationHandler(inbox)

	c, w := newTestContext("GET", "/api/v1/notifications?limit=10", nil)
	inbox.On("ListNotifications", c.Request.Context(), "guest@example.com", int64(10)).
		Return([]kafka.NotificationEvent{{Type: kafka.EventHostNewBooking, Title: "New booking"}}, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "New booking")
	inbox.AssertExpectations(t)
}
