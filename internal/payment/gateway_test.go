package payment

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackjohndoe/booking-backend-spring-sub001/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewClient(config.PaymentConfig{BaseURL: srv.URL + "/", SecretKey: "sk_test", TimeoutSeconds: 5}, logger)
}

func TestClient_VerifyAndFundWallet_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wallet/verify-and-fund", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

		var req VerifyAndFundRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "TX-1", req.TxRef)
		assert.Equal(t, int64(50000), req.Amount)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"verified":true,"funded":true,"balance":75000}`))
	})

	res, err := client.VerifyAndFundWallet(context.Background(), VerifyAndFundRequest{
		TxRef: "TX-1", Email: "guest@example.com", Amount: 50000, Method: "bank_transfer",
	})
	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.True(t, res.Funded)
	require.NotNil(t, res.Balance)
	assert.Equal(t, int64(75000), *res.Balance)
}

func TestClient_VerifyAndFundWallet_Transient(t *testing.T) {
	testCases := []struct {
		name string
		code int
		body string
	}{
		{"not found", http.StatusNotFound, `{"message":"reference not found"}`},
		{"accepted", http.StatusAccepted, `{"status":"processing"}`},
		{"pending body", http.StatusOK, `{"status":"pending","verified":false}`},
		{"conflict", http.StatusConflict, `still processing`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.code)
				_, _ = w.Write([]byte(tc.body))
			})

			res, err := client.VerifyAndFundWallet(context.Background(), VerifyAndFundRequest{TxRef: "TX-2"})
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrPaymentPending)
		})
	}
}

func TestClient_VerifyAndFundWallet_Terminal(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"amount mismatch"}`))
	})

	res, err := client.VerifyAndFundWallet(context.Background(), VerifyAndFundRequest{TxRef: "TX-3"})
	assert.Nil(t, res)
	assert.False(t, errors.Is(err, ErrPaymentPending))

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusUnprocessableEntity, gwErr.StatusCode)
	assert.Equal(t, "amount mismatch", gwErr.Message)
}
