package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jackjohndoe/booking-backend-spring-sub001/config"
	"github.com/sirupsen/logrus"
)

// ErrPaymentPending marks a transfer the ledger has not cleared yet.
// Callers may retry the same reference.
var ErrPaymentPending = errors.New("payment pending")

// GatewayError is a terminal rejection from the ledger service.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway returned status %d: %s", e.StatusCode, e.Message)
}

type VerifyAndFundRequest struct {
	TxRef  string `json:"tx_ref"`
	Email  string `json:"email"`
	Amount int64  `json:"amount"`
	Method string `json:"method"`
}

type VerifyAndFundResult struct {
	Verified bool   `json:"verified"`
	Funded   bool   `json:"funded"`
	Balance  *int64 `json:"balance,omitempty"`
}

type verifyResponse struct {
	VerifyAndFundResult
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Client talks to the external verify-and-fund ledger. The ledger is expected
// to fund at most once per tx_ref.
type Client struct {
	baseURL   string
	secretKey string
	client    *http.Client
	logger    *logrus.Logger
}

func NewClient(cfg config.PaymentConfig, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		secretKey: cfg.SecretKey,
		client:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		logger:    logger,
	}
}

func (c *Client) VerifyAndFundWallet(ctx context.Context, req VerifyAndFundRequest) (*VerifyAndFundResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/wallet/verify-and-fund", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.secretKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.WithError(err).WithField("tx_ref", req.TxRef).Error("Failed to call verify-and-fund endpoint")
		return nil, fmt.Errorf("failed to call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed verifyResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &parsed); err != nil && resp.StatusCode == http.StatusOK {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
	}

	c.logger.WithFields(logrus.Fields{
		"tx_ref":      req.TxRef,
		"status_code": resp.StatusCode,
		"status":      parsed.Status,
		"verified":    parsed.Verified,
		"funded":      parsed.Funded,
	}).Debug("Verify-and-fund response received")

	message := parsed.Message
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}

	if isTransientStatus(parsed.Status) || isTransientCode(resp.StatusCode) {
		return nil, fmt.Errorf("%w: %s", ErrPaymentPending, message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: message}
	}

	result := parsed.VerifyAndFundResult
	return &result, nil
}

func isTransientCode(code int) bool {
	switch code {
	case http.StatusAccepted, http.StatusNotFound, http.StatusConflict, http.StatusTooEarly:
		return true
	}
	return false
}

func isTransientStatus(status string) bool {
	switch strings.ToLower(status) {
	case "pending", "processing", "not_found":
		return true
	}
	return false
}
