package verification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/payment"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) VerifyAndFundWallet(ctx context.Context, req payment.VerifyAndFundRequest) (*payment.VerifyAndFundResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.VerifyAndFundResult), args.Error(1)
}

type recordingWait struct {
	waits []time.Duration
}

func (r *recordingWait) wait(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func (r *recordingWait) total() time.Duration {
	var sum time.Duration
	for _, d := range r.waits {
		sum += d
	}
	return sum
}

func newTestPoller(gw Gateway, opts ...Option) (*Poller, *recordingWait) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	p := NewPoller(gw, logger, opts...)
	rec := &recordingWait{}
	p.wait = rec.wait
	return p, rec
}

var pendingErr = fmt.Errorf("%w: reference not found", payment.ErrPaymentPending)

func TestPoller_VerifiedOnAttemptK(t *testing.T) {
	for k := 1; k <= DefaultMaxAttempts; k++ {
		t.Run(fmt.Sprintf("attempt_%d", k), func(t *testing.T) {
			gw := &MockGateway{}
			if k > 1 {
				gw.On("VerifyAndFundWallet", mock.Anything, mock.Anything).Return(nil, pendingErr).Times(k - 1)
			}
			balance := int64(90000)
			gw.On("VerifyAndFundWallet", mock.Anything, mock.Anything).
				Return(&payment.VerifyAndFundResult{Verified: true, Funded: true, Balance: &balance}, nil).Once()

			p, rec := newTestPoller(gw)
			res := p.Verify(context.Background(), Request{TxRef: "TX-1", GuestEmail: "guest@example.com", Amount: 50000})

			assert.Equal(t, OutcomeVerified, res.Outcome)
			assert.True(t, res.Verified())
			assert.Equal(t, k, res.Attempts)
			assert.Equal(t, time.Duration(k-1)*3*time.Second, rec.total())
			assert.Equal(t, rec.total(), res.Waited)
			require.NotNil(t, res.Balance)
			assert.Equal(t, balance, *res.Balance)
			assert.NoError(t, res.Err)
			gw.AssertNumberOfCalls(t, "VerifyAndFundWallet", k)
		})
	}
}

func TestPoller_ExhaustsBudget(t *testing.T) {
	gw := &MockGateway{}
	gw.On("VerifyAndFundWallet", mock.Anything, mock.Anything).Return(nil, pendingErr)

	p, rec := newTestPoller(gw)
	res := p.Verify(context.Background(), Request{TxRef: "TX-2"})

	assert.Equal(t, OutcomePending, res.Outcome)
	assert.Equal(t, 10, res.Attempts)
	assert.Len(t, rec.waits, 9)
	assert.Equal(t, 27*time.Second, rec.total())
	assert.ErrorIs(t, res.Err, payment.ErrPaymentPending)
	gw.AssertNumberOfCalls(t, "VerifyAndFundWallet", 10)
}

func TestPoller_NotClearedResponseIsRetried(t *testing.T) {
	gw := &MockGateway{}
	gw.On("VerifyAndFundWallet", mock.Anything, mock.Anything).
		Return(&payment.VerifyAndFundResult{Verified: true, Funded: false}, nil).Twice()
	gw.On("VerifyAndFundWallet", mock.Anything, mock.Anything).
		Return(&payment.VerifyAndFundResult{Verified: true, Funded: true}, nil).Once()

	p, _ := newTestPoller(gw)
	res := p.Verify(context.Background(), Request{TxRef: "TX-3"})

	assert.Equal(t, OutcomeVerified, res.Outcome)
	assert.Equal(t, 3, res.Attempts)
	assert.Nil(t, res.Balance)
}

func TestPoller_TerminalErrorStopsImmediately(t *testing.T) {
	gw := &MockGateway{}
	gw.On("VerifyAndFundWallet", mock.Anything, mock.Anything).Return(nil, pendingErr).Once()
	gw.On("VerifyAndFundWallet", mock.Anything, mock.Anything).
		Return(nil, &payment.GatewayError{StatusCode: 422, Message: "amount mismatch"}).Once()

	p, rec := newTestPoller(gw)
	res := p.Verify(context.Background(), Request{TxRef: "TX-4"})

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.False(t, res.Verified())
	assert.Equal(t, 2, res.Attempts)
	assert.Len(t, rec.waits, 1)
	var gwErr *payment.GatewayError
	assert.True(t, errors.As(res.Err, &gwErr))
	gw.AssertNumberOfCalls(t, "VerifyAndFundWallet", 2)
}

func TestPoller_ContextCancelled(t *testing.T) {
	gw := &MockGateway{}
	gw.On("VerifyAndFundWallet", mock.Anything, mock.Anything).Return(nil, pendingErr)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	p := NewPoller(gw, logger, WithInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := p.Verify(ctx, Request{TxRef: "TX-5"})

	assert.Equal(t, OutcomePending, res.Outcome)
	assert.Equal(t, 1, res.Attempts)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestPoller_CancelDuringGatewayCallIsPending(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gw := &MockGateway{}
	gw.On("VerifyAndFundWallet", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, fmt.Errorf("post verify: %w", context.Canceled)).Once()

	p, rec := newTestPoller(gw)
	res := p.Verify(ctx, Request{TxRef: "TX-6"})

	assert.Equal(t, OutcomePending, res.Outcome)
	assert.Equal(t, 1, res.Attempts)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Empty(t, rec.waits)
}

func TestPoller_Backoff(t *testing.T) {
	gw := &MockGateway{}
	gw.On("VerifyAndFundWallet", mock.Anything, mock.Anything).Return(nil, pendingErr)

	p, rec := newTestPoller(gw, WithMaxAttempts(5), WithInterval(time.Second), WithBackoff(2, 5*time.Second))
	res := p.Verify(context.Background(), Request{TxRef: "TX-6"})

	assert.Equal(t, OutcomePending, res.Outcome)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second}, rec.waits)
}
