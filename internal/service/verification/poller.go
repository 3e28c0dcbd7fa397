// Package verification polls the payment ledger until a bank transfer clears.
package verification

import (
	"context"
	"errors"
	"time"

	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/payment"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxAttempts = 10
	DefaultInterval    = 3 * time.Second
)

type Outcome string

const (
	OutcomeVerified Outcome = "verified"
	OutcomePending  Outcome = "pending"
	OutcomeFailed   Outcome = "failed"
)

var errNotCleared = errors.New("transfer not cleared yet")

type Gateway interface {
	VerifyAndFundWallet(ctx context.Context, req payment.VerifyAndFundRequest) (*payment.VerifyAndFundResult, error)
}

type Request struct {
	TxRef      string
	GuestEmail string
	Amount     int64
	Method     string
}

type Result struct {
	Outcome  Outcome       `json:"outcome"`
	Attempts int           `json:"attempts"`
	Balance  *int64        `json:"balance,omitempty"`
	Waited   time.Duration `json:"waited"`
	Err      error         `json:"-"`
}

func (r Result) Verified() bool {
	return r.Outcome == OutcomeVerified
}

type Poller struct {
	gateway     Gateway
	logger      *logrus.Logger
	maxAttempts int
	interval    time.Duration
	multiplier  float64
	maxInterval time.Duration
	wait        func(ctx context.Context, d time.Duration) error
}

type Option func(*Poller)

func WithMaxAttempts(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithBackoff grows the delay by multiplier after every attempt, capped at max.
// A multiplier <= 1 keeps the fixed interval.
func WithBackoff(multiplier float64, max time.Duration) Option {
	return func(p *Poller) {
		p.multiplier = multiplier
		p.maxInterval = max
	}
}

func NewPoller(gateway Gateway, logger *logrus.Logger, opts ...Option) *Poller {
	p := &Poller{
		gateway:     gateway,
		logger:      logger,
		maxAttempts: DefaultMaxAttempts,
		interval:    DefaultInterval,
		wait:        sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Verify calls the ledger until the transfer is verified and funded, a
// non-transient error occurs, or the attempt budget runs out. It never returns
// an error: an unverified transfer is reported as OutcomePending or
// OutcomeFailed and the caller carries on.
func (p *Poller) Verify(ctx context.Context, req Request) Result {
	log := p.logger.WithFields(logrus.Fields{"tx_ref": req.TxRef, "guest_email": req.GuestEmail})
	result := Result{Outcome: OutcomePending}
	delay := p.interval

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := p.wait(ctx, delay); err != nil {
				log.WithError(err).Warn("Payment verification interrupted")
				result.Err = err
				return result
			}
			result.Waited += delay
			delay = p.next(delay)
		}
		result.Attempts = attempt

		res, err := p.gateway.VerifyAndFundWallet(ctx, payment.VerifyAndFundRequest{
			TxRef:  req.TxRef,
			Email:  req.GuestEmail,
			Amount: req.Amount,
			Method: req.Method,
		})
		switch {
		case err == nil && res != nil && res.Verified && res.Funded:
			result.Outcome = OutcomeVerified
			result.Balance = res.Balance
			result.Err = nil
			log.WithField("attempt", attempt).Info("Payment verified and wallet funded")
			return result
		case err == nil:
			result.Err = errNotCleared
		case errors.Is(err, payment.ErrPaymentPending):
			result.Err = err
		case ctx.Err() != nil:
			log.WithError(err).WithField("attempt", attempt).Warn("Payment verification interrupted")
			result.Err = ctx.Err()
			return result
		default:
			result.Outcome = OutcomeFailed
			result.Err = err
			log.WithError(err).WithField("attempt", attempt).Warn("Payment verification failed")
			return result
		}
		log.WithField("attempt", attempt).Debug("Payment not cleared yet")
	}

	log.WithField("attempts", result.Attempts).Info("Payment verification budget exhausted, leaving booking pending")
	return result
}

func (p *Poller) next(d time.Duration) time.Duration {
	if p.multiplier <= 1 {
		return d
	}
	d = time.Duration(float64(d) * p.multiplier)
	if p.maxInterval > 0 && d > p.maxInterval {
		return p.maxInterval
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
