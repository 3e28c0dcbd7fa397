package booking

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type OverlapChecker interface {
	HasOverlap(ctx context.Context, apartmentID string, checkIn, checkOut time.Time) (bool, error)
}

// ConflictGuard decides whether a date range is still free. By default a
// failed lookup lets the booking through. hostEmail is the host resolved from
// the apartment; an apartment has one host, so the lookup keys on the
// apartment alone.
type ConflictGuard struct {
	checker    OverlapChecker
	failClosed bool
	logger     *logrus.Logger
}

func NewConflictGuard(checker OverlapChecker, logger *logrus.Logger) *ConflictGuard {
	return &ConflictGuard{checker: checker, logger: logger}
}

func (g *ConflictGuard) HasConflict(ctx context.Context, apartmentID, hostEmail string, checkIn, checkOut time.Time) (bool, error) {
	conflict, err := g.checker.HasOverlap(ctx, apartmentID, checkIn, checkOut)
	if err == nil {
		return conflict, nil
	}

	log := g.logger.WithError(err).WithFields(logrus.Fields{
		"apartment_id": apartmentID,
		"host_email":   hostEmail,
		"fail_open":    !g.failClosed,
	})
	if g.failClosed {
		log.Error("Availability lookup failed, blocking booking")
		return false, ErrAvailabilityUnknown
	}
	log.Warn("Availability lookup failed, allowing booking")
	return false, nil
}
