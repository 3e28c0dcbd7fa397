package cache

import (
	"context"
	"time"

	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/domain"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/repository"
	"github.com/karlseguin/ccache/v3"
	"github.com/sirupsen/logrus"
)

type ApartmentStore interface {
	GetApartment(ctx context.Context, id string) (*domain.Apartment, error)
	SetApartment(ctx context.Context, apt *domain.Apartment) error
}

// ApartmentLookup reads apartments through an in-process cache, then the
// shared store, then the database.
type ApartmentLookup struct {
	local  *ccache.Cache[*domain.Apartment]
	remote ApartmentStore
	repo   repository.ApartmentRepository
	ttl    time.Duration
	logger *logrus.Logger
}

func NewApartmentLookup(repo repository.ApartmentRepository, remote ApartmentStore, maxItems int, ttl time.Duration, logger *logrus.Logger) *ApartmentLookup {
	return &ApartmentLookup{
		local:  ccache.New(ccache.Configure[*domain.Apartment]().MaxSize(int64(maxItems))),
		remote: remote,
		repo:   repo,
		ttl:    ttl,
		logger: logger,
	}
}

func (l *ApartmentLookup) GetByID(ctx context.Context, id string) (*domain.Apartment, error) {
	if item := l.local.Get(id); item != nil && !item.Expired() {
		return item.Value(), nil
	}

	if l.remote != nil {
		apt, err := l.remote.GetApartment(ctx, id)
		if err != nil {
			l.logger.WithError(err).WithField("apartment_id", id).Warn("Apartment cache read failed")
		} else if apt != nil {
			l.local.Set(id, apt, l.ttl)
			return apt, nil
		}
	}

	apt, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	l.local.Set(id, apt, l.ttl)
	if l.remote != nil {
		if err := l.remote.SetApartment(ctx, apt); err != nil {
			l.logger.WithError(err).WithField("apartment_id", id).Warn("Apartment cache write failed")
		}
	}
	return apt, nil
}

func (l *ApartmentLookup) Stop() {
	l.local.Stop()
}
