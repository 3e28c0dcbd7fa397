package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackjohndoe/booking-backend-spring-sub001/api"
	"github.com/jackjohndoe/booking-backend-spring-sub001/config"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/auth"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/bootstrap"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/cache"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/kafka"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/notification"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/payment"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/repository"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/service/booking"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/service/escrow"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/service/settlement"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/service/verification"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load config")
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to postgres")
	}
	defer pool.Close()

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to wallet database")
	}
	defer db.Close()

	cacheTTL := time.Duration(cfg.Booking.ApartmentCacheTTL) * time.Second
	redisCache := cache.NewRedisCache(cfg.Redis, cacheTTL)
	defer redisCache.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		logger.WithError(err).Warn("Kafka is unreachable, notifications will fail until it recovers")
	}

	bookingRepo := repository.NewBookingRepository(pool)
	apartments := cache.NewApartmentLookup(repository.NewApartmentRepository(pool), redisCache, cfg.Booking.ApartmentCacheItems, cacheTTL, logger)
	defer apartments.Stop()
	wallets := repository.NewWalletRepository(db, logger)
	escrowService := escrow.NewEscrowService(repository.NewEscrowRepository(db, logger), bookingRepo, logger)

	poller := verification.NewPoller(
		payment.NewClient(cfg.Payment, logger),
		logger,
		verification.WithMaxAttempts(cfg.Payment.MaxAttempts),
		verification.WithInterval(cfg.Payment.Interval()),
		verification.WithBackoff(cfg.Payment.BackoffMultiplier, cfg.Payment.MaxInterval()),
	)
	notifier := notification.NewNotifier(producer, cfg.Kafka.NotificationsTopic, cfg.Kafka.EmailsTopic)
	fees := settlement.FeePolicy{CleaningFee: *cfg.Fees.CleaningFee, ServiceFee: *cfg.Fees.ServiceFee}

	bookingService := booking.NewBookingService(
		bookingRepo,
		redisCache,
		apartments,
		poller,
		wallets,
		notifier,
		notifier,
		fees,
		logger,
		booking.WithEscrow(escrowService),
		booking.WithConflictFailClosed(cfg.Booking.ConflictFailClosed),
	)

	handlers := bootstrap.Handlers{
		Bookings:      api.NewBookingHandler(bookingService),
		Wallet:        api.NewWalletHandler(wallets),
		Escrow:        api.NewEscrowHandler(escrowService),
		Settlement:    api.NewSettlementHandler(fees),
		Notifications: api.NewNotificationHandler(redisCache),
	}
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())

	if err := bootstrap.Run(ctx, cfg, handlers, tokens, logger); err != nil {
		logger.WithError(err).Fatal("Server error")
	}
}
