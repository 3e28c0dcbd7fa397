package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackjohndoe/booking-backend-spring-sub001/config"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/cache"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/email"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/kafka"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/repository"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/service/booking"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/service/settlement"
	"github.com/robfig/cron/v3"
	kafkaGo "github.com/segmentio/kafka-go"
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

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.ApartmentCacheTTL)*time.Second)
	defer redisCache.Close()

	// Only the fallback replay runs here; the payment and notification
	// collaborators are never reached by SyncFallbackBookings.
	fees := settlement.FeePolicy{CleaningFee: *cfg.Fees.CleaningFee, ServiceFee: *cfg.Fees.ServiceFee}
	bookingService := booking.NewBookingService(repository.NewBookingRepository(pool), redisCache, nil, nil, nil, nil, nil, fees, logger)

	var mailer email.Mailer = email.NewLogMailer(logger)
	if cfg.SMTP.Host != "" {
		mailer = email.NewSMTPMailer(cfg.SMTP)
	}
	sender := email.NewSender(mailer, logger)

	emails := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.EmailsTopic, logger)
	defer emails.Close()
	notifications := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, logger)
	defer notifications.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := emails.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.EmailEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("decode email event: %w", err)
			}
			return sender.Send(ctx, event)
		}); err != nil {
			logger.WithError(err).Error("Email consumer stopped")
		}
	}()
	go func() {
		defer wg.Done()
		if err := notifications.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.NotificationEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("decode notification event: %w", err)
			}
			return redisCache.PushNotification(ctx, event)
		}); err != nil {
			logger.WithError(err).Error("Notification consumer stopped")
		}
	}()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Worker.FallbackSyncSchedule, func() {
		synced, err := bookingService.SyncFallbackBookings(ctx)
		if err != nil {
			logger.WithError(err).WithField("synced", synced).Warn("Fallback booking sync incomplete")
		}
	}); err != nil {
		logger.WithError(err).Fatal("Invalid fallback sync schedule")
	}
	scheduler.Start()

	logger.WithField("schedule", cfg.Worker.FallbackSyncSchedule).Info("Worker started")
	<-ctx.Done()

	logger.Info("Shutting down worker")
	<-scheduler.Stop().Done()
	wg.Wait()
}
