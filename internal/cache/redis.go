package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackjohndoe/booking-backend-spring-sub001/config"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/domain"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/kafka"
	"github.com/redis/go-redis/v9"
)

var ErrFallbackBookingNotFound = errors.New("fallback booking not found")

type RedisCache struct {
	client       *redis.Client
	apartmentTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, apartmentTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:       redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		apartmentTTL: apartmentTTL,
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) GetApartment(ctx context.Context, id string) (*domain.Apartment, error) {
	data, err := c.client.Get(ctx, apartmentKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var apt domain.Apartment
	if err := json.Unmarshal(data, &apt); err != nil {
		return nil, err
	}
	return &apt, nil
}

func (c *RedisCache) SetApartment(ctx context.Context, apt *domain.Apartment) error {
	payload, err := json.Marshal(apt)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, apartmentKey(apt.ID), payload, c.apartmentTTL).Err()
}

// SaveFallbackBooking keeps a booking the primary store rejected. Entries
// have no TTL; they live until SyncFallbackBookings replays them.
func (c *RedisCache) SaveFallbackBooking(ctx context.Context, booking *domain.Booking) error {
	payload, err := json.Marshal(booking)
	if err != nil {
		return fmt.Errorf("encode fallback booking: %w", err)
	}
	return c.client.HSet(ctx, fallbackBookingsKey(), booking.ID, payload).Err()
}

func (c *RedisCache) GetFallbackBooking(ctx context.Context, id string) (*domain.Booking, error) {
	data, err := c.client.HGet(ctx, fallbackBookingsKey(), id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrFallbackBookingNotFound
		}
		return nil, err
	}

	var b domain.Booking
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode fallback booking %s: %w", id, err)
	}
	return &b, nil
}

func (c *RedisCache) ListFallbackBookings(ctx context.Context) ([]domain.Booking, error) {
	entries, err := c.client.HGetAll(ctx, fallbackBookingsKey()).Result()
	if err != nil {
		return nil, err
	}

	bookings := make([]domain.Booking, 0, len(entries))
	for id, raw := range entries {
		var b domain.Booking
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			return nil, fmt.Errorf("decode fallback booking %s: %w", id, err)
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

func (c *RedisCache) RemoveFallbackBooking(ctx context.Context, id string) error {
	return c.client.HDel(ctx, fallbackBookingsKey(), id).Err()
}

// inboxSize bounds each recipient's notification list.
const inboxSize = 100

// PushNotification stores an in-app notification, newest first.
func (c *RedisCache) PushNotification(ctx context.Context, event kafka.NotificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	key := inboxKey(event.Recipient)
	pipe := c.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, inboxSize-1)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *RedisCache) ListNotifications(ctx context.Context, recipient string, limit int64) ([]kafka.NotificationEvent, error) {
	if limit <= 0 || limit > inboxSize {
		limit = inboxSize
	}
	entries, err := c.client.LRange(ctx, inboxKey(recipient), 0, limit-1).Result()
	if err != nil {
		return nil, err
	}

	events := make([]kafka.NotificationEvent, 0, len(entries))
	for _, raw := range entries {
		var e kafka.NotificationEvent
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

func apartmentKey(id string) string {
	return fmt.Sprintf("cache:apartment:%s", id)
}

func fallbackBookingsKey() string {
	return "fallback:bookings"
}

func inboxKey(recipient string) string {
	return "inbox:" + domain.NormalizeEmail(recipient)
}
