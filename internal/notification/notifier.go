// Package notification publishes host notifications and confirmation emails
// to Kafka. Delivery happens in the worker.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/kafka"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// BookingNotice describes a new booking for the host.
type BookingNotice struct {
	BookingID      string
	ApartmentID    string
	ApartmentTitle string
	HostEmail      string
	GuestName      string
	GuestEmail     string
	CheckIn        time.Time
	CheckOut       time.Time
	Guests         int
	Amount         int64
	Verified       bool
}

type WalletNotice struct {
	BookingID string
	HostEmail string
	Amount    int64
	Balance   int64
	GuestName string
}

// Receipt is the amount breakdown sent in confirmation emails.
type Receipt struct {
	BookingID      string
	TxRef          string
	ApartmentTitle string
	GuestName      string
	GuestEmail     string
	HostEmail      string
	CheckIn        time.Time
	CheckOut       time.Time
	Guests         int
	Amount         int64
	CleaningFee    int64
	ServiceFee     int64
	HostPayout     int64
	WalletBalance  *int64
}

type Notifier struct {
	publisher          Publisher
	notificationsTopic string
	emailsTopic        string
	now                func() time.Time
}

func NewNotifier(publisher Publisher, notificationsTopic, emailsTopic string) *Notifier {
	return &Notifier{
		publisher:          publisher,
		notificationsTopic: notificationsTopic,
		emailsTopic:        emailsTopic,
		now:                time.Now,
	}
}

var errNoPublisher = errors.New("notification publisher is not configured")

func (n *Notifier) NotifyHostNewBooking(ctx context.Context, notice BookingNotice) error {
	body := fmt.Sprintf("%s booked %s from %s to %s",
		displayName(notice.GuestName, notice.GuestEmail), titleOr(notice.ApartmentTitle, notice.ApartmentID),
		notice.CheckIn.Format("Jan 2"), notice.CheckOut.Format("Jan 2, 2006"))
	if !notice.Verified {
		body += " (payment processing)"
	}

	return n.publishNotification(ctx, kafka.NotificationEvent{
		Type:        kafka.EventHostNewBooking,
		Recipient:   notice.HostEmail,
		Title:       "New booking",
		Body:        body,
		BookingID:   notice.BookingID,
		ApartmentID: notice.ApartmentID,
		Amount:      notice.Amount,
	})
}

func (n *Notifier) NotifyHostWalletFunded(ctx context.Context, notice WalletNotice) error {
	return n.publishNotification(ctx, kafka.NotificationEvent{
		Type:      kafka.EventHostWalletFunded,
		Recipient: notice.HostEmail,
		Title:     "Wallet funded",
		Body:      fmt.Sprintf("Your wallet was credited with %d from %s's booking", notice.Amount, displayName(notice.GuestName, "a guest")),
		BookingID: notice.BookingID,
		Amount:    notice.Amount,
		Balance:   notice.Balance,
	})
}

func (n *Notifier) SendGuestConfirmationEmail(ctx context.Context, r Receipt) error {
	return n.publishEmail(ctx, toEmailEvent(kafka.EmailGuestConfirmation, r.GuestEmail, r))
}

func (n *Notifier) SendHostNotificationEmail(ctx context.Context, r Receipt) error {
	return n.publishEmail(ctx, toEmailEvent(kafka.EmailHostNotification, r.HostEmail, r))
}

func (n *Notifier) publishNotification(ctx context.Context, event kafka.NotificationEvent) error {
	if n.publisher == nil || n.notificationsTopic == "" {
		return errNoPublisher
	}
	event.CreatedAt = n.now()
	return n.publisher.Publish(ctx, n.notificationsTopic, event.Recipient, event)
}

func (n *Notifier) publishEmail(ctx context.Context, event kafka.EmailEvent) error {
	if n.publisher == nil || n.emailsTopic == "" {
		return errNoPublisher
	}
	if event.To == "" {
		return errors.New("email recipient is required")
	}
	return n.publisher.Publish(ctx, n.emailsTopic, event.BookingID, event)
}

func toEmailEvent(kind, to string, r Receipt) kafka.EmailEvent {
	return kafka.EmailEvent{
		Type:           kind,
		To:             to,
		GuestName:      r.GuestName,
		GuestEmail:     r.GuestEmail,
		HostEmail:      r.HostEmail,
		ApartmentTitle: r.ApartmentTitle,
		BookingID:      r.BookingID,
		TxRef:          r.TxRef,
		CheckIn:        r.CheckIn,
		CheckOut:       r.CheckOut,
		Guests:         r.Guests,
		Amount:         r.Amount,
		CleaningFee:    r.CleaningFee,
		ServiceFee:     r.ServiceFee,
		HostPayout:     r.HostPayout,
		WalletBalance:  r.WalletBalance,
	}
}

func displayName(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}

func titleOr(title, id string) string {
	if title != "" {
		return title
	}
	return "apartment " + id
}
