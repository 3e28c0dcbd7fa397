package email

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strconv"
	"text/template"

	"github.com/jackjohndoe/booking-backend-spring-sub001/config"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/kafka"
	"github.com/sirupsen/logrus"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Deliver(ctx context.Context, msg Message) error
}

type Sender struct {
	mailer Mailer
	logger *logrus.Logger
}

func NewSender(mailer Mailer, logger *logrus.Logger) *Sender {
	return &Sender{mailer: mailer, logger: logger}
}

// Send renders the receipt for event and hands it to the mailer.
func (s *Sender) Send(ctx context.Context, event kafka.EmailEvent) error {
	msg, err := Render(event)
	if err != nil {
		return err
	}
	if err := s.mailer.Deliver(ctx, msg); err != nil {
		return fmt.Errorf("deliver %s to %s: %w", event.Type, event.To, err)
	}
	s.logger.WithFields(logrus.Fields{
		"type":       event.Type,
		"to":         event.To,
		"booking_id": event.BookingID,
	}).Info("Email sent")
	return nil
}

var (
	guestTemplate = template.Must(template.New("guest").Funcs(template.FuncMap{
		"deref": func(v *int64) int64 { return *v },
	}).Parse(`Hi {{.GuestName}},

Your booking for {{.ApartmentTitle}} is confirmed and your payment has been verified.

Booking:   {{.BookingID}}
Reference: {{.TxRef}}
Check-in:  {{.CheckIn.Format "Mon, Jan 2 2006"}}
Check-out: {{.CheckOut.Format "Mon, Jan 2 2006"}}
Guests:    {{.Guests}}

Amount paid: {{.Amount}}
{{- if .WalletBalance}}
Wallet balance: {{deref .WalletBalance}}
{{- end}}

Thank you for booking with us.
`))

	hostTemplate = template.Must(template.New("host").Parse(`Hello,

{{.GuestName}} ({{.GuestEmail}}) booked {{.ApartmentTitle}}.

Booking:   {{.BookingID}}
Check-in:  {{.CheckIn.Format "Mon, Jan 2 2006"}}
Check-out: {{.CheckOut.Format "Mon, Jan 2 2006"}}
Guests:    {{.Guests}}

Gross amount:  {{.Amount}}
Cleaning fee: -{{.CleaningFee}}
Service fee:  -{{.ServiceFee}}
Your payout:   {{.HostPayout}}

The payout will be credited to your wallet.
`))
)

func Render(event kafka.EmailEvent) (Message, error) {
	var (
		tmpl    *template.Template
		subject string
	)
	switch event.Type {
	case kafka.EmailGuestConfirmation:
		tmpl, subject = guestTemplate, "Your booking is confirmed"
	case kafka.EmailHostNotification:
		tmpl, subject = hostTemplate, "You have a new booking"
	default:
		return Message{}, fmt.Errorf("unknown email type %q", event.Type)
	}

	if event.GuestName == "" {
		event.GuestName = event.GuestEmail
	}
	if event.ApartmentTitle == "" {
		event.ApartmentTitle = "your apartment"
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, event); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", event.Type, err)
	}
	return Message{To: event.To, Subject: subject, Body: buf.String()}, nil
}

// SMTPMailer delivers through a plain SMTP relay with PLAIN auth.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Deliver(_ context.Context, msg Message) error {
	addr := m.cfg.Host + ":" + strconv.Itoa(m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		m.cfg.From, msg.To, msg.Subject, msg.Body)
	return smtp.SendMail(addr, auth, m.cfg.From, []string{msg.To}, []byte(body))
}

// LogMailer only logs messages. Used when no SMTP host is configured.
type LogMailer struct {
	logger *logrus.Logger
}

func NewLogMailer(logger *logrus.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Deliver(_ context.Context, msg Message) error {
	m.logger.WithFields(logrus.Fields{"to": msg.To, "subject": msg.Subject}).Info("Email delivery skipped, no SMTP host")
	return nil
}
