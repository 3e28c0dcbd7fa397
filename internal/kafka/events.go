package kafka

import "time"

const (
	EventHostNewBooking    = "host_new_booking"
	EventHostWalletFunded  = "host_wallet_funded"
	EmailGuestConfirmation = "guest_booking_confirmation"
	EmailHostNotification  = "host_booking_notification"
)

// NotificationEvent is an in-app notification for one recipient.
type NotificationEvent struct {
	Type        string    `json:"type"`
	Recipient   string    `json:"recipient"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	BookingID   string    `json:"booking_id,omitempty"`
	ApartmentID string    `json:"apartment_id,omitempty"`
	Amount      int64     `json:"amount,omitempty"`
	Balance     int64     `json:"balance,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// EmailEvent carries everything the worker needs to render a receipt.
type EmailEvent struct {
	Type           string    `json:"type"`
	To             string    `json:"to"`
	GuestName      string    `json:"guest_name"`
	GuestEmail     string    `json:"guest_email"`
	HostEmail      string    `json:"host_email"`
	ApartmentTitle string    `json:"apartment_title"`
	BookingID      string    `json:"booking_id"`
	TxRef          string    `json:"tx_ref"`
	CheckIn        time.Time `json:"check_in"`
	CheckOut       time.Time `json:"check_out"`
	Guests         int       `json:"guests"`
	Amount         int64     `json:"amount"`
	CleaningFee    int64     `json:"cleaning_fee"`
	ServiceFee     int64     `json:"service_fee"`
	HostPayout     int64     `json:"host_payout"`
	WalletBalance  *int64    `json:"wallet_balance,omitempty"`
}
