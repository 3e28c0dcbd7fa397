package domain

import "time"

type Wallet struct {
	Email     string    `json:"email" db:"email"`
	Balance   int64     `json:"balance" db:"balance"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type WalletTransaction struct {
	ID          string    `json:"id" db:"id"`
	Email       string    `json:"email" db:"email"`
	Amount      int64     `json:"amount" db:"amount"`
	Memo        string    `json:"memo" db:"memo"`
	SenderName  string    `json:"sender_name" db:"sender_name"`
	SenderEmail string    `json:"sender_email" db:"sender_email"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type Apartment struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	HostEmail     string `json:"host_email"`
	HostName      string `json:"host_name"`
	PricePerNight int64  `json:"price_per_night"`
}

// AuthContext is the authenticated caller of a request.
type AuthContext struct {
	Email string
	Name  string
}

func (a AuthContext) Authenticated() bool {
	return NormalizeEmail(a.Email) != ""
}
