package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a card-holding bank account
type Account struct {
	ID         int             `json:"id" db:"id"`
	FirstName  string          `json:"firstName" db:"first_name"`
	LastName   string          `json:"lastName" db:"last_name"`
	Phone      string          `json:"phone" db:"phone"`
	NationalID string          `json:"nationalId" db:"national_id"`
	Address    string          `json:"address" db:"address"`
	CardNumber string          `json:"cardNumber" db:"card_number"`
	PINHash    string          `json:"-" db:"pin_hash"`
	Balance    decimal.Decimal `json:"balance" db:"balance"`
	Version    int             `json:"-" db:"version"` // for optimistic locking
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time       `json:"-" db:"updated_at"`
}
