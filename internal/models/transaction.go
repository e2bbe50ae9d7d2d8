package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one completed card-to-card transfer. Rows are append-only:
// they are never updated or deleted once written.
type Transaction struct {
	ID          int             `json:"id" db:"id"`
	ReferenceID string          `json:"referenceId" db:"reference_id"`
	Sender      string          `json:"sender" db:"sender"`
	Receiver    string          `json:"receiver" db:"receiver"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}

// TransferResult is what the transfer engine reports back to the caller.
type TransferResult struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Amount   decimal.Decimal `json:"amount"`
	Receiver string          `json:"receiver"`
}
