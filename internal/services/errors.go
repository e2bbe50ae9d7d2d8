package services

import (
	"errors"
	"fmt"
)

// Sentinel errors for the transactional core. Handlers map these to stable
// reason codes and HTTP statuses; raw store errors never cross the boundary.
var (
	ErrInvalidPrefix       = errors.New("card prefix must be numeric and shorter than 16 digits")
	ErrCardNumberExhausted = errors.New("card number allocation retries exhausted")
	ErrInvalidAmount       = errors.New("amount must be a positive decimal value")
	ErrSelfTransfer        = errors.New("sender and receiver card must differ")
	ErrSenderNotFound      = errors.New("sender card not found")
	ErrReceiverNotFound    = errors.New("receiver card not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrDuplicateCardNumber = errors.New("card number already in use")
	ErrDuplicateIdentity   = errors.New("phone or national ID already registered")
	ErrStaleWrite          = errors.New("balance update lost its row lock")
	ErrTransferBusy        = errors.New("transfer could not acquire locks in time")
)

// DuplicateAccountError reports an already-registered identity together with
// the card number that was issued the first time. Repeating a registration
// is idempotent discovery, so the existing card is part of the answer.
type DuplicateAccountError struct {
	CardNumber string
}

func (e *DuplicateAccountError) Error() string {
	return fmt.Sprintf("account already exists for this national ID or phone (card %s)", e.CardNumber)
}

// ReasonCode returns the stable machine-readable code for a core error.
func ReasonCode(err error) string {
	var dup *DuplicateAccountError
	switch {
	case errors.As(err, &dup):
		return "DUPLICATE_ACCOUNT"
	case errors.Is(err, ErrInvalidPrefix):
		return "INVALID_PREFIX"
	case errors.Is(err, ErrCardNumberExhausted):
		return "ALLOCATION_EXHAUSTED"
	case errors.Is(err, ErrInvalidAmount):
		return "INVALID_AMOUNT"
	case errors.Is(err, ErrSelfTransfer):
		return "SELF_TRANSFER"
	case errors.Is(err, ErrSenderNotFound):
		return "SENDER_NOT_FOUND"
	case errors.Is(err, ErrReceiverNotFound):
		return "RECEIVER_NOT_FOUND"
	case errors.Is(err, ErrInsufficientFunds):
		return "INSUFFICIENT_FUNDS"
	case errors.Is(err, ErrDuplicateCardNumber):
		return "DUPLICATE_CARD_NUMBER"
	case errors.Is(err, ErrDuplicateIdentity):
		return "DUPLICATE_ACCOUNT"
	case errors.Is(err, ErrStaleWrite):
		return "STALE_WRITE"
	case errors.Is(err, ErrTransferBusy):
		return "BUSY"
	default:
		return "INTERNAL"
	}
}
