package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"strings"
)

const cardNumberLength = 16

// CardNumberAllocator issues unique 16-digit card numbers beginning with a
// configured prefix. The pre-check against the accounts table is a fast path;
// the table's unique constraint on card_number is the actual guarantee, and
// registration retries allocation when the insert reports a collision.
type CardNumberAllocator struct {
	db         *sql.DB
	maxRetries int
}

func NewCardNumberAllocator(db *sql.DB, maxRetries int) *CardNumberAllocator {
	if maxRetries <= 0 {
		maxRetries = 20
	}
	return &CardNumberAllocator{db: db, maxRetries: maxRetries}
}

// Generate returns a card number not in use at the instant of the check.
func (a *CardNumberAllocator) Generate(ctx context.Context, prefix string) (string, error) {
	if !isDigits(prefix) || len(prefix) >= cardNumberLength {
		return "", ErrInvalidPrefix
	}

	remaining := cardNumberLength - len(prefix)
	for attempt := 0; attempt < a.maxRetries; attempt++ {
		var sb strings.Builder
		sb.WriteString(prefix)
		for i := 0; i < remaining; i++ {
			sb.WriteByte(byte('0' + rand.Intn(10)))
		}
		candidate := sb.String()

		var one int
		err := a.db.QueryRowContext(ctx,
			"SELECT 1 FROM accounts WHERE card_number = $1", candidate).Scan(&one)
		if err == sql.ErrNoRows {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("card number availability check failed: %w", err)
		}
		// Collision is astronomically rare; log it and try again
		log.Printf("[CARDS] Card number collision on attempt %d, regenerating", attempt+1)
	}

	return "", ErrCardNumberExhausted
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
