package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/abolfazlyousefi5/Bank-App/internal/models"
)

// TransactionLedger is the append-only record of completed transfers.
// Append runs inside the transfer's transaction so a debit can never be
// committed without its matching credit and ledger row.
type TransactionLedger struct {
	db *sql.DB
}

func NewTransactionLedger(db *sql.DB) *TransactionLedger {
	return &TransactionLedger{db: db}
}

// Append writes the transfer record inside tx and returns its id.
func (l *TransactionLedger) Append(tx *sql.Tx, record *models.Transaction) (int, error) {
	var id int
	err := tx.QueryRow(`
		INSERT INTO transactions (reference_id, sender, receiver, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		record.ReferenceID, record.Sender, record.Receiver,
		record.Amount.StringFixed(2)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("append transaction: %w", err)
	}
	return id, nil
}

// History returns transfers involving the card, most recent first.
func (l *TransactionLedger) History(ctx context.Context, cardNumber string, limit int) ([]models.Transaction, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, reference_id, sender, receiver, amount, created_at
		FROM transactions
		WHERE sender = $1 OR receiver = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, cardNumber, limit)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var (
			txn       models.Transaction
			amountStr string
		)
		if err := rows.Scan(&txn.ID, &txn.ReferenceID, &txn.Sender,
			&txn.Receiver, &amountStr, &txn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txn.Amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amountStr, err)
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return transactions, nil
}
