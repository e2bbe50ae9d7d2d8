package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/abolfazlyousefi5/Bank-App/internal/models"
)

// AccountStore is the durable record of accounts. Balance mutations only
// happen through LockForUpdate + UpdateBalance inside one transaction.
type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

const accountColumns = `id, first_name, last_name, phone, national_id, address,
		card_number, pin_hash, balance, version, created_at`

// FindByCardNumber returns the account for a card, or nil when none exists.
func (s *AccountStore) FindByCardNumber(ctx context.Context, cardNumber string) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE card_number = $1`, cardNumber)
	return scanAccount(row)
}

// FindByIdentity returns an account already registered under either the phone
// or the national ID. Used as the friendly fast path before insert; the unique
// constraints on both columns are the real duplicate guard.
func (s *AccountStore) FindByIdentity(ctx context.Context, phone, nationalID string) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE phone = $1 OR national_id = $2
		LIMIT 1`, phone, nationalID)
	return scanAccount(row)
}

// LockForUpdate acquires an exclusive row lock scoped to tx and returns the
// balance snapshot read under that lock. Returns nil when the card is unknown.
func (s *AccountStore) LockForUpdate(tx *sql.Tx, cardNumber string) (*models.Account, error) {
	var (
		account    models.Account
		balanceStr string
	)
	err := tx.QueryRow(`
		SELECT id, card_number, balance, version
		FROM accounts
		WHERE card_number = $1
		FOR UPDATE`, cardNumber).
		Scan(&account.ID, &account.CardNumber, &balanceStr, &account.Version)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock account %s: %w", cardNumber, err)
	}

	account.Balance, err = decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("parse balance %q: %w", balanceStr, err)
	}
	return &account, nil
}

// UpdateBalance writes the new balance inside the same transaction that took
// the row lock. The version column catches writes that lost their lock.
func (s *AccountStore) UpdateBalance(tx *sql.Tx, cardNumber string, newBalance decimal.Decimal, version int) error {
	result, err := tx.Exec(`
		UPDATE accounts
		SET balance = $1, version = version + 1, updated_at = $2
		WHERE card_number = $3 AND version = $4`,
		newBalance.StringFixed(2), time.Now(), cardNumber, version)
	if err != nil {
		return fmt.Errorf("update balance for %s: %w", cardNumber, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("account %s: %w", cardNumber, ErrStaleWrite)
	}
	return nil
}

// Insert creates the account row and returns its surrogate id. Unique
// constraint violations are mapped to the matching sentinel so the registry
// can retry allocation or report the duplicate identity.
func (s *AccountStore) Insert(tx *sql.Tx, account *models.Account) (int, error) {
	var id int
	err := tx.QueryRow(`
		INSERT INTO accounts
		(first_name, last_name, phone, national_id, address, card_number, pin_hash, balance, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
		RETURNING id`,
		account.FirstName, account.LastName, account.Phone, account.NationalID,
		account.Address, account.CardNumber, account.PINHash,
		account.Balance.StringFixed(2)).Scan(&id)
	if err != nil {
		return 0, mapInsertError(err)
	}
	return id, nil
}

func mapInsertError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		if pqErr.Constraint == "accounts_card_number_key" {
			return ErrDuplicateCardNumber
		}
		return ErrDuplicateIdentity
	}
	return fmt.Errorf("insert account: %w", err)
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var (
		account    models.Account
		balanceStr string
	)
	err := row.Scan(&account.ID, &account.FirstName, &account.LastName,
		&account.Phone, &account.NationalID, &account.Address,
		&account.CardNumber, &account.PINHash, &balanceStr,
		&account.Version, &account.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}

	account.Balance, err = decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("parse balance %q: %w", balanceStr, err)
	}
	return &account, nil
}
