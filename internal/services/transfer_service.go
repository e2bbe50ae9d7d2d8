package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/abolfazlyousefi5/Bank-App/internal/audit"
	"github.com/abolfazlyousefi5/Bank-App/internal/config"
	"github.com/abolfazlyousefi5/Bank-App/internal/models"
)

// TransferService orchestrates a single money movement between two cards:
// validation up front, then one database transaction that locks both rows in
// canonical order, re-checks funds under the lock, writes both balances and
// the ledger row, and commits. No failure path leaves partial state.
type TransferService struct {
	db     *sql.DB
	store  *AccountStore
	ledger *TransactionLedger
	audit  *audit.Logger
	cfg    *config.BankConfig
}

func NewTransferService(db *sql.DB, cfg *config.BankConfig) *TransferService {
	return &TransferService{
		db:     db,
		store:  NewAccountStore(db),
		ledger: NewTransactionLedger(db),
		audit:  audit.NewLogger(),
		cfg:    cfg,
	}
}

// Transfer moves amount from the sender card to the receiver card.
// The amount arrives as a string so it is parsed exactly; binary floats
// never enter the engine. Anything finer than a cent is rejected up front:
// balances are kept in cents, and a sub-cent amount would round differently
// on the debit and credit sides.
func (s *TransferService) Transfer(ctx context.Context, sender, receiver, amount string) (*models.TransferResult, error) {
	value, err := decimal.NewFromString(amount)
	if err != nil || value.Sign() <= 0 || value.Exponent() < -2 {
		return nil, ErrInvalidAmount
	}
	if sender == receiver {
		return nil, ErrSelfTransfer
	}

	var result *models.TransferResult
	for attempt := 0; ; attempt++ {
		result, err = s.transferOnce(ctx, sender, receiver, value)
		if err == nil {
			return result, nil
		}
		if isDeadlock(err) && attempt < s.cfg.DeadlockRetries {
			log.Printf("[TRANSFER] Deadlock detected, retrying (%d/%d)", attempt+1, s.cfg.DeadlockRetries)
			continue
		}
		return nil, err
	}
}

func (s *TransferService) transferOnce(ctx context.Context, sender, receiver string, amount decimal.Decimal) (*models.TransferResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.TransferTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transfer: %w", err)
	}
	defer tx.Rollback()

	// Lock both rows in lexicographic card order regardless of role, so two
	// opposite-direction transfers between the same pair can never each hold
	// one lock and wait on the other.
	firstLock, secondLock := sender, receiver
	if sender > receiver {
		firstLock, secondLock = receiver, sender
	}

	first, err := s.store.LockForUpdate(tx, firstLock)
	if err != nil {
		return nil, mapLockError(err)
	}
	if first == nil {
		return nil, notFoundFor(firstLock, sender)
	}

	second, err := s.store.LockForUpdate(tx, secondLock)
	if err != nil {
		return nil, mapLockError(err)
	}
	if second == nil {
		return nil, notFoundFor(secondLock, sender)
	}

	senderAccount, receiverAccount := first, second
	if firstLock != sender {
		senderAccount, receiverAccount = second, first
	}

	// The funds check happens here, under the lock. Any balance read before
	// the lock was taken is stale and must not be trusted.
	if senderAccount.Balance.LessThan(amount) {
		return nil, ErrInsufficientFunds
	}

	newSender := senderAccount.Balance.Sub(amount)
	newReceiver := receiverAccount.Balance.Add(amount)

	if err := s.store.UpdateBalance(tx, sender, newSender, senderAccount.Version); err != nil {
		return nil, err
	}
	if err := s.store.UpdateBalance(tx, receiver, newReceiver, receiverAccount.Version); err != nil {
		return nil, err
	}

	record := &models.Transaction{
		ReferenceID: uuid.NewString(),
		Sender:      sender,
		Receiver:    receiver,
		Amount:      amount,
	}
	if _, err := s.ledger.Append(tx, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transfer: %w", err)
	}

	s.audit.LogTransfer(record.ReferenceID, sender, receiver, amount.StringFixed(2), "SUCCESS")

	return &models.TransferResult{
		Success:  true,
		Message:  fmt.Sprintf("Transferred $%s to %s successfully!", amount.StringFixed(2), receiver),
		Amount:   amount,
		Receiver: receiver,
	}, nil
}

// History returns transfers involving the card, most recent first, clamped
// to the configured limits.
func (s *TransferService) History(ctx context.Context, cardNumber string, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = s.cfg.HistoryDefaultLimit
	}
	if limit > s.cfg.HistoryMaxLimit {
		limit = s.cfg.HistoryMaxLimit
	}
	return s.ledger.History(ctx, cardNumber, limit)
}

func notFoundFor(locked, sender string) error {
	if locked == sender {
		return ErrSenderNotFound
	}
	return ErrReceiverNotFound
}

func mapLockError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "55P03", "57014": // lock_not_available, query_canceled
			return ErrTransferBusy
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTransferBusy
	}
	return err
}

func isDeadlock(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "40P01"
}
