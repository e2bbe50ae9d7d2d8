package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/abolfazlyousefi5/Bank-App/internal/audit"
	"github.com/abolfazlyousefi5/Bank-App/internal/config"
	"github.com/abolfazlyousefi5/Bank-App/internal/models"
)

// Accounts are inserted with at most this many fresh card numbers before the
// registration gives up. Each attempt only collides if another registration
// committed the same candidate between our pre-check and insert.
const maxInsertAttempts = 3

// RegisterRequest carries the validated identity fields for a new account.
type RegisterRequest struct {
	FirstName  string `json:"firstName" validate:"required,min=2"`
	LastName   string `json:"lastName" validate:"required,min=2"`
	Phone      string `json:"phone" validate:"required,len=11,number,startswith=09"`
	NationalID string `json:"nationalId" validate:"required,len=10,number"`
	Address    string `json:"address" validate:"max=200"`
	PIN        string `json:"pin" validate:"required,len=4,number"`
}

// RegisterResult reports a successful registration.
type RegisterResult struct {
	CardNumber string
	Message    string
}

// AccountService creates accounts and authenticates login attempts.
type AccountService struct {
	db        *sql.DB
	store     *AccountStore
	allocator *CardNumberAllocator
	validator *ValidationHelper
	audit     *audit.Logger
	cfg       *config.BankConfig
}

func NewAccountService(db *sql.DB, cfg *config.BankConfig) *AccountService {
	return &AccountService{
		db:        db,
		store:     NewAccountStore(db),
		allocator: NewCardNumberAllocator(db, cfg.AllocationMaxRetries),
		validator: NewValidationHelper(),
		audit:     audit.NewLogger(),
		cfg:       cfg,
	}
}

// Register creates a new account with a freshly allocated card number and a
// zero balance. Registering an identity that is already on file is idempotent
// discovery: the existing card number comes back in a DuplicateAccountError.
func (s *AccountService) Register(ctx context.Context, req *RegisterRequest) (*RegisterResult, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	// Friendly fast path; the unique constraints on phone and national_id
	// are what actually closes the check-then-act race.
	existing, err := s.store.FindByIdentity(ctx, req.Phone, req.NationalID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &DuplicateAccountError{CardNumber: existing.CardNumber}
	}

	pinHash, err := hashPIN(req.PIN)
	if err != nil {
		return nil, fmt.Errorf("hash PIN: %w", err)
	}

	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		cardNumber, err := s.allocator.Generate(ctx, s.cfg.CardPrefix)
		if err != nil {
			return nil, err
		}

		err = s.insertAccount(ctx, req, cardNumber, pinHash)
		if errors.Is(err, ErrDuplicateCardNumber) {
			log.Printf("[ACCOUNTS] Card number %s lost the insert race, reallocating", cardNumber)
			continue
		}
		if errors.Is(err, ErrDuplicateIdentity) {
			// A concurrent registration with the same identity won; report
			// the card it was issued.
			winner, findErr := s.store.FindByIdentity(ctx, req.Phone, req.NationalID)
			if findErr == nil && winner != nil {
				return nil, &DuplicateAccountError{CardNumber: winner.CardNumber}
			}
			return nil, ErrDuplicateIdentity
		}
		if err != nil {
			return nil, err
		}

		s.audit.LogRegistration(cardNumber, "SUCCESS")
		return &RegisterResult{
			CardNumber: cardNumber,
			Message:    "Account created successfully.",
		}, nil
	}

	return nil, ErrCardNumberExhausted
}

func (s *AccountService) insertAccount(ctx context.Context, req *RegisterRequest, cardNumber, pinHash string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registration: %w", err)
	}
	defer tx.Rollback()

	_, err = s.store.Insert(tx, &models.Account{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		NationalID: req.NationalID,
		Address:    req.Address,
		CardNumber: cardNumber,
		PINHash:    pinHash,
		Balance:    decimal.Zero,
	})
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Authenticate looks up the card and checks the PIN. A mismatch or unknown
// card returns (nil, nil): absence of a match is a normal outcome here, not
// a failure. The returned account never carries the credential.
func (s *AccountService) Authenticate(ctx context.Context, cardNumber, pin string) (*models.Account, error) {
	if cardNumber == "" || pin == "" {
		return nil, nil
	}

	account, err := s.store.FindByCardNumber(ctx, cardNumber)
	if err != nil {
		return nil, err
	}
	if account == nil || !verifyPIN(pin, account.PINHash) {
		return nil, nil
	}

	account.PINHash = ""
	return account, nil
}
