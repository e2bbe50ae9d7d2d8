package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/abolfazlyousefi5/Bank-App/internal/models"
)

var noRowsErr = sql.ErrNoRows

func duplicateKeyError(constraint string) *pq.Error {
	return &pq.Error{
		Code:       "23505",
		Constraint: constraint,
		Message:    "duplicate key value violates unique constraint",
	}
}

func TestAccountStore_LockForUpdate(t *testing.T) {
	cardNumber := "5859831100000001"

	t.Run("existing account", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		store := NewAccountStore(db)

		mock.ExpectBegin()
		tx, _ := db.Begin()

		mock.ExpectQuery("SELECT id, card_number, balance, version FROM accounts WHERE card_number = \\$1 FOR UPDATE").
			WithArgs(cardNumber).
			WillReturnRows(sqlmock.NewRows([]string{"id", "card_number", "balance", "version"}).
				AddRow(1, cardNumber, "100.00", 4))

		account, err := store.LockForUpdate(tx, cardNumber)
		assert.NoError(t, err)
		assert.Equal(t, cardNumber, account.CardNumber)
		assert.Equal(t, "100.00", account.Balance.StringFixed(2))
		assert.Equal(t, 4, account.Version)
	})

	t.Run("missing account returns nil without error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		store := NewAccountStore(db)

		mock.ExpectBegin()
		tx, _ := db.Begin()

		mock.ExpectQuery("SELECT id, card_number, balance, version FROM accounts WHERE card_number = \\$1 FOR UPDATE").
			WithArgs(cardNumber).
			WillReturnError(sql.ErrNoRows)

		account, err := store.LockForUpdate(tx, cardNumber)
		assert.NoError(t, err)
		assert.Nil(t, account)
	})
}

func TestAccountStore_UpdateBalance(t *testing.T) {
	cardNumber := "5859831100000001"

	t.Run("successful update", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		store := NewAccountStore(db)

		mock.ExpectBegin()
		tx, _ := db.Begin()

		mock.ExpectExec("UPDATE accounts SET balance = \\$1, version = version \\+ 1, updated_at = \\$2 WHERE card_number = \\$3 AND version = \\$4").
			WithArgs("40.00", sqlmock.AnyArg(), cardNumber, 4).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = store.UpdateBalance(tx, cardNumber, decimal.RequireFromString("40.00"), 4)
		assert.NoError(t, err)
	})

	t.Run("stale write is detected", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		store := NewAccountStore(db)

		mock.ExpectBegin()
		tx, _ := db.Begin()

		mock.ExpectExec("UPDATE accounts SET balance").
			WithArgs("40.00", sqlmock.AnyArg(), cardNumber, 4).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = store.UpdateBalance(tx, cardNumber, decimal.RequireFromString("40.00"), 4)
		assert.ErrorIs(t, err, ErrStaleWrite)
	})
}

func TestAccountStore_Insert(t *testing.T) {
	account := &models.Account{
		FirstName:  "John",
		LastName:   "Doe",
		Phone:      "09120000001",
		NationalID: "1234567890",
		Address:    "12 Main St",
		CardNumber: "5859831100000001",
		PINHash:    "hash",
		Balance:    decimal.Zero,
	}

	t.Run("card number constraint maps to its sentinel", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		store := NewAccountStore(db)

		mock.ExpectBegin()
		tx, _ := db.Begin()

		mock.ExpectQuery("INSERT INTO accounts").
			WillReturnError(duplicateKeyError("accounts_card_number_key"))

		_, err = store.Insert(tx, account)
		assert.ErrorIs(t, err, ErrDuplicateCardNumber)
	})

	t.Run("identity constraints map to duplicate identity", func(t *testing.T) {
		for _, constraint := range []string{"accounts_phone_key", "accounts_national_id_key"} {
			db, mock, err := sqlmock.New()
			assert.NoError(t, err)

			store := NewAccountStore(db)

			mock.ExpectBegin()
			tx, _ := db.Begin()

			mock.ExpectQuery("INSERT INTO accounts").
				WillReturnError(duplicateKeyError(constraint))

			_, err = store.Insert(tx, account)
			assert.ErrorIs(t, err, ErrDuplicateIdentity, constraint)
			db.Close()
		}
	})
}

func TestAccountStore_FindByIdentity(t *testing.T) {
	t.Run("matches on either phone or national ID", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		store := NewAccountStore(db)

		mock.ExpectQuery("SELECT (.+) FROM accounts WHERE phone = \\$1 OR national_id = \\$2 LIMIT 1").
			WithArgs("09120000001", "1234567890").
			WillReturnRows(accountRows("5859831100000001", "09120000001", "1234567890", "hash", "0.00"))

		account, err := store.FindByIdentity(context.Background(), "09120000001", "1234567890")
		assert.NoError(t, err)
		assert.Equal(t, "5859831100000001", account.CardNumber)
		assert.True(t, account.Balance.IsZero())
	})

	t.Run("no match returns nil without error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		store := NewAccountStore(db)

		mock.ExpectQuery("SELECT (.+) FROM accounts WHERE phone = \\$1 OR national_id = \\$2 LIMIT 1").
			WithArgs("09120000001", "1234567890").
			WillReturnError(sql.ErrNoRows)

		account, err := store.FindByIdentity(context.Background(), "09120000001", "1234567890")
		assert.NoError(t, err)
		assert.Nil(t, account)
	})
}
