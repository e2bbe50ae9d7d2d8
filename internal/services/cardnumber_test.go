package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestCardNumberAllocator_Generate(t *testing.T) {
	t.Run("generates a 16-digit number with the prefix", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		allocator := NewCardNumberAllocator(db, 20)

		mock.ExpectQuery("SELECT 1 FROM accounts WHERE card_number = \\$1").
			WillReturnError(sql.ErrNoRows)

		cardNumber, err := allocator.Generate(context.Background(), "58598311")
		assert.NoError(t, err)
		assert.Len(t, cardNumber, 16)
		assert.Regexp(t, `^58598311\d{8}$`, cardNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("retries on collision until a free number is found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		allocator := NewCardNumberAllocator(db, 20)

		mock.ExpectQuery("SELECT 1 FROM accounts WHERE card_number = \\$1").
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
		mock.ExpectQuery("SELECT 1 FROM accounts WHERE card_number = \\$1").
			WillReturnError(sql.ErrNoRows)

		cardNumber, err := allocator.Generate(context.Background(), "58598311")
		assert.NoError(t, err)
		assert.Regexp(t, `^58598311\d{8}$`, cardNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("gives up after the retry cap", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		allocator := NewCardNumberAllocator(db, 3)

		for i := 0; i < 3; i++ {
			mock.ExpectQuery("SELECT 1 FROM accounts WHERE card_number = \\$1").
				WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
		}

		cardNumber, err := allocator.Generate(context.Background(), "58598311")
		assert.Empty(t, cardNumber)
		assert.ErrorIs(t, err, ErrCardNumberExhausted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects bad prefixes", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		allocator := NewCardNumberAllocator(db, 20)

		for _, prefix := range []string{"", "58a98311", "1234567890123456", "12345678901234567"} {
			cardNumber, err := allocator.Generate(context.Background(), prefix)
			assert.Empty(t, cardNumber, "prefix %q", prefix)
			assert.ErrorIs(t, err, ErrInvalidPrefix, "prefix %q", prefix)
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
