package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestAuthMiddleware(t *testing.T) {
	viper.Set("jwt.secret_key", "test-secret")
	viper.Set("jwt.expiry_hours", 24)
	InitAuthMiddleware(nil)

	cardNumber := "5859831112345678"

	nextHandler := func(captured *string) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if card, ok := r.Context().Value(CardNumberKey).(string); ok {
				*captured = card
			}
			w.WriteHeader(http.StatusOK)
		})
	}

	t.Run("valid token passes the card number through", func(t *testing.T) {
		token, err := GenerateToken(cardNumber)
		assert.NoError(t, err)

		var captured string
		r := httptest.NewRequest("GET", "/api/v1/transactions", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		AuthMiddleware(nextHandler(&captured)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, cardNumber, captured)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		var captured string
		r := httptest.NewRequest("GET", "/api/v1/transactions", nil)
		w := httptest.NewRecorder()

		AuthMiddleware(nextHandler(&captured)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, captured)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		var captured string
		r := httptest.NewRequest("GET", "/api/v1/transactions", nil)
		r.Header.Set("Authorization", "Bearer not-a-token")
		w := httptest.NewRecorder()

		AuthMiddleware(nextHandler(&captured)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, captured)
	})

	t.Run("revoked token is rejected", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		InitAuthMiddleware(client)
		defer InitAuthMiddleware(nil)

		token, err := GenerateToken(cardNumber)
		assert.NoError(t, err)

		mock.ExpectGet("session:revoked:" + token).SetVal("revoked")

		var captured string
		r := httptest.NewRequest("GET", "/api/v1/transactions", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		AuthMiddleware(nextHandler(&captured)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, captured)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("logout revocation round trip", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		InitAuthMiddleware(client)
		defer InitAuthMiddleware(nil)

		token, err := GenerateToken(cardNumber)
		assert.NoError(t, err)

		mock.ExpectSet("session:revoked:"+token, "revoked", 24*time.Hour).SetVal("OK")

		err = RevokeToken(httptest.NewRequest("POST", "/api/v1/auth/logout", nil).Context(), token)
		assert.NoError(t, err)
	})
}
