package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

type contextKey string

// CardNumberKey is the request-context key carrying the authenticated card.
const CardNumberKey contextKey = "cardNumber"

var redisClient *redis.Client

// InitAuthMiddleware wires the Redis client used for token revocation.
// A nil client disables revocation checks.
func InitAuthMiddleware(client *redis.Client) {
	redisClient = client
}

func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		token := parts[1]

		if isRevoked(r.Context(), token) {
			http.Error(w, "Token has been revoked", http.StatusUnauthorized)
			return
		}

		cardNumber, err := validateToken(token)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), CardNumberKey, cardNumber)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GenerateToken issues a signed JWT for the card number.
func GenerateToken(cardNumber string) (string, error) {
	viper.SetDefault("jwt.expiry_hours", 24)

	claims := jwt.MapClaims{
		"card_number": cardNumber,
		"exp":         time.Now().Add(time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour).Unix(),
		"iat":         time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(viper.GetString("jwt.secret_key")))
}

// RevokeToken marks a token as logged out until it would have expired anyway.
func RevokeToken(ctx context.Context, token string) error {
	if redisClient == nil {
		return nil
	}
	viper.SetDefault("jwt.expiry_hours", 24)
	ttl := time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour
	return redisClient.Set(ctx, revocationKey(token), "revoked", ttl).Err()
}

func isRevoked(ctx context.Context, token string) bool {
	if redisClient == nil {
		return false
	}
	_, err := redisClient.Get(ctx, revocationKey(token)).Result()
	return err == nil
}

func revocationKey(token string) string {
	return "session:revoked:" + token
}

func validateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(viper.GetString("jwt.secret_key")), nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	cardNumber, ok := claims["card_number"].(string)
	if !ok || cardNumber == "" {
		return "", fmt.Errorf("token missing card number")
	}
	return cardNumber, nil
}
