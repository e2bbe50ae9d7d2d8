package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/abolfazlyousefi5/Bank-App/internal/middleware"
	"github.com/abolfazlyousefi5/Bank-App/internal/models"
	"github.com/abolfazlyousefi5/Bank-App/internal/services"
)

type AccountHandler struct {
	accounts *services.AccountService
}

func NewAccountHandler(accounts *services.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type LoginRequest struct {
	CardNumber string `json:"cardNumber"`
	PIN        string `json:"pin"`
}

type RegisterResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	CardNumber string `json:"cardNumber,omitempty"`
}

type LoginResponse struct {
	Success bool            `json:"success"`
	Token   string          `json:"token,omitempty"`
	Account *models.Account `json:"account,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Register creates a new account
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Registration attempt from IP: %s", r.RemoteAddr)

	var req services.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.accounts.Register(r.Context(), &req)
	if err != nil {
		h.registerError(w, err)
		return
	}

	log.Printf("[AUTH] Account created with card %s", result.CardNumber)
	writeJSON(w, http.StatusCreated, RegisterResponse{
		Success:    true,
		Message:    result.Message,
		CardNumber: result.CardNumber,
	})
}

func (h *AccountHandler) registerError(w http.ResponseWriter, err error) {
	var dup *services.DuplicateAccountError
	switch {
	case services.IsValidationError(err):
		services.SendErrorResponse(w, "Validation failed", "INVALID_INPUT", http.StatusBadRequest, err)
	case errors.As(err, &dup):
		// Idempotent discovery: surface the card issued the first time.
		writeJSON(w, http.StatusConflict, RegisterResponse{
			Success:    false,
			Message:    "Account already exists for this national ID or phone.",
			CardNumber: dup.CardNumber,
		})
	case errors.Is(err, services.ErrCardNumberExhausted):
		services.SendErrorResponse(w, "Could not allocate a card number", services.ReasonCode(err), http.StatusServiceUnavailable, nil)
	default:
		log.Printf("[AUTH] Registration failed: %v", err)
		services.SendErrorResponse(w, "Failed to create account", "INTERNAL", http.StatusInternalServerError, nil)
	}
}

// Login authenticates a card number and PIN and issues a session token
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Login attempt from IP: %s", r.RemoteAddr)

	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accounts.Authenticate(r.Context(), req.CardNumber, req.PIN)
	if err != nil {
		log.Printf("[AUTH] Login lookup failed: %v", err)
		services.SendErrorResponse(w, "An internal error occurred", "INTERNAL", http.StatusInternalServerError, nil)
		return
	}
	if account == nil {
		writeJSON(w, http.StatusUnauthorized, LoginResponse{
			Success: false,
			Message: "Invalid card number or PIN.",
		})
		return
	}

	token, err := middleware.GenerateToken(account.CardNumber)
	if err != nil {
		log.Printf("[AUTH] Token generation failed for card %s: %v", account.CardNumber, err)
		services.SendErrorResponse(w, "Failed to generate token", "INTERNAL", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] Login successful for card %s", account.CardNumber)
	writeJSON(w, http.StatusOK, LoginResponse{
		Success: true,
		Token:   token,
		Account: account,
	})
}

// Logout revokes the presented session token
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		services.SendErrorResponse(w, "Authorization header required", "INVALID_INPUT", http.StatusBadRequest, nil)
		return
	}

	if err := middleware.RevokeToken(r.Context(), parts[1]); err != nil {
		log.Printf("[AUTH] Token revocation failed: %v", err)
		services.SendErrorResponse(w, "Failed to log out", "INTERNAL", http.StatusInternalServerError, nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out."})
}

// decodeJSON reads a single strict JSON object into dst, answering the
// request itself when the body is malformed.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		services.SendErrorResponse(w, "Invalid request body", "INVALID_INPUT", http.StatusBadRequest, nil)
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", "INVALID_INPUT", http.StatusBadRequest, nil)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}
