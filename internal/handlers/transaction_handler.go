package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/abolfazlyousefi5/Bank-App/internal/middleware"
	"github.com/abolfazlyousefi5/Bank-App/internal/services"
)

type TransactionHandler struct {
	transfers *services.TransferService
	validator *services.ValidationHelper
}

func NewTransactionHandler(transfers *services.TransferService) *TransactionHandler {
	return &TransactionHandler{
		transfers: transfers,
		validator: services.NewValidationHelper(),
	}
}

// TransferRequest carries one money movement. Amount is a decimal string so
// the value reaches the engine exactly as the caller wrote it.
type TransferRequest struct {
	Receiver string `json:"receiver" validate:"required,len=16,number"`
	Amount   string `json:"amount" validate:"required"`
}

// Transfer moves money from the authenticated card to the receiver
func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	sender, ok := r.Context().Value(middleware.CardNumberKey).(string)
	if !ok || sender == "" {
		services.SendErrorResponse(w, "Authentication required", "UNAUTHORIZED", http.StatusUnauthorized, nil)
		return
	}

	var req TransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", "INVALID_INPUT", http.StatusBadRequest, err)
		return
	}

	result, err := h.transfers.Transfer(r.Context(), sender, req.Receiver, req.Amount)
	if err != nil {
		h.transferError(w, sender, err)
		return
	}

	log.Printf("[TRANSFER] %s -> %s amount %s", sender, result.Receiver, result.Amount.StringFixed(2))
	writeJSON(w, http.StatusOK, result)
}

func (h *TransactionHandler) transferError(w http.ResponseWriter, sender string, err error) {
	code := services.ReasonCode(err)
	switch {
	case errors.Is(err, services.ErrInvalidAmount), errors.Is(err, services.ErrSelfTransfer):
		services.SendErrorResponse(w, err.Error(), code, http.StatusBadRequest, nil)
	case errors.Is(err, services.ErrSenderNotFound), errors.Is(err, services.ErrReceiverNotFound):
		services.SendErrorResponse(w, err.Error(), code, http.StatusNotFound, nil)
	case errors.Is(err, services.ErrInsufficientFunds):
		services.SendErrorResponse(w, "Insufficient funds.", code, http.StatusUnprocessableEntity, nil)
	case errors.Is(err, services.ErrTransferBusy):
		w.Header().Set("Retry-After", "1")
		services.SendErrorResponse(w, "Transfer is busy, please retry.", code, http.StatusServiceUnavailable, nil)
	default:
		log.Printf("[TRANSFER] Transfer failed for %s: %v", sender, err)
		services.SendErrorResponse(w, "Transfer failed", "INTERNAL", http.StatusInternalServerError, nil)
	}
}

// History lists transfers involving the authenticated card, most recent first
func (h *TransactionHandler) History(w http.ResponseWriter, r *http.Request) {
	cardNumber, ok := r.Context().Value(middleware.CardNumberKey).(string)
	if !ok || cardNumber == "" {
		services.SendErrorResponse(w, "Authentication required", "UNAUTHORIZED", http.StatusUnauthorized, nil)
		return
	}

	limit := 0
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed < 0 {
			services.SendErrorResponse(w, "limit must be a non-negative integer", "INVALID_INPUT", http.StatusBadRequest, nil)
			return
		}
		limit = parsed
	}

	transactions, err := h.transfers.History(r.Context(), cardNumber, limit)
	if err != nil {
		log.Printf("[TRANSFER] History query failed for %s: %v", cardNumber, err)
		services.SendErrorResponse(w, "Failed to load transactions", "INTERNAL", http.StatusInternalServerError, nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"transactions": transactions,
	})
}
