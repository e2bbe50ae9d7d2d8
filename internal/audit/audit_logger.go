package audit

import (
	"encoding/json"
	"log"
	"time"
)

type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	EventType   string    `json:"event_type"`
	ReferenceID string    `json:"reference_id"`
	CardNumber  string    `json:"card_number,omitempty"`
	Amount      string    `json:"amount,omitempty"`
	Status      string    `json:"status"`
	Details     any       `json:"details,omitempty"`
}

type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

func (a *Logger) LogTransfer(referenceID, sender, receiver, amount, status string) {
	a.log(Event{
		Timestamp:   time.Now(),
		EventType:   "TRANSFER",
		ReferenceID: referenceID,
		Amount:      amount,
		Status:      status,
		Details: map[string]string{
			"sender":   sender,
			"receiver": receiver,
		},
	})
}

func (a *Logger) LogRegistration(cardNumber, status string) {
	a.log(Event{
		Timestamp:  time.Now(),
		EventType:  "REGISTRATION",
		CardNumber: cardNumber,
		Status:     status,
	})
}

func (a *Logger) LogError(referenceID, cardNumber string, err error) {
	a.log(Event{
		Timestamp:   time.Now(),
		EventType:   "ERROR",
		ReferenceID: referenceID,
		CardNumber:  cardNumber,
		Status:      "FAILED",
		Details:     map[string]string{"error": err.Error()},
	})
}

func (a *Logger) log(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[AUDIT] failed to marshal event: %v", err)
		return
	}
	log.Printf("[AUDIT] %s", data)
}
