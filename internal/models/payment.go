package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the outcome of a payment
type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// Payment records money taken for a ticket
type Payment struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	TicketID    uuid.UUID     `json:"ticket_id" db:"ticket_id"`
	Amount      Money         `json:"amount" db:"amount"`
	Status      PaymentStatus `json:"status" db:"status"`
	ProcessedAt time.Time     `json:"processed_at" db:"processed_at"`
}
