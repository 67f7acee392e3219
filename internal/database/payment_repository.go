package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/smarttransit/rail-booking-core/internal/models"
)

// PaymentRepository handles payment database operations
type PaymentRepository struct {
	db sqlx.ExtContext
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db sqlx.ExtContext) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a payment record
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (id, ticket_id, amount, status, processed_at)
		VALUES ($1, $2, $3, $4, $5)`,
		payment.ID, payment.TicketID, payment.Amount, payment.Status, payment.ProcessedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}
