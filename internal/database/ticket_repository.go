package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/smarttransit/rail-booking-core/internal/models"
)

// TicketRepository handles ticket database operations
type TicketRepository struct {
	db sqlx.ExtContext
}

// NewTicketRepository creates a new TicketRepository
func NewTicketRepository(db sqlx.ExtContext) *TicketRepository {
	return &TicketRepository{db: db}
}

const ticketColumns = `
	id, user_id, trip_id, seat_number, status, price, channel,
	passenger, services, booked_at, updated_at`

// GetByID retrieves a ticket by ID. Returns nil, nil if it does not exist.
func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	ticket := &models.Ticket{}
	err := sqlx.GetContext(ctx, r.db, ticket, `SELECT`+ticketColumns+` FROM tickets WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return ticket, nil
}

// ListByUser returns a user's tickets, newest first
func (r *TicketRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Ticket, error) {
	tickets := []models.Ticket{}
	err := sqlx.SelectContext(ctx, r.db, &tickets,
		`SELECT`+ticketColumns+` FROM tickets WHERE user_id = $1 ORDER BY booked_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// OccupiedSeats returns seat numbers held by BOOKED or PAID tickets of a trip
func (r *TicketRepository) OccupiedSeats(ctx context.Context, tripID int64) ([]int, error) {
	seats := []int{}
	err := sqlx.SelectContext(ctx, r.db, &seats, `
		SELECT seat_number
		FROM tickets
		WHERE trip_id = $1 AND status IN ($2, $3)
		ORDER BY seat_number`,
		tripID, models.TicketStatusBooked, models.TicketStatusPaid)
	if err != nil {
		return nil, fmt.Errorf("failed to get occupied seats: %w", err)
	}
	return seats, nil
}

// Save inserts a ticket or updates its mutable fields
func (r *TicketRepository) Save(ctx context.Context, ticket *models.Ticket) error {
	query := `
		INSERT INTO tickets (
			id, user_id, trip_id, seat_number, status, price, channel,
			passenger, services, booked_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			price = EXCLUDED.price,
			passenger = EXCLUDED.passenger,
			services = EXCLUDED.services,
			updated_at = NOW()
		RETURNING updated_at`

	err := sqlx.GetContext(ctx, r.db, &ticket.UpdatedAt, query,
		ticket.ID, ticket.UserID, ticket.TripID, ticket.SeatNumber, ticket.Status,
		ticket.Price, ticket.Channel, ticket.Passenger, ticket.Services, ticket.BookedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save ticket: %w", err)
	}
	return nil
}
