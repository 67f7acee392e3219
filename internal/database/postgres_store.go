package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/smarttransit/rail-booking-core/internal/models"
)

// PostgresStore implements Store on top of PostgreSQL
type PostgresStore struct {
	db       *sqlx.DB
	location *time.Location
	trips    *TripRepository
	tickets  *TicketRepository
}

// NewPostgresStore creates a new PostgresStore. Trips are read back in location
// so weekday pricing and time-of-day filters use the service's zone.
func NewPostgresStore(db *sqlx.DB, location *time.Location) *PostgresStore {
	return &PostgresStore{
		db:       db,
		location: location,
		trips:    NewTripRepository(db, location),
		tickets:  NewTicketRepository(db),
	}
}

// LookupTrip implements TripReader
func (s *PostgresStore) LookupTrip(ctx context.Context, id int64) (*models.Trip, error) {
	return s.trips.GetByID(ctx, id)
}

// LookupTripsByOriginInWindow implements TripReader
func (s *PostgresStore) LookupTripsByOriginInWindow(ctx context.Context, originID int64, from, to time.Time) ([]models.Trip, error) {
	return s.trips.ListByOriginInWindow(ctx, originID, from, to)
}

// LookupTripsByOriginDestinationInWindow implements TripReader
func (s *PostgresStore) LookupTripsByOriginDestinationInWindow(ctx context.Context, originID, destinationID int64, from, to time.Time) ([]models.Trip, error) {
	return s.trips.ListByOriginDestinationInWindow(ctx, originID, destinationID, from, to)
}

// LookupTicket implements Store
func (s *PostgresStore) LookupTicket(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	return s.tickets.GetByID(ctx, id)
}

// LookupTicketsByUser implements Store
func (s *PostgresStore) LookupTicketsByUser(ctx context.Context, userID uuid.UUID) ([]models.Ticket, error) {
	return s.tickets.ListByUser(ctx, userID)
}

// OccupiedSeats implements Store
func (s *PostgresStore) OccupiedSeats(ctx context.Context, tripID int64) ([]int, error) {
	return s.tickets.OccupiedSeats(ctx, tripID)
}

// Ping checks the database connection
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithinTx implements Store
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx BookingTx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(newPostgresTx(tx, s.location)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// postgresTx implements BookingTx inside one database transaction
type postgresTx struct {
	trips    *TripRepository
	tickets  *TicketRepository
	payments *PaymentRepository
}

func newPostgresTx(tx *sqlx.Tx, location *time.Location) *postgresTx {
	return &postgresTx{
		trips:    NewTripRepository(tx, location),
		tickets:  NewTicketRepository(tx),
		payments: NewPaymentRepository(tx),
	}
}

func (t *postgresTx) LockTrip(ctx context.Context, id int64) (*models.Trip, error) {
	return t.trips.GetByIDForUpdate(ctx, id)
}

func (t *postgresTx) OccupiedSeats(ctx context.Context, tripID int64) ([]int, error) {
	return t.tickets.OccupiedSeats(ctx, tripID)
}

func (t *postgresTx) LookupTicket(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	return t.tickets.GetByID(ctx, id)
}

func (t *postgresTx) SaveTrip(ctx context.Context, trip *models.Trip) error {
	return t.trips.UpdateSeatsAvailable(ctx, trip)
}

func (t *postgresTx) SaveTicket(ctx context.Context, ticket *models.Ticket) error {
	return t.tickets.Save(ctx, ticket)
}

func (t *postgresTx) SavePayment(ctx context.Context, payment *models.Payment) error {
	return t.payments.Create(ctx, payment)
}
