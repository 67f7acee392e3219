package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/smarttransit/rail-booking-core/internal/models"
)

// TripReader is the read side of the schedule. Every Trip comes back with its
// Route, Train and Stations already joined. Lookups by ID return (nil, nil)
// when the record does not exist; window lookups are ordered by departure time
// and include both bounds.
type TripReader interface {
	LookupTrip(ctx context.Context, id int64) (*models.Trip, error)
	LookupTripsByOriginInWindow(ctx context.Context, originID int64, from, to time.Time) ([]models.Trip, error)
	LookupTripsByOriginDestinationInWindow(ctx context.Context, originID, destinationID int64, from, to time.Time) ([]models.Trip, error)
}

// BookingTx is a unit of work spanning the trip counter update and the
// ticket/payment writes. Nothing written through it is visible to other
// transactions until it commits.
type BookingTx interface {
	// LockTrip reads a trip for update. Implementations backed by a shared
	// database hold a row lock on the trip until the transaction ends.
	LockTrip(ctx context.Context, id int64) (*models.Trip, error)
	OccupiedSeats(ctx context.Context, tripID int64) ([]int, error)
	LookupTicket(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	SaveTrip(ctx context.Context, trip *models.Trip) error
	SaveTicket(ctx context.Context, ticket *models.Ticket) error
	SavePayment(ctx context.Context, payment *models.Payment) error
}

// Store is the record store consumed by the booking core
type Store interface {
	TripReader

	LookupTicket(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	LookupTicketsByUser(ctx context.Context, userID uuid.UUID) ([]models.Ticket, error)
	// OccupiedSeats returns the ascending seat numbers held by BOOKED or PAID tickets
	OccupiedSeats(ctx context.Context, tripID int64) ([]int, error)

	// WithinTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithinTx(ctx context.Context, fn func(tx BookingTx) error) error

	Ping(ctx context.Context) error
}
