package services

import (
	"errors"
	"fmt"

	"github.com/smarttransit/rail-booking-core/internal/models"
)

var (
	// ErrNotFound is wrapped by every lookup failure so callers can match on it
	ErrNotFound = errors.New("not found")

	ErrTripNotFound   = fmt.Errorf("trip %w", ErrNotFound)
	ErrTicketNotFound = fmt.Errorf("ticket %w", ErrNotFound)

	ErrNoSeatsAvailable        = errors.New("no seats available")
	ErrSeatOutOfRange          = errors.New("seat number out of range")
	ErrSeatTaken               = errors.New("seat already taken")
	ErrInvalidSearchParameters = errors.New("invalid search parameters")
	ErrInvalidTransition       = errors.New("invalid ticket status transition")
)

// TransferBookingError reports a two-leg booking that stopped part way.
// Booked holds the tickets that were created before the failing leg; they
// are not rolled back.
type TransferBookingError struct {
	Leg    int
	Booked []models.Ticket
	Err    error
}

func (e *TransferBookingError) Error() string {
	return fmt.Sprintf("failed to book leg %d of transfer: %v", e.Leg, e.Err)
}

func (e *TransferBookingError) Unwrap() error {
	return e.Err
}
