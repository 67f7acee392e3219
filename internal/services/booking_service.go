package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/rail-booking-core/internal/database"
	"github.com/smarttransit/rail-booking-core/internal/models"
	"github.com/smarttransit/rail-booking-core/pkg/validator"
)

// ErrInvalidBookingRequest is returned for malformed booking input
var ErrInvalidBookingRequest = errors.New("invalid booking request")

// BookingConfig holds booking behaviour switches
type BookingConfig struct {
	// RequirePaymentOwner rejects payment of a ticket by anyone but its owner.
	// Off by default: historically any caller holding a ticket ID could pay it.
	RequirePaymentOwner bool
}

// SeatRequest describes one seat to book
type SeatRequest struct {
	TripID int64
	// SeatNumber is the explicit seat, or AnySeat for the lowest free one
	SeatNumber int
	Passenger  *models.PassengerDetails
	Services   *models.AdditionalServices
	Channel    string
}

// BookingService drives the ticket lifecycle: BOOKED -> PAID -> REFUNDED, or
// BOOKED -> CANCELLED. Every transition runs in one transaction together
// with the trip's seat counter.
type BookingService struct {
	store      database.Store
	seats      *SeatAllocator
	passengers *validator.PassengerValidator
	config     BookingConfig
	logger     *logrus.Logger
	now        func() time.Time
}

// NewBookingService creates a new booking service
func NewBookingService(store database.Store, seats *SeatAllocator, config BookingConfig, logger *logrus.Logger) *BookingService {
	return &BookingService{
		store:      store,
		seats:      seats,
		passengers: validator.NewPassengerValidator(),
		config:     config,
		logger:     logger,
		now:        time.Now,
	}
}

// BookTicket books the lowest free seat on a trip at the full fare
func (s *BookingService) BookTicket(ctx context.Context, userID uuid.UUID, tripID int64, channel string) (*models.Ticket, error) {
	return s.book(ctx, userID, SeatRequest{TripID: tripID, SeatNumber: AnySeat, Channel: channel})
}

// BookSeat books an explicit seat, applying passenger discounts
func (s *BookingService) BookSeat(ctx context.Context, userID uuid.UUID, req SeatRequest) (*models.Ticket, error) {
	if req.SeatNumber < 1 {
		return nil, fmt.Errorf("%w: seat %d", ErrSeatOutOfRange, req.SeatNumber)
	}
	return s.book(ctx, userID, req)
}

// BookTransfer books the legs of an itinerary one after another. Legs are
// not booked atomically: when a later leg fails the earlier tickets stay
// BOOKED and are reported in the returned *TransferBookingError.
func (s *BookingService) BookTransfer(ctx context.Context, userID uuid.UUID, legs []SeatRequest) ([]models.Ticket, error) {
	if len(legs) == 0 || len(legs) > 2 {
		return nil, fmt.Errorf("%w: an itinerary has one or two legs, got %d", ErrInvalidBookingRequest, len(legs))
	}

	booked := make([]models.Ticket, 0, len(legs))
	for i, leg := range legs {
		ticket, err := s.book(ctx, userID, leg)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"user_id":      userID,
				"trip_id":      leg.TripID,
				"leg":          i + 1,
				"legs_booked":  len(booked),
				"legs_pending": len(legs) - i,
			}).WithError(err).Warn("Transfer booking stopped part way")
			return booked, &TransferBookingError{Leg: i + 1, Booked: booked, Err: err}
		}
		booked = append(booked, *ticket)
	}
	return booked, nil
}

func (s *BookingService) book(ctx context.Context, userID uuid.UUID, req SeatRequest) (*models.Ticket, error) {
	channel := req.Channel
	if channel == "" {
		channel = models.ChannelUnknown
	}
	passenger, err := s.normalizePassenger(req.Passenger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBookingRequest, err)
	}

	var ticket *models.Ticket
	_, err = s.seats.Reserve(ctx, req.TripID, req.SeatNumber, func(tx database.BookingTx, hold SeatHold) error {
		now := s.now()
		t := &models.Ticket{
			ID:         uuid.New(),
			UserID:     userID,
			TripID:     hold.Trip.ID,
			SeatNumber: hold.Seat,
			Status:     models.TicketStatusBooked,
			Price:      Fare(hold.Trip, 1, passenger),
			Channel:    channel,
			Passenger:  passenger,
			Services:   req.Services,
			BookedAt:   now,
			UpdatedAt:  now,
		}
		if err := tx.SaveTicket(ctx, t); err != nil {
			return fmt.Errorf("failed to save ticket: %w", err)
		}
		ticket = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"ticket_id": ticket.ID,
		"user_id":   userID,
		"trip_id":   ticket.TripID,
		"seat":      ticket.SeatNumber,
		"price":     ticket.Price.String(),
		"channel":   channel,
	}).Info("Ticket booked")

	return ticket, nil
}

// PayTicket moves a BOOKED ticket to PAID and records a successful payment
// for its current price.
func (s *BookingService) PayTicket(ctx context.Context, ticketID, userID uuid.UUID) (*models.Payment, error) {
	ticket, err := s.lookupTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if s.config.RequirePaymentOwner && ticket.UserID != userID {
		return nil, ErrTicketNotFound
	}

	var payment *models.Payment
	err = s.seats.WithTrip(ctx, ticket.TripID, func(tx database.BookingTx, _ *models.Trip) error {
		current, err := tx.LookupTicket(ctx, ticketID)
		if err != nil {
			return fmt.Errorf("failed to get ticket: %w", err)
		}
		if current == nil {
			return ErrTicketNotFound
		}
		if current.Status != models.TicketStatusBooked {
			return fmt.Errorf("%w: cannot pay a %s ticket", ErrInvalidTransition, current.Status)
		}

		current.Status = models.TicketStatusPaid
		if err := tx.SaveTicket(ctx, current); err != nil {
			return fmt.Errorf("failed to save ticket: %w", err)
		}

		p := &models.Payment{
			ID:          uuid.New(),
			TicketID:    current.ID,
			Amount:      current.Price,
			Status:      models.PaymentStatusSuccess,
			ProcessedAt: s.now(),
		}
		if err := tx.SavePayment(ctx, p); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}
		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"ticket_id":  ticketID,
		"payment_id": payment.ID,
		"amount":     payment.Amount.String(),
		"payer_id":   userID,
		"owner_id":   ticket.UserID,
	}).Info("Ticket paid")

	return payment, nil
}

// Cancel cancels a BOOKED ticket or refunds a PAID one and frees its seat.
// A ticket owned by someone else is reported as not found.
func (s *BookingService) Cancel(ctx context.Context, ticketID, userID uuid.UUID) (*models.Ticket, error) {
	ticket, err := s.lookupTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.UserID != userID {
		return nil, ErrTicketNotFound
	}

	var updated *models.Ticket
	err = s.seats.Release(ctx, ticket.TripID, ticket.SeatNumber, func(tx database.BookingTx, _ *models.Trip) error {
		current, err := tx.LookupTicket(ctx, ticketID)
		if err != nil {
			return fmt.Errorf("failed to get ticket: %w", err)
		}
		if current == nil {
			return ErrTicketNotFound
		}

		switch current.Status {
		case models.TicketStatusBooked:
			current.Status = models.TicketStatusCancelled
		case models.TicketStatusPaid:
			current.Status = models.TicketStatusRefunded
		default:
			return fmt.Errorf("%w: ticket is already %s", ErrInvalidTransition, current.Status)
		}

		if err := tx.SaveTicket(ctx, current); err != nil {
			return fmt.Errorf("failed to save ticket: %w", err)
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"ticket_id": ticketID,
		"user_id":   userID,
		"trip_id":   updated.TripID,
		"seat":      updated.SeatNumber,
		"status":    updated.Status,
	}).Info("Ticket cancelled")

	return updated, nil
}

// TicketsForUser lists a user's tickets, newest first
func (s *BookingService) TicketsForUser(ctx context.Context, userID uuid.UUID) ([]models.Ticket, error) {
	tickets, err := s.store.LookupTicketsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// Ticket returns one of the user's tickets
func (s *BookingService) Ticket(ctx context.Context, ticketID, userID uuid.UUID) (*models.Ticket, error) {
	ticket, err := s.lookupTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.UserID != userID {
		return nil, ErrTicketNotFound
	}
	return ticket, nil
}

// AvailableSeats lists the free seats of a trip
func (s *BookingService) AvailableSeats(ctx context.Context, tripID int64) ([]int, error) {
	return s.seats.AvailableSeats(ctx, tripID)
}

// SeatMap describes every sellable seat of a trip
func (s *BookingService) SeatMap(ctx context.Context, tripID int64) ([]models.SeatView, error) {
	return s.seats.SeatMap(ctx, tripID)
}

func (s *BookingService) lookupTicket(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error) {
	ticket, err := s.store.LookupTicket(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	return ticket, nil
}

func (s *BookingService) normalizePassenger(p *models.PassengerDetails) (*models.PassengerDetails, error) {
	if p == nil {
		return nil, nil
	}
	out := *p
	name, doc, loyalty, err := s.passengers.Fields(p.FullName, p.DocumentNumber, p.LoyaltyNumber)
	if err != nil {
		return nil, err
	}
	out.FullName, out.DocumentNumber, out.LoyaltyNumber = name, doc, loyalty
	out.BenefitType = models.BenefitLabel(p.BenefitType)
	return &out, nil
}
