package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/smarttransit/rail-booking-core/internal/database"
	"github.com/smarttransit/rail-booking-core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBookingTest(t *testing.T, config BookingConfig, trips ...models.Trip) (*BookingService, *database.MemoryStore) {
	t.Helper()
	store := seedStore(t, trips...)
	service := NewBookingService(store, NewSeatAllocator(store, testLogger()), config, testLogger())
	service.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return service, store
}

// assertSeatInvariant checks that the counter matches the number of seat-holding tickets
func assertSeatInvariant(t *testing.T, store *database.MemoryStore, tripID int64) {
	t.Helper()
	ctx := context.Background()

	trip, err := store.LookupTrip(ctx, tripID)
	require.NoError(t, err)
	occupied, err := store.OccupiedSeats(ctx, tripID)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, trip.SeatsAvailable, 0)
	assert.LessOrEqual(t, trip.SeatsAvailable, trip.EffectiveCapacity())
	assert.Equal(t, trip.EffectiveCapacity()-trip.SeatsAvailable, len(occupied))
}

func TestBookingService_SingleSeatLifecycle(t *testing.T) {
	ctx := context.Background()
	trip := newTrip(tripSpec{id: 1, from: minsk, to: orsha, dep: at(friday, 8, 0), arr: at(friday, 10, 0), price: models.NewMoney(20, 0), capacity: 1})
	service, store := setupBookingTest(t, BookingConfig{}, trip)
	userID := uuid.New()

	first, err := service.BookTicket(ctx, userID, 1, models.ChannelWeb)
	require.NoError(t, err)
	assert.Equal(t, 1, first.SeatNumber)
	assert.Equal(t, models.TicketStatusBooked, first.Status)
	assert.Equal(t, models.NewMoney(20, 0), first.Price)
	assertSeatInvariant(t, store, 1)

	_, err = service.BookTicket(ctx, uuid.New(), 1, models.ChannelWeb)
	assert.ErrorIs(t, err, ErrNoSeatsAvailable)

	cancelled, err := service.Cancel(ctx, first.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusCancelled, cancelled.Status)

	got, err := store.LookupTrip(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.SeatsAvailable)

	third, err := service.BookTicket(ctx, uuid.New(), 1, models.ChannelMobile)
	require.NoError(t, err)
	assert.Equal(t, 1, third.SeatNumber)
	assertSeatInvariant(t, store, 1)
}

func TestBookingService_BookSeat(t *testing.T) {
	ctx := context.Background()
	weekend := friday.AddDate(0, 0, 1)
	trip := newTrip(tripSpec{id: 1, from: minsk, to: orsha, dep: at(weekend, 8, 0), arr: at(weekend, 10, 0), price: models.NewMoney(10, 0), capacity: 10})
	service, store := setupBookingTest(t, BookingConfig{}, trip)
	userID := uuid.New()

	t.Run("Benefit Discount On Weekend Fare", func(t *testing.T) {
		ticket, err := service.BookSeat(ctx, userID, SeatRequest{
			TripID:     1,
			SeatNumber: 7,
			Passenger:  &models.PassengerDetails{FullName: " Anna  Petrova", DocumentNumber: "mp 123-4567", BenefitType: "student"},
			Services:   &models.AdditionalServices{MealOption: "vegetarian", BaggageSelected: true},
		})
		require.NoError(t, err)

		assert.Equal(t, 7, ticket.SeatNumber)
		// 10.00 * 1.15 * 0.80
		assert.Equal(t, models.NewMoney(9, 20), ticket.Price)
		assert.Equal(t, "Student", ticket.Passenger.BenefitType)
		assert.Equal(t, "Anna Petrova", ticket.Passenger.FullName)
		assert.Equal(t, "MP1234567", ticket.Passenger.DocumentNumber)
		assert.Equal(t, "vegetarian", ticket.Services.MealOption)
		assert.Equal(t, models.ChannelUnknown, ticket.Channel)
	})

	t.Run("Child Fare", func(t *testing.T) {
		ticket, err := service.BookSeat(ctx, userID, SeatRequest{
			TripID:     1,
			SeatNumber: 8,
			Passenger:  &models.PassengerDetails{ChildTicket: true, BenefitType: "pensioner"},
		})
		require.NoError(t, err)
		// 11.50 * 0.50
		assert.Equal(t, models.NewMoney(5, 75), ticket.Price)
	})

	t.Run("Weekend Child Fare Rounded Once", func(t *testing.T) {
		store.AddTrip(newTrip(tripSpec{id: 2, from: minsk, to: orsha, dep: at(weekend, 12, 0), arr: at(weekend, 14, 0), price: models.NewMoney(12, 30), capacity: 10}))

		ticket, err := service.BookSeat(ctx, userID, SeatRequest{
			TripID:     2,
			SeatNumber: 1,
			Passenger:  &models.PassengerDetails{ChildTicket: true},
		})
		require.NoError(t, err)
		// 12.30 * 1.15 * 0.50 = 7.0725
		assert.Equal(t, "7.07", ticket.Price.String())
	})

	t.Run("Invalid Passenger Document", func(t *testing.T) {
		_, err := service.BookSeat(ctx, userID, SeatRequest{
			TripID:     1,
			SeatNumber: 9,
			Passenger:  &models.PassengerDetails{DocumentNumber: "x"},
		})
		assert.ErrorIs(t, err, ErrInvalidBookingRequest)
		assert.Contains(t, err.Error(), "document_number")
	})

	t.Run("Seat Taken", func(t *testing.T) {
		_, err := service.BookSeat(ctx, uuid.New(), SeatRequest{TripID: 1, SeatNumber: 7})
		assert.ErrorIs(t, err, ErrSeatTaken)
	})

	t.Run("Seat Out Of Range", func(t *testing.T) {
		_, err := service.BookSeat(ctx, userID, SeatRequest{TripID: 1, SeatNumber: 11})
		assert.ErrorIs(t, err, ErrSeatOutOfRange)

		_, err = service.BookSeat(ctx, userID, SeatRequest{TripID: 1, SeatNumber: 0})
		assert.ErrorIs(t, err, ErrSeatOutOfRange)
	})

	t.Run("Trip Not Found", func(t *testing.T) {
		_, err := service.BookSeat(ctx, userID, SeatRequest{TripID: 5, SeatNumber: 1})
		assert.ErrorIs(t, err, ErrTripNotFound)
	})

	assertSeatInvariant(t, store, 1)
	assertSeatInvariant(t, store, 2)

	tickets, err := service.TicketsForUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, tickets, 3)
}

func TestBookingService_PayAndCancel(t *testing.T) {
	ctx := context.Background()
	trip := newTrip(tripSpec{id: 1, from: minsk, to: orsha, dep: at(friday, 8, 0), arr: at(friday, 10, 0), price: models.NewMoney(15, 50), capacity: 3})
	service, store := setupBookingTest(t, BookingConfig{}, trip)
	userID := uuid.New()

	ticket, err := service.BookTicket(ctx, userID, 1, models.ChannelWeb)
	require.NoError(t, err)

	t.Run("Pay Booked Ticket", func(t *testing.T) {
		payment, err := service.PayTicket(ctx, ticket.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusSuccess, payment.Status)
		assert.Equal(t, models.NewMoney(15, 50), payment.Amount)
		assert.Equal(t, ticket.ID, payment.TicketID)

		got, err := service.Ticket(ctx, ticket.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, models.TicketStatusPaid, got.Status)
		assert.Len(t, store.Payments(ticket.ID), 1)
	})

	t.Run("Pay Twice", func(t *testing.T) {
		_, err := service.PayTicket(ctx, ticket.ID, userID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Len(t, store.Payments(ticket.ID), 1)
	})

	t.Run("Cancel By Another User", func(t *testing.T) {
		_, err := service.Cancel(ctx, ticket.ID, uuid.New())
		assert.ErrorIs(t, err, ErrTicketNotFound)
	})

	t.Run("Cancel Paid Ticket Refunds", func(t *testing.T) {
		got, err := service.Cancel(ctx, ticket.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, models.TicketStatusRefunded, got.Status)
		assertSeatInvariant(t, store, 1)
	})

	t.Run("No Transition Out Of Refunded", func(t *testing.T) {
		_, err := service.Cancel(ctx, ticket.ID, userID)
		assert.ErrorIs(t, err, ErrInvalidTransition)

		_, err = service.PayTicket(ctx, ticket.ID, userID)
		assert.ErrorIs(t, err, ErrInvalidTransition)

		got, err := store.LookupTrip(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 3, got.SeatsAvailable)
	})

	t.Run("Concurrent Cancels Release Once", func(t *testing.T) {
		other, err := service.BookTicket(ctx, userID, 1, models.ChannelWeb)
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make([]error, 5)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = service.Cancel(ctx, other.ID, userID)
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, ErrInvalidTransition)
		}
		assert.Equal(t, 1, succeeded)

		got, err := store.LookupTrip(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 3, got.SeatsAvailable)
		assertSeatInvariant(t, store, 1)
	})

	t.Run("Cancelled Ticket Cannot Be Paid", func(t *testing.T) {
		other, err := service.BookTicket(ctx, userID, 1, models.ChannelWeb)
		require.NoError(t, err)
		_, err = service.Cancel(ctx, other.ID, userID)
		require.NoError(t, err)

		_, err = service.PayTicket(ctx, other.ID, userID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Empty(t, store.Payments(other.ID))
	})

	t.Run("Unknown Ticket", func(t *testing.T) {
		_, err := service.PayTicket(ctx, uuid.New(), userID)
		assert.ErrorIs(t, err, ErrTicketNotFound)

		_, err = service.Cancel(ctx, uuid.New(), userID)
		assert.ErrorIs(t, err, ErrTicketNotFound)
	})
}

func TestBookingService_PaymentOwnership(t *testing.T) {
	ctx := context.Background()
	trip := newTrip(tripSpec{id: 1, from: minsk, to: orsha, dep: at(friday, 8, 0), arr: at(friday, 10, 0), price: models.NewMoney(5, 0)})
	owner := uuid.New()

	t.Run("Any Payer By Default", func(t *testing.T) {
		service, _ := setupBookingTest(t, BookingConfig{}, trip)
		ticket, err := service.BookTicket(ctx, owner, 1, models.ChannelWeb)
		require.NoError(t, err)

		_, err = service.PayTicket(ctx, ticket.ID, uuid.New())
		assert.NoError(t, err)
	})

	t.Run("Owner Required", func(t *testing.T) {
		service, _ := setupBookingTest(t, BookingConfig{RequirePaymentOwner: true}, trip)
		ticket, err := service.BookTicket(ctx, owner, 1, models.ChannelWeb)
		require.NoError(t, err)

		_, err = service.PayTicket(ctx, ticket.ID, uuid.New())
		assert.ErrorIs(t, err, ErrTicketNotFound)

		_, err = service.PayTicket(ctx, ticket.ID, owner)
		assert.NoError(t, err)
	})
}

func TestBookingService_BookTransfer(t *testing.T) {
	ctx := context.Background()
	first := newTrip(tripSpec{id: 1, from: minsk, to: orsha, dep: at(friday, 8, 0), arr: at(friday, 10, 0), price: models.NewMoney(10, 0)})
	second := newTrip(tripSpec{id: 2, from: orsha, to: smolensk, dep: at(friday, 10, 25), arr: at(friday, 12, 25), price: models.NewMoney(8, 0), capacity: 1})
	service, store := setupBookingTest(t, BookingConfig{}, first, second)
	userID := uuid.New()

	t.Run("Both Legs", func(t *testing.T) {
		tickets, err := service.BookTransfer(ctx, userID, []SeatRequest{{TripID: 1}, {TripID: 2}})
		require.NoError(t, err)
		require.Len(t, tickets, 2)
		assert.Equal(t, int64(1), tickets[0].TripID)
		assert.Equal(t, int64(2), tickets[1].TripID)
	})

	t.Run("Second Leg Fails", func(t *testing.T) {
		tickets, err := service.BookTransfer(ctx, userID, []SeatRequest{{TripID: 1}, {TripID: 2}})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoSeatsAvailable)

		var transferErr *TransferBookingError
		require.True(t, errors.As(err, &transferErr))
		assert.Equal(t, 2, transferErr.Leg)
		require.Len(t, transferErr.Booked, 1)
		assert.Equal(t, tickets, transferErr.Booked)

		// the first leg stays booked
		got, err := store.LookupTicket(ctx, transferErr.Booked[0].ID)
		require.NoError(t, err)
		assert.Equal(t, models.TicketStatusBooked, got.Status)
		assertSeatInvariant(t, store, 1)
		assertSeatInvariant(t, store, 2)
	})

	t.Run("Invalid Leg Count", func(t *testing.T) {
		_, err := service.BookTransfer(ctx, userID, nil)
		assert.ErrorIs(t, err, ErrInvalidBookingRequest)

		_, err = service.BookTransfer(ctx, userID, make([]SeatRequest, 3))
		assert.ErrorIs(t, err, ErrInvalidBookingRequest)
	})
}

func TestBookingService_ConcurrentBookAndCancel(t *testing.T) {
	ctx := context.Background()
	trip := newTrip(tripSpec{id: 1, from: minsk, to: orsha, dep: at(friday, 8, 0), arr: at(friday, 10, 0), price: models.NewMoney(5, 0), capacity: 5})
	service, store := setupBookingTest(t, BookingConfig{}, trip)

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := uuid.New()
			ticket, err := service.BookTicket(ctx, userID, 1, models.ChannelWeb)
			if err != nil {
				return
			}
			switch i % 3 {
			case 0:
				_, _ = service.Cancel(ctx, ticket.ID, userID)
			case 1:
				_, _ = service.PayTicket(ctx, ticket.ID, userID)
				_, _ = service.Cancel(ctx, ticket.ID, userID)
			default:
				_, _ = service.PayTicket(ctx, ticket.ID, userID)
			}
		}(i)
	}
	wg.Wait()

	assertSeatInvariant(t, store, 1)
}
