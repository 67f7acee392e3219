package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/rail-booking-core/internal/database"
	"github.com/smarttransit/rail-booking-core/internal/models"
)

// AnySeat asks Reserve for the lowest-numbered free seat
const AnySeat = 0

// SeatHold is a seat taken inside an open booking transaction
type SeatHold struct {
	Trip *models.Trip
	Seat int
}

// HoldFunc persists whatever owns a freshly reserved seat (normally a ticket).
// Returning an error rolls the reservation back.
type HoldFunc func(tx database.BookingTx, hold SeatHold) error

// TripFunc runs inside a trip-scoped transaction with the trip already locked
type TripFunc func(tx database.BookingTx, trip *models.Trip) error

// SeatAllocator hands out seat numbers on a trip. The occupancy check, the
// seatsAvailable decrement and the ticket write happen in one store
// transaction while the trip is held exclusively, both by an in-process lock
// and by the store's row lock.
type SeatAllocator struct {
	store  database.Store
	locks  *tripLocks
	logger *logrus.Logger
}

// NewSeatAllocator creates a new seat allocator
func NewSeatAllocator(store database.Store, logger *logrus.Logger) *SeatAllocator {
	return &SeatAllocator{
		store:  store,
		locks:  newTripLocks(),
		logger: logger,
	}
}

// WithTrip locks a trip and runs fn in a transaction. fn sees the locked trip
// and any error it returns aborts the transaction.
func (a *SeatAllocator) WithTrip(ctx context.Context, tripID int64, fn TripFunc) error {
	unlock, err := a.locks.lock(ctx, tripID)
	if err != nil {
		return err
	}
	defer unlock()

	return a.store.WithinTx(ctx, func(tx database.BookingTx) error {
		trip, err := tx.LockTrip(ctx, tripID)
		if err != nil {
			return fmt.Errorf("failed to lock trip: %w", err)
		}
		if trip == nil {
			return ErrTripNotFound
		}
		return fn(tx, trip)
	})
}

// Reserve takes a seat on the trip. With requested == AnySeat the lowest free
// seat is chosen. persist runs in the same transaction once the counter has
// been decremented.
func (a *SeatAllocator) Reserve(ctx context.Context, tripID int64, requested int, persist HoldFunc) (int, error) {
	var seat int

	err := a.WithTrip(ctx, tripID, func(tx database.BookingTx, trip *models.Trip) error {
		capacity := trip.EffectiveCapacity()
		if requested != AnySeat && (requested < 1 || requested > capacity) {
			return fmt.Errorf("%w: seat %d, trip has seats 1-%d", ErrSeatOutOfRange, requested, capacity)
		}
		if trip.SeatsAvailable <= 0 {
			return ErrNoSeatsAvailable
		}

		occupied, err := tx.OccupiedSeats(ctx, tripID)
		if err != nil {
			return fmt.Errorf("failed to load occupied seats: %w", err)
		}
		taken := make(map[int]bool, len(occupied))
		for _, s := range occupied {
			taken[s] = true
		}

		if requested != AnySeat {
			if taken[requested] {
				return fmt.Errorf("%w: seat %d", ErrSeatTaken, requested)
			}
			seat = requested
		} else {
			seat = lowestFreeSeat(capacity, taken)
			if seat == 0 {
				a.logger.WithFields(logrus.Fields{
					"trip_id":         tripID,
					"seats_available": trip.SeatsAvailable,
					"occupied":        len(occupied),
				}).Warn("Seat counter disagrees with occupied seats")
				return ErrNoSeatsAvailable
			}
		}

		trip.SeatsAvailable--
		if err := tx.SaveTrip(ctx, trip); err != nil {
			return fmt.Errorf("failed to update seat counter: %w", err)
		}

		if persist != nil {
			return persist(tx, SeatHold{Trip: trip, Seat: seat})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	a.logger.WithFields(logrus.Fields{
		"trip_id": tripID,
		"seat":    seat,
	}).Debug("Seat reserved")

	return seat, nil
}

// Release gives a seat back to the trip. persist runs first, in the same
// transaction, and is where the caller moves its ticket out of an active status.
func (a *SeatAllocator) Release(ctx context.Context, tripID int64, seat int, persist TripFunc) error {
	err := a.WithTrip(ctx, tripID, func(tx database.BookingTx, trip *models.Trip) error {
		if persist != nil {
			if err := persist(tx, trip); err != nil {
				return err
			}
		}

		if trip.SeatsAvailable >= trip.EffectiveCapacity() {
			a.logger.WithFields(logrus.Fields{
				"trip_id":         tripID,
				"seat":            seat,
				"seats_available": trip.SeatsAvailable,
			}).Warn("Seat counter already at capacity, not incrementing")
			return nil
		}

		trip.SeatsAvailable++
		if err := tx.SaveTrip(ctx, trip); err != nil {
			return fmt.Errorf("failed to update seat counter: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	a.logger.WithFields(logrus.Fields{
		"trip_id": tripID,
		"seat":    seat,
	}).Debug("Seat released")

	return nil
}

// AvailableSeats lists the free seat numbers of a trip in ascending order.
// The result is a snapshot and may be stale by the time a booking is made.
func (a *SeatAllocator) AvailableSeats(ctx context.Context, tripID int64) ([]int, error) {
	seatMap, err := a.SeatMap(ctx, tripID)
	if err != nil {
		return nil, err
	}

	free := []int{}
	for _, s := range seatMap {
		if s.Free {
			free = append(free, s.Number)
		}
	}
	return free, nil
}

// SeatMap describes every sellable seat of a trip
func (a *SeatAllocator) SeatMap(ctx context.Context, tripID int64) ([]models.SeatView, error) {
	trip, err := a.store.LookupTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	if trip == nil {
		return nil, ErrTripNotFound
	}

	occupied, err := a.store.OccupiedSeats(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to load occupied seats: %w", err)
	}
	taken := make(map[int]bool, len(occupied))
	for _, s := range occupied {
		taken[s] = true
	}

	capacity := trip.EffectiveCapacity()
	seats := make([]models.SeatView, 0, capacity)
	for n := 1; n <= capacity; n++ {
		seats = append(seats, models.SeatView{Number: n, Free: !taken[n]})
	}
	return seats, nil
}

func lowestFreeSeat(capacity int, taken map[int]bool) int {
	for n := 1; n <= capacity; n++ {
		if !taken[n] {
			return n
		}
	}
	return 0
}

// tripLocks is a set of per-trip mutexes. Entries are reference counted and
// removed once nobody holds or waits for them.
type tripLocks struct {
	mu    sync.Mutex
	locks map[int64]*tripLock
}

type tripLock struct {
	sem  chan struct{}
	refs int
}

func newTripLocks() *tripLocks {
	return &tripLocks{locks: make(map[int64]*tripLock)}
}

// lock blocks until the trip is free or ctx is done
func (l *tripLocks) lock(ctx context.Context, tripID int64) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[tripID]
	if !ok {
		entry = &tripLock{sem: make(chan struct{}, 1)}
		l.locks[tripID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
		return func() {
			<-entry.sem
			l.release(tripID, entry)
		}, nil
	case <-ctx.Done():
		l.release(tripID, entry)
		return nil, fmt.Errorf("failed to lock trip %d: %w", tripID, ctx.Err())
	}
}

func (l *tripLocks) release(tripID int64, entry *tripLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, tripID)
	}
}

func (l *tripLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
