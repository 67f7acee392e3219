package database

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smarttransit/rail-booking-core/internal/models"
)

// MemoryStore is an in-process Store. Transactions stage their writes and
// apply them atomically on commit; they do not lock trips, so concurrent
// writers must be serialized by the caller (the seat allocator does this).
type MemoryStore struct {
	mu       sync.RWMutex
	trips    map[int64]models.Trip
	tickets  map[uuid.UUID]models.Ticket
	payments map[uuid.UUID]models.Payment
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trips:    make(map[int64]models.Trip),
		tickets:  make(map[uuid.UUID]models.Ticket),
		payments: make(map[uuid.UUID]models.Payment),
	}
}

// AddTrip loads schedule data. An existing trip with the same ID is replaced.
func (s *MemoryStore) AddTrip(trip models.Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips[trip.ID] = cloneTrip(trip)
}

// LoadTrips reads a JSON array of trips and adds them to the store.
// Timestamps are converted to loc unless it is nil.
func (s *MemoryStore) LoadTrips(r io.Reader, loc *time.Location) (int, error) {
	var trips []models.Trip
	if err := json.NewDecoder(r).Decode(&trips); err != nil {
		return 0, fmt.Errorf("failed to decode trips: %w", err)
	}
	for _, trip := range trips {
		trip.DepartureTime = inLocation(trip.DepartureTime, loc)
		trip.ArrivalTime = inLocation(trip.ArrivalTime, loc)
		if trip.SeatsAvailable > trip.EffectiveCapacity() {
			trip.SeatsAvailable = trip.EffectiveCapacity()
		}
		s.AddTrip(trip)
	}
	return len(trips), nil
}

// Payments returns all recorded payments for a ticket
func (s *MemoryStore) Payments(ticketID uuid.UUID) []models.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Payment
	for _, p := range s.payments {
		if p.TicketID == ticketID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProcessedAt.Before(out[j].ProcessedAt) })
	return out
}

// LookupTrip implements TripReader
func (s *MemoryStore) LookupTrip(_ context.Context, id int64) (*models.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trip, ok := s.trips[id]
	if !ok {
		return nil, nil
	}
	out := cloneTrip(trip)
	return &out, nil
}

// LookupTripsByOriginInWindow implements TripReader
func (s *MemoryStore) LookupTripsByOriginInWindow(_ context.Context, originID int64, from, to time.Time) ([]models.Trip, error) {
	return s.selectTrips(func(t *models.Trip) bool {
		return t.Route.Origin.ID == originID && inWindow(t.DepartureTime, from, to)
	}), nil
}

// LookupTripsByOriginDestinationInWindow implements TripReader
func (s *MemoryStore) LookupTripsByOriginDestinationInWindow(_ context.Context, originID, destinationID int64, from, to time.Time) ([]models.Trip, error) {
	return s.selectTrips(func(t *models.Trip) bool {
		return t.Route.Origin.ID == originID &&
			t.Route.Destination.ID == destinationID &&
			inWindow(t.DepartureTime, from, to)
	}), nil
}

func (s *MemoryStore) selectTrips(match func(t *models.Trip) bool) []models.Trip {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Trip{}
	for _, t := range s.trips {
		if match(&t) {
			out = append(out, cloneTrip(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DepartureTime.Equal(out[j].DepartureTime) {
			return out[i].DepartureTime.Before(out[j].DepartureTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// LookupTicket implements Store
func (s *MemoryStore) LookupTicket(_ context.Context, id uuid.UUID) (*models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return nil, nil
	}
	out := cloneTicket(ticket)
	return &out, nil
}

// LookupTicketsByUser implements Store
func (s *MemoryStore) LookupTicketsByUser(_ context.Context, userID uuid.UUID) ([]models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Ticket{}
	for _, t := range s.tickets {
		if t.UserID == userID {
			out = append(out, cloneTicket(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BookedAt.Equal(out[j].BookedAt) {
			return out[i].BookedAt.After(out[j].BookedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// OccupiedSeats implements Store
func (s *MemoryStore) OccupiedSeats(_ context.Context, tripID int64) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return occupiedSeats(tripID, s.tickets, nil), nil
}

// Ping implements Store
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// WithinTx implements Store
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx BookingTx) error) error {
	tx := &memoryTx{
		store:    s,
		trips:    make(map[int64]models.Trip),
		tickets:  make(map[uuid.UUID]models.Ticket),
		payments: make(map[uuid.UUID]models.Payment),
	}

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range tx.trips {
		s.trips[id] = t
	}
	for id, t := range tx.tickets {
		s.tickets[id] = t
	}
	for id, p := range tx.payments {
		s.payments[id] = p
	}
	return nil
}

// memoryTx stages writes until WithinTx commits them
type memoryTx struct {
	store    *MemoryStore
	trips    map[int64]models.Trip
	tickets  map[uuid.UUID]models.Ticket
	payments map[uuid.UUID]models.Payment
}

func (t *memoryTx) LockTrip(ctx context.Context, id int64) (*models.Trip, error) {
	if trip, ok := t.trips[id]; ok {
		out := cloneTrip(trip)
		return &out, nil
	}
	return t.store.LookupTrip(ctx, id)
}

func (t *memoryTx) OccupiedSeats(_ context.Context, tripID int64) ([]int, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return occupiedSeats(tripID, t.store.tickets, t.tickets), nil
}

func (t *memoryTx) LookupTicket(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	if ticket, ok := t.tickets[id]; ok {
		out := cloneTicket(ticket)
		return &out, nil
	}
	return t.store.LookupTicket(ctx, id)
}

func (t *memoryTx) SaveTrip(ctx context.Context, trip *models.Trip) error {
	existing, err := t.LockTrip(ctx, trip.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("trip %d not found", trip.ID)
	}
	t.trips[trip.ID] = cloneTrip(*trip)
	return nil
}

func (t *memoryTx) SaveTicket(_ context.Context, ticket *models.Ticket) error {
	ticket.UpdatedAt = time.Now()
	t.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (t *memoryTx) SavePayment(_ context.Context, payment *models.Payment) error {
	if _, ok := t.payments[payment.ID]; ok {
		return fmt.Errorf("failed to create payment: duplicate id %s", payment.ID)
	}
	t.payments[payment.ID] = *payment
	return nil
}

// occupiedSeats merges committed tickets with staged ones; staged versions win
func occupiedSeats(tripID int64, committed, staged map[uuid.UUID]models.Ticket) []int {
	seats := []int{}
	for id, t := range committed {
		if s, ok := staged[id]; ok {
			t = s
		}
		if t.TripID == tripID && t.Status.HoldsSeat() {
			seats = append(seats, t.SeatNumber)
		}
	}
	for id, t := range staged {
		if _, ok := committed[id]; ok {
			continue
		}
		if t.TripID == tripID && t.Status.HoldsSeat() {
			seats = append(seats, t.SeatNumber)
		}
	}
	sort.Ints(seats)
	return seats
}

func inWindow(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

func cloneTrip(t models.Trip) models.Trip {
	if t.Route.Stops != nil {
		t.Route.Stops = append(models.StringArray(nil), t.Route.Stops...)
	}
	return t
}

func cloneTicket(t models.Ticket) models.Ticket {
	if t.Passenger != nil {
		p := *t.Passenger
		t.Passenger = &p
	}
	if t.Services != nil {
		s := *t.Services
		t.Services = &s
	}
	return t
}
