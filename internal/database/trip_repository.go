package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/smarttransit/rail-booking-core/internal/models"
)

// TripRepository handles trip database operations. It runs against either
// the pool or an open transaction.
type TripRepository struct {
	db       sqlx.ExtContext
	location *time.Location
}

// NewTripRepository creates a new TripRepository. Trip timestamps are
// returned in location, whatever the session time zone is; nil keeps the
// driver's zone.
func NewTripRepository(db sqlx.ExtContext, location *time.Location) *TripRepository {
	return &TripRepository{db: db, location: location}
}

const tripSelect = `
	SELECT
		t.id, t.departure_time, t.arrival_time, t.base_price, t.seats_available,
		r.id AS route_id, r.name AS route_name, r.distance_km, r.stops,
		so.id AS origin_id, so.code AS origin_code, so.name AS origin_name,
		sd.id AS destination_id, sd.code AS destination_code, sd.name AS destination_name,
		tr.id AS train_id, tr.code AS train_code, tr.name AS train_name,
		tr.train_type, tr.car_class, tr.wifi_available, tr.dining_available,
		tr.power_outlets, tr.seat_capacity
	FROM trips t
	JOIN routes r ON r.id = t.route_id
	JOIN stations so ON so.id = r.origin_id
	JOIN stations sd ON sd.id = r.destination_id
	JOIN trains tr ON tr.id = t.train_id`

// tripRow is the flat shape of tripSelect
type tripRow struct {
	ID              int64              `db:"id"`
	DepartureTime   time.Time          `db:"departure_time"`
	ArrivalTime     time.Time          `db:"arrival_time"`
	BasePrice       models.Money       `db:"base_price"`
	SeatsAvailable  int                `db:"seats_available"`
	RouteID         int64              `db:"route_id"`
	RouteName       string             `db:"route_name"`
	DistanceKm      int                `db:"distance_km"`
	Stops           models.StringArray `db:"stops"`
	OriginID        int64              `db:"origin_id"`
	OriginCode      string             `db:"origin_code"`
	OriginName      string             `db:"origin_name"`
	DestinationID   int64              `db:"destination_id"`
	DestinationCode string             `db:"destination_code"`
	DestinationName string             `db:"destination_name"`
	TrainID         int64              `db:"train_id"`
	TrainCode       string             `db:"train_code"`
	TrainName       string             `db:"train_name"`
	TrainType       models.TrainType   `db:"train_type"`
	CarClass        models.CarClass    `db:"car_class"`
	WifiAvailable   bool               `db:"wifi_available"`
	DiningAvailable bool               `db:"dining_available"`
	PowerOutlets    bool               `db:"power_outlets"`
	SeatCapacity    int                `db:"seat_capacity"`
}

func (r tripRow) toTrip(loc *time.Location) models.Trip {
	return models.Trip{
		ID:             r.ID,
		DepartureTime:  inLocation(r.DepartureTime, loc),
		ArrivalTime:    inLocation(r.ArrivalTime, loc),
		BasePrice:      r.BasePrice,
		SeatsAvailable: r.SeatsAvailable,
		Route: models.Route{
			ID:          r.RouteID,
			Name:        r.RouteName,
			DistanceKm:  r.DistanceKm,
			Stops:       r.Stops,
			Origin:      models.Station{ID: r.OriginID, Code: r.OriginCode, Name: r.OriginName},
			Destination: models.Station{ID: r.DestinationID, Code: r.DestinationCode, Name: r.DestinationName},
		},
		Train: models.Train{
			ID:              r.TrainID,
			Code:            r.TrainCode,
			Name:            r.TrainName,
			Type:            r.TrainType,
			CarClass:        r.CarClass,
			WifiAvailable:   r.WifiAvailable,
			DiningAvailable: r.DiningAvailable,
			PowerOutlets:    r.PowerOutlets,
			SeatCapacity:    r.SeatCapacity,
		},
	}
}

func inLocation(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}

// GetByID retrieves a trip by ID. Returns nil, nil if it does not exist.
func (r *TripRepository) GetByID(ctx context.Context, id int64) (*models.Trip, error) {
	return r.getOne(ctx, tripSelect+` WHERE t.id = $1`, id)
}

// GetByIDForUpdate retrieves a trip and locks its row until the surrounding transaction ends
func (r *TripRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Trip, error) {
	return r.getOne(ctx, tripSelect+` WHERE t.id = $1 FOR UPDATE OF t`, id)
}

func (r *TripRepository) getOne(ctx context.Context, query string, id int64) (*models.Trip, error) {
	var row tripRow
	err := sqlx.GetContext(ctx, r.db, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get trip %d: %w", id, err)
	}
	trip := row.toTrip(r.location)
	return &trip, nil
}

// ListByOriginInWindow returns trips leaving originID with departure in [from, to]
func (r *TripRepository) ListByOriginInWindow(ctx context.Context, originID int64, from, to time.Time) ([]models.Trip, error) {
	query := tripSelect + `
		WHERE r.origin_id = $1
		  AND t.departure_time BETWEEN $2 AND $3
		ORDER BY t.departure_time ASC, t.id ASC`

	return r.list(ctx, query, originID, from, to)
}

// ListByOriginDestinationInWindow returns trips from originID to destinationID with departure in [from, to]
func (r *TripRepository) ListByOriginDestinationInWindow(ctx context.Context, originID, destinationID int64, from, to time.Time) ([]models.Trip, error) {
	query := tripSelect + `
		WHERE r.origin_id = $1
		  AND r.destination_id = $2
		  AND t.departure_time BETWEEN $3 AND $4
		ORDER BY t.departure_time ASC, t.id ASC`

	return r.list(ctx, query, originID, destinationID, from, to)
}

func (r *TripRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Trip, error) {
	var rows []tripRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}

	trips := make([]models.Trip, len(rows))
	for i, row := range rows {
		trips[i] = row.toTrip(r.location)
	}
	return trips, nil
}

// UpdateSeatsAvailable persists the trip's seat counter, the only field the booking core mutates
func (r *TripRepository) UpdateSeatsAvailable(ctx context.Context, trip *models.Trip) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE trips SET seats_available = $1, updated_at = NOW() WHERE id = $2`,
		trip.SeatsAvailable, trip.ID)
	if err != nil {
		return fmt.Errorf("failed to update trip %d: %w", trip.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("trip %d not found", trip.ID)
	}
	return nil
}
