package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Leg is one trip used as part of an itinerary
type Leg struct {
	TripID          int64         `json:"trip_id"`
	RouteID         int64         `json:"route_id"`
	RouteName       string        `json:"route_name"`
	FromStationID   int64         `json:"from_station_id"`
	FromName        string        `json:"from_name"`
	ToStationID     int64         `json:"to_station_id"`
	ToName          string        `json:"to_name"`
	DepartureTime   time.Time     `json:"departure_time"`
	ArrivalTime     time.Time     `json:"arrival_time"`
	Price           Money         `json:"price"`
	TrainName       string        `json:"train_name"`
	TrainType       TrainType     `json:"train_type"`
	CarClass        CarClass      `json:"car_class"`
	WifiAvailable   bool          `json:"wifi_available"`
	DiningAvailable bool          `json:"dining_available"`
	PowerOutlets    bool          `json:"power_outlets"`
	Stops           []string      `json:"stops,omitempty"`
	Duration        time.Duration `json:"duration"`
	SeatsAvailable  int           `json:"seats_available"`
}

// NewLeg projects a trip into an itinerary leg
func NewLeg(t *Trip) Leg {
	leg := Leg{
		TripID:          t.ID,
		RouteID:         t.Route.ID,
		RouteName:       t.Route.Name,
		FromStationID:   t.Route.Origin.ID,
		FromName:        t.Route.Origin.Name,
		ToStationID:     t.Route.Destination.ID,
		ToName:          t.Route.Destination.Name,
		DepartureTime:   t.DepartureTime,
		ArrivalTime:     t.ArrivalTime,
		Price:           t.BasePrice,
		TrainName:       t.Train.Name,
		TrainType:       t.Train.Type,
		CarClass:        t.Train.CarClass,
		WifiAvailable:   t.Train.WifiAvailable,
		DiningAvailable: t.Train.DiningAvailable,
		PowerOutlets:    t.Train.PowerOutlets,
		Duration:        t.Duration(),
		SeatsAvailable:  t.SeatsAvailable,
	}
	if len(t.Route.Stops) > 0 {
		leg.Stops = append([]string(nil), t.Route.Stops...)
	}
	return leg
}

// Itinerary is a search result made of one direct leg or two legs joined by a transfer.
// It is computed per request and never persisted.
type Itinerary struct {
	Legs              []Leg         `json:"legs"`
	TotalPrice        Money         `json:"total_price"`
	TotalDuration     time.Duration `json:"total_duration"`
	TotalDurationText string        `json:"total_duration_text"`
	Transfers         int           `json:"transfers"`
}

// NewItinerary totals the given legs. legs must not be empty.
func NewItinerary(legs ...Leg) Itinerary {
	var total Money
	for _, l := range legs {
		total += l.Price
	}
	dur := legs[len(legs)-1].ArrivalTime.Sub(legs[0].DepartureTime)
	return Itinerary{
		Legs:              legs,
		TotalPrice:        total,
		TotalDuration:     dur,
		TotalDurationText: FormatDuration(dur),
		Transfers:         len(legs) - 1,
	}
}

// Departure is the departure time of the first leg
func (it Itinerary) Departure() time.Time {
	return it.Legs[0].DepartureTime
}

// Arrival is the arrival time of the last leg
func (it Itinerary) Arrival() time.Time {
	return it.Legs[len(it.Legs)-1].ArrivalTime
}

// Key identifies an itinerary by the ordered trip IDs of its legs
func (it Itinerary) Key() string {
	parts := make([]string, len(it.Legs))
	for i, l := range it.Legs {
		parts[i] = strconv.FormatInt(l.TripID, 10)
	}
	return strings.Join(parts, "-")
}

// FormatDuration renders a duration as "4h 25m", "3h" or "45m"
func FormatDuration(d time.Duration) string {
	hours := int64(d / time.Hour)
	minutes := int64((d - time.Duration(hours)*time.Hour) / time.Minute)

	switch {
	case hours == 0:
		return fmt.Sprintf("%dm", minutes)
	case minutes == 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
}
