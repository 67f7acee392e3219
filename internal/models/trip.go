package models

import (
	"time"
)

// MaxSellableSeats caps the number of seats sold on any trip regardless of train capacity
const MaxSellableSeats = 50

// Trip is one scheduled run of a train over a route
type Trip struct {
	ID            int64     `json:"id"`
	Route         Route     `json:"route"`
	Train         Train     `json:"train"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	BasePrice     Money     `json:"base_price"`
	// SeatsAvailable is the number of unsold seats, always within [0, EffectiveCapacity()].
	SeatsAvailable int `json:"seats_available"`
}

// EffectiveCapacity is the number of seats that can be sold, numbered 1..EffectiveCapacity().
func (t *Trip) EffectiveCapacity() int {
	if t.Train.SeatCapacity < MaxSellableSeats {
		if t.Train.SeatCapacity < 0 {
			return 0
		}
		return t.Train.SeatCapacity
	}
	return MaxSellableSeats
}

// Duration returns the scheduled travel time
func (t *Trip) Duration() time.Duration {
	return t.ArrivalTime.Sub(t.DepartureTime)
}

// SeatView describes one seat in a trip's seat map
type SeatView struct {
	Number int  `json:"number"`
	Free   bool `json:"free"`
}
