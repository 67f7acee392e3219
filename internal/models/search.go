package models

import (
	"fmt"
	"strings"
	"time"
)

// SearchRequest is a passenger's itinerary query
type SearchRequest struct {
	FromStationID int64
	ToStationID   int64
	// Date selects the departure day; only its calendar date and location are used.
	Date    time.Time
	Filters SearchFilters
}

// DayWindow returns the first and last instant of the requested departure day
func (r *SearchRequest) DayWindow() (time.Time, time.Time) {
	y, m, d := r.Date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, r.Date.Location())
	return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// DateString formats the requested departure day as YYYY-MM-DD
func (r *SearchRequest) DateString() string {
	return r.Date.Format("2006-01-02")
}

// SearchFilters narrows ranked itineraries. All set filters must hold (AND).
type SearchFilters struct {
	TrainType     TrainType  `json:"train_type,omitempty"`
	CarClass      CarClass   `json:"car_class,omitempty"`
	DepartureFrom *ClockTime `json:"departure_from,omitempty"`
	ArrivalTo     *ClockTime `json:"arrival_to,omitempty"`
	MaxPrice      *Money     `json:"max_price,omitempty"`
}

// Empty reports whether no filter is set
func (f SearchFilters) Empty() bool {
	return f.TrainType == "" && f.CarClass == "" && f.DepartureFrom == nil && f.ArrivalTo == nil && f.MaxPrice == nil
}

// ClockTime is a time of day in seconds since midnight
type ClockTime int

// ParseClockTime parses "HH:MM" or "HH:MM:SS"
func ParseClockTime(s string) (ClockTime, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockOf(t), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q (expected HH:MM)", s)
}

// ClockOf returns the time of day of t in t's location
func ClockOf(t time.Time) ClockTime {
	return ClockTime(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

// String renders the time of day as HH:MM
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/3600, int(c)%3600/60)
}

// MarshalJSON renders the time of day as "HH:MM"
func (c ClockTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON parses "HH:MM" or "HH:MM:SS"
func (c *ClockTime) UnmarshalJSON(data []byte) error {
	parsed, err := ParseClockTime(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
