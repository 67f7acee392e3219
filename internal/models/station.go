package models

// Station is a stop in the rail network. Reference data, never mutated by the booking core.
type Station struct {
	ID   int64  `json:"id" db:"id"`
	Code string `json:"code" db:"code"`
	Name string `json:"name" db:"name"`
}
