package models

// Route is a directional connection between two stations.
// The reverse direction is a distinct route.
type Route struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Origin      Station `json:"origin"`
	Destination Station `json:"destination"`
	DistanceKm  int     `json:"distance_km"`
	// Stops lists intermediate stop names for display only; transfers never use them.
	Stops StringArray `json:"stops,omitempty"`
}
