package models

// TrainType classifies trains for filtering and display
type TrainType string

const (
	TrainTypeHighSpeed TrainType = "HIGH_SPEED"
	TrainTypeExpress   TrainType = "EXPRESS"
	TrainTypeRegional  TrainType = "REGIONAL"
)

// Valid reports whether t is a known train type
func (t TrainType) Valid() bool {
	switch t {
	case TrainTypeHighSpeed, TrainTypeExpress, TrainTypeRegional:
		return true
	}
	return false
}

// CarClass is the service class of a train's cars
type CarClass string

const (
	CarClassEconomy  CarClass = "ECONOMY"
	CarClassComfort  CarClass = "COMFORT"
	CarClassBusiness CarClass = "BUSINESS"
)

// Valid reports whether c is a known car class
func (c CarClass) Valid() bool {
	switch c {
	case CarClassEconomy, CarClassComfort, CarClassBusiness:
		return true
	}
	return false
}

// Train represents rolling stock assigned to trips
type Train struct {
	ID              int64     `json:"id"`
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	Type            TrainType `json:"type"`
	CarClass        CarClass  `json:"car_class"`
	WifiAvailable   bool      `json:"wifi_available"`
	DiningAvailable bool      `json:"dining_available"`
	PowerOutlets    bool      `json:"power_outlets"`
	SeatCapacity    int       `json:"seat_capacity"`
}
