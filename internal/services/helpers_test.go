package services

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/rail-booking-core/internal/database"
	"github.com/smarttransit/rail-booking-core/internal/models"
)

var (
	minsk    = models.Station{ID: 1, Code: "MSK", Name: "Minsk"}
	orsha    = models.Station{ID: 2, Code: "ORS", Name: "Orsha"}
	smolensk = models.Station{ID: 3, Code: "SML", Name: "Smolensk"}
	vitebsk  = models.Station{ID: 4, Code: "VTB", Name: "Vitebsk"}
)

// friday is a weekday used as the default search date
var friday = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type tripSpec struct {
	id        int64
	from, to  models.Station
	dep, arr  time.Time
	price     models.Money
	capacity  int
	trainType models.TrainType
	carClass  models.CarClass
}

func newTrip(s tripSpec) models.Trip {
	if s.capacity == 0 {
		s.capacity = 40
	}
	if s.trainType == "" {
		s.trainType = models.TrainTypeExpress
	}
	if s.carClass == "" {
		s.carClass = models.CarClassEconomy
	}
	trip := models.Trip{
		ID: s.id,
		Route: models.Route{
			ID:          s.id,
			Name:        s.from.Name + " - " + s.to.Name,
			Origin:      s.from,
			Destination: s.to,
		},
		Train: models.Train{
			ID:           s.id,
			Code:         "T" + s.from.Code,
			Name:         "Train " + s.from.Code,
			Type:         s.trainType,
			CarClass:     s.carClass,
			SeatCapacity: s.capacity,
		},
		DepartureTime: s.dep,
		ArrivalTime:   s.arr,
		BasePrice:     s.price,
	}
	trip.SeatsAvailable = trip.EffectiveCapacity()
	return trip
}

func at(day time.Time, hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func seedStore(t *testing.T, trips ...models.Trip) *database.MemoryStore {
	t.Helper()
	store := database.NewMemoryStore()
	for _, trip := range trips {
		store.AddTrip(trip)
	}
	return store
}
