package services

import (
	"time"

	"github.com/smarttransit/rail-booking-core/internal/models"
)

// PriceStrategy computes the fare for a trip. Strategies are plain values so
// they can be compared and logged.
type PriceStrategy struct {
	Name string
	Rate models.Rate
}

var (
	WeekdayPricing = PriceStrategy{Name: "weekday", Rate: models.RateOne}
	WeekendPricing = PriceStrategy{Name: "weekend", Rate: models.RateWeekend}
)

// Calculate returns base price x passengers x rate, rounded half-up to the minor unit
func (s PriceStrategy) Calculate(trip *models.Trip, passengers int) models.Money {
	return trip.BasePrice.Times(passengers).ApplyRate(s.Rate)
}

// StrategyFor picks the pricing rule from the departure day in the trip's own time zone
func StrategyFor(trip *models.Trip) PriceStrategy {
	switch trip.DepartureTime.Weekday() {
	case time.Saturday, time.Sunday:
		return WeekendPricing
	default:
		return WeekdayPricing
	}
}

// Price is the fare for the given number of passengers on a trip
func Price(trip *models.Trip, passengers int) models.Money {
	return StrategyFor(trip).Calculate(trip, passengers)
}

// DiscountRate is the multiplier for a passenger category. A child fare is
// half price and takes precedence over any benefit category, which is 20% off.
func DiscountRate(passenger *models.PassengerDetails) models.Rate {
	switch {
	case passenger == nil:
		return models.RateOne
	case passenger.ChildTicket:
		return models.RateChild
	case passenger.HasBenefit():
		return models.RateBenefit
	default:
		return models.RateOne
	}
}

// Fare is the discounted price for the given passengers. The day rate and the
// discount are applied together and the result is rounded once.
func Fare(trip *models.Trip, passengers int, passenger *models.PassengerDetails) models.Money {
	return trip.BasePrice.Times(passengers).ApplyRates(StrategyFor(trip).Rate, DiscountRate(passenger))
}
