package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/rail-booking-core/internal/models"
	"github.com/smarttransit/rail-booking-core/internal/services"
)

// SearchHandler handles HTTP requests for itinerary search
type SearchHandler struct {
	service  *services.SearchService
	location *time.Location
	logger   *logrus.Logger
}

// NewSearchHandler creates a new search handler. Dates in requests are
// interpreted in location.
func NewSearchHandler(service *services.SearchService, location *time.Location, logger *logrus.Logger) *SearchHandler {
	return &SearchHandler{
		service:  service,
		location: location,
		logger:   logger,
	}
}

// SearchItineraries handles GET /api/v1/search
// Query: from, to (station IDs), date (YYYY-MM-DD), and the optional filters
// train_type, car_class, departure_from, arrival_to (HH:MM), max_price.
func (h *SearchHandler) SearchItineraries(c *gin.Context) {
	req, err := h.parseSearchRequest(c)
	if err != nil {
		h.logger.WithError(err).Warn("Invalid search request")
		badRequest(c, err.Error())
		return
	}

	results, err := h.service.Search(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"from":    req.FromStationID,
		"to":      req.ToStationID,
		"date":    req.DateString(),
		"filters": req.Filters,
		"count":   len(results),
		"results": results,
	})
}

func (h *SearchHandler) parseSearchRequest(c *gin.Context) (*models.SearchRequest, error) {
	from, err := strconv.ParseInt(c.Query("from"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("from must be a station id")
	}
	to, err := strconv.ParseInt(c.Query("to"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("to must be a station id")
	}
	date, err := time.ParseInLocation("2006-01-02", c.Query("date"), h.location)
	if err != nil {
		return nil, fmt.Errorf("date must be formatted as YYYY-MM-DD")
	}

	req := &models.SearchRequest{
		FromStationID: from,
		ToStationID:   to,
		Date:          date,
	}

	if v := c.Query("train_type"); v != "" {
		req.Filters.TrainType = models.TrainType(v)
		if !req.Filters.TrainType.Valid() {
			return nil, fmt.Errorf("unknown train_type %q", v)
		}
	}
	if v := c.Query("car_class"); v != "" {
		req.Filters.CarClass = models.CarClass(v)
		if !req.Filters.CarClass.Valid() {
			return nil, fmt.Errorf("unknown car_class %q", v)
		}
	}
	if v := c.Query("departure_from"); v != "" {
		clock, err := models.ParseClockTime(v)
		if err != nil {
			return nil, err
		}
		req.Filters.DepartureFrom = &clock
	}
	if v := c.Query("arrival_to"); v != "" {
		clock, err := models.ParseClockTime(v)
		if err != nil {
			return nil, err
		}
		req.Filters.ArrivalTo = &clock
	}
	if v := c.Query("max_price"); v != "" {
		price, err := models.ParseMoney(v)
		if err != nil {
			return nil, fmt.Errorf("max_price: %w", err)
		}
		req.Filters.MaxPrice = &price
	}

	return req, nil
}
