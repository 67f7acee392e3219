package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/rail-booking-core/internal/services"
)

// statusFor maps service errors onto HTTP status codes and stable error codes
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, services.ErrNoSeatsAvailable):
		return http.StatusConflict, "NO_SEATS_AVAILABLE"
	case errors.Is(err, services.ErrSeatTaken):
		return http.StatusConflict, "SEAT_TAKEN"
	case errors.Is(err, services.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, services.ErrSeatOutOfRange):
		return http.StatusBadRequest, "SEAT_OUT_OF_RANGE"
	case errors.Is(err, services.ErrInvalidSearchParameters):
		return http.StatusBadRequest, "INVALID_SEARCH_PARAMETERS"
	case errors.Is(err, services.ErrInvalidBookingRequest):
		return http.StatusBadRequest, "INVALID_BOOKING_REQUEST"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// respondError writes err as a JSON error body. Internal errors are logged and
// their detail is not sent to the client.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
		c.JSON(status, gin.H{
			"status":  "error",
			"code":    code,
			"message": "Something went wrong. Please try again later.",
		})
		return
	}

	c.JSON(status, gin.H{
		"status":  "error",
		"code":    code,
		"message": err.Error(),
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"status":  "error",
		"code":    "INVALID_REQUEST",
		"message": message,
	})
}
