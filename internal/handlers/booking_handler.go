package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/rail-booking-core/internal/middleware"
	"github.com/smarttransit/rail-booking-core/internal/models"
	"github.com/smarttransit/rail-booking-core/internal/services"
	"github.com/smarttransit/rail-booking-core/internal/utils"
)

// BookingHandler handles seat, booking and ticket endpoints
type BookingHandler struct {
	service *services.BookingService
	logger  *logrus.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(service *services.BookingService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		logger:  logger,
	}
}

// BookingRequest is the body of POST /api/v1/bookings
type BookingRequest struct {
	TripID int64 `json:"trip_id" binding:"required"`
	// SeatNumber is optional; without it the lowest free seat is booked at full fare
	SeatNumber *int                       `json:"seat_number"`
	Passenger  *models.PassengerDetails   `json:"passenger"`
	Services   *models.AdditionalServices `json:"services"`
}

// TransferBookingRequest is the body of POST /api/v1/bookings/transfer
type TransferBookingRequest struct {
	Legs []BookingRequest `json:"legs" binding:"required"`
}

// GetSeatMap handles GET /api/v1/trips/:id/seats
func (h *BookingHandler) GetSeatMap(c *gin.Context) {
	tripID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "Invalid trip ID")
		return
	}

	seats, err := h.service.SeatMap(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	free := 0
	for _, s := range seats {
		if s.Free {
			free++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"trip_id":    tripID,
		"capacity":   len(seats),
		"free_seats": free,
		"seats":      seats,
	})
}

// CreateBooking handles POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format: "+err.Error())
		return
	}

	channel := utils.BookingChannel(c.Request.UserAgent())
	ctx := c.Request.Context()

	var (
		ticket *models.Ticket
		err    error
	)
	if req.SeatNumber == nil {
		if req.Passenger != nil {
			badRequest(c, "seat_number is required when passenger details are given")
			return
		}
		ticket, err = h.service.BookTicket(ctx, userCtx.UserID, req.TripID, channel)
	} else {
		ticket, err = h.service.BookSeat(ctx, userCtx.UserID, toSeatRequest(req, channel))
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"ticket": ticket,
	})
}

// CreateTransferBooking handles POST /api/v1/bookings/transfer.
// Legs are booked in order; if one fails, tickets already booked are kept
// and returned with a 409 so the client can cancel or retry them.
func (h *BookingHandler) CreateTransferBooking(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req TransferBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format: "+err.Error())
		return
	}

	channel := utils.BookingChannel(c.Request.UserAgent())
	legs := make([]services.SeatRequest, len(req.Legs))
	for i, leg := range req.Legs {
		legs[i] = toSeatRequest(leg, channel)
	}

	tickets, err := h.service.BookTransfer(c.Request.Context(), userCtx.UserID, legs)
	if err != nil {
		var transferErr *services.TransferBookingError
		if errors.As(err, &transferErr) && len(transferErr.Booked) > 0 {
			status, code := statusFor(transferErr.Err)
			if status == http.StatusInternalServerError {
				h.logger.WithError(err).Error("Transfer booking failed")
			}
			c.JSON(http.StatusConflict, gin.H{
				"status":     "partial",
				"code":       code,
				"message":    err.Error(),
				"failed_leg": transferErr.Leg,
				"tickets":    transferErr.Booked,
			})
			return
		}
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"tickets": tickets,
	})
}

// PayTicket handles POST /api/v1/tickets/:id/pay
func (h *BookingHandler) PayTicket(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid ticket ID")
		return
	}

	payment, err := h.service.PayTicket(c.Request.Context(), ticketID, userCtx.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"payment": payment,
	})
}

// CancelTicket handles POST /api/v1/tickets/:id/cancel
func (h *BookingHandler) CancelTicket(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid ticket ID")
		return
	}

	ticket, err := h.service.Cancel(c.Request.Context(), ticketID, userCtx.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"ticket": ticket,
	})
}

// GetMyTickets handles GET /api/v1/tickets
func (h *BookingHandler) GetMyTickets(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	tickets, err := h.service.TicketsForUser(c.Request.Context(), userCtx.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(tickets),
		"tickets": tickets,
	})
}

// GetTicket handles GET /api/v1/tickets/:id
func (h *BookingHandler) GetTicket(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid ticket ID")
		return
	}

	ticket, err := h.service.Ticket(c.Request.Context(), ticketID, userCtx.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

func toSeatRequest(req BookingRequest, channel string) services.SeatRequest {
	seat := services.AnySeat
	if req.SeatNumber != nil {
		seat = *req.SeatNumber
	}
	return services.SeatRequest{
		TripID:     req.TripID,
		SeatNumber: seat,
		Passenger:  req.Passenger,
		Services:   req.Services,
		Channel:    channel,
	}
}
