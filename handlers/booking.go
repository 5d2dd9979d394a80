package handlers

import (
	"context"
	"net/http"

	"snapbook/models"
	"snapbook/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the booking lifecycle.
type BookingHandler struct {
	Service booking.BookingService
	Logger  *zap.Logger
}

func NewBookingHandler(svc booking.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Service: svc, Logger: logger}
}

// CreateBooking handles POST /bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var input booking.CreateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid input", err)
		return
	}

	b, err := h.Service.CreateBooking(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, getLogger(c, h.Logger), err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": b})
}

// GetBooking handles GET /bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	b, err := h.Service.GetBooking(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, getLogger(c, h.Logger), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// ListBookings handles GET /bookings?status=&limit=.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var filter models.BookingFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, "invalid query", err)
		return
	}
	bookings, err := h.Service.ListBookings(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, getLogger(c, h.Logger), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}

type bookingAction func(ctx context.Context, bookingID string, actor models.Actor) (*models.Booking, error)

func (h *BookingHandler) transition(action bookingAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := mustActor(c)
		if !ok {
			return
		}
		b, err := action(c.Request.Context(), c.Param("id"), actor)
		if err != nil {
			respondError(c, getLogger(c, h.Logger), err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"booking": b})
	}
}

// AcceptBooking handles POST /bookings/:id/accept.
func (h *BookingHandler) AcceptBooking(c *gin.Context) { h.transition(h.Service.AcceptBooking)(c) }

// RejectBooking handles POST /bookings/:id/reject.
func (h *BookingHandler) RejectBooking(c *gin.Context) { h.transition(h.Service.RejectBooking)(c) }

// CancelBooking handles POST /bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) { h.transition(h.Service.CancelBooking)(c) }

// CompleteBooking handles POST /bookings/:id/complete.
func (h *BookingHandler) CompleteBooking(c *gin.Context) { h.transition(h.Service.CompleteBooking)(c) }

// RateBooking handles POST /bookings/:id/rating.
func (h *BookingHandler) RateBooking(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var input struct {
		Rating int `json:"rating"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid rating payload", err)
		return
	}
	b, err := h.Service.RateBooking(c.Request.Context(), c.Param("id"), actor, input.Rating)
	if err != nil {
		respondError(c, getLogger(c, h.Logger), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}
