package handlers

import (
	"snapbook/middleware"
	"snapbook/utils"
)

// HandlerBundle groups all endpoint handlers and the middleware they share.
type HandlerBundle struct {
	JWT         *utils.JWTManager
	RateLimiter *middleware.RateLimiter
	Health      *utils.HealthMonitor

	Booking      *BookingHandler
	Photographer *PhotographerHandler
	Photo        *PhotoHandler
	Geocode      *GeocodeHandler
	Device       *DeviceHandler
}
