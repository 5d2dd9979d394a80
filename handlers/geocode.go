package handlers

import (
	"net/http"
	"strconv"

	"snapbook/models"
	"snapbook/services/geocoding"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GeocodeHandler turns coordinates into a display address.
type GeocodeHandler struct {
	Geocoder geocoding.Geocoder
	Logger   *zap.Logger
}

func NewGeocodeHandler(g geocoding.Geocoder, logger *zap.Logger) *GeocodeHandler {
	return &GeocodeHandler{Geocoder: g, Logger: logger}
}

// ReverseGeocode handles GET /geocode?lat=&lng=.
func (h *GeocodeHandler) ReverseGeocode(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		badRequest(c, "Missing required query parameters: lat, lng", nil)
		return
	}
	point := models.NewGeoPoint(lat, lng)
	if err := point.Validate(); err != nil {
		badRequest(c, "invalid coordinates", err)
		return
	}

	address, err := h.Geocoder.ReadableAddress(c.Request.Context(), point)
	if err != nil {
		respondError(c, getLogger(c, h.Logger), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address, "location": point})
}
