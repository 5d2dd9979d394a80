package handlers

import (
	"net/http"

	"snapbook/apperr"
	"snapbook/models"
	"snapbook/services/availability"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PhotographerHandler exposes the live/offline toggle and status reads.
type PhotographerHandler struct {
	Availability availability.AvailabilityService
	Logger       *zap.Logger
}

func NewPhotographerHandler(svc availability.AvailabilityService, logger *zap.Logger) *PhotographerHandler {
	return &PhotographerHandler{Availability: svc, Logger: logger}
}

type goLiveInput struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

// GoLive handles POST /photographers/me/live.
func (h *PhotographerHandler) GoLive(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var input goLiveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "lat and lng are required", err)
		return
	}
	status, err := h.Availability.GoLive(c.Request.Context(), actor.ID, models.NewGeoPoint(*input.Lat, *input.Lng))
	if err != nil {
		respondError(c, getLogger(c, h.Logger), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// GoOffline handles POST /photographers/me/offline.
func (h *PhotographerHandler) GoOffline(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	status, err := h.Availability.GoOffline(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, getLogger(c, h.Logger), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// GetStatus handles GET /photographers/:id/status. Any authenticated caller
// may read it; the location is only returned to the photographer and admins.
func (h *PhotographerHandler) GetStatus(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if id == "me" {
		id = actor.ID
	}
	status, err := h.Availability.GetStatus(c.Request.Context(), id)
	if err != nil {
		respondError(c, getLogger(c, h.Logger), err)
		return
	}
	if actor.Role != models.RoleAdmin && actor.ID != status.PhotographerID {
		status.Location = nil
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// Reconcile handles POST /admin/photographers/:id/reconcile.
func (h *PhotographerHandler) Reconcile(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		respondError(c, h.Logger, apperr.ErrInvalidInput)
		return
	}
	res, err := h.Availability.Reconcile(c.Request.Context(), id)
	if err != nil {
		respondError(c, getLogger(c, h.Logger), err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ReconcileAll handles POST /admin/photographers/reconcile.
func (h *PhotographerHandler) ReconcileAll(c *gin.Context) {
	res, err := h.Availability.ReconcileAll(c.Request.Context())
	if err != nil {
		getLogger(c, h.Logger).Warn("Reconcile sweep finished with failures", zap.Error(err))
	}
	if res == nil {
		respondError(c, getLogger(c, h.Logger), err)
		return
	}
	c.JSON(http.StatusOK, res)
}
