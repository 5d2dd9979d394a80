package handlers

import (
	"net/http"
	"time"

	deviceRepo "snapbook/database/repository/device"
	"snapbook/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DeviceHandler registers the FCM token of the caller's current device.
type DeviceHandler struct {
	Tokens deviceRepo.TokenRepository
	Logger *zap.Logger
}

func NewDeviceHandler(tokens deviceRepo.TokenRepository, logger *zap.Logger) *DeviceHandler {
	return &DeviceHandler{Tokens: tokens, Logger: logger}
}

// PutToken handles PUT /devices/token.
func (h *DeviceHandler) PutToken(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var input struct {
		DeviceID string `json:"deviceId"`
		FCMToken string `json:"fcmToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "fcmToken is required", err)
		return
	}

	token := &models.DeviceToken{
		OwnerID:   actor.ID,
		Role:      actor.Role,
		DeviceID:  input.DeviceID,
		FCMToken:  input.FCMToken,
		UpdatedAt: time.Now().UTC(),
	}
	if err := h.Tokens.Upsert(c.Request.Context(), token); err != nil {
		respondError(c, getLogger(c, h.Logger), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"device": token})
}
