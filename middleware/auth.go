package middleware

import (
	"net/http"
	"strings"

	"snapbook/models"
	"snapbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const actorKey = "actor"

// JWTAuthMiddleware validates the Bearer token and stores the caller on the context.
func JWTAuthMiddleware(jwt *utils.JWTManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.JSONError(c, http.StatusUnauthorized, utils.ErrorResponse{
				Message: "Authorization header missing",
				Code:    "unauthenticated",
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			utils.JSONError(c, http.StatusUnauthorized, utils.ErrorResponse{
				Message: "Authorization header format must be Bearer {token}",
				Code:    "unauthenticated",
			})
			return
		}

		actor, err := jwt.ParseActor(parts[1])
		if err != nil {
			logger.Debug("Rejected bearer token", zap.String("ip", getClientIP(c)), zap.Error(err))
			utils.JSONError(c, http.StatusUnauthorized, utils.ErrorResponse{
				Message: "Invalid or expired token",
				Code:    "unauthenticated",
				Details: err.Error(),
			})
			return
		}

		c.Set(actorKey, actor)
		c.Set("logger", logger.With(zap.String("actorID", actor.ID), zap.String("role", string(actor.Role))))
		c.Next()
	}
}

// ActorFrom returns the caller stored by JWTAuthMiddleware.
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}
