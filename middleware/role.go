package middleware

import (
	"net/http"

	"snapbook/models"
	"snapbook/utils"

	"github.com/gin-gonic/gin"
)

// RequireRole lets the request through only when the caller holds one of roles.
// It must run after JWTAuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			utils.JSONError(c, http.StatusUnauthorized, utils.ErrorResponse{
				Message: "Unauthenticated",
				Code:    "unauthenticated",
			})
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		utils.JSONError(c, http.StatusForbidden, utils.ErrorResponse{
			Message:    "Access denied for role " + string(actor.Role),
			Code:       "unauthorized",
			Experience: "not_permitted",
		})
	}
}
