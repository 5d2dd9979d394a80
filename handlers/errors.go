package handlers

import (
	"errors"
	"net/http"

	"snapbook/apperr"
	"snapbook/middleware"
	"snapbook/models"
	"snapbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError renders a service error with its status, code and UI experience.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := apperr.HTTPStatus(err)
	resp := utils.ErrorResponse{
		Message:    err.Error(),
		Code:       apperr.Code(err),
		Experience: string(apperr.ExperienceOf(err)),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("code", resp.Code),
			zap.Error(err))
		if status == http.StatusInternalServerError {
			resp.Message = "Internal Server Error"
			resp.Details = "An unexpected error occurred. Please try again later."
		}
	}
	utils.JSONError(c, status, resp)
}

func badRequest(c *gin.Context, msg string, err error) {
	resp := utils.ErrorResponse{
		Message:    msg,
		Code:       apperr.Code(apperr.ErrInvalidInput),
		Experience: string(apperr.ExperienceInvalidInput),
	}
	if err != nil {
		resp.Details = err.Error()
	}
	utils.JSONError(c, http.StatusBadRequest, resp)
}

// mustActor returns the authenticated caller or writes a 401.
func mustActor(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, utils.ErrorResponse{
			Message: "Unauthenticated",
			Code:    "unauthenticated",
		})
		return models.Actor{}, false
	}
	return actor, true
}

var errEmptyIDs = errors.New("photoIds must not be empty")
