package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crop-irrigation-tracker/internal/agronomy"
	"crop-irrigation-tracker/internal/middleware"
	"crop-irrigation-tracker/internal/provider"
	"crop-irrigation-tracker/internal/service"
)

type errorMapping struct {
	target  error
	status  int
	title   string
	message string // empty means the error text is shown
}

var errorMappings = []errorMapping{
	{service.ErrNoFieldProfile, http.StatusNotFound, "Field not found", "no field data configured, save a field first"},
	{agronomy.ErrUnknownCropType, http.StatusBadRequest, "Unknown crop type", ""},
	{agronomy.ErrInvalidFieldProfile, http.StatusUnprocessableEntity, "Invalid field data", ""},
	{provider.ErrProviderUnavailable, http.StatusBadGateway, "Provider unavailable", "could not fetch weather or soil data, try again later"},
	{service.ErrUserExists, http.StatusConflict, "User exists", ""},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "Unauthorized", "invalid username or password"},
	{service.ErrInvalidInput, http.StatusBadRequest, "Invalid input", ""},
}

// respondError maps a service error to its status code and logs it with the request latency
func respondError(ctx *gin.Context, logger *zap.Logger, startTime time.Time, msg string, err error) {
	latency := time.Since(startTime)
	fields := []zap.Field{
		zap.String("request_id", middleware.GetRequestID(ctx)),
		zap.Error(err),
		zap.Int64("latency_ms", latency.Milliseconds()),
	}
	if userID, ok := middleware.UserID(ctx); ok {
		fields = append(fields, zap.Uint("user_id", userID))
	}

	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		message := m.message
		if message == "" {
			message = err.Error()
		}
		if m.status >= http.StatusInternalServerError {
			logger.Error(msg, fields...)
		} else {
			logger.Warn(msg, fields...)
		}
		ctx.JSON(m.status, gin.H{
			"error":   m.title,
			"message": message,
		})
		return
	}

	logger.Error(msg, fields...)
	ctx.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Internal server error",
		"message": msg,
	})
}

func badRequest(ctx *gin.Context, title, message string) {
	ctx.JSON(http.StatusBadRequest, gin.H{
		"error":   title,
		"message": message,
	})
}

// currentUser returns the authenticated user id or aborts with 401
func currentUser(ctx *gin.Context) (uint, bool) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":   "Unauthorized",
			"message": "login required",
		})
	}
	return userID, ok
}
