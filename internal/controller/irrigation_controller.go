package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crop-irrigation-tracker/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// IrrigationController handles irrigation calculations and history
type IrrigationController struct {
	calculationService service.CalculationService
	exportService      service.ExportService
	logger             *zap.Logger
}

// NewIrrigationController creates a new irrigation controller
func NewIrrigationController(calculationService service.CalculationService, exportService service.ExportService, logger *zap.Logger) *IrrigationController {
	return &IrrigationController{
		calculationService: calculationService,
		exportService:      exportService,
		logger:             logger,
	}
}

// Calculate handles POST /v1/irrigation/calculate
// Fetches live weather and soil data, computes today's requirement and stores it.
func (c *IrrigationController) Calculate(ctx *gin.Context) {
	startTime := time.Now()
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	result, err := c.calculationService.Calculate(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, c.logger, startTime, "failed to calculate irrigation", err)
		return
	}

	c.logger.Info("calculation request completed",
		zap.Uint("user_id", userID),
		zap.Uint("record_id", result.Record.ID),
		zap.Int64("latency_ms", time.Since(startTime).Milliseconds()),
	)
	ctx.JSON(http.StatusCreated, result)
}

// History handles GET /v1/irrigation/history
// Query parameters:
//   - limit (optional): maximum number of records, most recent first; 0 or absent returns all
func (c *IrrigationController) History(ctx *gin.Context) {
	startTime := time.Now()
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	limit := 0
	if limitStr := ctx.Query("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 0 {
			c.logger.Warn("invalid limit",
				zap.String("limit", limitStr),
				zap.Uint("user_id", userID),
			)
			badRequest(ctx, "Invalid limit", "limit must be a non-negative integer")
			return
		}
		limit = l
	}

	history, err := c.calculationService.History(ctx.Request.Context(), userID, limit)
	if err != nil {
		respondError(ctx, c.logger, startTime, "failed to retrieve irrigation history", err)
		return
	}

	c.logger.Info("history request completed",
		zap.Uint("user_id", userID),
		zap.Int("records", len(history.Records)),
		zap.Int64("latency_ms", time.Since(startTime).Milliseconds()),
	)
	ctx.JSON(http.StatusOK, history)
}

// ExportHistory handles GET /v1/irrigation/history/export
func (c *IrrigationController) ExportHistory(ctx *gin.Context) {
	startTime := time.Now()
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	data, err := c.exportService.ExportHistory(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, c.logger, startTime, "failed to export irrigation history", err)
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="irrigation_history.xlsx"`)
	ctx.Data(http.StatusOK, xlsxContentType, data)
}
