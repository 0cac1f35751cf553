package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crop-irrigation-tracker/internal/service"
)

// AdminController serves the admin panel operations
type AdminController struct {
	statsService       service.StatsService
	calculationService service.CalculationService
	backupService      service.Backuper
	logger             *zap.Logger
}

// NewAdminController creates a new admin controller
func NewAdminController(
	statsService service.StatsService,
	calculationService service.CalculationService,
	backupService service.Backuper,
	logger *zap.Logger,
) *AdminController {
	return &AdminController{
		statsService:       statsService,
		calculationService: calculationService,
		backupService:      backupService,
		logger:             logger,
	}
}

// Stats handles GET /v1/admin/stats
func (c *AdminController) Stats(ctx *gin.Context) {
	startTime := time.Now()
	stats, err := c.statsService.Stats(ctx.Request.Context())
	if err != nil {
		respondError(ctx, c.logger, startTime, "failed to read stats", err)
		return
	}
	ctx.JSON(http.StatusOK, stats)
}

// RunCalculations handles POST /v1/admin/calculations/run
// Runs the daily batch for every user now, regardless of the scheduled window.
func (c *AdminController) RunCalculations(ctx *gin.Context) {
	startTime := time.Now()
	summary, err := c.calculationService.RunScheduled(ctx.Request.Context())
	if err != nil {
		respondError(ctx, c.logger, startTime, "scheduled calculations failed", err)
		return
	}

	c.logger.Info("manual calculation run completed",
		zap.Int("users", summary.Users),
		zap.Int("saved", summary.Saved),
		zap.Int64("latency_ms", time.Since(startTime).Milliseconds()),
	)
	ctx.JSON(http.StatusOK, summary)
}

// Backup handles POST /v1/admin/backup
func (c *AdminController) Backup(ctx *gin.Context) {
	startTime := time.Now()
	if err := c.backupService.BackupAll(ctx.Request.Context()); err != nil {
		respondError(ctx, c.logger, startTime, "backup failed", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message":    "backup completed",
		"latency_ms": time.Since(startTime).Milliseconds(),
	})
}
