package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crop-irrigation-tracker/internal/agronomy"
	"crop-irrigation-tracker/internal/model"
	"crop-irrigation-tracker/internal/service"
)

// FieldController handles the field profile of the authenticated user
type FieldController struct {
	fieldService service.FieldService
	logger       *zap.Logger
}

// NewFieldController creates a new field controller
func NewFieldController(fieldService service.FieldService, logger *zap.Logger) *FieldController {
	return &FieldController{fieldService: fieldService, logger: logger}
}

type fieldRequest struct {
	Latitude      *float64 `json:"lat"`
	Longitude     *float64 `json:"lon"`
	FieldCapacity *float64 `json:"field_capacity"`
	CropType      string   `json:"crop_type"`
	SowingDate    string   `json:"sowing_date"`
}

type fieldResponse struct {
	Field   *model.FieldProfile  `json:"field"`
	Status  *service.FieldStatus `json:"status"`
	Changed *bool                `json:"changed,omitempty"`
}

// ListCrops handles GET /v1/crops
func ListCrops(ctx *gin.Context) {
	crops := make([]gin.H, 0, len(agronomy.CropTable))
	for _, name := range agronomy.CropTypes() {
		kc := agronomy.CropTable[name]
		crops = append(crops, gin.H{
			"crop_type":  name,
			"kc_initial": kc[0],
			"kc_mid":     kc[1],
			"kc_late":    kc[2],
		})
	}
	ctx.JSON(http.StatusOK, gin.H{"crops": crops})
}

// GetField handles GET /v1/field
func (c *FieldController) GetField(ctx *gin.Context) {
	startTime := time.Now()
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	profile, err := c.fieldService.GetProfile(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, c.logger, startTime, "failed to load field", err)
		return
	}
	status, err := c.fieldService.Status(profile)
	if err != nil {
		respondError(ctx, c.logger, startTime, "failed to derive field status", err)
		return
	}
	ctx.JSON(http.StatusOK, fieldResponse{Field: profile, Status: status})
}

// SaveField handles PUT /v1/field
// Body: lat, lon, field_capacity, crop_type and sowing_date (YYYY-MM-DD or RFC3339)
func (c *FieldController) SaveField(ctx *gin.Context) {
	startTime := time.Now()
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req fieldRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request body", err.Error())
		return
	}
	if req.Latitude == nil || req.Longitude == nil || req.FieldCapacity == nil {
		badRequest(ctx, "Missing required parameter", "lat, lon and field_capacity are required")
		return
	}
	if req.SowingDate == "" {
		badRequest(ctx, "Missing required parameter", "sowing_date is required")
		return
	}
	sowingDate, err := parseISO8601Date(req.SowingDate)
	if err != nil {
		c.logger.Warn("invalid sowing_date",
			zap.String("sowing_date", req.SowingDate),
			zap.Uint("user_id", userID),
			zap.Error(err),
		)
		badRequest(ctx, "Invalid sowing_date", "sowing_date must be in ISO 8601 format (RFC3339 or YYYY-MM-DD)")
		return
	}

	profile, changed, err := c.fieldService.SaveProfile(ctx.Request.Context(), userID, service.FieldInput{
		Latitude:      *req.Latitude,
		Longitude:     *req.Longitude,
		FieldCapacity: *req.FieldCapacity,
		CropType:      req.CropType,
		SowingDate:    sowingDate,
	})
	if err != nil {
		respondError(ctx, c.logger, startTime, "failed to save field", err)
		return
	}
	status, err := c.fieldService.Status(profile)
	if err != nil {
		respondError(ctx, c.logger, startTime, "failed to derive field status", err)
		return
	}

	c.logger.Info("field request completed",
		zap.Uint("user_id", userID),
		zap.Bool("changed", changed),
		zap.Int64("latency_ms", time.Since(startTime).Milliseconds()),
	)
	ctx.JSON(http.StatusOK, fieldResponse{Field: profile, Status: status, Changed: &changed})
}

// parseISO8601Date parses a date string in ISO 8601 format
// Supports:
//   - RFC3339 (e.g., "2006-01-02T15:04:05Z07:00")
//   - YYYY-MM-DD (e.g., "2006-01-02")
//   - YYYY-MM-DDTHH:MM:SS (e.g., "2006-01-02T15:04:05")
func parseISO8601Date(dateStr string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, dateStr); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", dateStr); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", dateStr); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unable to parse ISO 8601 date: %s (expected RFC3339 or YYYY-MM-DD format)", dateStr)
}
