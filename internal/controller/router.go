package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crop-irrigation-tracker/internal/middleware"
	"crop-irrigation-tracker/internal/service"
)

// Services groups what the HTTP surface calls into
type Services struct {
	Auth        service.AuthService
	Field       service.FieldService
	Calculation service.CalculationService
	Export      service.ExportService
	Stats       service.StatsService
	Backup      service.Backuper
}

// RouterOptions configures NewRouter
type RouterOptions struct {
	AdminUsername string
	Metrics       *middleware.RequestMetrics
}

// NewRouter wires every route of the service
func NewRouter(svc Services, logger *zap.Logger, opts RouterOptions) *gin.Engine {
	if opts.Metrics == nil {
		opts.Metrics = middleware.NewRequestMetrics()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLoggingMiddleware(logger, opts.Metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", middleware.MetricsHandler(opts.Metrics))

	authController := NewAuthController(svc.Auth, logger)
	fieldController := NewFieldController(svc.Field, logger)
	irrigationController := NewIrrigationController(svc.Calculation, svc.Export, logger)
	adminController := NewAdminController(svc.Stats, svc.Calculation, svc.Backup, logger)

	v1 := r.Group("/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authController.Register)
			auth.POST("/login", authController.Login)
		}
		v1.GET("/crops", ListCrops)

		user := v1.Group("", middleware.RequireAuth(svc.Auth, logger))
		{
			user.GET("/field", fieldController.GetField)
			user.PUT("/field", fieldController.SaveField)

			irrigation := user.Group("/irrigation")
			{
				irrigation.POST("/calculate", irrigationController.Calculate)
				irrigation.GET("/history", irrigationController.History)
				irrigation.GET("/history/export", irrigationController.ExportHistory)
			}

			admin := user.Group("/admin", middleware.RequireAdmin(opts.AdminUsername))
			{
				admin.GET("/stats", adminController.Stats)
				admin.POST("/calculations/run", adminController.RunCalculations)
				admin.POST("/backup", adminController.Backup)
			}
		}
	}
	return r
}
