package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"crop-irrigation-tracker/internal/config"
	"crop-irrigation-tracker/internal/controller"
	"crop-irrigation-tracker/internal/logger"
	"crop-irrigation-tracker/internal/middleware"
	"crop-irrigation-tracker/internal/provider"
	"crop-irrigation-tracker/internal/repository"
	"crop-irrigation-tracker/internal/scheduler"
	"crop-irrigation-tracker/internal/service"
)

const serviceName = "crop-irrigation-tracker"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, serviceName)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	db, err := repository.Open(repository.Options{
		Driver:        cfg.Storage.Driver,
		DSN:           cfg.Storage.DSN,
		SlowThreshold: cfg.Storage.SlowThreshold,
	}, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	irrigationRepo := repository.NewIrrigationRepository(db)
	userRepo := repository.NewUserRepository(db)
	backupService := service.NewBackupService(repository.NewSnapshotRepository(db), cfg.Backup.Dir, log.Named("backup"))

	if cfg.Backup.RestoreOnStart {
		if _, err := backupService.RestoreIfEmpty(ctx); err != nil {
			log.Error("restore from backup failed", zap.Error(err))
		}
	}

	if cfg.Agro.APIKey == "" {
		log.Warn("AGROMONITORING_API_KEY is not set, weather and soil requests will fail")
	}
	if cfg.Auth.AdminUsername == "" {
		log.Warn("ADMIN_USERNAME is not set, admin routes are disabled")
	}
	agro := provider.NewAgroClient(cfg.Agro.BaseURL, cfg.Agro.APIKey, cfg.Agro.Timeout, log.Named("agro"))

	calculationService := service.NewCalculationService(irrigationRepo, agro, agro, backupService, log.Named("calculation"),
		service.CalculationOptions{UserTimeout: cfg.Scheduler.UserTimeout})
	authService := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log.Named("auth"))

	if cfg.Scheduler.Enabled {
		sched, err := newScheduler(ctx, cfg, calculationService, log.Named("scheduler"))
		if err != nil {
			return err
		}
		defer sched.Stop()
	}

	if cfg.Log.Format != "console" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := controller.NewRouter(controller.Services{
		Auth:        authService,
		Field:       service.NewFieldService(irrigationRepo, log.Named("field"), nil),
		Calculation: calculationService,
		Export:      service.NewExportService(irrigationRepo, log.Named("export")),
		Stats:       service.NewStatsService(irrigationRepo),
		Backup:      backupService,
	}, log, controller.RouterOptions{
		AdminUsername: cfg.Auth.AdminUsername,
		Metrics:       middleware.NewRequestMetrics(),
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
	return nil
}

// newScheduler starts the daily trigger. Redis backs the run guard when configured.
func newScheduler(ctx context.Context, cfg *config.Config, job scheduler.Job, log *zap.Logger) (*scheduler.Scheduler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone: %w", err)
	}

	var guard scheduler.RunGuard = scheduler.NewMemoryGuard()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, using in-memory run guard", zap.Error(err))
			client.Close()
		} else {
			guard = scheduler.NewRedisGuard(client)
		}
	}

	sched := scheduler.New(job, guard, log, scheduler.Options{
		Hour:     cfg.Scheduler.Hour,
		Window:   time.Duration(cfg.Scheduler.WindowMinutes) * time.Minute,
		Location: loc,
	})
	if err := sched.Start(ctx); err != nil {
		return nil, err
	}
	return sched, nil
}
