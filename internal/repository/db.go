package repository

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"crop-irrigation-tracker/internal/model"
)

// Supported storage drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Options selects and configures the storage backend
type Options struct {
	Driver        string
	DSN           string
	SlowThreshold time.Duration
}

// Open connects to the configured backend and migrates the schema
func Open(opts Options, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case DriverPostgres:
		dialector = postgres.Open(opts.DSN)
	case DriverSQLite:
		dialector = sqlite.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", opts.Driver)
	}

	slow := opts.SlowThreshold
	if slow <= 0 {
		slow = time.Second
	}

	stdLog, err := zap.NewStdLogAt(logger.Named("gorm"), zapcore.WarnLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to build gorm logger: %w", err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.New(
			stdLog,
			gormLogger.Config{
				SlowThreshold:             slow,
				LogLevel:                  gormLogger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", opts.Driver, err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	logger.Info("storage ready", zap.String("driver", opts.Driver))
	return db, nil
}

// Migrate creates or updates the tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.FieldProfile{},
		&model.IrrigationRecord{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
