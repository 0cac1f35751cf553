package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"crop-irrigation-tracker/internal/model"
	"crop-irrigation-tracker/internal/provider"
	"crop-irrigation-tracker/internal/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := repository.Open(repository.Options{
		Driver: repository.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "irrigation.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *model.User {
	user := &model.User{Username: username, Email: username + "@example.com", Password: "hash"}
	require.NoError(t, repository.NewUserRepository(db).CreateUser(context.Background(), user))
	return user
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// fakeWeather serves one forecast entry, failing for latitudes listed in failLat
type fakeWeather struct {
	tempMaxK float64
	rainMM   *float64
	failLat  map[float64]bool
	empty    bool

	mu    sync.Mutex
	calls int
}

func (f *fakeWeather) Forecast(ctx context.Context, lat, lon float64) ([]provider.ForecastEntry, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.failLat[lat] {
		return nil, errors.New("connection refused")
	}
	if f.empty {
		return []provider.ForecastEntry{}, nil
	}
	entry := provider.ForecastEntry{Dt: 1700000000}
	entry.Main.TempMax = f.tempMaxK
	if f.rainMM != nil {
		entry.Rain = map[string]float64{"3h": *f.rainMM}
	}
	return []provider.ForecastEntry{entry}, nil
}

type fakeSoil struct {
	moisture float64
	err      error
}

func (f *fakeSoil) Soil(ctx context.Context, lat, lon float64) (*provider.SoilReading, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &provider.SoilReading{Moisture: f.moisture}, nil
}

type fakeBackuper struct {
	calls int
	err   error
}

func (f *fakeBackuper) BackupAll(ctx context.Context) error {
	f.calls++
	return f.err
}

func floatPtr(v float64) *float64 { return &v }
