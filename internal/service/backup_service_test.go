package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"crop-irrigation-tracker/internal/model"
	"crop-irrigation-tracker/internal/repository"
)

func seedStore(t *testing.T, repo repository.IrrigationRepository, userID uint) {
	ctx := context.Background()
	_, err := repo.UpsertFieldProfile(ctx, &model.FieldProfile{
		UserID:        userID,
		Latitude:      12.97,
		Longitude:     77.59,
		FieldCapacity: 0.4,
		CropType:      "Rice",
		SowingDate:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NoError(t, repo.AppendIrrigationRecord(ctx, &model.IrrigationRecord{
		UserID:             userID,
		FieldID:            1,
		Date:               time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC),
		ET0:                7.1,
		AET:                3.2,
		IrrigationRequired: 8.52,
		AdjustedIrrigation: 5.11,
		SoilMoisture:       0.3,
	}))
}

func TestBackupAll_WritesThreeFiles(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewIrrigationRepository(db)
	user := createUser(t, db, "grower")
	seedStore(t, repo, user.ID)

	dir := filepath.Join(t.TempDir(), "backup")
	svc := NewBackupService(repository.NewSnapshotRepository(db), dir, zap.NewNop())
	require.NoError(t, svc.BackupAll(context.Background()))

	for _, name := range []string{"users.json", "field_data.json", "irrigation_records.json"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "irrigation_records.json"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), "\n        \"date\": \"2025-07-10\""), string(raw))

	var fields []map[string]interface{}
	raw, err = os.ReadFile(filepath.Join(dir, "field_data.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &fields))
	require.Len(t, fields, 1)
	assert.Equal(t, "2025-06-01", fields[0]["sowing_date"])
	assert.Equal(t, "Rice", fields[0]["crop_type"])
	assert.Equal(t, 12.97, fields[0]["lat"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestRestoreIfEmpty_RoundTrip(t *testing.T) {
	source := setupTestDB(t)
	sourceRepo := repository.NewIrrigationRepository(source)
	user := createUser(t, source, "grower")
	seedStore(t, sourceRepo, user.ID)

	dir := t.TempDir()
	ctx := context.Background()
	require.NoError(t, NewBackupService(repository.NewSnapshotRepository(source), dir, zap.NewNop()).BackupAll(ctx))

	target := setupTestDB(t)
	restored, err := NewBackupService(repository.NewSnapshotRepository(target), dir, zap.NewNop()).RestoreIfEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, restored)

	targetRepo := repository.NewIrrigationRepository(target)
	profile, err := targetRepo.GetFieldProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rice", profile.CropType)
	assert.Equal(t, "2025-06-01", profile.SowingDate.Format("2006-01-02"))

	history, err := targetRepo.ListIrrigationHistory(ctx, user.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.InDelta(t, 5.11, history[0].AdjustedIrrigation, 1e-9)

	restoredUser, err := repository.NewUserRepository(target).GetUserByUsername(ctx, "grower")
	require.NoError(t, err)
	assert.Equal(t, user.ID, restoredUser.ID)
	assert.Equal(t, "hash", restoredUser.Password)
}

func TestRestoreIfEmpty_SkipsPopulatedStore(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "existing")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.json"), []byte(`[{"id": 99, "username": "ghost"}]`), 0o644))

	restored, err := NewBackupService(repository.NewSnapshotRepository(db), dir, zap.NewNop()).RestoreIfEmpty(context.Background())
	require.NoError(t, err)
	assert.False(t, restored)

	_, err = repository.NewUserRepository(db).GetUserByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRestoreIfEmpty_NoFiles(t *testing.T) {
	db := setupTestDB(t)
	restored, err := NewBackupService(repository.NewSnapshotRepository(db), t.TempDir(), zap.NewNop()).RestoreIfEmpty(context.Background())
	require.NoError(t, err)
	assert.False(t, restored)
}

func TestRestoreIfEmpty_MalformedFile(t *testing.T) {
	db := setupTestDB(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "field_data.json"), []byte(`{not json`), 0o644))

	_, err := NewBackupService(repository.NewSnapshotRepository(db), dir, zap.NewNop()).RestoreIfEmpty(context.Background())
	assert.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"empty", "", time.Time{}, false},
		{"rfc3339", "2025-04-01T10:30:00Z", time.Date(2025, 4, 1, 10, 30, 0, 0, time.UTC), false},
		{"isoformat without zone", "2025-04-01T10:30:00.123456", time.Date(2025, 4, 1, 10, 30, 0, 123456000, time.UTC), false},
		{"date only", "2025-04-01", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), false},
		{"garbage", "yesterday", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTimestamp(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}
