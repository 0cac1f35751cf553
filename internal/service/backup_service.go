package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"crop-irrigation-tracker/internal/model"
	"crop-irrigation-tracker/internal/repository"
)

const (
	usersFile             = "users.json"
	fieldDataFile         = "field_data.json"
	irrigationRecordsFile = "irrigation_records.json"

	dateLayout = "2006-01-02"
)

// SnapshotStore dumps and reloads the whole store
type SnapshotStore interface {
	IsEmpty(ctx context.Context) (bool, error)
	Snapshot(ctx context.Context) (*repository.Snapshot, error)
	Restore(ctx context.Context, snap *repository.Snapshot) error
}

// BackupService mirrors the store into JSON files and reloads them into an
// empty store
type BackupService interface {
	Backuper
	RestoreIfEmpty(ctx context.Context) (bool, error)
}

type backupService struct {
	store  SnapshotStore
	dir    string
	logger *zap.Logger
}

// NewBackupService creates a backup service writing into dir
func NewBackupService(store SnapshotStore, dir string, logger *zap.Logger) BackupService {
	return &backupService{store: store, dir: dir, logger: logger}
}

type userRow struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	CreatedAt string `json:"created_at"`
}

type fieldRow struct {
	ID            uint    `json:"id"`
	UserID        uint    `json:"user_id"`
	Lat           float64 `json:"lat"`
	Lon           float64 `json:"lon"`
	FieldCapacity float64 `json:"field_capacity"`
	CropType      string  `json:"crop_type"`
	SowingDate    string  `json:"sowing_date"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

type recordRow struct {
	ID                 uint    `json:"id"`
	UserID             uint    `json:"user_id"`
	FieldID            uint    `json:"field_id"`
	Date               string  `json:"date"`
	ET0                float64 `json:"et0"`
	AET                float64 `json:"aet"`
	IrrigationRequired float64 `json:"irrigation_required"`
	AdjustedIrrigation float64 `json:"adjusted_irrigation"`
	SoilMoisture       float64 `json:"soil_moisture"`
	CreatedAt          string  `json:"created_at"`
}

// BackupAll writes one file per table. Files are replaced atomically.
func (s *backupService) BackupAll(ctx context.Context) error {
	start := time.Now()
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read store: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup dir: %w", err)
	}

	users := make([]userRow, 0, len(snap.Users))
	for _, u := range snap.Users {
		users = append(users, userRow{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			Password:  u.Password,
			CreatedAt: formatTimestamp(u.CreatedAt),
		})
	}
	fields := make([]fieldRow, 0, len(snap.FieldProfiles))
	for _, f := range snap.FieldProfiles {
		fields = append(fields, fieldRow{
			ID:            f.ID,
			UserID:        f.UserID,
			Lat:           f.Latitude,
			Lon:           f.Longitude,
			FieldCapacity: f.FieldCapacity,
			CropType:      f.CropType,
			SowingDate:    f.SowingDate.Format(dateLayout),
			CreatedAt:     formatTimestamp(f.CreatedAt),
			UpdatedAt:     formatTimestamp(f.UpdatedAt),
		})
	}
	records := make([]recordRow, 0, len(snap.IrrigationRecords))
	for _, r := range snap.IrrigationRecords {
		records = append(records, recordRow{
			ID:                 r.ID,
			UserID:             r.UserID,
			FieldID:            r.FieldID,
			Date:               r.Date.Format(dateLayout),
			ET0:                r.ET0,
			AET:                r.AET,
			IrrigationRequired: r.IrrigationRequired,
			AdjustedIrrigation: r.AdjustedIrrigation,
			SoilMoisture:       r.SoilMoisture,
			CreatedAt:          formatTimestamp(r.CreatedAt),
		})
	}

	var errs []error
	for name, rows := range map[string]interface{}{
		usersFile:             users,
		fieldDataFile:         fields,
		irrigationRecordsFile: records,
	} {
		if err := writeJSONFile(filepath.Join(s.dir, name), rows); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	s.logger.Info("backup completed",
		zap.String("dir", s.dir),
		zap.Int("users", len(users)),
		zap.Int("fields", len(fields)),
		zap.Int("irrigation_records", len(records)),
		zap.Int64("latency_ms", time.Since(start).Milliseconds()),
	)
	return nil
}

// RestoreIfEmpty loads the backup files when the store has no users. It
// reports whether a restore happened. Missing files restore as empty tables.
func (s *backupService) RestoreIfEmpty(ctx context.Context) (bool, error) {
	empty, err := s.store.IsEmpty(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to inspect store: %w", err)
	}
	if !empty {
		s.logger.Debug("store not empty, skipping restore")
		return false, nil
	}

	var (
		users   []userRow
		fields  []fieldRow
		records []recordRow
	)
	found := false
	for name, dst := range map[string]interface{}{
		usersFile:             &users,
		fieldDataFile:         &fields,
		irrigationRecordsFile: &records,
	} {
		ok, err := readJSONFile(filepath.Join(s.dir, name), dst)
		if err != nil {
			return false, fmt.Errorf("%s: %w", name, err)
		}
		found = found || ok
	}
	if !found {
		s.logger.Info("no backup files found", zap.String("dir", s.dir))
		return false, nil
	}

	snap, err := toSnapshot(users, fields, records)
	if err != nil {
		return false, err
	}
	if err := s.store.Restore(ctx, snap); err != nil {
		return false, fmt.Errorf("failed to restore store: %w", err)
	}

	s.logger.Info("store restored from backup",
		zap.String("dir", s.dir),
		zap.Int("users", len(snap.Users)),
		zap.Int("fields", len(snap.FieldProfiles)),
		zap.Int("irrigation_records", len(snap.IrrigationRecords)),
	)
	return true, nil
}

func toSnapshot(users []userRow, fields []fieldRow, records []recordRow) (*repository.Snapshot, error) {
	snap := &repository.Snapshot{}
	for _, u := range users {
		createdAt, err := parseTimestamp(u.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", u.ID, err)
		}
		snap.Users = append(snap.Users, model.User{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			Password:  u.Password,
			CreatedAt: createdAt,
		})
	}
	for _, f := range fields {
		sowing, err := time.Parse(dateLayout, f.SowingDate)
		if err != nil {
			return nil, fmt.Errorf("field %d: invalid sowing_date: %w", f.ID, err)
		}
		createdAt, err := parseTimestamp(f.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", f.ID, err)
		}
		updatedAt, err := parseTimestamp(f.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", f.ID, err)
		}
		snap.FieldProfiles = append(snap.FieldProfiles, model.FieldProfile{
			ID:            f.ID,
			UserID:        f.UserID,
			Latitude:      f.Lat,
			Longitude:     f.Lon,
			FieldCapacity: f.FieldCapacity,
			CropType:      f.CropType,
			SowingDate:    sowing,
			CreatedAt:     createdAt,
			UpdatedAt:     updatedAt,
		})
	}
	for _, r := range records {
		date, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("irrigation record %d: invalid date: %w", r.ID, err)
		}
		createdAt, err := parseTimestamp(r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("irrigation record %d: %w", r.ID, err)
		}
		snap.IrrigationRecords = append(snap.IrrigationRecords, model.IrrigationRecord{
			ID:                 r.ID,
			UserID:             r.UserID,
			FieldID:            r.FieldID,
			Date:               date,
			ET0:                r.ET0,
			AET:                r.AET,
			IrrigationRequired: r.IrrigationRequired,
			AdjustedIrrigation: r.AdjustedIrrigation,
			SoilMoisture:       r.SoilMoisture,
			CreatedAt:          createdAt,
		})
	}
	return snap, nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// parseTimestamp accepts RFC3339 or a bare date; empty means zero time
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05.999999", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return t, nil
}

func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// readJSONFile decodes path into dst and reports whether the file existed
func readJSONFile(path string, dst interface{}) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("invalid backup file: %w", err)
	}
	return true, nil
}
