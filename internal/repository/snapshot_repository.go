package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"crop-irrigation-tracker/internal/model"
)

const restoreBatchSize = 100

// Snapshot is the full content of the store
type Snapshot struct {
	Users             []model.User
	FieldProfiles     []model.FieldProfile
	IrrigationRecords []model.IrrigationRecord
}

// SnapshotRepository dumps and reloads the whole store
type SnapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// IsEmpty reports whether no user has been stored yet
func (s *SnapshotRepository) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}

// Snapshot reads every user, field profile and irrigation record ordered by id
func (s *SnapshotRepository) Snapshot(ctx context.Context) (*Snapshot, error) {
	db := s.db.WithContext(ctx)
	snap := &Snapshot{
		Users:             []model.User{},
		FieldProfiles:     []model.FieldProfile{},
		IrrigationRecords: []model.IrrigationRecord{},
	}

	if err := db.Order("id ASC").Find(&snap.Users).Error; err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	if err := db.Order("id ASC").Find(&snap.FieldProfiles).Error; err != nil {
		return nil, fmt.Errorf("failed to read field data: %w", err)
	}
	if err := db.Order("id ASC").Find(&snap.IrrigationRecords).Error; err != nil {
		return nil, fmt.Errorf("failed to read irrigation records: %w", err)
	}
	return snap, nil
}

// Restore replaces the store content with the snapshot, keeping the original ids
func (s *SnapshotRepository) Restore(ctx context.Context, snap *Snapshot) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearExistingData(tx); err != nil {
			return fmt.Errorf("failed to clear existing data: %w", err)
		}

		if len(snap.Users) > 0 {
			if err := tx.CreateInBatches(&snap.Users, restoreBatchSize).Error; err != nil {
				return fmt.Errorf("failed to restore users: %w", err)
			}
		}
		if len(snap.FieldProfiles) > 0 {
			if err := tx.CreateInBatches(&snap.FieldProfiles, restoreBatchSize).Error; err != nil {
				return fmt.Errorf("failed to restore field data: %w", err)
			}
		}
		if len(snap.IrrigationRecords) > 0 {
			if err := tx.CreateInBatches(&snap.IrrigationRecords, restoreBatchSize).Error; err != nil {
				return fmt.Errorf("failed to restore irrigation records: %w", err)
			}
		}

		return resetSequences(tx)
	})
}

// clearExistingData removes existing rows, children first
func clearExistingData(tx *gorm.DB) error {
	all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
	if err := all.Delete(&model.IrrigationRecord{}).Error; err != nil {
		return err
	}
	if err := all.Delete(&model.FieldProfile{}).Error; err != nil {
		return err
	}
	return all.Delete(&model.User{}).Error
}

// resetSequences moves postgres serial sequences past the restored ids
func resetSequences(tx *gorm.DB) error {
	if tx.Dialector.Name() != DriverPostgres {
		return nil
	}
	for _, table := range []string{"users", "field_data", "irrigation_records"} {
		query := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM %s",
			table, table,
		)
		if err := tx.Exec(query).Error; err != nil {
			return fmt.Errorf("failed to reset sequence of %s: %w", table, err)
		}
	}
	return nil
}
