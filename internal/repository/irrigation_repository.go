package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"crop-irrigation-tracker/internal/model"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// Stats summarises the content of the store
type Stats struct {
	Users             int64      `json:"users"`
	Fields            int64      `json:"fields"`
	IrrigationRecords int64      `json:"irrigation_records"`
	LatestCalculation *time.Time `json:"latest_calculation,omitempty"`
}

// IrrigationRepository defines the storage operations of the irrigation calculations
type IrrigationRepository interface {
	GetFieldProfile(ctx context.Context, userID uint) (*model.FieldProfile, error)
	UpsertFieldProfile(ctx context.Context, profile *model.FieldProfile) (uint, error)
	AppendIrrigationRecord(ctx context.Context, record *model.IrrigationRecord) error
	ListIrrigationHistory(ctx context.Context, userID uint, limit int) ([]model.IrrigationRecord, error)
	ListAllUserIDs(ctx context.Context) ([]uint, error)
	Stats(ctx context.Context) (*Stats, error)
}

// irrigationRepository implements IrrigationRepository
type irrigationRepository struct {
	db *gorm.DB
}

// NewIrrigationRepository creates a new irrigation repository
func NewIrrigationRepository(db *gorm.DB) IrrigationRepository {
	return &irrigationRepository{db: db}
}

// GetFieldProfile returns the field profile of a user or ErrNotFound
func (r *irrigationRepository) GetFieldProfile(ctx context.Context, userID uint) (*model.FieldProfile, error) {
	var profile model.FieldProfile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpsertFieldProfile updates the user's profile in place, or creates it when the
// user has none. Last write wins.
func (r *irrigationRepository) UpsertFieldProfile(ctx context.Context, profile *model.FieldProfile) (uint, error) {
	db := r.db.WithContext(ctx)
	profile.SowingDate = model.DateOnly(profile.SowingDate)

	var existing model.FieldProfile
	err := db.Where("user_id = ?", profile.UserID).Order("id DESC").First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile.ID = 0
		if err := db.Create(profile).Error; err != nil {
			return 0, err
		}
		return profile.ID, nil
	}
	if err != nil {
		return 0, err
	}

	// map updates so zero values are written too
	err = db.Model(&existing).Updates(map[string]interface{}{
		"lat":            profile.Latitude,
		"lon":            profile.Longitude,
		"field_capacity": profile.FieldCapacity,
		"crop_type":      profile.CropType,
		"sowing_date":    profile.SowingDate,
	}).Error
	if err != nil {
		return 0, err
	}

	profile.ID = existing.ID
	profile.CreatedAt = existing.CreatedAt
	profile.UpdatedAt = existing.UpdatedAt
	return existing.ID, nil
}

// AppendIrrigationRecord inserts a calculation result. Nothing prevents several
// records for the same user and date.
func (r *irrigationRepository) AppendIrrigationRecord(ctx context.Context, record *model.IrrigationRecord) error {
	record.ID = 0
	record.Date = model.DateOnly(record.Date)
	return r.db.WithContext(ctx).Create(record).Error
}

// ListIrrigationHistory returns the user's records, most recent date first.
// A limit of zero or less returns the full history.
func (r *irrigationRepository) ListIrrigationHistory(ctx context.Context, userID uint, limit int) ([]model.IrrigationRecord, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	records := []model.IrrigationRecord{}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ListAllUserIDs returns every registered user id in ascending order
func (r *irrigationRepository) ListAllUserIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&model.User{}).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Stats counts users, fields and records and finds the latest calculation date
func (r *irrigationRepository) Stats(ctx context.Context) (*Stats, error) {
	db := r.db.WithContext(ctx)
	stats := &Stats{}

	if err := db.Model(&model.User{}).Count(&stats.Users).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.FieldProfile{}).Count(&stats.Fields).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.IrrigationRecord{}).Count(&stats.IrrigationRecords).Error; err != nil {
		return nil, err
	}

	var latest []model.IrrigationRecord
	if err := db.Order("date DESC").Limit(1).Find(&latest).Error; err != nil {
		return nil, err
	}
	if len(latest) > 0 {
		date := latest[0].Date
		stats.LatestCalculation = &date
	}

	return stats, nil
}
