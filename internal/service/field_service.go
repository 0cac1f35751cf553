package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"crop-irrigation-tracker/internal/agronomy"
	"crop-irrigation-tracker/internal/model"
	"crop-irrigation-tracker/internal/repository"
)

// FieldInput is the user-editable part of a field profile
type FieldInput struct {
	Latitude      float64
	Longitude     float64
	FieldCapacity float64
	CropType      string
	SowingDate    time.Time
}

// FieldStatus is derived from a profile for a given day and never stored
type FieldStatus struct {
	Stage           agronomy.Stage `json:"stage"`
	DaysSinceSowing int            `json:"days_since_sowing"`
	Kc              float64        `json:"kc"`
	WiltingPoint    float64        `json:"permanent_wilting_point"`
}

// FieldService manages the single field profile of each user
type FieldService interface {
	GetProfile(ctx context.Context, userID uint) (*model.FieldProfile, error)
	SaveProfile(ctx context.Context, userID uint, input FieldInput) (*model.FieldProfile, bool, error)
	Status(profile *model.FieldProfile) (*FieldStatus, error)
}

type fieldService struct {
	repo   repository.IrrigationRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewFieldService creates a new field service
func NewFieldService(repo repository.IrrigationRepository, logger *zap.Logger, now func() time.Time) FieldService {
	if now == nil {
		now = time.Now
	}
	return &fieldService{repo: repo, logger: logger, now: now}
}

// GetProfile returns the user's profile or ErrNoFieldProfile
func (s *fieldService) GetProfile(ctx context.Context, userID uint) (*model.FieldProfile, error) {
	profile, err := s.repo.GetFieldProfile(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoFieldProfile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load field profile: %w", err)
	}
	return profile, nil
}

// SaveProfile validates the input and stores it when it differs from the stored
// profile. The boolean reports whether a write happened.
func (s *fieldService) SaveProfile(ctx context.Context, userID uint, input FieldInput) (*model.FieldProfile, bool, error) {
	if err := ValidateFieldInput(input); err != nil {
		return nil, false, err
	}

	candidate := model.FieldProfile{
		UserID:        userID,
		Latitude:      input.Latitude,
		Longitude:     input.Longitude,
		FieldCapacity: input.FieldCapacity,
		CropType:      input.CropType,
		SowingDate:    model.DateOnly(input.SowingDate),
	}

	stored, err := s.repo.GetFieldProfile(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to load field profile: %w", err)
	}
	if stored != nil && stored.SameSettings(candidate) {
		return stored, false, nil
	}

	if _, err := s.repo.UpsertFieldProfile(ctx, &candidate); err != nil {
		return nil, false, fmt.Errorf("failed to save field profile: %w", err)
	}

	s.logger.Info("field profile saved",
		zap.Uint("user_id", userID),
		zap.Uint("field_id", candidate.ID),
		zap.String("crop_type", candidate.CropType),
	)
	return &candidate, true, nil
}

// Status derives the growth stage, Kc and wilting point for today
func (s *fieldService) Status(profile *model.FieldProfile) (*FieldStatus, error) {
	stage, days := agronomy.ClassifyStage(profile.SowingDate, s.now())
	kc, err := agronomy.KcFor(profile.CropType, stage)
	if err != nil {
		return nil, err
	}
	return &FieldStatus{
		Stage:           stage,
		DaysSinceSowing: days,
		Kc:              kc,
		WiltingPoint:    agronomy.WiltingPoint(profile.FieldCapacity),
	}, nil
}

// ValidateFieldInput rejects unknown crops, out-of-range coordinates and field
// capacities outside (0, 1]. Sowing dates in the future are accepted.
func ValidateFieldInput(input FieldInput) error {
	if !agronomy.IsKnownCrop(input.CropType) {
		return fmt.Errorf("%w: %q", agronomy.ErrUnknownCropType, input.CropType)
	}
	if err := agronomy.ValidateFieldCapacity(input.FieldCapacity); err != nil {
		return err
	}
	if input.Latitude < -90 || input.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", agronomy.ErrInvalidFieldProfile, input.Latitude)
	}
	if input.Longitude < -180 || input.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", agronomy.ErrInvalidFieldProfile, input.Longitude)
	}
	if input.SowingDate.IsZero() {
		return fmt.Errorf("%w: sowing date is required", agronomy.ErrInvalidFieldProfile)
	}
	return nil
}
