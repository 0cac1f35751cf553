package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"crop-irrigation-tracker/internal/agronomy"
	"crop-irrigation-tracker/internal/model"
	"crop-irrigation-tracker/internal/provider"
	"crop-irrigation-tracker/internal/repository"
)

// Backuper writes the store to flat files after a scheduled run
type Backuper interface {
	BackupAll(ctx context.Context) error
}

// CalculationService runs irrigation calculations and serves their history
type CalculationService interface {
	Calculate(ctx context.Context, userID uint) (*CalculationResult, error)
	RunScheduled(ctx context.Context) (*RunSummary, error)
	History(ctx context.Context, userID uint, limit int) (*HistoryResponse, error)
}

// CalculationResult is the stored record plus the values it was derived from
type CalculationResult struct {
	Record          model.IrrigationRecord `json:"record"`
	CropType        string                 `json:"crop_type"`
	Stage           agronomy.Stage         `json:"stage"`
	DaysSinceSowing int                    `json:"days_since_sowing"`
	Kc              float64                `json:"kc"`
	WiltingPoint    float64                `json:"permanent_wilting_point"`
	TempMaxC        float64                `json:"temp_max_c"`
	RainForecastMM  float64                `json:"rain_forecast_mm"`
}

// RunSummary reports the outcome of one pass over all users
type RunSummary struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Users      int       `json:"users"`
	Saved      int       `json:"saved"`
	NoField    int       `json:"no_field"`
	Skipped    int       `json:"skipped"` // provider unavailable
	Failed     int       `json:"failed"`
	BackedUp   bool      `json:"backed_up"`
}

// HistoryResponse is a user's irrigation history with summary statistics
type HistoryResponse struct {
	UserID  uint                     `json:"user_id"`
	Records []model.IrrigationRecord `json:"records"`
	Summary HistorySummary           `json:"summary"`
}

// HistorySummary contains summary statistics over a history
type HistorySummary struct {
	Records                 int        `json:"records"`
	FirstDate               *time.Time `json:"first_date,omitempty"`
	LastDate                *time.Time `json:"last_date,omitempty"`
	TotalIrrigationRequired float64    `json:"total_irrigation_required"`
	TotalAdjustedIrrigation float64    `json:"total_adjusted_irrigation"`
	AverageET0              float64    `json:"average_et0"`
	AverageAET              float64    `json:"average_aet"`
	AverageSoilMoisture     float64    `json:"average_soil_moisture"`
}

// CalculationOptions tunes the calculation service
type CalculationOptions struct {
	// UserTimeout bounds the provider calls of one user during a scheduled run
	UserTimeout time.Duration
	Now         func() time.Time
}

// calculationService implements CalculationService
type calculationService struct {
	repo        repository.IrrigationRepository
	weather     provider.WeatherProvider
	soil        provider.SoilProvider
	backup      Backuper
	logger      *zap.Logger
	userTimeout time.Duration
	now         func() time.Time
}

// NewCalculationService creates a new calculation service. backup may be nil.
func NewCalculationService(
	repo repository.IrrigationRepository,
	weather provider.WeatherProvider,
	soil provider.SoilProvider,
	backup Backuper,
	logger *zap.Logger,
	opts CalculationOptions,
) CalculationService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &calculationService{
		repo:        repo,
		weather:     weather,
		soil:        soil,
		backup:      backup,
		logger:      logger,
		userTimeout: opts.UserTimeout,
		now:         opts.Now,
	}
}

// Calculate runs the calculation for one user on live provider data. No record
// is saved when a provider fails.
func (s *calculationService) Calculate(ctx context.Context, userID uint) (*CalculationResult, error) {
	profile, err := s.repo.GetFieldProfile(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoFieldProfile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load field profile: %w", err)
	}
	return s.calculate(ctx, profile)
}

func (s *calculationService) calculate(ctx context.Context, profile *model.FieldProfile) (*CalculationResult, error) {
	if !agronomy.IsKnownCrop(profile.CropType) {
		return nil, fmt.Errorf("%w: %q", agronomy.ErrUnknownCropType, profile.CropType)
	}
	if err := agronomy.ValidateFieldCapacity(profile.FieldCapacity); err != nil {
		return nil, err
	}

	forecast, err := s.weather.Forecast(ctx, profile.Latitude, profile.Longitude)
	if err != nil {
		return nil, fmt.Errorf("weather: %w", asProviderError(err))
	}
	if len(forecast) == 0 {
		return nil, fmt.Errorf("weather: %w: empty forecast", provider.ErrProviderUnavailable)
	}

	soil, err := s.soil.Soil(ctx, profile.Latitude, profile.Longitude)
	if err != nil {
		return nil, fmt.Errorf("soil: %w", asProviderError(err))
	}

	today := s.now()
	current := forecast[0]
	result, err := agronomy.Compute(agronomy.Inputs{
		CropType:       profile.CropType,
		SowingDate:     profile.SowingDate,
		FieldCapacity:  profile.FieldCapacity,
		Today:          today,
		TempMaxKelvin:  current.Main.TempMax,
		RainForecastMM: current.RainThreeHour(),
		SoilMoisture:   soil.Moisture,
	})
	if err != nil {
		return nil, err
	}

	record := model.IrrigationRecord{
		UserID:             profile.UserID,
		FieldID:            profile.ID,
		Date:               model.DateOnly(today),
		ET0:                result.ET0,
		AET:                result.AET,
		IrrigationRequired: result.IrrigationRequired,
		AdjustedIrrigation: result.AdjustedIrrigation,
		SoilMoisture:       soil.Moisture,
	}
	if err := s.repo.AppendIrrigationRecord(ctx, &record); err != nil {
		return nil, fmt.Errorf("failed to save irrigation record: %w", err)
	}

	s.logger.Info("irrigation calculated",
		zap.Uint("user_id", profile.UserID),
		zap.Uint("field_id", profile.ID),
		zap.String("stage", string(result.Stage)),
		zap.Float64("et0", result.ET0),
		zap.Float64("adjusted_irrigation", result.AdjustedIrrigation),
	)

	return &CalculationResult{
		Record:          record,
		CropType:        profile.CropType,
		Stage:           result.Stage,
		DaysSinceSowing: result.DaysSinceSowing,
		Kc:              result.Kc,
		WiltingPoint:    result.WiltingPoint,
		TempMaxC:        result.TempMaxC,
		RainForecastMM:  current.RainThreeHour(),
	}, nil
}

// asProviderError tags errors from providers that did not tag them themselves
func asProviderError(err error) error {
	if errors.Is(err, provider.ErrProviderUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", provider.ErrProviderUnavailable, err)
}

// RunScheduled calculates for every user in turn. A user without a field, or
// whose providers fail, is skipped and the run continues. The backup runs after
// the loop whatever happened. Each call appends new records.
func (s *calculationService) RunScheduled(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{StartedAt: s.now()}
	s.logger.Info("scheduled calculations started")

	userIDs, listErr := s.repo.ListAllUserIDs(ctx)
	if listErr != nil {
		s.logger.Error("failed to list users", zap.Error(listErr))
		listErr = fmt.Errorf("failed to list users: %w", listErr)
	}

	for _, userID := range userIDs {
		if ctx.Err() != nil {
			s.logger.Warn("scheduled calculations interrupted", zap.Error(ctx.Err()))
			break
		}
		summary.Users++
		s.runForUser(ctx, userID, summary)
	}

	summary.FinishedAt = s.now()
	s.logger.Info("scheduled calculations completed",
		zap.Int("users", summary.Users),
		zap.Int("saved", summary.Saved),
		zap.Int("no_field", summary.NoField),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Int64("latency_ms", summary.FinishedAt.Sub(summary.StartedAt).Milliseconds()),
	)

	if s.backup != nil {
		if err := s.backup.BackupAll(ctx); err != nil {
			s.logger.Error("backup after scheduled calculations failed", zap.Error(err))
		} else {
			summary.BackedUp = true
		}
	}

	return summary, listErr
}

func (s *calculationService) runForUser(ctx context.Context, userID uint, summary *RunSummary) {
	profile, err := s.repo.GetFieldProfile(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		summary.NoField++
		s.logger.Debug("no field data, skipping", zap.Uint("user_id", userID))
		return
	}
	if err != nil {
		summary.Failed++
		s.logger.Error("failed to load field profile", zap.Uint("user_id", userID), zap.Error(err))
		return
	}

	userCtx := ctx
	if s.userTimeout > 0 {
		var cancel context.CancelFunc
		userCtx, cancel = context.WithTimeout(ctx, s.userTimeout)
		defer cancel()
	}

	if _, err := s.calculate(userCtx, profile); err != nil {
		if errors.Is(err, provider.ErrProviderUnavailable) {
			summary.Skipped++
			s.logger.Warn("provider unavailable, skipping user", zap.Uint("user_id", userID), zap.Error(err))
			return
		}
		summary.Failed++
		s.logger.Error("calculation failed", zap.Uint("user_id", userID), zap.Error(err))
		return
	}
	summary.Saved++
}

// History returns the user's records, most recent first, with a summary
func (s *calculationService) History(ctx context.Context, userID uint, limit int) (*HistoryResponse, error) {
	records, err := s.repo.ListIrrigationHistory(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list irrigation history: %w", err)
	}
	return &HistoryResponse{
		UserID:  userID,
		Records: records,
		Summary: summarize(records),
	}, nil
}

// summarize computes summary statistics over records ordered most recent first
func summarize(records []model.IrrigationRecord) HistorySummary {
	summary := HistorySummary{Records: len(records)}
	if len(records) == 0 {
		return summary
	}

	var totalRequired, totalAdjusted, totalET0, totalAET, totalMoisture float64
	for _, r := range records {
		totalRequired += r.IrrigationRequired
		totalAdjusted += r.AdjustedIrrigation
		totalET0 += r.ET0
		totalAET += r.AET
		totalMoisture += r.SoilMoisture
	}

	n := float64(len(records))
	first := records[len(records)-1].Date
	last := records[0].Date
	summary.FirstDate = &first
	summary.LastDate = &last
	summary.TotalIrrigationRequired = round(totalRequired, 2)
	summary.TotalAdjustedIrrigation = round(totalAdjusted, 2)
	summary.AverageET0 = round(totalET0/n, 2)
	summary.AverageAET = round(totalAET/n, 2)
	summary.AverageSoilMoisture = round(totalMoisture/n, 4)
	return summary
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
