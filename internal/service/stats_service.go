package service

import (
	"context"
	"fmt"

	"crop-irrigation-tracker/internal/agronomy"
	"crop-irrigation-tracker/internal/repository"
)

// AdminStats is the content of the admin panel
type AdminStats struct {
	repository.Stats
	CropTypes []string `json:"crop_types"`
}

// StatsService reports store-wide statistics to administrators
type StatsService interface {
	Stats(ctx context.Context) (*AdminStats, error)
}

type statsService struct {
	repo repository.IrrigationRepository
}

// NewStatsService creates a new stats service
func NewStatsService(repo repository.IrrigationRepository) StatsService {
	return &statsService{repo: repo}
}

func (s *statsService) Stats(ctx context.Context) (*AdminStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}
	return &AdminStats{Stats: *stats, CropTypes: agronomy.CropTypes()}, nil
}
