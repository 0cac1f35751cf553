package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"crop-irrigation-tracker/internal/model"
	"crop-irrigation-tracker/internal/repository"
)

const historySheet = "Irrigation History"

// HistoryExportHeader is the header row of the history workbook
var HistoryExportHeader = []string{
	"Date",
	"ET₀ (mm/day)",
	"AET (mm/day)",
	"Required Irrigation (mm/day)",
	"Adjusted Irrigation (mm/day)",
	"Soil Moisture (fraction)",
}

// ExportService renders a user's irrigation history as a spreadsheet
type ExportService interface {
	ExportHistory(ctx context.Context, userID uint) ([]byte, error)
}

type exportService struct {
	repo   repository.IrrigationRepository
	logger *zap.Logger
}

// NewExportService creates a new export service
func NewExportService(repo repository.IrrigationRepository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ExportHistory returns an xlsx workbook with all records of the user, most
// recent first. A user without records gets the header row only.
func (s *exportService) ExportHistory(ctx context.Context, userID uint) ([]byte, error) {
	records, err := s.repo.ListIrrigationHistory(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list irrigation history: %w", err)
	}
	data, err := buildHistoryWorkbook(records)
	if err != nil {
		return nil, err
	}
	s.logger.Info("irrigation history exported",
		zap.Uint("user_id", userID),
		zap.Int("records", len(records)),
		zap.Int("bytes", len(data)),
	)
	return data, nil
}

func buildHistoryWorkbook(records []model.IrrigationRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(historySheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range HistoryExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(historySheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(historySheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}
	if err := f.SetColWidth(historySheet, "A", "F", 28); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		row := []interface{}{
			r.Date.Format("Jan 02, 2006"),
			r.ET0,
			r.AET,
			r.IrrigationRequired,
			r.AdjustedIrrigation,
			r.SoilMoisture,
		}
		if err := f.SetSheetRow(historySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(historySheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
