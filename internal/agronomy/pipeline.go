package agronomy

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidFieldProfile is returned when field properties cannot support a calculation
var ErrInvalidFieldProfile = errors.New("invalid field profile")

// Inputs is everything needed to produce one irrigation recommendation
type Inputs struct {
	CropType      string
	SowingDate    time.Time
	FieldCapacity float64
	Today         time.Time

	TempMaxKelvin  float64
	RainForecastMM float64
	SoilMoisture   float64
}

// Result carries the intermediate and final values of a calculation
type Result struct {
	Stage           Stage
	DaysSinceSowing int
	Kc              float64
	WiltingPoint    float64
	TempMaxC        float64

	ET0                float64
	AET                float64
	IrrigationRequired float64
	AdjustedIrrigation float64
}

// ValidateFieldCapacity checks that field capacity is a fraction in (0, 1]
func ValidateFieldCapacity(fieldCapacity float64) error {
	if fieldCapacity <= 0 || fieldCapacity > 1 {
		return fmt.Errorf("%w: field capacity %v must be in (0, 1]", ErrInvalidFieldProfile, fieldCapacity)
	}
	return nil
}

// Compute runs the irrigation pipeline: stage, Kc, ET0, AET, raw and adjusted requirement
func Compute(in Inputs) (Result, error) {
	if err := ValidateFieldCapacity(in.FieldCapacity); err != nil {
		return Result{}, err
	}

	stage, days := ClassifyStage(in.SowingDate, in.Today)
	kc, err := KcFor(in.CropType, stage)
	if err != nil {
		return Result{}, err
	}

	pwp := WiltingPoint(in.FieldCapacity)
	tMaxC := KelvinToCelsius(in.TempMaxKelvin)
	et0 := JensenHaiseET0(tMaxC)
	aet := ActualET(et0, in.SoilMoisture, in.FieldCapacity, pwp)
	required := IrrigationRequirement(et0, kc)

	return Result{
		Stage:              stage,
		DaysSinceSowing:    days,
		Kc:                 kc,
		WiltingPoint:       pwp,
		TempMaxC:           tMaxC,
		ET0:                et0,
		AET:                aet,
		IrrigationRequired: required,
		AdjustedIrrigation: AdjustIrrigation(required, in.SoilMoisture, in.RainForecastMM),
	}, nil
}
