package agronomy

import "math"

// IrrigationRequirement is the crop water demand in mm/day for the stage coefficient kc
func IrrigationRequirement(et0, kc float64) float64 {
	return et0 * kc
}

// AdjustIrrigation folds current soil moisture and the short-term rain forecast
// into the raw requirement. The result is floored at zero and is not capped by
// the raw requirement.
func AdjustIrrigation(required, soilMoisture, rainForecastMM float64) float64 {
	return math.Max(0, required*(1-soilMoisture)-rainForecastMM)
}
