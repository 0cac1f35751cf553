package provider

import (
	"context"
	"errors"
)

// ErrProviderUnavailable marks a weather or soil fetch that failed for any reason:
// transport error, non-success status or an unusable payload.
var ErrProviderUnavailable = errors.New("provider unavailable")

// ForecastEntry is one slot of the weather forecast. Only the fields used by the
// irrigation calculation are decoded.
type ForecastEntry struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp    float64 `json:"temp"`
		TempMin float64 `json:"temp_min"`
		TempMax float64 `json:"temp_max"` // Kelvin
	} `json:"main"`
	Rain map[string]float64 `json:"rain,omitempty"`
}

// RainThreeHour returns the 3-hour precipitation accumulation in mm, 0 when absent
func (e ForecastEntry) RainThreeHour() float64 {
	if e.Rain == nil {
		return 0
	}
	return e.Rain["3h"]
}

// SoilReading is the current soil state at a location
type SoilReading struct {
	Dt       int64   `json:"dt"`
	T10      float64 `json:"t10"`      // Kelvin at 10cm depth
	Moisture float64 `json:"moisture"` // volumetric fraction
	T0       float64 `json:"t0"`       // surface temperature, Kelvin
}

// WeatherProvider returns the forecast for a location; entry 0 is the current slot
type WeatherProvider interface {
	Forecast(ctx context.Context, lat, lon float64) ([]ForecastEntry, error)
}

// SoilProvider returns current soil moisture for a location
type SoilProvider interface {
	Soil(ctx context.Context, lat, lon float64) (*SoilReading, error)
}
