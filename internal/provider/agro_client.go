package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	forecastPath = "/agro/1.0/weather/forecast"
	soilPath     = "/agro/1.0/soil"
)

// AgroClient fetches weather forecasts and soil data from the agromonitoring API.
// A failed request is not retried.
type AgroClient struct {
	httpClient *resty.Client
	apiKey     string
	logger     *zap.Logger
}

// NewAgroClient creates an agromonitoring client
func NewAgroClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *AgroClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	return &AgroClient{
		httpClient: client,
		apiKey:     apiKey,
		logger:     logger,
	}
}

func (c *AgroClient) locationParams(lat, lon float64) map[string]string {
	return map[string]string{
		"lat":   strconv.FormatFloat(lat, 'f', -1, 64),
		"lon":   strconv.FormatFloat(lon, 'f', -1, 64),
		"appid": c.apiKey,
	}
}

// forecastWire mirrors ForecastEntry with the required temperature as a pointer
// so that a missing field is told apart from 0 K
type forecastWire struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp    float64  `json:"temp"`
		TempMin float64  `json:"temp_min"`
		TempMax *float64 `json:"temp_max"`
	} `json:"main"`
	Rain map[string]float64 `json:"rain"`
}

type soilWire struct {
	Dt       int64    `json:"dt"`
	T10      float64  `json:"t10"`
	Moisture *float64 `json:"moisture"`
	T0       float64  `json:"t0"`
}

// Forecast returns the weather forecast slots for a location. Every slot must
// carry main.temp_max.
func (c *AgroClient) Forecast(ctx context.Context, lat, lon float64) ([]ForecastEntry, error) {
	body, err := c.get(ctx, forecastPath, lat, lon)
	if err != nil {
		return nil, err
	}

	var wire []forecastWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, c.invalidPayload(forecastPath, err)
	}
	if len(wire) == 0 {
		return nil, fmt.Errorf("%w: weather forecast is empty", ErrProviderUnavailable)
	}

	entries := make([]ForecastEntry, len(wire))
	for i, w := range wire {
		if w.Main.TempMax == nil {
			return nil, c.invalidPayload(forecastPath, fmt.Errorf("slot %d has no main.temp_max", i))
		}
		entries[i].Dt = w.Dt
		entries[i].Main.Temp = w.Main.Temp
		entries[i].Main.TempMin = w.Main.TempMin
		entries[i].Main.TempMax = *w.Main.TempMax
		entries[i].Rain = w.Rain
	}
	return entries, nil
}

// Soil returns the current soil reading for a location. The moisture field is required.
func (c *AgroClient) Soil(ctx context.Context, lat, lon float64) (*SoilReading, error) {
	body, err := c.get(ctx, soilPath, lat, lon)
	if err != nil {
		return nil, err
	}

	var wire soilWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, c.invalidPayload(soilPath, err)
	}
	if wire.Moisture == nil {
		return nil, c.invalidPayload(soilPath, fmt.Errorf("no moisture field"))
	}
	return &SoilReading{
		Dt:       wire.Dt,
		T10:      wire.T10,
		Moisture: *wire.Moisture,
		T0:       wire.T0,
	}, nil
}

func (c *AgroClient) invalidPayload(path string, err error) error {
	c.logger.Warn("agromonitoring returned an unusable payload",
		zap.String("path", path),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %s: invalid payload: %v", ErrProviderUnavailable, path, err)
}

// get performs the request and returns the raw body of a successful response.
// The body is decoded by the caller whatever the Content-Type says.
func (c *AgroClient) get(ctx context.Context, path string, lat, lon float64) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(c.locationParams(lat, lon)).
		Get(path)

	if err != nil {
		c.logger.Warn("agromonitoring request failed",
			zap.String("path", path),
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s: %v", ErrProviderUnavailable, path, err)
	}

	if !resp.IsSuccess() {
		c.logger.Warn("agromonitoring returned error status",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
		)
		return nil, fmt.Errorf("%w: %s: status %d", ErrProviderUnavailable, path, resp.StatusCode())
	}

	c.logger.Debug("agromonitoring request completed",
		zap.String("path", path),
		zap.Int64("latency_ms", time.Since(start).Milliseconds()),
	)
	return resp.Body(), nil
}
