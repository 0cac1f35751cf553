package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *AgroClient {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAgroClient(srv.URL, "test-key", 2*time.Second, zap.NewNop())
}

func TestAgroClient_Forecast(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, forecastPath, r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		assert.Equal(t, "35.5", r.URL.Query().Get("lat"))
		assert.Equal(t, "139", r.URL.Query().Get("lon"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"dt": 1700000000, "main": {"temp": 295.1, "temp_min": 290.0, "temp_max": 300.0}, "rain": {"3h": 1.5}},
			{"dt": 1700010800, "main": {"temp": 294.0, "temp_min": 289.0, "temp_max": 298.0}}
		]`))
	})

	entries, err := client.Forecast(context.Background(), 35.5, 139)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 300.0, entries[0].Main.TempMax)
	assert.Equal(t, 1.5, entries[0].RainThreeHour())
	assert.Equal(t, 0.0, entries[1].RainThreeHour())
}

func TestAgroClient_Forecast_RainWithoutThreeHourField(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"main": {"temp_max": 290.0}, "rain": {"1h": 0.4}}]`))
	})

	entries, err := client.Forecast(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 0.0, entries[0].RainThreeHour())
}

func TestAgroClient_Forecast_Empty(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := client.Forecast(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestAgroClient_ErrorStatus(t *testing.T) {
	calls := 0
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Forecast(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	_, err = client.Soil(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	// one request per call, no retries
	assert.Equal(t, 2, calls)
}

func TestAgroClient_Soil(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, soilPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"dt": 1700000000, "t10": 281.2, "moisture": 0.27, "t0": 279.4}`))
	})

	reading, err := client.Soil(context.Background(), 10, 20)
	require.NoError(t, err)
	assert.Equal(t, 0.27, reading.Moisture)
}

func TestAgroClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewAgroClient(url, "k", time.Second, zap.NewNop())
	_, err := client.Soil(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestAgroClient_IncompletePayloads(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		call        func(*AgroClient) error
	}{
		{
			name:        "soil without moisture",
			contentType: "application/json",
			body:        `{"dt": 1700000000, "t10": 281.2}`,
			call:        soilCall,
		},
		{
			name:        "soil not json",
			contentType: "application/json",
			body:        `<html>maintenance</html>`,
			call:        soilCall,
		},
		{
			name:        "forecast without temp_max",
			contentType: "application/json",
			body:        `[{"main": {"temp": 295.1}}]`,
			call:        forecastCall,
		},
		{
			name:        "forecast with a later slot missing temp_max",
			contentType: "application/json",
			body:        `[{"main": {"temp_max": 300.0}}, {"main": {"temp": 294.0}}]`,
			call:        forecastCall,
		},
		{
			name:        "forecast object instead of list",
			contentType: "application/json",
			body:        `{"cod": 401, "message": "invalid key"}`,
			call:        forecastCall,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = w.Write([]byte(tt.body))
			})
			assert.ErrorIs(t, tt.call(client), ErrProviderUnavailable)
		})
	}
}

func TestAgroClient_DecodesRegardlessOfContentType(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		if r.URL.Path == soilPath {
			_, _ = w.Write([]byte(`{"moisture": 0.27}`))
			return
		}
		_, _ = w.Write([]byte(`[{"main": {"temp_max": 300.0}, "rain": {"3h": 2.0}}]`))
	})

	reading, err := client.Soil(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 0.27, reading.Moisture)

	entries, err := client.Forecast(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 300.0, entries[0].Main.TempMax)
	assert.Equal(t, 2.0, entries[0].RainThreeHour())
}

func TestAgroClient_ZeroMoistureIsAValue(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"moisture": 0}`))
	})

	reading, err := client.Soil(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 0.0, reading.Moisture)
}

func soilCall(c *AgroClient) error {
	_, err := c.Soil(context.Background(), 1, 2)
	return err
}

func forecastCall(c *AgroClient) error {
	_, err := c.Forecast(context.Background(), 1, 2)
	return err
}
