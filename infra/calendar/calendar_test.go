package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EdwinGH/TeslaPriceBasedCharging/infra/logger"
)

func TestNewTrip_TravelTimePadsTheWindow(t *testing.T) {
	start := time.Date(2026, 1, 12, 10, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 12, 12, 0, 0, 0, time.UTC)

	trip := NewTrip("meeting", start, end, 50_000, 1800, 0.250, 100)

	assert.Equal(t, start.Add(-30*time.Minute), trip.Depart)
	assert.Equal(t, end.Add(30*time.Minute), trip.Return)
	assert.Equal(t, int64(50_000), trip.DistanceM)
	assert.Equal(t, int64(1800), trip.TravelSeconds)
}

func TestNewTrip_LongTripAddsRechargeStops(t *testing.T) {
	start := time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 12, 20, 0, 0, 0, time.UTC)

	// 900 km at 0.25 kWh/km is 225 kWh, two full batteries on top of the
	// first charge: two one-hour recharge stops.
	trip := NewTrip("holiday", start, end, 900_000, 4*3600, 0.250, 100)

	assert.Equal(t, int64(4*3600+2*3600), trip.TravelSeconds)
	assert.Equal(t, start.Add(-6*time.Hour), trip.Depart)
	assert.Equal(t, end.Add(6*time.Hour), trip.Return)
}

func TestMapsClient_Directions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "52.090000,5.121000", r.URL.Query().Get("origins"))
		assert.Equal(t, "Amsterdam", r.URL.Query().Get("destinations"))
		assert.Equal(t, "apikey", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(`{"rows": [{"elements": [{"status": "OK",
			"distance": {"value": 45300}, "duration": {"value": 2400}}]}]}`))
	}))
	defer srv.Close()

	m := NewMapsClient("apikey", 52.090, 5.121, logger.NopLogger{})
	m.baseURL = srv.URL

	dist, travel, err := m.Directions(context.Background(), "Amsterdam")
	require.NoError(t, err)
	assert.Equal(t, int64(45300), dist)
	assert.Equal(t, int64(2400), travel)
}

func TestMapsClient_UnroutableDestination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rows": [{"elements": [{"status": "NOT_FOUND"}]}]}`))
	}))
	defer srv.Close()

	m := NewMapsClient("apikey", 52.090, 5.121, logger.NopLogger{})
	m.baseURL = srv.URL

	dist, travel, err := m.Directions(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Zero(t, dist)
	assert.Zero(t, travel)
}

func TestMapsClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	m := NewMapsClient("apikey", 52.090, 5.121, logger.NopLogger{})
	m.baseURL = srv.URL

	_, _, err := m.Directions(context.Background(), "Amsterdam")
	require.Error(t, err)
}

func TestConfig(t *testing.T) {
	var cfg Config
	assert.False(t, cfg.Enabled())
	cfg.SetDefaults()
	assert.Equal(t, int64(10), cfg.MaxResults)

	cfg.CredentialsFile = "creds.json"
	assert.True(t, cfg.Enabled())
}
