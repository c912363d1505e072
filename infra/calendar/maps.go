package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/EdwinGH/TeslaPriceBasedCharging/core/logger"
)

const mapsBaseURL = "https://maps.googleapis.com/maps/api/distancematrix/json"

// MapsClient resolves a destination address to driving distance and duration
// from home using the Google Maps Distance Matrix API.
type MapsClient struct {
	key     string
	baseURL string
	homeLat float64
	homeLon float64
	http    *http.Client
	log     logger.Logger
}

// NewMapsClient creates a MapsClient for the given API key and home origin.
func NewMapsClient(key string, homeLat, homeLon float64, log logger.Logger) *MapsClient {
	return &MapsClient{
		key:     key,
		baseURL: mapsBaseURL,
		homeLat: homeLat,
		homeLon: homeLon,
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

type distanceMatrixResponse struct {
	Rows []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Value int64 `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value int64 `json:"value"`
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

// Directions returns the driving distance in meters and duration in seconds
// from home to dest. An unroutable destination returns (0, 0) without error;
// the caller drops such trips.
func (m *MapsClient) Directions(ctx context.Context, dest string) (int64, int64, error) {
	q := url.Values{}
	q.Set("origins", fmt.Sprintf("%f,%f", m.homeLat, m.homeLon))
	q.Set("destinations", dest)
	q.Set("key", m.key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, 0, fmt.Errorf("create request: %w", err)
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, 0, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}
	var dm distanceMatrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&dm); err != nil {
		return 0, 0, fmt.Errorf("decode response: %w", err)
	}
	if len(dm.Rows) == 0 || len(dm.Rows[0].Elements) == 0 || dm.Rows[0].Elements[0].Status != "OK" {
		m.log.Warnf("no valid route found for destination %q", dest)
		return 0, 0, nil
	}
	el := dm.Rows[0].Elements[0]
	m.log.Debugf("distance %d meters, duration %d seconds to %q", el.Distance.Value, el.Duration.Value, dest)
	return el.Distance.Value, el.Duration.Value, nil
}
