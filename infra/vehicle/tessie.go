// Package vehicle implements the command side of the vehicle integration via
// the Tessie HTTP API. Reads here hit the Tessie server-side cache and do not
// wake the car; commands do.
package vehicle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/EdwinGH/TeslaPriceBasedCharging/core/logger"
)

// Config defines the Tessie API connection.
type Config struct {
	// VIN identifies the vehicle to control.
	VIN string `json:"vin"`
	// AccessToken authenticates against the Tessie API.
	AccessToken string `json:"access_token"`
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string `json:"base_url"`
}

// SetDefaults applies the production endpoint.
func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.tessie.com"
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.VIN == "" {
		return fmt.Errorf("vin is required")
	}
	return nil
}

// Client talks to the Tessie API for a single vehicle.
type Client struct {
	cfg  Config
	http *http.Client
	log  logger.Logger
}

// NewClient creates a Client with a bounded request timeout.
func NewClient(cfg Config, log logger.Logger) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
		log:  log,
	}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Exists reports whether the configured VIN is known to the Tessie account.
func (c *Client) Exists(ctx context.Context) (bool, error) {
	var list struct {
		Results []struct {
			VIN string `json:"vin"`
		} `json:"results"`
	}
	if err := c.get(ctx, "/vehicles?only_active=false", &list); err != nil {
		return false, err
	}
	for _, r := range list.Results {
		if r.VIN == c.cfg.VIN {
			return true, nil
		}
	}
	return false, nil
}

// Status returns "online" or "offline". Tessie reports awake,
// waiting_for_sleep or asleep; anything else is unrecognized and returned
// empty.
func (c *Client) Status(ctx context.Context) (string, error) {
	var st struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, "/"+url.PathEscape(c.cfg.VIN)+"/status", &st); err != nil {
		return "", err
	}
	switch st.Status {
	case "awake", "waiting_for_sleep":
		return "online", nil
	case "asleep":
		return "offline", nil
	default:
		c.log.Warnf("unrecognized car status from Tessie: %s", st.Status)
		return "", nil
	}
}

type stateResponse struct {
	DisplayName string `json:"display_name"`
	ChargeState struct {
		Timestamp     int64   `json:"timestamp"`
		BatteryLevel  int     `json:"battery_level"`
		LimitSoC      int     `json:"charge_limit_soc"`
		PortLatch     string  `json:"charge_port_latch"`
		ChargeRate    float64 `json:"charge_rate"`
		ActualCurrent float64 `json:"charger_actual_current"`
	} `json:"charge_state"`
	DriveState struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"drive_state"`
}

// ChargeRate reads the live charging speed from the vehicle state, used to
// confirm that a start or stop command took effect.
func (c *Client) ChargeRate(ctx context.Context) (float64, error) {
	var st stateResponse
	if err := c.get(ctx, "/"+url.PathEscape(c.cfg.VIN)+"/state", &st); err != nil {
		return 0, err
	}
	return st.ChargeState.ChargeRate, nil
}

// Wake requests the vehicle come online. The caller polls Status to confirm.
func (c *Client) Wake(ctx context.Context) error {
	var res struct {
		Result bool `json:"result"`
	}
	if err := c.get(ctx, "/"+url.PathEscape(c.cfg.VIN)+"/wake", &res); err != nil {
		return err
	}
	if !res.Result {
		c.log.Infof("vehicle did not wake up; request response is false")
	} else {
		c.log.Infof("vehicle should now be woken up")
	}
	return nil
}

// SetChargeLimit sets the charge limit in percent. Limits below 50% are
// rejected by some firmware revisions; the API call itself still succeeds.
func (c *Client) SetChargeLimit(ctx context.Context, pct int) error {
	path := "/" + url.PathEscape(c.cfg.VIN) + "/command/set_charge_limit?percent=" + strconv.Itoa(pct)
	if err := c.get(ctx, path, nil); err != nil {
		return err
	}
	c.log.Infof("charge limit set to %d%%", pct)
	return nil
}

// StartCharging requests the vehicle start charging.
func (c *Client) StartCharging(ctx context.Context) error {
	if err := c.get(ctx, "/"+url.PathEscape(c.cfg.VIN)+"/command/start_charging", nil); err != nil {
		return err
	}
	c.log.Infof("charging started")
	return nil
}

// StopCharging requests the vehicle stop charging.
func (c *Client) StopCharging(ctx context.Context) error {
	if err := c.get(ctx, "/"+url.PathEscape(c.cfg.VIN)+"/command/stop_charging", nil); err != nil {
		return err
	}
	c.log.Infof("charging stopped")
	return nil
}
