package policy

import (
	"fmt"
	"time"
)

// Config defines the tier thresholds and confirmation parameters for the
// charging policy. Values are fixed at startup; there is no hidden mutable
// state.
type Config struct {
	// HomeLat and HomeLon are the geofence center. The engine only acts
	// when the vehicle is within ~100 m of them.
	HomeLat float64 `json:"home_lat"`
	HomeLon float64 `json:"home_lon"`
	// DefaultPct is the limit handed back to the vehicle when it leaves or
	// returns home; it marks the limit as script-controlled.
	DefaultPct int `json:"default_pct"`
	// MinimumPct is charged to regardless of price.
	MinimumPct int `json:"minimum_pct"`
	// CheapPct is charged to during CHEAP hours.
	CheapPct int `json:"cheap_pct"`
	// VeryCheapPct is charged to during VERY_CHEAP hours.
	VeryCheapPct int `json:"very_cheap_pct"`

	// ConfirmAttempts and ConfirmInterval bound the polls that verify a
	// command took effect.
	ConfirmAttempts        int           `json:"confirm_attempts"`
	ConfirmIntervalSeconds int           `json:"confirm_interval_seconds"`
	confirmInterval        time.Duration `json:"-"`
}

// SetDefaults applies the thresholds of the original deployment.
func (c *Config) SetDefaults() {
	if c.DefaultPct == 0 {
		c.DefaultPct = 50
	}
	if c.MinimumPct == 0 {
		c.MinimumPct = 32
	}
	if c.CheapPct == 0 {
		c.CheapPct = 49
	}
	if c.VeryCheapPct == 0 {
		c.VeryCheapPct = 98
	}
	if c.ConfirmAttempts == 0 {
		c.ConfirmAttempts = 10
	}
	if c.ConfirmIntervalSeconds == 0 {
		c.ConfirmIntervalSeconds = 10
	}
	c.confirmInterval = time.Duration(c.ConfirmIntervalSeconds) * time.Second
}

// Validate checks the tier ordering.
func (c Config) Validate() error {
	if c.MinimumPct <= 0 || c.MinimumPct > 100 {
		return fmt.Errorf("minimum_pct out of range: %d", c.MinimumPct)
	}
	if c.CheapPct < c.MinimumPct {
		return fmt.Errorf("cheap_pct %d below minimum_pct %d", c.CheapPct, c.MinimumPct)
	}
	if c.VeryCheapPct < c.CheapPct {
		return fmt.Errorf("very_cheap_pct %d below cheap_pct %d", c.VeryCheapPct, c.CheapPct)
	}
	return nil
}

// ConfirmInterval returns the interval between confirmation polls.
func (c Config) ConfirmInterval() time.Duration {
	if c.confirmInterval > 0 {
		return c.confirmInterval
	}
	return time.Duration(c.ConfirmIntervalSeconds) * time.Second
}
