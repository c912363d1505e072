package config

import (
	"fmt"

	"github.com/EdwinGH/TeslaPriceBasedCharging/core/policy"
	"github.com/EdwinGH/TeslaPriceBasedCharging/core/schedule"
)

// ChargingConfig groups the vehicle, home and tariff parameters. It is
// loaded once at startup and handed to the planner and policy engine as
// immutable values.
type ChargingConfig struct {
	// HomeLat and HomeLon are the geofence center for the home charger.
	HomeLat float64 `json:"home_lat"`
	HomeLon float64 `json:"home_lon"`

	// KWhPerKm is the worst-case consumption estimate.
	KWhPerKm float64 `json:"kwh_per_km"`
	// CapacityKWh is the usable battery capacity.
	CapacityKWh float64 `json:"capacity_kwh"`

	// ChargeVoltageKV, ChargePhases and ChargeAmpsMax describe the home
	// charger circuit; together they determine the charging power.
	ChargeVoltageKV float64 `json:"charge_voltage_kv"`
	ChargePhases    int     `json:"charge_phases"`
	ChargeAmpsMax   int     `json:"charge_amps_max"`

	// ReturnReservePct is kept in the battery for the drive home.
	ReturnReservePct int `json:"return_reserve_pct"`
	// MinimumPct is always charged to, even at expensive rates.
	MinimumPct int `json:"minimum_pct"`
	// CheapPct is charged to during CHEAP hours.
	CheapPct int `json:"cheap_pct"`
	// DefaultPct is the script-controlled resting limit.
	DefaultPct int `json:"default_pct"`
	// VeryCheapPct is charged to during VERY_CHEAP hours, leaving headroom
	// for regenerative braking.
	VeryCheapPct int `json:"very_cheap_pct"`

	// ConfirmAttempts and ConfirmIntervalSeconds bound the polls verifying
	// that a vehicle command took effect.
	ConfirmAttempts        int `json:"confirm_attempts"`
	ConfirmIntervalSeconds int `json:"confirm_interval_seconds"`
}

// SetDefaults applies the parameters of the original deployment.
func (c *ChargingConfig) SetDefaults() {
	if c.KWhPerKm == 0 {
		c.KWhPerKm = 0.250
	}
	if c.CapacityKWh == 0 {
		c.CapacityKWh = 100
	}
	if c.ChargeVoltageKV == 0 {
		c.ChargeVoltageKV = 0.230
	}
	if c.ChargePhases == 0 {
		c.ChargePhases = 3
	}
	if c.ChargeAmpsMax == 0 {
		c.ChargeAmpsMax = 13
	}
	if c.ReturnReservePct == 0 {
		c.ReturnReservePct = 10
	}
	if c.MinimumPct == 0 {
		c.MinimumPct = 32
	}
	if c.CheapPct == 0 {
		c.CheapPct = 49
	}
	if c.DefaultPct == 0 {
		c.DefaultPct = 50
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
}

// Validate checks the physical parameters and tier ordering.
func (c ChargingConfig) Validate() error {
	if c.HomeLat == 0 && c.HomeLon == 0 {
		return fmt.Errorf("home coordinates are required")
	}
	if c.CapacityKWh <= 0 {
		return fmt.Errorf("capacity_kwh must be positive")
	}
	if err := c.PolicyConfig().Validate(); err != nil {
		return err
	}
	return c.ScheduleConfig().Validate()
}

// ChargePowerKW is the charging power of the home circuit.
func (c ChargingConfig) ChargePowerKW() float64 {
	return float64(c.ChargeAmpsMax) * float64(c.ChargePhases) * c.ChargeVoltageKV
}

// MaxChargeHours is the time a full charge takes.
func (c ChargingConfig) MaxChargeHours() float64 {
	return c.CapacityKWh / c.ChargePowerKW()
}

// ScheduleConfig derives the planner parameters.
func (c ChargingConfig) ScheduleConfig() schedule.Config {
	return schedule.Config{
		CapacityKWh:      c.CapacityKWh,
		KWhPerKm:         c.KWhPerKm,
		ChargePowerKW:    c.ChargePowerKW(),
		ReturnReservePct: c.ReturnReservePct,
		MinimumPct:       c.MinimumPct,
	}
}

// PolicyConfig derives the policy engine parameters.
func (c ChargingConfig) PolicyConfig() policy.Config {
	cfg := policy.Config{
		HomeLat:                c.HomeLat,
		HomeLon:                c.HomeLon,
		DefaultPct:             c.DefaultPct,
		MinimumPct:             c.MinimumPct,
		CheapPct:               c.CheapPct,
		VeryCheapPct:           c.VeryCheapPct,
		ConfirmAttempts:        c.ConfirmAttempts,
		ConfirmIntervalSeconds: c.ConfirmIntervalSeconds,
	}
	cfg.SetDefaults()
	return cfg
}
