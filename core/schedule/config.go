package schedule

import "fmt"

// Config defines the vehicle and tariff parameters the planner needs.
type Config struct {
	// CapacityKWh is the usable battery capacity.
	CapacityKWh float64 `json:"capacity_kwh"`
	// KWhPerKm is the worst-case consumption estimate.
	KWhPerKm float64 `json:"kwh_per_km"`
	// ChargePowerKW is the home charger power.
	ChargePowerKW float64 `json:"charge_power_kw"`
	// ReturnReservePct is the percentage of capacity kept in reserve for
	// the drive home. It doubles as the fixed margin, in kWh, added to the
	// aggregate trip estimate.
	ReturnReservePct int `json:"return_reserve_pct"`
	// MinimumPct floors the computed charge target.
	MinimumPct int `json:"minimum_pct"`
}

// Validate checks that the physical parameters are usable.
func (c Config) Validate() error {
	if c.CapacityKWh <= 0 {
		return fmt.Errorf("capacity_kwh must be positive")
	}
	if c.ChargePowerKW <= 0 {
		return fmt.Errorf("charge_power_kw must be positive")
	}
	if c.KWhPerKm <= 0 {
		return fmt.Errorf("kwh_per_km must be positive")
	}
	return nil
}
