package policy

import "context"

// Vehicle status values reported by the commander.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// VehicleCommander issues commands to the vehicle and reads the live state
// needed to confirm them. Commands are fire-and-confirm: each call returns
// once the API accepted the request, and the engine verifies the effect with
// a bounded poll.
type VehicleCommander interface {
	Status(ctx context.Context) (string, error)
	Wake(ctx context.Context) error
	SetChargeLimit(ctx context.Context, pct int) error
	StartCharging(ctx context.Context) error
	StopCharging(ctx context.Context) error
	// ChargeRate reads the live charging speed, bypassing the cache store.
	ChargeRate(ctx context.Context) (float64, error)
}

// HomeBattery controls the inverter while the car charges. Idle stops the
// home battery from discharging into the car; Restore puts back the mode
// observed at process start.
type HomeBattery interface {
	Idle(ctx context.Context) error
	Restore(ctx context.Context) error
}
