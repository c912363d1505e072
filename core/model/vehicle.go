package model

import "time"

// ChargePortEngaged is the charge-port state reported while the cable is
// latched.
const ChargePortEngaged = "Engaged"

// VehicleSnapshot is the telemetry read once per cycle from the cache store.
// The policy engine never mutates it; it issues commands and expects the
// store to reflect the new state on the next refresh.
type VehicleSnapshot struct {
	Name         string
	LastSeen     time.Time
	BatteryLevel int     // current state of charge in percent
	ChargeLimit  int     // configured charge limit in percent
	ChargeRate   float64 // charging speed, zero when not charging
	ChargePort   string  // cable latch state, see ChargePortEngaged
	Latitude     float64
	Longitude    float64
}

// Charging reports whether the vehicle is actively charging.
func (s VehicleSnapshot) Charging() bool {
	return s.ChargeRate > 0
}

// CableConnected reports whether the charge cable is latched.
func (s VehicleSnapshot) CableConnected() bool {
	return s.ChargePort == ChargePortEngaged
}

// AtHome reports whether the vehicle is within the geofence tolerance of the
// home coordinates. A coordinate delta of 0.001 degrees is roughly 100 m.
func (s VehicleSnapshot) AtHome(homeLat, homeLon float64) bool {
	return abs(s.Latitude-homeLat) <= 0.001 && abs(s.Longitude-homeLon) <= 0.001
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
