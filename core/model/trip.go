package model

import (
	"math"
	"time"
)

// TripOverheadKWh is the fixed energy overhead per trip leg for cabin
// conditioning.
const TripOverheadKWh = 4

// TripEvent is a calendar appointment enriched with travel distance and
// duration by the directions lookup. Depart and Return already include the
// travel time to and from the appointment.
type TripEvent struct {
	Summary       string    `json:"summary"`
	Depart        time.Time `json:"depart"`
	Return        time.Time `json:"return"`
	DistanceM     int64     `json:"distance_m"`
	TravelSeconds int64     `json:"travel_seconds"`
}

// HoursDuration returns the number of whole hours the vehicle is away from
// home, rounded up.
func (e TripEvent) HoursDuration() int {
	return int(math.Ceil(e.Return.Sub(e.Depart).Hours()))
}

// HoursBudget returns the number of whole hours left before departure.
// The result is negative when the departure has already passed; the
// scheduler clamps it.
func (e TripEvent) HoursBudget(now time.Time) int {
	return int(math.Floor(e.Depart.Sub(now).Hours()))
}

// EnergyKWh estimates the energy the round trip consumes: per-leg overhead
// plus distance-based consumption, doubled for the return leg and capped at
// the battery capacity.
func (e TripEvent) EnergyKWh(kwhPerKm, capacityKWh float64) float64 {
	need := (TripOverheadKWh + float64(e.DistanceM)/1000*kwhPerKm) * 2
	return math.Min(math.Ceil(need), capacityKWh)
}
