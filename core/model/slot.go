package model

import "time"

// ChargeState is the per-slot charging decision. Slots start Undecided each
// cycle and are only promoted by the scheduler; a Reserved or Blocked slot is
// never reverted within a cycle.
type ChargeState int

const (
	// Undecided means no decision has been taken for the slot yet.
	Undecided ChargeState = iota
	// Reserved marks the slot as committed to charging.
	Reserved
	// Blocked marks the slot as unusable: the vehicle is away or the
	// battery is already fully committed for upcoming trips.
	Blocked
)

// String returns a human-readable representation of the charge state.
func (s ChargeState) String() string {
	switch s {
	case Undecided:
		return "undecided"
	case Reserved:
		return "reserved"
	case Blocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// PriceLevel classifies an hourly price relative to the daily average.
// Values are pass-through from the price feed.
type PriceLevel string

const (
	LevelVeryCheap     PriceLevel = "VERY_CHEAP"
	LevelCheap         PriceLevel = "CHEAP"
	LevelNormal        PriceLevel = "NORMAL"
	LevelExpensive     PriceLevel = "EXPENSIVE"
	LevelVeryExpensive PriceLevel = "VERY_EXPENSIVE"
)

// PriceSlot is one hour-aligned unit of forecast electricity price eligible
// for a charge/no-charge decision.
type PriceSlot struct {
	Start    time.Time   `json:"start"`
	Level    PriceLevel  `json:"level"`
	PriceKWh float64     `json:"price_kwh"`
	Charge   ChargeState `json:"charge"`
}

// Contains reports whether t falls within the slot's hour.
func (p PriceSlot) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.Start.Add(time.Hour))
}

// CurrentSlot returns the slot whose hour interval contains now, or nil when
// no slot covers it.
func CurrentSlot(slots []PriceSlot, now time.Time) *PriceSlot {
	for i := range slots {
		if slots[i].Contains(now) {
			return &slots[i]
		}
	}
	return nil
}
