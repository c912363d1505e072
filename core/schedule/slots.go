package schedule

import (
	"sort"

	"github.com/EdwinGH/TeslaPriceBasedCharging/core/model"
)

// Reserve marks the cheapest undecided slots before a trip's departure as
// reserved and blocks the hours the vehicle is away. It mutates and returns
// slots, which must be ordered ascending by start time.
//
// Index convention: the current hour is candidate index 0 and the departure
// falls somewhere inside index hoursBudget, so the deadline window spans the
// first hoursBudget+1 undecided slots. The away window covers the
// hoursDuration slots after the departure hour, indexes
// [hoursBudget+1, hoursBudget+hoursDuration+1) of the full list.
//
// Slots already reserved or blocked are never changed: repeated calls
// accumulate decisions and never free a slot, and blocking never overwrites
// a reservation made for an earlier trip.
func Reserve(slots []model.PriceSlot, hoursNeeded, hoursBudget, hoursDuration int) []model.PriceSlot {
	// An overdue trip still gets the current hour as a candidate.
	if hoursBudget < 0 {
		hoursBudget = 0
	}

	// Candidates are the undecided slots in time order.
	var candidates []model.PriceSlot
	for _, s := range slots {
		if s.Charge == model.Undecided {
			candidates = append(candidates, s)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Start.Before(candidates[j].Start)
	})

	// Cut to the deadline window, then order by price with the earlier hour
	// winning ties.
	window := candidates[:min(len(candidates), hoursBudget+1)]
	sort.SliceStable(window, func(i, j int) bool {
		if window[i].PriceKWh != window[j].PriceKWh {
			return window[i].PriceKWh < window[j].PriceKWh
		}
		return window[i].Start.Before(window[j].Start)
	})
	picked := window[:min(len(window), max(hoursNeeded, 0))]

	for _, sel := range picked {
		for i := range slots {
			if slots[i].Start.Equal(sel.Start) {
				slots[i].Charge = model.Reserved
			}
		}
	}

	// Block the away window on the full list, skipping reserved slots.
	from := min(len(slots), hoursBudget+1)
	to := min(len(slots), hoursBudget+hoursDuration+1)
	for i := from; i < to; i++ {
		if slots[i].Charge == model.Undecided {
			slots[i].Charge = model.Blocked
		}
	}
	return slots
}

// BlockUntilDeparture blocks every undecided slot from the head of the list
// up to the first blocked slot, which marks the departure for the next trip.
// Used once the uncommitted-energy pool is exhausted: the battery will
// already be full before that departure.
func BlockUntilDeparture(slots []model.PriceSlot) []model.PriceSlot {
	for i := range slots {
		if slots[i].Charge == model.Blocked {
			break
		}
		if slots[i].Charge == model.Undecided {
			slots[i].Charge = model.Blocked
		}
	}
	return slots
}
