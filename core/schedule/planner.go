package schedule

import (
	"math"
	"sort"
	"time"

	"github.com/EdwinGH/TeslaPriceBasedCharging/core/logger"
	"github.com/EdwinGH/TeslaPriceBasedCharging/core/model"
)

// Planner converts upcoming trips into charge-slot reservations.
type Planner struct {
	cfg Config
	log logger.Logger
}

// NewPlanner creates a Planner with the given parameters.
func NewPlanner(cfg Config, log logger.Logger) *Planner {
	return &Planner{cfg: cfg, log: log}
}

// Plan annotates slots with the reservations needed for events and returns
// the charge target in percent. Events are processed in departure order
// against the uncommitted-energy pool: energy still in the battery beyond the
// return reserve that has not been claimed by an earlier trip.
//
// With no events the prior target is returned unchanged and no slot is
// touched, so the last computed target stays sticky across cycles without
// calendar data.
func (p *Planner) Plan(events []model.TripEvent, slots []model.PriceSlot, batteryPct, priorPct int, now time.Time) (int, []model.PriceSlot) {
	if len(events) == 0 {
		p.log.Infof("no upcoming trips, keeping charge target at %d%%", priorPct)
		return priorPct, slots
	}

	needPct := p.targetPct(events)
	hours := math.Max(float64(needPct-batteryPct)/100*p.cfg.CapacityKWh/p.cfg.ChargePowerKW, 0)
	p.log.Infof("%d trip(s) need %d%%, %.1f hour(s) of charging from %d%%", len(events), needPct, hours, batteryPct)

	ordered := make([]model.TripEvent, len(events))
	copy(ordered, events)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Depart.Before(ordered[j].Depart)
	})

	// chargeLeft is the energy already in the battery that is still free to
	// commit, decremented as each trip claims its share.
	chargeLeft := math.Max(float64(batteryPct-p.cfg.ReturnReservePct), 0) * p.cfg.CapacityKWh / 100
	for _, ev := range ordered {
		energy := ev.EnergyKWh(p.cfg.KWhPerKm, p.cfg.CapacityKWh)
		hoursNeeded := int(math.Ceil(math.Max(energy-chargeLeft, 0) / p.cfg.ChargePowerKW))
		hoursBudget := ev.HoursBudget(now)
		hoursDuration := ev.HoursDuration()

		if hoursBudget < hoursNeeded {
			p.log.Warnf("trip %q needs %d charge hour(s) but only %d remain before departure", ev.Summary, hoursNeeded, hoursBudget)
		}
		p.log.Debugw("scheduling trip", map[string]any{
			"summary":  ev.Summary,
			"depart":   ev.Depart,
			"return":   ev.Return,
			"energy":   energy,
			"needed":   hoursNeeded,
			"budget":   hoursBudget,
			"duration": hoursDuration,
			"pool":     chargeLeft,
		})

		slots = Reserve(slots, hoursNeeded, hoursBudget, hoursDuration)
		chargeLeft = math.Max(chargeLeft-energy, 0)
		if chargeLeft == 0 {
			// The battery is fully committed before this departure; nothing
			// can or needs to charge in the remaining free hours before it.
			p.log.Debugf("energy pool exhausted after %q, blocking free slots until departure", ev.Summary)
			slots = BlockUntilDeparture(slots)
		}
	}
	return needPct, slots
}

// targetPct computes the aggregate charge target across all events: round
// trip energy per event plus the fixed margin, as a percentage of capacity,
// floored at the configured minimum and capped at 100.
func (p *Planner) targetPct(events []model.TripEvent) int {
	var kwh float64
	for _, ev := range events {
		kwh += (model.TripOverheadKWh + float64(ev.DistanceM)/1000*p.cfg.KWhPerKm) * 2
	}
	kwh += float64(p.cfg.ReturnReservePct)
	pct := math.Ceil(math.Max(math.Min(kwh/p.cfg.CapacityKWh*100, 100), float64(p.cfg.MinimumPct)))
	return int(pct)
}
