package policy

import (
	"context"
	"time"

	"github.com/EdwinGH/TeslaPriceBasedCharging/core/logger"
	"github.com/EdwinGH/TeslaPriceBasedCharging/core/model"
	"github.com/EdwinGH/TeslaPriceBasedCharging/internal/retry"
)

// ActionKind identifies the single action the engine takes per cycle.
type ActionKind int

const (
	// ActionNone suppresses all charging commands this cycle.
	ActionNone ActionKind = iota
	// ActionCharge starts or continues charging up to Decision.Limit.
	ActionCharge
	// ActionStop halts charging and hands the home battery back.
	ActionStop
)

// String returns a human-readable action name.
func (k ActionKind) String() string {
	switch k {
	case ActionNone:
		return "none"
	case ActionCharge:
		return "charge"
	case ActionStop:
		return "stop"
	default:
		return "unknown"
	}
}

// Decision is the outcome of one policy evaluation.
type Decision struct {
	Kind  ActionKind
	Limit int // charge target in percent, set for ActionCharge
	// ResetLimit requests the vehicle limit be reset to the default,
	// issued on away/home transitions.
	ResetLimit bool
	// Reason names the branch that matched, for logs and metrics.
	Reason string
}

// Engine is the tiered charging-policy state machine. The only state carried
// between cycles is whether the car was away last cycle; the sticky charge
// target is owned by the caller.
type Engine struct {
	cfg     Config
	vehicle VehicleCommander
	battery HomeBattery
	log     logger.Logger
	carAway bool
}

// NewEngine creates an Engine. battery may be nil when no inverter is
// configured.
func NewEngine(cfg Config, vehicle VehicleCommander, battery HomeBattery, log logger.Logger) *Engine {
	return &Engine{cfg: cfg, vehicle: vehicle, battery: battery, log: log}
}

// CarAway reports whether the vehicle was off-premises last evaluation.
func (e *Engine) CarAway() bool { return e.carAway }

// Decide selects exactly one action for this cycle. Branches are evaluated
// in fixed priority order; the first match wins:
//
//  1. event-driven charge (battery below target and current slot reserved)
//  2. minimum floor, irrespective of price
//  3. cheap-tier opportunity
//  4. very-cheap-tier opportunity
//  5. no window: stop charging, restore home battery
//
// Preconditions gate all branches: the car must be home with the cable
// connected, and the current limit must be one the policy recognizes,
// otherwise a human changed it and the engine stands down.
func (e *Engine) Decide(snap *model.VehicleSnapshot, slots []model.PriceSlot, chargeNeededPct int, now time.Time) Decision {
	if snap == nil {
		return Decision{Kind: ActionNone, Reason: "no telemetry"}
	}

	if !snap.AtHome(e.cfg.HomeLat, e.cfg.HomeLon) {
		dec := Decision{Kind: ActionNone, Reason: "car not at home"}
		if !e.carAway {
			e.log.Infof("car drove out, resetting charge limit to default")
			dec.ResetLimit = true
			e.carAway = true
		}
		return dec
	}
	if e.carAway {
		e.log.Infof("car came home, resetting charge limit to default")
		e.carAway = false
		// Reset the limit but keep evaluating: the car is home now.
		return e.decideAtHome(snap, slots, chargeNeededPct, now, true)
	}
	return e.decideAtHome(snap, slots, chargeNeededPct, now, false)
}

func (e *Engine) decideAtHome(snap *model.VehicleSnapshot, slots []model.PriceSlot, chargeNeededPct int, now time.Time, resetLimit bool) Decision {
	if !snap.CableConnected() {
		e.log.Infof("no action: cable not connected (charge port %s)", snap.ChargePort)
		return Decision{Kind: ActionNone, ResetLimit: resetLimit, Reason: "cable not connected"}
	}

	if !e.recognizedLimit(snap.ChargeLimit, chargeNeededPct) {
		e.log.Infof("limit %d%% not set by policy, assuming user override", snap.ChargeLimit)
		return Decision{Kind: ActionNone, ResetLimit: resetLimit, Reason: "user override"}
	}

	cur := model.CurrentSlot(slots, now)
	slotReserved := cur != nil && cur.Charge == model.Reserved

	switch {
	case snap.BatteryLevel < chargeNeededPct && slotReserved:
		return Decision{Kind: ActionCharge, Limit: chargeNeededPct, ResetLimit: resetLimit, Reason: "reserved slot"}
	case snap.BatteryLevel < e.cfg.MinimumPct:
		return Decision{Kind: ActionCharge, Limit: e.cfg.MinimumPct, ResetLimit: resetLimit, Reason: "below minimum"}
	case cur != nil && cur.Level == model.LevelCheap && snap.BatteryLevel < e.cfg.CheapPct:
		return Decision{Kind: ActionCharge, Limit: e.cfg.CheapPct, ResetLimit: resetLimit, Reason: "cheap hour"}
	case cur != nil && cur.Level == model.LevelVeryCheap && snap.BatteryLevel < e.cfg.VeryCheapPct:
		return Decision{Kind: ActionCharge, Limit: e.cfg.VeryCheapPct, ResetLimit: resetLimit, Reason: "very cheap hour"}
	default:
		return Decision{Kind: ActionStop, ResetLimit: resetLimit, Reason: "no charging window"}
	}
}

// recognizedLimit reports whether the current vehicle limit is one of the
// four values this policy sets itself.
func (e *Engine) recognizedLimit(limit, chargeNeededPct int) bool {
	return limit == e.cfg.DefaultPct ||
		limit == e.cfg.CheapPct ||
		limit == e.cfg.VeryCheapPct ||
		limit == chargeNeededPct
}

// Execute carries out a decision. Command failures and unconfirmed effects
// are logged, never fatal: the next cycle re-evaluates against fresh state.
func (e *Engine) Execute(ctx context.Context, dec Decision, snap *model.VehicleSnapshot) {
	if dec.ResetLimit {
		if err := e.vehicle.SetChargeLimit(ctx, e.cfg.DefaultPct); err != nil {
			e.log.Warnf("reset charge limit: %v", err)
		}
	}

	switch dec.Kind {
	case ActionCharge:
		e.charge(ctx, dec, snap)
	case ActionStop:
		e.stop(ctx, snap)
	}
}

func (e *Engine) charge(ctx context.Context, dec Decision, snap *model.VehicleSnapshot) {
	status, err := e.vehicle.Status(ctx)
	if err != nil {
		e.log.Warnf("vehicle status: %v", err)
	}
	if status != StatusOnline {
		e.wake(ctx)
	}

	// Idle the home battery first so it does not fast-discharge into the car.
	if e.battery != nil {
		if err := e.battery.Idle(ctx); err != nil {
			e.log.Warnf("idle home battery: %v", err)
		}
	}

	if snap.ChargeLimit != dec.Limit {
		e.log.Infof("changing charge limit to %d%%", dec.Limit)
		if err := e.vehicle.SetChargeLimit(ctx, dec.Limit); err != nil {
			e.log.Warnf("set charge limit: %v", err)
		}
	}
	if !snap.Charging() {
		e.log.Infof("starting charge")
		if err := e.vehicle.StartCharging(ctx); err != nil {
			e.log.Warnf("start charging: %v", err)
		}
		if err := e.confirmRate(ctx, func(rate float64) bool { return rate > 0 }); err != nil {
			e.log.Warnf("charge start not confirmed: %v", err)
		}
	}
	e.log.Infof("done, ongoing charge until %d%% (%s)", dec.Limit, dec.Reason)
}

func (e *Engine) stop(ctx context.Context, snap *model.VehicleSnapshot) {
	if snap.Charging() {
		e.log.Infof("no charging window, stopping charge")
		if err := e.vehicle.StopCharging(ctx); err != nil {
			e.log.Warnf("stop charging: %v", err)
		}
		if err := e.confirmRate(ctx, func(rate float64) bool { return rate == 0 }); err != nil {
			e.log.Warnf("charge stop not confirmed: %v", err)
		}
	} else {
		e.log.Infof("car is not charging, waiting for a charging window")
	}
	if e.battery != nil {
		if err := e.battery.Restore(ctx); err != nil {
			e.log.Warnf("restore home battery: %v", err)
		}
	}
}

// wake brings the vehicle online and waits for it with a bounded poll.
func (e *Engine) wake(ctx context.Context) {
	if err := e.vehicle.Wake(ctx); err != nil {
		e.log.Warnf("wake vehicle: %v", err)
	}
	err := retry.Do(ctx, e.cfg.ConfirmAttempts, e.cfg.ConfirmInterval(), func(ctx context.Context) (bool, error) {
		status, err := e.vehicle.Status(ctx)
		if err != nil {
			return false, err
		}
		return status == StatusOnline, nil
	})
	if err != nil {
		e.log.Warnf("vehicle did not come online: %v", err)
	}
}

func (e *Engine) confirmRate(ctx context.Context, ok func(float64) bool) error {
	return retry.Do(ctx, e.cfg.ConfirmAttempts, e.cfg.ConfirmInterval(), func(ctx context.Context) (bool, error) {
		rate, err := e.vehicle.ChargeRate(ctx)
		if err != nil {
			return false, err
		}
		e.log.Debugf("charge rate %.1f", rate)
		return ok(rate), nil
	})
}
