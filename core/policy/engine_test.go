package policy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EdwinGH/TeslaPriceBasedCharging/core/model"
	"github.com/EdwinGH/TeslaPriceBasedCharging/infra/logger"
)

const (
	homeLat = 52.090
	homeLon = 5.121
)

type fakeVehicle struct {
	status string
	rate   float64

	calls  []string
	limits []int
}

func (f *fakeVehicle) Status(context.Context) (string, error) {
	f.calls = append(f.calls, "status")
	return f.status, nil
}

func (f *fakeVehicle) Wake(context.Context) error {
	f.calls = append(f.calls, "wake")
	f.status = StatusOnline
	return nil
}

func (f *fakeVehicle) SetChargeLimit(_ context.Context, pct int) error {
	f.calls = append(f.calls, "set_limit")
	f.limits = append(f.limits, pct)
	return nil
}

func (f *fakeVehicle) StartCharging(context.Context) error {
	f.calls = append(f.calls, "start")
	f.rate = 16
	return nil
}

func (f *fakeVehicle) StopCharging(context.Context) error {
	f.calls = append(f.calls, "stop")
	f.rate = 0
	return nil
}

func (f *fakeVehicle) ChargeRate(context.Context) (float64, error) {
	f.calls = append(f.calls, "rate")
	return f.rate, nil
}

type fakeBattery struct {
	idled    int
	restored int
}

func (f *fakeBattery) Idle(context.Context) error    { f.idled++; return nil }
func (f *fakeBattery) Restore(context.Context) error { f.restored++; return nil }

func testEngineConfig() Config {
	cfg := Config{HomeLat: homeLat, HomeLon: homeLon, ConfirmAttempts: 2, ConfirmIntervalSeconds: 1}
	cfg.SetDefaults()
	cfg.confirmInterval = time.Millisecond
	return cfg
}

func homeSnapshot() *model.VehicleSnapshot {
	return &model.VehicleSnapshot{
		Name:         "tesla",
		BatteryLevel: 40,
		ChargeLimit:  50,
		ChargePort:   model.ChargePortEngaged,
		Latitude:     homeLat,
		Longitude:    homeLon,
	}
}

func reservedSlots(now time.Time, state model.ChargeState, level model.PriceLevel) []model.PriceSlot {
	return []model.PriceSlot{{Start: now.Truncate(time.Hour), Level: level, Charge: state}}
}

func TestDecide_ReservedSlotBeatsMinimumFloor(t *testing.T) {
	e := NewEngine(testEngineConfig(), &fakeVehicle{}, nil, logger.NopLogger{})
	now := time.Date(2026, 1, 12, 9, 30, 0, 0, time.UTC)
	snap := homeSnapshot()
	snap.BatteryLevel = 20 // below both the minimum and the trip target

	dec := e.Decide(snap, reservedSlots(now, model.Reserved, model.LevelNormal), 70, now)

	require.Equal(t, ActionCharge, dec.Kind)
	assert.Equal(t, 70, dec.Limit)
	assert.Equal(t, "reserved slot", dec.Reason)
}

func TestDecide_MinimumFloorIgnoresPrice(t *testing.T) {
	e := NewEngine(testEngineConfig(), &fakeVehicle{}, nil, logger.NopLogger{})
	now := time.Date(2026, 1, 12, 9, 30, 0, 0, time.UTC)
	snap := homeSnapshot()
	snap.BatteryLevel = 25

	dec := e.Decide(snap, reservedSlots(now, model.Blocked, model.LevelVeryExpensive), 70, now)

	require.Equal(t, ActionCharge, dec.Kind)
	assert.Equal(t, 32, dec.Limit)
	assert.Equal(t, "below minimum", dec.Reason)
}

func TestDecide_CheapAndVeryCheapTiers(t *testing.T) {
	e := NewEngine(testEngineConfig(), &fakeVehicle{}, nil, logger.NopLogger{})
	now := time.Date(2026, 1, 12, 9, 30, 0, 0, time.UTC)

	snap := homeSnapshot()
	snap.BatteryLevel = 40
	dec := e.Decide(snap, reservedSlots(now, model.Undecided, model.LevelCheap), 32, now)
	require.Equal(t, ActionCharge, dec.Kind)
	assert.Equal(t, 49, dec.Limit)

	// Above the cheap tier the very-cheap tier still applies.
	snap.ChargeLimit = 49
	snap.BatteryLevel = 60
	dec = e.Decide(snap, reservedSlots(now, model.Undecided, model.LevelVeryCheap), 32, now)
	require.Equal(t, ActionCharge, dec.Kind)
	assert.Equal(t, 98, dec.Limit)

	// A cheap hour with a nearly full battery is no reason to charge.
	snap.BatteryLevel = 99
	dec = e.Decide(snap, reservedSlots(now, model.Undecided, model.LevelVeryCheap), 32, now)
	assert.Equal(t, ActionStop, dec.Kind)
}

func TestDecide_StopWhenNoWindow(t *testing.T) {
	e := NewEngine(testEngineConfig(), &fakeVehicle{}, nil, logger.NopLogger{})
	now := time.Date(2026, 1, 12, 9, 30, 0, 0, time.UTC)
	snap := homeSnapshot()
	snap.BatteryLevel = 45

	dec := e.Decide(snap, reservedSlots(now, model.Blocked, model.LevelNormal), 32, now)

	assert.Equal(t, ActionStop, dec.Kind)
	assert.Equal(t, "no charging window", dec.Reason)
}

func TestDecide_CableDisconnected(t *testing.T) {
	e := NewEngine(testEngineConfig(), &fakeVehicle{}, nil, logger.NopLogger{})
	now := time.Date(2026, 1, 12, 9, 30, 0, 0, time.UTC)
	snap := homeSnapshot()
	snap.ChargePort = "Disconnected"
	snap.BatteryLevel = 10

	dec := e.Decide(snap, reservedSlots(now, model.Reserved, model.LevelCheap), 70, now)

	assert.Equal(t, ActionNone, dec.Kind)
	assert.Equal(t, "cable not connected", dec.Reason)
}

func TestDecide_UserOverrideStandsDown(t *testing.T) {
	e := NewEngine(testEngineConfig(), &fakeVehicle{}, nil, logger.NopLogger{})
	now := time.Date(2026, 1, 12, 9, 30, 0, 0, time.UTC)
	snap := homeSnapshot()
	snap.ChargeLimit = 80 // none of the policy values
	snap.BatteryLevel = 10

	dec := e.Decide(snap, reservedSlots(now, model.Reserved, model.LevelCheap), 70, now)

	assert.Equal(t, ActionNone, dec.Kind)
	assert.Equal(t, "user override", dec.Reason)
}

func TestDecide_AwayAndHomeTransitions(t *testing.T) {
	e := NewEngine(testEngineConfig(), &fakeVehicle{}, nil, logger.NopLogger{})
	now := time.Date(2026, 1, 12, 9, 30, 0, 0, time.UTC)

	away := homeSnapshot()
	away.Latitude = homeLat + 0.5

	// First away cycle resets the limit, later ones do not.
	dec := e.Decide(away, nil, 32, now)
	assert.Equal(t, ActionNone, dec.Kind)
	assert.True(t, dec.ResetLimit)
	assert.True(t, e.CarAway())

	dec = e.Decide(away, nil, 32, now)
	assert.False(t, dec.ResetLimit)

	// Coming home resets the limit and evaluates the tiers right away.
	home := homeSnapshot()
	home.BatteryLevel = 25
	dec = e.Decide(home, nil, 32, now)
	require.Equal(t, ActionCharge, dec.Kind)
	assert.True(t, dec.ResetLimit)
	assert.Equal(t, 32, dec.Limit)
	assert.False(t, e.CarAway())
}

func TestDecide_NilSnapshot(t *testing.T) {
	e := NewEngine(testEngineConfig(), &fakeVehicle{}, nil, logger.NopLogger{})
	dec := e.Decide(nil, nil, 32, time.Now())
	assert.Equal(t, ActionNone, dec.Kind)
}

func TestExecute_ChargeWakesIdlesAndStarts(t *testing.T) {
	veh := &fakeVehicle{status: StatusOffline}
	bat := &fakeBattery{}
	e := NewEngine(testEngineConfig(), veh, bat, logger.NopLogger{})
	snap := homeSnapshot()
	snap.ChargeLimit = 50
	snap.ChargeRate = 0

	e.Execute(context.Background(), Decision{Kind: ActionCharge, Limit: 70}, snap)

	assert.Contains(t, veh.calls, "wake")
	assert.Contains(t, veh.calls, "start")
	assert.Equal(t, []int{70}, veh.limits)
	assert.Equal(t, 1, bat.idled)
	assert.Zero(t, bat.restored)
}

func TestExecute_ChargeAlreadyRunningOnlyAdjustsLimit(t *testing.T) {
	veh := &fakeVehicle{status: StatusOnline, rate: 16}
	e := NewEngine(testEngineConfig(), veh, nil, logger.NopLogger{})
	snap := homeSnapshot()
	snap.ChargeLimit = 49
	snap.ChargeRate = 16

	e.Execute(context.Background(), Decision{Kind: ActionCharge, Limit: 98}, snap)

	assert.NotContains(t, veh.calls, "wake")
	assert.NotContains(t, veh.calls, "start")
	assert.Equal(t, []int{98}, veh.limits)
}

func TestExecute_StopHaltsChargeAndRestoresBattery(t *testing.T) {
	veh := &fakeVehicle{status: StatusOnline, rate: 16}
	bat := &fakeBattery{}
	e := NewEngine(testEngineConfig(), veh, bat, logger.NopLogger{})
	snap := homeSnapshot()
	snap.ChargeRate = 16

	e.Execute(context.Background(), Decision{Kind: ActionStop}, snap)

	assert.Contains(t, veh.calls, "stop")
	assert.Equal(t, 1, bat.restored)
}

func TestExecute_StopWhileIdleStillRestoresBattery(t *testing.T) {
	veh := &fakeVehicle{status: StatusOnline}
	bat := &fakeBattery{}
	e := NewEngine(testEngineConfig(), veh, bat, logger.NopLogger{})

	e.Execute(context.Background(), Decision{Kind: ActionStop}, homeSnapshot())

	assert.NotContains(t, veh.calls, "stop")
	assert.Equal(t, 1, bat.restored)
}

func TestExecute_ResetLimitAppliesDefault(t *testing.T) {
	veh := &fakeVehicle{status: StatusOnline}
	e := NewEngine(testEngineConfig(), veh, nil, logger.NopLogger{})

	e.Execute(context.Background(), Decision{Kind: ActionNone, ResetLimit: true}, homeSnapshot())

	assert.Equal(t, []int{50}, veh.limits)
}
