// Package app wires the adapters to the scheduler and policy engine and runs
// the polling loop.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/EdwinGH/TeslaPriceBasedCharging/config"
	coremetrics "github.com/EdwinGH/TeslaPriceBasedCharging/core/metrics"
	"github.com/EdwinGH/TeslaPriceBasedCharging/core/model"
	"github.com/EdwinGH/TeslaPriceBasedCharging/core/policy"
	"github.com/EdwinGH/TeslaPriceBasedCharging/core/schedule"
	"github.com/EdwinGH/TeslaPriceBasedCharging/infra/calendar"
	"github.com/EdwinGH/TeslaPriceBasedCharging/infra/inverter"
	"github.com/EdwinGH/TeslaPriceBasedCharging/infra/logger"
	"github.com/EdwinGH/TeslaPriceBasedCharging/infra/metrics"
	"github.com/EdwinGH/TeslaPriceBasedCharging/infra/mqtt"
	"github.com/EdwinGH/TeslaPriceBasedCharging/infra/store"
	"github.com/EdwinGH/TeslaPriceBasedCharging/infra/vehicle"
)

// homeBattery adapts the inverter to the policy port, carrying the mode
// captured at process start so it can be restored on every exit path.
type homeBattery struct {
	inv   *inverter.Inverter
	saved inverter.Mode
}

func (b *homeBattery) Idle(ctx context.Context) error { return b.inv.SetIdle(ctx) }
func (b *homeBattery) Restore(ctx context.Context) error {
	return b.inv.Restore(ctx, b.saved)
}

// Service owns the polling loop and the per-process state: the sticky charge
// target and the saved inverter mode.
type Service struct {
	cfg       *config.Config
	log       logger.Logger
	prices    PriceSource
	telemetry TelemetrySource
	commander policy.VehicleCommander
	trips     TripSource
	battery   *homeBattery
	planner   *schedule.Planner
	engine    *policy.Engine
	sink      coremetrics.Sink

	priceStore     *store.PriceStore
	telemetryStore *store.TelemetryStore

	chargeNeededPct int
	interval        time.Duration
}

// New performs all fatal-at-init wiring: if the vehicle cannot be found, the
// inverter is unreachable or a database is down, the process should not
// start.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	log := logger.New("service")

	priceStore, err := store.NewPriceStore(cfg.Database, logger.New("price-store"))
	if err != nil {
		return nil, err
	}
	telemetryStore, err := store.NewTelemetryStore(cfg.Database, logger.New("telemetry-store"))
	if err != nil {
		return nil, err
	}

	commander := vehicle.NewClient(cfg.Vehicle, logger.New("tessie"))
	if err := checkVehicle(ctx, commander, telemetryStore, cfg.Vehicle.VIN); err != nil {
		return nil, err
	}

	svc := &Service{
		cfg:             cfg,
		log:             log,
		prices:          priceStore,
		telemetry:       telemetryStore,
		commander:       commander,
		priceStore:      priceStore,
		telemetryStore:  telemetryStore,
		chargeNeededPct: cfg.Charging.MinimumPct,
		interval:        time.Duration(cfg.PollSeconds) * time.Second,
	}

	if cfg.Inverter.Enabled() {
		inv := inverter.New(cfg.Inverter, logger.New("inverter"))
		mode, err := inv.ReadMode(ctx)
		if err != nil {
			return nil, fmt.Errorf("inverter unreachable: %w", err)
		}
		log.Infof("inverter storage control mode %d, remote command mode %d", mode.Control, mode.Command)
		svc.battery = &homeBattery{inv: inv, saved: mode}
	}

	if cfg.Calendar.Enabled() {
		maps := calendar.NewMapsClient(cfg.Calendar.MapsAPIKey, cfg.Charging.HomeLat, cfg.Charging.HomeLon, logger.New("maps"))
		src, err := calendar.NewSource(ctx, cfg.Calendar, maps, cfg.Charging.KWhPerKm, cfg.Charging.CapacityKWh, logger.New("calendar"))
		if err != nil {
			// Calendar access is best effort; run without trip planning.
			log.Errorf("calendar not available, continuing without events: %v", err)
		} else {
			svc.trips = src
		}
	} else {
		log.Infof("no calendar configured, running without trip planning")
	}

	svc.sink = buildSinks(cfg, svc)
	svc.planner = schedule.NewPlanner(cfg.Charging.ScheduleConfig(), logger.New("planner"))
	var battery policy.HomeBattery
	if svc.battery != nil {
		battery = svc.battery
	}
	svc.engine = policy.NewEngine(cfg.Charging.PolicyConfig(), commander, battery, logger.New("policy"))
	return svc, nil
}

// checkVehicle verifies the VIN is known to both the live API and the local
// telemetry store.
func checkVehicle(ctx context.Context, commander *vehicle.Client, ts *store.TelemetryStore, vin string) error {
	ok, err := commander.Exists(ctx)
	if err != nil {
		return fmt.Errorf("vehicle lookup: %w", err)
	}
	if !ok {
		return fmt.Errorf("vehicle %s not found in Tessie account", vin)
	}
	ok, err = ts.Exists(ctx, vin)
	if err != nil {
		return fmt.Errorf("vehicle lookup: %w", err)
	}
	if !ok {
		return fmt.Errorf("vehicle %s not found in telemetry database", vin)
	}
	return nil
}

func buildSinks(cfg *config.Config, svc *Service) coremetrics.Sink {
	log := svc.log
	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			log.Errorf("prom sink: %v", err)
		} else {
			sinks = append(sinks, sink)
		}
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	if cfg.MQTT.Enabled() {
		pub, err := mqtt.NewPublisher(cfg.MQTT)
		if err != nil {
			log.Errorf("mqtt publisher: %v", err)
		} else {
			sinks = append(sinks, pub)
		}
	}
	switch len(sinks) {
	case 0:
		return coremetrics.NopSink{}
	case 1:
		return sinks[0]
	default:
		return metrics.NewMultiSink(sinks...)
	}
}

// Run executes one cycle immediately and then every poll interval until the
// context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	for {
		s.cycle(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.interval):
		}
	}
}

// cycle is one strictly sequential pass: telemetry, prices, trip planning,
// policy decision, command execution, observability.
func (s *Service) cycle(ctx context.Context) {
	now := time.Now().UTC()
	vin := s.cfg.Vehicle.VIN

	snap, err := s.telemetry.Snapshot(ctx, vin)
	if err != nil {
		s.log.Warnf("no telemetry this cycle: %v", err)
		return
	}
	if snap == nil {
		s.log.Warnf("no telemetry rows for %s, skipping cycle", vin)
		return
	}
	s.log.Infof("starting iteration for %s", snap.Name)
	if status, err := s.telemetry.Status(ctx, vin); err == nil && status != policy.StatusOnline {
		s.log.Infof("car offline, last seen at %s (UTC)", snap.LastSeen)
	}
	if snap.Charging() {
		s.log.Infof("charging at %.0f km/h (at %d%% of %d%%)", snap.ChargeRate, snap.BatteryLevel, snap.ChargeLimit)
	} else {
		s.log.Infof("not charging (battery level %d%% of %d%%)", snap.BatteryLevel, snap.ChargeLimit)
	}

	slots, err := s.prices.UpcomingPrices(ctx)
	if err != nil {
		s.log.Warnf("no prices this cycle, skipping charging decisions: %v", err)
		return
	}
	if len(slots) == 0 {
		s.log.Warnf("price feed empty, skipping charging decisions")
		return
	}

	events := s.fetchEvents(ctx, len(slots))
	s.chargeNeededPct, slots = s.planner.Plan(events, slots, snap.BatteryLevel, s.chargeNeededPct, now)
	for _, slot := range slots {
		s.log.Debugf("charging slot %s used %s at level %s costs %f", slot.Start, slot.Charge, slot.Level, slot.PriceKWh)
	}

	dec := s.engine.Decide(snap, slots, s.chargeNeededPct, now)
	s.engine.Execute(ctx, dec, snap)
	s.record(now, snap, slots, dec)
}

// fetchEvents loads trips far enough ahead to cover the price visibility
// plus a maximum-length charge and some driving slack.
func (s *Service) fetchEvents(ctx context.Context, priceHours int) []model.TripEvent {
	if s.trips == nil {
		s.log.Infof("no appointment info, keeping charge target")
		return nil
	}
	lookahead := time.Duration(float64(priceHours)+s.cfg.Charging.MaxChargeHours()+2) * time.Hour
	events, err := s.trips.Events(ctx, lookahead)
	if err != nil {
		s.log.Warnf("calendar fetch failed, planning without events: %v", err)
		return nil
	}
	return events
}

func (s *Service) record(now time.Time, snap *model.VehicleSnapshot, slots []model.PriceSlot, dec policy.Decision) {
	sample := coremetrics.CycleSample{
		CycleID:         uuid.NewString(),
		Timestamp:       now,
		Action:          dec.Kind.String(),
		Reason:          dec.Reason,
		BatteryLevel:    snap.BatteryLevel,
		ChargeLimit:     snap.ChargeLimit,
		ChargeNeededPct: s.chargeNeededPct,
		CarAway:         s.engine.CarAway(),
	}
	if cur := model.CurrentSlot(slots, now); cur != nil {
		sample.PriceLevel = string(cur.Level)
		sample.PriceKWh = cur.PriceKWh
		sample.SlotState = cur.Charge.String()
	}
	if err := s.sink.RecordCycle(sample); err != nil {
		s.log.Warnf("record cycle: %v", err)
	}
}

// Close restores the home battery and releases all clients. It must run on
// every exit path so the inverter is never left idled.
func (s *Service) Close() error {
	if s.battery != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.battery.Restore(ctx); err != nil {
			s.log.Errorf("restore home battery on shutdown: %v", err)
		} else {
			s.log.Infof("home battery restored to startup mode")
		}
	}
	if s.sink != nil {
		s.sink.Close()
	}
	var first error
	if err := s.priceStore.Close(); err != nil {
		first = err
	}
	if err := s.telemetryStore.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
