package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/EdwinGH/TeslaPriceBasedCharging/config"
	"github.com/EdwinGH/TeslaPriceBasedCharging/core/model"
	"github.com/EdwinGH/TeslaPriceBasedCharging/core/schedule"
	"github.com/EdwinGH/TeslaPriceBasedCharging/infra/calendar"
	"github.com/EdwinGH/TeslaPriceBasedCharging/infra/logger"
	"github.com/EdwinGH/TeslaPriceBasedCharging/infra/store"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the charge plan for the upcoming price window and exit",
	RunE:  planOnce,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func planOnce(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logg := logger.New("plan-command")
	prices, err := store.NewPriceStore(cfg.Database, logg)
	if err != nil {
		return fmt.Errorf("price store: %w", err)
	}
	defer func() {
		if err := prices.Close(); err != nil {
			logg.Errorf("price store close: %v", err)
		}
	}()
	telemetry, err := store.NewTelemetryStore(cfg.Database, logg)
	if err != nil {
		return fmt.Errorf("telemetry store: %w", err)
	}
	defer func() {
		if err := telemetry.Close(); err != nil {
			logg.Errorf("telemetry store close: %v", err)
		}
	}()

	snap, err := telemetry.Snapshot(ctx, cfg.Vehicle.VIN)
	if err != nil {
		return fmt.Errorf("vehicle snapshot: %w", err)
	}
	if snap == nil {
		return fmt.Errorf("no telemetry recorded for %s", cfg.Vehicle.VIN)
	}
	slots, err := prices.UpcomingPrices(ctx)
	if err != nil {
		return fmt.Errorf("upcoming prices: %w", err)
	}
	if len(slots) == 0 {
		return fmt.Errorf("no upcoming price slots")
	}

	now := time.Now()
	var events []model.TripEvent
	if cfg.Calendar.Enabled() {
		maps := calendar.NewMapsClient(cfg.Calendar.MapsAPIKey, cfg.Charging.HomeLat, cfg.Charging.HomeLon, logg)
		src, err := calendar.NewSource(ctx, cfg.Calendar, maps, cfg.Charging.KWhPerKm, cfg.Charging.CapacityKWh, logg)
		if err != nil {
			return fmt.Errorf("calendar source: %w", err)
		}
		lookahead := time.Duration(len(slots))*time.Hour + time.Duration(cfg.Charging.MaxChargeHours()+2)*time.Hour
		events, err = src.Events(ctx, lookahead)
		if err != nil {
			return fmt.Errorf("calendar events: %w", err)
		}
	}

	planner := schedule.NewPlanner(cfg.Charging.ScheduleConfig(), logg)
	needed, planned := planner.Plan(events, slots, snap.BatteryLevel, cfg.Charging.MinimumPct, now)

	fmt.Printf("battery %d%%, charge needed %d%%, %d trips, %d price slots\n",
		snap.BatteryLevel, needed, len(events), len(planned))
	for _, ev := range events {
		fmt.Printf("trip %-20s depart %s return %s %.1f km\n",
			ev.Summary, ev.Depart.Format("Mon 15:04"), ev.Return.Format("Mon 15:04"), float64(ev.DistanceM)/1000)
	}
	for _, s := range planned {
		fmt.Printf("%s  %-14s %7.4f €/kWh  %s\n",
			s.Start.Format("Mon 02 15:04"), s.Level, s.PriceKWh, s.Charge)
	}
	return nil
}
