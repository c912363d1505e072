// Package store reads forecast electricity prices and cached vehicle
// telemetry from the household MySQL database. Prices are imported into the
// electricity_prices table by the energy meter pipeline; vehicle rows are
// appended to tesla_data by the telemetry logger.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/EdwinGH/TeslaPriceBasedCharging/core/logger"
	"github.com/EdwinGH/TeslaPriceBasedCharging/core/model"
)

// Config defines the MySQL connection parameters.
type Config struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	// PricesDatabase holds the electricity_prices table.
	PricesDatabase string `json:"prices_database"`
	// VehicleDatabase holds the tesla_data table.
	VehicleDatabase string `json:"vehicle_database"`
}

// SetDefaults applies connection defaults.
func (c *Config) SetDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 3306
	}
	if c.PricesDatabase == "" {
		c.PricesDatabase = "energy"
	}
	if c.VehicleDatabase == "" {
		c.VehicleDatabase = "vehicles"
	}
}

func (c Config) dsn(database string) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC", c.User, c.Password, c.Host, c.Port, database)
}

// PriceStore reads upcoming hourly electricity prices.
type PriceStore struct {
	db  *sql.DB
	log logger.Logger
}

// NewPriceStore opens the prices database and verifies the connection.
func NewPriceStore(cfg Config, log logger.Logger) (*PriceStore, error) {
	db, err := sql.Open("mysql", cfg.dsn(cfg.PricesDatabase))
	if err != nil {
		return nil, fmt.Errorf("open prices database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping prices database: %w", err)
	}
	return &PriceStore{db: db, log: log}, nil
}

// UpcomingPrices returns the hourly slots whose interval has not ended yet,
// ascending by start time. Every slot starts out undecided.
func (s *PriceStore) UpcomingPrices(ctx context.Context) ([]model.PriceSlot, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT datetime_from, cost_kWh_level, cost_kWh_total FROM electricity_prices WHERE datetime_to > UTC_TIMESTAMP ORDER BY datetime_from ASC")
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var slots []model.PriceSlot
	for rows.Next() {
		var (
			start time.Time
			level string
			price float64
		)
		if err := rows.Scan(&start, &level, &price); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		slots = append(slots, model.PriceSlot{
			Start:    start.UTC(),
			Level:    model.PriceLevel(level),
			PriceKWh: price,
			Charge:   model.Undecided,
		})
		s.log.Debugf("electricity costs from %s (UTC) is %s, E %f/kWh", start, level, price)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price rows: %w", err)
	}
	if len(slots) > 0 {
		s.log.Infof("current electricity costs (from %s UTC) is %s, E %f/kWh", slots[0].Start, slots[0].Level, slots[0].PriceKWh)
	}
	return slots, nil
}

// Close releases the database handle.
func (s *PriceStore) Close() error { return s.db.Close() }

// TelemetryStore reads cached vehicle telemetry. Reading the cache never
// wakes the vehicle, unlike live API calls.
type TelemetryStore struct {
	db  *sql.DB
	log logger.Logger
}

// NewTelemetryStore opens the vehicle database and verifies the connection.
func NewTelemetryStore(cfg Config, log logger.Logger) (*TelemetryStore, error) {
	db, err := sql.Open("mysql", cfg.dsn(cfg.VehicleDatabase))
	if err != nil {
		return nil, fmt.Errorf("open vehicle database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping vehicle database: %w", err)
	}
	return &TelemetryStore{db: db, log: log}, nil
}

// Exists reports whether telemetry has ever been recorded for the VIN.
func (s *TelemetryStore) Exists(ctx context.Context, vin string) (bool, error) {
	var ts time.Time
	err := s.db.QueryRowContext(ctx,
		"SELECT datetime FROM tesla_data WHERE vin = ? ORDER BY datetime DESC LIMIT 1", vin).Scan(&ts)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query vehicle existence: %w", err)
	}
	return true, nil
}

// Snapshot returns the most recent telemetry row for the VIN, or nil when
// none is available.
func (s *TelemetryStore) Snapshot(ctx context.Context, vin string) (*model.VehicleSnapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT display_name, datetime, charge_port, battery_level, battery_limit, charge_rate, latitude, longitude
		 FROM tesla_data WHERE vin = ? AND battery_level IS NOT NULL ORDER BY datetime DESC LIMIT 1`, vin)
	var snap model.VehicleSnapshot
	err := row.Scan(&snap.Name, &snap.LastSeen, &snap.ChargePort, &snap.BatteryLevel, &snap.ChargeLimit,
		&snap.ChargeRate, &snap.Latitude, &snap.Longitude)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query vehicle snapshot: %w", err)
	}
	s.log.Debugw("vehicle snapshot", map[string]any{
		"name":      snap.Name,
		"last_seen": snap.LastSeen,
		"battery":   snap.BatteryLevel,
		"limit":     snap.ChargeLimit,
		"rate":      snap.ChargeRate,
	})
	return &snap, nil
}

// Status returns "online" or "offline" derived from the last recorded state.
func (s *TelemetryStore) Status(ctx context.Context, vin string) (string, error) {
	var (
		ts    time.Time
		state string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT datetime, state FROM tesla_data WHERE vin = ? ORDER BY datetime DESC LIMIT 1", vin).Scan(&ts, &state)
	if err != nil {
		return "", fmt.Errorf("query vehicle status: %w", err)
	}
	status := TranslateState(state)
	if status == "" {
		s.log.Warnf("unrecognized car state in database: %s", state)
	}
	return status, nil
}

// Close releases the database handle.
func (s *TelemetryStore) Close() error { return s.db.Close() }

// TranslateState maps a recorded vehicle state to "online" or "offline".
// Unknown states map to the empty string.
func TranslateState(state string) string {
	switch state {
	case "parked", "driving", "charging":
		return "online"
	case "offline", "asleep":
		return "offline"
	default:
		return ""
	}
}
