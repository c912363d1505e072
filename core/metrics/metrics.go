package metrics

import "time"

// CycleSample summarizes one polling cycle for observability sinks.
type CycleSample struct {
	CycleID         string    `json:"cycle_id"`
	Timestamp       time.Time `json:"timestamp"`
	Action          string    `json:"action"`
	Reason          string    `json:"reason"`
	BatteryLevel    int       `json:"battery_level"`
	ChargeLimit     int       `json:"charge_limit"`
	ChargeNeededPct int       `json:"charge_needed_pct"`
	PriceLevel      string    `json:"price_level"`
	PriceKWh        float64   `json:"price_kwh"`
	SlotState       string    `json:"slot_state"`
	CarAway         bool      `json:"car_away"`
}

// Sink records cycle samples. Implementations must tolerate being called
// from the single control loop without blocking it for long.
type Sink interface {
	RecordCycle(CycleSample) error
	Close()
}

// NopSink discards all samples.
type NopSink struct{}

func (NopSink) RecordCycle(CycleSample) error { return nil }
func (NopSink) Close()                        {}

// Config enables the available sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}
