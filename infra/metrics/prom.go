package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/EdwinGH/TeslaPriceBasedCharging/core/metrics"
)

// PromSink exposes the cycle state as Prometheus metrics.
type PromSink struct {
	actions      *prometheus.CounterVec
	batteryLevel prometheus.Gauge
	chargeLimit  prometheus.Gauge
	chargeNeeded prometheus.Gauge
	priceKWh     prometheus.Gauge
	carAway      prometheus.Gauge
}

// NewPromSink registers charging metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "charging_policy_actions_total",
			Help: "Policy actions taken, by action and reason",
		}, []string{"action", "reason"}),
		batteryLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vehicle_battery_level_percent",
			Help: "Battery level reported by the vehicle",
		}),
		chargeLimit: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vehicle_charge_limit_percent",
			Help: "Charge limit currently set on the vehicle",
		}),
		chargeNeeded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "charging_target_percent",
			Help: "Charge target computed from upcoming trips",
		}),
		priceKWh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "electricity_price_kwh",
			Help: "Electricity price of the current hour",
		}),
		carAway: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vehicle_away",
			Help: "1 when the vehicle is off premises",
		}),
	}
	for _, c := range []prometheus.Collector{s.actions, s.batteryLevel, s.chargeLimit, s.chargeNeeded, s.priceKWh, s.carAway} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return s, nil
}

// RecordCycle updates the gauges and counts the action taken.
func (s *PromSink) RecordCycle(sm coremetrics.CycleSample) error {
	s.actions.WithLabelValues(sm.Action, sm.Reason).Inc()
	s.batteryLevel.Set(float64(sm.BatteryLevel))
	s.chargeLimit.Set(float64(sm.ChargeLimit))
	s.chargeNeeded.Set(float64(sm.ChargeNeededPct))
	s.priceKWh.Set(sm.PriceKWh)
	if sm.CarAway {
		s.carAway.Set(1)
	} else {
		s.carAway.Set(0)
	}
	return nil
}

// Close implements the Sink interface.
func (s *PromSink) Close() {}
