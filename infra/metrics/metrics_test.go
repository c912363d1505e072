package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/EdwinGH/TeslaPriceBasedCharging/core/metrics"
)

func sample() coremetrics.CycleSample {
	return coremetrics.CycleSample{
		CycleID:         "abc",
		Action:          "charge",
		Reason:          "reserved slot",
		BatteryLevel:    42,
		ChargeLimit:     70,
		ChargeNeededPct: 70,
		PriceKWh:        0.21,
		CarAway:         false,
	}
}

func TestPromSink_RecordCycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordCycle(sample()))
	require.NoError(t, sink.RecordCycle(sample()))

	ps := sink.(*PromSink)
	assert.Equal(t, 2.0, testutil.ToFloat64(ps.actions.WithLabelValues("charge", "reserved slot")))
	assert.Equal(t, 42.0, testutil.ToFloat64(ps.batteryLevel))
	assert.Equal(t, 70.0, testutil.ToFloat64(ps.chargeLimit))
	assert.Equal(t, 0.21, testutil.ToFloat64(ps.priceKWh))
	assert.Equal(t, 0.0, testutil.ToFloat64(ps.carAway))
}

func TestPromSink_DoubleRegistrationTolerated(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)
	_, err = NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)
}

type recordingSink struct {
	samples []coremetrics.CycleSample
	err     error
	closed  bool
}

func (r *recordingSink) RecordCycle(sm coremetrics.CycleSample) error {
	r.samples = append(r.samples, sm)
	return r.err
}

func (r *recordingSink) Close() { r.closed = true }

func TestMultiSink_FansOut(t *testing.T) {
	a := &recordingSink{err: errors.New("a failed")}
	b := &recordingSink{}
	m := NewMultiSink(a, b)

	err := m.RecordCycle(sample())
	assert.EqualError(t, err, "a failed")
	assert.Len(t, a.samples, 1)
	assert.Len(t, b.samples, 1)

	m.Close()
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestNopSink(t *testing.T) {
	var s coremetrics.NopSink
	assert.NoError(t, s.RecordCycle(sample()))
	s.Close()
}
