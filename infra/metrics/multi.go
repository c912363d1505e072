package metrics

import coremetrics "github.com/EdwinGH/TeslaPriceBasedCharging/core/metrics"

// MultiSink fans cycle samples out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordCycle forwards the sample to all sinks, returning the first error encountered.
func (m *MultiSink) RecordCycle(sm coremetrics.CycleSample) error {
	var first error
	for _, s := range m.Sinks {
		if err := s.RecordCycle(sm); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close closes all sinks.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		s.Close()
	}
}
