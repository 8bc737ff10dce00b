// Package metrics holds the prometheus collectors for decode failures.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts value-decoding failures. A nil *Metrics is valid and records nothing.
type Metrics struct {
	DecodeFailures *prometheus.CounterVec
}

// New creates the collectors and registers them with reg when reg is non-nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DecodeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tablekit",
			Name:      "decode_failures_total",
			Help:      "Number of values that could not be decoded, by component and target type.",
		}, []string{"component", "type"}),
	}
	if reg != nil {
		reg.MustRegister(m.DecodeFailures)
	}
	return m
}

// DecodeFailed records one failure.
func (m *Metrics) DecodeFailed(component, typ string) {
	if m == nil {
		return
	}
	m.DecodeFailures.WithLabelValues(component, typ).Inc()
}
