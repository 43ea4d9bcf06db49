// Package metrics exposes prometheus collectors for the update-cycle
// pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the engine's prometheus collectors. A nil *Metrics is a
// valid no-op receiver, so wiring metrics stays optional.
type Metrics struct {
	cyclesTotal           *prometheus.CounterVec
	cycleDuration         *prometheus.HistogramVec
	validationErrorsTotal *prometheus.CounterVec
	computedEvaluations   *prometheus.CounterVec
	instancesLive         prometheus.Gauge
}

// New registers the collectors with the given registerer, falling back to
// the default registerer when nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "wirestate_cycles_total", Help: "Total update cycles"},
			[]string{"component", "transport", "outcome"},
		),
		cycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wirestate_cycle_duration_seconds",
				Help:    "Update cycle duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"component"},
		),
		validationErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "wirestate_validation_errors_total", Help: "Total rejected property updates"},
			[]string{"component", "property"},
		),
		computedEvaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "wirestate_computed_evaluations_total", Help: "Total computed derivation invocations"},
			[]string{"component"},
		),
		instancesLive: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "wirestate_instances_live", Help: "Live component instances"},
		),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.cyclesTotal,
		m.cycleDuration,
		m.validationErrorsTotal,
		m.computedEvaluations,
		m.instancesLive,
	)
	return m
}

// Handler returns the scrape endpoint for the given gatherer, or the default
// one when nil.
func (m *Metrics) Handler(reg *prometheus.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// ObserveCycle records one finished update cycle.
func (m *Metrics) ObserveCycle(component, transport, outcome string, d time.Duration, computedEvaluated int) {
	if m == nil {
		return
	}
	m.cyclesTotal.WithLabelValues(component, transport, outcome).Inc()
	m.cycleDuration.WithLabelValues(component).Observe(d.Seconds())
	m.computedEvaluations.WithLabelValues(component).Add(float64(computedEvaluated))
}

// ObserveValidationError records one rejected property update.
func (m *Metrics) ObserveValidationError(component, property string) {
	if m == nil {
		return
	}
	m.validationErrorsTotal.WithLabelValues(component, property).Inc()
}

// SetInstancesLive updates the live-instance gauge.
func (m *Metrics) SetInstancesLive(n int) {
	if m == nil {
		return
	}
	m.instancesLive.Set(float64(n))
}
