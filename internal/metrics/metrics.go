// Package metrics defines the Prometheus instrumentation of the shell.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the shell's Prometheus collectors. A nil *Metrics is a
// valid no-op receiver so instrumentation stays optional.
type Metrics struct {
	StepsTotal        prometheus.Counter
	ChainsTotal       prometheus.Counter
	ParseErrorsTotal  prometheus.Counter
	InvocationErrors  prometheus.Counter
	ResolutionErrors  prometheus.Counter
	StepDuration      prometheus.Histogram
	LoopLimitsReached prometheus.Counter
}

// New creates and registers the collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lattice",
			Name:      "steps_total",
			Help:      "Number of executed steps.",
		}),
		ChainsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lattice",
			Name:      "chains_total",
			Help:      "Number of executed chain commands.",
		}),
		ParseErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lattice",
			Name:      "parse_errors_total",
			Help:      "Number of chain commands rejected at parse time.",
		}),
		InvocationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lattice",
			Name:      "invocation_errors_total",
			Help:      "Number of callable invocations that returned an error.",
		}),
		ResolutionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lattice",
			Name:      "resolution_errors_total",
			Help:      "Number of tokens that failed coordinate resolution.",
		}),
		StepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lattice",
			Name:      "step_duration_seconds",
			Help:      "Duration of individual step invocations.",
			Buckets:   prometheus.DefBuckets,
		}),
		LoopLimitsReached: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lattice",
			Name:      "loop_limits_reached_total",
			Help:      "Number of while loops aborted by the iteration guard.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.StepsTotal, m.ChainsTotal, m.ParseErrorsTotal,
			m.InvocationErrors, m.ResolutionErrors, m.StepDuration,
			m.LoopLimitsReached,
		)
	}
	return m
}

// ObserveStep records one executed step.
func (m *Metrics) ObserveStep(seconds float64) {
	if m == nil {
		return
	}
	m.StepsTotal.Inc()
	m.StepDuration.Observe(seconds)
}

// IncChains records one chain command.
func (m *Metrics) IncChains() {
	if m == nil {
		return
	}
	m.ChainsTotal.Inc()
}

// IncParseErrors records one rejected chain command.
func (m *Metrics) IncParseErrors() {
	if m == nil {
		return
	}
	m.ParseErrorsTotal.Inc()
}

// IncInvocationErrors records one failed invocation.
func (m *Metrics) IncInvocationErrors() {
	if m == nil {
		return
	}
	m.InvocationErrors.Inc()
}

// IncResolutionErrors records one failed resolution.
func (m *Metrics) IncResolutionErrors() {
	if m == nil {
		return
	}
	m.ResolutionErrors.Inc()
}

// IncLoopLimits records one loop aborted by the iteration guard.
func (m *Metrics) IncLoopLimits() {
	if m == nil {
		return
	}
	m.LoopLimitsReached.Inc()
}
