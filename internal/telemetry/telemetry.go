// Package telemetry exposes VM-internal counters (inline-cache
// hit/miss rates, shape transitions, bytecode sizes, call counts) as
// Prometheus instruments, grounded on the kube-state-metrics pack's
// collectors/collectors.go package-level prometheus.NewCounterVec
// style. Every Metrics value is independent (its own prometheus
// registry) so that a host embedding several VMContexts in one process
// (see pkg/escargot's VM.ID) can either share one Metrics across all of
// them or give each its own, without a package-level global colliding
// across instances the way a naive init()-registered default-registry
// counter would.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics collects one VM's counters. The zero value is not usable;
// construct with New.
type Metrics struct {
	Registry *prometheus.Registry

	ICHits           prometheus.Counter
	ICMisses         prometheus.Counter
	ShapeTransitions prometheus.Counter
	BytecodeBytes    prometheus.Gauge
	CallsTotal       prometheus.Counter
	ThrowsTotal      prometheus.Counter
}

// New builds a Metrics bound to a fresh, private registry and
// registers every instrument on it. vmID is attached to every
// instrument as a constant "vm" label, so a host running several VMs
// can register their instruments onto one shared registry without the
// series colliding.
func New(vmID string) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		ICHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "escargot_ic_hits_total",
			Help:        "Inline-cache hits against a shape-based property access site.",
			ConstLabels: prometheus.Labels{"vm": vmID},
		}),
		ICMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "escargot_ic_misses_total",
			Help:        "Inline-cache misses (shape changed or site never filled) against a property access site.",
			ConstLabels: prometheus.Labels{"vm": vmID},
		}),
		ShapeTransitions: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "escargot_shape_transitions_total",
			Help:        "New Shape nodes created by adding a property to an object.",
			ConstLabels: prometheus.Labels{"vm": vmID},
		}),
		BytecodeBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "escargot_bytecode_bytes",
			Help:        "Size in bytes of the most recently compiled top-level CodeBlock.",
			ConstLabels: prometheus.Labels{"vm": vmID},
		}),
		CallsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "escargot_calls_total",
			Help:        "Function calls (user and native) executed.",
			ConstLabels: prometheus.Labels{"vm": vmID},
		}),
		ThrowsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "escargot_throws_total",
			Help:        "JS exceptions thrown, caught or not.",
			ConstLabels: prometheus.Labels{"vm": vmID},
		}),
	}
	reg.MustRegister(m.ICHits, m.ICMisses, m.ShapeTransitions, m.BytecodeBytes, m.CallsTotal, m.ThrowsTotal)
	return m
}

// Discard is a Metrics whose instruments are registered on a
// throwaway registry nobody ever scrapes, the telemetry equivalent of
// logr.Discard(): cheap to call unconditionally from hot interpreter
// paths without a host opting in to a real collector.
func Discard() *Metrics { return New("discard") }
