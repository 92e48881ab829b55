// Package metrics exposes workflow execution as Prometheus metrics. Observer
// plugs into the engine as an engine.Observer and owns a private registry, so
// several instances never collide.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/specialistvlad/pdfgrid/internal/engine"
)

const namespace = "pdfgrid"

// Observer records engine events as metrics.
type Observer struct {
	registry *prometheus.Registry

	runs       *prometheus.CounterVec
	operations *prometheus.CounterVec
	failures   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	inFlight   prometheus.Gauge
	sync       *prometheus.CounterVec
	outputs    prometheus.Counter
}

// New creates an observer with its collectors registered. Go runtime and
// process collectors are included when withRuntime is set.
func New(withRuntime bool) *Observer {
	o := &Observer{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Workflow runs by outcome.",
		}, []string{"outcome"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Operation dispatches by type and outcome.",
		}, []string{"operation", "outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "branch_failures_total",
			Help:      "Branches ended by a dispatch error, by operation type.",
		}, []string{"operation"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Time spent executing an operation.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"operation"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "operations_in_flight",
			Help:      "Operations currently executing.",
		}),
		sync: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synchronization_events_total",
			Help:      "Wait arrivals, resumes and stalls.",
		}, []string{"event"}),
		outputs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outputs_total",
			Help:      "Documents yielded by terminated branches.",
		}),
	}
	o.registry.MustRegister(o.runs, o.operations, o.failures, o.duration, o.inFlight, o.sync, o.outputs)
	if withRuntime {
		o.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return o
}

// Observe implements engine.Observer.
func (o *Observer) Observe(_ context.Context, ev engine.Event) {
	switch ev.Kind {
	case engine.RunStarted:
		o.runs.WithLabelValues("started").Inc()
	case engine.RunFinished:
		o.runs.WithLabelValues("finished").Inc()
	case engine.Cancelled:
		o.runs.WithLabelValues("cancelled").Inc()
	case engine.OperationStarted:
		o.inFlight.Inc()
	case engine.OperationFinished:
		o.inFlight.Dec()
		outcome := "ok"
		if ev.Err != nil {
			outcome = "error"
		}
		o.operations.WithLabelValues(ev.Operation, outcome).Inc()
		o.duration.WithLabelValues(ev.Operation).Observe(ev.Duration.Seconds())
	case engine.OperationFailed:
		o.failures.WithLabelValues(ev.Operation).Inc()
	case engine.Deposited:
		o.sync.WithLabelValues("deposited").Inc()
	case engine.Resumed:
		o.sync.WithLabelValues("resumed").Inc()
	case engine.Stalled:
		o.sync.WithLabelValues("stalled").Inc()
	case engine.Output:
		o.outputs.Add(float64(ev.Outputs))
	}
}

// Registry returns the registry holding the observer's collectors.
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{Registry: o.registry})
}
