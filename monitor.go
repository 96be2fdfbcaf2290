package treatz

import (
	"context"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/zoobzio/treatz/rx"
)

// Outcome label values of the completions metric.
const (
	OutcomeFinished  = "finished"
	OutcomeFailed    = "failed"
	OutcomeViolation = "violation"
)

// MetricsConfig customizes metric names.
type MetricsConfig struct {
	Namespace   string
	Subsystem   string
	ConstLabels prometheus.Labels
}

// DefaultMetricsConfig returns the configuration used by NewMetrics.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "treatz",
		Subsystem: "sequence",
	}
}

// Metrics holds the Prometheus instruments updated by Instrument.
// Every instrument is labeled by the sequence name.
type Metrics struct {
	Subscriptions *prometheus.CounterVec
	Elements      *prometheus.CounterVec
	Completions   *prometheus.CounterVec
	Disposals     *prometheus.CounterVec
	Active        *prometheus.GaugeVec
	Lifetime      *prometheus.HistogramVec
	clock         Clock
}

// NewMetrics registers the sequence metrics with reg using the default
// configuration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return NewMetricsWithConfig(reg, DefaultMetricsConfig(), nil)
}

// NewMetricsWithConfig registers the sequence metrics with reg. The clock
// measures subscription lifetimes, nil for RealClock.
func NewMetricsWithConfig(reg prometheus.Registerer, cfg MetricsConfig, clock Clock) *Metrics {
	factory := promauto.With(reg)
	labels := []string{"sequence"}

	return &Metrics{
		Subscriptions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   cfg.Namespace,
				Subsystem:   cfg.Subsystem,
				Name:        "subscriptions_total",
				Help:        "Total number of subscriptions",
				ConstLabels: cfg.ConstLabels,
			},
			labels,
		),

		Elements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   cfg.Namespace,
				Subsystem:   cfg.Subsystem,
				Name:        "elements_total",
				Help:        "Total number of elements delivered",
				ConstLabels: cfg.ConstLabels,
			},
			labels,
		),

		Completions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   cfg.Namespace,
				Subsystem:   cfg.Subsystem,
				Name:        "completions_total",
				Help:        "Total number of terminations by outcome",
				ConstLabels: cfg.ConstLabels,
			},
			[]string{"sequence", "outcome"},
		),

		Disposals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   cfg.Namespace,
				Subsystem:   cfg.Subsystem,
				Name:        "disposals_total",
				Help:        "Total number of subscriptions disposed before termination",
				ConstLabels: cfg.ConstLabels,
			},
			labels,
		),

		Active: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   cfg.Namespace,
				Subsystem:   cfg.Subsystem,
				Name:        "active_subscriptions",
				Help:        "Number of live subscriptions",
				ConstLabels: cfg.ConstLabels,
			},
			labels,
		),

		Lifetime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   cfg.Namespace,
				Subsystem:   cfg.Subsystem,
				Name:        "lifetime_seconds",
				Help:        "Time from subscription to termination or disposal",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: cfg.ConstLabels,
			},
			labels,
		),

		clock: clockOr(clock),
	}
}

// Instrument records the lifecycle of every subscription to the sequence
// in m under the given name. Events pass through unchanged.
//
// Example:
//
//	m := treatz.NewMetrics(prometheus.DefaultRegisterer)
//	orders := source.Instrument("orders", m)
func (s Sequence[S, T, F]) Instrument(name string, m *Metrics) Sequence[S, T, F] {
	return wrap[S, T, F](rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		start := m.clock.Now()
		active := m.Active.WithLabelValues(name)
		elements := m.Elements.WithLabelValues(name)

		m.Subscriptions.WithLabelValues(name).Inc()
		active.Inc()

		var ended atomic.Bool
		end := func(outcome string) {
			if !ended.CompareAndSwap(false, true) {
				return
			}
			active.Dec()
			m.Lifetime.WithLabelValues(name).Observe(m.clock.Now().Sub(start).Seconds())
			if outcome == "" {
				m.Disposals.WithLabelValues(name).Inc()
				return
			}
			m.Completions.WithLabelValues(name, outcome).Inc()
		}
		context.AfterFunc(ctx, func() { end("") })

		s.source.Subscribe(ctx, rx.Observer[T]{
			OnNext: func(v T) {
				elements.Inc()
				e.Next(v)
			},
			OnError: func(err error) {
				outcome := OutcomeFailed
				if _, ok := err.(F); !ok {
					outcome = OutcomeViolation
				}
				end(outcome)
				e.Error(err)
			},
			OnCompleted: func() {
				end(OutcomeFinished)
				e.Complete()
			},
		})
	}))
}
