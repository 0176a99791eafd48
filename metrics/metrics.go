// Package metrics exports collate network statistics as Prometheus metrics.
//
// Channels always keep their own counters (channel.Stats); a Metrics value
// is an optional observer that mirrors them onto a Prometheus registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ezrec/collate/channel"
)

const (
	NAMESPACE = "collate"
)

// Metrics holds the Prometheus collectors for one network.
type Metrics struct {
	puts   *prometheus.CounterVec
	gets   *prometheus.CounterVec
	stalls *prometheus.CounterVec
	size   *prometheus.GaugeVec
	ticks  prometheus.Counter
	steps  *prometheus.CounterVec
}

var _ channel.Observer = (*Metrics)(nil)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (m *Metrics, err error) {
	m = &Metrics{
		puts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: NAMESPACE,
			Subsystem: "channel",
			Name:      "puts_total",
			Help:      "Total number of records written to a channel",
		}, []string{"channel"}),
		gets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: NAMESPACE,
			Subsystem: "channel",
			Name:      "gets_total",
			Help:      "Total number of records read from a channel",
		}, []string{"channel"}),
		stalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: NAMESPACE,
			Subsystem: "channel",
			Name:      "stalls_total",
			Help:      "Total number of deferred channel operations",
		}, []string{"channel", "reason"}),
		size: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: NAMESPACE,
			Subsystem: "channel",
			Name:      "size",
			Help:      "Current number of records in a channel",
		}, []string{"channel"}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: NAMESPACE,
			Subsystem: "scheduler",
			Name:      "ticks_total",
			Help:      "Total number of scheduler ticks",
		}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: NAMESPACE,
			Subsystem: "stage",
			Name:      "steps_total",
			Help:      "Total number of steps taken by a stage",
		}, []string{"stage"}),
	}

	for _, c := range []prometheus.Collector{m.puts, m.gets, m.stalls, m.size, m.ticks, m.steps} {
		err = reg.Register(c)
		if err != nil {
			m = nil
			return
		}
	}

	return
}

// Put records a channel write.
func (m *Metrics) Put(name string, size int) {
	m.puts.WithLabelValues(name).Inc()
	m.size.WithLabelValues(name).Set(float64(size))
}

// Get records a channel read.
func (m *Metrics) Get(name string, size int) {
	m.gets.WithLabelValues(name).Inc()
	m.size.WithLabelValues(name).Set(float64(size))
}

// Stall records a deferred channel operation.
func (m *Metrics) Stall(name string, full bool) {
	reason := "empty"
	if full {
		reason = "full"
	}
	m.stalls.WithLabelValues(name, reason).Inc()
}

// Tick records one scheduler tick, and the steps each stage took during it.
func (m *Metrics) Tick(steps map[string]int) {
	m.ticks.Inc()
	for name, n := range steps {
		if n > 0 {
			m.steps.WithLabelValues(name).Add(float64(n))
		}
	}
}
