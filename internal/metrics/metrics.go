// Package metrics exposes report run counters for Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"ndreport/internal"
)

// Metrics is safe for concurrent use. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Runs        *prometheus.CounterVec
	Accounts    *prometheus.CounterVec
	RunDuration prometheus.Histogram
	LastOrphans *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ndreport_runs_total",
			Help: "Report runs by result.",
		}, []string{"result"}),
		Accounts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ndreport_accounts_total",
			Help: "Accounts seen by report runs, by stage.",
		}, []string{"stage"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ndreport_run_duration_seconds",
			Help:    "Wall time of a report run.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		LastOrphans: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ndreport_last_orphans",
			Help: "Orphan accounts in the latest run per server and company.",
		}, []string{"server", "company"}),
	}
	m.registry.MustRegister(
		m.Runs, m.Accounts, m.RunDuration, m.LastOrphans,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRun records one finished run. counts is ignored when err is set.
func (m *Metrics) ObserveRun(server internal.Server, company string, counts internal.RunCounts, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.RunDuration.Observe(took.Seconds())
	if err != nil {
		m.Runs.WithLabelValues("error").Inc()
		return
	}
	m.Runs.WithLabelValues("ok").Inc()
	m.Accounts.WithLabelValues("customer").Add(float64(counts.CustomerRows))
	m.Accounts.WithLabelValues("vendor").Add(float64(counts.VendorRows))
	m.Accounts.WithLabelValues("orphan").Add(float64(counts.Orphans))
	m.Accounts.WithLabelValues("matched").Add(float64(counts.Matched))
	m.Accounts.WithLabelValues("unmatched").Add(float64(counts.Unmatched))
	m.LastOrphans.WithLabelValues(string(server), company).Set(float64(counts.Orphans))
}
