package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of scheduling runs on a private registry
type Metrics struct {
	registry  *prometheus.Registry
	runs      *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	score     *prometheus.GaugeVec
	conflicts *prometheus.GaugeVec
	sessions  prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "termtable_runs_total",
		Help: "Total number of timetable generation runs",
	}, []string{"strategy", "outcome"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "termtable_run_duration_seconds",
		Help:    "Duration of timetable generation runs in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"strategy"})

	score := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "termtable_score",
		Help: "Score of the last generated timetable, from 0 to 1000",
	}, []string{"strategy"})

	conflicts := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "termtable_conflicts",
		Help: "Residual conflicts of the last generated timetable",
	}, []string{"strategy"})

	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "termtable_sessions",
		Help: "Sessions expanded for the last run",
	})

	registry.MustRegister(runs, duration, score, conflicts, sessions)

	return &Metrics{
		registry:  registry,
		runs:      runs,
		duration:  duration,
		score:     score,
		conflicts: conflicts,
		sessions:  sessions,
	}
}

// ObserveRun records one run. Score and conflicts are only meaningful for runs that produced a timetable.
func (m *Metrics) ObserveRun(strategy, outcome string, elapsed time.Duration, sessions, conflicts int, score float64) {
	m.runs.WithLabelValues(strategy, outcome).Inc()
	m.duration.WithLabelValues(strategy).Observe(elapsed.Seconds())
	m.sessions.Set(float64(sessions))
	if score >= 0 {
		m.score.WithLabelValues(strategy).Set(score)
		m.conflicts.WithLabelValues(strategy).Set(float64(conflicts))
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile dumps the collected metrics in the text exposition format, for the node exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
