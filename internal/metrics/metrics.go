// Package metrics exposes the snapshot core's Prometheus collectors. The
// core never starts its own metrics listener; an embedder mounts Handler()
// wherever it likes, since collaborators own the HTTP root, not this
// package.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every collector the core reports against one registry, so
// multiple Core instances in one process (unusual, but not forbidden)
// don't collide on metric names.
type Metrics struct {
	registry *prometheus.Registry

	WriterCommitsTotal  *prometheus.CounterVec
	WriterCommitSeconds prometheus.Histogram
	WatcherReloadsTotal *prometheus.CounterVec
	ReaderLookupsTotal  prometheus.Counter
}

// New registers a fresh set of collectors against a new registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		WriterCommitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snapshot_writer_commits_total",
			Help: "Number of UpdateHandle.Update calls that reached the commit stage, by outcome.",
		}, []string{"outcome"}),
		WriterCommitSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "snapshot_writer_commit_seconds",
			Help:    "Latency of the commit stage of UpdateHandle.Update calls, retries included.",
			Buckets: prometheus.DefBuckets,
		}),
		WatcherReloadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snapshot_watcher_reloads_total",
			Help: "Number of snapshot file reloads performed by the watcher, by outcome.",
		}, []string{"outcome"}),
		ReaderLookupsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snapshot_reader_lookups_total",
			Help: "Number of SharedContext.GetVotersInfo calls.",
		}),
	}
	reg.MustRegister(m.WriterCommitsTotal, m.WriterCommitSeconds, m.WatcherReloadsTotal, m.ReaderLookupsTotal)
	return m
}

// Handler returns an http.Handler exposing the Prometheus exposition
// format. The embedder mounts this wherever it likes (e.g. a
// collaborator's "/metrics" route); this package never listens on its own.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCommit records the outcome and duration of one writer commit.
func (m *Metrics) ObserveCommit(outcome string, took time.Duration) {
	m.WriterCommitsTotal.WithLabelValues(outcome).Inc()
	m.WriterCommitSeconds.Observe(took.Seconds())
}

// ObserveReload records the outcome of one watcher reload.
func (m *Metrics) ObserveReload(outcome string) {
	m.WatcherReloadsTotal.WithLabelValues(outcome).Inc()
}

// ObserveLookup records one SharedContext.GetVotersInfo call.
func (m *Metrics) ObserveLookup() {
	m.ReaderLookupsTotal.Inc()
}
