package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the server. Each Server owns
// its own registry so tests can run side by side.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	searchesTotal *prometheus.CounterVec
	searchEmpty   *prometheus.CounterVec

	refreshTotal  prometheus.Counter
	refreshErrors prometheus.Counter

	snapshotGames     prometheus.Gauge
	snapshotTeams     prometheus.Gauge
	snapshotProspects prometheus.Gauge

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prospects_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "prospects_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		searchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prospects_searches_total",
			Help: "Total number of resolver searches.",
		}, []string{"kind"}),
		searchEmpty: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prospects_searches_empty_total",
			Help: "Searches that produced no matches.",
		}, []string{"kind"}),
		refreshTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prospects_schedule_refreshes_total",
			Help: "Schedule refresh attempts.",
		}),
		refreshErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prospects_schedule_refresh_errors_total",
			Help: "Schedule refreshes that failed.",
		}),
		snapshotGames: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "prospects_snapshot_games",
			Help: "Games in the current snapshot.",
		}),
		snapshotTeams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "prospects_snapshot_teams",
			Help: "Teams in the current catalog.",
		}),
		snapshotProspects: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "prospects_snapshot_prospects",
			Help: "Prospects in the current catalog.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prospects_cache_hits_total",
			Help: "Suggestion cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prospects_cache_misses_total",
			Help: "Suggestion cache misses.",
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.searchesTotal,
		m.searchEmpty,
		m.refreshTotal,
		m.refreshErrors,
		m.snapshotGames,
		m.snapshotTeams,
		m.snapshotProspects,
		m.cacheHits,
		m.cacheMisses,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the Prometheus exposition endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Instrument records request count and latency for every request.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		m.requestsTotal.WithLabelValues(r.Method, statusClass(wrapped.statusCode)).Inc()
		m.requestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

func statusClass(code int) string {
	switch {
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// RecordSearch records a resolver search and whether it matched.
func (m *Metrics) RecordSearch(kind string, matches int) {
	m.searchesTotal.WithLabelValues(kind).Inc()
	if matches == 0 {
		m.searchEmpty.WithLabelValues(kind).Inc()
	}
}

// RecordRefresh records a schedule refresh attempt.
func (m *Metrics) RecordRefresh(err error) {
	m.refreshTotal.Inc()
	if err != nil {
		m.refreshErrors.Inc()
	}
}

// SetSnapshotSizes publishes the sizes of the current snapshot.
func (m *Metrics) SetSnapshotSizes(games, teams, prospects int) {
	m.snapshotGames.Set(float64(games))
	m.snapshotTeams.Set(float64(teams))
	m.snapshotProspects.Set(float64(prospects))
}

// RecordCacheHit counts a suggestion cache hit or miss.
func (m *Metrics) RecordCacheHit(hit bool) {
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
