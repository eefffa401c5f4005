package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the sequence pipeline.
type Metrics struct {
	FetchRequests   *prometheus.CounterVec // labels: status={200,503,...,error}
	FetchDuration   prometheus.Histogram
	MalformedErrors prometheus.Counter
	EventsFetched   prometheus.Counter
	LinesRendered   *prometheus.CounterVec // labels: kind={comment,note,error}
	DegenerateRange *prometheus.CounterVec // labels: series={time,magnitude,longitude}
	LastRunSuccess  prometheus.Gauge

	// Publishing metrics.
	RecordsPublished prometheus.Counter
	PublishErrors    prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.MalformedErrors,
		m.EventsFetched,
		m.LinesRendered,
		m.DegenerateRange,
		m.LastRunSuccess,
		m.RecordsPublished,
		m.PublishErrors,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakeseq",
			Name:      "fetch_requests_total",
			Help:      "USGS event queries by response status.",
		}, []string{"status"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quakeseq",
			Name:      "fetch_duration_seconds",
			Help:      "USGS event query duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		MalformedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakeseq",
			Name:      "malformed_responses_total",
			Help:      "USGS responses rejected by schema validation.",
		}),
		EventsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakeseq",
			Name:      "events_fetched_total",
			Help:      "Total earthquake events received.",
		}),
		LinesRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakeseq",
			Name:      "lines_rendered_total",
			Help:      "Sequence lines written by kind.",
		}, []string{"kind"}),
		DegenerateRange: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakeseq",
			Name:      "degenerate_ranges_total",
			Help:      "Runs where a normalization series had zero width.",
		}, []string{"series"}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quakeseq",
			Name:      "last_run_success",
			Help:      "1 when the most recent run rendered a sequence, 0 otherwise.",
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakeseq",
			Name:      "records_published_total",
			Help:      "Total quake records written to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakeseq",
			Name:      "publish_errors_total",
			Help:      "Failed sink topic writes.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakeseq",
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakeseq",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quakeseq",
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}
