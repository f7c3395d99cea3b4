package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks listing registry activity.
type Metrics struct {
	ListingsCreated prometheus.Counter
	ListingsDeleted prometheus.Counter
	SlugRetries     prometheus.Counter
	MarkerQueries   *prometheus.CounterVec
	MarkerDuration  prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ListingsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "kosfinder_listings_created_total",
			Help: "Number of listings successfully created.",
		}),
		ListingsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "kosfinder_listings_deleted_total",
			Help: "Number of listings deleted.",
		}),
		SlugRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "kosfinder_slug_retries_total",
			Help: "Slug candidates discarded due to collisions.",
		}),
		MarkerQueries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kosfinder_marker_queries_total",
			Help: "Marker queries by cache outcome.",
		}, []string{"source"}),
		MarkerDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "kosfinder_marker_query_duration_seconds",
			Help:    "Latency of marker queries.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementListingsCreated() {
	if m == nil {
		return
	}
	m.ListingsCreated.Inc()
}

func (m *Metrics) IncrementListingsDeleted() {
	if m == nil {
		return
	}
	m.ListingsDeleted.Inc()
}

func (m *Metrics) IncrementSlugRetries() {
	if m == nil {
		return
	}
	m.SlugRetries.Inc()
}

// ObserveMarkerQuery records one marker lookup. Source is "cache" or "store".
func (m *Metrics) ObserveMarkerQuery(source string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.MarkerQueries.WithLabelValues(source).Inc()
	m.MarkerDuration.Observe(elapsed.Seconds())
}
