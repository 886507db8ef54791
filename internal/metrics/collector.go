// Package metrics collects and exposes Prometheus metrics for the
// companion daemon.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records companion core metrics.
type Collector struct {
	catalogRequests *prometheus.CounterVec
	catalogErrors   prometheus.Counter
	catalogLatency  prometheus.Histogram
	searches        prometheus.Counter
	pagesLoaded     prometheus.Counter
	listMutations   *prometheus.CounterVec
	listDuplicates  prometheus.Counter
	listSnapshots   prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		catalogRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pokevault_catalog_requests_total",
			Help: "Catalog API requests by endpoint.",
		}, []string{"endpoint"}),
		catalogErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pokevault_catalog_errors_total",
			Help: "Failed catalog API requests.",
		}),
		catalogLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pokevault_catalog_latency_seconds",
			Help:    "Catalog API request latency.",
			Buckets: prometheus.DefBuckets,
		}),
		searches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pokevault_searches_total",
			Help: "Advanced searches executed.",
		}),
		pagesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pokevault_search_pages_total",
			Help: "Additional result pages loaded.",
		}),
		listMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pokevault_list_mutations_total",
			Help: "Shopping-list mutations by operation.",
		}, []string{"op"}),
		listDuplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pokevault_list_duplicates_total",
			Help: "Add attempts rejected as duplicates.",
		}),
		listSnapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pokevault_list_snapshots_total",
			Help: "Shopping-list snapshots delivered to subscribers.",
		}),
	}

	reg.MustRegister(
		c.catalogRequests,
		c.catalogErrors,
		c.catalogLatency,
		c.searches,
		c.pagesLoaded,
		c.listMutations,
		c.listDuplicates,
		c.listSnapshots,
	)
	return c
}

// RecordCatalogRequest records one catalog API request and its duration.
func (c *Collector) RecordCatalogRequest(endpoint string, duration time.Duration) {
	c.catalogRequests.WithLabelValues(endpoint).Inc()
	c.catalogLatency.Observe(duration.Seconds())
}

// RecordCatalogError records a failed catalog API request.
func (c *Collector) RecordCatalogError() {
	c.catalogErrors.Inc()
}

// RecordSearch records an executed advanced search.
func (c *Collector) RecordSearch() {
	c.searches.Inc()
}

// RecordPageLoaded records one load-more page fetch.
func (c *Collector) RecordPageLoaded() {
	c.pagesLoaded.Inc()
}

// RecordListMutation records a shopping-list mutation ("add", "remove" or
// "toggle").
func (c *Collector) RecordListMutation(op string) {
	c.listMutations.WithLabelValues(op).Inc()
}

// RecordDuplicateRejected records an add refused by the duplicate check.
func (c *Collector) RecordDuplicateRejected() {
	c.listDuplicates.Inc()
}

// RecordSnapshotDelivered records one snapshot pushed to a subscriber.
func (c *Collector) RecordSnapshotDelivered() {
	c.listSnapshots.Inc()
}

// Handler returns the /metrics HTTP handler for the registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
