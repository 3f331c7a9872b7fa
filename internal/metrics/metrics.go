package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pagevault/library/internal/db"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "library"

// CatalogStats is the part of the catalog the collector reads
type CatalogStats interface {
	CountBooks(ctx context.Context) (int64, error)
}

// LedgerStats is the part of the rental ledger the collector reads
type LedgerStats interface {
	CountByStatus(ctx context.Context) (map[db.RentalStatus]int64, error)
}

// Metrics owns the registry and HTTP instruments
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates a registry with process, Go, HTTP and storage metrics
func New(catalog CatalogStats, ledger LedgerStats, log *zap.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestsTotal,
		m.requestDuration,
		newStoreCollector(catalog, ledger, log),
	)

	return m
}

// Registry exposes the registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per matched route
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// storeCollector reads catalog and ledger counts on every scrape
type storeCollector struct {
	catalog CatalogStats
	ledger  LedgerStats
	log     *zap.Logger

	books *prometheus.Desc
	rents *prometheus.Desc
}

func newStoreCollector(catalog CatalogStats, ledger LedgerStats, log *zap.Logger) *storeCollector {
	return &storeCollector{
		catalog: catalog,
		ledger:  ledger,
		log:     log,
		books: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "books"),
			"Books in the catalog.",
			nil, nil,
		),
		rents: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "rent_requests"),
			"Rent requests by review status.",
			[]string{"status"}, nil,
		),
	}
}

func (c *storeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.books
	ch <- c.rents
}

func (c *storeCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if total, err := c.catalog.CountBooks(ctx); err != nil {
		c.log.Warn("Failed to collect book count", zap.Error(err))
	} else {
		ch <- prometheus.MustNewConstMetric(c.books, prometheus.GaugeValue, float64(total))
	}

	counts, err := c.ledger.CountByStatus(ctx)
	if err != nil {
		c.log.Warn("Failed to collect rent request counts", zap.Error(err))
		return
	}
	for status, n := range counts {
		ch <- prometheus.MustNewConstMetric(c.rents, prometheus.GaugeValue, float64(n), string(status))
	}
}
