package observability

import (
	"sort"
	"time"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the admin API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	storeDuration  *prometheus.HistogramVec
	storeErrors    *prometheus.CounterVec
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	subscriptions  prometheus.Gauge
	alertsRaised   *prometheus.CounterVec
	requestsTotal  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		storeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coffee_datastore_op_duration_seconds",
				Help:    "Duration of data layer operations by collection and operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"collection", "op"},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coffee_datastore_errors_total",
				Help: "Total failed data layer operations.",
			},
			[]string{"collection", "op"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coffee_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coffee_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		subscriptions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "coffee_active_subscriptions",
				Help: "Live query subscriptions currently open.",
			},
		),
		alertsRaised: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coffee_stock_alerts_total",
				Help: "Stock alerts raised by type.",
			},
			[]string{"type"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coffee_http_requests_total",
				Help: "Total HTTP requests processed.",
			},
			[]string{"status"},
		),
		requestLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coffee_http_request_duration_seconds",
				Help:    "Duration of HTTP requests by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// ObserveStoreOp records the duration and outcome of a data layer operation.
func (m *Metrics) ObserveStoreOp(collection, op string, d time.Duration, err error) {
	m.storeDuration.WithLabelValues(collection, op).Observe(d.Seconds())
	if err != nil {
		m.storeErrors.WithLabelValues(collection, op).Inc()
	}
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// SubscriptionOpened and SubscriptionClosed track live queries.
func (m *Metrics) SubscriptionOpened() { m.subscriptions.Inc() }
func (m *Metrics) SubscriptionClosed() { m.subscriptions.Dec() }

// IncrAlert counts a raised stock alert.
func (m *Metrics) IncrAlert(alertType string) {
	m.alertsRaised.WithLabelValues(alertType).Inc()
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// RecordRequestDuration records the latency of a routed request.
func (m *Metrics) RecordRequestDuration(route string, d time.Duration) {
	m.requestLatency.WithLabelValues(route).Observe(d.Seconds())
}

// DatastoreSnapshot returns the data layer statistics served by
// GET /v1/analytics/datastore.
func (m *Metrics) DatastoreSnapshot() *domain.DatastoreStats {
	families, err := m.Registry.Gather()
	if err != nil {
		return &domain.DatastoreStats{}
	}

	type key struct{ collection, op string }
	ops := map[key]*domain.OperationStats{}
	get := func(lbls []*dto.LabelPair) *domain.OperationStats {
		k := key{label(lbls, "collection"), label(lbls, "op")}
		s, ok := ops[k]
		if !ok {
			s = &domain.OperationStats{Collection: k.collection, Operation: k.op}
			ops[k] = s
		}
		return s
	}

	var hits, misses float64
	stats := &domain.DatastoreStats{}

	for _, mf := range families {
		switch mf.GetName() {
		case "coffee_datastore_op_duration_seconds":
			for _, metric := range mf.GetMetric() {
				h := metric.GetHistogram()
				s := get(metric.GetLabel())
				s.Count = h.GetSampleCount()
				if s.Count > 0 {
					s.AvgMs = h.GetSampleSum() / float64(s.Count) * 1000
				}
			}
		case "coffee_datastore_errors_total":
			for _, metric := range mf.GetMetric() {
				get(metric.GetLabel()).Errors = metric.GetCounter().GetValue()
			}
		case "coffee_cache_hits_total":
			for _, metric := range mf.GetMetric() {
				hits += metric.GetCounter().GetValue()
			}
		case "coffee_cache_misses_total":
			for _, metric := range mf.GetMetric() {
				misses += metric.GetCounter().GetValue()
			}
		case "coffee_active_subscriptions":
			for _, metric := range mf.GetMetric() {
				stats.ActiveSubscriptions = int(metric.GetGauge().GetValue())
			}
		}
	}

	if hits+misses > 0 {
		stats.CacheHitRate = hits / (hits + misses)
	}
	stats.Operations = make([]domain.OperationStats, 0, len(ops))
	for _, s := range ops {
		stats.Operations = append(stats.Operations, *s)
	}
	sort.Slice(stats.Operations, func(i, j int) bool {
		a, b := stats.Operations[i], stats.Operations[j]
		if a.Collection != b.Collection {
			return a.Collection < b.Collection
		}
		return a.Operation < b.Operation
	})
	return stats
}

func label(lbls []*dto.LabelPair, name string) string {
	for _, l := range lbls {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}
