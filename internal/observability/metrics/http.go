package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SearchMetrics aggregates the API server collectors. The embedding cache
// and breaker collectors are handed to the infrastructure that owns those
// decisions.
type SearchMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	asksTotal       *prometheus.CounterVec
	askSources      *prometheus.HistogramVec
	askDuration     *prometheus.HistogramVec
	embeddingCache  *prometheus.CounterVec
	embeddingBreaks prometheus.Counter
}

func NewSearchMetrics(service string) *SearchMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "concierge",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "concierge",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	asksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "search",
			Name:      "asks_total",
			Help:      "Total answered queries by planned intent and outcome.",
		},
		[]string{"service", "intent", "outcome"},
	)
	askSources := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "concierge",
			Subsystem: "search",
			Name:      "ask_sources",
			Help:      "Distribution of cited sources per answered query.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"service", "intent"},
	)
	askDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "concierge",
			Subsystem: "search",
			Name:      "ask_duration_seconds",
			Help:      "End-to-end query answering duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "intent"},
	)
	embeddingCache := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "embedding",
			Name:      "cache_lookups_total",
			Help:      "Embedding cache lookups by result.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"result"},
	)
	embeddingBreaks := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "embedding",
			Name:      "breaker_opens_total",
			Help:      "Times the embedding failure breaker transitioned to open.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		asksTotal,
		askSources,
		askDuration,
		embeddingCache,
		embeddingBreaks,
	)

	return &SearchMetrics{
		registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
		asksTotal:       asksTotal,
		askSources:      askSources,
		askDuration:     askDuration,
		embeddingCache:  embeddingCache,
		embeddingBreaks: embeddingBreaks,
	}
}

func (m *SearchMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *SearchMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

func (m *SearchMetrics) RecordAsk(service, intent, outcome string, sources int, duration time.Duration) {
	if intent == "" {
		intent = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.asksTotal.WithLabelValues(service, intent, outcome).Inc()
	m.askSources.WithLabelValues(service, intent).Observe(float64(sources))
	m.askDuration.WithLabelValues(service, intent).Observe(duration.Seconds())
}

// EmbeddingCacheLookups is the collector the TTL cache labels with
// "hit" or "miss".
func (m *SearchMetrics) EmbeddingCacheLookups() *prometheus.CounterVec {
	return m.embeddingCache
}

// EmbeddingBreakerOpens is the collector the failure breaker increments
// on closed-to-open transitions.
func (m *SearchMetrics) EmbeddingBreakerOpens() prometheus.Counter {
	return m.embeddingBreaks
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}
