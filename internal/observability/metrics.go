package observability

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/flowgen-backend/internal/platform/logger"
)

const (
	OutcomeSuccess  = "success"
	OutcomeOverload = "overload"
	OutcomeError    = "error"
	OutcomeDegraded = "degraded"
)

type Metrics struct {
	registry *prometheus.Registry

	llmAttempts        *prometheus.CounterVec
	llmFallbacks       prometheus.Counter
	retrievalFailures  prometheus.Counter
	generationDegraded prometheus.Counter
	generationDuration *prometheus.HistogramVec
	apiRequests        *prometheus.CounterVec
	apiLatency         *prometheus.HistogramVec
	vectorOps          *prometheus.HistogramVec
	embedCache         *prometheus.CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Current returns the process-wide metrics set by Init, or nil.
func Current() *Metrics {
	return instance
}

// Init builds the process-wide metrics once. Later calls return the same value.
func Init(log *logger.Logger) *Metrics {
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("prometheus metrics initialized")
		}
	})
	return instance
}

// NewMetrics builds an independent metrics set on its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		llmAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowgen_llm_attempts_total",
			Help: "Model invocation attempts by model and outcome.",
		}, []string{"model", "outcome"}),
		llmFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowgen_llm_fallbacks_total",
			Help: "Escalations from one model stage to the next.",
		}),
		retrievalFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowgen_retrieval_failures_total",
			Help: "Similarity searches that failed and degraded to no examples.",
		}),
		generationDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowgen_generation_degraded_total",
			Help: "Generations whose model output could not be parsed.",
		}),
		generationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flowgen_generation_duration_seconds",
			Help:    "End-to-end generation latency in seconds by outcome.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"outcome"}),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowgen_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flowgen_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route", "status"}),
		vectorOps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flowgen_vector_store_operation_duration_seconds",
			Help:    "Vector store call latency in seconds by operation/status.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"operation", "status"}),
		embedCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowgen_embed_cache_lookups_total",
			Help: "Embedding cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
	}
	reg.MustRegister(
		m.llmAttempts,
		m.llmFallbacks,
		m.retrievalFailures,
		m.generationDegraded,
		m.generationDuration,
		m.apiRequests,
		m.apiLatency,
		m.vectorOps,
		m.embedCache,
	)
	return m
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) IncLLMAttempt(model, outcome string) {
	if m == nil {
		return
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = "unknown"
	}
	if outcome == "" {
		outcome = OutcomeError
	}
	m.llmAttempts.WithLabelValues(model, outcome).Inc()
}

func (m *Metrics) IncLLMFallback() {
	if m == nil {
		return
	}
	m.llmFallbacks.Inc()
}

func (m *Metrics) IncRetrievalFailure() {
	if m == nil {
		return
	}
	m.retrievalFailures.Inc()
}

func (m *Metrics) IncGenerationDegraded() {
	if m == nil {
		return
	}
	m.generationDegraded.Inc()
}

func (m *Metrics) ObserveGeneration(outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = OutcomeError
	}
	m.generationDuration.WithLabelValues(outcome).Observe(dur.Seconds())
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ObserveVectorStore(operation, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if status == "" {
		status = "error"
	}
	m.vectorOps.WithLabelValues(operation, status).Observe(dur.Seconds())
}

func (m *Metrics) IncEmbedCache(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.embedCache.WithLabelValues(result).Add(float64(n))
}
