package observers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/novagestion/asesoria-server/internal/agent/model"
)

const namespace = "asesoria"

// Metrics groups the prometheus collectors of the chat flow. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	Requests            *prometheus.CounterVec
	RequestDuration     prometheus.Histogram
	ClassifierFallbacks *prometheus.CounterVec
	NodeDuration        *prometheus.HistogramVec
	FallbackReplies     prometheus.Counter
	ModelTokens         *prometheus.CounterVec
	ModelCostUSD        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Completed chat requests by route.",
			},
			[]string{"primary_category", "sub_category", "handler"},
		),
		RequestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "End to end graph execution time.",
				Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
			},
		),
		ClassifierFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "classifier_fallbacks_total",
				Help:      "Classifications replaced by the router default label.",
			},
			[]string{"node"},
		),
		NodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "node_duration_seconds",
				Help:      "Execution time of each graph node.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"node", "status"},
		),
		FallbackReplies: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallback_replies_total",
				Help:      "Requests answered with the generic fallback text.",
			},
		),
		ModelTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_tokens_total",
				Help:      "Tokens consumed by chat model calls.",
			},
			[]string{"model", "kind"},
		),
		ModelCostUSD: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_cost_usd_total",
				Help:      "Estimated chat model spend in USD.",
			},
			[]string{"model"},
		),
	}
	if reg != nil {
		reg.MustRegister(
			m.Requests,
			m.RequestDuration,
			m.ClassifierFallbacks,
			m.NodeDuration,
			m.FallbackReplies,
			m.ModelTokens,
			m.ModelCostUSD,
		)
	}
	return m
}

// ObserveRoute records a completed request and its router fallbacks.
func (m *Metrics) ObserveRoute(r model.Route, elapsed time.Duration) {
	if m == nil {
		return
	}
	sub := "none"
	if r.SubCategory != nil {
		sub = string(*r.SubCategory)
	}
	m.Requests.WithLabelValues(string(r.PrimaryCategory), sub, r.Handler).Inc()
	m.RequestDuration.Observe(elapsed.Seconds())
	for _, node := range r.Fallbacks {
		m.ClassifierFallbacks.WithLabelValues(node).Inc()
	}
}

// ObserveFallbackReply counts a request answered with the fallback text.
func (m *Metrics) ObserveFallbackReply() {
	if m == nil {
		return
	}
	m.FallbackReplies.Inc()
}

func (m *Metrics) observeNode(node string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.NodeDuration.WithLabelValues(node, status).Observe(elapsed.Seconds())
}

func (m *Metrics) observeUsage(modelName string, promptTokens, completionTokens int, cost float64) {
	if m == nil {
		return
	}
	if modelName == "" {
		modelName = "unknown"
	}
	m.ModelTokens.WithLabelValues(modelName, "prompt").Add(float64(promptTokens))
	m.ModelTokens.WithLabelValues(modelName, "completion").Add(float64(completionTokens))
	m.ModelCostUSD.WithLabelValues(modelName).Add(cost)
}
