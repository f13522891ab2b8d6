package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AnswerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "math_agent_answer_duration_seconds",
			Help:    "Question processing duration in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"source"},
	)

	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "math_agent_answers_total",
			Help: "Total answers served, by resolving tier",
		},
		[]string{"source"},
	)

	GuardrailBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "math_agent_guardrail_blocked_total",
			Help: "Questions rejected by the guardrail filter",
		},
		[]string{"verdict"},
	)

	RetrievalConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "math_agent_retrieval_confidence",
			Help:    "Top adjusted retrieval score per lookup",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	WebSearchTriggered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "math_agent_web_search_triggered_total",
			Help: "Total number of web searches triggered",
		},
	)

	FeedbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "math_agent_feedback_total",
			Help: "Feedback submissions recorded",
		},
		[]string{"helpful"},
	)

	EntriesDeprecated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "math_agent_entries_deprecated_total",
			Help: "Knowledge base entries deprecated by the correction sweep",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "math_agent_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "math_agent_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)
)

func Init() {
	prometheus.MustRegister(AnswerDuration)
	prometheus.MustRegister(AnswersTotal)
	prometheus.MustRegister(GuardrailBlocked)
	prometheus.MustRegister(RetrievalConfidence)
	prometheus.MustRegister(WebSearchTriggered)
	prometheus.MustRegister(FeedbackTotal)
	prometheus.MustRegister(EntriesDeprecated)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
