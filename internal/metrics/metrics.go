package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Discard reasons for suggestions that were never shown.
const (
	ReasonStale    = "stale"
	ReasonInactive = "inactive"
	ReasonShort    = "short"
)

var (
	// Registry holds every collector of this process. Kept off the global
	// default registry so tests can gather it in isolation.
	Registry = prometheus.NewRegistry()

	SuggestionsRequested = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "storyline_suggestions_requested_total",
			Help: "Continuation requests issued to the suggestion service.",
		},
	)
	SuggestionsShown = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "storyline_suggestions_shown_total",
			Help: "Continuations that became the offered suggestion of a scene.",
		},
	)
	SuggestionsDiscarded = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyline_suggestions_discarded_total",
			Help: "Continuations dropped before being shown, partitioned by reason.",
		},
		[]string{"reason"},
	)
	SuggestionsFailed = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "storyline_suggestions_failed_total",
			Help: "Continuation requests that returned an error.",
		},
	)
	SuggestionFeedback = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyline_suggestion_feedback_total",
			Help: "Accepted and rejected suggestions.",
		},
		[]string{"verdict"},
	)
	SuggestionLatency = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storyline_suggestion_latency_seconds",
			Help:    "Round trip time of continuation requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	SceneGenerations = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyline_scene_generations_total",
			Help: "Structured scene generations, partitioned by result.",
		},
		[]string{"result"},
	)
	ApplyBackDiscarded = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyline_apply_back_discarded_total",
			Help: "Asynchronous results dropped because their target changed, by kind.",
		},
		[]string{"kind"},
	)
	OpenWorkspaces = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "storyline_open_workspaces",
			Help: "Stories currently held in memory.",
		},
	)
	EventSubscribers = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "storyline_event_subscribers",
			Help: "Connected websocket event subscribers.",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
