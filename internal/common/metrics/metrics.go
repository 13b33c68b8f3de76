// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_messages_routed_total",
			Help: "Total number of user messages answered, by answer source and category",
		},
		[]string{"source", "category"},
	)

	RouteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_route_duration_seconds",
			Help:    "Duration of handle-message processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	LookupResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_lookup_results_total",
			Help: "Structured lookup outcomes by table and result kind",
		},
		[]string{"table", "kind"},
	)

	GenerationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_generation_failures_total",
			Help: "Generative fallback failures by error kind",
		},
		[]string{"kind"},
	)

	IntakeAnswers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_intake_answers_total",
			Help: "Intake answers by step and outcome (accepted or rejected)",
		},
		[]string{"step", "outcome"},
	)

	IntakeCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_intake_completed_total",
			Help: "Number of intake sessions that produced a complete profile",
		},
	)

	ProfileSaveFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_profile_save_failures_total",
			Help: "Completed profiles that could not be persisted",
		},
	)

	ResetRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_reset_requests_total",
			Help: "Conversation reset requests by outcome (prompted, confirmed, cancelled)",
		},
		[]string{"outcome"},
	)
)
