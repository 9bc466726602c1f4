// Package metrics exposes the Prometheus instruments of the coaching service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	invitationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coach_app",
		Subsystem: "relationships",
		Name:      "invitations_total",
		Help:      "Invitation attempts by outcome (created, needs_confirmation, accepted, rejected).",
	}, []string{"outcome"})

	workoutTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coach_app",
		Subsystem: "workouts",
		Name:      "transitions_total",
		Help:      "Workout status changes, labeled by target status.",
	}, []string{"status"})

	orderingConflictsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coach_app",
		Subsystem: "composition",
		Name:      "ordering_conflicts_total",
		Help:      "Unique-order collisions hit while allocating positions, labeled by collection.",
	}, []string{"collection"})

	sideEffectFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coach_app",
		Subsystem: "side_effects",
		Name:      "failures_total",
		Help:      "Mail or event deliveries that failed after commit.",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(invitationsTotal, workoutTransitionsTotal, orderingConflictsTotal, sideEffectFailuresTotal)
}

func RecordInvitation(outcome string) {
	invitationsTotal.WithLabelValues(outcome).Inc()
}

func RecordWorkoutTransition(status string) {
	workoutTransitionsTotal.WithLabelValues(status).Inc()
}

func RecordOrderingConflict(collection string) {
	orderingConflictsTotal.WithLabelValues(collection).Inc()
}

// RecordSideEffectFailure counts a failed "mail" or "event" delivery.
func RecordSideEffectFailure(kind string) {
	sideEffectFailuresTotal.WithLabelValues(kind).Inc()
}
