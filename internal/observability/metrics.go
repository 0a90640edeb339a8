// Package observability holds the Prometheus metrics for civic-eye.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the service.
type Metrics struct {
	// Verification metrics.
	Verifications        *prometheus.CounterVec // labels: method={GPS,Visual,None}, outcome={verified,rejected,error}
	VerificationDuration prometheus.Histogram
	PhotoFetches         *prometheus.CounterVec // labels: role={original,solution}, outcome={success,error}
	PreviewChecks        *prometheus.CounterVec // labels: tier

	// Issue lifecycle metrics.
	IssuesCreated     *prometheus.CounterVec // labels: category
	StatusTransitions *prometheus.CounterVec // labels: to

	// Event fan-out metrics.
	EventsDispatched *prometheus.CounterVec // labels: sink={broadcast,publisher}, outcome={success,error}
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civic_eye",
			Name:      "verifications_total",
			Help:      help("Solution verifications by deciding method and outcome."),
		}, []string{"method", "outcome"}),
		VerificationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "civic_eye",
			Name:      "verification_duration_seconds",
			Help:      help("End-to-end duration of a solution verification."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
		}),
		PhotoFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civic_eye",
			Name:      "photo_fetches_total",
			Help:      help("Photo downloads by role and outcome."),
		}, []string{"role", "outcome"}),
		PreviewChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civic_eye",
			Name:      "preview_checks_total",
			Help:      help("Advisory photo location previews by verdict tier."),
		}, []string{"tier"}),
		IssuesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civic_eye",
			Name:      "issues_created_total",
			Help:      help("Issues reported by category."),
		}, []string{"category"}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civic_eye",
			Name:      "status_transitions_total",
			Help:      help("Issue status changes by target status."),
		}, []string{"to"}),
		EventsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civic_eye",
			Name:      "events_dispatched_total",
			Help:      help("Issue events delivered by sink and outcome."),
		}, []string{"sink", "outcome"}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(
		m.Verifications,
		m.VerificationDuration,
		m.PhotoFetches,
		m.PreviewChecks,
		m.IssuesCreated,
		m.StatusTransitions,
		m.EventsDispatched,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
