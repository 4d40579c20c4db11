// Package metrics holds the Prometheus collectors of the results service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SubmissionBuckets are tuned for a card of a few dozen matches committed in one transaction.
var SubmissionBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// Results collects metrics for result submissions and their side effects.
// A nil *Results is valid and records nothing.
type Results struct {
	SubmissionsTotal      *prometheus.CounterVec
	SubmissionDuration    prometheus.Histogram
	TitleChangesTotal     prometheus.Counter
	AnnouncementsTotal    *prometheus.CounterVec
	EventsAwaitingResults prometheus.Gauge
}

func NewResults(namespace string, registerer prometheus.Registerer) *Results {
	factory := promauto.With(registerer)

	return &Results{
		SubmissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "results",
				Name:      "submissions_total",
				Help:      "Event result submissions by outcome",
			},
			[]string{"outcome"},
		),
		SubmissionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "results",
				Name:      "submission_duration_seconds",
				Help:      "Time spent resolving and committing one event",
				Buckets:   SubmissionBuckets,
			},
		),
		TitleChangesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "results",
				Name:      "title_changes_total",
				Help:      "Committed championship changes",
			},
		),
		AnnouncementsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "announcements",
				Name:      "deliveries_total",
				Help:      "Announcement deliveries by sink and status (ok/failed)",
			},
			[]string{"sink", "status"},
		),
		EventsAwaitingResults: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "results",
				Name:      "events_awaiting_results",
				Help:      "Past events whose results have not been recorded",
			},
		),
	}
}

func (m *Results) ObserveSubmission(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(outcome).Inc()
	m.SubmissionDuration.Observe(d.Seconds())
}

func (m *Results) AddTitleChanges(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.TitleChangesTotal.Add(float64(n))
}

func (m *Results) AnnouncementDelivered(sink string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "failed"
	}
	m.AnnouncementsTotal.WithLabelValues(sink, status).Inc()
}

func (m *Results) SetEventsAwaitingResults(n int) {
	if m == nil {
		return
	}
	m.EventsAwaitingResults.Set(float64(n))
}
