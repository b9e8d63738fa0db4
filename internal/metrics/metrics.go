package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	moderationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "placify_moderation_actions_total",
		Help: "Moderation actions by kind, action and outcome",
	}, []string{"kind", "action", "outcome"})
	batchModifiedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "placify_batch_modified_records_total",
		Help: "Records changed by batch moderation",
	}, []string{"kind"})
	auditWriteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "placify_audit_write_failures_total",
		Help: "Audit entries that could not be persisted",
	})
	auditPurgedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "placify_audit_purged_entries_total",
		Help: "Audit entries removed by retention purges",
	})
	eventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "placify_events_published_total",
		Help: "Domain events published on the bus",
	}, []string{"event"})
	eventsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "placify_events_dropped_total",
		Help: "Domain events dropped because a subscriber queue was full",
	}, []string{"subscriber"})
	subscriberFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "placify_event_subscriber_failures_total",
		Help: "Subscriber handler errors and panics",
	}, []string{"subscriber", "kind"})
	realtimeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "placify_realtime_sessions",
		Help: "Connected administrator websocket sessions",
	})
	submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "placify_submissions_total",
		Help: "Public submissions by kind and gate verdict",
	}, []string{"kind", "verdict"})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "placify_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(
		moderationTotal,
		batchModifiedTotal,
		auditWriteFailures,
		auditPurgedTotal,
		eventsPublished,
		eventsDropped,
		subscriberFailures,
		realtimeSessions,
		submissionsTotal,
		httpDuration,
	)
}

// ObserveModeration counts one moderation call. outcome is "success" or "failure".
func ObserveModeration(kind, action, outcome string) {
	moderationTotal.WithLabelValues(kind, action, outcome).Inc()
}

func AddBatchModified(kind string, n int64) { batchModifiedTotal.WithLabelValues(kind).Add(float64(n)) }

// IncAuditWriteFailure increments the audit write failure counter.
func IncAuditWriteFailure() { auditWriteFailures.Inc() }

func AddAuditPurged(n int64) { auditPurgedTotal.Add(float64(n)) }

func IncEventPublished(event string) { eventsPublished.WithLabelValues(event).Inc() }

// IncEventDropped increments the dropped events counter for a subscriber.
func IncEventDropped(subscriber string) { eventsDropped.WithLabelValues(subscriber).Inc() }

// IncSubscriberFailure records a handler error or panic. kind is "error" or "panic".
func IncSubscriberFailure(subscriber, kind string) {
	subscriberFailures.WithLabelValues(subscriber, kind).Inc()
}

func SessionOpened() { realtimeSessions.Inc() }

func SessionClosed() { realtimeSessions.Dec() }

func ObserveSubmission(kind, verdict string) { submissionsTotal.WithLabelValues(kind, verdict).Inc() }

// ObserveHTTP records one handled request. route is the matched pattern, not
// the raw path, to keep label cardinality bounded.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
