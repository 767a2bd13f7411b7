// Package metrics exposes Prometheus collectors for the HTTP layer and the event domain.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "eventhub"

// Registry holds every collector served on /metrics.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Domain metrics
var (
	// RSVPsCreated counts RSVPs by initial payment status.
	RSVPsCreated = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rsvps_created_total",
			Help:      "Total number of RSVPs created, by payment status",
		},
		[]string{"payment_status"},
	)

	// RSVPsRejected counts RSVP attempts refused as duplicates.
	RSVPsRejected = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rsvps_duplicate_total",
			Help:      "Total number of RSVP attempts rejected because one already existed",
		},
	)

	// CommentsCreated counts stored comments.
	CommentsCreated = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comments_created_total",
			Help:      "Total number of comments created",
		},
	)

	// AuthFailures counts rejected logins and tokens.
	AuthFailures = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Total number of authentication failures, by reason",
		},
		[]string{"reason"},
	)

	// ForbiddenActions counts ownership/role guard denials.
	ForbiddenActions = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forbidden_actions_total",
			Help:      "Total number of requests denied by ownership or role guards",
		},
		[]string{"action"},
	)

	// NotificationsEnqueued counts RSVP confirmation jobs, by outcome.
	NotificationsEnqueued = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_enqueued_total",
			Help:      "Total number of notification jobs handed to the queue, by outcome",
		},
		[]string{"outcome"},
	)

	// LiveFeedClients tracks open WebSocket comment feed connections.
	LiveFeedClients = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_feed_clients",
			Help:      "Current number of connected live comment feed clients",
		},
	)
)
