package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_jobs_created_total",
		Help: "Total number of bookings created, by urgency category",
	}, []string{"category"})

	JobsAcceptedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_jobs_accepted_total",
		Help: "Total number of bookings accepted by a translator",
	})

	AcceptConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_accept_conflicts_total",
		Help: "Total number of accept attempts rejected because the job was no longer available",
	})

	JobsTransitionedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_jobs_transitioned_total",
		Help: "Total number of status transitions, by target status",
	}, []string{"status"})

	JobsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_jobs_expired_total",
		Help: "Total number of pending bookings timed out by the expiry sweep",
	})

	DistanceUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_distance_updates_total",
		Help: "Total number of distance feed updates recorded",
	})

	NotificationsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_notifications_published_total",
		Help: "Lifecycle events handed to the message broker, by outcome",
	}, []string{"outcome"})

	NotificationsDeliveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_notifications_delivered_total",
		Help: "Notifications handed to a sender by the worker, by channel",
	}, []string{"channel"})

	NotificationProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "booking_notification_processing_duration_seconds",
		Help:    "Time taken by the worker to process one lifecycle event",
		Buckets: prometheus.DefBuckets,
	})
)
