package fanout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	notificationsFanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatd_fanout_notifications_total",
		Help: "Notifications persisted and pushed by the fanout workers.",
	})
	notificationsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatd_fanout_failures_total",
		Help: "Notifications whose persistence failed.",
	})
	notificationsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatd_fanout_dropped_total",
		Help: "Notifications dropped because the fanout queue was full.",
	})
)
