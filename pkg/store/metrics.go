package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatd_store_messages_created_total",
		Help: "Messages persisted, including thread replies.",
	})
	messagesForwarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatd_store_messages_forwarded_total",
		Help: "Forward copies created.",
	})
	readsMarked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatd_store_reads_marked_total",
		Help: "read_by additions applied (idempotent repeats excluded).",
	})
	notificationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatd_store_notifications_created_total",
		Help: "Notification records persisted.",
	})
)
