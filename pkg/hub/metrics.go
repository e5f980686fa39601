package hub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	topicRegistrations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatd_hub_topic_registrations",
		Help: "Current (topic, connection) registrations.",
	})
	broadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatd_hub_broadcasts_total",
		Help: "Broadcast deliveries attempted, one per topic fan-out.",
	})
	droppedSends = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatd_hub_dropped_sends_total",
		Help: "Per-connection sends dropped because the outbound buffer was full or closed.",
	})
	backbonePublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatd_hub_backbone_published_total",
		Help: "Events mirrored to the pub/sub backbone.",
	})
	backboneReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatd_hub_backbone_received_total",
		Help: "Events received from peer processes over the backbone.",
	})
)
