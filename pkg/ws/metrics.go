package ws

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chatConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatd_ws_chat_connections",
		Help: "Open chat websocket connections.",
	})
	presenceConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatd_ws_presence_connections",
		Help: "Open presence websocket connections.",
	})
	eventsDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatd_ws_events_dispatched_total",
		Help: "Inbound websocket events accepted and dispatched.",
	})
	eventsThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatd_ws_events_throttled_total",
		Help: "Inbound websocket events rejected by the per-connection rate limit.",
	})
)
