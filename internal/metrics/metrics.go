// Package metrics holds the process-wide Prometheus collectors, exposed
// through the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections counts open websocket connections, bound or not.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_ws_connections_active",
		Help: "Number of currently open websocket connections.",
	})

	// OnlineUsers mirrors the size of the presence registry.
	OnlineUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_presence_online_users",
		Help: "Number of users with an active presence entry.",
	})

	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_sent_total",
		Help: "Messages persisted and fanned out.",
	})

	MessagesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_failed_total",
		Help: "Message sends rejected before fan-out.",
	})
)
