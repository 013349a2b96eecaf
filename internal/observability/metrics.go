package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bank_node",
			Name:      "connections_total",
			Help:      "Peer connections accepted since start",
		},
	)

	PeersConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bank_node",
			Name:      "peers_connected",
			Help:      "Peer sessions currently open",
		},
	)

	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bank_node",
			Name:      "commands_total",
			Help:      "Commands processed by verb and outcome",
		},
		[]string{"verb", "outcome"},
	)

	UnknownCommandsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bank_node",
			Name:      "unknown_commands_total",
			Help:      "Lines rejected because the verb is not registered",
		},
	)

	CommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bank_node",
			Name:      "command_duration_seconds",
			Help:      "Command execution latency per verb",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"verb"},
	)
)
