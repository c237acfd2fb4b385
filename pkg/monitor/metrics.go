// Package monitor owns the prometheus registry exposed at /metrics.
package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gitmesh"

var registry = prometheus.NewRegistry()

var (
	// ConnectedPeers counts relay connections that registered a peer id.
	ConnectedPeers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "relay",
		Name:      "connected_peers",
		Help:      "Number of peer ids currently mapped to a relay connection",
	})

	RelayMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "relay",
		Name:      "messages_total",
		Help:      "Relay messages received, by type",
	}, []string{"type"})

	// DroppedMessages counts sends skipped because the peer's buffer was full.
	DroppedMessages = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "relay",
		Name:      "dropped_messages_total",
		Help:      "Relay messages dropped for slow peers",
	})

	// Network gauges, refreshed by the stats cron job
	TotalUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "users_total",
		Help:      "Registered users",
	})
	TotalRepositories = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "repositories_total",
		Help:      "Repositories",
	})
	ActivePeers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_peers",
		Help:      "Peers seen within the active window",
	})
	TotalStorage = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "storage_used_bytes",
		Help:      "Sum of storage used by all users",
	})
)

//nolint:gochecknoinits // collectors must exist before the first scrape
func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		ConnectedPeers,
		RelayMessages,
		DroppedMessages,
		TotalUsers,
		TotalRepositories,
		ActivePeers,
		TotalStorage,
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

func Registry() *prometheus.Registry {
	return registry
}

// SetNetworkStats publishes the latest aggregate counts.
func SetNetworkStats(users, repositories, activePeers, storage int64) {
	TotalUsers.Set(float64(users))
	TotalRepositories.Set(float64(repositories))
	ActivePeers.Set(float64(activePeers))
	TotalStorage.Set(float64(storage))
}
