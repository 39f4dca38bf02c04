package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_active_sessions",
		Help: "Number of currently open room sessions.",
	})

	MessagesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_published_total",
		Help: "Events registered with the sync coordinator and fanned out.",
	})

	DeliveriesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_deliveries_dropped_total",
		Help: "Push deliveries dropped because a subscriber was unreachable.",
	})

	PullRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_pull_requests_total",
		Help: "Cursor-based pull sync requests served.",
	})

	PresenceSweeps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_presence_sweeps_total",
		Help: "Presence staleness sweeps executed.",
	})
)

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
