package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatwire_messages_sent_total",
		Help: "Messages persisted via the dispatcher",
	})

	PushesDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatwire_pushes_delivered_total",
		Help: "newMessage events written to a live recipient connection",
	})

	PushesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatwire_pushes_skipped_total",
		Help: "Sends whose recipient had no live connection",
	})

	PushErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatwire_push_errors_total",
		Help: "newMessage pushes that failed to write (swallowed by policy)",
	})

	UploadFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatwire_upload_failures_total",
		Help: "Media host upload attempts that failed",
	})

	WSSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatwire_websocket_sessions",
		Help: "Currently registered websocket sessions",
	})
)

// Handler exposes the registry for Prometheus scraping.
func Handler() http.Handler { return promhttp.Handler() }
