// Package metrics exposes Prometheus collectors for queue and device
// activity.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	queueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trainqueue_queue_length",
			Help: "Current number of queued users",
		},
	)

	controlCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trainqueue_control_commands_total",
			Help: "Total train control commands by type",
		},
		[]string{"control"},
	)

	slotExpiries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trainqueue_slot_expiries_total",
			Help: "Total control slots removed by expiry",
		},
	)

	pushSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trainqueue_push_subscribers",
			Help: "Current number of attached push subscribers",
		},
	)
)

// SetQueueLength records the current queue length.
func SetQueueLength(n int) {
	queueLength.Set(float64(n))
}

// TrackControlCommand counts one executed control command.
func TrackControlCommand(control string) {
	controlCommands.WithLabelValues(control).Inc()
}

// TrackSlotExpiry counts one expired control slot.
func TrackSlotExpiry() {
	slotExpiries.Inc()
}

// SetPushSubscribers records the current push subscriber count.
func SetPushSubscribers(n int) {
	pushSubscribers.Set(float64(n))
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
