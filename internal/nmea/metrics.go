package nmea

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricLines = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "helmlink",
		Subsystem: "nmea",
		Name:      "lines_total",
		Help:      "Lines received from the multiplexer.",
	})
	metricDecoded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "helmlink",
		Subsystem: "nmea",
		Name:      "sentences_decoded_total",
		Help:      "Sentences that produced at least one channel field.",
	})
	metricDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "helmlink",
		Subsystem: "nmea",
		Name:      "sentences_dropped_total",
		Help:      "Lines that decoded to nothing (unknown type, malformed, failed validity flag).",
	})
	metricSamples = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "helmlink",
		Subsystem: "nmea",
		Name:      "samples_emitted_total",
		Help:      "Aggregated samples delivered to subscribers.",
	})
	metricTicksSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "helmlink",
		Subsystem: "nmea",
		Name:      "ticks_skipped_total",
		Help:      "Aggregation ticks that emitted nothing (not connected, or a mandatory channel was empty).",
	})
	metricReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "helmlink",
		Subsystem: "nmea",
		Name:      "reconnects_total",
		Help:      "Reconnect attempts scheduled.",
	})
	metricState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "helmlink",
		Subsystem: "nmea",
		Name:      "connection_state",
		Help:      "Connection state (0=disconnected, 1=connecting, 2=connected, 3=error).",
	})
)

func stateValue(st State) float64 {
	switch st {
	case StateConnecting:
		return 1
	case StateConnected:
		return 2
	case StateError:
		return 3
	default:
		return 0
	}
}
