// Package metrics holds the Prometheus collectors of the backend.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bikeiot"

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	packetsReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "packets_total",
			Help:      "Packets received from devices by transport.",
		},
		[]string{"transport"},
	)
	conversionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "conversion_failures_total",
			Help:      "Inbound packets that could not be decoded.",
		},
		[]string{"transport"},
	)
	verdicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "verdicts_total",
			Help:      "Validation verdicts by payload kind and failed rule.",
		},
		[]string{"kind", "valid", "rule"},
	)
	commandsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fleet",
			Name:      "commands_sent_total",
			Help:      "Commands published to devices.",
		},
		[]string{"command", "success"},
	)
	commandResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fleet",
			Name:      "command_results_total",
			Help:      "Command results reported by devices.",
		},
		[]string{"result"},
	)
)

// Register adds all collectors to the default registry. It is safe to call
// more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			packetsReceived,
			conversionFailures,
			verdicts,
			commandsSent,
			commandResults,
		)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	Register()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func RecordPacket(transport string) {
	Register()
	packetsReceived.WithLabelValues(transport).Inc()
}

func RecordConversionFailure(transport string) {
	Register()
	conversionFailures.WithLabelValues(transport).Inc()
}

// RecordVerdict counts a validation outcome. rule is empty for valid
// packets.
func RecordVerdict(kind string, valid bool, rule string) {
	Register()
	verdicts.WithLabelValues(kind, strconv.FormatBool(valid), rule).Inc()
}

func RecordCommandSent(command string, success bool) {
	Register()
	commandsSent.WithLabelValues(command, strconv.FormatBool(success)).Inc()
}

func RecordCommandResult(result string) {
	Register()
	commandResults.WithLabelValues(result).Inc()
}
