package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the relay's counters and gauges on a private registry so
// tests can create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	// ContributorUploads counts upload parameter sets successfully enqueued
	// for delivery. Enqueued, not delivered: delivery is best-effort and
	// failures are dropped.
	ContributorUploads prometheus.Counter

	// UploadFailures counts delivery attempts that ended in an error.
	UploadFailures prometheus.Counter

	// QueueDepth tracks the number of parameter sets awaiting delivery.
	QueueDepth prometheus.Gauge
}

// NewMetrics creates a Metrics instance with its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		ContributorUploads: factory.NewCounter(prometheus.CounterOpts{
			Name: "skyrelay_contributor_uploads_total",
			Help: "Upload parameter sets enqueued for delivery to the tracker.",
		}),
		UploadFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "skyrelay_upload_failures_total",
			Help: "Delivery attempts that failed and were dropped.",
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "skyrelay_upload_queue_depth",
			Help: "Parameter sets currently buffered in the delivery queue.",
		}),
	}
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
