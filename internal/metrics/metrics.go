// Package metrics defines the Prometheus collectors for the meal tracker.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Label values for persistence outcomes.
const (
	Durable   = "durable"
	LocalOnly = "local_only"
	Failed    = "failed"
)

// Collectors for the durable store and remote client.
var (
	StorePersistTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pojedi_store_persist_total",
		Help: "Cumulative number of image persist attempts by durability outcome.",
	}, []string{"outcome"})

	StoreMutationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pojedi_store_mutations_total",
		Help: "Cumulative number of mutating statements executed.",
	})

	StoreImageBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pojedi_store_image_bytes",
		Help: "Size of the last serialized database image.",
	})

	RemoteRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pojedi_remote_request_duration_seconds",
		Help:    "Duration of remote blob store requests by operation and result.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "result"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pojedi_http_requests_total",
		Help: "Cumulative number of API requests by route and status code.",
	}, []string{"route", "code"})
)

// Collectors returns all collectors for registration at startup.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		StorePersistTotal,
		StoreMutationsTotal,
		StoreImageBytes,
		RemoteRequestDuration,
		HTTPRequestsTotal,
	}
}

// MustRegister registers all collectors with the default registry.
// Call once from the serving entrypoint; tests use their own registries.
func MustRegister() {
	prometheus.MustRegister(Collectors()...)
}
