package local

import "github.com/prometheus/client_golang/prometheus"

// Metric label values for load outcomes.
const (
	statusLoaded = "loaded"
	statusFailed = "failed"
)

var (
	decodeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "soundbatch_local_decode_seconds",
			Help:    "Duration from file open to decoded stream header, in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"format"},
	)

	activeLoads = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "soundbatch_local_active_loads",
			Help: "Number of files currently being decoded.",
		},
	)

	loadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundbatch_local_loads_total",
			Help: "Total number of assets loaded by the local engine.",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(decodeDuration)
	prometheus.MustRegister(activeLoads)
	prometheus.MustRegister(loadsTotal)

	loadsTotal.WithLabelValues(statusLoaded)
	loadsTotal.WithLabelValues(statusFailed)
}
