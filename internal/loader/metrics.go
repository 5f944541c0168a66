package loader

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/seantiz/soundbatch/internal/model"
)

// Stream label values for unattributed events.
const (
	streamSuccess = "success"
	streamFailure = "failure"
)

var (
	batchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundbatch_batches_total",
			Help: "Total number of settled batches by outcome.",
		},
		[]string{"status"},
	)

	assetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundbatch_assets_total",
			Help: "Total number of asset outcomes by kind.",
		},
		[]string{"outcome"},
	)

	pendingBatches = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "soundbatch_pending_batches",
			Help: "Number of batches waiting on engine events.",
		},
	)

	batchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "soundbatch_batch_duration_seconds",
			Help:    "Duration from load call to settlement, in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	unattributedEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundbatch_unattributed_events_total",
			Help: "Engine events that matched no outstanding request.",
		},
		[]string{"stream"},
	)
)

func init() {
	prometheus.MustRegister(batchesTotal)
	prometheus.MustRegister(assetsTotal)
	prometheus.MustRegister(pendingBatches)
	prometheus.MustRegister(batchDuration)
	prometheus.MustRegister(unattributedEvents)

	// Pre-initialize label combinations so they appear in /metrics from startup.
	batchesTotal.WithLabelValues(model.StatusFulfilled)
	batchesTotal.WithLabelValues(model.StatusRejected)
	for _, o := range []string{model.OutcomeLoaded, model.OutcomeFailed, model.OutcomeInvalid} {
		assetsTotal.WithLabelValues(o)
	}
	unattributedEvents.WithLabelValues(streamSuccess)
	unattributedEvents.WithLabelValues(streamFailure)
}
