// Package metrics bundles the prometheus instruments for the mark pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	MarksProcessed        *prometheus.CounterVec
	UpsertDuration        prometheus.Histogram
	QueryDuration         *prometheus.HistogramVec
	EventsDeduplicated    prometheus.Counter
	EventsDropped         *prometheus.CounterVec
	OutboxEnqueued        prometheus.Counter
	OutboxPublished       prometheus.Counter
	OutboxPublishFailures prometheus.Counter
	ChainWriteFailures    prometheus.Counter
}

// New registers the metric bundle with reg. Pass prometheus.DefaultRegisterer
// in main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MarksProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spectra_marks_processed_total",
			Help: "Upsert attempts by namespace and outcome",
		}, []string{"namespace", "outcome"}),
		UpsertDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "spectra_mark_upsert_duration_seconds",
			Help:    "Latency of the mark upsert transaction",
			Buckets: prometheus.DefBuckets,
		}),
		QueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spectra_reputation_query_duration_seconds",
			Help:    "Latency of reputation read queries",
			Buckets: prometheus.DefBuckets,
		}, []string{"query"}),
		EventsDeduplicated: factory.NewCounter(prometheus.CounterOpts{
			Name: "spectra_inbound_events_deduplicated_total",
			Help: "Inbound events skipped because their eventId was already seen",
		}),
		EventsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spectra_inbound_events_dropped_total",
			Help: "Inbound events dropped before processing",
		}, []string{"reason"}),
		OutboxEnqueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "spectra_outbox_enqueued_total",
			Help: "Outcome events recorded in the outbox",
		}),
		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "spectra_outbox_published_total",
			Help: "Outbox entries delivered to the broker",
		}),
		OutboxPublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "spectra_outbox_publish_failures_total",
			Help: "Outbox publish attempts that failed",
		}),
		ChainWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "spectra_chain_write_failures_total",
			Help: "On-chain write-through attempts that exhausted their retries",
		}),
	}
}

// NamespaceLabel renders the onchain flag as a metric label value.
func NamespaceLabel(onchain bool) string {
	if onchain {
		return "onchain"
	}
	return "offchain"
}
