// Package metrics counts decoder activity: blocks fetched, records decoded,
// fields that fell back to null, blob lookups and index usage.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "paradox"

// Registry holds the decoder metrics. A nil *Registry is valid and records
// nothing, so callers never need to check whether metrics are enabled.
type Registry struct {
	BlocksRead     *prometheus.CounterVec
	RecordsDecoded *prometheus.CounterVec
	FieldFailures  *prometheus.CounterVec
	BlobLookups    *prometheus.CounterVec
	IndexQueries   *prometheus.CounterVec
	TablesOpened   prometheus.Counter

	registry *prometheus.Registry
}

// NewRegistry creates a registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initStorageMetrics()
	r.initDecodeMetrics()
	r.initIndexMetrics()

	return r
}

func (r *Registry) initStorageMetrics() {
	r.TablesOpened = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tables_opened_total",
			Help:      "Number of table files opened",
		},
	)

	r.BlocksRead = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_read_total",
			Help:      "Number of blocks fetched from table files",
		},
		[]string{"table"},
	)
}

func (r *Registry) initDecodeMetrics() {
	r.RecordsDecoded = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_decoded_total",
			Help:      "Number of records whose values were materialized",
		},
		[]string{"table"},
	)

	r.FieldFailures = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_decode_failures_total",
			Help:      "Fields decoded as null because their bytes could not be decoded",
		},
		[]string{"type", "reason"},
	)

	r.BlobLookups = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blob_lookups_total",
			Help:      "Blob resolutions by outcome",
		},
		[]string{"outcome"},
	)
}

func (r *Registry) initIndexMetrics() {
	r.IndexQueries = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_queries_total",
			Help:      "Indexed queries by access path",
		},
		[]string{"path"},
	)
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}
