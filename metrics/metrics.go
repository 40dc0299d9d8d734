package metrics

import (
	"sort"
	"strings"
)

// Blob lookup outcomes.
const (
	BlobResolved = "resolved"
	BlobEmpty    = "empty"
	BlobFailed   = "failed"
	BlobNoFile   = "no_file"
)

// Index query paths.
const (
	IndexPruned   = "index"
	IndexFullScan = "full_scan"
)

func (r *Registry) RecordTableOpened() {
	if r == nil {
		return
	}
	r.TablesOpened.Inc()
}

func (r *Registry) RecordBlockRead(table string) {
	if r == nil {
		return
	}
	r.BlocksRead.WithLabelValues(table).Inc()
}

func (r *Registry) RecordDecoded(table string) {
	if r == nil {
		return
	}
	r.RecordsDecoded.WithLabelValues(table).Inc()
}

func (r *Registry) RecordFieldFailure(fieldType, reason string) {
	if r == nil {
		return
	}
	r.FieldFailures.WithLabelValues(fieldType, reason).Inc()
}

func (r *Registry) RecordBlobLookup(outcome string) {
	if r == nil {
		return
	}
	r.BlobLookups.WithLabelValues(outcome).Inc()
}

func (r *Registry) RecordIndexQuery(path string) {
	if r == nil {
		return
	}
	r.IndexQueries.WithLabelValues(path).Inc()
}

// Summary flattens every counter into "name{label=value,...}" keys, sorted
// label order, for printing at the end of a run.
func (r *Registry) Summary() (map[string]float64, error) {
	result := map[string]float64{}
	if r == nil {
		return result, nil
	}

	families, err := r.registry.Gather()
	if err != nil {
		return nil, err
	}

	for _, family := range families {
		for _, m := range family.GetMetric() {
			if m.GetCounter() == nil {
				continue
			}

			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			sort.Strings(labels)

			key := family.GetName()
			if len(labels) > 0 {
				key += "{" + strings.Join(labels, ",") + "}"
			}
			result[key] = m.GetCounter().GetValue()
		}
	}

	return result, nil
}
