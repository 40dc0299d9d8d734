package table

import (
	"errors"
	"iter"
	"log/slog"

	"github.com/dot5enko/paradox-reader/index"
	"github.com/dot5enko/paradox-reader/metrics"
	"github.com/dot5enko/paradox-reader/record"
)

// RowsByIndex yields the records satisfying cond. The primary index narrows
// the blocks to read when the table has one; without a usable index every
// block is scanned. Either way each yielded record matches cond exactly.
func (t *Table) RowsByIndex(cond index.Condition) iter.Seq2[*record.Record, error] {
	matches := func(rec *record.Record) bool {
		return index.Match(cond, rec.Get)
	}

	return func(yield func(*record.Record, error) bool) {
		if t.index == nil {
			t.scan(cond, "table has no primary index")
			forward(t.Rows(matches), yield)
			return
		}

		counted := false
		for loc, err := range t.index.Enumerate(cond) {
			if err != nil {
				if !counted && errors.Is(err, index.ErrUnsupportedDepth) {
					t.scan(cond, err.Error())
					forward(t.Rows(matches), yield)
					return
				}
				yield(nil, err)
				return
			}

			if !counted {
				t.metrics.RecordIndexQuery(metrics.IndexPruned)
				counted = true
			}

			b, err := t.Block(loc.Block)
			if err != nil {
				yield(nil, err)
				return
			}

			for i := 0; i < b.Len(); i++ {
				rec := b.Record(i)
				if !matches(rec) {
					continue
				}
				if !yield(rec, nil) {
					return
				}
			}
		}

		if !counted {
			t.metrics.RecordIndexQuery(metrics.IndexPruned)
		}
	}
}

func (t *Table) scan(cond index.Condition, reason string) {
	t.metrics.RecordIndexQuery(metrics.IndexFullScan)
	t.logger.Info("indexed query falls back to a full scan",
		slog.String("condition", cond.String()),
		slog.String("reason", reason),
	)
}

func forward(rows iter.Seq2[*record.Record, error], yield func(*record.Record, error) bool) {
	for rec, err := range rows {
		if !yield(rec, err) {
			return
		}
	}
}
