// Package export writes table rows as JSON lines, one object per record with
// keys in field order.
package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dot5enko/paradox-reader/compression"
	"github.com/dot5enko/paradox-reader/record"
	"github.com/dot5enko/paradox-reader/table"
)

const Extension = ".jsonl"

// Writer encodes records of one table. It must be closed to flush buffered
// rows and terminate the lz4 frame.
type Writer struct {
	fields []string

	buf        *bufio.Writer
	compressor io.WriteCloser
	line       bytes.Buffer

	count int
}

// NewWriter writes rows with the given field names to w, lz4 compressed
// when compressed is set.
func NewWriter(w io.Writer, fields []string, compressed bool) *Writer {
	result := &Writer{fields: fields}

	if compressed {
		result.compressor = compression.NewLz4Writer(w)
		w = result.compressor
	}
	result.buf = bufio.NewWriter(w)

	return result
}

// FileName is the export file name for a table.
func FileName(tableName string, compressed bool) string {
	name := tableName + Extension
	if compressed {
		name += compression.Extension
	}
	return name
}

func (w *Writer) Write(rec *record.Record) error {
	w.line.Reset()
	w.line.WriteByte('{')

	for i, name := range w.fields {
		if i > 0 {
			w.line.WriteByte(',')
		}

		key, err := json.Marshal(name)
		if err != nil {
			return err
		}
		w.line.Write(key)
		w.line.WriteByte(':')

		value, err := json.Marshal(jsonValue(rec.Value(i)))
		if err != nil {
			return fmt.Errorf("unable to encode field %s: %w", name, err)
		}
		w.line.Write(value)
	}

	w.line.WriteString("}\n")

	if _, err := w.buf.Write(w.line.Bytes()); err != nil {
		return err
	}
	w.count++
	return nil
}

// Count is the number of rows written.
func (w *Writer) Count() int {
	return w.count
}

func (w *Writer) Close() error {
	flushErr := w.buf.Flush()
	if w.compressor == nil {
		return flushErr
	}
	return errors.Join(flushErr, w.compressor.Close())
}

func jsonValue(v any) any {
	switch value := v.(type) {
	case time.Time:
		return value.Format(time.RFC3339Nano)
	case time.Duration:
		return ClockString(value)
	default:
		return v
	}
}

// ClockString formats a time of day as hh:mm:ss.mmm.
func ClockString(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d.%03d", ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

// Table writes up to limit rows of tbl to w, every row when limit <= 0. It
// returns the number of rows written.
func Table(tbl *table.Table, w io.Writer, compressed bool, limit int) (int, error) {
	writer := NewWriter(w, tbl.FieldNames(), compressed)

	for rec, err := range tbl.Rows(nil) {
		if err != nil {
			writer.Close()
			return writer.Count(), err
		}
		if err := writer.Write(rec); err != nil {
			writer.Close()
			return writer.Count(), err
		}
		if limit > 0 && writer.Count() >= limit {
			break
		}
	}

	return writer.Count(), writer.Close()
}
