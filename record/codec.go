// Package record turns the raw bytes of a Paradox record into typed values.
//
// Values are returned as:
//
//	Alpha, MemoBLOb, FmtMemoBLOb   string
//	Short                          int16
//	Long, AutoInc                  int32
//	Number, Currency               float64
//	BCD                            float64, or decimal.Decimal with Options.BCDAsDecimal
//	Date, Timestamp                time.Time (UTC)
//	Time                           time.Duration since midnight
//	Logical                        bool
//	Bytes, BLOb, OLE, Graphic      []byte
//
// A null field is a nil interface value. A binary blob that could not be
// resolved is a nil []byte.
package record

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"time"

	"golang.org/x/text/encoding"

	"github.com/dot5enko/paradox-reader/bits"
	"github.com/dot5enko/paradox-reader/blob"
	"github.com/dot5enko/paradox-reader/codepage"
	"github.com/dot5enko/paradox-reader/metrics"
	"github.com/dot5enko/paradox-reader/schema"
)

const millisPerDay = 24 * 60 * 60 * 1000

// last millisecond of year 9999
const maxTimestampMillis = 3652059*millisPerDay - 1

var (
	ErrNoBlobFile     = errors.New("table has no blob file")
	ErrNotANumber     = errors.New("value is not a finite number")
	ErrTimestampRange = errors.New("timestamp out of range")
	ErrTruncatedField = errors.New("field extends past record end")
)

// Epoch is day 1 of the calendar used by Date and Timestamp fields.
var Epoch = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)

// BlobResolver reads the out-of-record data an indirect field points at.
type BlobResolver interface {
	Resolve(field []byte, headerSize int) ([]byte, error)
}

type Options struct {
	// Charset decodes Alpha and memo text, nil meaning codepage.Default.
	Charset encoding.Encoding

	// Blobs is nil when the table has no blob file.
	Blobs BlobResolver

	BCDAsDecimal bool

	// Table labels metrics and logs.
	Table   string
	Metrics *metrics.Registry
	Logger  *slog.Logger
}

// Codec decodes records of one schema. It holds no mutable state and may be
// shared between goroutines.
type Codec struct {
	schema *schema.TableSchema
	opts   Options
	logger *slog.Logger
}

func NewCodec(s *schema.TableSchema, opts Options) *Codec {
	if opts.Charset == nil {
		opts.Charset = codepage.Default
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Codec{schema: s, opts: opts, logger: logger}
}

func (c *Codec) Schema() *schema.TableSchema {
	return c.schema
}

// Decode returns one value per schema field. It never modifies raw. Fields
// whose bytes cannot be decoded become null; Decode itself never fails.
func (c *Codec) Decode(raw []byte) []any {
	values := make([]any, len(c.schema.Fields))

	offset := 0
	for i, field := range c.schema.Fields {
		width := field.StorageSize()
		end := offset + width

		if end > len(raw) {
			c.fieldFailed(i, field, ErrTruncatedField)
			offset = end
			continue
		}

		data := raw[offset:end]
		offset = end

		// all zero bytes is null for every type, checked before any transform
		if bits.AllZero(data) {
			continue
		}

		value, err := c.decodeField(field, data)
		if err != nil {
			c.fieldFailed(i, field, err)
		}
		values[i] = value
	}

	return values
}

func (c *Codec) decodeField(field schema.FieldDescriptor, data []byte) (any, error) {

	switch field.Type {
	case schema.AlphaFieldType:
		return c.text(data), nil

	case schema.ShortFieldType:
		return bits.DecodeInt[int16](data), nil

	case schema.LongFieldType, schema.AutoIncFieldType:
		return bits.DecodeInt[int32](data), nil

	case schema.DateFieldType:
		return DateFromDays(bits.DecodeInt[int32](data)), nil

	case schema.TimeFieldType:
		return TimeFromMillis(bits.DecodeInt[int32](data)), nil

	case schema.CurrencyFieldType, schema.NumberFieldType:
		return decodeNumber(data)

	case schema.TimestampFieldType:
		ms, err := decodeNumber(data)
		if err != nil {
			return nil, err
		}
		if ms.(float64) > maxTimestampMillis {
			return nil, ErrTimestampRange
		}
		return TimestampFromMillis(ms.(float64)), nil

	case schema.BCDFieldType:
		return c.decodeBCD(data)

	case schema.LogicalFieldType:
		return int(data[0])-128 > 0, nil

	case schema.BytesFieldType:
		return bytes.Clone(data), nil

	case schema.MemoBLObFieldType, schema.FmtMemoBLObFieldType:
		payload, err := c.resolveBlob(field, data)
		if err != nil {
			return nil, err
		}
		return codepage.Decode(c.opts.Charset, payload), nil

	case schema.BLObFieldType, schema.OLEFieldType, schema.GraphicFieldType:
		payload, err := c.resolveBlob(field, data)
		if err != nil {
			return []byte(nil), err
		}
		return payload, nil

	default:
		return nil, nil
	}
}

func (c *Codec) text(data []byte) string {
	if end := bytes.IndexByte(data, 0); end >= 0 {
		data = data[:end]
	}
	return codepage.Decode(c.opts.Charset, data)
}

func decodeNumber(data []byte) (any, error) {
	f, ok := bits.DecodeFloat(data)
	if !ok {
		return nil, ErrTruncatedField
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, ErrNotANumber
	}
	return f, nil
}

func (c *Codec) decodeBCD(data []byte) (any, error) {
	d, err := bits.DecodeBCD(data, bits.BCDDataSize)
	if err != nil {
		return nil, err
	}
	if c.opts.BCDAsDecimal {
		return d, nil
	}

	f, _ := d.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, ErrNotANumber
	}
	return f, nil
}

func (c *Codec) resolveBlob(field schema.FieldDescriptor, data []byte) ([]byte, error) {
	if c.opts.Blobs == nil {
		c.opts.Metrics.RecordBlobLookup(metrics.BlobNoFile)
		return nil, ErrNoBlobFile
	}

	payload, err := c.opts.Blobs.Resolve(data, field.Type.BlobHeaderSize())
	switch {
	case err == nil:
		c.opts.Metrics.RecordBlobLookup(metrics.BlobResolved)
	case errors.Is(err, blob.ErrEmpty):
		c.opts.Metrics.RecordBlobLookup(metrics.BlobEmpty)
	default:
		c.opts.Metrics.RecordBlobLookup(metrics.BlobFailed)
	}
	return payload, err
}

func (c *Codec) fieldFailed(i int, field schema.FieldDescriptor, err error) {
	c.opts.Metrics.RecordFieldFailure(field.Type.String(), failureReason(err))

	c.logger.Debug("field decoded as null",
		slog.Int("field", i),
		slog.String("type", field.Type.String()),
		slog.String("reason", err.Error()),
	)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, bits.ErrBCDParse), errors.Is(err, bits.ErrBCDShort):
		return "bcd"
	case errors.Is(err, ErrNotANumber):
		return "nan"
	case errors.Is(err, ErrNoBlobFile):
		return "no_blob_file"
	case errors.Is(err, blob.ErrEmpty):
		return "blob_empty"
	case errors.Is(err, blob.ErrSizeMismatch):
		return "blob_size"
	case errors.Is(err, blob.ErrShortRead):
		return "blob_short"
	case errors.Is(err, ErrTimestampRange):
		return "range"
	case errors.Is(err, ErrTruncatedField):
		return "truncated"
	default:
		return "other"
	}
}

// DateFromDays maps a stored day number to a date, day 1 and anything below
// being the epoch.
func DateFromDays(days int32) time.Time {
	if days > 0 {
		days--
	}
	if days < 0 {
		days = 0
	}
	return Epoch.AddDate(0, 0, int(days))
}

// TimeFromMillis maps milliseconds since midnight to a duration, negative
// values clamped to zero.
func TimeFromMillis(ms int32) time.Duration {
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms) * time.Millisecond
}

// TimestampFromMillis maps milliseconds since the epoch to a time. Values of
// a day or more are shifted back one day to match how the format counts.
func TimestampFromMillis(ms float64) time.Time {
	if ms < 0 || math.IsNaN(ms) {
		ms = 0
	}
	if ms > maxTimestampMillis {
		ms = maxTimestampMillis
	}

	days := math.Floor(ms / millisPerDay)
	rest := math.Round(ms - days*millisPerDay)

	t := Epoch.AddDate(0, 0, int(days)).Add(time.Duration(rest) * time.Millisecond)
	if ms >= millisPerDay {
		t = t.AddDate(0, 0, -1)
	}
	return t
}
