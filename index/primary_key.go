package index

import (
	"errors"
	"fmt"
	stdio "io"
	"iter"
	"log/slog"
	"math"
	"slices"
	"strings"

	"golang.org/x/text/encoding"

	"github.com/dot5enko/paradox-reader/block"
	pio "github.com/dot5enko/paradox-reader/io"
	"github.com/dot5enko/paradox-reader/record"
	"github.com/dot5enko/paradox-reader/schema"
)

// pxTrailerFields are the block number, record count and an opaque value
// that follow the key fields of every index record.
const pxTrailerFields = 3

var (
	ErrUnsupportedDepth = errors.New("index depth not supported")
	ErrNotIndexFile     = errors.New("not a primary index file")
)

// Locator points at a data block that may hold matching records.
type Locator struct {
	// Block is the 0-based data block index.
	Block int
}

type Options struct {
	Charset encoding.Encoding
	Mmap    bool
	Logger  *slog.Logger
}

// entry is one leaf record: the first key of a data block.
type entry struct {
	key   any
	block int
}

// PrimaryKey is the primary index of a table. Only single level indexes,
// whose records point straight at data blocks, can be enumerated; deeper
// ones report ErrUnsupportedDepth.
type PrimaryKey struct {
	schema   *schema.TableSchema
	keyField string
	entries  []entry

	file   *pio.FileReader
	logger *slog.Logger
}

// Open reads the index at path. keyField is the name of the first key field
// in the data table, the index file itself carrying no field names.
func Open(path, keyField string, opts Options) (*PrimaryKey, error) {
	file := pio.NewFileReader(path)
	if err := file.Open(opts.Mmap); err != nil {
		return nil, fmt.Errorf("unable to open index %s: %w", path, err)
	}

	pk, err := New(file, keyField, opts)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("unable to read index %s: %w", path, err)
	}
	pk.file = file
	return pk, nil
}

// New reads an index from r.
func New(r stdio.ReaderAt, keyField string, opts Options) (*PrimaryKey, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s, err := schema.Decode(stdio.NewSectionReader(r, 0, math.MaxInt64), opts.Charset)
	if err != nil {
		return nil, err
	}
	if s.FileType != schema.PxFile {
		return nil, fmt.Errorf("%w: file type %s", ErrNotIndexFile, s.FileType)
	}

	pk := &PrimaryKey{
		schema:   s,
		keyField: keyField,
		logger:   logger,
	}

	if pk.Depth() > 1 {
		logger.Debug("index has several levels, only direct block pointers are read",
			slog.Int("levels", pk.Depth()))
		return pk, nil
	}

	if err := pk.load(block.NewStore(r, s), opts.Charset); err != nil {
		return nil, err
	}
	return pk, nil
}

func (p *PrimaryKey) load(store *block.Store, charset encoding.Encoding) error {
	codec := record.NewCodec(p.schema, record.Options{Charset: charset, Logger: p.logger})
	blockField := len(p.schema.Fields) - pxTrailerFields

	for i := 0; i < store.Len(); i++ {
		b, err := store.Fetch(i)
		if err != nil {
			return err
		}

		for r := 0; r < b.RecordCount(); r++ {
			values := codec.Decode(b.RecordBytes(r))

			blockNumber, ok := values[blockField].(int16)
			if !ok || blockNumber < 1 {
				return schema.NewFormatError("read index entry", store.Offset(i),
					fmt.Errorf("invalid data block number %v", values[blockField]))
			}

			p.entries = append(p.entries, entry{key: values[0], block: int(blockNumber) - 1})
		}
	}

	slices.SortStableFunc(p.entries, func(a, b entry) int {
		order, _ := CompareValues(a.key, b.key)
		return order
	})

	return nil
}

func (p *PrimaryKey) Schema() *schema.TableSchema {
	return p.schema
}

// Depth is the number of index levels.
func (p *PrimaryKey) Depth() int {
	return int(p.schema.PxLevelCount)
}

// KeyField is the data table field the index orders by.
func (p *PrimaryKey) KeyField() string {
	return p.keyField
}

// Len is the number of data blocks the index points at.
func (p *PrimaryKey) Len() int {
	return len(p.entries)
}

// Enumerate yields, in key order, the data blocks whose key range may
// satisfy cond. Only comparisons on the first key field narrow the result;
// callers still have to test every record of a yielded block.
func (p *PrimaryKey) Enumerate(cond Condition) iter.Seq2[Locator, error] {
	return func(yield func(Locator, error) bool) {
		if p.Depth() > 1 {
			yield(Locator{}, fmt.Errorf("%w: %d levels", ErrUnsupportedDepth, p.Depth()))
			return
		}

		seen := make(map[int]struct{}, len(p.entries))
		for i, e := range p.entries {
			var upper any
			if i+1 < len(p.entries) {
				upper = p.entries[i+1].key
			}

			if !p.admits(cond, e.key, upper) {
				continue
			}
			if _, dup := seen[e.block]; dup {
				continue
			}
			seen[e.block] = struct{}{}

			if !yield(Locator{Block: e.block}, nil) {
				return
			}
		}
	}
}

// admits reports whether a block holding keys in [lower, upper] can satisfy
// cond. A nil upper bound is unbounded.
func (p *PrimaryKey) admits(cond Condition, lower, upper any) bool {
	switch c := cond.(type) {
	case LogicalAnd:
		return p.admits(c.Left, lower, upper) && p.admits(c.Right, lower, upper)

	case Compare:
		if !p.isKeyField(c.Field) {
			return true
		}
		return keyRangeAdmits(c.Op, c.Value, lower, upper)

	default:
		return true
	}
}

func (p *PrimaryKey) isKeyField(name string) bool {
	return strings.EqualFold(name, p.keyField)
}

func keyRangeAdmits(op Operator, value, lower, upper any) bool {
	lowerOrder, lowerOk := CompareValues(lower, value)
	upperOrder, upperOk := CompareValues(upper, value)

	switch op {
	case Equal:
		return (!lowerOk || lowerOrder <= 0) && (!upperOk || upperOrder >= 0)
	case Less:
		return !lowerOk || lowerOrder < 0
	case LessOrEqual:
		return !lowerOk || lowerOrder <= 0
	case Greater:
		return upper == nil || !upperOk || upperOrder > 0
	case GreaterOrEqual:
		return upper == nil || !upperOk || upperOrder >= 0
	default:
		return true
	}
}

func (p *PrimaryKey) Close() error {
	if p.file == nil {
		return nil
	}
	return p.file.Close()
}
