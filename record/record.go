package record

import (
	"sync"

	"github.com/dot5enko/paradox-reader/block"
)

// Record is one row of a block. Its values are decoded on first access and
// cached; later calls return the same slice.
type Record struct {
	codec *Codec
	raw   []byte

	block int
	index int

	once   sync.Once
	values []any
}

func newRecord(c *Codec, raw []byte, blockIndex, index int) *Record {
	return &Record{codec: c, raw: raw, block: blockIndex, index: index}
}

// Values returns one value per schema field. The slice is shared between
// calls and must not be modified.
func (r *Record) Values() []any {
	r.once.Do(func() {
		r.values = r.codec.Decode(r.raw)
		r.codec.opts.Metrics.RecordDecoded(r.codec.opts.Table)
	})
	return r.values
}

// Value returns field i, nil when null or out of range.
func (r *Record) Value(i int) any {
	values := r.Values()
	if i < 0 || i >= len(values) {
		return nil
	}
	return values[i]
}

// Get returns the value of the named field, matching the name ignoring case.
func (r *Record) Get(name string) (any, bool) {
	i := r.codec.schema.FieldIndex(name)
	if i < 0 {
		return nil, false
	}
	return r.Value(i), true
}

// Raw returns the undecoded record bytes. The slice aliases the block buffer
// and must not be modified.
func (r *Record) Raw() []byte {
	return r.raw
}

// Block is the 0-based index of the block holding the record.
func (r *Record) Block() int {
	return r.block
}

// Index is the position of the record inside its block.
func (r *Record) Index() int {
	return r.index
}

// Block wraps a fetched block with a cache of its records, one slot per
// record.
type Block struct {
	*block.Block

	codec *Codec

	mu      sync.Mutex
	records []*Record
}

func NewBlock(b *block.Block, c *Codec) *Block {
	return &Block{
		Block:   b,
		codec:   c,
		records: make([]*Record, b.RecordCount()),
	}
}

// Record returns record i of the block, building it once.
func (b *Block) Record(i int) *Record {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.records[i] == nil {
		b.records[i] = newRecord(b.codec, b.RecordBytes(i), b.Index, i)
	}
	return b.records[i]
}

// Len is the number of records in the block.
func (b *Block) Len() int {
	return len(b.records)
}
