package block

// Block is one fixed-size unit of a table file: its header and the raw bytes
// of the records it holds. The buffer is owned by the block and never
// modified after the fetch.
type Block struct {
	Header DiskHeader

	// Index is the 0-based position of the block in the file.
	Index int

	recordSize int
	data       []byte
}

func (b *Block) RecordCount() int {
	if b.recordSize == 0 {
		return 0
	}
	return len(b.data) / b.recordSize
}

func (b *Block) RecordSize() int {
	return b.recordSize
}

// RecordBytes returns the raw bytes of record i. The slice aliases the block
// buffer and must not be modified.
func (b *Block) RecordBytes(i int) []byte {
	start := i * b.recordSize
	return b.data[start : start+b.recordSize : start+b.recordSize]
}

// Data returns the whole payload, for diagnostics.
func (b *Block) Data() []byte {
	return b.data
}
