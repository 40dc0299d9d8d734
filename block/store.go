package block

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/dot5enko/paradox-reader/schema"
)

var (
	ErrOutOfRange      = errors.New("block index out of range")
	ErrPayloadTooLarge = errors.New("block payload exceeds block size")
	ErrShortBlock      = errors.New("short block read")
)

// Store reads blocks of one Paradox file. It uses positional reads only, so
// several goroutines may fetch blocks from the same Store.
type Store struct {
	r      io.ReaderAt
	schema *schema.TableSchema
}

func NewStore(r io.ReaderAt, s *schema.TableSchema) *Store {
	return &Store{r: r, schema: s}
}

func (s *Store) Schema() *schema.TableSchema {
	return s.schema
}

// Len is the number of blocks in the file.
func (s *Store) Len() int {
	return int(s.schema.FileBlocks)
}

// Offset is the file position of block blockIndex.
func (s *Store) Offset(blockIndex int) int64 {
	return int64(blockIndex)*int64(s.schema.BlockSize()) + int64(s.schema.HeaderSize)
}

// Fetch reads block blockIndex, 0-based, which must lie in [0, Len()).
func (s *Store) Fetch(blockIndex int) (*Block, error) {
	offset := s.Offset(blockIndex)

	if blockIndex < 0 || blockIndex >= s.Len() {
		return nil, schema.NewFormatError(fmt.Sprintf("fetch block %d", blockIndex), offset,
			fmt.Errorf("%w: %d blocks", ErrOutOfRange, s.Len()))
	}

	var headerBytes [DiskHeaderSize]byte
	if err := s.readFull(headerBytes[:], offset); err != nil {
		return nil, schema.NewFormatError(fmt.Sprintf("read block %d header", blockIndex), offset, err)
	}

	result := &Block{Index: blockIndex, recordSize: int(s.schema.RecordSize)}
	if err := result.Header.FromBytes(bytes.NewReader(headerBytes[:])); err != nil {
		return nil, schema.NewFormatError(fmt.Sprintf("read block %d header", blockIndex), offset, err)
	}

	payloadSize := result.Header.RecordCount(result.recordSize) * result.recordSize
	if payloadSize > s.schema.BlockSize()-DiskHeaderSize {
		return nil, schema.NewFormatError(fmt.Sprintf("read block %d", blockIndex), offset,
			fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, payloadSize))
	}

	result.data = make([]byte, payloadSize)
	if err := s.readFull(result.data, offset+DiskHeaderSize); err != nil {
		return nil, schema.NewFormatError(fmt.Sprintf("read block %d records", blockIndex), offset+DiskHeaderSize, err)
	}

	return result, nil
}

func (s *Store) readFull(out []byte, offset int64) error {
	n, err := s.r.ReadAt(out, offset)
	if n == len(out) {
		return nil
	}
	if err == nil || err == io.EOF {
		return fmt.Errorf("%w: %d of %d bytes", ErrShortBlock, n, len(out))
	}
	return err
}
