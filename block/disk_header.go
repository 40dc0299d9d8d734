package block

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dot5enko/paradox-reader/bits"
)

const DiskHeaderSize = 6

// DiskHeader precedes the records of every block.
type DiskHeader struct {
	NextBlock   uint16
	BlockNumber uint16

	// AddDataSize is the byte offset of the last record in the block,
	// negative for a block without records.
	AddDataSize int16
}

func (header *DiskHeader) FromBytes(input io.Reader) error {

	reader := bits.NewReader(input, binary.LittleEndian)

	header.NextBlock = reader.U16()
	header.BlockNumber = reader.U16()
	header.AddDataSize = reader.I16()

	if err := reader.Err(); err != nil {
		return fmt.Errorf("unable to decode block header: %w", err)
	}
	return nil
}

// RecordCount derives the number of records from AddDataSize.
func (header *DiskHeader) RecordCount(recordSize int) int {
	count := int(header.AddDataSize)/recordSize + 1
	if count < 0 {
		return 0
	}
	return count
}
