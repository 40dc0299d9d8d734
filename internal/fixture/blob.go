package fixture

import (
	"encoding/binary"

	"github.com/dot5enko/paradox-reader/bits"
)

const blobBlockSize = 4096

// BlobFile builds a companion .MB file block by block. Every entry starts at
// a 4 KiB boundary so its offset survives the low byte being used as index.
type BlobFile struct {
	w *bits.BitWriter
}

func NewBlobFile() *BlobFile {
	f := &BlobFile{w: bits.NewGrowingBuffer(binary.LittleEndian)}
	// block 0 is the blob file header
	f.w.EmptyBytes(blobBlockSize)
	return f
}

// AddSingle appends a type 2 block holding one blob and returns its offset.
// headerSize is 9, or 17 for graphic fields.
func (f *BlobFile) AddSingle(payload []byte, modNumber uint16, headerSize int) uint32 {
	offset := f.w.Position()

	f.w.WriteByte(2)
	f.w.PutUint16(uint16((headerSize + len(payload) + blobBlockSize - 1) / blobBlockSize))
	f.w.PutUint32(uint32(len(payload)))
	f.w.PutUint16(modNumber)
	f.w.EmptyBytes(headerSize - 9)
	f.w.Write(payload)

	f.padBlock(offset)
	return uint32(offset)
}

// AddSuballocated appends a type 3 block holding several small blobs, each
// reachable through its pointer table index. It returns the block offset.
func (f *BlobFile) AddSuballocated(payloads ...[]byte) uint32 {
	offset := f.w.Position()

	f.w.WriteByte(3)
	f.w.PutUint16(1)
	f.w.EmptyBytes(9)

	// pointer table: 5 bytes per entry, data in 16 byte paragraphs after it
	dataStart := 12 + 64*5
	paragraph := (dataStart + 15) / 16
	for _, p := range payloads {
		paragraphs := (len(p) + 15) / 16
		f.w.WriteByte(uint8(paragraph))
		f.w.WriteByte(uint8(paragraphs))
		f.w.PutUint16(1)
		f.w.WriteByte(uint8(len(p) - (paragraphs-1)*16))
		paragraph += paragraphs
	}

	f.w.PadTo(offset + ((dataStart+15)/16)*16)
	for _, p := range payloads {
		start := f.w.Position()
		f.w.Write(p)
		f.w.PadTo(start + ((len(p)+15)/16)*16)
	}

	f.padBlock(offset)
	return uint32(offset)
}

func (f *BlobFile) padBlock(offset int) {
	end := f.w.Position()
	size := ((end - offset + blobBlockSize - 1) / blobBlockSize) * blobBlockSize
	f.w.PadTo(offset + size)
}

func (f *BlobFile) Bytes() []byte {
	return f.w.Bytes()
}

// BlobField builds an in-record blob field of width bytes: an optional
// leader followed by the 10 byte descriptor.
func BlobField(width int, offset uint32, index uint8, size uint32, modNumber uint16) []byte {
	out := make([]byte, width)
	trailer := out[width-10:]
	binary.LittleEndian.PutUint32(trailer, offset&0xFFFFFF00|uint32(index))
	binary.LittleEndian.PutUint32(trailer[4:], size)
	binary.LittleEndian.PutUint16(trailer[8:], modNumber)
	return out
}
