// Package blob resolves the out-of-record data of memo, binary, formatted
// memo, OLE and graphic fields from the companion .MB file.
package blob

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// DescriptorSize is the size of the trailer each blob field ends with.
const DescriptorSize = 10

const (
	suballocatedBlockType = 3

	probeSize          = 3
	pointerTableOffset = 12
	pointerEntrySize   = 5
	paragraphSize      = 16
)

var (
	ErrEmpty        = errors.New("blob has no data")
	ErrSizeMismatch = errors.New("blob size does not match descriptor")
	ErrShortRead    = errors.New("short blob read")
	ErrShortField   = errors.New("field too small for blob descriptor")
)

// Descriptor locates a blob inside the .MB file.
type Descriptor struct {
	// Index selects the pointer table entry of a suballocated block.
	Index uint8
	// Offset of the blob block, always a multiple of 256.
	Offset    uint32
	Size      uint32
	ModNumber uint16
}

// ParseDescriptor reads the descriptor from the last 10 bytes of field.
func ParseDescriptor(field []byte) (Descriptor, error) {
	if len(field) < DescriptorSize {
		return Descriptor{}, fmt.Errorf("%w: %d bytes", ErrShortField, len(field))
	}

	trailer := field[len(field)-DescriptorSize:]
	location := binary.LittleEndian.Uint32(trailer)

	return Descriptor{
		Index:     uint8(location & 0xFF),
		Offset:    location & 0xFFFFFF00,
		Size:      binary.LittleEndian.Uint32(trailer[4:]),
		ModNumber: binary.LittleEndian.Uint16(trailer[8:]),
	}, nil
}

// File reads blobs from an open .MB file.
type File struct {
	r io.ReaderAt
}

func NewFile(r io.ReaderAt) *File {
	return &File{r: r}
}

// Resolve returns the data referenced by the descriptor at the end of field.
// headerSize is the size of a single-blob header, 9 or 17 for graphic fields.
func (f *File) Resolve(field []byte, headerSize int) ([]byte, error) {
	d, err := ParseDescriptor(field)
	if err != nil {
		return nil, err
	}
	return f.Read(d, headerSize)
}

// Read returns the data of d. A descriptor with size 0 yields ErrEmpty; a
// descriptor that disagrees with the block it points at yields
// ErrSizeMismatch.
func (f *File) Read(d Descriptor, headerSize int) ([]byte, error) {
	if d.Size == 0 {
		return nil, ErrEmpty
	}

	offset := int64(d.Offset)

	probe := make([]byte, probeSize)
	if err := f.readFull(probe, offset); err != nil {
		return nil, err
	}

	// every block type other than 3 carries its size inline
	if probe[0] == suballocatedBlockType {
		return f.readSuballocated(d, offset)
	}
	return f.readSingle(d, offset, headerSize)
}

func (f *File) readSingle(d Descriptor, offset int64, headerSize int) ([]byte, error) {
	if headerSize < probeSize+4 {
		return nil, fmt.Errorf("invalid blob header size %d", headerSize)
	}

	rest := make([]byte, headerSize-probeSize)
	if err := f.readFull(rest, offset+probeSize); err != nil {
		return nil, err
	}

	if stored := binary.LittleEndian.Uint32(rest); stored != d.Size {
		return nil, fmt.Errorf("%w: block holds %d bytes, descriptor %d", ErrSizeMismatch, stored, d.Size)
	}

	data := make([]byte, d.Size)
	if err := f.readFull(data, offset+int64(headerSize)); err != nil {
		return nil, err
	}
	return data, nil
}

func (f *File) readSuballocated(d Descriptor, offset int64) ([]byte, error) {
	header := make([]byte, pointerTableOffset-probeSize)
	if err := f.readFull(header, offset+probeSize); err != nil {
		return nil, err
	}

	entry := make([]byte, pointerEntrySize)
	if err := f.readFull(entry, offset+pointerTableOffset+int64(d.Index)*pointerEntrySize); err != nil {
		return nil, err
	}

	// entry: start paragraph, paragraph count, modification number (2),
	// bytes used in the last paragraph
	stored := (uint32(entry[1])-1)*paragraphSize + uint32(entry[4])
	if stored != d.Size {
		return nil, fmt.Errorf("%w: entry %d holds %d bytes, descriptor %d", ErrSizeMismatch, d.Index, stored, d.Size)
	}

	data := make([]byte, d.Size)
	if err := f.readFull(data, offset+int64(entry[0])*paragraphSize); err != nil {
		return nil, err
	}
	return data, nil
}

func (f *File) readFull(out []byte, offset int64) error {
	n, err := f.r.ReadAt(out, offset)
	if n == len(out) {
		return nil
	}
	if err == nil || err == io.EOF {
		return fmt.Errorf("%w: %d of %d bytes at offset %d", ErrShortRead, n, len(out), offset)
	}
	return err
}
