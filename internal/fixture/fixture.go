// Package fixture lays out Paradox table, index and blob files in memory so
// tests can exercise the decoder without checked-in binaries.
package fixture

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/dot5enko/paradox-reader/bits"
	"github.com/dot5enko/paradox-reader/schema"
)

const defaultHeaderSize = 0x0800

type Field struct {
	Name string
	Type schema.FieldType
	Size uint8
}

// Table describes a file to generate. Zero values pick sensible defaults:
// a version 4 indexed table with 1 KiB blocks.
type Table struct {
	FileType     schema.FileType
	Version      uint8
	MaxTableSize uint8
	Name         string
	Fields       []Field

	PrimaryKeyFields int16
	LevelCount       uint8
	RootBlock        uint16
	Encryption       int32
	CodePage         uint16

	// RecordSize overrides the size computed from Fields.
	RecordSize uint16

	// Blocks holds the raw records of each block. A nil block is written as
	// an empty (free) block.
	Blocks [][][]byte
}

func (t Table) recordSize() uint16 {
	if t.RecordSize != 0 {
		return t.RecordSize
	}
	total := 0
	for _, f := range t.Fields {
		total += schema.FieldDescriptor{Type: f.Type, Size: f.Size}.StorageSize()
	}
	if t.FileType == schema.PxFile {
		total += 6
	}
	return uint16(total)
}

func (t Table) recordCount() int32 {
	total := 0
	for _, b := range t.Blocks {
		total += len(b)
	}
	return int32(total)
}

// Header returns the header bytes, padded to the header size.
func (t Table) Header() []byte {
	version := t.Version
	if version == 0 {
		version = 4
	}
	maxTableSize := t.MaxTableSize
	if maxTableSize == 0 {
		maxTableSize = 1
	}

	w := bits.NewGrowingBuffer(binary.LittleEndian)

	w.PutUint16(t.recordSize())
	w.PutUint16(defaultHeaderSize)
	w.WriteByte(uint8(t.FileType))
	w.WriteByte(maxTableSize)
	w.PutInt32(t.recordCount())
	w.PutUint16(uint16(len(t.Blocks) + 1)) // next block
	w.PutUint16(uint16(len(t.Blocks)))     // file blocks
	w.PutUint16(1)                         // first block
	w.PutUint16(uint16(len(t.Blocks)))     // last block
	w.PadTo(0x1E)
	w.PutUint16(t.RootBlock)
	w.WriteByte(t.LevelCount)
	w.PutInt16(int16(len(t.Fields)))
	w.PutInt16(t.PrimaryKeyFields)
	w.PutInt32(t.Encryption)
	w.PadTo(0x30)
	w.PutInt32(0x1234) // table name pointer pointer, opaque
	w.PutInt32(0x5678) // field info pointer, opaque
	w.WriteByte(0)     // write protected
	w.WriteByte(version)
	w.PadTo(schema.HeaderSizeFixed)

	if t.FileType.HasExtensionHeader() && version >= 5 {
		w.PutInt16(int16(version))
		w.PutInt16(int16(version))
		w.PutInt32(0)
		w.PutInt32(0)
		w.PutUint16(uint16(len(t.Fields)))
		w.PutUint16(0)
		w.PutInt16(int16(len(t.Fields)))
		w.PutUint16(t.CodePage)
		w.EmptyBytes(4)
		w.PutInt16(0)
		w.EmptyBytes(6)
	}

	for _, f := range t.Fields {
		w.WriteByte(uint8(f.Type))
		w.WriteByte(f.Size)
	}

	w.PutInt32(0x0BAD) // table name pointer, opaque
	if t.FileType.IsTable() {
		for range t.Fields {
			w.PutInt32(0)
		}
	}

	nameSize := 79
	if version >= 0x0C {
		nameSize = 261
	}
	w.PutFixedString(t.Name, nameSize)

	if t.FileType.IsTable() {
		for _, f := range t.Fields {
			w.PutCString(f.Name)
		}
	}

	w.PadTo(defaultHeaderSize)
	return w.Bytes()
}

// Bytes returns the complete file.
func (t Table) Bytes() []byte {
	maxTableSize := t.MaxTableSize
	if maxTableSize == 0 {
		maxTableSize = 1
	}
	blockSize := int(maxTableSize) * 1024
	recordSize := int(t.recordSize())

	w := bits.NewGrowingBuffer(binary.LittleEndian)
	w.Write(t.Header())

	for i, records := range t.Blocks {
		start := w.Position()

		w.PutUint16(uint16(i + 2)) // next block
		w.PutUint16(uint16(i + 1)) // block number
		w.PutInt16(int16((len(records) - 1) * recordSize))

		for _, rec := range records {
			w.Write(rec)
			w.EmptyBytes(recordSize - len(rec))
		}
		w.PadTo(start + blockSize)
	}

	return w.Bytes()
}

// WriteFile writes the table into dir and returns the path.
func (t Table) WriteFile(tb testing.TB, dir, fileName string) string {
	tb.Helper()
	return WriteFile(tb, dir, fileName, t.Bytes())
}

func WriteFile(tb testing.TB, dir, fileName string, content []byte) string {
	tb.Helper()
	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		tb.Fatalf("unable to write fixture %s: %v", path, err)
	}
	return path
}

// Record concatenates encoded field values.
func Record(fields ...[]byte) []byte {
	var out []byte
	for _, f := range fields {
		out = append(out, f...)
	}
	return out
}

// Alpha encodes s as a NUL padded field of width bytes.
func Alpha(s string, width int) []byte {
	out := make([]byte, width)
	copy(out, s)
	return out
}

func Short(v int16) []byte {
	return bits.EncodeInt(v, 2)
}

func Long(v int32) []byte {
	return bits.EncodeInt(v, 4)
}

func Number(v float64) []byte {
	return bits.EncodeFloat(v)
}

// Logical encodes true as 129 and false as 128.
func Logical(v bool) []byte {
	if v {
		return []byte{129}
	}
	return []byte{128}
}

// Null returns an all zero field of width bytes.
func Null(width int) []byte {
	return make([]byte, width)
}
