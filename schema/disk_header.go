package schema

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dot5enko/paradox-reader/bits"
)

// HeaderSizeFixed is the size of the part of the header common to all files.
const HeaderSizeFixed = 0x58

// ExtensionHeaderSize is the size of the optional version 4+ header block.
const ExtensionHeaderSize = 0x20

// *--------------------------------*  0x00
// | fixed header                   |
// *--------------------------------*  0x58
// | extension header (v4+, opt.)   |
// *--------------------------------*  0x78
// | field descriptors (type, size) |
// | table name pointer             |
// | field name pointers (.DB only) |
// | table name buffer              |
// | field names (.DB only)         |
// *--------------------------------*
// | blocks, maxTableSize * 1 KiB   |  starting at HeaderSize
// *--------------------------------*

// Header is the fixed part of every Paradox file header. Pointer fields are
// addresses from the writing process and are kept only as opaque values.
type Header struct {
	RecordSize   uint16
	HeaderSize   uint16
	FileType     FileType
	MaxTableSize uint8
	RecordCount  int32

	NextBlock  uint16
	FileBlocks uint16
	FirstBlock uint16
	LastBlock  uint16

	Unknown12x13          uint16
	ModifiedFlags1        uint8
	IndexFieldNumber      uint8
	PrimaryIndexWorkspace int32
	UnknownPtr1A          int32

	PxRootBlockID uint16
	PxLevelCount  uint8

	FieldCount       int16
	PrimaryKeyFields int16
	Encryption1      int32
	SortOrder        uint8
	ModifiedFlags2   uint8
	Unknown2Bx2C     [2]byte
	ChangeCount1     uint8
	ChangeCount2     uint8
	Unknown2F        uint8

	TableNamePtrPtr int32
	FieldInfoPtr    int32

	WriteProtected uint8
	FileVersionID  uint8
	MaxBlocks      uint16
	Unknown3C      uint8
	AuxPasswords   uint8
	Unknown3Ex3F   [2]byte

	CryptInfoStartPtr int32
	CryptInfoEndPtr   int32
	Unknown48         uint8

	AutoIncValue        int32
	Unknown4Dx4E        [2]byte
	IndexUpdateRequired uint8
	Unknown50x54        [5]byte
	RefIntegrity        uint8
	Unknown56x57        [2]byte
}

// V4Header follows the fixed header in version 4+ tables and primary/secondary
// index files.
type V4Header struct {
	FileVerID2         int16
	FileVerID3         int16
	Encryption2        int32
	FileUpdateTime     int32
	HiFieldID          uint16
	HiFieldIDInfo      uint16
	SometimesNumFields int16
	DosCodePage        uint16
	Unknown6Cx6F       [4]byte
	ChangeCount4       int16
	Unknown72x77       [6]byte
}

func (header *Header) FromBytes(reader *bits.BitsReader) error {

	header.RecordSize = reader.U16()
	header.HeaderSize = reader.U16()
	header.FileType = FileType(reader.U8())
	header.MaxTableSize = reader.U8()
	header.RecordCount = reader.I32()

	header.NextBlock = reader.U16()
	header.FileBlocks = reader.U16()
	header.FirstBlock = reader.U16()
	header.LastBlock = reader.U16()

	header.Unknown12x13 = reader.U16()
	header.ModifiedFlags1 = reader.U8()
	header.IndexFieldNumber = reader.U8()
	header.PrimaryIndexWorkspace = reader.I32()
	header.UnknownPtr1A = reader.I32()

	header.PxRootBlockID = reader.U16()
	header.PxLevelCount = reader.U8()

	header.FieldCount = reader.I16()
	header.PrimaryKeyFields = reader.I16()
	header.Encryption1 = reader.I32()
	header.SortOrder = reader.U8()
	header.ModifiedFlags2 = reader.U8()
	copy(header.Unknown2Bx2C[:], reader.Bytes(2))
	header.ChangeCount1 = reader.U8()
	header.ChangeCount2 = reader.U8()
	header.Unknown2F = reader.U8()

	header.TableNamePtrPtr = reader.I32()
	header.FieldInfoPtr = reader.I32()

	header.WriteProtected = reader.U8()
	header.FileVersionID = reader.U8()
	header.MaxBlocks = reader.U16()
	header.Unknown3C = reader.U8()
	header.AuxPasswords = reader.U8()
	copy(header.Unknown3Ex3F[:], reader.Bytes(2))

	header.CryptInfoStartPtr = reader.I32()
	header.CryptInfoEndPtr = reader.I32()
	header.Unknown48 = reader.U8()

	header.AutoIncValue = reader.I32()
	copy(header.Unknown4Dx4E[:], reader.Bytes(2))
	header.IndexUpdateRequired = reader.U8()
	copy(header.Unknown50x54[:], reader.Bytes(5))
	header.RefIntegrity = reader.U8()
	copy(header.Unknown56x57[:], reader.Bytes(2))

	if err := reader.Err(); err != nil {
		return fmt.Errorf("unable to decode table header: %w", err)
	}
	return nil
}

func (header *V4Header) FromBytes(reader *bits.BitsReader) error {

	header.FileVerID2 = reader.I16()
	header.FileVerID3 = reader.I16()
	header.Encryption2 = reader.I32()
	header.FileUpdateTime = reader.I32()
	header.HiFieldID = reader.U16()
	header.HiFieldIDInfo = reader.U16()
	header.SometimesNumFields = reader.I16()
	header.DosCodePage = reader.U16()
	copy(header.Unknown6Cx6F[:], reader.Bytes(4))
	header.ChangeCount4 = reader.I16()
	copy(header.Unknown72x77[:], reader.Bytes(6))

	if err := reader.Err(); err != nil {
		return fmt.Errorf("unable to decode extension header: %w", err)
	}
	return nil
}

// HasExtensionHeader reports whether a V4Header follows the fixed header.
func (header *Header) HasExtensionHeader() bool {
	return header.FileType.HasExtensionHeader() && header.FileVersionID >= 5
}

// TableNameSize is the width of the NUL padded table name buffer.
func (header *Header) TableNameSize() int {
	if header.FileVersionID >= 0x0C {
		return 261
	}
	return 79
}

// BlockSize is the size in bytes of one block, header included.
func (header *Header) BlockSize() int {
	return int(header.MaxTableSize) * 0x0400
}

// ReadHeader decodes only the fixed header from the start of r.
func ReadHeader(r io.Reader) (*Header, error) {
	reader := bits.NewReader(r, binary.LittleEndian)

	header := &Header{}
	if err := header.FromBytes(reader); err != nil {
		return nil, NewFormatError("read header", reader.Offset(), err)
	}
	return header, nil
}
