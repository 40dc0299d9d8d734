package schema

import "fmt"

type FieldType uint8

const (
	AlphaFieldType       FieldType = 0x01
	DateFieldType        FieldType = 0x02
	ShortFieldType       FieldType = 0x03
	LongFieldType        FieldType = 0x04
	CurrencyFieldType    FieldType = 0x05
	NumberFieldType      FieldType = 0x06
	LogicalFieldType     FieldType = 0x09
	MemoBLObFieldType    FieldType = 0x0C
	BLObFieldType        FieldType = 0x0D
	FmtMemoBLObFieldType FieldType = 0x0E
	OLEFieldType         FieldType = 0x0F
	GraphicFieldType     FieldType = 0x10
	TimeFieldType        FieldType = 0x14
	TimestampFieldType   FieldType = 0x15
	AutoIncFieldType     FieldType = 0x16
	BCDFieldType         FieldType = 0x17
	BytesFieldType       FieldType = 0x18
)

// BCDStorageSize is the on-disk width of every BCD field. The descriptor
// size of a BCD field holds its fractional digit count instead.
const BCDStorageSize = 17

func (f FieldType) String() string {
	switch f {
	case AlphaFieldType:
		return "Alpha"
	case DateFieldType:
		return "Date"
	case ShortFieldType:
		return "Short"
	case LongFieldType:
		return "Long"
	case CurrencyFieldType:
		return "Currency"
	case NumberFieldType:
		return "Number"
	case LogicalFieldType:
		return "Logical"
	case MemoBLObFieldType:
		return "MemoBLOb"
	case BLObFieldType:
		return "BLOb"
	case FmtMemoBLObFieldType:
		return "FmtMemoBLOb"
	case OLEFieldType:
		return "OLE"
	case GraphicFieldType:
		return "Graphic"
	case TimeFieldType:
		return "Time"
	case TimestampFieldType:
		return "Timestamp"
	case AutoIncFieldType:
		return "AutoInc"
	case BCDFieldType:
		return "BCD"
	case BytesFieldType:
		return "Bytes"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", uint8(f))
	}
}

// IsBlob reports whether values of this type live in the companion blob file.
func (f FieldType) IsBlob() bool {
	switch f {
	case MemoBLObFieldType, BLObFieldType, FmtMemoBLObFieldType, OLEFieldType, GraphicFieldType:
		return true
	default:
		return false
	}
}

// BlobHeaderSize is the size of the blob file header preceding the payload.
func (f FieldType) BlobHeaderSize() int {
	if f == GraphicFieldType {
		return 17
	}
	return 9
}

type FieldDescriptor struct {
	Type FieldType
	Size uint8
}

// StorageSize is the number of record bytes the field occupies.
func (d FieldDescriptor) StorageSize() int {
	if d.Type == BCDFieldType {
		return BCDStorageSize
	}
	return int(d.Size)
}

// Decimals is the fractional digit count of a BCD field, 0 otherwise.
func (d FieldDescriptor) Decimals() int {
	if d.Type == BCDFieldType {
		return int(d.Size)
	}
	return 0
}
