package schema

import "fmt"

type FileType uint8

const (
	DbFileIndexed    FileType = 0
	PxFile           FileType = 1
	DbFileNotIndexed FileType = 2
	XnnFileNonInc    FileType = 3
	YnnFile          FileType = 4
	XnnFileInc       FileType = 5
	XgnFileNonInc    FileType = 6
	YgnFile          FileType = 7
	XgnFileInc       FileType = 8
)

func (f FileType) String() string {
	switch f {
	case DbFileIndexed:
		return "DbFileIndexed"
	case PxFile:
		return "PxFile"
	case DbFileNotIndexed:
		return "DbFileNotIndexed"
	case XnnFileNonInc:
		return "XnnFileNonInc"
	case YnnFile:
		return "YnnFile"
	case XnnFileInc:
		return "XnnFileInc"
	case XgnFileNonInc:
		return "XgnFileNonInc"
	case YgnFile:
		return "YgnFile"
	case XgnFileInc:
		return "XgnFileInc"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(f))
	}
}

// IsTable reports whether the file is a data table (.DB) and therefore
// carries field names.
func (f FileType) IsTable() bool {
	return f == DbFileIndexed || f == DbFileNotIndexed
}

// HasExtensionHeader reports whether files of this kind carry the version 4+
// header block, provided the file version id is at least 5.
func (f FileType) HasExtensionHeader() bool {
	return f.IsTable() || f == XnnFileInc || f == XnnFileNonInc
}
