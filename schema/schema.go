package schema

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"

	"github.com/dot5enko/paradox-reader/bits"
	"github.com/dot5enko/paradox-reader/codepage"
)

// pxSyntheticFields is the number of 2 byte integers that trail the key
// fields of every primary index record.
const pxSyntheticFields = 3

var (
	ErrNegativeFieldCount = errors.New("negative field count")
	ErrEmptyRecord        = errors.New("record size is zero")
	ErrEmptyBlock         = errors.New("block size unit is zero")
	ErrRecordOverflow     = errors.New("fields exceed record size")
)

// TableSchema is everything the header of a Paradox file says about its
// layout. It is built once when the file is opened and never changes.
type TableSchema struct {
	Header

	// V4 is nil unless the file carries the extension header.
	V4 *V4Header

	Fields     []FieldDescriptor
	FieldNames []string
	TableName  string

	TableNamePtr  int32
	FieldNamePtrs []int32
}

// Decode parses a Paradox header from the start of r. Text is decoded with
// enc, nil meaning codepage.Default.
func Decode(r io.Reader, enc encoding.Encoding) (*TableSchema, error) {

	reader := bits.NewReader(r, binary.LittleEndian)
	result := &TableSchema{}

	if err := result.Header.FromBytes(reader); err != nil {
		return nil, NewFormatError("read header", reader.Offset(), err)
	}

	if result.HasExtensionHeader() {
		result.V4 = &V4Header{}
		if err := result.V4.FromBytes(reader); err != nil {
			return nil, NewFormatError("read extension header", reader.Offset(), err)
		}
	}

	if result.Header.FieldCount < 0 {
		return nil, NewFormatError("read field descriptors", reader.Offset(), ErrNegativeFieldCount)
	}

	result.Fields = make([]FieldDescriptor, 0, int(result.Header.FieldCount)+pxSyntheticFields)
	for i := 0; i < int(result.Header.FieldCount); i++ {
		result.Fields = append(result.Fields, FieldDescriptor{
			Type: FieldType(reader.U8()),
			Size: reader.U8(),
		})
	}
	if err := reader.Err(); err != nil {
		return nil, NewFormatError("read field descriptors", reader.Offset(), err)
	}

	if result.FileType == PxFile {
		result.Header.FieldCount += pxSyntheticFields
		for i := 0; i < pxSyntheticFields; i++ {
			result.Fields = append(result.Fields, FieldDescriptor{Type: ShortFieldType, Size: 2})
		}
	}

	result.TableNamePtr = reader.I32()
	if result.FileType.IsTable() {
		result.FieldNamePtrs = make([]int32, result.Header.FieldCount)
		for i := range result.FieldNamePtrs {
			result.FieldNamePtrs[i] = reader.I32()
		}
	}

	nameBuffer := reader.Bytes(result.TableNameSize())
	if err := reader.Err(); err != nil {
		return nil, NewFormatError("read table name", reader.Offset(), err)
	}
	tableName, nameErr := bits.FixedCString(nameBuffer)
	if nameErr != nil {
		return nil, NewFormatError("read table name", reader.Offset(), nameErr)
	}
	result.TableName = codepage.Decode(enc, tableName)

	if result.FileType.IsTable() {
		result.FieldNames = make([]string, result.Header.FieldCount)
		for i := range result.FieldNames {
			name := reader.CString()
			if err := reader.Err(); err != nil {
				return nil, NewFormatError(fmt.Sprintf("read field name %d", i), reader.Offset(), err)
			}
			result.FieldNames[i] = codepage.Decode(enc, name)
		}
	}

	if err := result.validate(); err != nil {
		return nil, NewFormatError("validate schema", reader.Offset(), err)
	}

	return result, nil
}

func (s *TableSchema) validate() error {
	if s.RecordSize == 0 {
		return ErrEmptyRecord
	}
	if s.MaxTableSize == 0 {
		return ErrEmptyBlock
	}
	if used := s.RecordStorageSize(); used > int(s.RecordSize) {
		return fmt.Errorf("%w: %d > %d", ErrRecordOverflow, used, s.RecordSize)
	}
	return nil
}

// RecordStorageSize sums the storage widths of all fields.
func (s *TableSchema) RecordStorageSize() int {
	total := 0
	for _, f := range s.Fields {
		total += f.StorageSize()
	}
	return total
}

// FieldIndex finds a field by name, ignoring case. It returns -1 when the
// field is unknown or the file has no field names.
func (s *TableSchema) FieldIndex(name string) int {
	for i, n := range s.FieldNames {
		if strings.EqualFold(n, name) {
			return i
		}
	}
	return -1
}

// CodePage returns the code page recorded in the extension header, if any.
func (s *TableSchema) CodePage() (uint16, bool) {
	if s.V4 == nil || s.V4.DosCodePage == 0 {
		return 0, false
	}
	return s.V4.DosCodePage, true
}

// Encrypted reports whether the table declares an encryption key. Values of
// encrypted tables are not decrypted.
func (s *TableSchema) Encrypted() bool {
	return s.Encryption1 != 0 || (s.V4 != nil && s.V4.Encryption2 != 0)
}
