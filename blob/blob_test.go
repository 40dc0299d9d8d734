package blob_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dot5enko/paradox-reader/blob"
	"github.com/dot5enko/paradox-reader/internal/fixture"
)

func TestParseDescriptor(t *testing.T) {
	field := fixture.BlobField(20, 0x12300, 7, 42, 3)

	d, err := blob.ParseDescriptor(field)
	require.NoError(t, err)
	assert.Equal(t, blob.Descriptor{Index: 7, Offset: 0x12300, Size: 42, ModNumber: 3}, d)

	_, err = blob.ParseDescriptor(field[:9])
	assert.ErrorIs(t, err, blob.ErrShortField)
}

func TestResolveSingleBlob(t *testing.T) {
	mb := fixture.NewBlobFile()
	memo := []byte("a memo that lives outside the record")
	offset := mb.AddSingle(memo, 1, 9)

	f := blob.NewFile(bytes.NewReader(mb.Bytes()))

	got, err := f.Resolve(fixture.BlobField(15, offset, 0xFF, uint32(len(memo)), 1), 9)
	require.NoError(t, err)
	assert.Equal(t, memo, got)
}

func TestResolveGraphicHeader(t *testing.T) {
	mb := fixture.NewBlobFile()
	image := bytes.Repeat([]byte{0xAB, 0xCD}, 300)
	offset := mb.AddSingle(image, 1, 17)

	f := blob.NewFile(bytes.NewReader(mb.Bytes()))

	got, err := f.Resolve(fixture.BlobField(10, offset, 0xFF, uint32(len(image)), 1), 17)
	require.NoError(t, err)
	assert.Equal(t, image, got)
}

func TestResolveSuballocatedBlob(t *testing.T) {
	mb := fixture.NewBlobFile()
	payloads := [][]byte{
		[]byte("short"),
		bytes.Repeat([]byte("x"), 16),
		bytes.Repeat([]byte("yz"), 25),
	}
	offset := mb.AddSuballocated(payloads...)

	f := blob.NewFile(bytes.NewReader(mb.Bytes()))

	for i, p := range payloads {
		got, err := f.Resolve(fixture.BlobField(11, offset, uint8(i), uint32(len(p)), 1), 9)
		require.NoError(t, err, "entry %d", i)
		assert.Equal(t, p, got, "entry %d", i)
	}
}

func TestResolveEmptyDescriptor(t *testing.T) {
	f := blob.NewFile(bytes.NewReader(fixture.NewBlobFile().Bytes()))

	_, err := f.Resolve(fixture.BlobField(10, 4096, 0, 0, 0), 9)
	assert.ErrorIs(t, err, blob.ErrEmpty)
}

func TestResolveSizeMismatch(t *testing.T) {
	mb := fixture.NewBlobFile()
	single := mb.AddSingle([]byte("twelve bytes"), 1, 9)
	sub := mb.AddSuballocated([]byte("abc"))
	f := blob.NewFile(bytes.NewReader(mb.Bytes()))

	got, err := f.Resolve(fixture.BlobField(10, single, 0xFF, 13, 1), 9)
	assert.ErrorIs(t, err, blob.ErrSizeMismatch)
	assert.Nil(t, got)

	got, err = f.Resolve(fixture.BlobField(10, sub, 0, 4, 1), 9)
	assert.ErrorIs(t, err, blob.ErrSizeMismatch)
	assert.Nil(t, got)
}

func TestResolveShortRead(t *testing.T) {
	mb := fixture.NewBlobFile()
	payload := bytes.Repeat([]byte("p"), 100)
	offset := mb.AddSingle(payload, 1, 9)
	raw := mb.Bytes()

	// header intact, payload cut
	f := blob.NewFile(bytes.NewReader(raw[:int(offset)+50]))
	_, err := f.Resolve(fixture.BlobField(10, offset, 0xFF, 100, 1), 9)
	assert.ErrorIs(t, err, blob.ErrShortRead)

	// offset past the end of the file
	f = blob.NewFile(bytes.NewReader(raw))
	_, err = f.Resolve(fixture.BlobField(10, uint32(len(raw))+4096, 0xFF, 100, 1), 9)
	assert.ErrorIs(t, err, blob.ErrShortRead)
}

func TestSingleBlobSizeIsLittleEndian(t *testing.T) {
	mb := fixture.NewBlobFile()
	offset := mb.AddSingle([]byte("abc"), 1, 9)
	raw := mb.Bytes()

	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(raw[offset+3:]))
}
