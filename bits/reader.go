package bits

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

var (
	ErrEOF          = errors.New("end of file")
	ErrReadMismatch = errors.New("read size mismatch")
	ErrNoTerminator = errors.New("missing NUL terminator")
)

const MaxBinReaderBufferSize = 256

// BitsReader reads fixed-width little/big endian values from a stream.
//
// Besides the (value, error) methods it offers a sticky mode (U8, U16, I16,
// I32, Bytes, Skip, CString): after the first failure every later call
// returns a zero value and Err reports the failure. Long fixed layouts are
// decoded with the sticky calls and checked once at the end.
type BitsReader struct {
	readBuffer [MaxBinReaderBufferSize]byte

	buf   io.Reader
	order binary.ByteOrder

	consumed int64
	err      error
}

func NewReader(buf io.Reader, order binary.ByteOrder) *BitsReader {
	return &BitsReader{buf: buf, order: order}
}

// Offset is the number of bytes consumed so far.
func (r *BitsReader) Offset() int64 {
	return r.consumed
}

// Err returns the first error met in sticky mode.
func (r *BitsReader) Err() error {
	return r.err
}

func (r *BitsReader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *BitsReader) readNextBytesIntoReadBuffer(size int) error {
	readBytes, err := io.ReadFull(r.buf, r.readBuffer[:size])
	r.consumed += int64(readBytes)

	if err == io.EOF {
		return ErrEOF
	}
	if err == io.ErrUnexpectedEOF {
		return ErrReadMismatch
	}

	return err
}

func (r *BitsReader) ReadU8() (uint8, error) {
	err := r.readNextBytesIntoReadBuffer(1)

	if err != nil {
		return 0, err
	}

	return r.readBuffer[0], err
}

func (r *BitsReader) ReadU16() (uint16, error) {

	err := r.readNextBytesIntoReadBuffer(2)

	if err != nil {
		return 0, err
	}

	v := r.order.Uint16(r.readBuffer[:2])
	return v, err
}

func (r *BitsReader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

func (r *BitsReader) ReadU32() (uint32, error) {
	readErr := r.readNextBytesIntoReadBuffer(4)
	if readErr != nil {
		return 0, readErr
	}
	v := r.order.Uint32(r.readBuffer[:4])
	return v, nil
}

func (r *BitsReader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadBytes fills out[:n].
func (r *BitsReader) ReadBytes(n int, out []byte) error {

	readBytes, err := io.ReadFull(r.buf, out[:n])
	r.consumed += int64(readBytes)

	if readBytes != n {
		return ErrReadMismatch
	}

	return err
}

// sticky mode

func (r *BitsReader) U8() uint8 {
	if r.err != nil {
		return 0
	}
	v, err := r.ReadU8()
	r.fail(err)
	return v
}

func (r *BitsReader) U16() uint16 {
	if r.err != nil {
		return 0
	}
	v, err := r.ReadU16()
	r.fail(err)
	return v
}

func (r *BitsReader) I16() int16 {
	return int16(r.U16())
}

func (r *BitsReader) I32() int32 {
	if r.err != nil {
		return 0
	}
	v, err := r.ReadI32()
	r.fail(err)
	return v
}

// Bytes returns a freshly allocated slice of the next n bytes.
func (r *BitsReader) Bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	out := make([]byte, n)
	if err := r.ReadBytes(n, out); err != nil {
		r.fail(err)
		return nil
	}
	return out
}

func (r *BitsReader) Skip(n int) {
	if r.err != nil {
		return
	}
	copied, err := io.CopyN(io.Discard, r.buf, int64(n))
	r.consumed += copied
	if err != nil {
		r.fail(ErrReadMismatch)
	}
}

// CString reads bytes up to and excluding the next NUL. The NUL is consumed.
func (r *BitsReader) CString() []byte {
	var out []byte
	for r.err == nil {
		b := r.U8()
		if r.err != nil {
			if errors.Is(r.err, ErrEOF) {
				r.err = ErrNoTerminator
			}
			return nil
		}
		if b == 0 {
			return out
		}
		out = append(out, b)
	}
	return nil
}

// FixedCString returns the bytes before the first NUL of a fixed width buffer.
func FixedCString(buf []byte) ([]byte, error) {
	end := bytes.IndexByte(buf, 0)
	if end < 0 {
		return nil, ErrNoTerminator
	}
	return buf[:end], nil
}
