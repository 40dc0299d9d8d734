package bits

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// BitWriter encodes values into a byte buffer. It is used to lay out table,
// index and blob files byte by byte (tests, fixtures, tooling).
type BitWriter struct {
	pos   int
	data  []byte
	size  int
	order binary.ByteOrder

	growingEnabled bool
}

func NewEncodeBuffer(buf []byte, order binary.ByteOrder) BitWriter {

	result := BitWriter{}

	result.data = buf
	result.pos = 0
	result.size = len(buf)
	result.order = order

	return result
}

// NewGrowingBuffer returns a writer that starts empty and grows on demand.
func NewGrowingBuffer(order binary.ByteOrder) *BitWriter {
	w := NewEncodeBuffer(make([]byte, 256), order)
	w.EnableGrowing()
	return &w
}

func (w *BitWriter) EnableGrowing() {
	w.growingEnabled = true
}

func (w BitWriter) Position() int {
	return w.pos
}

func (w *BitWriter) grow(atLeast int) {

	newSize := w.size * 2
	if w.pos+atLeast > newSize {
		newSize = w.pos + atLeast
	}

	newBuf := make([]byte, newSize)

	copy(newBuf, w.data[:w.pos])
	w.data = newBuf
	w.size = newSize
}

func (w *BitWriter) tryGrow(n int) {
	if (w.pos + n) > w.size {
		if w.growingEnabled {
			w.grow(n)
		} else {
			panic(fmt.Sprintf("bit writer growing is disabled on pos : %d, try grow %d, from size : %d", w.pos, n, w.size))
		}
	}
}

func (w *BitWriter) Write(p []byte) (n int, err error) {

	oldl := len(p)
	w.tryGrow(oldl)

	n = copy(w.data[w.pos:], p)

	if oldl != n {
		return 0, errors.New("not enough space")
	}

	w.pos += n

	return
}

// EmptyBytes writes i zero bytes.
func (w *BitWriter) EmptyBytes(i int) {
	w.tryGrow(i)
	clear(w.data[w.pos : w.pos+i])
	w.pos += i
}

// PadTo writes zero bytes until the position reaches offset.
func (w *BitWriter) PadTo(offset int) {
	if offset > w.pos {
		w.EmptyBytes(offset - w.pos)
	}
}

func (w *BitWriter) Bytes() []byte {
	return w.data[:w.pos]
}

func (w *BitWriter) WriteByte(u uint8) {
	w.tryGrow(1)
	w.data[w.pos] = u
	w.pos++
}

func (w *BitWriter) PutUint16(v uint16) {
	w.tryGrow(2)
	w.order.PutUint16(w.data[w.pos:], v)
	w.pos += 2
}

func (w *BitWriter) PutInt16(v int16) {
	w.PutUint16(uint16(v))
}

func (w *BitWriter) PutUint32(v uint32) {
	w.tryGrow(4)
	w.order.PutUint32(w.data[w.pos:], v)
	w.pos += 4
}

func (w *BitWriter) PutInt32(v int32) {
	w.PutUint32(uint32(v))
}

// PutFixedString writes s NUL padded to width bytes. s is truncated so that
// at least one NUL remains.
func (w *BitWriter) PutFixedString(s string, width int) {
	if len(s) > width-1 {
		s = s[:width-1]
	}
	w.Write([]byte(s))
	w.EmptyBytes(width - len(s))
}

// PutCString writes s followed by a NUL.
func (w *BitWriter) PutCString(s string) {
	w.Write([]byte(s))
	w.WriteByte(0)
}
