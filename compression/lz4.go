// Package compression wraps row exports in lz4 frames.
package compression

import (
	"io"

	"github.com/pierrec/lz4/v4"
)

// Extension is appended to the name of compressed exports.
const Extension = ".lz4"

// NewLz4Writer returns a writer producing an lz4 frame on w. Close flushes
// the frame but leaves w open.
func NewLz4Writer(w io.Writer) io.WriteCloser {
	return lz4.NewWriter(w)
}

// NewLz4Reader decompresses an lz4 frame read from r.
func NewLz4Reader(r io.Reader) io.Reader {
	return lz4.NewReader(r)
}
