package io

import (
	"errors"
	stdio "io"
	"os"
)

var (
	ErrNotOpened     = errors.New("file not opened")
	ErrMmapDisabled  = errors.New("mmap is not supported on this platform")
	ErrNegativeRange = errors.New("negative offset")
)

// FileReader gives positional read-only access to a file, optionally
// through a memory mapping. It implements io.ReaderAt and is safe for
// concurrent readers since it never moves a shared file position.
type FileReader struct {
	path   string
	file   *os.File
	opened bool
	size   int64

	mapped []byte
}

var _ stdio.ReaderAt = (*FileReader)(nil)

func NewFileReader(path string) *FileReader {
	return &FileReader{path: path}
}

// Open opens the file read only. With mapped set the content is memory
// mapped where the platform allows it.
func (f *FileReader) Open(mapped bool) (topErr error) {

	f.file, topErr = os.Open(f.path)
	if topErr != nil {
		return topErr
	}

	stat, statErr := f.file.Stat()
	if statErr != nil {
		f.file.Close()
		return statErr
	}
	f.size = stat.Size()

	if mapped && f.size > 0 {
		f.mapped, topErr = mmapFile(f.file, f.size)
		if topErr != nil {
			f.file.Close()
			return topErr
		}
	}

	f.opened = true

	return nil
}

func (f *FileReader) Size() int64 {
	return f.size
}

func (f *FileReader) Mapped() bool {
	return f.mapped != nil
}

func (f *FileReader) Close() error {
	if !f.opened {
		return nil
	}
	f.opened = false

	var unmapErr error
	if f.mapped != nil {
		unmapErr = munmapFile(f.mapped)
		f.mapped = nil
	}

	return errors.Join(unmapErr, f.file.Close())
}

func (f *FileReader) ReadAt(out []byte, off int64) (int, error) {
	if !f.opened {
		return 0, ErrNotOpened
	}
	if off < 0 {
		return 0, ErrNegativeRange
	}

	if f.mapped == nil {
		return f.file.ReadAt(out, off)
	}

	if off >= int64(len(f.mapped)) {
		return 0, stdio.EOF
	}
	n := copy(out, f.mapped[off:])
	if n < len(out) {
		return n, stdio.EOF
	}
	return n, nil
}

// Section returns a reader over the whole file starting at offset 0.
func (f *FileReader) Section() *stdio.SectionReader {
	return stdio.NewSectionReader(f, 0, f.size)
}
