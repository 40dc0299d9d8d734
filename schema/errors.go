package schema

import (
	"errors"
	"fmt"
)

// ErrFormat matches every FormatError with errors.Is.
var ErrFormat = errors.New("paradox: format error")

// FormatError reports a file that is truncated or structurally invalid.
// Legacy files are static, so it is never worth retrying the operation.
type FormatError struct {
	Op     string
	Offset int64
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("paradox: %s at offset %d: %s", e.Op, e.Offset, e.Err.Error())
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func NewFormatError(op string, offset int64, err error) *FormatError {
	return &FormatError{Op: op, Offset: offset, Err: err}
}
