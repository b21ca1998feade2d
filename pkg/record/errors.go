package record

import (
	"errors"
	"fmt"
)

var (
	ErrMisaligned = errors.New("length is not a multiple of the record width")
	ErrShortRead  = errors.New("short read")
	ErrShortWrite = errors.New("short write")
	ErrClosed     = errors.New("file is closed")
)

// IOError describes a failed or partial transfer.
type IOError struct {
	Op     string // "read" or "write"
	Path   string
	Offset int64 // record offset of the transfer
	Want   int   // bytes requested
	Got    int   // bytes transferred
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s at record %d: %v (want %d bytes, got %d)", e.Op, e.Path, e.Offset, e.Err, e.Want, e.Got)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsShortIO reports whether err is a short read or short write.
func IsShortIO(err error) bool {
	return errors.Is(err, ErrShortRead) || errors.Is(err, ErrShortWrite)
}
