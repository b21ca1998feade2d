// Package record implements positioned block I/O over flat files of
// fixed-width integer records.
//
// A record file is a dense, headerless array of Records in native byte
// order. Offsets and counts at this package's API are always expressed in
// records, never bytes.
package record

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Record is a single sort element.
type Record int64

// Width is the on-disk size of a Record in bytes.
const Width = 8

// Min and Max bound the Record range. Both are ordinary data: nothing in
// this module reserves a value to mark the end of a run.
const (
	Min = Record(math.MinInt64)
	Max = Record(math.MaxInt64)
)

// Count converts a byte length into a record count. Lengths that are not
// a multiple of Width are rejected rather than truncated.
func Count(byteLen int64) (int64, error) {
	if byteLen < 0 || byteLen%Width != 0 {
		return 0, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrMisaligned, byteLen, Width)
	}
	return byteLen / Width, nil
}

// Bytes returns the byte length of n records.
func Bytes(n int64) int64 {
	return n * Width
}

// Encode writes src into dst in native byte order. dst must hold at least
// len(src)*Width bytes.
func Encode(dst []byte, src []Record) {
	for i, r := range src {
		binary.NativeEndian.PutUint64(dst[i*Width:], uint64(r))
	}
}

// Decode fills dst from src. src must hold at least len(dst)*Width bytes.
func Decode(dst []Record, src []byte) {
	for i := range dst {
		dst[i] = Record(binary.NativeEndian.Uint64(src[i*Width:]))
	}
}
