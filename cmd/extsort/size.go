package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/dd0wney/cluso-extsort/pkg/extsort"
)

// parseMiB converts a whole number of MiB into bytes.
func parseMiB(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid size %q: must be positive", s)
	}
	if n > (1<<63-1)/extsort.MiB {
		return 0, fmt.Errorf("invalid size %q: too large", s)
	}
	return n * extsort.MiB, nil
}

// sizeFromName reads a size in MiB from the digits of a file name,
// so "input_256.bin" means 256 MiB. Digits are concatenated in order.
func sizeFromName(path string) (int64, bool) {
	var digits strings.Builder
	for _, ch := range filepath.Base(path) {
		if unicode.IsDigit(ch) {
			digits.WriteRune(ch)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	n, err := parseMiB(digits.String())
	if err != nil {
		return 0, false
	}
	return n, true
}
