// Package verify checks sorted record files, either for ordering alone or
// against an in-memory oracle sort of the original input.
package verify

import (
	"fmt"
	"slices"

	"golang.org/x/exp/mmap"

	"github.com/dd0wney/cluso-extsort/pkg/memsort"
	"github.com/dd0wney/cluso-extsort/pkg/record"
)

// scanBlock is the number of records decoded per mmap read.
const scanBlock = 8192

// Report is the outcome of a check. FirstIndex is -1 when nothing differed.
type Report struct {
	Records    int64
	Mismatches int64
	FirstIndex int64
	Want, Got  record.Record
	// LengthMismatch is set when the sorted file and the oracle differ in size.
	LengthMismatch bool
}

// OK reports whether the check passed.
func (r Report) OK() bool {
	return r.Mismatches == 0 && !r.LengthMismatch
}

func (r Report) String() string {
	switch {
	case r.LengthMismatch:
		return fmt.Sprintf("length mismatch: %d records", r.Records)
	case r.OK():
		return fmt.Sprintf("ok: %d records", r.Records)
	default:
		return fmt.Sprintf("%d of %d records differ; first at index %d: want %d, got %d",
			r.Mismatches, r.Records, r.FirstIndex, r.Want, r.Got)
	}
}

func (r *Report) mismatch(i int64, want, got record.Record) {
	if r.Mismatches == 0 {
		r.FirstIndex, r.Want, r.Got = i, want, got
	}
	r.Mismatches++
}

// scan calls fn for every record of the mapped file in order.
func scan(path string, fn func(i int64, rec record.Record)) (int64, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to map %s: %w", path, err)
	}
	defer reader.Close()

	n, err := record.Count(int64(reader.Len()))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}

	raw := make([]byte, scanBlock*record.Width)
	block := make([]record.Record, scanBlock)
	for off := int64(0); off < n; {
		c := int(min(scanBlock, n-off))
		if _, err := reader.ReadAt(raw[:c*record.Width], record.Bytes(off)); err != nil {
			return 0, fmt.Errorf("failed to read %s at record %d: %w", path, off, err)
		}
		record.Decode(block[:c], raw)
		for j, rec := range block[:c] {
			fn(off+int64(j), rec)
		}
		off += int64(c)
	}
	return n, nil
}

// CheckSorted verifies that path is non-decreasing. Each record smaller
// than its predecessor counts as a mismatch; Want holds the predecessor.
func CheckSorted(path string) (Report, error) {
	rep := Report{FirstIndex: -1}
	var prev record.Record
	n, err := scan(path, func(i int64, rec record.Record) {
		if i > 0 && rec < prev {
			rep.mismatch(i, prev, rec)
		}
		prev = rec
	})
	if err != nil {
		return Report{}, err
	}
	rep.Records = n
	return rep, nil
}

// AgainstOracle sorts a copy of original in memory and compares it record
// by record with sortedPath.
func AgainstOracle(original []record.Record, sortedPath string) (Report, error) {
	want := slices.Clone(original)
	memsort.Sort(want)

	rep := Report{FirstIndex: -1}
	n, err := scan(sortedPath, func(i int64, rec record.Record) {
		if i < int64(len(want)) && want[i] != rec {
			rep.mismatch(i, want[i], rec)
		}
	})
	if err != nil {
		return Report{}, err
	}
	rep.Records = n
	rep.LengthMismatch = n != int64(len(want))
	return rep, nil
}
