package extsort

import (
	"github.com/dd0wney/cluso-extsort/pkg/memsort"
	"github.com/dd0wney/cluso-extsort/pkg/record"
)

// GenerateRuns reads total records from in, sorts them memElems at a time
// and writes the sorted runs back to back through out. Reads and writes
// move at most blockElems records each; the last transfer of a run may be
// shorter, including when blockElems does not divide memElems.
// It returns the number of runs written.
func GenerateRuns(in *record.File, out *record.Writer, total int64, memElems, blockElems int, sorter *memsort.Sorter) (int, error) {
	if total == 0 {
		return 0, nil
	}

	buf := make([]record.Record, min(int64(memElems), total))
	runs := 0

	for read := int64(0); read < total; {
		n := int(min(int64(memElems), total-read))

		for filled := 0; filled < n; {
			c := min(blockElems, n-filled)
			if err := in.ReadAt(read+int64(filled), buf, filled, c); err != nil {
				return runs, err
			}
			filled += c
		}

		sorter.Sort(buf[:n])

		for off := 0; off < n; {
			c := min(blockElems, n-off)
			if err := out.Write(buf[off : off+c]); err != nil {
				return runs, err
			}
			off += c
		}

		read += int64(n)
		runs++
	}

	return runs, nil
}
