// Package memsort sorts bounded record buffers in memory.
package memsort

import "github.com/dd0wney/cluso-extsort/pkg/record"

// Sorter is a top-down merge sort that keeps its merge scratch space
// between calls. A Sorter is not safe for concurrent use.
type Sorter struct {
	aux []record.Record
}

// NewSorter creates a sorter with scratch space preallocated for n records.
func NewSorter(n int) *Sorter {
	return &Sorter{aux: make([]record.Record, 0, n)}
}

// Sort orders rs in place, non-decreasing. Equal records keep their
// relative order.
func (s *Sorter) Sort(rs []record.Record) {
	if len(rs) < 2 {
		return
	}
	if cap(s.aux) < len(rs) {
		s.aux = make([]record.Record, len(rs))
	}
	aux := s.aux[:len(rs)]
	sortRange(rs, aux)
}

// sortRange sorts rs using aux (same length) as merge scratch.
func sortRange(rs, aux []record.Record) {
	if len(rs) < 2 {
		return
	}
	mid := len(rs) / 2
	sortRange(rs[:mid], aux[:mid])
	sortRange(rs[mid:], aux[mid:])
	merge(rs, mid, aux)
}

// merge combines the sorted halves rs[:mid] and rs[mid:], taking from the
// left half on ties.
func merge(rs []record.Record, mid int, aux []record.Record) {
	if rs[mid-1] <= rs[mid] {
		return
	}
	copy(aux, rs)

	i, j, k := 0, mid, 0
	for i < mid && j < len(rs) {
		if aux[i] <= aux[j] {
			rs[k] = aux[i]
			i++
		} else {
			rs[k] = aux[j]
			j++
		}
		k++
	}
	k += copy(rs[k:], aux[i:mid])
	copy(rs[k:], aux[j:])
}

// Sort orders rs with a throwaway Sorter.
func Sort(rs []record.Record) {
	var s Sorter
	s.Sort(rs)
}
