package extsort

import "fmt"

// StepKind says how a step fills its range of the output slot.
type StepKind int

const (
	// StepMerge merges A and B, which are adjacent, into A.Start.
	StepMerge StepKind = iota
	// StepCopy copies A verbatim to A.Start.
	StepCopy
)

func (k StepKind) String() string {
	switch k {
	case StepMerge:
		return "merge"
	case StepCopy:
		return "copy"
	default:
		return "unknown"
	}
}

// Step is one unit of work in a pass. Its output occupies the same record
// range in the output slot as its inputs do in the input slot, so the
// steps of a pass write disjoint ranges.
type Step struct {
	Kind StepKind
	A, B Span
}

// Equal reports whether a merge step can use the equal-length form.
func (s Step) Equal() bool {
	return s.Kind == StepMerge && s.A.Len == s.B.Len
}

// Out returns the range the step writes.
func (s Step) Out() Span {
	return Span{Start: s.A.Start, Len: s.A.Len + s.B.Len}
}

func (s Step) String() string {
	if s.Kind == StepCopy {
		return fmt.Sprintf("copy %v", s.A)
	}
	return fmt.Sprintf("merge %v+%v", s.A, s.B)
}

// PassPlan describes one size-doubling merge pass.
type PassPlan struct {
	Pass     int
	ChunkLen int64
	// Active is the length of the region still being merged pairwise
	// when the pass starts. Records past it form the carried tail.
	Active int64
	// Carried is the active length after the pass.
	Carried int64
	Steps   []Step
}

// Plan is the complete schedule of a sort: the run layout written by the
// partition phase, every merge pass and the optional final merge. The
// orchestrator executes it and tests inspect it.
type Plan struct {
	Total    int64
	MemElems int64
	Runs     int
	Passes   []PassPlan
	// Final merges the fully merged active region with the carried tail.
	// Nil when nothing was carried.
	Final *Step
}

// NewPlan computes the schedule for total records with a memory budget of
// memElems records.
//
// Each pass merges adjacent chunk pairs of the active region. When the
// chunk count is odd the last chunk joins the carried tail instead: it is
// copied if there is no tail yet, or merged with the tail so the tail stays
// a single sorted run. Passes continue while the active region holds more
// than one chunk, which takes floor(log2(runs)) passes.
func NewPlan(total, memElems int64) Plan {
	p := Plan{Total: total, MemElems: memElems}
	if total == 0 || memElems <= 0 {
		return p
	}
	p.Runs = int(ceilDiv(total, memElems))

	active := total
	for pass := 0; ; pass++ {
		chunk := memElems << pass
		count := ceilDiv(active, chunk)
		if count <= 1 {
			break
		}

		pp := PassPlan{Pass: pass, ChunkLen: chunk, Active: active}
		for k := int64(0); 2*k+1 < count; k++ {
			first := 2 * k * chunk
			second := first + chunk
			pp.Steps = append(pp.Steps, Step{
				Kind: StepMerge,
				A:    Span{Start: first, Len: chunk},
				B:    Span{Start: second, Len: min(chunk, active-second)},
			})
		}

		tail := Span{Start: active, Len: total - active}
		if count%2 == 1 {
			start := (count - 1) * chunk
			odd := Span{Start: start, Len: active - start}
			if tail.Len > 0 {
				pp.Steps = append(pp.Steps, Step{Kind: StepMerge, A: odd, B: tail})
			} else {
				pp.Steps = append(pp.Steps, Step{Kind: StepCopy, A: odd})
			}
			active = start
		} else if tail.Len > 0 {
			pp.Steps = append(pp.Steps, Step{Kind: StepCopy, A: tail})
		}

		pp.Carried = active
		p.Passes = append(p.Passes, pp)
	}

	if active < total {
		p.Final = &Step{
			Kind: StepMerge,
			A:    Span{Start: 0, Len: active},
			B:    Span{Start: active, Len: total - active},
		}
	}
	return p
}

// Writes returns how many times the data set is written: once by the
// partition phase, once per pass and once more for a final merge.
func (p Plan) Writes() int {
	if p.Total == 0 {
		return 1
	}
	n := 1 + len(p.Passes)
	if p.Final != nil {
		n++
	}
	return n
}

// PartitionSlot returns the slot (0 = output, 1 = scratch) that must
// receive the partition output so the last write lands in slot 0.
func (p Plan) PartitionSlot() int {
	return (p.Writes() - 1) % 2
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
