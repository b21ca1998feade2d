package extsort

import (
	"fmt"

	"github.com/dd0wney/cluso-extsort/pkg/pools"
	"github.com/dd0wney/cluso-extsort/pkg/record"
)

// Span is a contiguous range of records: a run, a chunk or a carried tail.
type Span struct {
	Start int64
	Len   int64
}

// End returns the offset one past the last record.
func (s Span) End() int64 {
	return s.Start + s.Len
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End())
}

var blockPool = pools.NewSlicePool[record.Record]()

// runCursor walks one sorted run through a block-sized buffer.
type runCursor struct {
	next      int64 // next unread record on disk
	end       int64
	buf       []record.Record
	pos, n    int
	exhausted bool
}

func (c *runCursor) reset(s Span) {
	c.next = s.Start
	c.end = s.End()
	c.pos, c.n = 0, 0
	c.exhausted = false
}

func (c *runCursor) ready() bool {
	return c.pos < c.n
}

func (c *runCursor) head() record.Record {
	return c.buf[c.pos]
}

// refill loads the next block of the run, or marks the cursor exhausted
// when nothing is left on disk.
func (c *runCursor) refill(in *record.File) error {
	if c.next >= c.end {
		c.exhausted = true
		return nil
	}
	cnt := int(min(int64(len(c.buf)), c.end-c.next))
	if err := in.ReadAt(c.next, c.buf, 0, cnt); err != nil {
		return err
	}
	c.next += int64(cnt)
	c.pos, c.n = 0, cnt
	return nil
}

// Merger merges sorted runs of one input file through two block-sized
// read buffers and one block-sized write buffer. A Merger is not safe for
// concurrent use; create one per goroutine.
type Merger struct {
	in          *record.File
	left, right runCursor
	out         []record.Record
}

// NewMerger creates a merger reading from in with blocks of blockElems records.
// Call Release when done to return its buffers.
func NewMerger(in *record.File, blockElems int) *Merger {
	m := &Merger{in: in}
	m.left.buf = blockPool.GetSized(blockElems)
	m.right.buf = blockPool.GetSized(blockElems)
	m.out = blockPool.GetSized(blockElems)
	return m
}

// Release returns the merger's buffers to the pool.
func (m *Merger) Release() {
	blockPool.Put(m.left.buf)
	blockPool.Put(m.right.buf)
	blockPool.Put(m.out)
	m.left.buf, m.right.buf, m.out = nil, nil, nil
}

// MergeEqual merges two runs of chunkLen records each.
func (m *Merger) MergeEqual(w *record.Writer, chunkLen, firstStart, secondStart int64) error {
	return m.Merge(w, Span{Start: firstStart, Len: chunkLen}, Span{Start: secondStart, Len: chunkLen})
}

// Merge writes the sorted union of runs a and b through w. On equal
// records the one from a is emitted first.
func (m *Merger) Merge(w *record.Writer, a, b Span) error {
	l, r := &m.left, &m.right
	l.reset(a)
	r.reset(b)

	total := a.Len + b.Len
	block := len(m.out)
	var emitted int64
	k := 0

	for emitted < total {
		if !l.ready() && !l.exhausted {
			if err := l.refill(m.in); err != nil {
				return err
			}
		}
		if !r.ready() && !r.exhausted {
			if err := r.refill(m.in); err != nil {
				return err
			}
		}

		switch {
		case l.ready() && r.ready():
			for k < block && l.ready() && r.ready() {
				if r.head() < l.head() {
					m.out[k] = r.head()
					r.pos++
				} else {
					m.out[k] = l.head()
					l.pos++
				}
				k++
				emitted++
			}
		case l.ready():
			for k < block && l.ready() {
				m.out[k] = l.head()
				l.pos++
				k++
				emitted++
			}
		case r.ready():
			for k < block && r.ready() {
				m.out[k] = r.head()
				r.pos++
				k++
				emitted++
			}
		default:
			return fmt.Errorf("%w: emitted %d of %d records merging %v and %v", ErrRunCountMismatch, emitted, total, a, b)
		}

		if k == block || emitted == total {
			if err := w.Write(m.out[:k]); err != nil {
				return err
			}
			k = 0
		}
	}

	return nil
}

// Copy transfers span s verbatim through w, one block at a time.
func (m *Merger) Copy(w *record.Writer, s Span) error {
	block := int64(len(m.out))
	for off := s.Start; off < s.End(); {
		c := int(min(block, s.End()-off))
		if err := m.in.ReadAt(off, m.out, 0, c); err != nil {
			return err
		}
		if err := w.Write(m.out[:c]); err != nil {
			return err
		}
		off += int64(c)
	}
	return nil
}
