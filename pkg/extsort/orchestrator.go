package extsort

import (
	"fmt"

	"github.com/dd0wney/cluso-extsort/pkg/logging"
	"github.com/dd0wney/cluso-extsort/pkg/metrics"
	"github.com/dd0wney/cluso-extsort/pkg/parallel"
	"github.com/dd0wney/cluso-extsort/pkg/record"
)

// orchestrator runs the merge passes of a Plan over two file slots.
// Slot 0 is the caller's output path and slot 1 the scratch file. Before
// every pass the input slot holds all live data in its first Total records.
type orchestrator struct {
	plan       Plan
	slots      [2]string
	active     int // slot holding the current data
	blockElems int
	pool       *parallel.WorkerPool // nil runs steps inline
	logger     logging.Logger
	metrics    *metrics.Registry
	stats      record.Stats
}

// run executes every pass and the final merge. The partition output must
// already be in slots[plan.PartitionSlot()].
func (o *orchestrator) run() error {
	for _, pp := range o.plan.Passes {
		timer := logging.StartTimer(o.logger, "merge pass complete",
			logging.Phase("merge"), logging.Pass(pp.Pass))

		if err := o.runSteps("merge", pp.Pass, pp.Steps); err != nil {
			timer.EndError(err)
			return err
		}

		o.metrics.RecordPhase("merge", timer.End(
			logging.Int64("chunk_len", pp.ChunkLen),
			logging.Int("steps", len(pp.Steps)),
			logging.Int64("carried_from", pp.Carried),
		))
	}

	if o.plan.Final == nil {
		return nil
	}

	timer := logging.StartTimer(o.logger, "final merge complete", logging.Phase("final"))
	if err := o.runSteps("final", -1, []Step{*o.plan.Final}); err != nil {
		timer.EndError(err)
		return err
	}
	o.metrics.RecordPhase("final", timer.End(
		logging.Int64("active", o.plan.Final.A.Len),
		logging.Int64("tail", o.plan.Final.B.Len),
	))
	return nil
}

// runSteps reads from the active slot, writes every step into the other
// slot (truncated first) and then flips the active flag.
func (o *orchestrator) runSteps(phase string, pass int, steps []Step) (err error) {
	inPath, outPath := o.slots[o.active], o.slots[1-o.active]

	in, err := record.Open(inPath)
	if err != nil {
		return NewError("open").Phase(phase).Pass(pass).Path(inPath).Cause(err).Err()
	}
	defer func() {
		o.addStats(in)
		_ = in.Close()
	}()

	out, err := record.Create(outPath)
	if err != nil {
		return NewError("create").Phase(phase).Pass(pass).Path(outPath).Cause(err).Err()
	}
	defer func() {
		o.addStats(out)
		if cerr := out.Close(); cerr != nil && err == nil {
			err = NewError("close").Phase(phase).Pass(pass).Path(outPath).Cause(cerr).Err()
		}
	}()

	if o.pool == nil || len(steps) < 2 {
		for _, step := range steps {
			if err := o.execStep(in, out, step); err != nil {
				return NewError(step.Kind.String()).Phase(phase).Pass(pass).Path(outPath).Cause(err).Err()
			}
		}
	} else {
		for _, step := range steps {
			if err := o.pool.Submit(func() error { return o.execStep(in, out, step) }); err != nil {
				return NewError("submit").Phase(phase).Pass(pass).Cause(err).Err()
			}
		}
		if err := o.pool.Wait(); err != nil {
			return NewError("merge").Phase(phase).Pass(pass).Path(outPath).Cause(err).Err()
		}
	}

	o.active = 1 - o.active
	return nil
}

func (o *orchestrator) execStep(in, out *record.File, step Step) error {
	m := NewMerger(in, o.blockElems)
	defer m.Release()

	w := out.Writer(step.A.Start)
	var err error
	switch {
	case step.Kind == StepCopy:
		err = m.Copy(w, step.A)
		o.metrics.RecordMerge(metrics.FormCopy)
	case step.Equal():
		err = m.MergeEqual(w, step.A.Len, step.A.Start, step.B.Start)
		o.metrics.RecordMerge(metrics.FormEqual)
	default:
		err = m.Merge(w, step.A, step.B)
		o.metrics.RecordMerge(metrics.FormUnequal)
	}
	if err != nil {
		return err
	}

	if got, want := w.Pos()-step.A.Start, step.Out().Len; got != want {
		return fmt.Errorf("%w: %s wrote %d records, want %d", ErrRunCountMismatch, step, got, want)
	}
	o.logger.Debug("step done", logging.Operation(step.String()))
	return nil
}

func (o *orchestrator) addStats(f *record.File) {
	o.stats = addStats(o.stats, f.Stats())
}

func addStats(a, b record.Stats) record.Stats {
	return record.Stats{
		Reads:        a.Reads + b.Reads,
		Writes:       a.Writes + b.Writes,
		BytesRead:    a.BytesRead + b.BytesRead,
		BytesWritten: a.BytesWritten + b.BytesWritten,
	}
}
