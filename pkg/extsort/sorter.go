// Package extsort sorts record files larger than memory with a two-phase
// external merge sort.
//
// The partition phase cuts the input into memory-sized runs, sorts each in
// memory and writes them back to back. Merge passes then combine adjacent
// runs pairwise through block-sized buffers, doubling the run length each
// pass and alternating between the output file and one scratch file. An
// odd run left over by a pass is carried at the end of the file and merged
// back in once the rest has become a single run.
package extsort

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-extsort/pkg/logging"
	"github.com/dd0wney/cluso-extsort/pkg/memsort"
	"github.com/dd0wney/cluso-extsort/pkg/metrics"
	"github.com/dd0wney/cluso-extsort/pkg/parallel"
	"github.com/dd0wney/cluso-extsort/pkg/record"
	"github.com/dd0wney/cluso-extsort/pkg/snapshot"
	"github.com/dd0wney/cluso-extsort/pkg/verify"
)

// Result summarizes a finished sort.
type Result struct {
	Records    int64
	Runs       int
	Passes     int
	FinalMerge bool
	Duration   time.Duration
	IO         record.Stats
	// Verification is set when Config.Verify is on.
	Verification *verify.Report
}

// Sorter sorts record files according to its Config.
type Sorter struct {
	cfg     Config
	logger  logging.Logger
	metrics *metrics.Registry
}

// New validates cfg and returns a Sorter.
func New(cfg Config) (*Sorter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Sorter{
		cfg:     cfg,
		logger:  cfg.logger().With(logging.Component("extsort")),
		metrics: cfg.metrics(),
	}, nil
}

// session holds the per-invocation scratch names.
type session struct {
	id       string
	scratch  string
	snapshot string
}

func (s *Sorter) newSession() session {
	id := uuid.NewString()
	dir := s.cfg.scratchDir()
	return session{
		id:       id,
		scratch:  filepath.Join(dir, "extsort-"+id+".scratch"),
		snapshot: filepath.Join(dir, "extsort-"+id+".snapshot"),
	}
}

func (s *Sorter) cleanup(paths ...string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove scratch file", logging.Path(p), logging.Error(err))
		}
	}
}

// Sort writes the sorted contents of inputPath to outputPath using the
// two-phase external sort. The input is never modified. outputPath is
// created or truncated.
func (s *Sorter) Sort(inputPath, outputPath string) (res *Result, err error) {
	start := time.Now()
	sess := s.newSession()
	logger := s.logger.With(logging.String("session", sess.id))
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			logger.Error("external sort failed", logging.Error(err))
		}
		var n int64
		if res != nil {
			n = res.Records
		}
		s.metrics.RecordSort("external", status, time.Since(start), n)
	}()
	defer s.cleanup(sess.scratch, sess.snapshot)

	if err := checkDistinct(inputPath, outputPath); err != nil {
		return nil, err
	}

	in, err := record.OpenReadOnly(inputPath)
	if err != nil {
		return nil, NewError("open").Path(inputPath).Cause(err).Err()
	}
	defer in.Close()

	total, err := s.checkLength(in)
	if err != nil {
		return nil, err
	}

	var original []record.Record
	if s.cfg.Verify {
		if original, err = s.takeSnapshot(inputPath, sess.snapshot, logger); err != nil {
			return nil, err
		}
	}

	plan := NewPlan(total, int64(s.cfg.MemElems()))
	slots := [2]string{outputPath, sess.scratch}
	logger.Info("external sort started",
		logging.Path(inputPath),
		logging.Records(total),
		logging.Runs(plan.Runs),
		logging.Int("passes", len(plan.Passes)),
		logging.Bool("final_merge", plan.Final != nil),
		logging.Int64("memory_bytes", s.cfg.MemoryBytes),
		logging.Int64("block_bytes", s.cfg.BlockBytes),
	)

	partSlot := plan.PartitionSlot()
	partStats, err := s.partition(in, slots[partSlot], total, plan.Runs, logger)
	if err != nil {
		return nil, err
	}

	o := &orchestrator{
		plan:       plan,
		slots:      slots,
		active:     partSlot,
		blockElems: s.cfg.BlockElems(),
		logger:     logger,
		metrics:    s.metrics,
	}
	if s.cfg.Workers > 1 && len(plan.Passes) > 0 {
		pool, err := parallel.NewWorkerPool(s.cfg.Workers)
		if err != nil {
			return nil, NewError("start workers").Cause(err).Err()
		}
		defer pool.Close()
		o.pool = pool
	}
	if err := o.run(); err != nil {
		return nil, err
	}
	if o.active != 0 {
		// The plan guarantees the last write lands in the output slot.
		return nil, NewError("finish").Path(outputPath).Cause(fmt.Errorf("result left in scratch slot")).Err()
	}

	res = &Result{
		Records:    total,
		Runs:       plan.Runs,
		Passes:     len(plan.Passes),
		FinalMerge: plan.Final != nil,
		IO:         addStats(addStats(partStats, o.stats), in.Stats()),
	}
	s.metrics.RecordIO(res.IO.Reads, res.IO.Writes, res.IO.BytesRead, res.IO.BytesWritten)

	if s.cfg.Verify {
		rep, err := verify.AgainstOracle(original, outputPath)
		if err != nil {
			return nil, NewError("verify").Path(outputPath).Cause(err).Err()
		}
		res.Verification = &rep
		if !rep.OK() {
			return res, NewError("verify").Path(outputPath).Cause(fmt.Errorf("output does not match input: %s", rep)).Err()
		}
	}

	res.Duration = time.Since(start)
	logger.Info("external sort complete",
		logging.Records(total),
		logging.Latency(res.Duration),
		logging.Bytes(res.IO.BytesWritten),
	)
	return res, nil
}

// partition writes the sorted runs of in into path.
func (s *Sorter) partition(in *record.File, path string, total int64, wantRuns int, logger logging.Logger) (record.Stats, error) {
	timer := logging.StartTimer(logger, "partition complete", logging.Phase("partition"))

	out, err := record.Create(path)
	if err != nil {
		timer.EndError(err)
		return record.Stats{}, NewError("create").Phase("partition").Path(path).Cause(err).Err()
	}
	defer out.Close()

	sorter := memsort.NewSorter(int(min(int64(s.cfg.MemElems()), total)))
	runs, err := GenerateRuns(in, out.Writer(0), total, s.cfg.MemElems(), s.cfg.BlockElems(), sorter)
	if err != nil {
		timer.EndError(err)
		return record.Stats{}, NewError("partition").Phase("partition").Path(path).Cause(err).Err()
	}
	if runs != wantRuns {
		err := fmt.Errorf("%w: wrote %d runs, planned %d", ErrRunCountMismatch, runs, wantRuns)
		timer.EndError(err)
		return record.Stats{}, NewError("partition").Phase("partition").Path(path).Cause(err).Err()
	}
	if err := out.Close(); err != nil {
		return record.Stats{}, NewError("close").Phase("partition").Path(path).Cause(err).Err()
	}

	s.metrics.RecordRuns(runs)
	s.metrics.RecordPhase("partition", timer.End(logging.Runs(runs), logging.Path(path)))
	return out.Stats(), nil
}

// SortInternal sorts inputPath entirely in memory and writes the result to
// outputPath. MemoryBytes does not bound it.
func (s *Sorter) SortInternal(inputPath, outputPath string) (res *Result, err error) {
	start := time.Now()
	sess := s.newSession()
	logger := s.logger.With(logging.String("session", sess.id))
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			logger.Error("internal sort failed", logging.Error(err))
		}
		var n int64
		if res != nil {
			n = res.Records
		}
		s.metrics.RecordSort("internal", status, time.Since(start), n)
	}()
	defer s.cleanup(sess.snapshot)

	if err := checkDistinct(inputPath, outputPath); err != nil {
		return nil, err
	}

	in, err := record.OpenReadOnly(inputPath)
	if err != nil {
		return nil, NewError("open").Path(inputPath).Cause(err).Err()
	}
	defer in.Close()

	total, err := s.checkLength(in)
	if err != nil {
		return nil, err
	}

	var original []record.Record
	if s.cfg.Verify {
		if original, err = s.takeSnapshot(inputPath, sess.snapshot, logger); err != nil {
			return nil, err
		}
	}

	rs := make([]record.Record, total)
	if err := in.ReadAt(0, rs, 0, int(total)); err != nil {
		return nil, NewError("read").Path(inputPath).Cause(err).Err()
	}

	timer := logging.StartTimer(logger, "in-memory sort complete", logging.Records(total))
	memsort.Sort(rs)
	elapsed := timer.End()

	out, err := record.Create(outputPath)
	if err != nil {
		return nil, NewError("create").Path(outputPath).Cause(err).Err()
	}
	defer out.Close()
	if err := out.WriteAt(0, rs); err != nil {
		return nil, NewError("write").Path(outputPath).Cause(err).Err()
	}
	if err := out.Close(); err != nil {
		return nil, NewError("close").Path(outputPath).Cause(err).Err()
	}

	res = &Result{
		Records:  total,
		Duration: elapsed,
		IO:       addStats(in.Stats(), out.Stats()),
	}
	if total > 0 {
		res.Runs = 1
	}
	s.metrics.RecordIO(res.IO.Reads, res.IO.Writes, res.IO.BytesRead, res.IO.BytesWritten)

	if s.cfg.Verify {
		rep, err := verify.AgainstOracle(original, outputPath)
		if err != nil {
			return nil, NewError("verify").Path(outputPath).Cause(err).Err()
		}
		res.Verification = &rep
		if !rep.OK() {
			return res, NewError("verify").Path(outputPath).Cause(fmt.Errorf("output does not match input: %s", rep)).Err()
		}
	}
	return res, nil
}

// checkLength returns the record count of in, rejecting misaligned files
// and files that disagree with Config.ExpectedBytes.
func (s *Sorter) checkLength(in *record.File) (int64, error) {
	total, err := in.Len()
	if err != nil {
		return 0, NewError("size").Path(in.Path()).Cause(err).Err()
	}
	if s.cfg.ExpectedBytes > 0 && record.Bytes(total) != s.cfg.ExpectedBytes {
		return 0, NewError("size").Path(in.Path()).
			Cause(fmt.Errorf("%w: file has %d bytes, expected %d", ErrSizeMismatch, record.Bytes(total), s.cfg.ExpectedBytes)).Err()
	}
	return total, nil
}

func (s *Sorter) takeSnapshot(inputPath, path string, logger logging.Logger) ([]record.Record, error) {
	info, err := snapshot.Save(inputPath, path)
	if err != nil {
		return nil, NewError("snapshot").Path(path).Cause(err).Err()
	}
	logger.Debug("input snapshot saved",
		logging.Path(path),
		logging.Bytes(info.CompressedBytes),
		logging.Any("ratio", info.Ratio()),
	)

	original, err := snapshot.Load(path)
	if err != nil {
		return nil, NewError("snapshot").Path(path).Cause(err).Err()
	}
	return original, nil
}

// checkDistinct rejects an output path that names the input file.
func checkDistinct(inputPath, outputPath string) error {
	inAbs, err := filepath.Abs(inputPath)
	if err != nil {
		return NewError("validate").Path(inputPath).Cause(err).Err()
	}
	outAbs, err := filepath.Abs(outputPath)
	if err != nil {
		return NewError("validate").Path(outputPath).Cause(err).Err()
	}
	if inAbs == outAbs {
		return NewError("validate").Path(outputPath).Cause(fmt.Errorf("%w: %w", ErrInvalidConfig, ErrSamePath)).Err()
	}

	inInfo, err := os.Stat(inputPath)
	if err != nil {
		return nil // reported by open with the right op
	}
	if outInfo, err := os.Stat(outputPath); err == nil && os.SameFile(inInfo, outInfo) {
		return NewError("validate").Path(outputPath).Cause(fmt.Errorf("%w: %w", ErrInvalidConfig, ErrSamePath)).Err()
	}
	return nil
}
