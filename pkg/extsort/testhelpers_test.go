package extsort

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/dd0wney/cluso-extsort/pkg/logging"
	"github.com/dd0wney/cluso-extsort/pkg/metrics"
	"github.com/dd0wney/cluso-extsort/pkg/record"
)

func recs(vs ...int64) []record.Record {
	out := make([]record.Record, len(vs))
	for i, v := range vs {
		out[i] = record.Record(v)
	}
	return out
}

// scrambled returns n deterministic values with duplicates and negatives.
func scrambled(n int) []record.Record {
	out := make([]record.Record, n)
	for i := range out {
		out[i] = record.Record((i*7919+13)%1009 - 500)
	}
	return out
}

func writeFile(t testing.TB, dir, name string, rs []record.Record) string {
	t.Helper()
	path := filepath.Join(dir, name)
	buf := make([]byte, len(rs)*record.Width)
	record.Encode(buf, rs)
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func readFile(t testing.TB, path string) []record.Record {
	t.Helper()
	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	rs := make([]record.Record, len(buf)/record.Width)
	record.Decode(rs, buf)
	return rs
}

func sortedCopy(rs []record.Record) []record.Record {
	out := slices.Clone(rs)
	slices.Sort(out)
	return out
}

// testConfig returns a config measured in records rather than bytes.
func testConfig(t testing.TB, memElems, blockElems int) Config {
	t.Helper()
	return Config{
		MemoryBytes: int64(memElems * record.Width),
		BlockBytes:  int64(blockElems * record.Width),
		ScratchDir:  t.TempDir(),
		Workers:     1,
		Logger:      logging.NewNopLogger(),
		Metrics:     metrics.NewRegistry(),
	}
}

func newTestSorter(t testing.TB, cfg Config) *Sorter {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}
