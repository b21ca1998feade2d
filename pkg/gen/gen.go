// Package gen writes record files of uniformly random values for sort
// benchmarks and tests.
package gen

import (
	"fmt"
	"math/rand/v2"

	"github.com/dd0wney/cluso-extsort/pkg/record"
)

// chunk is the number of records generated per write.
const chunk = 1 << 16

// Generate creates path holding sizeBytes of random records drawn from the
// full int64 range and returns the record count. The same seed always
// produces the same file.
func Generate(path string, sizeBytes int64, seed uint64) (int64, error) {
	n, err := record.Count(sizeBytes)
	if err != nil {
		return 0, err
	}

	f, err := record.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	buf := make([]record.Record, min(chunk, n))
	w := f.Writer(0)

	for left := n; left > 0; {
		c := int(min(chunk, left))
		for i := range buf[:c] {
			buf[i] = record.Record(rng.Uint64())
		}
		if err := w.Write(buf[:c]); err != nil {
			return w.Pos(), fmt.Errorf("failed to generate %s: %w", path, err)
		}
		left -= int64(c)
	}

	if err := f.Sync(); err != nil {
		return n, fmt.Errorf("failed to sync %s: %w", path, err)
	}
	return n, nil
}
