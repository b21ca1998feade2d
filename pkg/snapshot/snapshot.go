// Package snapshot keeps a snappy-compressed copy of a record file so a
// sort's output can be checked against the original input afterwards.
package snapshot

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/golang/snappy"

	"github.com/dd0wney/cluso-extsort/pkg/record"
)

// Info describes a saved snapshot.
type Info struct {
	Records         int64
	RawBytes        int64
	CompressedBytes int64
}

// Ratio returns compressed size over raw size.
func (i Info) Ratio() float64 {
	if i.RawBytes == 0 {
		return 0
	}
	return float64(i.CompressedBytes) / float64(i.RawBytes)
}

// Save copies the record file src to dst as a snappy framed stream.
func Save(src, dst string) (Info, error) {
	in, err := os.Open(src)
	if err != nil {
		return Info{}, fmt.Errorf("failed to open snapshot source: %w", err)
	}
	defer in.Close()

	st, err := in.Stat()
	if err != nil {
		return Info{}, fmt.Errorf("failed to stat %s: %w", src, err)
	}
	records, err := record.Count(st.Size())
	if err != nil {
		return Info{}, fmt.Errorf("%s: %w", src, err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return Info{}, fmt.Errorf("failed to create snapshot: %w", err)
	}
	defer out.Close()

	w := snappy.NewBufferedWriter(out)
	n, err := io.Copy(w, bufio.NewReader(in))
	if err != nil {
		return Info{}, fmt.Errorf("failed to write snapshot %s: %w", dst, err)
	}
	if n != st.Size() {
		return Info{}, fmt.Errorf("snapshot of %s: copied %d of %d bytes: %w", src, n, st.Size(), record.ErrShortRead)
	}
	if err := w.Close(); err != nil {
		return Info{}, fmt.Errorf("failed to flush snapshot: %w", err)
	}
	if err := out.Sync(); err != nil {
		return Info{}, fmt.Errorf("failed to sync snapshot: %w", err)
	}

	cst, err := out.Stat()
	if err != nil {
		return Info{}, fmt.Errorf("failed to stat %s: %w", dst, err)
	}

	return Info{Records: records, RawBytes: n, CompressedBytes: cst.Size()}, nil
}

// Load decompresses a snapshot into memory.
func Load(path string) ([]record.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	raw, err := io.ReadAll(snappy.NewReader(bufio.NewReader(f)))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	n, err := record.Count(int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}

	rs := make([]record.Record, n)
	record.Decode(rs, raw)
	return rs, nil
}
