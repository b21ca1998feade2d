package record

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestFile(t *testing.T, records ...Record) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.bin")
	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer f.Close()
	if err := f.WriteAt(0, records); err != nil {
		t.Fatalf("WriteAt() error = %v", err)
	}
	return path
}

func TestFile_ReadAt(t *testing.T) {
	path := newTestFile(t, 10, 20, 30, 40, 50, 60)

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	dst := make([]Record, 5)
	if err := f.ReadAt(2, dst, 1, 3); err != nil {
		t.Fatalf("ReadAt() error = %v", err)
	}

	want := []Record{0, 30, 40, 50, 0}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("dst[%d] = %d, want %d", i, dst[i], want[i])
		}
	}

	stats := f.Stats()
	if stats.Reads != 1 || stats.BytesRead != 3*Width {
		t.Errorf("Stats() = %+v, want 1 read of %d bytes", stats, 3*Width)
	}
}

func TestFile_ReadAtShort(t *testing.T) {
	path := newTestFile(t, 1, 2, 3)

	f, err := OpenReadOnly(path)
	if err != nil {
		t.Fatalf("OpenReadOnly() error = %v", err)
	}
	defer f.Close()

	dst := make([]Record, 4)
	err = f.ReadAt(1, dst, 0, 4)
	if !errors.Is(err, ErrShortRead) {
		t.Fatalf("ReadAt() past EOF error = %v, want ErrShortRead", err)
	}
	if !IsShortIO(err) {
		t.Error("IsShortIO() = false for short read")
	}

	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("error %T is not *IOError", err)
	}
	if ioErr.Want != 4*Width || ioErr.Got != 2*Width || ioErr.Offset != 1 {
		t.Errorf("IOError = %+v, want offset 1, want %d bytes, got %d", ioErr, 4*Width, 2*Width)
	}
}

func TestFile_ReadAtOutOfBounds(t *testing.T) {
	path := newTestFile(t, 1, 2, 3)

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	dst := make([]Record, 2)
	if err := f.ReadAt(0, dst, 1, 2); err == nil {
		t.Error("ReadAt() into too small buffer succeeded")
	}
}

func TestFile_CreateTruncates(t *testing.T) {
	path := newTestFile(t, 1, 2, 3, 4)

	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer f.Close()

	n, err := f.Len()
	if err != nil {
		t.Fatalf("Len() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Len() after Create = %d, want 0", n)
	}
}

func TestFile_OpenPreserves(t *testing.T) {
	path := newTestFile(t, 1, 2, 3, 4)

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	n, err := f.Len()
	if err != nil {
		t.Fatalf("Len() error = %v", err)
	}
	if n != 4 {
		t.Errorf("Len() after Open = %d, want 4", n)
	}
}

func TestFile_OpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.bin"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open() missing file error = %v, want ErrNotExist", err)
	}
}

func TestFile_LenMisaligned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odd.bin")
	if err := os.WriteFile(path, make([]byte, 19), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	if _, err := f.Len(); !errors.Is(err, ErrMisaligned) {
		t.Errorf("Len() error = %v, want ErrMisaligned", err)
	}
}

func TestFile_WriteReadOnly(t *testing.T) {
	path := newTestFile(t, 1)

	f, err := OpenReadOnly(path)
	if err != nil {
		t.Fatalf("OpenReadOnly() error = %v", err)
	}
	defer f.Close()

	if err := f.WriteAt(0, []Record{7}); !errors.Is(err, ErrShortWrite) {
		t.Errorf("WriteAt() on read-only file error = %v, want ErrShortWrite", err)
	}
}

func TestFile_Closed(t *testing.T) {
	path := newTestFile(t, 1)

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("second Close() error = %v, want nil", err)
	}

	if err := f.ReadAt(0, make([]Record, 1), 0, 1); !errors.Is(err, ErrClosed) {
		t.Errorf("ReadAt() after Close error = %v, want ErrClosed", err)
	}
	if err := f.WriteAt(0, []Record{1}); !errors.Is(err, ErrClosed) {
		t.Errorf("WriteAt() after Close error = %v, want ErrClosed", err)
	}
}

func TestWriter_Sequential(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seq.bin")
	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer f.Close()

	w := f.Writer(2)
	if err := w.Write([]Record{5, 6}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Write([]Record{7}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if w.Pos() != 5 {
		t.Errorf("Pos() = %d, want 5", w.Pos())
	}

	got := make([]Record, 5)
	if err := f.ReadAt(0, got, 0, 5); err != nil {
		t.Fatalf("ReadAt() error = %v", err)
	}
	want := []Record{0, 0, 5, 6, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestFile_Dump(t *testing.T) {
	path := newTestFile(t, 3, -1, 9)

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Dump(&buf, 0, 3); err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "3, -1, 9") {
		t.Errorf("Dump() = %q, want records listed", out)
	}
	if !strings.Contains(out, "ending at: 3") {
		t.Errorf("Dump() = %q, want block bounds", out)
	}
}
