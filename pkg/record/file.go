package record

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/dd0wney/cluso-extsort/pkg/pools"
)

// Stats counts transfers made through a File.
type Stats struct {
	Reads        int64
	Writes       int64
	BytesRead    int64
	BytesWritten int64
}

// File is a seekable record file. ReadAt and WriteAt may be called from
// multiple goroutines as long as their write ranges do not overlap.
type File struct {
	f    *os.File
	path string

	reads        atomic.Int64
	writes       atomic.Int64
	bytesRead    atomic.Int64
	bytesWritten atomic.Int64
}

// Create opens path for reading and writing, creating it if needed and
// truncating it to empty.
func Create(path string) (*File, error) {
	return openFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC)
}

// Open opens an existing file for reading and writing, preserving its
// contents.
func Open(path string) (*File, error) {
	return openFile(path, os.O_RDWR)
}

// OpenReadOnly opens an existing file that must not be modified.
func OpenReadOnly(path string) (*File, error) {
	return openFile(path, os.O_RDONLY)
}

func openFile(path string, flag int) (*File, error) {
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s is not seekable: %w", path, err)
	}
	return &File{f: f, path: path}, nil
}

// Path returns the path the file was opened with.
func (f *File) Path() string {
	return f.path
}

// Len returns the number of records in the file.
func (f *File) Len() (int64, error) {
	if f.f == nil {
		return 0, ErrClosed
	}
	info, err := f.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", f.path, err)
	}
	n, err := Count(info.Size())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", f.path, err)
	}
	return n, nil
}

// ReadAt copies count records starting at record fileOffset into
// dst[bufOffset:bufOffset+count]. Fewer records than requested is an error.
func (f *File) ReadAt(fileOffset int64, dst []Record, bufOffset, count int) error {
	if f.f == nil {
		return ErrClosed
	}
	if count == 0 {
		return nil
	}
	if fileOffset < 0 || bufOffset < 0 || count < 0 || bufOffset+count > len(dst) {
		return fmt.Errorf("read %s: range [%d,%d) out of bounds for buffer of %d records", f.path, bufOffset, bufOffset+count, len(dst))
	}

	buf := pools.GetBytesSized(count * Width)
	defer pools.PutBytes(buf)

	n, err := f.f.ReadAt(buf, Bytes(fileOffset))
	f.reads.Add(1)
	f.bytesRead.Add(int64(n))
	if n < len(buf) {
		cause := ErrShortRead
		if err != nil && !errors.Is(err, io.EOF) {
			cause = fmt.Errorf("%w: %w", ErrShortRead, err)
		}
		return &IOError{Op: "read", Path: f.path, Offset: fileOffset, Want: len(buf), Got: n, Err: cause}
	}

	Decode(dst[bufOffset:bufOffset+count], buf)
	return nil
}

// WriteAt writes src starting at record fileOffset.
func (f *File) WriteAt(fileOffset int64, src []Record) error {
	if f.f == nil {
		return ErrClosed
	}
	if len(src) == 0 {
		return nil
	}

	buf := pools.GetBytesSized(len(src) * Width)
	defer pools.PutBytes(buf)
	Encode(buf, src)

	n, err := f.f.WriteAt(buf, Bytes(fileOffset))
	f.writes.Add(1)
	f.bytesWritten.Add(int64(n))
	if n < len(buf) || err != nil {
		cause := ErrShortWrite
		if err != nil {
			cause = fmt.Errorf("%w: %w", ErrShortWrite, err)
		}
		return &IOError{Op: "write", Path: f.path, Offset: fileOffset, Want: len(buf), Got: n, Err: cause}
	}
	return nil
}

// Writer returns a sequential writer positioned at record start.
func (f *File) Writer(start int64) *Writer {
	return &Writer{f: f, pos: start}
}

// Stats returns a snapshot of the transfer counters.
func (f *File) Stats() Stats {
	return Stats{
		Reads:        f.reads.Load(),
		Writes:       f.writes.Load(),
		BytesRead:    f.bytesRead.Load(),
		BytesWritten: f.bytesWritten.Load(),
	}
}

// Sync commits the file contents to stable storage.
func (f *File) Sync() error {
	if f.f == nil {
		return ErrClosed
	}
	return f.f.Sync()
}

// Close releases the file handle. Closing twice is a no-op.
func (f *File) Close() error {
	if f.f == nil {
		return nil
	}
	err := f.f.Close()
	f.f = nil
	return err
}

// Dump prints count records starting at start, one block per call.
func (f *File) Dump(w io.Writer, start int64, count int) error {
	block := make([]Record, count)
	if err := f.ReadAt(start, block, 0, count); err != nil {
		return err
	}
	fmt.Fprintf(w, "block starting at: %d and ending at: %d\n", start, start+int64(count))
	for i, r := range block {
		if i > 0 {
			fmt.Fprint(w, ", ")
		}
		fmt.Fprint(w, int64(r))
	}
	fmt.Fprintln(w)
	return nil
}

// Writer writes records sequentially from a starting position.
type Writer struct {
	f   *File
	pos int64
}

// Write writes src at the current position and advances past it.
func (w *Writer) Write(src []Record) error {
	if err := w.f.WriteAt(w.pos, src); err != nil {
		return err
	}
	w.pos += int64(len(src))
	return nil
}

// Pos returns the record offset of the next write.
func (w *Writer) Pos() int64 {
	return w.pos
}

// File returns the file the writer targets.
func (w *Writer) File() *File {
	return w.f
}
