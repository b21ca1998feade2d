package extsort

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-extsort/pkg/record"
)

// Common sentinel errors
var (
	ErrInvalidConfig    = errors.New("invalid sort configuration")
	ErrSizeMismatch     = errors.New("configured size does not match file length")
	ErrSamePath         = errors.New("input and output must be different files")
	ErrRunCountMismatch = errors.New("merged run length does not match its inputs")
)

// SortError provides structured error information for sort operations.
type SortError struct {
	Op    string // Operation that failed (e.g., "open", "merge", "copy")
	Phase string // "partition", "merge" or "final"
	Path  string // File involved, if any
	Pass  int    // Merge pass, or -1 when not in a pass
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *SortError) Error() string {
	var where string
	switch {
	case e.Phase != "" && e.Pass >= 0:
		where = fmt.Sprintf(" (%s pass %d)", e.Phase, e.Pass)
	case e.Phase != "":
		where = fmt.Sprintf(" (%s)", e.Phase)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s %s%s: %v", e.Op, e.Path, where, e.Cause)
	}
	return fmt.Sprintf("%s%s: %v", e.Op, where, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SortError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *SortError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// ErrorBuilder provides a fluent interface for building SortErrors.
type ErrorBuilder struct {
	err SortError
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: SortError{Op: op, Pass: -1}}
}

// Phase sets the sort phase.
func (b *ErrorBuilder) Phase(phase string) *ErrorBuilder {
	b.err.Phase = phase
	return b
}

// Pass sets the merge pass number.
func (b *ErrorBuilder) Pass(pass int) *ErrorBuilder {
	b.err.Pass = pass
	return b
}

// Path sets the file involved.
func (b *ErrorBuilder) Path(path string) *ErrorBuilder {
	b.err.Path = path
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Build returns the constructed SortError.
func (b *ErrorBuilder) Build() *SortError {
	return &b.err
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	return &b.err
}

// configError wraps a validation failure so errors.Is matches ErrInvalidConfig.
func configError(cause error) error {
	return NewError("validate").Cause(fmt.Errorf("%w: %w", ErrInvalidConfig, cause)).Err()
}

// IsConfigError returns true if the sort was rejected before touching any file.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig) || errors.Is(err, ErrSamePath)
}

// IsShortIO returns true if a read or write transferred fewer bytes than requested.
func IsShortIO(err error) bool {
	return record.IsShortIO(err)
}

// IsSizeError returns true for a file length that is misaligned or disagrees
// with the configured size.
func IsSizeError(err error) bool {
	return errors.Is(err, ErrSizeMismatch) || errors.Is(err, record.ErrMisaligned)
}
