package core

import (
	"errors"
	"fmt"
)

// ErrPathTooLong is matched by FormatError values describing entry names
// that do not fit the 16-bit name length field.
var ErrPathTooLong = errors.New("path too long")

// IOError describes a filesystem failure during collection or encoding.
type IOError struct {
	Op   string // Phase that failed, e.g. "list", "open", "read", "write header"
	Path string // Path the operation was performed on, may be empty
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// FormatError describes a value which cannot be represented in the archive
// format. It is reported before any byte of the affected entry is written.
type FormatError struct {
	Path  string // Entry the value belongs to
	Field string // Name of the fixed-width field
	Value uint64
	Limit uint64
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s %d exceeds limit %d", e.Path, e.Field, e.Value, e.Limit)
}

// Is reports ErrPathTooLong for name length violations.
func (e *FormatError) Is(target error) bool {
	return target == ErrPathTooLong && e.Field == "name length"
}

func ioErr(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: err}
}
