// Package lib provides the packit archive writer for use from other programs.
// This package re-exports the functionality from the core package.
package lib

import (
	"io"

	"packit/pkg/core"
)

// Constants for archive format re-exported from core
const (
	Magic      = core.Magic      // Magic number to identify the archive
	HeaderSize = core.HeaderSize // Size of the archive header
	MaxNameLen = core.MaxNameLen // Longest representable entry name
)

// EntryType re-exported from core
type EntryType = core.EntryType

// EntryTypeFile re-exported from core
const EntryTypeFile = core.EntryTypeFile

// Error types re-exported from core
type (
	IOError     = core.IOError
	FormatError = core.FormatError
)

// ErrPathTooLong re-exported from core
var ErrPathTooLong = core.ErrPathTooLong

// Summary re-exported from core
type Summary = core.Summary

// Option re-exported from core
type Option = core.Option

// Options re-exported from core
var (
	WithChunkSize   = core.WithChunkSize
	WithLogger      = core.WithLogger
	WithProgress    = core.WithProgress
	WithCollectHook = core.WithCollectHook
	WithSort        = core.WithSort
	WithAtomic      = core.WithAtomic
	WithLZ4         = core.WithLZ4
)

// Collect is a wrapper around core.Collect
func Collect(root string) ([]string, error) {
	return core.Collect(root)
}

// Encode is a wrapper around core.Encode
func Encode(paths []string, root string, w io.Writer, options ...Option) error {
	return core.Encode(paths, root, w, options...)
}

// Pack is a wrapper around core.Pack
func Pack(root, output string, options ...Option) (Summary, error) {
	return core.Pack(root, output, options...)
}
