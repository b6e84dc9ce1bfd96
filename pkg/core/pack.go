package core

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"
	"go.uber.org/zap"
)

// Pack collects the regular files under root and writes them as a PKIT
// archive to output, creating the output directory if needed.
//
// Without WithAtomic a failed run leaves a truncated archive at output which
// must not be used.
func Pack(root, output string, options ...Option) (Summary, error) {
	opts := newOptionData(options)

	paths, err := Collect(root)
	if err != nil {
		return Summary{}, fmt.Errorf("collect entries: %w", err)
	}
	if opts.sort {
		SortPaths(paths)
	}
	opts.log.Info("collected files",
		zap.String("root", root),
		zap.Int("files", len(paths)))

	if opts.onCollect != nil {
		if err := opts.onCollect(paths); err != nil {
			return Summary{}, err
		}
	}

	out, err := createOutput(output, opts.atomic)
	if err != nil {
		return Summary{}, err
	}

	sum, err := writeArchive(out, paths, root, opts)
	if err != nil {
		out.abort()
		return sum, err
	}
	if err := out.commit(); err != nil {
		return sum, err
	}

	opts.log.Info("archive written",
		zap.String("output", output),
		zap.Int("files", sum.Files),
		zap.Uint64("content_bytes", sum.ContentBytes),
		zap.Uint64("archive_bytes", sum.ArchiveBytes))
	return sum, nil
}

// writeArchive encodes paths into out, applying the output filters.
func writeArchive(out *outputFile, paths []string, root string, opts optionData) (Summary, error) {
	bw := bufio.NewWriterSize(out.f, opts.chunkSize)

	var w io.Writer = bw
	var zw *lz4.Writer
	if opts.lz4 {
		zw = lz4.NewWriter(bw)
		w = zw
	}

	sum, err := encode(paths, root, w, opts)
	if err != nil {
		// keep whatever was encoded so far, the archive is invalid anyway
		_ = bw.Flush()
		return sum, fmt.Errorf("encode: %w", err)
	}

	if zw != nil {
		if err := zw.Close(); err != nil {
			return sum, fmt.Errorf("close LZ4 writer: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return sum, fmt.Errorf("flush output: %w", err)
	}
	return sum, nil
}

// outputFile is the destination of a pack run, possibly a temporary file
// which is renamed to the requested path on commit.
type outputFile struct {
	f    *os.File
	path string
	tmp  bool
}

func createOutput(output string, atomic bool) (*outputFile, error) {
	dir := filepath.Dir(output)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	if !atomic {
		f, err := os.Create(output)
		if err != nil {
			return nil, fmt.Errorf("create output: %w", err)
		}
		return &outputFile{f: f, path: output}, nil
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(output)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temporary output: %w", err)
	}
	if err := f.Chmod(0644); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("create temporary output: %w", err)
	}
	return &outputFile{f: f, path: output, tmp: true}, nil
}

func (o *outputFile) commit() error {
	if err := o.f.Close(); err != nil {
		if o.tmp {
			os.Remove(o.f.Name())
		}
		return fmt.Errorf("finalize output: %w", err)
	}
	if !o.tmp {
		return nil
	}
	if err := os.Rename(o.f.Name(), o.path); err != nil {
		os.Remove(o.f.Name())
		return fmt.Errorf("finalize output: %w", err)
	}
	return nil
}

func (o *outputFile) abort() {
	o.f.Close()
	if o.tmp {
		os.Remove(o.f.Name())
	}
}
