package core

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"syscall"

	"go.uber.org/zap"
)

type archiveHeader struct {
	Magic      [4]byte
	HeaderSize uint32
}

type entryHeader struct {
	Type       EntryType
	NameLen    uint16
	ContentLen uint64
}

// Encode writes a PKIT archive to w holding the files named by paths, in
// the given order. Each path is relative to root and is opened as
// root + "/" + path. Files are streamed in chunks and closed before the next
// one is opened.
//
// Encode is not atomic: on error, w holds a truncated archive.
func Encode(paths []string, root string, w io.Writer, options ...Option) error {
	_, err := encode(paths, root, w, newOptionData(options))
	return err
}

func encode(paths []string, root string, w io.Writer, opts optionData) (Summary, error) {
	var sum Summary

	if err := writeArchiveHeader(w); err != nil {
		return sum, err
	}
	sum.ArchiveBytes = HeaderSize

	buf := make([]byte, opts.chunkSize)
	for _, name := range paths {
		size, err := encodeFile(w, root, name, buf, opts)
		if err != nil {
			return sum, err
		}
		opts.log.Debug("packed entry",
			zap.String("path", name),
			zap.Uint64("size", size))

		sum.Files++
		sum.ContentBytes += size
		sum.ArchiveBytes += entrySize(len(name), size)
	}
	return sum, nil
}

// writeArchiveHeader writes the archive header to the output
func writeArchiveHeader(w io.Writer) error {
	hdr := archiveHeader{HeaderSize: HeaderSize}
	copy(hdr.Magic[:], Magic)
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return ioErr("write header", "", err)
	}
	return nil
}

// encodeFile packs a single file and returns its content length.
func encodeFile(w io.Writer, root, name string, buf []byte, opts optionData) (uint64, error) {
	full := root + "/" + name
	f, err := os.Open(full)
	if err != nil {
		return 0, ioErr("open", full, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, ioErr("stat", full, err)
	}
	size := uint64(info.Size())

	if err := writeEntry(w, name, size, f, buf, opts.onChunk); err != nil {
		var ioe *IOError
		if errors.As(err, &ioe) && ioe.Op == "read" {
			ioe.Path = full
		}
		return 0, err
	}
	return size, nil
}

// writeEntry writes the entry header and name, then copies exactly size
// bytes of content from src.
func writeEntry(w io.Writer, name string, size uint64, src io.Reader, buf []byte, onChunk func(int)) error {
	if len(name) > MaxNameLen {
		return &FormatError{
			Path:  name,
			Field: "name length",
			Value: uint64(len(name)),
			Limit: MaxNameLen,
		}
	}

	hdr := entryHeader{
		Type:       EntryTypeFile,
		NameLen:    uint16(len(name)),
		ContentLen: size,
	}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return ioErr("write entry header", name, err)
	}
	if _, err := io.WriteString(w, name); err != nil {
		return ioErr("write entry name", name, err)
	}

	return copyContent(w, name, size, src, buf, onChunk)
}

// copyContent streams size bytes from src to w through buf. Reads
// interrupted by a signal are retried. A source yielding fewer than size
// bytes is an error since the entry header already promised them.
func copyContent(w io.Writer, name string, size uint64, src io.Reader, buf []byte, onChunk func(int)) error {
	remaining := size
	for remaining > 0 {
		chunk := buf
		if uint64(len(chunk)) > remaining {
			chunk = chunk[:remaining]
		}

		n, err := src.Read(chunk)
		if n > 0 {
			if _, werr := w.Write(chunk[:n]); werr != nil {
				return ioErr("write content", name, werr)
			}
			remaining -= uint64(n)
			if onChunk != nil {
				onChunk(n)
			}
		}
		if err == nil {
			continue
		}
		if errors.Is(err, syscall.EINTR) {
			continue
		}
		if errors.Is(err, io.EOF) {
			if remaining > 0 {
				return ioErr("read", name, io.ErrUnexpectedEOF)
			}
			break
		}
		return ioErr("read", name, err)
	}
	return nil
}
