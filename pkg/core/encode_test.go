package core

import (
	"bytes"
	"crypto/rand"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func encodeToBytes(t testing.TB, paths []string, root string, opts ...Option) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, Encode(paths, root, &buf, opts...))
	return buf.Bytes()
}

func TestEncodeEmpty(t *testing.T) {
	data := encodeToBytes(t, nil, t.TempDir())
	require.Equal(t, []byte{'P', 'K', 'I', 'T', 8, 0, 0, 0}, data)
	require.Empty(t, parseArchive(t, data))
}

func TestEncodeScenario(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":     "xyz",
		"sub/b.txt": "",
	})

	paths, err := Collect(root)
	require.NoError(t, err)
	SortPaths(paths)

	data := encodeToBytes(t, paths, root)

	expected := []byte{
		'P', 'K', 'I', 'T', 8, 0, 0, 0,
		1, 0, 5, 0, 3, 0, 0, 0, 0, 0, 0, 0,
		'a', '.', 't', 'x', 't', 'x', 'y', 'z',
		1, 0, 9, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		's', 'u', 'b', '/', 'b', '.', 't', 'x', 't',
	}
	require.Equal(t, expected, data)

	entries := parseArchive(t, data)
	require.Equal(t, []parsedEntry{
		{Type: EntryTypeFile, Name: "a.txt", Content: []byte("xyz")},
		{Type: EntryTypeFile, Name: "sub/b.txt", Content: []byte{}},
	}, entries)
}

func TestEncodeMatchesSource(t *testing.T) {
	root := t.TempDir()
	files := map[string]int{
		"small.bin":          17,
		"dir/exact.bin":      defaultChunkSize,
		"dir/more.bin":       defaultChunkSize + 1,
		"dir/deep/large.bin": 3*defaultChunkSize + 123,
		"dir/deep/empty.bin": 0,
	}
	for name, size := range files {
		content := make([]byte, size)
		_, err := rand.Read(content)
		require.NoError(t, err)
		full := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, content, 0644))
	}

	paths, err := Collect(root)
	require.NoError(t, err)

	data := encodeToBytes(t, paths, root)
	entries := parseArchive(t, data)
	require.Len(t, entries, len(files))

	for i, e := range entries {
		require.Equal(t, paths[i], e.Name, "entries must follow the path order")
		require.Equal(t, EntryTypeFile, e.Type)

		expected, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(e.Name)))
		require.NoError(t, err)
		require.True(t, bytes.Equal(expected, e.Content), "content of %s differs", e.Name)
	}

	t.Run("idempotent", func(t *testing.T) {
		require.Equal(t, data, encodeToBytes(t, paths, root))
	})

	t.Run("chunk size does not change output", func(t *testing.T) {
		for _, size := range []int{1, 7, 1024, 1 << 20} {
			require.Equal(t, data, encodeToBytes(t, paths, root, WithChunkSize(size)), "chunk size %d", size)
		}
	})

	t.Run("progress counts content", func(t *testing.T) {
		var total int
		encodeToBytes(t, paths, root, WithProgress(func(n int) { total += n }))

		var expected int
		for _, size := range files {
			expected += size
		}
		require.Equal(t, expected, total)
	})
}

func TestEncodeSummary(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":     "xyz",
		"sub/b.txt": "hello",
	})

	var buf bytes.Buffer
	sum, err := encode([]string{"a.txt", "sub/b.txt"}, root, &buf, newOptionData(nil))
	require.NoError(t, err)
	require.Equal(t, Summary{
		Files:        2,
		ContentBytes: 8,
		ArchiveBytes: uint64(buf.Len()),
	}, sum)
}

func TestEncodeLogsEntries(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "xyz"})

	core, logs := observer.New(zap.DebugLevel)
	encodeToBytes(t, []string{"a.txt"}, root, WithLogger(zap.New(core)))

	entries := logs.FilterMessage("packed entry").All()
	require.Len(t, entries, 1)
	require.Equal(t, "a.txt", entries[0].ContextMap()["path"])
	require.EqualValues(t, 3, entries[0].ContextMap()["size"])
}

func TestEncodeNameLength(t *testing.T) {
	buf := make([]byte, 16)

	t.Run("max length", func(t *testing.T) {
		name := strings.Repeat("n", MaxNameLen)

		var out bytes.Buffer
		out.WriteString(Magic)
		out.Write([]byte{8, 0, 0, 0})
		require.NoError(t, writeEntry(&out, name, 2, strings.NewReader("ok"), buf, nil))

		entries := parseArchive(t, out.Bytes())
		require.Len(t, entries, 1)
		require.Equal(t, name, entries[0].Name)
		require.Equal(t, []byte("ok"), entries[0].Content)
	})

	t.Run("too long", func(t *testing.T) {
		name := strings.Repeat("n", MaxNameLen+1)

		var out bytes.Buffer
		err := writeEntry(&out, name, 2, strings.NewReader("ok"), buf, nil)
		require.ErrorIs(t, err, ErrPathTooLong)

		var fe *FormatError
		require.ErrorAs(t, err, &fe)
		require.EqualValues(t, MaxNameLen+1, fe.Value)
		require.EqualValues(t, MaxNameLen, fe.Limit)
		require.Zero(t, out.Len(), "nothing of a rejected entry may be written")
	})

	t.Run("multibyte names count bytes", func(t *testing.T) {
		name := strings.Repeat("é", MaxNameLen/2+1) // 2 bytes each

		var out bytes.Buffer
		err := writeEntry(&out, name, 0, strings.NewReader(""), buf, nil)
		require.ErrorIs(t, err, ErrPathTooLong)
	})
}

func TestEncodeErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, map[string]string{"present": "x"})

		var out bytes.Buffer
		err := Encode([]string{"present", "vanished"}, root, &out)
		require.ErrorIs(t, err, fs.ErrNotExist)

		var ioe *IOError
		require.ErrorAs(t, err, &ioe)
		require.Equal(t, "open", ioe.Op)
		require.Equal(t, root+"/vanished", ioe.Path)

		// header and the first entry are left behind
		require.Len(t, parseArchive(t, out.Bytes()), 1)
	})

	t.Run("directory instead of file", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(root, "dir"), 0755))

		err := Encode([]string{"dir"}, root, io.Discard)
		require.Error(t, err)

		var ioe *IOError
		require.ErrorAs(t, err, &ioe)
	})

	t.Run("header write failure", func(t *testing.T) {
		err := Encode(nil, t.TempDir(), failingWriter{})
		var ioe *IOError
		require.ErrorAs(t, err, &ioe)
		require.Equal(t, "write header", ioe.Op)
		require.ErrorIs(t, err, syscall.ENOSPC)
	})
}

func TestCopyContent(t *testing.T) {
	buf := make([]byte, 4)

	t.Run("retries interrupted reads", func(t *testing.T) {
		src := &interruptingReader{r: strings.NewReader("hello world"), every: 2}

		var out bytes.Buffer
		require.NoError(t, copyContent(&out, "f", 11, src, buf, nil))
		require.Equal(t, "hello world", out.String())
		require.NotZero(t, src.interrupts)
	})

	t.Run("short source", func(t *testing.T) {
		var out bytes.Buffer
		err := copyContent(&out, "f", 10, strings.NewReader("abc"), buf, nil)
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
		require.Equal(t, "abc", out.String())
	})

	t.Run("grown source is cut to the declared length", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, copyContent(&out, "f", 3, strings.NewReader("abcdef"), buf, nil))
		require.Equal(t, "abc", out.String())
	})

	t.Run("read error", func(t *testing.T) {
		readErr := errors.New("device gone")
		src := io.MultiReader(strings.NewReader("ab"), errReader{readErr})

		err := copyContent(io.Discard, "f", 10, src, buf, nil)
		require.ErrorIs(t, err, readErr)

		var ioe *IOError
		require.ErrorAs(t, err, &ioe)
		require.Equal(t, "read", ioe.Op)
	})

	t.Run("write error", func(t *testing.T) {
		err := copyContent(failingWriter{}, "f", 3, strings.NewReader("abc"), buf, nil)
		var ioe *IOError
		require.ErrorAs(t, err, &ioe)
		require.Equal(t, "write content", ioe.Op)
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, syscall.ENOSPC }

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

// interruptingReader fails every n-th read with EINTR.
type interruptingReader struct {
	r          io.Reader
	every      int
	calls      int
	interrupts int
}

func (r *interruptingReader) Read(p []byte) (int, error) {
	r.calls++
	if r.calls%r.every == 0 {
		r.interrupts++
		return 0, syscall.EINTR
	}
	return r.r.Read(p)
}
