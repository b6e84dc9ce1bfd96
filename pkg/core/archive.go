package core

// Constants for archive format
const (
	Magic      = "PKIT" // Magic number to identify the archive
	HeaderSize = 8      // Size of the archive header: magic + header size field

	EntryHeaderSize = 2 + 2 + 8 // entry type + name length + content length

	MaxNameLen = 1<<16 - 1 // Longest entry name the u16 length field can hold
)

// EntryType tags the kind of record stored in an entry.
type EntryType uint16

const (
	EntryTypeFile EntryType = 1 // Regular file
)

// defaultChunkSize is the copy buffer size used when streaming file content.
const defaultChunkSize = 32 * 1024

// Summary describes a finished pack run.
type Summary struct {
	Files        int    // Number of entries written
	ContentBytes uint64 // Sum of content lengths of all entries
	ArchiveBytes uint64 // Size of the PKIT stream, header included
}

// entrySize returns the number of archive bytes taken by an entry.
func entrySize(nameLen int, contentLen uint64) uint64 {
	return EntryHeaderSize + uint64(nameLen) + contentLen
}
