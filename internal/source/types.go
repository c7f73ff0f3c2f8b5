package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

const (
	// FileVirtual marks a file added from memory (tests, stdin); it is never written back.
	FileVirtual FileFlags = 1 << iota
	// FileHadBOM marks content that starts with a UTF-8 byte order mark.
	FileHadBOM
	// FileHadCRLF marks content containing at least one \r\n pair.
	FileHadCRLF
)

// File captures metadata and content for a single source file.
// Content is kept byte-for-byte as loaded: fixes are computed against it and
// written back over it, so nothing here normalises line endings or the BOM.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // offsets of '\n' bytes
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based, in bytes
}

// BOMLen returns the number of leading bytes taken by a byte order mark.
func (f *File) BOMLen() uint32 {
	if f.Flags&FileHadBOM != 0 {
		return 3
	}
	return 0
}
