package source

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"fortio.org/safecast"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// FileSet manages a collection of source files and resolves byte offsets
// into line/column positions. Adding files is safe from several goroutines;
// a *File returned by Get must be treated as read-only.
type FileSet struct {
	mu      sync.RWMutex
	files   []*File
	baseDir string // базовая директория для относительных путей
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]*File, 0),
	}
}

// NewFileSetWithBase создаёт FileSet с заданной базовой директорией.
func NewFileSetWithBase(baseDir string) *FileSet {
	fileSet := NewFileSet()
	fileSet.baseDir = baseDir
	return fileSet
}

// SetBaseDir устанавливает базовую директорию для относительных путей.
func (fileSet *FileSet) SetBaseDir(dir string) {
	fileSet.mu.Lock()
	defer fileSet.mu.Unlock()
	fileSet.baseDir = dir
}

// BaseDir returns the directory relative paths are computed against,
// falling back to the working directory.
func (fileSet *FileSet) BaseDir() string {
	fileSet.mu.RLock()
	base := fileSet.baseDir
	fileSet.mu.RUnlock()
	if base == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return base
}

// Add stores content under path, computes LineIdx and Hash, and returns a new FileID.
// It always creates a new FileID even if a file with the same path already exists.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	hash := sha256.Sum256(content)
	lineIdx := buildLineIndex(content)
	normalizedPath := normalizePath(path)
	if hasBOM(content) {
		flags |= FileHadBOM
	}
	if bytes.Contains(content, []byte("\r\n")) {
		flags |= FileHadCRLF
	}

	fileSet.mu.Lock()
	defer fileSet.mu.Unlock()

	lenFiles, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(lenFiles)
	fileSet.files = append(fileSet.files, &File{
		ID:      id,
		Path:    normalizedPath,
		Content: content,
		LineIdx: lineIdx,
		Hash:    hash,
		Flags:   flags,
	})
	return id
}

// Load reads path from fsys and calls Add. The bytes are stored unmodified.
func (fileSet *FileSet) Load(fsys billy.Filesystem, path string) (FileID, error) {
	content, err := util.ReadFile(fsys, path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	if _, err := safecast.Conv[uint32](len(content)); err != nil {
		return 0, fmt.Errorf("%s: file too large: %w", path, err)
	}
	return fileSet.Add(path, content, 0), nil
}

// AddVirtual adds a virtual file (stdin, test, or generated) with the FileVirtual flag.
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	return fileSet.Add(name, content, FileVirtual)
}

// Get returns the file for id, or nil when id is unknown.
func (fileSet *FileSet) Get(id FileID) *File {
	fileSet.mu.RLock()
	defer fileSet.mu.RUnlock()
	if int(id) >= len(fileSet.files) {
		return nil
	}
	return fileSet.files[id]
}

// Len returns the number of files added so far.
func (fileSet *FileSet) Len() int {
	fileSet.mu.RLock()
	defer fileSet.mu.RUnlock()
	return len(fileSet.files)
}

// Resolve converts a span into line and column positions.
func (fileSet *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fileSet.Get(span.File)
	if f == nil {
		return LineCol{}, LineCol{}
	}
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// Text returns the bytes covered by span, or "" when the span is out of range.
func (fileSet *FileSet) Text(span Span) string {
	f := fileSet.Get(span.File)
	if f == nil || span.End < span.Start || int(span.End) > len(f.Content) {
		return ""
	}
	return string(f.Content[span.Start:span.End])
}

// GetLine возвращает строку с заданным номером (1-based) из файла
// без завершающих \n и \r. Несуществующая строка даёт "".
func (f *File) GetLine(lineNum uint32) string {
	if lineNum == 0 {
		return ""
	}
	start, end := f.lineBounds(lineNum)
	if start > end {
		return ""
	}
	line := f.Content[start:end]
	return string(bytes.TrimSuffix(line, []byte("\r")))
}

// LineStart returns the byte offset of the first byte of line (1-based).
func (f *File) LineStart(lineNum uint32) uint32 {
	start, _ := f.lineBounds(lineNum)
	return start
}

func (f *File) lineBounds(lineNum uint32) (start, end uint32) {
	lenContent, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}
	lenLineIdx, err := safecast.Conv[uint32](len(f.LineIdx))
	if err != nil {
		panic(fmt.Errorf("line index length overflow: %w", err))
	}

	switch {
	case lineNum <= 1:
		start = 0
	case lineNum-2 < lenLineIdx:
		start = f.LineIdx[lineNum-2] + 1
	default:
		return lenContent, lenContent
	}
	if lineNum >= 1 && lineNum-1 < lenLineIdx {
		end = f.LineIdx[lineNum-1]
	} else {
		end = lenContent
	}
	return start, end
}

// FormatPath форматирует путь к файлу в зависимости от режима.
// mode: "absolute", "relative", "basename", "auto"
// baseDir: базовая директория для относительных путей (игнорируется для других режимов)
func (f *File) FormatPath(mode, baseDir string) string {
	switch mode {
	case "absolute":
		if abs, err := AbsolutePath(f.Path); err == nil {
			return abs
		}
		return f.Path

	case "relative":
		if baseDir == "" {
			if wd, err := os.Getwd(); err == nil {
				baseDir = wd
			}
		}
		if rel, err := RelativePath(f.Path, baseDir); err == nil {
			return rel
		}
		return f.Path

	case "basename":
		return BaseName(f.Path)

	case "auto":
		// короткий или относительный путь печатаем как есть
		if len(f.Path) < 40 || !filepath.IsAbs(f.Path) {
			return f.Path
		}
		return BaseName(f.Path)

	default:
		return f.Path
	}
}
