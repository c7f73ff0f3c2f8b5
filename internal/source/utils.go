package source

import (
	"path/filepath"
	"sort"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func hasBOM(content []byte) bool {
	return len(content) >= 3 && content[0] == utf8BOM[0] && content[1] == utf8BOM[1] && content[2] == utf8BOM[2]
}

// StripBOM returns content without a leading byte order mark and the number of bytes removed.
func StripBOM(content []byte) ([]byte, uint32) {
	if hasBOM(content) {
		return content[3:], 3
	}
	return content, 0
}

func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, len(content)/32+1)
	for i, b := range content {
		if b == '\n' {
			out = append(out, uint32(i)) //nolint:gosec // length checked in Load
		}
	}
	return out
}

func toLineCol(lineIdx []uint32, off uint32) LineCol {
	// число переводов строки строго до off и есть номер строки (0-based)
	line := sort.Search(len(lineIdx), func(i int) bool { return lineIdx[i] >= off })
	var startOff uint32
	if line > 0 {
		startOff = lineIdx[line-1] + 1
	}
	return LineCol{Line: uint32(line + 1), Col: off - startOff + 1} //nolint:gosec // line <= len(lineIdx)
}

func normalizePath(p string) string {
	if p == "" {
		return p
	}
	// единый вид в кроссплатформенных дифах
	return filepath.ToSlash(filepath.Clean(p))
}

// AbsolutePath возвращает абсолютный путь в слэш-нотации.
func AbsolutePath(p string) (string, error) {
	abs, err := filepath.Abs(filepath.FromSlash(p))
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(abs), nil
}

// RelativePath returns p relative to baseDir. Paths outside baseDir are
// returned in absolute form instead of climbing with "..".
func RelativePath(p, baseDir string) (string, error) {
	abs, err := AbsolutePath(p)
	if err != nil {
		return "", err
	}
	base, err := AbsolutePath(baseDir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(filepath.FromSlash(base), filepath.FromSlash(abs))
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return abs, nil
	}
	return rel, nil
}

// BaseName возвращает последний элемент пути.
func BaseName(p string) string {
	return filepath.Base(filepath.FromSlash(p))
}
