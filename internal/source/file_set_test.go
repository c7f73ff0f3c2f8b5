package source

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	// Добавляем файл первый раз
	id1 := fs.Add("index.js", []byte("import fs from 'fs';"), 0)
	if id1 != 0 {
		t.Errorf("Expected first FileID to be 0, got %d", id1)
	}

	// Тот же путь с новым содержимым
	id2 := fs.Add("./index.js", []byte("import fs from 'node:fs';"), 0)
	if id2 != 1 {
		t.Errorf("Expected second FileID to be 1, got %d", id2)
	}

	if fs.Len() != 2 {
		t.Errorf("Expected 2 files, got %d", fs.Len())
	}

	// Старая версия всё ещё доступна
	if got := string(fs.Get(id1).Content); got != "import fs from 'fs';" {
		t.Errorf("unexpected first content %q", got)
	}
	if fs.Get(id1).Path != fs.Get(id2).Path {
		t.Error("Expected both files to have the same path")
	}
	if fs.Len() != 2 {
		t.Errorf("Len() = %d, want 2", fs.Len())
	}
}

// TestAddVirtualLineIdx проверяет правильность построения LineIdx для AddVirtual
func TestAddVirtualLineIdx(t *testing.T) {
	fs := NewFileSet()

	id := fs.AddVirtual("a.js", []byte("a\nb\n"))
	file := fs.Get(id)

	expected := []uint32{1, 3} // позиции символов \n
	if len(file.LineIdx) != len(expected) {
		t.Fatalf("Expected LineIdx length %d, got %d", len(expected), len(file.LineIdx))
	}
	for i, val := range expected {
		if file.LineIdx[i] != val {
			t.Errorf("Expected LineIdx[%d] = %d, got %d", i, val, file.LineIdx[i])
		}
	}
	if file.Flags&FileVirtual == 0 {
		t.Error("Expected FileVirtual flag to be set")
	}
}

// Содержимое хранится как есть, только флаги отмечают BOM и CRLF.
func TestAddKeepsBytesVerbatim(t *testing.T) {
	fs := NewFileSet()

	raw := []byte("\xEF\xBB\xBFimport fs from \"fs\";\r\nfs;\r\n")
	id := fs.AddVirtual("bom.js", raw)
	file := fs.Get(id)

	if string(file.Content) != string(raw) {
		t.Errorf("content was modified: %q", file.Content)
	}
	if file.Flags&FileHadBOM == 0 {
		t.Error("Expected FileHadBOM flag to be set")
	}
	if file.Flags&FileHadCRLF == 0 {
		t.Error("Expected FileHadCRLF flag to be set")
	}
	if file.BOMLen() != 3 {
		t.Errorf("BOMLen() = %d, want 3", file.BOMLen())
	}
	if got := file.GetLine(1); got != "\xEF\xBB\xBFimport fs from \"fs\";" {
		t.Errorf("GetLine(1) = %q", got)
	}
	if got := file.GetLine(2); got != "fs;" {
		t.Errorf("GetLine(2) = %q", got)
	}
}

// TestResolveUTF8 проверяет разрешение позиций в UTF-8 тексте
func TestResolveUTF8(t *testing.T) {
	fs := NewFileSet()

	content := []byte("α\n") // α = 2 байта
	id := fs.AddVirtual("test.js", content)

	start, end := fs.Resolve(Span{File: id, Start: 0, End: 1})
	if start != (LineCol{Line: 1, Col: 1}) {
		t.Errorf("unexpected start %+v", start)
	}
	if end != (LineCol{Line: 1, Col: 2}) {
		t.Errorf("unexpected end %+v", end)
	}
}

func TestTextAndLineStart(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("t.js", []byte("let a;\nrequire(\"fs\");\n"))

	if got := fs.Text(Span{File: id, Start: 15, End: 19}); got != "\"fs\"" {
		t.Errorf("Text() = %q", got)
	}
	if got := fs.Text(Span{File: id, Start: 15, End: 100}); got != "" {
		t.Errorf("out of range Text() = %q", got)
	}
	file := fs.Get(id)
	if file.LineStart(2) != 7 {
		t.Errorf("LineStart(2) = %d", file.LineStart(2))
	}
	if file.GetLine(5) != "" {
		t.Errorf("GetLine past EOF should be empty")
	}
}

// TestEdgeCases проверяет граничные случаи
func TestEdgeCases(t *testing.T) {
	fs := NewFileSet()

	file1 := fs.Get(fs.AddVirtual("empty.js", []byte{}))
	if len(file1.LineIdx) != 0 {
		t.Errorf("Expected empty LineIdx for empty file, got length %d", len(file1.LineIdx))
	}

	file2 := fs.Get(fs.AddVirtual("only_newline.js", []byte("\n")))
	if len(file2.LineIdx) != 1 || file2.LineIdx[0] != 0 {
		t.Errorf("Expected LineIdx [0] for file with only newline, got %v", file2.LineIdx)
	}

	if fs.Get(42) != nil {
		t.Error("Get() of unknown id should be nil")
	}
}

func TestLoad(t *testing.T) {
	mem := memfs.New()
	if err := util.WriteFile(mem, "src/a.js", []byte("a\r\nb\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	fs := NewFileSet()
	id, err := fs.Load(mem, "src/a.js")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	file := fs.Get(id)
	if string(file.Content) != "a\r\nb\n" {
		t.Errorf("Expected raw content, got %q", string(file.Content))
	}
	if file.Flags&FileVirtual != 0 {
		t.Error("loaded file must not be virtual")
	}
	if file.Path != "src/a.js" {
		t.Errorf("unexpected path %q", file.Path)
	}

	if _, err := fs.Load(mem, "missing.js"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFormatPath(t *testing.T) {
	f := &File{Path: "/very/long/absolute/path/to/some/project/src/index.js"}
	if got := f.FormatPath("basename", ""); got != "index.js" {
		t.Errorf("basename = %q", got)
	}
	if got := f.FormatPath("auto", ""); got != "index.js" {
		t.Errorf("auto = %q", got)
	}
	if got := f.FormatPath("relative", "/very/long/absolute/path/to/some/project"); got != "src/index.js" {
		t.Errorf("relative = %q", got)
	}
	short := &File{Path: "src/a.js"}
	if got := short.FormatPath("auto", ""); got != "src/a.js" {
		t.Errorf("auto short = %q", got)
	}
}
