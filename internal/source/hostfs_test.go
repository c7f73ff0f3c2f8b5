package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/util"
)

func TestHostFSReadsAbsoluteAndParentRelativePaths(t *testing.T) {
	tmp := t.TempDir()
	work := filepath.Join(tmp, "work")
	if err := os.MkdirAll(work, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	fsys := HostFS()
	target := filepath.Join(tmp, "index.js")
	if err := util.WriteFile(fsys, target, []byte("import fs from 'fs';\n"), 0o644); err != nil {
		t.Fatalf("write through HostFS: %v", err)
	}

	t.Chdir(work)
	data, err := util.ReadFile(fsys, filepath.Join("..", "index.js"))
	if err != nil {
		t.Fatalf("read ../index.js: %v", err)
	}
	if string(data) != "import fs from 'fs';\n" {
		t.Fatalf("unexpected content %q", data)
	}
	if got := fsys.Root(); got != "/" {
		t.Fatalf("Root() = %q", got)
	}
}

func TestHostFSLoadsIntoFileSet(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "a.mjs")
	if err := os.WriteFile(path, []byte("const p = require('path');\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	fs := NewFileSet()
	id, err := fs.Load(HostFS(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := string(fs.Get(id).Content); got != "const p = require('path');\n" {
		t.Fatalf("unexpected content %q", got)
	}
}
