package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"nodeproto/internal/diag"
	"nodeproto/internal/fix"
	"nodeproto/internal/source"
)

// TestPathModes проверяет различные режимы форматирования путей
func TestPathModes(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("/home/user/project/src/index.js", []byte(jsSample))
	fs.SetBaseDir("/home/user/project")

	bag := diag.NewBag(10)
	bag.Add(ruleDiag(fileID))

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{name: "Absolute path", mode: PathModeAbsolute, contains: "/home/user/project/src/index.js:1:16"},
		{name: "Relative path", mode: PathModeRelative, contains: "src/index.js:1:16"},
		{name: "Basename only", mode: PathModeBasename, contains: "index.js:1:16"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: tt.mode})
			output := buf.String()

			if !strings.Contains(output, tt.contains) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.contains, output)
			}
			for _, want := range []string{"ERROR", "NPR5001", "Prefer `node:fs` over `fs`.", "[enforce-node-protocol-usage]"} {
				if !strings.Contains(output, want) {
					t.Errorf("Expected %q in output, got:\n%s", want, output)
				}
			}
		})
	}
}

// TestPathModeAuto проверяет авто-режим выбора пути
func TestPathModeAuto(t *testing.T) {
	fs := source.NewFileSet()

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{name: "Short path - as is", path: "src/a.js", expected: "src/a.js:1:1"},
		{name: "Long absolute path - basename", path: "/very/long/absolute/path/to/some/nested/directory/file.mjs", expected: "file.mjs:1:1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fileID := fs.AddVirtual(tt.path, []byte("import 'os';\n"))
			bag := diag.NewBag(10)
			bag.Add(diag.New(diag.SevWarning, diag.RulePreferNodeProtocol, source.Span{File: fileID, Start: 0, End: 6}, "Test warning"))

			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeAuto})
			if !strings.Contains(buf.String(), tt.expected) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.expected, buf.String())
			}
		})
	}
}

func TestPrettySnippetUnderline(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("a.js", []byte(jsSample))
	bag := diag.NewBag(1)
	bag.Add(ruleDiag(fileID))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})

	lines := strings.Split(buf.String(), "\n")
	if len(lines) < 3 {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
	if lines[1] != " 1 | import fs from \"fs\";" {
		t.Errorf("unexpected source line %q", lines[1])
	}
	if lines[2] != "   |                ^~~~" {
		t.Errorf("unexpected underline %q", lines[2])
	}
}

func TestPrettyNotesAndFixes(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.js", []byte(jsSample))

	d := ruleDiag(fileID)
	d = d.WithNote(source.Span{File: fileID, Start: 32, End: 36}, "another reference")
	d = d.WithFixSuggestion(fix.DeleteSpan("drop it", source.Span{File: fileID, Start: 0, End: 7}, "import ",
		fix.WithID("drop-001"), func(f *diag.Fix) { f.Applicability = diag.FixApplicabilityManualReview }))

	bag := diag.NewBag(4)
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true, ShowFixes: true})
	output := buf.String()

	if !strings.Contains(output, "note: test.js:2:12: another reference") {
		t.Fatalf("expected note with location, got:\n%s", output)
	}
	if !strings.Contains(output, "fix #1: Add `node:` prefix (always-safe, id=fix-1)") {
		t.Fatalf("expected first fix entry, got:\n%s", output)
	}
	if !strings.Contains(output, "apply=\"node:\"") {
		t.Fatalf("expected fix edit apply preview, got:\n%s", output)
	}
	if !strings.Contains(output, "fix #2: drop it (manual-review, id=drop-001)") {
		t.Fatalf("expected second fix entry, got:\n%s", output)
	}
	if !strings.Contains(output, "expect=\"import \"") {
		t.Fatalf("expected guard text in output, got:\n%s", output)
	}
}

func TestPrettyFixPreview(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("example.js", []byte("const p = require('node:path') // keep\n"))

	bag := diag.NewBag(2)
	d := diag.New(diag.SevWarning, diag.RuleNeverNodeProtocol, source.Span{File: fileID, Start: 18, End: 29}, "Prefer `path` over `node:path`.")
	d = d.WithFixSuggestion(fix.DeleteSpan("Remove `node:` prefix", source.Span{File: fileID, Start: 19, End: 24}, "node:"))
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowFixes: true, ShowPreview: true})

	output := buf.String()
	if !strings.Contains(output, "preview:") {
		t.Fatalf("expected preview header in output, got:\n%s", output)
	}
	if !strings.Contains(output, "- const p = require('node:path') // keep") {
		t.Fatalf("expected before line in preview, got:\n%s", output)
	}
	if !strings.Contains(output, "+ const p = require('path') // keep") {
		t.Fatalf("expected after line in preview, got:\n%s", output)
	}
}
