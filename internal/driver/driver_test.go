package driver

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nodeproto/internal/diag"
	"nodeproto/internal/lint"
)

func newRule(t *testing.T, policy string) *lint.Rule {
	t.Helper()
	rule, err := lint.New(lint.Options{Policy: policy})
	require.NoError(t, err)
	return rule
}

func writeFiles(t *testing.T, fs billy.Filesystem, files map[string]string) {
	t.Helper()
	for p, content := range files {
		require.NoError(t, util.WriteFile(fs, p, []byte(content), 0o644))
	}
}

func codes(diags []diag.Diagnostic) []diag.Code {
	out := make([]diag.Code, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Code)
	}
	return out
}

func TestDiscoverFiles(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, map[string]string{
		"/p/b.ts":                    "",
		"/p/a.js":                    "",
		"/p/README.md":               "",
		"/p/src/c.MJS":               "",
		"/p/node_modules/x/index.js": "",
		"/p/build-out/d.js":          "",
	})
	files, err := DiscoverFiles(fs, "/p", []string{".js", ".mjs", ".ts"}, []string{"node_modules", "build-*"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/p/a.js", "/p/b.ts", "/p/src/c.MJS"}, files)
}

func TestDiagnoseDir(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, map[string]string{
		"/proj/a.js":              "import fs from 'fs';\nconst p = require('node:path');\n",
		"/proj/b.ts":              "import { x } from './local';\nexport { promises } from \"fs\";\n",
		"/proj/broken.js":         "import fs from 'fs'\nconst = ;\n",
		"/proj/node_modules/m.js": "require('os');\n",
	})

	var (
		mu     sync.Mutex
		events []Event
	)
	res, err := DiagnoseDir(context.Background(), "/proj", Options{
		Rule:   newRule(t, "always"),
		FS:     fs,
		Jobs:   2,
		Logger: zap.NewNop(),
		Progress: func(ev Event) {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Files, 3)

	assert.Equal(t, "/proj/a.js", res.Files[0].Path)
	assert.Equal(t, []diag.Code{diag.RulePreferNodeProtocol}, codes(res.Files[0].Bag.Items()))
	assert.Equal(t, []diag.Code{diag.RulePreferNodeProtocol}, codes(res.Files[1].Bag.Items()))

	broken := res.Files[2]
	assert.True(t, broken.Broken)
	require.Equal(t, []diag.Code{diag.SynParseError}, codes(broken.Bag.Items()))
	assert.Empty(t, broken.Bag.Items()[0].Fixes)

	assert.True(t, res.HasProblems())
	assert.Equal(t, 3, res.Bag(0).Len())
	assert.Equal(t, 1, res.Bag(1).Len())

	var done int
	for _, ev := range events {
		if ev.Stage == StageLint && (ev.Status == StatusDone || ev.Status == StatusError) && ev.File != "" {
			done++
		}
	}
	assert.Equal(t, 3, done)
}

func TestDiagnoseDirUsesDiskCache(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, map[string]string{
		"/proj/a.js": "import fs from 'fs';\n",
		"/proj/b.js": "import x from 'node:os';\n",
	})
	cache := NewDiskCache(memfs.New())
	opts := Options{Rule: newRule(t, "always"), FS: fs, Cache: cache}

	first, err := DiagnoseDir(context.Background(), "/proj", opts)
	require.NoError(t, err)
	for _, f := range first.Files {
		assert.False(t, f.Cached, f.Path)
	}

	second, err := DiagnoseDir(context.Background(), "/proj", opts)
	require.NoError(t, err)
	for _, f := range second.Files {
		assert.True(t, f.Cached, f.Path)
	}
	assert.Equal(t, first.Diagnostics(), second.Diagnostics())

	// другая политика - другой ключ
	opts.Rule = newRule(t, "never")
	third, err := DiagnoseDir(context.Background(), "/proj", opts)
	require.NoError(t, err)
	assert.False(t, third.Files[0].Cached)
	assert.Equal(t, []diag.Code{diag.RuleNeverNodeProtocol}, codes(third.Diagnostics()))
}

func TestDiagnoseDirIdenticalContentLintedOnce(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, map[string]string{
		"/proj/a.js": "require('fs');\n",
		"/proj/b.js": "require('fs');\n",
	})
	res, err := DiagnoseDir(context.Background(), "/proj", Options{Rule: newRule(t, "always"), FS: fs, Jobs: 1})
	require.NoError(t, err)
	require.Len(t, res.Files, 2)
	assert.False(t, res.Files[0].Cached)
	assert.True(t, res.Files[1].Cached)
	// спаны привязаны к своему файлу
	d := res.Files[1].Bag.Items()[0]
	assert.Equal(t, res.Files[1].FileID, d.Primary.File)
	assert.Equal(t, res.Files[1].FileID, d.Fixes[0].Edits[0].Span.File)
}

func TestDiagnoseDirTimings(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, map[string]string{"/proj/a.js": "require('fs');\n"})
	res, err := DiagnoseDir(context.Background(), "/proj", Options{Rule: newRule(t, "always"), FS: fs, Timings: true, MaxDiagnostics: 1})
	require.NoError(t, err)
	got := codes(res.Files[0].Bag.Items())
	assert.Equal(t, []diag.Code{diag.RulePreferNodeProtocol, diag.ObsTimings, diag.ObsTimings}, got)
	require.NotNil(t, res.Timing)
	names := make([]string, 0, len(res.Timing.Phases))
	for _, p := range res.Timing.Phases {
		names = append(names, p.Name)
	}
	assert.True(t, slices.Contains(names, "parse") && slices.Contains(names, "lint") && slices.Contains(names, "load"), "%v", names)
	assert.True(t, res.HasProblems())
}

func TestDiagnoseDirEmpty(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/empty", 0o755))
	res, err := DiagnoseDir(context.Background(), "/empty", Options{Rule: newRule(t, "always"), FS: fs})
	require.NoError(t, err)
	assert.Empty(t, res.Files)
	assert.False(t, res.HasProblems())
}

func TestDiagnoseDirCanceled(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, map[string]string{"/proj/a.js": "require('fs');\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := DiagnoseDir(ctx, "/proj", Options{Rule: newRule(t, "always"), FS: fs})
	assert.True(t, errors.Is(err, context.Canceled), "%v", err)
}

func TestDiagnoseFile(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, map[string]string{
		"/proj/a.mjs":     "export { default } from 'node:fs/promises';\n",
		"/proj/notes.txt": "fs",
	})
	opts := Options{Rule: newRule(t, "never"), FS: fs, BaseDir: "/proj"}

	res, err := DiagnoseFile(context.Background(), "/proj/a.mjs", opts)
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	diags := res.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, "fs/promises", diags[0].Data["moduleName"])

	res, err = DiagnoseFile(context.Background(), "/proj/missing.js", opts)
	require.NoError(t, err)
	assert.True(t, res.Files[0].Broken)
	assert.Equal(t, []diag.Code{diag.IOLoadFileError}, codes(res.Diagnostics()))

	res, err = DiagnoseFile(context.Background(), "/proj/notes.txt", opts)
	require.NoError(t, err)
	assert.Equal(t, []diag.Code{diag.SynUnsupported}, codes(res.Diagnostics()))

	_, err = DiagnoseFile(context.Background(), "/proj/a.mjs", Options{FS: fs})
	assert.ErrorIs(t, err, ErrNoRule)
}
