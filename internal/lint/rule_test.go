package lint

import (
	"context"
	"errors"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodeproto/internal/builtins"
	"nodeproto/internal/diag"
	"nodeproto/internal/fix"
	"nodeproto/internal/jsast"
	"nodeproto/internal/nodeproto"
	"nodeproto/internal/source"
)

type lintResult struct {
	diags  []diag.Diagnostic
	output string
}

// run lints code as one virtual file and returns the diagnostics together
// with the text produced by applying every fix.
func run(t *testing.T, opts Options, code string) lintResult {
	t.Helper()
	rule, err := New(opts)
	require.NoError(t, err)

	fs := source.NewFileSet()
	id := fs.AddVirtual("input.js", []byte(code))
	tree, err := jsast.ParseBytes(context.Background(), id, jsast.DialectJavaScript, []byte(code))
	require.NoError(t, err)
	defer tree.Close()
	require.False(t, tree.HasError(), "fixture must parse: %s", code)

	bag := diag.NewBag(0)
	_, err = rule.Check(tree, diag.BagReporter{Bag: bag})
	require.NoError(t, err)

	out := code
	if bag.Len() > 0 {
		fixed, err := fix.Preview(fs, bag.Items())
		require.NoError(t, err)
		out = string(fixed[id])
	}
	return lintResult{diags: bag.Items(), output: out}
}

type invalidCase struct {
	code       string
	output     string
	moduleName string
}

var invalidCases = []invalidCase{
	{`import fs from "fs";`, `import fs from "node:fs";`, "fs"},
	{`export {promises} from "fs";`, `export {promises} from "node:fs";`, "fs"},
	{
		"\n    async function foo() {\n      const fs = await import('fs');\n    }",
		"\n    async function foo() {\n      const fs = await import('node:fs');\n    }",
		"fs",
	},
	{`import fs from "fs/promises";`, `import fs from "node:fs/promises";`, "fs/promises"},
	{`export {default} from "fs/promises";`, `export {default} from "node:fs/promises";`, "fs/promises"},
	{
		"\n    async function foo() {\n      const fs = await import('fs/promises');\n    }",
		"\n    async function foo() {\n      const fs = await import('node:fs/promises');\n    }",
		"fs/promises",
	},
	{`import {promises} from "fs";`, `import {promises} from "node:fs";`, "fs"},
	{`export {default as promises} from "fs";`, `export {default as promises} from "node:fs";`, "fs"},
	{
		"\n    async function foo() {\n      const fs = await import(\"fs/promises\");\n    }",
		"\n    async function foo() {\n      const fs = await import(\"node:fs/promises\");\n    }",
		"fs/promises",
	},
	{`import "buffer";`, `import "node:buffer";`, "buffer"},
	{`import "child_process";`, `import "node:child_process";`, "child_process"},
	{`import "timers/promises";`, `import "node:timers/promises";`, "timers/promises"},
	{`const {promises} = require("fs")`, `const {promises} = require("node:fs")`, "fs"},
	{`const fs = require("fs/promises")`, `const fs = require("node:fs/promises")`, "fs/promises"},
}

func TestInvalidAlways(t *testing.T) {
	for _, rule := range []string{RuleEnforceNodeProtocol, RulePreferNodeBuiltins} {
		for _, c := range invalidCases {
			res := run(t, Options{Rule: rule, Policy: "always"}, c.code)
			require.Len(t, res.diags, 1, c.code)
			d := res.diags[0]
			assert.Equal(t, diag.RulePreferNodeProtocol, d.Code)
			assert.Equal(t, "preferNodeBuiltinImports", d.MessageID)
			assert.Equal(t, rule, d.Rule)
			assert.Equal(t, map[string]string{"moduleName": c.moduleName}, d.Data)
			assert.Equal(t, "Prefer `node:"+c.moduleName+"` over `"+c.moduleName+"`.", d.Message)
			require.Len(t, d.Fixes, 1)
			assert.Equal(t, c.output, res.output, c.code)
		}
	}
}

func TestInvalidNeverIsTheFlippedTable(t *testing.T) {
	for _, c := range invalidCases {
		res := run(t, Options{Policy: "never"}, c.output)
		require.Len(t, res.diags, 1, c.output)
		d := res.diags[0]
		assert.Equal(t, diag.RuleNeverNodeProtocol, d.Code)
		assert.Equal(t, "neverPreferNodeBuiltinImports", d.MessageID)
		assert.Equal(t, map[string]string{"moduleName": c.moduleName}, d.Data)
		assert.Equal(t, "Prefer `"+c.moduleName+"` over `node:"+c.moduleName+"`.", d.Message)
		require.Len(t, d.Fixes, 1)
		require.Len(t, d.Fixes[0].Edits, 1)
		assert.Equal(t, "node:", d.Fixes[0].Edits[0].OldText)
		assert.Equal(t, c.code, res.output, c.output)
	}
}

func TestNeverFixesEscapedPrefix(t *testing.T) {
	cases := []struct{ code, output string }{
		{`import fs from 'n\x6fde:fs';`, `import fs from 'fs';`},
		{`const p = require("\u006eode:path");`, `const p = require("path");`},
		{`import fs from 'node\x3afs/promises';`, `import fs from 'fs/promises';`},
	}
	for _, c := range cases {
		res := run(t, Options{Policy: "never"}, c.code)
		require.Len(t, res.diags, 1, c.code)
		d := res.diags[0]
		assert.Equal(t, diag.RuleNeverNodeProtocol, d.Code)
		require.Len(t, d.Fixes, 1)
		assert.Equal(t, c.output, res.output, c.code)
		assert.Empty(t, run(t, Options{Policy: "never"}, res.output).diags)
	}
}

func TestFixIDsFollowMessageAndOffset(t *testing.T) {
	res := run(t, Options{Policy: "always"}, `import fs from "fs";`)
	require.Len(t, res.diags, 1)
	require.Len(t, res.diags[0].Fixes, 1)
	assert.Equal(t, "preferNodeBuiltinImports-15", res.diags[0].Fixes[0].ID)
}

func TestFixIsIdempotent(t *testing.T) {
	for _, policy := range []string{"always", "never"} {
		for _, c := range invalidCases {
			src := c.code
			if policy == "never" {
				src = c.output
			}
			first := run(t, Options{Policy: policy}, src)
			second := run(t, Options{Policy: policy}, first.output)
			assert.Empty(t, second.diags, "%s: %s", policy, first.output)
		}
	}
}

func TestValid(t *testing.T) {
	always := []string{
		`import unicorn from "unicorn";`,
		`import fs from "./fs";`,
		`import fs from "unknown-builtin-module";`,
		`import fs from "node:fs";`,
		"\n      async function foo() {\n        const fs = await import(fs);\n      }",
		"\n      async function foo() {\n      const fs = await import(0);\n      }",
		"\n      async function foo() {\n        const fs = await import(`fs`);\n      }",
		`import "punycode/";`,
		`const fs = require("node:fs");`,
		`const fs = require("node:fs/promises");`,
		`const fs = require(fs);`,
		`const fs = notRequire("fs");`,
		`const fs = foo.require("fs");`,
		`const fs = require.resolve("fs");`,
		"const fs = require(`fs`);",
		`const fs = require?.("fs");`,
		`const fs = require("fs", extra);`,
		`const fs = require();`,
		`const fs = require(...["fs"]);`,
		`const fs = require("unicorn");`,
		`export * from "fs";`,
	}
	for _, code := range always {
		res := run(t, Options{Policy: "always"}, code)
		assert.Empty(t, res.diags, code)
	}

	never := []string{
		`import fs from "fs";`,
		`const fs = require("fs");`,
		`const fs = require("fs/promises");`,
		`import "punycode/";`,
		`import x from "node:not-a-real-builtin";`,
	}
	for _, code := range never {
		res := run(t, Options{Policy: "never"}, code)
		assert.Empty(t, res.diags, code)
	}
}

func TestSeveralReferencesInOneFile(t *testing.T) {
	code := "import fs from 'fs';\nimport path from 'node:path';\nconst cp = require('child_process');\n"
	res := run(t, Options{Policy: "always"}, code)
	require.Len(t, res.diags, 2)
	assert.Equal(t, "fs", res.diags[0].Data["moduleName"])
	assert.Equal(t, "child_process", res.diags[1].Data["moduleName"])
	assert.Equal(t, "import fs from 'node:fs';\nimport path from 'node:path';\nconst cp = require('node:child_process');\n", res.output)
}

func TestNewConfigurationErrors(t *testing.T) {
	_, err := New(Options{Rule: RuleEnforceNodeProtocol})
	assert.True(t, errors.Is(err, ErrMissingPolicy), "%v", err)

	_, err = New(Options{})
	assert.True(t, errors.Is(err, ErrMissingPolicy), "%v", err)

	_, err = New(Options{Rule: RuleEnforceNodeProtocol, Policy: "sometimes"})
	assert.True(t, errors.Is(err, nodeproto.ErrUnknownPolicy), "%v", err)

	_, err = New(Options{Rule: RulePreferNodeBuiltins, Policy: "sometimes"})
	assert.True(t, errors.Is(err, nodeproto.ErrUnknownPolicy), "%v", err)

	_, err = New(Options{Rule: "no-such-rule", Policy: "always"})
	assert.True(t, errors.Is(err, ErrUnknownRule), "%v", err)

	_, err = New(Options{Policy: "always", Severity: "fatal"})
	assert.Error(t, err)
}

func TestPreferPresetDefaultsToAlways(t *testing.T) {
	rule, err := New(Options{Rule: RulePreferNodeBuiltins})
	require.NoError(t, err)
	assert.Equal(t, nodeproto.RequirePrefix, rule.Policy())
	assert.Equal(t, diag.SevError, rule.Severity())
	assert.Same(t, builtins.Embedded(), rule.Registry())
}

func TestCustomRegistryAndSeverity(t *testing.T) {
	reg := builtins.New("electron")
	res := run(t, Options{Policy: "always", Severity: "warn", Registry: reg}, `import e from "electron"; import fs from "fs";`)
	require.Len(t, res.diags, 1)
	assert.Equal(t, diag.SevWarning, res.diags[0].Severity)
	assert.Equal(t, "electron", res.diags[0].Data["moduleName"])
}

func TestPresetsAreCopies(t *testing.T) {
	ps := Presets()
	require.Len(t, ps, 2)
	ps[0].Name = "mutated"
	p, err := LookupPreset(RuleEnforceNodeProtocol)
	require.NoError(t, err)
	assert.Empty(t, p.DefaultPolicy)
}

func TestFixKeepsBOMAndCRLFBytes(t *testing.T) {
	cases := []struct {
		policy, in, want string
	}{
		{
			"always",
			"\ufeffimport fs from 'fs';\r\nconst a = require(\"path\");\r\n",
			"\ufeffimport fs from 'node:fs';\r\nconst a = require(\"node:path\");\r\n",
		},
		{
			"never",
			"\ufeffimport fs from 'node:fs';\r\nconst a = require(\"node:path\");\r\n",
			"\ufeffimport fs from 'fs';\r\nconst a = require(\"path\");\r\n",
		},
	}
	for _, c := range cases {
		mem := memfs.New()
		require.NoError(t, util.WriteFile(mem, "/proj/index.js", []byte(c.in), 0o644))

		rule, err := New(Options{Policy: c.policy})
		require.NoError(t, err)

		fs := source.NewFileSetWithBase("/proj")
		id, err := fs.Load(mem, "/proj/index.js")
		require.NoError(t, err)
		tree, err := jsast.Parse(context.Background(), fs.Get(id))
		require.NoError(t, err)
		require.False(t, tree.HasError())

		bag := diag.NewBag(0)
		_, err = rule.Check(tree, diag.BagReporter{Bag: bag})
		tree.Close()
		require.NoError(t, err)
		require.Equal(t, 2, bag.Len())

		res, err := fix.Apply(fs, bag.Items(), fix.ApplyOptions{Mode: fix.ApplyModeAll, FS: mem})
		require.NoError(t, err)
		require.Len(t, res.Applied, 2)

		got, err := util.ReadFile(mem, "/proj/index.js")
		require.NoError(t, err)
		assert.Equal(t, []byte(c.want), got, c.policy)
	}
}
