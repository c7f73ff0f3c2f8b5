package project

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

func TestDecodeDefaultTemplate(t *testing.T) {
	cfg, err := Decode("nodeproto.toml", []byte(DefaultTemplate))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Rule.Name != "enforce-node-protocol-usage" || cfg.Rule.Policy != "always" {
		t.Fatalf("rule = %+v", cfg.Rule)
	}
	if !slices.Equal(cfg.Files.Extensions, DefaultExtensions) {
		t.Fatalf("extensions = %v", cfg.Files.Extensions)
	}
	if cfg.Builtins.Source != BuiltinsEmbedded || cfg.Builtins.Node != "node" {
		t.Fatalf("builtins = %+v", cfg.Builtins)
	}
}

func TestDecodeKeepsDefaultsForMissingTables(t *testing.T) {
	cfg, err := Decode("x.toml", []byte("[rule]\npolicy = \"never\"\n"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Rule.Policy != "never" || cfg.Rule.Name != "enforce-node-protocol-usage" {
		t.Fatalf("rule = %+v", cfg.Rule)
	}
	if !slices.Equal(cfg.Files.Exclude, DefaultExclude) {
		t.Fatalf("exclude = %v", cfg.Files.Exclude)
	}
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":    "[rule]\npolcy = \"always\"\n",
		"unknown table":  "[rules]\nname = \"x\"\n",
		"bad source":     "[builtins]\nsource = \"network\"\n",
		"empty node":     "[builtins]\nsource = \"runtime\"\nnode = \"\"\n",
		"bad extension":  "[files]\nextensions = [\"js\"]\n",
		"malformed toml": "[rule\n",
		"wrong type":     "[rule]\npolicy = 1\n",
	}
	for name, data := range cases {
		if _, err := Decode("x.toml", []byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	_, err := Decode("x.toml", []byte("[rule]\npolcy = \"always\"\n"))
	if !errors.Is(err, ErrInvalidConfig) || !strings.Contains(err.Error(), "rule.polcy") {
		t.Fatalf("unknown key error = %v", err)
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	fs := memfs.New()
	if err := util.WriteFile(fs, "/proj/nodeproto.toml", []byte("[rule]\npolicy = \"never\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := util.WriteFile(fs, "/proj/src/lib/a.js", []byte("import fs from 'fs';\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, ok, err := Discover(fs, "/proj/src/lib/a.js")
	if err != nil || !ok {
		t.Fatalf("Discover: ok=%v err=%v", ok, err)
	}
	if m.Path != filepath.FromSlash("/proj/nodeproto.toml") || m.Root != filepath.FromSlash("/proj") {
		t.Fatalf("manifest = %+v", m)
	}
	if m.Config.Rule.Policy != "never" {
		t.Fatalf("policy = %q", m.Config.Rule.Policy)
	}

	root, ok, err := FindProjectRoot(fs, "/proj/src")
	if err != nil || !ok || root != filepath.FromSlash("/proj") {
		t.Fatalf("FindProjectRoot = %q, %v, %v", root, ok, err)
	}
}

func TestDiscoverWithoutFile(t *testing.T) {
	fs := memfs.New()
	if err := fs.MkdirAll("/empty/dir", 0o755); err != nil {
		t.Fatal(err)
	}
	m, ok, err := Discover(fs, "/empty/dir")
	if err != nil || ok {
		t.Fatalf("Discover: ok=%v err=%v", ok, err)
	}
	if m.Config.Builtins.Source != BuiltinsEmbedded || m.Config.Rule.Policy != "" {
		t.Fatalf("default config = %+v", m.Config)
	}
}

func TestWriteDefault(t *testing.T) {
	fs := memfs.New()
	path, err := WriteDefault(fs, "/new")
	if err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}
	data, err := util.ReadFile(fs, path)
	if err != nil || string(data) != DefaultTemplate {
		t.Fatalf("written content mismatch: %v", err)
	}
	if _, err := WriteDefault(fs, "/new"); !errors.Is(err, ErrConfigExists) {
		t.Fatalf("second WriteDefault: %v", err)
	}
}
