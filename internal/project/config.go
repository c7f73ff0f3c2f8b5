package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Builtins sources.
const (
	BuiltinsEmbedded = "embedded"
	BuiltinsRuntime  = "runtime"
)

var (
	// ErrInvalidConfig wraps every validation failure of nodeproto.toml.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrConfigExists is returned by WriteDefault when the file is present.
	ErrConfigExists = errors.New("configuration already exists")
)

// Config mirrors nodeproto.toml.
type Config struct {
	Rule     RuleConfig     `toml:"rule"`
	Files    FilesConfig    `toml:"files"`
	Builtins BuiltinsConfig `toml:"builtins"`
}

type RuleConfig struct {
	Name     string `toml:"name"`
	Policy   string `toml:"policy"`
	Severity string `toml:"severity"`
}

type FilesConfig struct {
	Extensions []string `toml:"extensions"`
	Exclude    []string `toml:"exclude"`
}

type BuiltinsConfig struct {
	Source string   `toml:"source"`
	Node   string   `toml:"node"`
	Extra  []string `toml:"extra"`
}

// Manifest is a loaded configuration file.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// DefaultExtensions are the file extensions linted when none are configured.
var DefaultExtensions = []string{".js", ".mjs", ".cjs", ".jsx", ".ts", ".mts", ".cts", ".tsx"}

// DefaultExclude are directory names skipped during discovery.
var DefaultExclude = []string{"node_modules", ".git", "dist"}

// Default returns the configuration used when no file is found. The policy
// is left unset so the rule preset decides.
func Default() Config {
	return Config{
		Rule: RuleConfig{Name: "enforce-node-protocol-usage"},
		Files: FilesConfig{
			Extensions: slices.Clone(DefaultExtensions),
			Exclude:    slices.Clone(DefaultExclude),
		},
		Builtins: BuiltinsConfig{Source: BuiltinsEmbedded, Node: "node"},
	}
}

// Decode parses data on top of Default. Unknown keys are rejected.
func Decode(name string, data []byte) (Config, error) {
	cfg := Default()
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", name, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("%s: %w: unknown keys %s", name, ErrInvalidConfig, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", name, err)
	}
	return cfg, nil
}

// Validate checks the values that TOML typing cannot.
func (c *Config) Validate() error {
	switch c.Builtins.Source {
	case BuiltinsEmbedded, BuiltinsRuntime:
	default:
		return fmt.Errorf("%w: [builtins].source must be %q or %q, got %q", ErrInvalidConfig, BuiltinsEmbedded, BuiltinsRuntime, c.Builtins.Source)
	}
	if c.Builtins.Source == BuiltinsRuntime && strings.TrimSpace(c.Builtins.Node) == "" {
		return fmt.Errorf("%w: [builtins].node is empty", ErrInvalidConfig)
	}
	for i, ext := range c.Files.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("%w: [files].extensions[%d] %q must start with a dot", ErrInvalidConfig, i, ext)
		}
	}
	return nil
}

// Load reads and decodes the configuration at path.
func Load(fsys billy.Filesystem, path string) (*Manifest, error) {
	data, err := util.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cfg, err := Decode(path, data)
	if err != nil {
		return nil, err
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, nil
}

// Discover finds and loads nodeproto.toml above start. ok is false when no
// file exists; the returned manifest then carries Default.
func Discover(fsys billy.Filesystem, start string) (*Manifest, bool, error) {
	path, ok, err := FindConfig(fsys, start)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return &Manifest{Config: Default()}, false, nil
	}
	m, err := Load(fsys, path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// DefaultTemplate is written by `nodeproto init`.
const DefaultTemplate = `# nodeproto configuration

[rule]
name = "enforce-node-protocol-usage"   # or "prefer-node-builtin-imports"
policy = "always"                       # or "never"
severity = "error"

[files]
extensions = [".js", ".mjs", ".cjs", ".jsx", ".ts", ".mts", ".cts", ".tsx"]
exclude = ["node_modules", ".git", "dist"]

[builtins]
source = "embedded"                     # or "runtime"
node = "node"                           # binary used when source = "runtime"
extra = []                              # additional names treated as built-in
`

// WriteDefault creates dir/nodeproto.toml with DefaultTemplate.
func WriteDefault(fsys billy.Filesystem, dir string) (string, error) {
	path := filepath.Join(dir, ConfigFileName)
	if _, err := fsys.Stat(path); err == nil {
		return "", fmt.Errorf("%s: %w", path, ErrConfigExists)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to stat %q: %w", path, err)
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %q: %w", dir, err)
	}
	if err := util.WriteFile(fsys, path, []byte(DefaultTemplate), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
