package lint

import (
	"errors"
	"fmt"
	"strings"
)

// Rule identities.
const (
	RuleEnforceNodeProtocol = "enforce-node-protocol-usage"
	RulePreferNodeBuiltins  = "prefer-node-builtin-imports"
)

var (
	// ErrUnknownRule is returned for rule names without a preset.
	ErrUnknownRule = errors.New("unknown rule")
	// ErrMissingPolicy is returned when a rule requires an explicit policy.
	ErrMissingPolicy = errors.New("missing policy option")
)

// Preset describes one rule identity. Both presets run the same engine and
// differ only in how an unset policy is treated.
type Preset struct {
	Name        string
	Description string
	// DefaultPolicy is used when no policy is configured. Empty means the
	// policy is mandatory.
	DefaultPolicy string
}

var presets = []Preset{
	{
		Name:        RuleEnforceNodeProtocol,
		Description: "Enforce or forbid the `node:` protocol when importing Node.js builtin modules.",
	},
	{
		Name:          RulePreferNodeBuiltins,
		Description:   "Prefer using the `node:` protocol when importing Node.js builtin modules.",
		DefaultPolicy: "always",
	},
}

// Presets returns all rule identities in display order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// LookupPreset finds a preset by rule name.
func LookupPreset(name string) (Preset, error) {
	for _, p := range presets {
		if p.Name == name {
			return p, nil
		}
	}
	names := make([]string, 0, len(presets))
	for _, p := range presets {
		names = append(names, p.Name)
	}
	return Preset{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownRule, name, strings.Join(names, ", "))
}

// resolvePolicy applies the preset default to an unset value.
func (p Preset) resolvePolicy(value string) (string, error) {
	if value != "" {
		return value, nil
	}
	if p.DefaultPolicy == "" {
		return "", fmt.Errorf("rule %s: %w (want \"always\" or \"never\")", p.Name, ErrMissingPolicy)
	}
	return p.DefaultPolicy, nil
}
