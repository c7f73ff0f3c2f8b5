package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nodeproto/internal/builtins"
	"nodeproto/internal/lint"
	"nodeproto/internal/project"
	"nodeproto/internal/source"
)

// configOverrides are the rule flags that take precedence over nodeproto.toml.
type configOverrides struct {
	configPath string
	rule       string
	policy     string
	builtins   string
	node       string
}

func readOverrides(cmd *cobra.Command) (configOverrides, error) {
	flags := cmd.Root().PersistentFlags()
	var (
		o   configOverrides
		err error
	)
	if o.configPath, err = flags.GetString("config"); err != nil {
		return o, err
	}
	if o.rule, err = flags.GetString("rule"); err != nil {
		return o, err
	}
	if o.policy, err = flags.GetString("policy"); err != nil {
		return o, err
	}
	if o.builtins, err = flags.GetString("builtins"); err != nil {
		return o, err
	}
	if o.node, err = flags.GetString("node"); err != nil {
		return o, err
	}
	return o, nil
}

// runConfig is the fully resolved configuration of one invocation.
type runConfig struct {
	manifest *project.Manifest
	found    bool
	rule     *lint.Rule
}

// resolveConfig loads nodeproto.toml (explicit or discovered from target),
// applies flag overrides and builds the rule. Any error here is a
// configuration error and no file is linted.
func resolveConfig(ctx context.Context, fsys billy.Filesystem, target string, o configOverrides, log *zap.Logger) (*runConfig, error) {
	var (
		manifest *project.Manifest
		found    bool
		err      error
	)
	if o.configPath != "" {
		manifest, err = project.Load(fsys, o.configPath)
		found = true
	} else {
		manifest, found, err = project.Discover(fsys, target)
	}
	if err != nil {
		return nil, err
	}

	cfg := &manifest.Config
	if o.rule != "" {
		cfg.Rule.Name = o.rule
	}
	if o.policy != "" {
		cfg.Rule.Policy = o.policy
	}
	if o.builtins != "" {
		cfg.Builtins.Source = o.builtins
	}
	if o.node != "" {
		cfg.Builtins.Node = o.node
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg, err := loadRegistry(ctx, cfg.Builtins)
	if err != nil {
		return nil, err
	}
	rule, err := lint.New(lint.Options{
		Rule:     cfg.Rule.Name,
		Policy:   cfg.Rule.Policy,
		Severity: cfg.Rule.Severity,
		Registry: reg,
	})
	if err != nil {
		return nil, err
	}

	log.Debug("configuration resolved",
		zap.String("config", manifest.Path),
		zap.Bool("found", found),
		zap.String("rule", rule.Name()),
		zap.Stringer("policy", rule.Policy()),
		zap.String("builtins", cfg.Builtins.Source),
		zap.Int("registry", reg.Len()),
	)
	return &runConfig{manifest: manifest, found: found, rule: rule}, nil
}

func loadRegistry(ctx context.Context, cfg project.BuiltinsConfig) (*builtins.Registry, error) {
	var reg *builtins.Registry
	switch cfg.Source {
	case project.BuiltinsRuntime:
		r, err := builtins.FromRuntime(ctx, cfg.Node)
		if err != nil {
			return nil, fmt.Errorf("builtins: %w", err)
		}
		reg = r
	default:
		reg = builtins.Embedded()
	}
	return reg.With(cfg.Extra...), nil
}

// loadCommandConfig is the common prologue of diag and fix.
func loadCommandConfig(cmd *cobra.Command, target string, log *zap.Logger) (*runConfig, error) {
	o, err := readOverrides(cmd)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(target); err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}
	return resolveConfig(cmd.Context(), source.HostFS(), target, o, log)
}
