package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nodeproto/internal/driver"
	"nodeproto/internal/observ"
	"nodeproto/internal/source"
)

// lintRequest describes one diag or fix run over a path.
type lintRequest struct {
	target string
	cfg    *runConfig
	opts   driver.Options
	ui     bool
}

// newLintRequest reads the shared run flags and resolves configuration.
func newLintRequest(cmd *cobra.Command, target string, log *zap.Logger) (*lintRequest, error) {
	cfg, err := loadCommandConfig(cmd, target, log)
	if err != nil {
		return nil, err
	}
	flags := cmd.Root().PersistentFlags()
	maxDiagnostics, err := flags.GetInt("max-diagnostics")
	if err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	showTimings, err := flags.GetBool("timings")
	if err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}

	opts := driver.Options{
		Rule:           cfg.rule,
		FS:             source.HostFS(),
		Extensions:     cfg.manifest.Config.Files.Extensions,
		Exclude:        cfg.manifest.Config.Files.Exclude,
		MaxDiagnostics: maxDiagnostics,
		Timings:        showTimings,
		Logger:         log,
	}
	if cmd.Flags().Lookup("jobs") != nil {
		if opts.Jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
			return nil, fmt.Errorf("failed to get jobs flag: %w", err)
		}
	}
	if cmd.Flags().Lookup("cache") != nil {
		useCache, err := cmd.Flags().GetBool("cache")
		if err != nil {
			return nil, fmt.Errorf("failed to get cache flag: %w", err)
		}
		if useCache {
			cache, err := driver.OpenDiskCache("nodeproto")
			if err != nil {
				// кэш необязателен
				log.Warn("disk cache unavailable", zap.Error(err))
			} else {
				opts.Cache = cache
			}
		}
	}
	return &lintRequest{target: target, cfg: cfg, opts: opts}, nil
}

// run lints the target: a directory goes through DiagnoseDir, anything else
// through DiagnoseFile.
func (req *lintRequest) run(ctx context.Context) (*driver.Result, error) {
	info, err := os.Stat(req.target)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}
	if !info.IsDir() {
		return driver.DiagnoseFile(ctx, req.target, req.opts)
	}
	if !req.ui {
		return driver.DiagnoseDir(ctx, req.target, req.opts)
	}
	files, err := driver.DiscoverFiles(req.opts.FS, req.target, req.opts.Extensions, req.opts.Exclude)
	if err != nil {
		return nil, err
	}
	return runLintWithUI(ctx, fmt.Sprintf("nodeproto %s", req.target), files, req.target, req.opts)
}

// timingReport picks the run total for directories and the file report otherwise.
func timingReport(res *driver.Result) *observ.Report {
	if res.Timing != nil {
		return res.Timing
	}
	if len(res.Files) == 1 {
		return res.Files[0].Timing
	}
	return nil
}
