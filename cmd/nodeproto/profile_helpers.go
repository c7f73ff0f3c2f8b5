package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nodeproto/internal/prof"
)

// setupProfiling starts the profilers requested by the persistent profiling
// flags. The returned cleanup is safe to call more than once.
func setupProfiling(cmd *cobra.Command, log *zap.Logger) (func(), error) {
	flags := cmd.Root().PersistentFlags()
	var (
		opts prof.Options
		err  error
	)
	if opts.CPU, err = flags.GetString("cpu-profile"); err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	if opts.Heap, err = flags.GetString("mem-profile"); err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if opts.Trace, err = flags.GetString("runtime-trace"); err != nil {
		return nil, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	session, err := prof.Start(opts)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := session.Stop(); err != nil {
			log.Warn("profiling output incomplete", zap.Error(err))
		}
	}, nil
}
