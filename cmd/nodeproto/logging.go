package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds the process logger. Output always goes to stderr so that
// stdout stays machine-readable for json and sarif.
func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "console", "":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	case "json":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, fmt.Errorf("invalid --log-format %q (expected console|json)", format)
	}
	cfg.Level = lvl
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.Sampling = nil
	return cfg.Build()
}

func loggerFromFlags(cmd *cobra.Command) (*zap.Logger, error) {
	flags := cmd.Root().PersistentFlags()
	level, err := flags.GetString("log-level")
	if err != nil {
		return nil, err
	}
	format, err := flags.GetString("log-format")
	if err != nil {
		return nil, err
	}
	return newLogger(level, format)
}
