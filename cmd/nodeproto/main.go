package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"nodeproto/internal/version"
)

// exitCodeError carries a process status without an extra message; the
// command has already printed what it had to say.
type exitCodeError struct {
	code int
}

func (e exitCodeError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// newRootCmd assembles the command tree. Every call returns fresh flag state.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nodeproto",
		Short: "Lint Node.js builtin imports for the node: protocol",
		Long: `nodeproto checks import, export, dynamic import and require() specifiers
of JavaScript and TypeScript files and enforces (or forbids) the node: prefix
for Node.js builtin modules.`,
		SilenceUsage: true,
		// Устанавливаем версию для автоматического флага --version
		Version: version.Version,
	}

	rootCmd.AddCommand(newDiagCmd())
	rootCmd.AddCommand(newFixCmd())
	rootCmd.AddCommand(newRulesCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console|json)")

	// Конфигурация правила
	rootCmd.PersistentFlags().String("config", "", "path to nodeproto.toml (default: discovered from the target)")
	rootCmd.PersistentFlags().String("rule", "", "rule identity (enforce-node-protocol-usage|prefer-node-builtin-imports)")
	rootCmd.PersistentFlags().String("policy", "", "node: protocol policy (always|never)")
	rootCmd.PersistentFlags().String("builtins", "", "builtin module list source (embedded|runtime)")
	rootCmd.PersistentFlags().String("node", "", "node binary used with --builtins runtime")

	// Профилирование
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to this file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to this file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a runtime trace to this file")

	return rootCmd
}

// main runs the root command. Diagnostics found exit with 1, configuration
// and usage problems with 2.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exitErr exitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		os.Exit(2)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the --color flag against the terminal state of stdout.
func useColor(cmd *cobra.Command) (bool, error) {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, err
	}
	switch colorFlag {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto", "":
		return isTerminal(os.Stdout), nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}
}
