package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"nodeproto/internal/diag"
	"nodeproto/internal/diagfmt"
	"nodeproto/internal/driver"
	"nodeproto/internal/version"
)

func newDiagCmd() *cobra.Command {
	diagCmd := &cobra.Command{
		Use:   "diag [flags] [file|directory]",
		Short: "Report builtin module specifiers that violate the node: policy",
		Long: `Lint a JavaScript/TypeScript file or every matching file within a directory.
Exits with status 1 when any diagnostic is reported.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runDiagnose,
	}
	diagCmd.Flags().String("format", "pretty", "output format (pretty|short|json|sarif)")
	diagCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	diagCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	diagCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	diagCmd.Flags().Bool("preview", false, "preview fixed source lines")
	diagCmd.Flags().String("path-mode", "auto", "how to print file paths (auto|relative|absolute|basename)")
	diagCmd.Flags().Bool("cache", false, "reuse results from the persistent disk cache")
	diagCmd.Flags().String("ui", "auto", "progress UI for directories (auto|on|off)")
	return diagCmd
}

type diagOutput struct {
	format    string
	pathMode  diagfmt.PathMode
	withNotes bool
	suggest   bool
	preview   bool
	color     bool
	quiet     bool
	timings   bool
	max       int
}

func readDiagOutput(cmd *cobra.Command) (diagOutput, error) {
	var (
		out diagOutput
		err error
	)
	if out.format, err = cmd.Flags().GetString("format"); err != nil {
		return out, fmt.Errorf("failed to get format flag: %w", err)
	}
	switch out.format {
	case "pretty", "short", "json", "sarif":
	default:
		return out, fmt.Errorf("unknown format: %s", out.format)
	}
	pathMode, err := cmd.Flags().GetString("path-mode")
	if err != nil {
		return out, fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	if out.pathMode, err = diagfmt.ParsePathMode(pathMode); err != nil {
		return out, err
	}
	if out.withNotes, err = cmd.Flags().GetBool("with-notes"); err != nil {
		return out, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if out.suggest, err = cmd.Flags().GetBool("suggest"); err != nil {
		return out, fmt.Errorf("failed to get suggest flag: %w", err)
	}
	if out.preview, err = cmd.Flags().GetBool("preview"); err != nil {
		return out, fmt.Errorf("failed to get preview flag: %w", err)
	}
	if out.color, err = useColor(cmd); err != nil {
		return out, err
	}
	flags := cmd.Root().PersistentFlags()
	if out.quiet, err = flags.GetBool("quiet"); err != nil {
		return out, err
	}
	if out.timings, err = flags.GetBool("timings"); err != nil {
		return out, err
	}
	if out.max, err = flags.GetInt("max-diagnostics"); err != nil {
		return out, err
	}
	return out, nil
}

// runDiagnose lints the target (default ".") and prints diagnostics in the
// chosen format. Diagnostics found make the command exit with status 1.
func runDiagnose(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) == 1 {
		target = args[0]
	}
	out, err := readDiagOutput(cmd)
	if err != nil {
		return err
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}

	log, err := loggerFromFlags(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cleanup, err := setupProfiling(cmd, log)
	if err != nil {
		return err
	}
	defer cleanup()

	req, err := newLintRequest(cmd, target, log)
	if err != nil {
		return err
	}
	// TUI только для человекочитаемого вывода
	req.ui = out.format == "pretty" && !out.quiet && shouldUseTUI(mode)

	result, err := req.run(cmd.Context())
	if err != nil {
		return fmt.Errorf("diagnosis failed: %w", err)
	}

	if err := writeDiagnostics(cmd.OutOrStdout(), cmd.ErrOrStderr(), result, out); err != nil {
		return err
	}
	if result.HasProblems() {
		// диагностики уже напечатаны, cobra не должна добавлять "Error: ..."
		cmd.SilenceErrors = true
		return exitCodeError{code: 1}
	}
	return nil
}

func writeDiagnostics(stdout, stderr io.Writer, result *driver.Result, out diagOutput) error {
	bag := result.Bag(out.max)
	fs := result.FileSet
	showFixes := out.suggest || out.preview

	switch out.format {
	case "pretty":
		diagfmt.Pretty(stdout, bag, fs, diagfmt.PrettyOpts{
			Color:       out.color,
			Context:     2,
			PathMode:    out.pathMode,
			ShowNotes:   out.withNotes,
			ShowFixes:   showFixes,
			ShowPreview: out.preview,
		})
	case "short":
		output := diag.FormatShortDiagnostics(bag.Items(), fs, out.withNotes)
		if output != "" {
			fmt.Fprintln(stdout, output)
		}
	case "json":
		if err := diagfmt.JSON(stdout, bag, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         out.pathMode,
			IncludeNotes:     out.withNotes,
			IncludeFixes:     showFixes,
			IncludePreviews:  out.preview,
		}); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	case "sarif":
		meta := diagfmt.SarifRunMeta{
			ToolName:       "nodeproto",
			ToolVersion:    version.Version,
			InvocationArgs: os.Args[1:],
			PathMode:       out.pathMode,
		}
		if err := diagfmt.Sarif(stdout, bag, fs, meta); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	default:
		return fmt.Errorf("unknown format: %s", out.format)
	}

	if out.timings && (out.format == "pretty" || out.format == "short") {
		if rep := timingReport(result); rep != nil {
			fmt.Fprintf(stderr, "timings: %.2fms total\n", rep.TotalMS)
			for _, ph := range rep.Phases {
				fmt.Fprintf(stderr, "  %-8s %8.2fms\n", ph.Name, ph.DurationMS)
			}
		}
	}
	if !out.quiet && out.format == "pretty" {
		problems := 0
		for _, d := range result.Diagnostics() {
			if d.Code != diag.ObsTimings {
				problems++
			}
		}
		if dropped := bag.Dropped(); dropped > 0 {
			fmt.Fprintf(stderr, "%d diagnostic(s) not shown (--max-diagnostics %d)\n", dropped, out.max)
		}
		fmt.Fprintf(stderr, "%d problem(s) in %d file(s)\n", problems, len(result.Files))
	}
	return nil
}
