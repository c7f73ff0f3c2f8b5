package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"nodeproto/internal/fix"
	"nodeproto/internal/source"
)

func newFixCmd() *cobra.Command {
	fixCmd := &cobra.Command{
		Use:   "fix [flags] [file|directory]",
		Short: "Add or remove the node: prefix where the policy asks for it",
		Long: `Run the rule and apply its fixes. Directories default to --all, single
files to --once.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runFix,
	}
	fixCmd.Flags().Bool("all", false, "apply all safe fixes (default for directories)")
	fixCmd.Flags().Bool("once", false, "apply the first available fix (default for files)")
	fixCmd.Flags().String("id", "", "apply fix with a specific identifier")
	fixCmd.Flags().Bool("dry-run", false, "print the fixed content instead of writing files")
	fixCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	return fixCmd
}

func runFix(cmd *cobra.Command, args []string) error {
	targetPath := "."
	if len(args) == 1 {
		targetPath = args[0]
	}

	applyAll, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	applyOnceFlag, err := cmd.Flags().GetBool("once")
	if err != nil {
		return err
	}
	targetID, err := cmd.Flags().GetString("id")
	if err != nil {
		return err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}

	if targetID != "" && (applyAll || applyOnceFlag) {
		return fmt.Errorf("--id cannot be combined with --all or --once")
	}
	if applyAll && applyOnceFlag {
		return fmt.Errorf("--all and --once are mutually exclusive")
	}

	info, err := os.Stat(targetPath)
	if err != nil {
		return fmt.Errorf("fix: %w", err)
	}
	// id уникален только в пределах одного файла
	if info.IsDir() && targetID != "" {
		return fmt.Errorf("fix: id can only be used with a single file")
	}

	mode := fix.ApplyModeOnce
	switch {
	case targetID != "":
		mode = fix.ApplyModeID
	case applyAll:
		mode = fix.ApplyModeAll
	case !applyOnceFlag && info.IsDir():
		mode = fix.ApplyModeAll
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

	req, err := newLintRequest(cmd, targetPath, log)
	if err != nil {
		return err
	}
	result, err := req.run(cmd.Context())
	if err != nil {
		return fmt.Errorf("fix: diagnose failed: %w", err)
	}

	res, applyErr := fix.Apply(result.FileSet, result.Diagnostics(), fix.ApplyOptions{
		Mode:     mode,
		TargetID: targetID,
		FS:       source.HostFS(),
		DryRun:   dryRun,
	})
	return handleApplyResult(cmd.OutOrStdout(), res, applyErr, dryRun)
}

func handleApplyResult(out io.Writer, res *fix.ApplyResult, applyErr error, dryRun bool) error {
	if res == nil {
		return applyErr
	}
	var printErr error

	if len(res.Applied) > 0 {
		verb := "Applied"
		if dryRun {
			verb = "Would apply"
		}
		_, printErr = fmt.Fprintf(out, "%s %d fix(es):\n", verb, len(res.Applied))
		if printErr != nil {
			return printErr
		}
		for _, item := range res.Applied {
			location := item.PrimaryPath
			if location == "" {
				location = "(unknown location)"
			}
			_, printErr = fmt.Fprintf(
				out,
				"  %s [%s]: %s (%d edits, %s)\n",
				item.Title,
				item.ID,
				location,
				item.EditCount,
				item.Applicability.String(),
			)
			if printErr != nil {
				return printErr
			}
		}
	}

	if len(res.FileChanges) > 0 {
		header := "Updated files:"
		if dryRun {
			header = "Fixed content:"
		}
		_, printErr = fmt.Fprintln(out, header)
		if printErr != nil {
			return printErr
		}
		for _, change := range res.FileChanges {
			_, printErr = fmt.Fprintf(out, "  %s (%d edits)\n", change.Path, change.EditCount)
			if printErr != nil {
				return printErr
			}
			if dryRun {
				_, printErr = fmt.Fprintf(out, "--- %s\n%s", change.Path, change.Content)
				if printErr != nil {
					return printErr
				}
				if n := len(change.Content); n > 0 && change.Content[n-1] != '\n' {
					fmt.Fprintln(out)
				}
			}
		}
	}

	if len(res.Skipped) > 0 {
		_, printErr = fmt.Fprintln(out, "Skipped fixes:")
		if printErr != nil {
			return printErr
		}
		for _, skip := range res.Skipped {
			id := skip.ID
			if id == "" {
				id = "(unnamed)"
			}
			if skip.Title != "" {
				_, printErr = fmt.Fprintf(out, "  %s [%s]: %s\n", skip.Title, id, skip.Reason)
			} else {
				_, printErr = fmt.Fprintf(out, "  [%s]: %s\n", id, skip.Reason)
			}
			if printErr != nil {
				return printErr
			}
		}
	}

	if applyErr != nil {
		if errors.Is(applyErr, fix.ErrNoFixes) && len(res.Applied) == 0 {
			_, printErr = fmt.Fprintln(out, "No applicable fixes found.")
			return printErr
		}
		return applyErr
	}

	if len(res.Applied) == 0 {
		_, printErr = fmt.Fprintln(out, "No fixes applied.")
		return printErr
	}
	return nil
}
