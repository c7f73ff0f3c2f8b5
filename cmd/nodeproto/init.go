package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"nodeproto/internal/project"
	"nodeproto/internal/source"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default nodeproto.toml",
		Long: `Create nodeproto.toml with the default rule, file and builtins settings.
If [path] is omitted, the current directory is used; a missing directory is
created.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) == 1 {
		target = args[0]
	}
	target, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	if st, err := os.Stat(target); err == nil && !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	fsys := source.HostFS()
	// конфиг выше по дереву продолжит действовать для соседних каталогов
	parent, shadowed, err := project.FindProjectRoot(fsys, filepath.Dir(target))
	if err != nil {
		return err
	}

	path, err := project.WriteDefault(fsys, target)
	if err != nil {
		if errors.Is(err, project.ErrConfigExists) {
			return fmt.Errorf("project already initialized: %w", err)
		}
		return err
	}

	rel := path
	if wd, err := os.Getwd(); err == nil {
		if r, err2 := filepath.Rel(wd, path); err2 == nil {
			rel = r
		}
	}
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", rel)
		if shadowed {
			fmt.Fprintf(cmd.OutOrStdout(), "  note: overrides %s\n", filepath.Join(parent, project.ConfigFileName))
		}
	}
	return nil
}
