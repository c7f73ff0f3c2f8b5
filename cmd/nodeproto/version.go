package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"nodeproto/internal/version"
)

type versionInfo struct {
	Version    string
	GitCommit  string
	GitMessage string
	BuildDate  string
}

type versionOptions struct {
	format      string
	showHash    bool
	showMessage bool
	showDate    bool
	color       bool
}

type versionPayload struct {
	Tool       string `json:"tool"`
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit,omitempty"`
	GitMessage string `json:"git_message,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
}

func newVersionCmd() *cobra.Command {
	var (
		format      string
		showHash    bool
		showMessage bool
		showDate    bool
		showFull    bool
	)
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show nodeproto build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := versionOptions{
				format:      strings.ToLower(format),
				showHash:    showHash || showFull,
				showMessage: showMessage || showFull,
				showDate:    showDate || showFull,
			}

			switch opts.format {
			case "pretty", "json":
				// supported
			default:
				return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
			}

			info := collectVersionInfo()
			if opts.format == "json" {
				return renderVersionJSON(cmd.OutOrStdout(), info, opts)
			}
			colored, err := useColor(cmd)
			if err != nil {
				return err
			}
			opts.color = colored
			renderVersionPretty(cmd.OutOrStdout(), info, opts)
			return nil
		},
	}
	versionCmd.Flags().BoolVar(&showHash, "hash", false, "include git commit hash")
	versionCmd.Flags().BoolVar(&showMessage, "message", false, "include git commit message")
	versionCmd.Flags().BoolVar(&showDate, "date", false, "include build timestamp")
	versionCmd.Flags().BoolVar(&showFull, "full", false, "show every recorded bit of build metadata")
	versionCmd.Flags().StringVar(&format, "format", "pretty", "output format (pretty|json)")
	return versionCmd
}

func collectVersionInfo() versionInfo {
	v := strings.TrimSpace(version.Version)
	if v == "" {
		v = "dev"
	}
	return versionInfo{
		Version:    v,
		GitCommit:  strings.TrimSpace(version.GitCommit),
		GitMessage: strings.TrimSpace(version.GitMessage),
		BuildDate:  strings.TrimSpace(version.BuildDate),
	}
}

func renderVersionPretty(out io.Writer, info versionInfo, opts versionOptions) {
	v := info.Version
	if opts.color {
		v = version.Colored(v)
	}
	fmt.Fprintf(out, "nodeproto %s\n", v)
	if opts.showHash {
		fmt.Fprintf(out, "commit: %s\n", valueOrUnknown(info.GitCommit))
	}
	if opts.showMessage {
		fmt.Fprintf(out, "message: %s\n", valueOrUnknown(info.GitMessage))
	}
	if opts.showDate {
		fmt.Fprintf(out, "built:  %s\n", valueOrUnknown(info.BuildDate))
	}
}

func renderVersionJSON(out io.Writer, info versionInfo, opts versionOptions) error {
	payload := versionPayload{
		Tool:    "nodeproto",
		Version: info.Version,
	}
	if opts.showHash {
		payload.GitCommit = valueOrUnknown(info.GitCommit)
	}
	if opts.showMessage {
		payload.GitMessage = valueOrUnknown(info.GitMessage)
	}
	if opts.showDate {
		payload.BuildDate = valueOrUnknown(info.BuildDate)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
