package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"nodeproto/internal/builtins"
	"nodeproto/internal/lint"
	"nodeproto/internal/nodeproto"
)

type ruleMessage struct {
	ID       string `json:"id"`
	Policy   string `json:"policy"`
	Template string `json:"template"`
}

type ruleInfo struct {
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	DefaultPolicy string        `json:"default_policy,omitempty"`
	Policies      []string      `json:"policies"`
	Messages      []ruleMessage `json:"messages"`
}

type rulesPayload struct {
	Rules    []ruleInfo `json:"rules"`
	Builtins int        `json:"embedded_builtins"`
	Digest   string     `json:"embedded_digest"`
}

func newRulesCmd() *cobra.Command {
	var format string
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "List rule identities, their messages and defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := collectRules()
			switch strings.ToLower(format) {
			case "pretty":
				renderRulesPretty(cmd.OutOrStdout(), payload)
				return nil
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			default:
				return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
			}
		},
	}
	rulesCmd.Flags().StringVar(&format, "format", "pretty", "output format (pretty|json)")
	return rulesCmd
}

func collectRules() rulesPayload {
	policies := nodeproto.Policies()
	names := make([]string, 0, len(policies))
	messages := make([]ruleMessage, 0, len(policies))
	for _, p := range policies {
		names = append(names, p.String())
		kind := nodeproto.MessagePreferPrefix
		if p == nodeproto.ForbidPrefix {
			kind = nodeproto.MessageDropPrefix
		}
		messages = append(messages, ruleMessage{ID: kind.ID(), Policy: p.String(), Template: kind.Template()})
	}

	presets := lint.Presets()
	out := rulesPayload{Rules: make([]ruleInfo, 0, len(presets))}
	for _, p := range presets {
		out.Rules = append(out.Rules, ruleInfo{
			Name:          p.Name,
			Description:   p.Description,
			DefaultPolicy: p.DefaultPolicy,
			Policies:      names,
			Messages:      messages,
		})
	}
	reg := builtins.Embedded()
	out.Builtins = reg.Len()
	out.Digest = reg.Digest()
	return out
}

func renderRulesPretty(w io.Writer, payload rulesPayload) {
	for i, r := range payload.Rules {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s\n  %s\n", r.Name, r.Description)
		def := r.DefaultPolicy
		if def == "" {
			def = "(required)"
		}
		fmt.Fprintf(w, "  policy: %s, default %s\n", strings.Join(r.Policies, "|"), def)
		for _, m := range r.Messages {
			fmt.Fprintf(w, "  %-6s %s: %s\n", m.Policy, m.ID, m.Template)
		}
	}
	fmt.Fprintf(w, "\nembedded builtins: %d (%.12s)\n", payload.Builtins, payload.Digest)
}
