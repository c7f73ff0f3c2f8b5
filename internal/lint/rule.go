// Package lint binds the node: protocol engine to rule identities and turns
// its findings into diagnostics with fixes.
package lint

import (
	"fmt"

	"nodeproto/internal/builtins"
	"nodeproto/internal/diag"
	"nodeproto/internal/fix"
	"nodeproto/internal/jsast"
	"nodeproto/internal/nodeproto"
)

// Options configure a rule instance for one run.
type Options struct {
	Rule     string             // пустое значение = enforce-node-protocol-usage
	Policy   string             // "always", "never" или пусто
	Severity string             // "error" (по умолчанию), "warning", "info"
	Registry *builtins.Registry // nil = встроенный список
}

// Rule is a configured instance. It holds no per-file state and may be
// shared by several goroutines.
type Rule struct {
	preset   Preset
	policy   nodeproto.Policy
	severity diag.Severity
	registry *builtins.Registry
}

// New validates opts. Every configuration problem surfaces here, before any
// file is visited.
func New(opts Options) (*Rule, error) {
	name := opts.Rule
	if name == "" {
		name = RuleEnforceNodeProtocol
	}
	preset, err := LookupPreset(name)
	if err != nil {
		return nil, err
	}
	raw, err := preset.resolvePolicy(opts.Policy)
	if err != nil {
		return nil, err
	}
	policy, err := nodeproto.ParsePolicy(raw)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", preset.Name, err)
	}
	sev, err := diag.ParseSeverity(opts.Severity)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", preset.Name, err)
	}
	reg := opts.Registry
	if reg == nil {
		reg = builtins.Embedded()
	}
	return &Rule{preset: preset, policy: policy, severity: sev, registry: reg}, nil
}

func (r *Rule) Name() string                 { return r.preset.Name }
func (r *Rule) Policy() nodeproto.Policy     { return r.policy }
func (r *Rule) Registry() *builtins.Registry { return r.registry }
func (r *Rule) Severity() diag.Severity      { return r.severity }

// Findings walks tree once and evaluates every module reference in it.
func (r *Rule) Findings(tree *jsast.Tree) ([]nodeproto.Finding, error) {
	var (
		findings []nodeproto.Finding
		firstErr error
	)
	visit := func(n jsast.Node) {
		if firstErr != nil {
			return
		}
		ref, ok := nodeproto.Classify(n)
		if !ok {
			return
		}
		f, ok, err := nodeproto.Evaluate(ref, r.policy, r.registry)
		if err != nil {
			firstErr = err
			return
		}
		if ok {
			findings = append(findings, f)
		}
	}
	jsast.Walk(tree, jsast.Visitor{
		Import:        visit,
		ReExport:      visit,
		DynamicImport: visit,
		Call:          visit,
	})
	if firstErr != nil {
		return nil, fmt.Errorf("rule %s: %w", r.preset.Name, firstErr)
	}
	return findings, nil
}

// Report emits one diagnostic with one fix per finding.
func (r *Rule) Report(rep diag.Reporter, findings []nodeproto.Finding) {
	for _, f := range findings {
		r.reportOne(rep, f)
	}
}

// Check is Findings followed by Report. It returns the number of diagnostics.
func (r *Rule) Check(tree *jsast.Tree, rep diag.Reporter) (int, error) {
	findings, err := r.Findings(tree)
	if err != nil {
		return 0, err
	}
	r.Report(rep, findings)
	return len(findings), nil
}

func (r *Rule) reportOne(rep diag.Reporter, f nodeproto.Finding) {
	// id стабилен между запусками: fix --id <id>
	id := fix.WithID(fmt.Sprintf("%s-%d", f.Kind.ID(), f.Token.Start))
	code := diag.RulePreferNodeProtocol
	suggestion := fix.InsertText("Add `node:` prefix", f.Edit.Span, f.Edit.NewText, fix.Preferred(), id)
	switch {
	case f.Kind == nodeproto.MessageDropPrefix && f.Edit.NewText != "":
		code = diag.RuleNeverNodeProtocol
		suggestion = fix.ReplaceSpan("Replace with `"+f.ModuleName+"`", f.Edit.Span, f.Edit.NewText, f.Edit.OldText, fix.Preferred(), id)
	case f.Kind == nodeproto.MessageDropPrefix:
		code = diag.RuleNeverNodeProtocol
		suggestion = fix.DeleteSpan("Remove `node:` prefix", f.Edit.Span, f.Edit.OldText, fix.Preferred(), id)
	}
	diag.NewReportBuilder(rep, r.severity, code, f.Token, f.Message()).
		WithRule(r.preset.Name, f.Kind.ID(), map[string]string{"moduleName": f.ModuleName}).
		WithFixSuggestion(suggestion).
		Emit()
}
