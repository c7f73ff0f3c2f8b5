package nodeproto

import (
	"fmt"
	"strings"

	"nodeproto/internal/builtins"
	"nodeproto/internal/source"
)

// MessageKind identifies which of the two messages a finding uses.
type MessageKind uint8

const (
	// MessagePreferPrefix asks to add node: to a bare built-in.
	MessagePreferPrefix MessageKind = iota + 1
	// MessageDropPrefix asks to remove node: from a built-in.
	MessageDropPrefix
)

// ID returns the stable message identifier.
func (k MessageKind) ID() string {
	switch k {
	case MessagePreferPrefix:
		return "preferNodeBuiltinImports"
	case MessageDropPrefix:
		return "neverPreferNodeBuiltinImports"
	}
	return ""
}

// Template returns the message text with the {{moduleName}} placeholder.
func (k MessageKind) Template() string {
	switch k {
	case MessagePreferPrefix:
		return "Prefer `node:{{moduleName}}` over `{{moduleName}}`."
	case MessageDropPrefix:
		return "Prefer `{{moduleName}}` over `node:{{moduleName}}`."
	}
	return ""
}

// Format fills the template with moduleName.
func (k MessageKind) Format(moduleName string) string {
	return strings.ReplaceAll(k.Template(), "{{moduleName}}", moduleName)
}

// Edit replaces Span with NewText. A non-empty OldText must match the
// current text of Span for the edit to apply.
type Edit struct {
	Span    source.Span
	NewText string
	OldText string
}

// Finding is a policy violation with the edit that fixes it.
type Finding struct {
	Kind       MessageKind
	ModuleName string // без префикса node:
	Token      source.Span
	Edit       Edit
}

// Message renders the finding's text.
func (f Finding) Message() string {
	return f.Kind.Format(f.ModuleName)
}

// Evaluate checks ref against policy. It returns ok == false for conforming
// references and for names the registry does not know, node: prefixed
// unknown names included.
func Evaluate(ref ModuleReference, policy Policy, reg *builtins.Registry) (Finding, bool, error) {
	switch policy {
	case RequirePrefix:
		if strings.HasPrefix(ref.Value, Prefix) || !reg.Has(ref.Value) {
			return Finding{}, false, nil
		}
		at, err := BodyRange(ref.Token, 0, 0)
		if err != nil {
			return Finding{}, false, fmt.Errorf("insert %s: %w", Prefix, err)
		}
		return Finding{
			Kind:       MessagePreferPrefix,
			ModuleName: ref.Value,
			Token:      ref.Token,
			Edit:       Edit{Span: at, NewText: Prefix},
		}, true, nil

	case ForbidPrefix:
		if !strings.HasPrefix(ref.Value, Prefix) {
			return Finding{}, false, nil
		}
		name := ref.Value[len(Prefix):]
		if !reg.Has(name) {
			return Finding{}, false, nil
		}
		edit, err := dropPrefixEdit(ref, name)
		if err != nil {
			return Finding{}, false, fmt.Errorf("strip %s: %w", Prefix, err)
		}
		return Finding{
			Kind:       MessageDropPrefix,
			ModuleName: name,
			Token:      ref.Token,
			Edit:       edit,
		}, true, nil
	}
	return Finding{}, false, fmt.Errorf("%w: %s", ErrUnknownPolicy, policy)
}

// dropPrefixEdit removes the literal node: bytes when the source spells them
// out. A prefix written with escapes ('n\x6fde:fs') has no such bytes, so
// the whole body is replaced by the bare name instead.
func dropPrefixEdit(ref ModuleReference, name string) (Edit, error) {
	raw := rawBody(ref.Raw)
	if ref.Raw == "" || strings.HasPrefix(raw, Prefix) {
		span, err := BodyRange(ref.Token, 0, len(Prefix))
		if err != nil {
			return Edit{}, err
		}
		return Edit{Span: span, OldText: Prefix}, nil
	}
	span, err := BodyRange(ref.Token, 0, ToBodyEnd)
	if err != nil {
		return Edit{}, err
	}
	return Edit{Span: span, NewText: name, OldText: raw}, nil
}

func rawBody(raw string) string {
	if len(raw) < 2 {
		return ""
	}
	return raw[1 : len(raw)-1]
}
