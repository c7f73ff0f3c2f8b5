package diag

import (
	"nodeproto/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

// TextEdit replaces the bytes covered by Span with NewText.
// When OldText is set the fix engine checks it against the current bytes first.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// FixKind classifies a fix for UI listings.
type FixKind uint8

const (
	FixKindQuickFix FixKind = iota
	FixKindRefactor
	FixKindSourceAction
)

func (k FixKind) String() string {
	switch k {
	case FixKindQuickFix:
		return "quickfix"
	case FixKindRefactor:
		return "refactor"
	case FixKindSourceAction:
		return "source"
	}
	return "unknown"
}

// FixApplicability describes how confident the producer is in a fix.
type FixApplicability uint8

const (
	FixApplicabilityAlwaysSafe FixApplicability = iota
	FixApplicabilitySafeWithHeuristics
	FixApplicabilityManualReview
)

func (a FixApplicability) String() string {
	switch a {
	case FixApplicabilityAlwaysSafe:
		return "always-safe"
	case FixApplicabilitySafeWithHeuristics:
		return "safe-with-heuristics"
	case FixApplicabilityManualReview:
		return "manual-review"
	}
	return "unknown"
}

type Fix struct {
	ID            string
	Title         string
	Kind          FixKind
	Applicability FixApplicability
	IsPreferred   bool
	Edits         []TextEdit
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix

	// Rule и MessageID заполняются только для диагностик правил.
	Rule      string
	MessageID string
	Data      map[string]string
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

func (d Diagnostic) WithFix(title string, edits ...TextEdit) Diagnostic {
	d.Fixes = append(d.Fixes, Fix{Title: title, Edits: edits})
	return d
}

// WithFixSuggestion appends a fully configured fix.
func (d Diagnostic) WithFixSuggestion(fix Fix) Diagnostic {
	d.Fixes = append(d.Fixes, fix)
	return d
}
