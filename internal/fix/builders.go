package fix

import (
	"nodeproto/internal/diag"
	"nodeproto/internal/source"
)

// Option mutates fix during construction.
type Option func(*diag.Fix)

// Preferred marks fix as preferred suggestion.
func Preferred() Option {
	return func(f *diag.Fix) {
		f.IsPreferred = true
	}
}

// WithID sets stable identifier for fix.
func WithID(id string) Option {
	return func(f *diag.Fix) {
		f.ID = id
	}
}

func applyOptions(f diag.Fix, opts []Option) diag.Fix {
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

func single(title string, edit diag.TextEdit, opts []Option) diag.Fix {
	fix := diag.Fix{
		Title:         title,
		Kind:          diag.FixKindQuickFix,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		Edits:         []diag.TextEdit{edit},
	}
	return applyOptions(fix, opts)
}

// InsertText creates fix that inserts text at a zero-width span.
func InsertText(title string, at source.Span, text string, opts ...Option) diag.Fix {
	at.End = at.Start
	return single(title, diag.TextEdit{Span: at, NewText: text}, opts)
}

// DeleteSpan removes text covered by span; expect guards the removed bytes.
func DeleteSpan(title string, span source.Span, expect string, opts ...Option) diag.Fix {
	return single(title, diag.TextEdit{Span: span, OldText: expect}, opts)
}

// ReplaceSpan replaces text covered by span with newText.
func ReplaceSpan(title string, span source.Span, newText, expect string, opts ...Option) diag.Fix {
	return single(title, diag.TextEdit{Span: span, NewText: newText, OldText: expect}, opts)
}
