// Package diag defines the diagnostic model shared by the loader, the parser
// front-end and the lint rules.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form
//     such as "NPR5001". Rule codes map one-to-one onto rule message ids.
//   - Message – human oriented text, already interpolated.
//   - Primary span – the canonical source.Span pointing to the issue.
//   - Rule, MessageID, Data – set for rule findings so that output formats can
//     carry the rule identity and the template data ({moduleName}).
//   - Fixes – optional Fix records describing how to address the problem.
//
// # Fix suggestions
//
// Fix represents a possible automated correction: Title, Kind, Applicability,
// IsPreferred and the concrete Edits. TextEdit spans are in raw source
// coordinates; OldText is an optional guard the fix engine checks before
// applying an edit.
//
// # Emitting diagnostics
//
// Producers use a Reporter and never touch storage directly. ReportBuilder
// (NewReportBuilder / ReportError / ReportWarning) collects notes, rule
// metadata and fixes before Emit. BagReporter aggregates into a Bag, which
// supports sorting, deduplication, filtering and a size limit.
//
// Package diag does no IO and no formatting beyond the one-line short form;
// rendering lives in internal/diagfmt, applying fixes in internal/fix.
package diag
