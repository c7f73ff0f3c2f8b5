package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"nodeproto/internal/diag"
	"nodeproto/internal/source"
)

type palette struct {
	err, warn, info, note, code, path, gutter, caret, added, removed *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:     color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow, color.Bold),
		info:    color.New(color.FgBlue, color.Bold),
		note:    color.New(color.FgCyan),
		code:    color.New(color.Faint),
		path:    color.New(color.Bold),
		gutter:  color.New(color.FgBlue),
		caret:   color.New(color.FgRed, color.Bold),
		added:   color.New(color.FgGreen),
		removed: color.New(color.FgRed),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.code, p.path, p.gutter, p.caret, p.added, p.removed} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes и Fixes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	pal := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, d, fs, opts, pal)
	}
}

func prettyOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, pal palette) {
	start, _ := fs.Resolve(d.Primary)
	path := formatPath(fs, d.Primary.File, opts.PathMode)

	header := fmt.Sprintf("%s:%d:%d: %s %s: %s",
		pal.path.Sprint(path), start.Line, start.Col,
		pal.severity(d.Severity).Sprint(d.Severity.String()),
		pal.code.Sprint(d.Code.ID()),
		d.Message)
	if d.Rule != "" {
		header += " " + pal.code.Sprintf("[%s]", d.Rule)
	}
	fmt.Fprintln(w, header)

	writeSnippet(w, fs, d.Primary, opts, pal)

	if opts.ShowNotes {
		for _, note := range d.Notes {
			nStart, _ := fs.Resolve(note.Span)
			fmt.Fprintf(w, "  %s %s:%d:%d: %s\n",
				pal.note.Sprint("note:"),
				formatPath(fs, note.Span.File, opts.PathMode), nStart.Line, nStart.Col, note.Msg)
		}
	}

	if opts.ShowFixes {
		for idx, fix := range sortedFixes(d.Fixes) {
			line := fmt.Sprintf("  fix #%d: %s", idx+1, fix.Title)
			meta := []string{fix.Applicability.String()}
			if fix.ID != "" {
				meta = append(meta, "id="+fix.ID)
			}
			if fix.IsPreferred {
				meta = append(meta, "preferred")
			}
			fmt.Fprintf(w, "%s (%s)\n", line, strings.Join(meta, ", "))
			for _, edit := range fix.Edits {
				eStart, eEnd := fs.Resolve(edit.Span)
				fmt.Fprintf(w, "    %s:%d:%d-%d:%d apply=%s",
					formatPath(fs, edit.Span.File, opts.PathMode),
					eStart.Line, eStart.Col, eEnd.Line, eEnd.Col,
					strconv.Quote(edit.NewText))
				if edit.OldText != "" {
					fmt.Fprintf(w, " expect=%s", strconv.Quote(edit.OldText))
				}
				fmt.Fprintln(w)
				if opts.ShowPreview {
					writePreview(w, fs, edit, pal)
				}
			}
		}
	}
}

func writePreview(w io.Writer, fs *source.FileSet, edit diag.TextEdit, pal palette) {
	preview, err := buildFixEditPreview(fs, edit)
	if err != nil {
		return
	}
	fmt.Fprintln(w, "      preview:")
	for _, l := range preview.before {
		fmt.Fprintln(w, "        "+pal.removed.Sprint("- "+l))
	}
	for _, l := range preview.after {
		fmt.Fprintln(w, "        "+pal.added.Sprint("+ "+l))
	}
}

// writeSnippet печатает строку span'а (плюс Context строк вокруг) и подчёркивание.
func writeSnippet(w io.Writer, fs *source.FileSet, span source.Span, opts PrettyOpts, pal palette) {
	file := fs.Get(span.File)
	if file == nil {
		return
	}
	start, end := fs.Resolve(span)
	ctx := uint32(0)
	if opts.Context > 0 {
		ctx = uint32(opts.Context)
	}
	total := uint32(len(file.LineIdx)) + 1 //nolint:gosec // bounded by file size
	first := uint32(1)
	if start.Line > ctx {
		first = start.Line - ctx
	}
	last := min(start.Line+ctx, total)

	gutterWidth := len(strconv.FormatUint(uint64(last), 10))
	pad := strings.Repeat(" ", gutterWidth)

	for ln := first; ln <= last; ln++ {
		text := file.GetLine(ln)
		if ln == last && ln != start.Line && text == "" {
			break
		}
		if opts.Width > 0 {
			text = runewidth.Truncate(text, int(opts.Width), "…")
		}
		fmt.Fprintf(w, " %s %s %s\n", pal.gutter.Sprintf("%*d", gutterWidth, ln), pal.gutter.Sprint("|"), text)
		if ln != start.Line {
			continue
		}
		full := file.GetLine(ln)
		col := int(start.Col) - 1
		if col > len(full) {
			col = len(full)
		}
		endCol := len(full)
		if end.Line == start.Line {
			endCol = min(int(end.Col)-1, len(full))
		}
		fmt.Fprintf(w, " %s %s %s%s\n", pad, pal.gutter.Sprint("|"), indentFor(full[:col]), pal.caret.Sprint(underline(full[col:max(endCol, col)])))
	}
}

// indentFor повторяет ширину prefix пробелами, сохраняя табы.
func indentFor(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return b.String()
}

func underline(text string) string {
	width := runewidth.StringWidth(text)
	if width <= 1 {
		return "^"
	}
	return "^" + strings.Repeat("~", width-1)
}
