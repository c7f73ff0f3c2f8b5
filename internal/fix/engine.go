package fix

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"nodeproto/internal/diag"
	"nodeproto/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode determines selection strategy for fixes.
type ApplyMode uint8

const (
	ApplyModeOnce ApplyMode = iota
	ApplyModeAll
	ApplyModeID
)

func (m ApplyMode) String() string {
	switch m {
	case ApplyModeOnce:
		return "once"
	case ApplyModeAll:
		return "all"
	case ApplyModeID:
		return "id"
	}
	return "unknown"
}

// ApplyOptions configures how fixes are selected and where results go.
type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
	// FS receives the rewritten files; nil means the host filesystem.
	FS billy.Filesystem
	// DryRun computes FileChange.Content without writing anything.
	DryRun bool
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	ID            string
	Title         string
	Code          diag.Code
	Message       string
	Applicability diag.FixApplicability
	PrimaryPath   string
	EditCount     int
}

// SkippedFix captures a skipped or failed fix with a reason.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// FileChange summarises modifications performed on a file.
type FileChange struct {
	Path      string
	EditCount int
	Content   []byte
}

// ApplyResult aggregates applied fixes, skipped ones, and file changes.
type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

type candidate struct {
	diag  diag.Diagnostic
	fix   diag.Fix
	order int
}

// Apply collects fixes from diagnostics, selects a subset according to opts, and applies them.
func Apply(fs *source.FileSet, diagnostics []diag.Diagnostic, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{
		Applied:     make([]AppliedFix, 0),
		Skipped:     make([]SkippedFix, 0),
		FileChanges: make([]FileChange, 0),
	}
	if fs == nil {
		return result, fmt.Errorf("fix: FileSet is nil")
	}

	candidates, buildSkips := gatherCandidates(diagnostics)
	result.Skipped = append(result.Skipped, buildSkips...)
	if len(candidates) == 0 {
		return result, ErrNoFixes
	}

	sortCandidates(candidates)

	selected, selectionSkips := selectCandidates(candidates, opts)
	result.Skipped = append(result.Skipped, selectionSkips...)
	if len(selected) == 0 {
		return result, ErrNoFixes
	}

	st := applyCandidates(fs, selected, false)
	result.Applied = append(result.Applied, st.applied...)
	result.Skipped = append(result.Skipped, st.skipped...)
	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}

	fsys := opts.FS
	if fsys == nil {
		fsys = source.HostFS()
	}
	changes, err := st.commit(fs, fsys, opts.DryRun)
	result.FileChanges = append(result.FileChanges, changes...)
	return result, err
}

// Preview applies every always-safe fix in memory, virtual files included,
// and returns the resulting content per touched file.
func Preview(fs *source.FileSet, diagnostics []diag.Diagnostic) (map[source.FileID][]byte, error) {
	if fs == nil {
		return nil, fmt.Errorf("fix: FileSet is nil")
	}
	candidates, _ := gatherCandidates(diagnostics)
	sortCandidates(candidates)
	selected, _ := selectCandidates(candidates, ApplyOptions{Mode: ApplyModeAll})
	if len(selected) == 0 {
		return nil, ErrNoFixes
	}
	st := applyCandidates(fs, selected, true)
	if len(st.applied) == 0 {
		return nil, ErrNoFixes
	}
	out := make(map[source.FileID][]byte, len(st.dirty))
	for fileID := range st.dirty {
		out[fileID] = st.buffers[fileID]
	}
	return out, nil
}

// gatherCandidates builds a list of candidate fixes from diagnostics and reports any skips encountered.
// Fixes without edits and repeated fix IDs are skipped; a missing ID is synthesised
// from the diagnostic code, file, start position and fix index.
func gatherCandidates(diagnostics []diag.Diagnostic) ([]candidate, []SkippedFix) {
	cands := make([]candidate, 0)
	skips := make([]SkippedFix, 0)
	seen := make(map[string]struct{})

	order := 0
	for _, d := range diagnostics {
		for idx, f := range d.Fixes {
			if len(f.Edits) == 0 {
				skips = append(skips, SkippedFix{
					ID:     f.ID,
					Title:  f.Title,
					Reason: "fix has no edits",
				})
				continue
			}
			if f.ID == "" {
				f.ID = fmt.Sprintf("%s-%d-%d-%d", d.Code.ID(), d.Primary.File, d.Primary.Start, idx)
			}
			if _, dup := seen[f.ID]; dup {
				skips = append(skips, SkippedFix{
					ID:     f.ID,
					Title:  f.Title,
					Reason: "duplicate fix id",
				})
				continue
			}
			seen[f.ID] = struct{}{}
			cands = append(cands, candidate{
				diag:  d,
				fix:   f,
				order: order,
			})
			order++
		}
	}
	return cands, skips
}

// sortCandidates sorts the candidate slice in-place to produce a deterministic
// selection order: file, span start, span end, insertion order, code,
// preferred first, fix ID, title.
func sortCandidates(candidates []candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		di, dj := candidates[i].diag, candidates[j].diag
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Primary.End != dj.Primary.End {
			return di.Primary.End < dj.Primary.End
		}
		if candidates[i].order != candidates[j].order {
			return candidates[i].order < candidates[j].order
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		if candidates[i].fix.IsPreferred != candidates[j].fix.IsPreferred {
			return candidates[i].fix.IsPreferred
		}
		if candidates[i].fix.ID != candidates[j].fix.ID {
			return candidates[i].fix.ID < candidates[j].fix.ID
		}
		return candidates[i].fix.Title < candidates[j].fix.Title
	})
}

func selectCandidates(candidates []candidate, opts ApplyOptions) ([]candidate, []SkippedFix) {
	switch opts.Mode {
	case ApplyModeID:
		for _, cand := range candidates {
			if cand.fix.ID == opts.TargetID {
				return []candidate{cand}, nil
			}
		}
		return nil, []SkippedFix{{
			ID:     opts.TargetID,
			Reason: "fix id not found",
		}}
	case ApplyModeAll:
		selected := make([]candidate, 0, len(candidates))
		skipped := make([]SkippedFix, 0)
		for _, cand := range candidates {
			if cand.fix.Applicability == diag.FixApplicabilityAlwaysSafe {
				selected = append(selected, cand)
				continue
			}
			skipped = append(skipped, SkippedFix{
				ID:     cand.fix.ID,
				Title:  cand.fix.Title,
				Reason: fmt.Sprintf("applicability is %s", cand.fix.Applicability.String()),
			})
		}
		return selected, skipped
	case ApplyModeOnce:
		for _, cand := range candidates {
			if cand.fix.Applicability == diag.FixApplicabilityAlwaysSafe {
				return []candidate{cand}, nil
			}
		}
		// нет безопасных - берём первый по порядку
		return []candidate{candidates[0]}, nil
	default:
		return nil, nil
	}
}

type staged struct {
	buffers   map[source.FileID][]byte
	editCount map[source.FileID]int
	dirty     map[source.FileID]bool
	applied   []AppliedFix
	skipped   []SkippedFix
}

func applyCandidates(fs *source.FileSet, selected []candidate, allowVirtual bool) *staged {
	st := &staged{
		buffers:   make(map[source.FileID][]byte),
		editCount: make(map[source.FileID]int),
		dirty:     make(map[source.FileID]bool),
		applied:   make([]AppliedFix, 0, len(selected)),
		skipped:   make([]SkippedFix, 0),
	}
	appliedEdits := make(map[source.FileID][]diag.TextEdit)
	baseDir := fs.BaseDir()

	for _, cand := range selected {
		buckets := groupEditsByFile(cand.fix.Edits)
		stagedBuffers := make(map[source.FileID][]byte)
		stagedApplied := make(map[source.FileID][]diag.TextEdit)
		stagedCount := make(map[source.FileID]int)
		totalEdits := 0
		var skipReason string

		for _, fileID := range sortedFileIDs(buckets) {
			edits := buckets[fileID]
			file := fs.Get(fileID)
			if file == nil {
				skipReason = "target file is unknown"
				break
			}
			if !allowVirtual && file.Flags&source.FileVirtual != 0 {
				skipReason = "target file is virtual"
				break
			}
			if conflictsWithExisting(appliedEdits[fileID], edits) {
				skipReason = fmt.Sprintf("conflicts with previously applied edits in %s", file.FormatPath("auto", baseDir))
				break
			}

			base := st.buffers[fileID]
			if base == nil {
				base = file.Content
			}
			working := append([]byte(nil), base...)

			// с конца к началу, чтобы не сдвигать ещё не применённые правки
			sort.SliceStable(edits, func(i, j int) bool {
				if edits[i].Span.Start == edits[j].Span.Start {
					return edits[i].Span.End > edits[j].Span.End
				}
				return edits[i].Span.Start > edits[j].Span.Start
			})

			existingApplied := append([]diag.TextEdit(nil), appliedEdits[fileID]...)
			for _, edit := range edits {
				start := int(edit.Span.Start) + cumulativeDelta(existingApplied, int(edit.Span.Start))
				end := int(edit.Span.End) + cumulativeDelta(existingApplied, int(edit.Span.End))
				if start < 0 || end < start || end > len(working) {
					skipReason = "edit span out of range"
					break
				}
				if edit.OldText != "" && string(working[start:end]) != edit.OldText {
					skipReason = "existing text does not match expected content"
					break
				}
				suffix := append([]byte(nil), working[end:]...)
				working = append(append(working[:start], edit.NewText...), suffix...)
				existingApplied = insertEditSorted(existingApplied, edit)
			}
			if skipReason != "" {
				break
			}
			stagedBuffers[fileID] = working
			stagedApplied[fileID] = existingApplied
			stagedCount[fileID] = len(edits)
			totalEdits += len(edits)
		}

		if skipReason != "" {
			st.skipped = append(st.skipped, SkippedFix{
				ID:     cand.fix.ID,
				Title:  cand.fix.Title,
				Reason: skipReason,
			})
			continue
		}

		for fileID, buf := range stagedBuffers {
			st.buffers[fileID] = buf
			appliedEdits[fileID] = stagedApplied[fileID]
			st.editCount[fileID] += stagedCount[fileID]
			st.dirty[fileID] = true
		}

		st.applied = append(st.applied, AppliedFix{
			ID:            cand.fix.ID,
			Title:         cand.fix.Title,
			Code:          cand.diag.Code,
			Message:       cand.diag.Message,
			Applicability: cand.fix.Applicability,
			PrimaryPath:   formatFilePath(fs, cand.diag.Primary.File),
			EditCount:     totalEdits,
		})
	}
	return st
}

// commit writes staged buffers through fsys, keeping the original file mode.
func (st *staged) commit(fs *source.FileSet, fsys billy.Filesystem, dryRun bool) ([]FileChange, error) {
	baseDir := fs.BaseDir()
	fileChanges := make([]FileChange, 0, len(st.dirty))
	for _, fileID := range sortedDirty(st.dirty) {
		buf := st.buffers[fileID]
		file := fs.Get(fileID)

		if !dryRun {
			mode := os.FileMode(0o644)
			if info, err := fsys.Stat(file.Path); err == nil {
				mode = info.Mode().Perm()
			}
			if err := util.WriteFile(fsys, file.Path, buf, mode); err != nil {
				return fileChanges, fmt.Errorf("write %s: %w", file.Path, err)
			}
		}

		fileChanges = append(fileChanges, FileChange{
			Path:      file.FormatPath("relative", baseDir),
			EditCount: st.editCount[fileID],
			Content:   buf,
		})
	}

	sort.SliceStable(fileChanges, func(i, j int) bool {
		return fileChanges[i].Path < fileChanges[j].Path
	})
	return fileChanges, nil
}

func conflictsWithExisting(existing, edits []diag.TextEdit) bool {
	for _, prev := range existing {
		for _, cand := range edits {
			if spansConflict(prev, cand) {
				return true
			}
		}
	}
	return false
}

// spansConflict reports whether two text edits' spans overlap.
// Spans are half-open [Start, End). Two zero-length edits never conflict.
// A zero-length edit conflicts with a non-zero span if Start <= pos < End.
func spansConflict(a, b diag.TextEdit) bool {
	aStart, aEnd := a.Span.Start, a.Span.End
	bStart, bEnd := b.Span.Start, b.Span.End

	if aStart == aEnd && bStart == bEnd {
		return false
	}
	if aStart == aEnd {
		return bStart <= aStart && aStart < bEnd
	}
	if bStart == bEnd {
		return aStart <= bStart && bStart < aEnd
	}
	return aStart < bEnd && bStart < aEnd
}

func groupEditsByFile(edits []diag.TextEdit) map[source.FileID][]diag.TextEdit {
	buckets := make(map[source.FileID][]diag.TextEdit)
	for _, edit := range edits {
		buckets[edit.Span.File] = append(buckets[edit.Span.File], edit)
	}
	return buckets
}

func sortedFileIDs(buckets map[source.FileID][]diag.TextEdit) []source.FileID {
	ids := make([]source.FileID, 0, len(buckets))
	for id := range buckets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedDirty(dirty map[source.FileID]bool) []source.FileID {
	ids := make([]source.FileID, 0, len(dirty))
	for id := range dirty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func cumulativeDelta(edits []diag.TextEdit, pos int) int {
	delta := 0
	for _, e := range edits {
		eStart := int(e.Span.Start)
		if eStart > pos {
			break
		}
		eEnd := int(e.Span.End)
		if eEnd <= pos {
			delta += len(e.NewText) - (eEnd - eStart)
		}
	}
	return delta
}

func insertEditSorted(edits []diag.TextEdit, edit diag.TextEdit) []diag.TextEdit {
	insertIdx := sort.Search(len(edits), func(i int) bool {
		if edits[i].Span.Start == edit.Span.Start {
			return edits[i].Span.End >= edit.Span.End
		}
		return edits[i].Span.Start > edit.Span.Start
	})
	edits = append(edits, diag.TextEdit{})
	copy(edits[insertIdx+1:], edits[insertIdx:])
	edits[insertIdx] = edit
	return edits
}

func formatFilePath(fs *source.FileSet, fileID source.FileID) string {
	file := fs.Get(fileID)
	if file == nil {
		return ""
	}
	return file.FormatPath("auto", fs.BaseDir())
}
