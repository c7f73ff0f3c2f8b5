package diagfmt

import (
	"encoding/json"
	"io"

	"nodeproto/internal/diag"
	"nodeproto/internal/source"
)

const (
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
	sarifVersion = "2.1.0"
)

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool          `json:"tool"`
	Invocations []sarifInvocation  `json:"invocations,omitempty"`
	Results     []sarifResult      `json:"results"`
	Artifacts   []sarifArtifactRef `json:"artifacts,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifText struct {
	Text string `json:"text"`
}

type sarifRule struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	ShortDescription sarifText         `json:"shortDescription"`
	Properties       map[string]string `json:"properties,omitempty"`
}

type sarifInvocation struct {
	Arguments           []string `json:"arguments,omitempty"`
	ExecutionSuccessful bool     `json:"executionSuccessful"`
}

type sarifArtifactRef struct {
	Location sarifArtifactLocation `json:"location"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   uint32 `json:"startLine"`
	StartColumn uint32 `json:"startColumn"`
	EndLine     uint32 `json:"endLine"`
	EndColumn   uint32 `json:"endColumn"`
	ByteOffset  uint32 `json:"byteOffset"`
	ByteLength  uint32 `json:"byteLength"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
	Message          *sarifText            `json:"message,omitempty"`
}

type sarifReplacement struct {
	DeletedRegion   sarifRegion `json:"deletedRegion"`
	InsertedContent *sarifText  `json:"insertedContent,omitempty"`
}

type sarifArtifactChange struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Replacements     []sarifReplacement    `json:"replacements"`
}

type sarifFix struct {
	Description     sarifText             `json:"description"`
	ArtifactChanges []sarifArtifactChange `json:"artifactChanges"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             sarifText         `json:"message"`
	Locations           []sarifLocation   `json:"locations"`
	RelatedLocations    []sarifLocation   `json:"relatedLocations,omitempty"`
	Fixes               []sarifFix        `json:"fixes,omitempty"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
	Properties          map[string]any    `json:"properties,omitempty"`
}

func sarifLevel(sev diag.Severity) string {
	switch sev {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	default:
		return "note"
	}
}

// sarifRuleID is the message id for rule findings and the code id otherwise.
func sarifRuleID(code diag.Code) string {
	if id := code.MessageID(); id != "" {
		return id
	}
	return code.ID()
}

func makeRegion(fs *source.FileSet, span source.Span) sarifRegion {
	start, end := fs.Resolve(span)
	return sarifRegion{
		StartLine:   start.Line,
		StartColumn: start.Col,
		EndLine:     end.Line,
		EndColumn:   end.Col,
		ByteOffset:  span.Start,
		ByteLength:  span.Len(),
	}
}

// Sarif форматирует диагностики в SARIF формат (v2.1.0): один run,
// описания правил для обоих видов сообщений и для служебных кодов из bag.
func Sarif(w io.Writer, bag *diag.Bag, fs *source.FileSet, meta SarifRunMeta) error {
	rules := make([]sarifRule, 0, 4)
	ruleIndex := make(map[string]int)
	addRule := func(code diag.Code) int {
		id := sarifRuleID(code)
		if idx, ok := ruleIndex[id]; ok {
			return idx
		}
		rule := sarifRule{
			ID:               id,
			Name:             code.ID(),
			ShortDescription: sarifText{Text: code.Title()},
		}
		ruleIndex[id] = len(rules)
		rules = append(rules, rule)
		return ruleIndex[id]
	}
	for _, code := range diag.RuleCodes() {
		addRule(code)
	}

	artifacts := make([]sarifArtifactRef, 0)
	seenArtifacts := make(map[string]bool)

	results := make([]sarifResult, 0, bag.Len())
	for _, d := range bag.Items() {
		uri := formatPath(fs, d.Primary.File, meta.PathMode)
		if !seenArtifacts[uri] {
			seenArtifacts[uri] = true
			artifacts = append(artifacts, sarifArtifactRef{Location: sarifArtifactLocation{URI: uri}})
		}

		res := sarifResult{
			RuleID:    sarifRuleID(d.Code),
			RuleIndex: addRule(d.Code),
			Level:     sarifLevel(d.Severity),
			Message:   sarifText{Text: d.Message},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: uri},
					Region:           makeRegion(fs, d.Primary),
				},
			}},
		}
		if d.Rule != "" {
			res.Properties = map[string]any{"rule": d.Rule}
			if len(d.Data) > 0 {
				res.Properties["data"] = d.Data
			}
		}
		if f := fs.Get(d.Primary.File); f != nil {
			res.PartialFingerprints = map[string]string{
				"primaryLocationLineHash": fingerprint(f.GetLine(mustLine(fs, d.Primary)), d.Code),
			}
		}
		for _, note := range d.Notes {
			msg := sarifText{Text: note.Msg}
			res.RelatedLocations = append(res.RelatedLocations, sarifLocation{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: formatPath(fs, note.Span.File, meta.PathMode)},
					Region:           makeRegion(fs, note.Span),
				},
				Message: &msg,
			})
		}
		for _, fix := range sortedFixes(d.Fixes) {
			res.Fixes = append(res.Fixes, makeSarifFix(fs, fix, meta.PathMode))
		}
		results = append(results, res)
	}

	log := sarifLog{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:           meta.ToolName,
				Version:        meta.ToolVersion,
				InformationURI: meta.InformationURI,
				Rules:          rules,
			}},
			Invocations: []sarifInvocation{{
				Arguments:           meta.InvocationArgs,
				ExecutionSuccessful: true,
			}},
			Results:   results,
			Artifacts: artifacts,
		}},
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(log)
}

func makeSarifFix(fs *source.FileSet, fix diag.Fix, mode PathMode) sarifFix {
	byFile := make(map[source.FileID]int)
	out := sarifFix{Description: sarifText{Text: fix.Title}}
	for _, edit := range fix.Edits {
		idx, ok := byFile[edit.Span.File]
		if !ok {
			idx = len(out.ArtifactChanges)
			byFile[edit.Span.File] = idx
			out.ArtifactChanges = append(out.ArtifactChanges, sarifArtifactChange{
				ArtifactLocation: sarifArtifactLocation{URI: formatPath(fs, edit.Span.File, mode)},
			})
		}
		rep := sarifReplacement{DeletedRegion: makeRegion(fs, edit.Span)}
		if edit.NewText != "" {
			rep.InsertedContent = &sarifText{Text: edit.NewText}
		}
		out.ArtifactChanges[idx].Replacements = append(out.ArtifactChanges[idx].Replacements, rep)
	}
	return out
}

func mustLine(fs *source.FileSet, span source.Span) uint32 {
	start, _ := fs.Resolve(span)
	return start.Line
}
