package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"nodeproto/internal/diag"
	"nodeproto/internal/source"
)

func TestSarifStructure(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("src/index.js", []byte(jsSample))

	bag := diag.NewBag(4)
	bag.Add(ruleDiag(fileID))
	bag.Add(diag.NewError(diag.SynParseError, source.Span{File: fileID, Start: 0, End: 0}, "syntax error"))

	var buf bytes.Buffer
	err := Sarif(&buf, bag, fs, SarifRunMeta{ToolName: "nodeproto", ToolVersion: "1.2.3", PathMode: PathModeBasename})
	if err != nil {
		t.Fatalf("Sarif() error: %v", err)
	}

	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("invalid SARIF: %v\n%s", err, buf.String())
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("unexpected log header %+v", log)
	}
	run := log.Runs[0]
	if run.Tool.Driver.Name != "nodeproto" || run.Tool.Driver.Version != "1.2.3" {
		t.Errorf("unexpected driver %+v", run.Tool.Driver)
	}

	// оба вида сообщений правила описаны всегда, плюс SYN2001 из bag
	wantRules := []string{"preferNodeBuiltinImports", "neverPreferNodeBuiltinImports", "SYN2001"}
	if len(run.Tool.Driver.Rules) != len(wantRules) {
		t.Fatalf("unexpected rules %+v", run.Tool.Driver.Rules)
	}
	for i, id := range wantRules {
		if run.Tool.Driver.Rules[i].ID != id {
			t.Errorf("rule %d = %q, want %q", i, run.Tool.Driver.Rules[i].ID, id)
		}
	}

	if len(run.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(run.Results))
	}
	res := run.Results[0]
	if res.RuleID != "preferNodeBuiltinImports" || res.RuleIndex != 0 || res.Level != "error" {
		t.Errorf("unexpected result %+v", res)
	}
	region := res.Locations[0].PhysicalLocation.Region
	if region.StartLine != 1 || region.StartColumn != 16 || region.ByteOffset != 15 || region.ByteLength != 4 {
		t.Errorf("unexpected region %+v", region)
	}
	if len(res.Fixes) != 1 {
		t.Fatalf("expected one fix, got %d", len(res.Fixes))
	}
	rep := res.Fixes[0].ArtifactChanges[0].Replacements[0]
	if rep.DeletedRegion.ByteOffset != 16 || rep.DeletedRegion.ByteLength != 0 || rep.InsertedContent == nil || rep.InsertedContent.Text != "node:" {
		t.Errorf("unexpected replacement %+v", rep)
	}
	if run.Results[1].RuleIndex != 2 {
		t.Errorf("syntax result should point at rule 2, got %d", run.Results[1].RuleIndex)
	}
	if len(run.Artifacts) != 1 || run.Artifacts[0].Location.URI != "index.js" {
		t.Errorf("unexpected artifacts %+v", run.Artifacts)
	}
}
