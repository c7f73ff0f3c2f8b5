package driver

import (
	"encoding/json"
	"fmt"

	"nodeproto/internal/diag"
	"nodeproto/internal/observ"
	"nodeproto/internal/source"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Path    string               `json:"path,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// appendTimingDiagnostic adds an OBS6001 entry with the JSON report in its
// note. Timing entries bypass the bag limit.
func appendTimingDiagnostic(bag *diag.Bag, primary source.Span, payload timingPayload) {
	if bag == nil {
		return
	}
	if payload.Kind == "" {
		payload.Kind = "run"
	}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS)
	if payload.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, payload.Path)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	bag.Append(diag.New(diag.SevInfo, diag.ObsTimings, primary, msg).WithNote(primary, string(data)))
}
