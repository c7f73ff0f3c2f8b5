// Package observ measures the phases of a lint run.
package observ

import (
	"fmt"
	"strings"
	"time"
)

// Phase records the duration and metadata of one phase (load, parse, lint).
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
}

// Timer tracks phases of a single file or run. It is not safe for
// concurrent use; every worker owns its timer.
type Timer struct {
	phases []Phase
	now    func() time.Time
}

// NewTimer creates a new empty Timer.
func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 4), now: time.Now} }

// Begin starts a new phase and returns its index. A nil Timer returns -1.
func (t *Timer) Begin(name string) int {
	if t == nil {
		return -1
	}
	t.phases = append(t.phases, Phase{Name: name, Start: t.now()})
	return len(t.phases) - 1
}

// End finishes a phase by its index.
func (t *Timer) End(idx int, note string) {
	if t == nil || idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.Dur = t.now().Sub(p.Start)
	p.Note = note
}

// Record adds an already measured phase.
func (t *Timer) Record(name string, dur time.Duration, note string) {
	if t == nil {
		return
	}
	t.phases = append(t.phases, Phase{Name: name, Start: t.now().Add(-dur), Dur: dur, Note: note})
}

// Measure runs fn as phase name.
func (t *Timer) Measure(name string, fn func() error) error {
	idx := t.Begin(name)
	err := fn()
	note := ""
	if err != nil {
		note = "error"
	}
	t.End(idx, note)
	return err
}

// Summary returns a human-readable string summarizing all tracked phases.
func (t *Timer) Summary() string {
	report := t.Report()
	var out strings.Builder
	out.WriteString("timings:\n")
	for _, p := range report.Phases {
		fmt.Fprintf(&out, "  %-20s %7.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			out.WriteString("  // " + p.Note)
		}
		out.WriteString("\n")
	}
	fmt.Fprintf(&out, "  %-20s %7.2f ms\n", "total", report.TotalMS)
	return out.String()
}

// PhaseReport представляет сжатую информацию о фазе таймера для сериализации.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report описывает агрегированные данные таймера.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report формирует срез фаз и общую длительность в миллисекундах.
func (t *Timer) Report() Report {
	if t == nil || len(t.phases) == 0 {
		return Report{}
	}
	report := Report{
		Phases: make([]PhaseReport, len(t.phases)),
	}
	var total time.Duration
	for i, phase := range t.phases {
		total += phase.Dur
		report.Phases[i] = PhaseReport{
			Name:       phase.Name,
			DurationMS: durationToMillis(phase.Dur),
			Note:       phase.Note,
		}
	}
	report.TotalMS = durationToMillis(total)
	return report
}

// Merge sums phases of other into r by name, keeping first-seen order.
func (r *Report) Merge(other Report) {
	for _, p := range other.Phases {
		found := false
		for i := range r.Phases {
			if r.Phases[i].Name == p.Name {
				r.Phases[i].DurationMS += p.DurationMS
				found = true
				break
			}
		}
		if !found {
			r.Phases = append(r.Phases, PhaseReport{Name: p.Name, DurationMS: p.DurationMS})
		}
	}
	r.TotalMS += other.TotalMS
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
