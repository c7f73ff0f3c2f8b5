package ui

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"nodeproto/internal/driver"
)

func TestApplyEventTracksFiles(t *testing.T) {
	events := make(chan driver.Event)
	m := NewProgressModel("lint", []string{"a.js", "b.js"}, events).(*progressModel)

	m.applyEvent(driver.Event{File: "a.js", Stage: driver.StageParse, Status: driver.StatusWorking})
	if m.items[0].status != "parsing" {
		t.Fatalf("status = %q", m.items[0].status)
	}
	m.applyEvent(driver.Event{File: "a.js", Stage: driver.StageLint, Status: driver.StatusDone, Diagnostics: 2})
	m.applyEvent(driver.Event{File: "b.js", Stage: driver.StageLint, Status: driver.StatusDone, Cached: true})
	m.applyEvent(driver.Event{File: "unknown.js", Status: driver.StatusDone, Diagnostics: 5})

	if m.items[0].status != "2 problems" || m.items[1].status != "cached" {
		t.Fatalf("statuses = %q, %q", m.items[0].status, m.items[1].status)
	}
	if m.problem != 2 {
		t.Fatalf("problem count = %d", m.problem)
	}
	view := m.View()
	if !strings.Contains(view, "2/2 files") || !strings.Contains(view, "a.js") {
		t.Fatalf("view = %q", view)
	}
}

func TestVisibleItemsCapped(t *testing.T) {
	files := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		files = append(files, strings.Repeat("f", i+1)+".js")
	}
	m := NewProgressModel("lint", files, nil).(*progressModel)
	m.applyEvent(driver.Event{File: files[3], Stage: driver.StageLint, Status: driver.StatusWorking})
	got := m.visibleItems()
	if len(got) != 1 || got[0].path != files[3] {
		t.Fatalf("visible = %+v", got)
	}
	if !strings.Contains(m.View(), "18 more") {
		t.Fatalf("view should summarise hidden rows: %q", m.View())
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefghij", 6); got != "abc..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abcdef", 2); got != "ab" {
		t.Fatalf("truncate = %q", got)
	}
	for _, in := range []string{"src/very/long/path/index.js", "модуль/очень/длинный.js", "日本語のパス/index.js"} {
		got := truncate(in, 12)
		if w := runewidth.StringWidth(got); w > 12 {
			t.Fatalf("truncate(%q, 12) = %q, width %d", in, got, w)
		}
	}
}
