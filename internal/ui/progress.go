// Package ui renders lint progress in the terminal.
package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"nodeproto/internal/driver"
)

// maxListed caps the number of file rows; the rest is summarised.
const maxListed = 12

type progressModel struct {
	title   string
	events  <-chan driver.Event
	spinner spinner.Model
	prog    progress.Model
	items   []fileItem
	index   map[string]int
	width   int
	done    bool
	problem int
}

type fileItem struct {
	path        string
	status      string
	stage       driver.Stage
	finished    bool
	diagnostics int
}

type eventMsg driver.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders lint progress.
// The model quits once events is closed.
func NewProgressModel(title string, files []string, events <-chan driver.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76 // Default width

	items := make([]fileItem, 0, len(files))
	index := make(map[string]int, len(files))
	for i, file := range files {
		items = append(items, fileItem{path: file, status: "queued"})
		index[fileKey(file)] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(driver.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	finished := 0
	for _, item := range m.items {
		if item.finished {
			finished++
		}
	}
	header := fmt.Sprintf("%s (%d/%d files, %d problems)", m.title, finished, len(m.items), m.problem)
	if m.done {
		header = "done: " + header
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 12
	nameWidth := m.width - statusWidth - 4
	if nameWidth < 20 {
		nameWidth = 20
	}

	for _, item := range m.visibleItems() {
		name := truncate(item.path, nameWidth)
		statusStyled := styleStatus(item.status).Render(fmt.Sprintf("%12s", item.status))
		b.WriteString(fmt.Sprintf("  %s %s\n", statusStyled, name))
	}
	if hidden := len(m.items) - maxListed; hidden > 0 {
		b.WriteString(fmt.Sprintf("  %12s %d more\n", "", hidden))
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")

	return b.String()
}

// visibleItems prefers files in flight, then the most recent finished ones.
func (m *progressModel) visibleItems() []fileItem {
	if len(m.items) <= maxListed {
		return m.items
	}
	out := make([]fileItem, 0, maxListed)
	for _, item := range m.items {
		if !item.finished && item.status != "queued" && len(out) < maxListed {
			out = append(out, item)
		}
	}
	for _, item := range m.items {
		if len(out) >= maxListed {
			break
		}
		if item.finished && item.diagnostics > 0 {
			out = append(out, item)
		}
	}
	return out
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev driver.Event) tea.Cmd {
	if ev.File == "" {
		return nil
	}
	idx, ok := m.index[fileKey(ev.File)]
	if !ok {
		return nil
	}
	item := &m.items[idx]
	if label := statusLabel(ev); label != "" {
		item.status = label
		item.stage = ev.Stage
	}
	if ev.Status == driver.StatusDone || ev.Status == driver.StatusError {
		if !item.finished {
			m.problem += ev.Diagnostics
		}
		item.finished = true
		item.diagnostics = ev.Diagnostics
	}

	total := 0.0
	for _, it := range m.items {
		if it.finished {
			total += 1.0
		} else {
			total += progressFromStage(it.stage, it.status)
		}
	}
	return m.prog.SetPercent(total / float64(len(m.items)))
}

// fileKey matches discovery paths against the normalised paths of events.
func fileKey(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

func progressFromStage(stage driver.Stage, status string) float64 {
	if status == "queued" {
		return 0.0
	}
	switch stage {
	case driver.StageLoad:
		return 0.1
	case driver.StageParse:
		return 0.4
	case driver.StageLint:
		return 0.8
	default:
		return 0.0
	}
}

func statusLabel(ev driver.Event) string {
	switch ev.Status {
	case driver.StatusQueued:
		return "queued"
	case driver.StatusDone:
		if ev.Cached {
			return "cached"
		}
		if ev.Diagnostics > 0 {
			return fmt.Sprintf("%d problems", ev.Diagnostics)
		}
		return "ok"
	case driver.StatusError:
		return "error"
	case driver.StatusWorking:
		return stageLabel(ev.Stage)
	default:
		return ""
	}
}

func stageLabel(stage driver.Stage) string {
	switch stage {
	case driver.StageLoad:
		return "loading"
	case driver.StageParse:
		return "parsing"
	case driver.StageLint:
		return "linting"
	default:
		return ""
	}
}

func styleStatus(status string) lipgloss.Style {
	switch {
	case status == "ok" || status == "cached":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case status == "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case strings.HasSuffix(status, "problems"):
		return lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	case status == "loading" || status == "parsing" || status == "linting":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
