package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"layoutcalc/internal/driver"
)

// stageWeight is the share of a file's work considered finished once the
// file enters the stage.
var stageWeight = map[driver.Stage]float64{
	driver.StageLoad:   0.1,
	driver.StageCache:  0.3,
	driver.StageLayout: 0.6,
}

var stageNames = map[driver.Stage]string{
	driver.StageLoad:   "loading",
	driver.StageCache:  "cache",
	driver.StageLayout: "laying out",
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	workingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

const statusColumn = 12

type fileRow struct {
	path    string
	status  driver.Status
	stage   driver.Stage
	elapsed time.Duration
}

func (r fileRow) finished() bool {
	return r.status == driver.StatusDone || r.status == driver.StatusError
}

func (r fileRow) label() string {
	if r.status == driver.StatusWorking {
		if name, ok := stageNames[r.stage]; ok {
			return name
		}
	}
	return string(r.status)
}

func (r fileRow) weight() float64 {
	if r.finished() {
		return 1
	}
	return stageWeight[r.stage]
}

type progressModel struct {
	title   string
	events  <-chan driver.Event
	spinner spinner.Model
	bar     progress.Model
	rows    []fileRow
	byPath  map[string]int
	width   int
	started time.Time
	done    bool
	failed  int
	// interrupted is set when the user quits before the driver finishes.
	interrupted bool
}

type eventMsg driver.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model with one row per descriptor
// file. It quits once events is closed.
func NewProgressModel(title string, files []string, events <-chan driver.Event) tea.Model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(workingStyle))
	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(76)),
		rows:    make([]fileRow, len(files)),
		byPath:  make(map[string]int, len(files)),
		width:   80,
		started: time.Now(),
	}
	for i, f := range files {
		m.rows[i] = fileRow{path: f, status: driver.StatusQueued}
		m.byPath[f] = i
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.apply(driver.Event(msg)), m.next())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		// в raw-режиме Ctrl-C приходит клавишей, а не сигналом
		if msg.String() == "ctrl+c" {
			m.interrupted = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = max(msg.Width-4, 10)
		}
	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

// Interrupted reports whether the user quit model before the run finished.
func Interrupted(model tea.Model) bool {
	m, ok := model.(*progressModel)
	return ok && m.interrupted
}

// next waits for one event from the driver.
func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		if ev, ok := <-m.events; ok {
			return eventMsg(ev)
		}
		return doneMsg{}
	}
}

func (m *progressModel) apply(ev driver.Event) tea.Cmd {
	i, ok := m.byPath[ev.File]
	if !ok {
		return nil
	}
	row := &m.rows[i]
	if row.finished() {
		return nil
	}
	row.status = ev.Status
	row.stage = ev.Stage
	if row.finished() {
		row.elapsed = ev.Elapsed
		if ev.Status == driver.StatusError {
			m.failed++
		}
	}
	return m.bar.SetPercent(m.fraction())
}

func (m *progressModel) fraction() float64 {
	if len(m.rows) == 0 {
		return 0
	}
	total := 0.0
	for _, r := range m.rows {
		total += r.weight()
	}
	return total / float64(len(m.rows))
}

func (m *progressModel) finishedCount() int {
	n := 0
	for _, r := range m.rows {
		if r.finished() {
			n++
		}
	}
	return n
}

func (m *progressModel) View() string {
	if len(m.rows) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.header()))
	b.WriteString("\n\n")

	nameWidth := max(m.width-statusColumn-16, 20)
	for _, r := range m.rows {
		label := fmt.Sprintf("%*s", statusColumn, r.label())
		switch {
		case r.status == driver.StatusError:
			label = failStyle.Render(label)
		case r.status == driver.StatusDone:
			label = okStyle.Render(label)
		case r.status == driver.StatusWorking:
			label = workingStyle.Render(label)
		default:
			label = dimStyle.Render(label)
		}
		fmt.Fprintf(&b, "  %s %s", label, truncate(r.path, nameWidth))
		if r.finished() {
			b.WriteString(dimStyle.Render(fmt.Sprintf(" %s", r.elapsed.Round(time.Millisecond))))
		}
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	if m.done {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteByte('\n')
	return b.String()
}

func (m *progressModel) header() string {
	counts := fmt.Sprintf("%d/%d files", m.finishedCount(), len(m.rows))
	if m.failed > 0 {
		counts += fmt.Sprintf(", %d failed", m.failed)
	}
	if m.done {
		return fmt.Sprintf("%s: %s in %s", m.title, counts, time.Since(m.started).Round(time.Millisecond))
	}
	return fmt.Sprintf("%s %s: %s", m.spinner.View(), m.title, counts)
}

// truncate shortens value to width terminal cells, marking the cut with "...".
func truncate(value string, width int) string {
	switch {
	case width <= 0 || runewidth.StringWidth(value) <= width:
		return value
	case width <= 3:
		return runewidth.Truncate(value, width, "")
	default:
		return runewidth.Truncate(value, width, "...")
	}
}
