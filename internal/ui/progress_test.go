package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"layoutcalc/internal/driver"
)

func newTestModel(files ...string) *progressModel {
	ch := make(chan driver.Event)
	close(ch)
	return NewProgressModel("layout", files, ch).(*progressModel)
}

func TestApplyTracksFiles(t *testing.T) {
	m := newTestModel("a.toml", "b.yaml")

	m.apply(driver.Event{File: "a.toml", Stage: driver.StageLayout, Status: driver.StatusWorking})
	assert.Equal(t, "laying out", m.rows[0].label())
	assert.Equal(t, "queued", m.rows[1].label())
	assert.InDelta(t, 0.3, m.fraction(), 1e-9)

	m.apply(driver.Event{File: "a.toml", Stage: driver.StageLayout, Status: driver.StatusDone, Elapsed: 3 * time.Millisecond})
	m.apply(driver.Event{File: "b.yaml", Stage: driver.StageLoad, Status: driver.StatusError})
	m.apply(driver.Event{File: "unknown.toml", Stage: driver.StageLoad, Status: driver.StatusDone})

	assert.Equal(t, "done", m.rows[0].label())
	assert.Equal(t, 3*time.Millisecond, m.rows[0].elapsed)
	assert.Equal(t, "error", m.rows[1].label())
	assert.Equal(t, 1, m.failed)
	assert.Equal(t, 2, m.finishedCount())
	assert.InDelta(t, 1.0, m.fraction(), 1e-9)
}

func TestFinishedRowIgnoresLateEvents(t *testing.T) {
	m := newTestModel("a.toml")
	m.apply(driver.Event{File: "a.toml", Stage: driver.StageLoad, Status: driver.StatusError})
	m.apply(driver.Event{File: "a.toml", Stage: driver.StageLoad, Status: driver.StatusError})
	assert.Equal(t, 1, m.failed)
}

func TestNextReportsDoneWhenClosed(t *testing.T) {
	m := newTestModel("a.toml")
	msg := m.next()()
	_, ok := msg.(doneMsg)
	require.True(t, ok, "got %T", msg)

	_, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	assert.True(t, m.done)
}

func TestViewListsFiles(t *testing.T) {
	m := newTestModel("a.toml", "b.yaml")
	m.apply(driver.Event{File: "b.yaml", Stage: driver.StageLoad, Status: driver.StatusError})
	m.done = true

	view := m.View()
	assert.Contains(t, view, "a.toml")
	assert.Contains(t, view, "b.yaml")
	assert.Contains(t, view, "1/2 files, 1 failed")
	assert.Empty(t, newTestModel().View())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "xxxxxxx...", truncate(strings.Repeat("x", 40), 10))
	assert.Equal(t, "xx", truncate("xxxxx", 2))
}

func TestStageWeightsAreMonotonic(t *testing.T) {
	prev := 0.0
	for _, s := range []driver.Stage{driver.StageLoad, driver.StageCache, driver.StageLayout} {
		assert.Greater(t, stageWeight[s], prev, s)
		prev = stageWeight[s]
	}
}

func TestCtrlCQuitsAndMarksInterrupted(t *testing.T) {
	m := newTestModel("a.toml")
	assert.False(t, Interrupted(m))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.Nil(t, cmd, "other keys are ignored")
	assert.False(t, Interrupted(m))

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, Interrupted(m))
	assert.False(t, m.done, "an interrupted run is not done")
}
