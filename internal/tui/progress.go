package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"pixelate/internal/palette"
)

// ImportProgress renders a bulk palette import fed by a progress channel. It
// quits when the channel is closed.
type ImportProgress struct {
	updates  <-chan palette.Progress
	source   string
	started  time.Time
	width    int
	total    int
	done     int
	imported int
	skipped  int
	errors   int
	quitting bool
}

type progressDoneMsg struct{}

type progressMsg palette.Progress

func NewImportProgress(source string, updates <-chan palette.Progress) ImportProgress {
	return ImportProgress{updates: updates, source: source, started: time.Now()}
}

func (m ImportProgress) Init() tea.Cmd {
	return listenForProgress(m.updates)
}

func (m ImportProgress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.total += msg.TotalDelta
		m.imported += msg.ImportedDelta
		m.skipped += msg.SkippedDelta
		m.errors += msg.ErrorDelta
		m.done += msg.ImportedDelta + msg.SkippedDelta + msg.ErrorDelta
		return m, listenForProgress(m.updates)
	case progressDoneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

func (m ImportProgress) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(60, float64(m.width-10)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	ratio := 0.0
	if m.total > 0 {
		ratio = float64(m.done) / float64(m.total)
		if ratio > 1 {
			ratio = 1
		}
	}

	elapsed := time.Since(m.started).Round(time.Millisecond)
	lines := []string{
		titleStyle.Render("pixelate: importing palettes from " + m.source),
		labelStyle.Render(fmt.Sprintf("Files: %d/%d", m.done, m.total)) + dimStyle.Render(fmt.Sprintf("  skipped:%d errors:%d", m.skipped, m.errors)),
		labelStyle.Render(fmt.Sprintf("Imported: %d", m.imported)),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
		barStyle.Render(renderBar(barWidth, ratio)),
	}
	return strings.Join(lines, "\n")
}

func listenForProgress(updates <-chan palette.Progress) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return progressDoneMsg{}
		}
		return progressMsg(update)
	}
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}
