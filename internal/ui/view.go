package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const (
	appTitle   = "DIFFBELL"
	gaugeInset = 4
)

// View implements tea.Model.
func (m *Model) View() string {
	width := m.contentWidth()
	sections := []string{m.viewTitle(width)}

	if !m.hasSample {
		sections = append(sections, mutedStyle.Render("Watching for changes..."))
	} else {
		sections = append(sections,
			RenderGauge(m.event.Sample.Total, m.settings.Threshold, max(width-gaugeInset, 3)),
			m.viewSummary(),
			m.viewMessages(),
		)

		if graph := m.history.Render(m.settings.Threshold, max(width-gaugeInset*3, 10)); graph != "" {
			sections = append(sections, graph)
		}
	}

	if m.err != nil {
		sections = append(sections, alarmStyle.Render("Error: "+m.err.Error()))
	}

	sections = append(sections, m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) viewTitle(width int) string {
	title := appTitle
	if m.hasSample && m.event.Sample.Identity != "" {
		title += " @ " + m.event.Sample.ShortIdentity()
	}

	underline := strings.Repeat("─", min(max(lipgloss.Width(title), width-gaugeInset), width))

	return titleStyle.Render(title) + "\n" + underlineStyle.Render(underline)
}

func (m *Model) viewSummary() string {
	sample := m.event.Sample

	rows := []string{
		titleStyle.Render("STATUS"),
		labelStyle.Render("Insertions") + insertStyle.Render(fmt.Sprintf("+%d", sample.Insertions)),
		labelStyle.Render("Deletions") + deleteStyle.Render(fmt.Sprintf("-%d", sample.Deletions)),
		mutedStyle.Render(strings.Repeat("─", 24)),
		labelStyle.Render("Total") + valueStyle.Render(fmt.Sprintf("%d / %d", sample.Total, m.settings.Threshold)),
	}

	if m.settings.Interval > 0 {
		rows = append(rows, labelStyle.Render("Poll interval")+valueStyle.Render(m.settings.Interval.String()))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) viewMessages() string {
	var (
		now       = m.now()
		sample    = m.event.Sample
		state     = m.event.State
		remaining = state.SnoozeRemaining(now, m.settings.SnoozeLength)
		lines     []string
	)

	if sample.Committed() {
		lines = append(lines, celebrateStyle.Render("🎉 COMMITTED 🎉"))
	}

	switch {
	case remaining > 0:
		n, unit := roundUp(remaining)

		lines = append(lines,
			snoozeStyle.Render("!!! Snoozing !!!"),
			snoozeStyle.Render(fmt.Sprintf("Just %d more %s...", n, unit)),
			mutedStyle.Render("snoozed "+humanize.RelTime(state.SnoozedAt, now, "ago", "from now")),
		)
	case sample.Above(m.settings.Threshold):
		lines = append(lines,
			alarmStyle.Render("!!! TIME TO COMMIT !!!"),
			mutedStyle.Render(fmt.Sprintf("Press space to snooze for %s", formatDuration(m.settings.SnoozeLength))),
		)
	default:
		lines = append(lines, goodStyle.Render("👍🏻 Keep up the good work!"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// formatDuration renders d as "5 minutes" or "30 seconds".
func formatDuration(d time.Duration) string {
	n, unit := roundUp(d)

	return fmt.Sprintf("%d %s", n, unit)
}

// roundUp rounds d up to whole minutes, or seconds under a minute.
func roundUp(d time.Duration) (int, string) {
	n, unit := int(math.Ceil(d.Minutes())), "minute"
	if d < time.Minute {
		n, unit = int(math.Ceil(d.Seconds())), "second"
	}

	if n != 1 {
		unit += "s"
	}

	return n, unit
}
