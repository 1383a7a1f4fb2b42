package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/courier/internal/logtail"
)

var logLevels = []string{"", "info", "warning", "error"}

// handleLogsKey processes keyboard input for the log pane.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.CycleLevel) {
		m.logLevel = nextLogLevel(m.logLevel)
		return m, readLogsCmd(m.logPath, m.logLevel)
	}
	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

func nextLogLevel(current string) string {
	for i, l := range logLevels {
		if l == current {
			return logLevels[(i+1)%len(logLevels)]
		}
	}
	return logLevels[0]
}

func (m *Model) updateLogViewport() {
	atBottom := m.logViewport.AtBottom()
	lines := make([]string, 0, len(m.logEntries))
	for _, e := range m.logEntries {
		lines = append(lines, m.formatLogEntry(e))
	}
	m.logViewport.SetContent(strings.Join(lines, "\n"))
	if atBottom {
		m.logViewport.GotoBottom()
	}
}

func (m Model) formatLogEntry(e logtail.Entry) string {
	styles := m.theme.Styles()
	if e.Level == "" {
		return styles.FaintText.Render(e.Message)
	}

	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(styles.FaintText.Render(e.Time.Format("15:04:05")))
		b.WriteString(" ")
	}
	b.WriteString(m.levelStyle(e.Level).Render(padRight(strings.ToUpper(e.Level), 7)))
	b.WriteString(" ")
	if component := e.Fields["component"]; component != "" {
		b.WriteString(styles.AccentText.Render("[" + component + "]"))
		b.WriteString(" ")
	}
	b.WriteString(styles.Text.Render(e.Message))
	for _, k := range e.FieldKeys() {
		if k == "component" {
			continue
		}
		b.WriteString(" ")
		b.WriteString(styles.MutedText.Render(k + "=" + e.Fields[k]))
	}
	return b.String()
}

func (m Model) levelStyle(level string) lipgloss.Style {
	styles := m.theme.Styles()
	switch level {
	case "error", "fatal", "panic":
		return styles.DangerText
	case "warning", "warn":
		return styles.WarningText
	case "debug", "trace":
		return styles.FaintText
	default:
		return styles.SuccessText
	}
}

// renderLogs renders the log pane.
func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	filter := "all levels"
	if m.logLevel != "" {
		filter = m.logLevel + " and above"
	}
	title := styles.Text.Bold(true).Render("Client log") + "  " +
		styles.FaintText.Render(truncate(m.logPath, 60)+"  ("+filter+", f to change)")
	if len(m.logEntries) == 0 {
		return title + "\n" + styles.MutedText.Render("No log entries yet.")
	}
	return title + "\n" + m.logViewport.View()
}
