package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/five82/rewear/internal/logtail"
)

// fetchLogsCmd reads the tail of the client log file.
func (m Model) fetchLogsCmd() tea.Cmd {
	path := m.logPath
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logtail.Read(path, LogTailLines)
		if err != nil {
			return logsMsg{err: err}
		}
		return logsMsg{entries: logtail.ParseAll(lines)}
	}
}

func (m *Model) handleLogs(msg logsMsg) {
	if msg.err != nil {
		m.logger.Debug("read log failed", zap.Error(msg.err))
		return
	}
	m.logEntries = msg.entries
	m.updateLogViewport()
}

// updateLogViewport sizes the viewport to the content box and refills it.
func (m *Model) updateLogViewport() {
	// Box inner = content height - 2 borders, minus the status line below.
	width, height := max(1, m.width-4), max(1, m.contentHeight()-3)
	if m.logViewport.Width == 0 {
		m.logViewport = viewport.New(width, height)
	}
	m.logViewport.Width = width
	m.logViewport.Height = height
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	m.logViewport.SetContent(m.renderLogContent())
	if m.logFollow {
		m.logViewport.GotoBottom()
	}
}

func (m Model) renderLogContent() string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)
	if len(m.logEntries) == 0 {
		return bg.Render("No log entries yet.", styles.MutedText)
	}

	lines := make([]string, 0, len(m.logEntries))
	for _, e := range m.logEntries {
		if e.Level == "" {
			lines = append(lines, bg.Render(e.Message, styles.FaintText))
			continue
		}
		parts := []string{
			bg.Render(e.Time, styles.FaintText),
			bg.Render(padRight(e.Level, 5), m.levelStyle(e.Level, styles)),
		}
		if e.Component != "" {
			parts = append(parts, bg.Render(e.Component, styles.AccentText))
		}
		parts = append(parts, bg.Render(e.Message, styles.Text))
		if e.Fields != "" {
			parts = append(parts, bg.Render(e.Fields, styles.MutedText))
		}
		lines = append(lines, strings.Join(parts, bg.Space()))
	}
	return strings.Join(lines, "\n")
}

func (m Model) levelStyle(level string, styles Styles) lipgloss.Style {
	switch strings.ToUpper(level) {
	case "ERROR", "DPANIC", "PANIC", "FATAL":
		return styles.DangerText
	case "WARN":
		return styles.WarningText
	case "DEBUG":
		return styles.FaintText
	default:
		return styles.InfoText
	}
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logFollow = !m.logFollow
		if m.logFollow {
			m.logViewport.GotoBottom()
		}
	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetchLogsCmd()
	case key.Matches(msg, m.keys.Top):
		m.logViewport.GotoTop()
		m.logFollow = false
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		m.logFollow = true
	case key.Matches(msg, m.keys.Down):
		m.logViewport.ScrollDown(1)
		m.logFollow = false
	case key.Matches(msg, m.keys.Up):
		m.logViewport.ScrollUp(1)
		m.logFollow = false
	case key.Matches(msg, m.keys.HalfPageDown):
		m.logViewport.HalfPageDown()
		m.logFollow = false
	case key.Matches(msg, m.keys.HalfPageUp):
		m.logViewport.HalfPageUp()
		m.logFollow = false
	}
	return m, nil
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)

	followStyle := styles.SuccessText
	if !m.logFollow {
		followStyle = styles.WarningText
	}
	status := bg.Render(truncate(m.logPath, max(10, m.width-30)), styles.FaintText) + bg.Spaces(2) +
		bg.Render(ternary(m.logFollow, "following", "paused"), followStyle)
	content := m.logViewport.View() + "\n" + status
	return m.renderBox("Client log", content, m.width, m.contentHeight(), true)
}
