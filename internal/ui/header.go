package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/rewear/internal/marketplace"
)

// renderHeader renders the status bar: connection, account and activity.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("rewear", styles.Logo)}

	if m.snap.catalog.Offline() {
		parts = append(parts, bg.Render("● OFFLINE", styles.DangerText))
		if !compact {
			parts = append(parts, bg.Render("new listings are kept on this machine", styles.MutedText))
		}
	} else {
		parts = append(parts, bg.Render("● ONLINE", styles.SuccessText))
	}

	if u := m.viewer(); u != nil {
		account := bg.Render(u.Username, styles.Text)
		if u.IsAdmin() {
			account += bg.Space() + bg.Render("admin", styles.WarningText)
		}
		parts = append(parts,
			account,
			bg.Render("Points:", styles.MutedText)+bg.Space()+bg.Render(fmt.Sprintf("%d", u.PointsBalance), styles.AccentText),
		)
		if n := pendingForMe(m.snap.swaps.Provided); n > 0 {
			color := lipgloss.Color(m.statusColor(marketplace.SwapRequested))
			parts = append(parts, bg.Render(fmt.Sprintf("%d awaiting you", n), lipgloss.NewStyle().Foreground(color)))
		}
	} else if m.snap.session.Loading {
		parts = append(parts, bg.Render("Signing in...", styles.WarningText))
	} else if m.snap.session.PendingRestore {
		parts = append(parts, bg.Render("Reconnecting session...", styles.WarningText))
	} else {
		parts = append(parts, bg.Render("Signed out", styles.MutedText))
	}

	if m.busy > 0 || m.snap.catalog.Loading || m.snap.swaps.Loading || m.snap.session.Loading {
		parts = append(parts, bg.Render(m.spinner.View(), styles.AccentText))
	}
	if !compact && !m.lastUpdated.IsZero() {
		parts = append(parts, bg.Render(m.lastUpdated.Format("15:04:05"), styles.FaintText))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Padding(0, 1).
		Width(m.width).
		Render(bg.Join(parts, "  "))
}

// pendingForMe counts swaps on my items that still wait for an answer.
func pendingForMe(provided []marketplace.Swap) int {
	n := 0
	for _, s := range provided {
		switch strings.ToLower(s.Status) {
		case marketplace.SwapRequested, marketplace.SwapPending:
			n++
		}
	}
	return n
}

// renderCommandBar renders the command hints for the active view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewDetail:
		commands = []cmd{{"p", "Points"}, {"i", "Offer item"}, {"D", "Delete"}, {"esc", "Back"}}
	case ViewSwaps:
		commands = []cmd{{"j/k", "Navigate"}, {"v", m.partition.label()}, {"A", "Accept"}, {"R", "Reject"}, {"C", "Complete"}, {"r", "Reload"}}
	case ViewModeration:
		commands = []cmd{{"j/k", "Navigate"}, {"A", "Approve"}, {"R", "Reject"}, {"r", "Reload"}}
	case ViewLogs:
		commands = []cmd{{"Space", ternary(m.logFollow, "Pause", "Follow")}, {"j/k", "Scroll"}, {"r", "Reload"}}
	case ViewLogin, ViewNewListing:
		commands = []cmd{{"tab", "Next field"}, {"enter", "Submit"}, {"esc", "Cancel"}}
	default:
		commands = []cmd{
			{"c/z/o", "Filters"},
			{"/", "Search"},
			{"[/]", "Page"},
			{"v", ternary(m.showMine, "Market", "Mine")},
			{"enter", "Open"},
			{"n", "New"},
		}
	}
	commands = append(commands, cmd{"w", "Swaps"}, cmd{"a", ternary(m.snap.session.Authenticated, "Sign out", "Sign in")}, cmd{"?", "More"})

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}

// renderFooter shows the last operation result, then any stored error or
// local-store warning.
func (m Model) renderFooter() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	var text string
	style := styles.MutedText
	switch {
	case m.flash.text != "":
		text = m.flash.text
		if m.flash.isErr {
			style = styles.DangerText
		} else {
			style = styles.SuccessText
		}
	case m.snap.session.LastError != nil:
		text, style = marketplace.Message(m.snap.session.LastError), styles.DangerText
	case m.snap.catalog.LastError != nil:
		text, style = marketplace.Message(m.snap.catalog.LastError), styles.DangerText
	case m.snap.swaps.LastError != nil:
		text, style = marketplace.Message(m.snap.swaps.LastError), styles.DangerText
	case m.snap.catalog.Warning != nil:
		text, style = "Local listings unavailable: "+m.snap.catalog.Warning.Error(), styles.WarningText
	}
	return styles.Footer.Width(m.width).Render(bg.Render(truncate(text, max(10, m.width-2)), style))
}
