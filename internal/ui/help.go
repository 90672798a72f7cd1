package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	sections := []helpSection{
		{
			title: "Views",
			items: []helpItem{
				{"tab", "Browse / swaps / log"},
				{"b/w/l", "Browse/Swaps/Log"},
				{"m", "Moderation (admin)"},
				{"a", "Sign in or out"},
				{"n", "New listing"},
				{"esc", "Back"},
			},
		},
		{
			title: "Browse",
			items: []helpItem{
				{"c/z/o", "Category/size/condition"},
				{"x", "Clear filters"},
				{"/", "Search"},
				{"[/]", "Previous/next page"},
				{"v", "Market or my listings"},
				{"enter", "Open listing"},
			},
		},
		{
			title: "Listing",
			items: []helpItem{
				{"p", "Request with points"},
				{"i", "Offer one of my items"},
				{"D", "Delete my listing"},
			},
		},
		{
			title: "Swaps",
			items: []helpItem{
				{"v", "Cycle lists"},
				{"A/R/C", "Accept/reject/complete"},
				{"r", "Reload"},
			},
		},
		{
			title: "General",
			items: []helpItem{
				{"j/k g/G", "Move / top / bottom"},
				{"T", "Cycle theme"},
				{"h/?", "Toggle help"},
				{"e/ctrl+c", "Quit"},
			},
		},
	}

	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Warning)).Width(12)
	lines := []string{
		styles.Text.Bold(true).Render("Keyboard Shortcuts"),
		styles.FaintText.Render(strings.Repeat("─", 34)),
	}
	for _, section := range sections {
		lines = append(lines, "", styles.AccentText.Bold(true).Render(section.title))
		for _, item := range section.items {
			lines = append(lines, keyStyle.Render(item.key)+styles.Text.Render(item.desc))
		}
	}

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(44).
		Render(strings.Join(lines, "\n"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

type helpSection struct {
	title string
	items []helpItem
}

type helpItem struct {
	key  string
	desc string
}
