package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/rewear/internal/catalog"
	"github.com/five82/rewear/internal/marketplace"
)

// browseItems returns the rows of the listing view. The market view leaves
// out the viewer's own server listings; the mine view shows the viewer's
// local and server listings.
func (m Model) browseItems() []marketplace.Item {
	var viewer int64
	if u := m.viewer(); u != nil {
		viewer = u.ID
	}
	if m.showMine {
		return m.snap.catalog.Owned(viewer)
	}
	return m.snap.catalog.Visible(viewer)
}

func (m Model) selectedItem() *marketplace.Item {
	items := m.browseItems()
	if m.selectedRow < 0 || m.selectedRow >= len(items) {
		return nil
	}
	item := items[m.selectedRow]
	return &item
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if isNavKey(msg, m.keys) {
		m.selectedRow = m.moveRow(msg, m.selectedRow, len(m.browseItems()))
		return m, nil
	}

	filters := m.snap.catalog.Filters
	switch {
	case key.Matches(msg, m.keys.Open):
		item := m.selectedItem()
		if item == nil {
			return m, nil
		}
		m.previousView = ViewBrowse
		m.currentView = ViewDetail
		m.picking = false
		id := item.ID
		cmd := m.run("", viewUnchanged, func(ctx context.Context) error {
			return m.catalog.LoadItem(ctx, id)
		})
		return m, cmd

	case key.Matches(msg, m.keys.CycleCategory):
		filters.Category = nextChoice(categoryChoices, filters.Category)
		return m.applyFilters(filters)

	case key.Matches(msg, m.keys.CycleSize):
		filters.Size = nextChoice(sizeChoices, filters.Size)
		return m.applyFilters(filters)

	case key.Matches(msg, m.keys.CycleCondition):
		filters.Condition = nextChoice(conditionChoices, filters.Condition)
		return m.applyFilters(filters)

	case key.Matches(msg, m.keys.ResetFilters):
		m.catalog.ResetFilters()
		return m.reloadPage()

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.searchInput.SetValue(filters.Search)
		m.searchInput.CursorEnd()
		m.searchInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.NextPage):
		if m.showMine || !m.catalog.CanNext() {
			return m, nil
		}
		cmd := m.run("", viewUnchanged, func(ctx context.Context) error {
			_, err := m.catalog.NextPage(ctx)
			return err
		})
		m.selectedRow = 0
		return m, cmd

	case key.Matches(msg, m.keys.PrevPage):
		if m.showMine || !m.catalog.CanPrev() {
			return m, nil
		}
		cmd := m.run("", viewUnchanged, func(ctx context.Context) error {
			_, err := m.catalog.PrevPage(ctx)
			return err
		})
		m.selectedRow = 0
		return m, cmd

	case key.Matches(msg, m.keys.CyclePartition):
		m.showMine = !m.showMine
		m.selectedRow = 0
		if m.showMine {
			if !m.requireLogin("see your listings") {
				m.showMine = false
				return m, nil
			}
			token := m.snap.session.Token
			cmd := m.run("", viewUnchanged, func(ctx context.Context) error {
				return m.catalog.LoadMine(ctx, token)
			})
			m.refreshSnapshots()
			return m, cmd
		}
		m.refreshSnapshots()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.catalog.ClearError()
		return m.reloadPage()
	}
	return m, nil
}

// applyFilters stores new filters, which returns the catalog to page 1, and
// reloads.
func (m Model) applyFilters(f catalog.Filters) (tea.Model, tea.Cmd) {
	m.catalog.SetFilters(f)
	return m.reloadPage()
}

func (m Model) reloadPage() (tea.Model, tea.Cmd) {
	m.selectedRow = 0
	m.showMine = false
	cmd := m.run("", viewUnchanged, func(ctx context.Context) error {
		m.catalog.LoadLocal(ctx)
		return m.catalog.LoadPage(ctx)
	})
	m.refreshSnapshots()
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.searching = false
		m.searchInput.Blur()
		m.catalog.SetSearch(strings.TrimSpace(m.searchInput.Value()))
		return m.reloadPage()

	case key.Matches(msg, m.keys.Escape):
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// renderBrowse renders the listing table with its filter line.
func (m Model) renderBrowse() string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)
	snap := m.snap.catalog
	items := m.browseItems()

	var lines []string
	if m.searching {
		lines = append(lines, bg.Render("Search:", styles.AccentText)+bg.Space()+m.searchInput.View())
	} else {
		lines = append(lines, m.renderFilterLine(styles, bg))
	}
	lines = append(lines, "")

	innerW := max(10, m.width-4)
	if len(items) == 0 {
		empty := "No listings match these filters."
		switch {
		case snap.Loading:
			empty = "Loading listings..."
		case m.showMine:
			empty = "You have no listings yet. Press n to create one."
		}
		lines = append(lines, bg.Render(empty, styles.MutedText))
	} else {
		lines = append(lines, bg.Render(m.itemHeader(innerW), styles.FaintText.Bold(true)))
		visible := max(1, m.contentHeight()-5)
		start := 0
		if m.selectedRow >= visible {
			start = m.selectedRow - visible + 1
		}
		for i := start; i < len(items) && i < start+visible; i++ {
			lines = append(lines, m.renderItemRow(items[i], i == m.selectedRow, innerW))
		}
	}

	title := "Listings"
	if m.showMine {
		title = "My listings"
	} else if !snap.Page.Legacy {
		title = fmt.Sprintf("Listings  page %d/%d  %d total", snap.Page.Current, snap.Page.TotalPages, snap.Page.TotalItems)
	}
	return m.renderBox(title, strings.Join(lines, "\n"), m.width, m.contentHeight(), true)
}

func (m Model) renderFilterLine(styles Styles, bg BgStyle) string {
	f := m.snap.catalog.Filters
	part := func(label, value string) string {
		style := styles.MutedText
		if marketplace.IsUnrestricted(value) {
			value = "all"
		} else {
			style = styles.AccentText
		}
		return bg.Render(label+":", styles.FaintText) + bg.Space() + bg.Render(titleCase(value), style)
	}
	parts := []string{
		part("Category", f.Category),
		part("Size", f.Size),
		part("Condition", f.Condition),
	}
	if f.Search != "" {
		parts = append(parts, bg.Render("Search:", styles.FaintText)+bg.Space()+bg.Render(truncate(f.Search, 24), styles.AccentText))
	}
	return bg.Join(parts, "   ")
}

// column widths for the listing table
const (
	colPoints    = 7
	colSize      = 5
	colCondition = 10
	colCategory  = 12
	colStatus    = 11
	colOwner     = 14
)

func (m Model) itemHeader(width int) string {
	title := m.titleWidth(width)
	header := padRight("Title", title) + padRight("Category", colCategory) + padRight("Size", colSize) +
		padRight("Condition", colCondition) + padRight("Points", colPoints) + padRight("Status", colStatus)
	if width >= LayoutWideWidth {
		header += padRight("Owner", colOwner)
	}
	return header
}

func (m Model) titleWidth(width int) int {
	fixed := colCategory + colSize + colCondition + colPoints + colStatus
	if width >= LayoutWideWidth {
		fixed += colOwner
	}
	return max(12, width-fixed)
}

func (m Model) renderItemRow(item marketplace.Item, selected bool, width int) string {
	title := m.titleWidth(width)
	status := listingStatus(item)
	row := padRight(truncate(item.Title, title-1), title) +
		padRight(truncate(titleCase(item.Category), colCategory-1), colCategory) +
		padRight(titleCase(item.Size), colSize) +
		padRight(truncate(titleCase(item.Condition), colCondition-1), colCondition) +
		padRight(fmt.Sprintf("%d", item.PointValue), colPoints)

	styles := m.theme.Styles()
	if selected {
		return styles.Selected.Render(row + padRight(status, colStatus) + m.ownerColumn(item, width))
	}
	badge := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.statusColor(status))).
		Background(lipgloss.Color(m.theme.FocusBg)).
		Render(padRight(status, colStatus))
	bg := NewBgStyle(m.theme.FocusBg)
	return bg.Render(row, styles.Text) + badge + bg.Render(m.ownerColumn(item, width), styles.MutedText)
}

// listingStatus is the badge text for an item: local, pending moderation,
// or the server status.
func listingStatus(item marketplace.Item) string {
	switch {
	case item.IsLocal():
		return "local"
	case !item.IsApproved:
		return "pending"
	case item.Status == "":
		return "available"
	}
	return strings.ToLower(item.Status)
}

func (m Model) ownerColumn(item marketplace.Item, width int) string {
	if width < LayoutWideWidth || item.User == nil {
		return ""
	}
	return padRight(truncate(item.User.Username, colOwner-1), colOwner)
}

// statusColor returns the theme color for a listing or swap status.
func (m Model) statusColor(status string) string {
	if c, ok := m.theme.StatusColors[strings.ToLower(status)]; ok {
		return c
	}
	return m.theme.Muted
}
