package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/rewear/internal/marketplace"
	"github.com/five82/rewear/internal/swaps"
)

// offerableItems are the viewer's remote listings that can be offered in
// exchange for the selected item.
func (m Model) offerableItems() []marketplace.Item {
	selected := m.snap.catalog.Selected
	var out []marketplace.Item
	for _, item := range m.snap.catalog.Mine {
		if item.IsLocal() || (selected != nil && item.ID == selected.ID) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (m Model) ownsSelected() bool {
	item, u := m.snap.catalog.Selected, m.viewer()
	return item != nil && u != nil && item.UserID == u.ID
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	item := m.snap.catalog.Selected
	if item == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.OfferPoints):
		if !m.requireLogin("request swaps") {
			return m, nil
		}
		cmd := m.requestSwap(swaps.Offer{Target: *item, Points: item.PointValue})
		return m, cmd

	case key.Matches(msg, m.keys.OfferItem):
		if !m.requireLogin("offer items") {
			return m, nil
		}
		m.picking = true
		m.pickRow = 0
		token := m.snap.session.Token
		cmd := m.run("", viewUnchanged, func(ctx context.Context) error {
			return m.catalog.LoadMine(ctx, token)
		})
		return m, cmd

	case key.Matches(msg, m.keys.Delete):
		if !m.ownsSelected() {
			return m, nil
		}
		token, id := m.snap.session.Token, item.ID
		cmd := m.run("Listing deleted", ViewBrowse, func(ctx context.Context) error {
			if id.IsLocal() {
				return m.catalog.DeleteLocal(ctx, id)
			}
			return m.catalog.DeleteItem(ctx, token, id)
		})
		return m, cmd

	case key.Matches(msg, m.keys.Accept):
		if !m.isAdmin() || item.IsApproved || item.IsLocal() {
			return m, nil
		}
		token, id := m.snap.session.Token, item.ID.Remote
		cmd := m.run("Listing approved", viewUnchanged, func(ctx context.Context) error {
			return m.catalog.Approve(ctx, token, id)
		})
		return m, cmd
	}
	return m, nil
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.offerableItems()
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.picking = false
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		if len(items) == 0 || m.snap.catalog.Selected == nil {
			return m, nil
		}
		offered := items[clampRow(m.pickRow, len(items))]
		m.picking = false
		cmd := m.requestSwap(swaps.Offer{Target: *m.snap.catalog.Selected, Item: &offered})
		return m, cmd
	case isNavKey(msg, m.keys):
		m.pickRow = m.moveRow(msg, m.pickRow, len(items))
	}
	return m, nil
}

// requestSwap creates the swap and then refreshes the points balance.
func (m *Model) requestSwap(offer swaps.Offer) tea.Cmd {
	token, caller := m.snap.session.Token, m.viewer()
	return m.run("Swap requested", ViewSwaps, func(ctx context.Context) error {
		if _, err := m.swaps.Create(ctx, token, caller, offer); err != nil {
			return err
		}
		m.followUp("refresh profile", m.session.Refresh(ctx))
		return nil
	})
}

// renderDetail renders the selected listing, or the item picker on top of it.
func (m Model) renderDetail() string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)
	item := m.snap.catalog.Selected
	if item == nil {
		text := "Loading listing..."
		if err := m.snap.catalog.LastError; err != nil && !m.snap.catalog.Loading {
			text = marketplace.Message(err)
		}
		return m.renderBox("Listing", bg.Render(text, styles.MutedText), m.width, m.contentHeight(), true)
	}

	if m.picking {
		return m.renderPicker(*item, styles, bg)
	}

	field := func(label, value string) string {
		return bg.Render(padRight(label, 12), styles.FaintText) + bg.Render(value, styles.Text)
	}
	status := listingStatus(*item)
	lines := []string{
		bg.Render(item.Title, styles.AccentText.Bold(true)) + bg.Spaces(2) +
			styles.StatusStyle(status).Render(status),
		"",
		field("Category", titleCase(item.Category)),
		field("Type", item.Type),
		field("Size", titleCase(item.Size)),
		field("Condition", titleCase(item.Condition)),
		field("Points", fmt.Sprintf("%d", item.PointValue)),
	}
	if item.User != nil {
		lines = append(lines, field("Owner", item.User.Username))
	}
	if len(item.Tags) > 0 {
		lines = append(lines, field("Tags", strings.Join(item.Tags, ", ")))
	}
	if img, ok := item.PrimaryImage(); ok {
		lines = append(lines, field("Photos", fmt.Sprintf("%d (primary %s)", len(item.Images), imageLabel(img))))
	}
	if item.CreatedAt != "" {
		lines = append(lines, field("Listed", item.CreatedAt))
	}
	lines = append(lines, "", bg.Render(truncate(item.Description, 4*max(20, m.width-6)), styles.Text), "")

	var actions []string
	switch {
	case item.IsLocal():
		actions = append(actions, "Saved on this machine only; it cannot be swapped.")
		if m.ownsSelected() {
			actions = append(actions, "D: delete")
		}
	case m.ownsSelected():
		actions = append(actions, "D: delete")
	default:
		actions = append(actions, "p: request for "+fmt.Sprintf("%d", item.PointValue)+" points", "i: offer one of your items")
	}
	if m.isAdmin() && !item.IsApproved && !item.IsLocal() {
		actions = append(actions, "A: approve")
	}
	actions = append(actions, "esc: back")
	lines = append(lines, bg.Render(strings.Join(actions, "   "), styles.MutedText))

	return m.renderBox("Listing", strings.Join(lines, "\n"), m.width, m.contentHeight(), true)
}

func (m Model) renderPicker(target marketplace.Item, styles Styles, bg BgStyle) string {
	items := m.offerableItems()
	lines := []string{
		bg.Render("Offer one of your items for ", styles.Text) + bg.Render(target.Title, styles.AccentText),
		"",
	}
	if len(items) == 0 {
		lines = append(lines, bg.Render("You have no listings that can be offered.", styles.MutedText))
	}
	innerW := max(10, m.width-4)
	for i, item := range items {
		lines = append(lines, m.renderItemRow(item, i == m.pickRow, innerW))
	}
	lines = append(lines, "", bg.Render("enter: offer   esc: cancel", styles.FaintText))
	return m.renderBox("Choose an item", strings.Join(lines, "\n"), m.width, m.contentHeight(), true)
}

// imageLabel names an image without dumping a data URL.
func imageLabel(img marketplace.Image) string {
	if strings.HasPrefix(img.ImageURL, "data:") {
		if i := strings.IndexByte(img.ImageURL, ';'); i > 5 {
			return img.ImageURL[5:i]
		}
		return "embedded"
	}
	return truncate(img.ImageURL, 40)
}
