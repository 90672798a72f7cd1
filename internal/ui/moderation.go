package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) handleModerationKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pending := m.snap.catalog.Pending
	if isNavKey(msg, m.keys) {
		m.pendingRow = m.moveRow(msg, m.pendingRow, len(pending))
		return m, nil
	}
	if !m.isAdmin() {
		return m, nil
	}
	token := m.snap.session.Token

	switch {
	case key.Matches(msg, m.keys.Refresh):
		cmd := m.run("", viewUnchanged, func(ctx context.Context) error {
			return m.catalog.LoadPending(ctx, token)
		})
		return m, cmd

	case key.Matches(msg, m.keys.Open):
		if len(pending) == 0 {
			return m, nil
		}
		id := pending[clampRow(m.pendingRow, len(pending))].ID
		m.previousView = ViewModeration
		m.currentView = ViewDetail
		cmd := m.run("", viewUnchanged, func(ctx context.Context) error {
			return m.catalog.LoadItem(ctx, id)
		})
		return m, cmd

	case key.Matches(msg, m.keys.Accept), key.Matches(msg, m.keys.Reject):
		if len(pending) == 0 {
			return m, nil
		}
		id := pending[clampRow(m.pendingRow, len(pending))].ID.Remote
		if key.Matches(msg, m.keys.Accept) {
			cmd := m.run("Listing approved", viewUnchanged, func(ctx context.Context) error {
				return m.catalog.Approve(ctx, token, id)
			})
			return m, cmd
		}
		cmd := m.run("Listing rejected", viewUnchanged, func(ctx context.Context) error {
			return m.catalog.Reject(ctx, token, id)
		})
		return m, cmd
	}
	return m, nil
}

func (m Model) renderModeration() string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)

	if !m.isAdmin() {
		return m.renderBox("Moderation", bg.Render("Moderation is only available to administrators.", styles.MutedText), m.width, m.contentHeight(), true)
	}

	pending := m.snap.catalog.Pending
	var lines []string
	if len(pending) == 0 {
		lines = append(lines, bg.Render("Nothing is waiting for review.", styles.MutedText))
	} else {
		innerW := max(10, m.width-4)
		lines = append(lines, bg.Render(m.itemHeader(innerW), styles.FaintText.Bold(true)))
		for i, item := range pending {
			lines = append(lines, m.renderItemRow(item, i == m.pendingRow, innerW))
		}
	}
	lines = append(lines, "", bg.Render("A: approve   R: reject   enter: open   r: reload", styles.MutedText))
	return m.renderBox("Pending listings", strings.Join(lines, "\n"), m.width, m.contentHeight(), true)
}
