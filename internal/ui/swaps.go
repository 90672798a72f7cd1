package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/rewear/internal/marketplace"
)

// swapPartition selects which swaps the swaps view lists.
type swapPartition int

const (
	partitionRequested swapPartition = iota
	partitionProvided
	partitionAll // admin only
)

func (p swapPartition) label() string {
	switch p {
	case partitionProvided:
		return "Requests for my items"
	case partitionAll:
		return "All swaps"
	default:
		return "My requests"
	}
}

func (m Model) partitionSwaps() []marketplace.Swap {
	switch m.partition {
	case partitionProvided:
		return m.snap.swaps.Provided
	case partitionAll:
		return m.snap.swaps.All
	default:
		return m.snap.swaps.Requested
	}
}

func (m Model) selectedSwap() *marketplace.Swap {
	list := m.partitionSwaps()
	if m.swapRow < 0 || m.swapRow >= len(list) {
		return nil
	}
	s := list[m.swapRow]
	return &s
}

func (m Model) handleSwapsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if isNavKey(msg, m.keys) {
		m.swapRow = m.moveRow(msg, m.swapRow, len(m.partitionSwaps()))
		return m, nil
	}
	if !m.snap.session.Authenticated {
		return m, nil
	}
	token := m.snap.session.Token

	switch {
	case key.Matches(msg, m.keys.CyclePartition):
		m.partition++
		if m.partition > partitionAll || (m.partition == partitionAll && !m.isAdmin()) {
			m.partition = partitionRequested
		}
		m.swapRow = 0
		if m.partition == partitionAll {
			caller := m.viewer()
			cmd := m.run("", viewUnchanged, func(ctx context.Context) error {
				return m.swaps.FetchAll(ctx, token, caller)
			})
			return m, cmd
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.swaps.ClearError()
		cmd := m.run("", viewUnchanged, func(ctx context.Context) error {
			return m.swaps.FetchMine(ctx, token)
		})
		return m, cmd

	case key.Matches(msg, m.keys.Open):
		s := m.selectedSwap()
		if s == nil {
			return m, nil
		}
		id := s.ID
		cmd := m.run("", viewUnchanged, func(ctx context.Context) error {
			return m.swaps.FetchOne(ctx, token, id)
		})
		return m, cmd

	case key.Matches(msg, m.keys.Accept):
		return m.transition(marketplace.SwapAccepted, "Swap accepted")
	case key.Matches(msg, m.keys.Reject):
		return m.transition(marketplace.SwapRejected, "Swap rejected")
	case key.Matches(msg, m.keys.Complete):
		return m.transition(marketplace.SwapCompleted, "Swap completed")
	}
	return m, nil
}

// transition moves the selected swap to status. The server decides who may
// do what; its refusal is shown in the footer.
func (m Model) transition(status, label string) (tea.Model, tea.Cmd) {
	s := m.selectedSwap()
	if s == nil {
		return m, nil
	}
	token, id := m.snap.session.Token, s.ID
	cmd := m.run(label, viewUnchanged, func(ctx context.Context) error {
		if _, err := m.swaps.Transition(ctx, token, id, status); err != nil {
			return err
		}
		m.followUp("refresh profile", m.session.Refresh(ctx))
		return nil
	})
	return m, cmd
}

// renderSwaps renders the active partition and details of the selected swap.
func (m Model) renderSwaps() string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)

	if !m.snap.session.Authenticated {
		return m.renderBox("Swaps", bg.Render("Sign in (a) to see your swaps.", styles.MutedText), m.width, m.contentHeight(), true)
	}

	list := m.partitionSwaps()
	var lines []string
	if len(list) == 0 {
		empty := "No swaps here yet."
		if m.snap.swaps.Loading {
			empty = "Loading swaps..."
		}
		lines = append(lines, bg.Render(empty, styles.MutedText))
	}
	innerW := max(10, m.width-4)
	visible := max(1, m.contentHeight()-10)
	start := 0
	if m.swapRow >= visible {
		start = m.swapRow - visible + 1
	}
	for i := start; i < len(list) && i < start+visible; i++ {
		lines = append(lines, m.renderSwapRow(list[i], i == m.swapRow, innerW))
	}

	if s := m.selectedSwap(); s != nil {
		detail := *s
		if sel := m.snap.swaps.Selected; sel != nil && sel.ID == s.ID {
			detail = *sel
		}
		lines = append(lines, "", m.renderSwapDetail(detail, styles, bg))
	}

	title := fmt.Sprintf("Swaps  %s (%d)", m.partition.label(), len(list))
	return m.renderBox(title, strings.Join(lines, "\n"), m.width, m.contentHeight(), true)
}

func (m Model) renderSwapRow(s marketplace.Swap, selected bool, width int) string {
	counterpart := s.Provider.Username
	if m.partition == partitionProvided {
		counterpart = s.Requester.Username
	}
	row := padRight(fmt.Sprintf("#%d", s.ID), 7) +
		padRight(truncate(s.ProviderItem.Title, 30), 32) +
		padRight(truncate(counterpart, 14), 16) +
		padRight(paymentLabel(s), 24)
	row = padRight(truncate(row, max(10, width-12)), max(10, width-12))

	status := strings.ToLower(s.Status)
	if selected {
		return m.theme.Styles().Selected.Render(row + padRight(status, 11))
	}
	bg := NewBgStyle(m.theme.FocusBg)
	return bg.Render(row, m.theme.Styles().Text) + m.theme.Styles().StatusStyle(status).Render(status)
}

func (m Model) renderSwapDetail(s marketplace.Swap, styles Styles, bg BgStyle) string {
	field := func(label, value string) string {
		return bg.Render(padRight(label, 12), styles.FaintText) + bg.Render(value, styles.Text)
	}
	lines := []string{
		field("Item", s.ProviderItem.Title),
		field("Owner", s.Provider.Username),
		field("Requester", s.Requester.Username),
		field("Payment", paymentLabel(s)),
		field("Status", s.Status),
	}
	if s.UpdatedAt != "" {
		lines = append(lines, field("Updated", s.UpdatedAt))
	}
	var hint string
	switch m.partition {
	case partitionProvided:
		hint = "A: accept   R: reject   C: complete   v: switch list   r: reload"
	default:
		hint = "C: complete   v: switch list   enter: reload details   r: reload"
	}
	lines = append(lines, "", bg.Render(hint, styles.MutedText))
	return strings.Join(lines, "\n")
}

func paymentLabel(s marketplace.Swap) string {
	if s.PaidWithPoints() {
		return fmt.Sprintf("%d points", s.PointsUsed)
	}
	if s.RequesterItem != nil {
		return "item: " + truncate(s.RequesterItem.Title, 18)
	}
	return "item"
}
