package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding
	Escape     key.Binding
	Refresh    key.Binding

	// View switching
	ViewBrowse     key.Binding
	ViewSwaps      key.Binding
	ViewLogs       key.Binding
	ViewModeration key.Binding
	Account        key.Binding
	NewListing     key.Binding

	// Browse actions
	CycleCategory  key.Binding
	CycleSize      key.Binding
	CycleCondition key.Binding
	ResetFilters   key.Binding
	Search         key.Binding
	NextPage       key.Binding
	PrevPage       key.Binding
	Open           key.Binding

	// Detail actions
	OfferPoints key.Binding
	OfferItem   key.Binding
	Delete      key.Binding

	// Swap and moderation actions
	Accept         key.Binding
	Reject         key.Binding
	Complete       key.Binding
	CyclePartition key.Binding

	// Navigation
	Up           key.Binding
	Down         key.Binding
	Top          key.Binding
	Bottom       key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding

	// Logs actions
	ToggleFollow key.Binding

	// Forms
	Confirm   key.Binding
	NextField key.Binding
	PrevField key.Binding
	DemoLogin key.Binding
	Register  key.Binding
	Submit    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "e"),
			key.WithHelp("e", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Cycle views"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Cycle views (reverse)"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Reload"),
		),

		ViewBrowse: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "Browse listings"),
		),
		ViewSwaps: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "My swaps"),
		),
		ViewLogs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Client log"),
		),
		ViewModeration: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "Moderation (admin)"),
		),
		Account: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Sign in / sign out"),
		),
		NewListing: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "New listing"),
		),

		CycleCategory: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Cycle category"),
		),
		CycleSize: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "Cycle size"),
		),
		CycleCondition: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Cycle condition"),
		),
		ResetFilters: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Clear filters"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("]", "right"),
			key.WithHelp("]", "Next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("[", "left"),
			key.WithHelp("[", "Previous page"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Open"),
		),

		OfferPoints: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Request with points"),
		),
		OfferItem: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "Offer one of my items"),
		),
		Delete: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "Delete my listing"),
		),

		Accept: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "Accept / approve"),
		),
		Reject: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Reject"),
		),
		Complete: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "Complete"),
		),
		CyclePartition: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "Requested/provided/all"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "Half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "Half page down"),
		),

		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "Toggle follow mode"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		DemoLogin: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "Demo account"),
		),
		Register: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "Sign in / register"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "Submit"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ViewBrowse, k.ViewSwaps, k.ViewLogs, k.ViewModeration, k.Account, k.NewListing},
		{k.Up, k.Down, k.Top, k.Bottom, k.HalfPageDown, k.HalfPageUp},
		{k.CycleCategory, k.CycleSize, k.CycleCondition, k.ResetFilters, k.Search, k.NextPage, k.PrevPage, k.Open},
		{k.OfferPoints, k.OfferItem, k.Delete},
		{k.Accept, k.Reject, k.Complete, k.CyclePartition},
		{k.ToggleFollow, k.Refresh},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
