package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit        key.Binding
	Help        key.Binding
	ToggleTheme key.Binding
	Tab         key.Binding
	Escape      key.Binding

	// View switching
	ViewOrders   key.Binding
	ViewEarnings key.Binding
	ViewLogs     key.Binding

	// Navigation
	Up   key.Binding
	Down key.Binding

	// Order actions
	Accept       key.Binding
	Reject       key.Binding
	PickUp       key.Binding
	Deliver      key.Binding
	MoveUp       key.Binding
	MoveDown     key.Binding
	ToggleOnline key.Binding
	Refresh      key.Binding
	Logout       key.Binding

	// Logs
	CycleLevel key.Binding

	// Proof screen
	Upload       key.Binding
	CancelUpload key.Binding
	Retry        key.Binding
	NextField    key.Binding

	// Input
	Confirm key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		ToggleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Light/dark theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Cycle views"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back to orders"),
		),

		ViewOrders: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "Orders"),
		),
		ViewEarnings: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "Earnings"),
		),
		ViewLogs: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "Logs"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),

		Accept: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Accept"),
		),
		Reject: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Reject"),
		),
		PickUp: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Picked up (OTP)"),
		),
		Deliver: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Deliver (proof + OTP)"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "Move order up"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "Move order down"),
		),
		ToggleOnline: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Go online/offline"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Log out"),
		),

		CycleLevel: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Cycle level filter"),
		),

		Upload: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "Upload proof"),
		),
		CancelUpload: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "Cancel upload"),
		),
		Retry: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "Retry upload"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "Next field"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
	}
}

// ShortHelp implements help.KeyMap for the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Accept, k.PickUp, k.Deliver, k.ToggleOnline, k.Tab, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ViewOrders, k.ViewEarnings, k.ViewLogs, k.Escape, k.Up, k.Down},
		{k.Accept, k.Reject, k.PickUp, k.Deliver, k.MoveUp, k.MoveDown, k.ToggleOnline, k.Refresh},
		{k.Upload, k.CancelUpload, k.Retry, k.NextField, k.Confirm},
		{k.CycleLevel, k.ToggleTheme, k.Logout, k.Help, k.Quit},
	}
}

// proofHelp is the footer shown on the proof screen.
type proofHelp struct{ keys keyMap }

func (p proofHelp) ShortHelp() []key.Binding {
	return []key.Binding{p.keys.Confirm, p.keys.NextField, p.keys.Upload, p.keys.CancelUpload, p.keys.Retry, p.keys.Escape}
}

func (p proofHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{p.ShortHelp()}
}
