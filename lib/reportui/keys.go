// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reportui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings. Screens with text fields take
// printable keys as input, so every action available on those screens
// is bound to a control key.
type KeyMap struct {
	Quit    key.Binding
	Login   key.Binding
	Recheck key.Binding
	Logout  key.Binding
	Back    key.Binding

	// Form navigation.
	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding

	// Home menu.
	NewOccurrence key.Binding
	Directory     key.Binding

	// Occurrence form.
	CommitRecord key.Binding
	EditRecord   key.Binding
	RemoveRecord key.Binding
	NextRecord   key.Binding
	PrevRecord   key.Binding
	Attach       key.Binding

	// Directory.
	Up          key.Binding
	Down        key.Binding
	Filter      key.Binding
	Approve     key.Binding
	Reject      key.Binding
	MarkPending key.Binding
	CycleRole   key.Binding
	Reload      key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("C-c", "quit"),
	),
	Login: key.NewBinding(
		key.WithKeys("enter", "l"),
		key.WithHelp("enter", "sign in"),
	),
	Recheck: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("C-r", "check again"),
	),
	Logout: key.NewBinding(
		key.WithKeys("ctrl+x"),
		key.WithHelp("C-x", "sign out"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	NextField: key.NewBinding(
		key.WithKeys("tab", "down"),
		key.WithHelp("tab", "next field"),
	),
	PrevField: key.NewBinding(
		key.WithKeys("shift+tab", "up"),
		key.WithHelp("S-tab", "previous field"),
	),
	Submit: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("C-s", "submit"),
	),
	NewOccurrence: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new occurrence"),
	),
	Directory: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "user directory"),
	),
	CommitRecord: key.NewBinding(
		key.WithKeys("ctrl+a"),
		key.WithHelp("C-a", "save record"),
	),
	EditRecord: key.NewBinding(
		key.WithKeys("ctrl+e"),
		key.WithHelp("C-e", "edit record"),
	),
	RemoveRecord: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("C-d", "remove record"),
	),
	NextRecord: key.NewBinding(
		key.WithKeys("ctrl+n"),
		key.WithHelp("C-n/C-p", "select record"),
	),
	PrevRecord: key.NewBinding(
		key.WithKeys("ctrl+p"),
	),
	Attach: key.NewBinding(
		key.WithKeys("ctrl+t"),
		key.WithHelp("C-t", "attach file"),
	),
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Filter: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
	Approve: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "approve"),
	),
	Reject: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "reject"),
	),
	MarkPending: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "mark pending"),
	),
	CycleRole: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "change role"),
	),
	Reload: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("C-r", "reload"),
	),
}
