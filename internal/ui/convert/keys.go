// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package convert

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the converter screen.
type KeyMap struct {
	NextField   key.Binding
	PrevField   key.Binding
	Left        key.Binding
	Right       key.Binding
	Load        key.Binding
	Export      key.Binding
	ExportAll   key.Binding
	Cancel      key.Binding
	ToggleView  key.Binding
	ScrollLeft  key.Binding
	ScrollRight key.Binding
	Jobs        key.Binding
	Save        key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("S-tab", "previous field"),
		),
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("left", "previous value"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("right", "next value"),
		),
		Load: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "load workbook"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "export sheet"),
		),
		ExportAll: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("C-a", "export all sheets"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "cancel export"),
		),
		ToggleView: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "grid/raw preview"),
		),
		ScrollLeft: key.NewBinding(
			key.WithKeys("ctrl+left", "alt+left"),
			key.WithHelp("C-left", "scroll columns left"),
		),
		ScrollRight: key.NewBinding(
			key.WithKeys("ctrl+right", "alt+right"),
			key.WithHelp("C-right", "scroll columns right"),
		),
		Jobs: key.NewBinding(
			key.WithKeys("ctrl+j"),
			key.WithHelp("C-j", "toggle exports panel"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+w"),
			key.WithHelp("C-w", "save settings"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1", "?"),
			key.WithHelp("?/F1", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+q", "ctrl+c"),
			key.WithHelp("C-q", "save settings and quit"),
		),
	}
}

// =============================================================================
// KEY BINDING HELPERS
// =============================================================================

// ShortHelp returns the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextField, k.Export, k.ToggleView, k.Help, k.Quit}
}

// FullHelp returns the bindings grouped for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextField, k.PrevField, k.Left, k.Right, k.Load},
		{k.Export, k.ExportAll, k.Cancel, k.Jobs},
		{k.ToggleView, k.ScrollLeft, k.ScrollRight},
		{k.Save, k.Help, k.Quit},
	}
}
