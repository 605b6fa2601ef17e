// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jeranaias/sheetcsv-tui/internal/ui/styles"
	"github.com/jeranaias/sheetcsv-tui/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status represents the current application status.
type Status int

const (
	StatusReady Status = iota
	StatusLoading
	StatusExporting
	StatusError
	StatusIdle
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusLoading:
		return "Loading..."
	case StatusExporting:
		return "Exporting..."
	case StatusError:
		return "Error"
	case StatusIdle:
		return "Idle"
	default:
		return "Unknown"
	}
}

// Icon returns an icon for the status.
// ACCESSIBILITY: Uses distinct shapes alongside colors for colorblind users
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusLoading, StatusExporting:
		return styles.StatusIndicators.Pending
	case StatusError:
		return styles.StatusIndicators.Error
	case StatusIdle:
		return "-"
	default:
		return "?"
	}
}

// Shortcut is one key hint shown on the right of the bar.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the bottom line of the converter screen.
type StatusBar struct {
	Source    string // workbook path
	Sheet     string
	Status    Status
	Message   string // transient note, e.g. "Settings saved"
	Watching  bool   // the source file is watched for changes
	Width     int
	Shortcuts []Shortcut
	theme     *styles.Theme
}

// NewStatusBar creates a new StatusBar component.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Status: StatusIdle,
		Width:  80,
		theme:  theme,
		Shortcuts: []Shortcut{
			{Key: "ctrl+s", Desc: "export"},
			{Key: "?", Desc: "help"},
			{Key: "ctrl+c", Desc: "quit"},
		},
	}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetStatus updates the status and clears any stale message.
func (s *StatusBar) SetStatus(status Status) {
	s.Status = status
	s.Message = ""
}

// SetMessage shows a transient note next to the status.
func (s *StatusBar) SetMessage(msg string) {
	s.Message = msg
}

// View renders the status bar.
func (s *StatusBar) View() string {
	if s.Width < 60 {
		return s.viewNarrow()
	}
	return s.viewWide()
}

// viewNarrow renders icon, sheet and message only.
func (s *StatusBar) viewNarrow() string {
	parts := []string{s.statusStyle().Render(s.Status.Icon())}
	if s.Sheet != "" {
		parts = append(parts, s.Sheet)
	}
	if s.Message != "" {
		parts = append(parts, s.Message)
	}
	return s.theme.StatusBar.
		Width(s.Width).
		Render(util.TruncateWidth(strings.Join(parts, " "), max(s.Width-2, 1)))
}

// viewWide renders file | sheet | status on the left and shortcuts on the right.
func (s *StatusBar) viewWide() string {
	sep := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" | ")

	var left []string
	if s.Source != "" {
		name := filepath.Base(s.Source)
		if s.Watching {
			name += " " + styles.StatusIndicators.Active
		}
		left = append(left, lipgloss.NewStyle().Foreground(styles.TextPrimary).Render(name))
	}
	if s.Sheet != "" {
		left = append(left, lipgloss.NewStyle().Foreground(styles.Cyan).Render(s.Sheet))
	}
	status := s.Status.Icon() + " " + s.Status.String()
	if s.Message != "" {
		status += " " + s.Message
	}
	left = append(left, s.statusStyle().Render(status))
	leftText := strings.Join(left, sep)

	var right []string
	for _, sc := range s.Shortcuts {
		right = append(right, s.theme.ShortcutKey.Render(sc.Key)+" "+s.theme.ShortcutDesc.Render(sc.Desc))
	}
	rightText := strings.Join(right, "  ")

	inner := s.Width - 2
	gap := inner - lipgloss.Width(leftText) - lipgloss.Width(rightText)
	if gap < 1 {
		// Shortcuts go first when space runs out.
		return s.theme.StatusBar.Width(s.Width).MaxHeight(1).Render(leftText)
	}
	return s.theme.StatusBar.Width(s.Width).Render(leftText + strings.Repeat(" ", gap) + rightText)
}

func (s *StatusBar) statusStyle() lipgloss.Style {
	switch s.Status {
	case StatusReady:
		return s.theme.SuccessStyle
	case StatusError:
		return s.theme.ErrorStyle
	case StatusLoading, StatusExporting:
		return s.theme.InfoStyle
	default:
		return lipgloss.NewStyle().Foreground(styles.TextMuted)
	}
}
