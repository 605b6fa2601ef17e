// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/sheetcsv-tui/internal/csvfmt"
	"github.com/jeranaias/sheetcsv-tui/internal/ui/styles"
)

// =============================================================================
// ERROR DISPLAY MODEL
// =============================================================================

// ErrorDisplay is a dismissible error box with suggestions.
type ErrorDisplay struct {
	kind        csvfmt.ErrorKind
	title       string
	message     string
	suggestions []string
	logsPath    string

	visible bool
	width   int
}

// NewError creates a visible error display with title and message.
func NewError(title, message string) ErrorDisplay {
	return ErrorDisplay{title: title, message: message, visible: true}
}

// ErrorFor builds a display for a conversion failure, picking title and
// suggestions from the error kind. logsPath may be empty.
func ErrorFor(err error, logsPath string) ErrorDisplay {
	kind := csvfmt.KindOf(err)
	e := NewError(titleFor(kind), err.Error())
	e.kind = kind
	e.suggestions = suggestionsFor(err)
	e.logsPath = logsPath
	return e
}

func titleFor(kind csvfmt.ErrorKind) string {
	switch kind {
	case csvfmt.ErrorKindSourceRead:
		return "Cannot read workbook"
	case csvfmt.ErrorKindConfiguration:
		return "Invalid format settings"
	case csvfmt.ErrorKindEncoding:
		return "Character cannot be encoded"
	case csvfmt.ErrorKindSinkWrite:
		return "Cannot write output"
	default:
		return "Export failed"
	}
}

func suggestionsFor(err error) []string {
	var (
		srcErr *csvfmt.SourceReadError
		encErr *csvfmt.EncodingError
	)
	switch {
	case errors.As(err, &srcErr):
		switch srcErr.Reason {
		case csvfmt.SourceProtected:
			return []string{
				"Remove the password in Excel and save a copy",
				"Or pass --password on the command line",
			}
		case csvfmt.SourceMissingSheet:
			return []string{"Pick another sheet with tab / shift+tab"}
		default:
			return []string{
				"Check that the file is an .xlsx workbook",
				"Close the file in Excel if it is still being saved",
			}
		}
	case errors.As(err, &encErr):
		return []string{
			"Choose UTF-8 or UTF-8 with BOM",
			"Or edit the cell in the source workbook",
		}
	}

	switch csvfmt.KindOf(err) {
	case csvfmt.ErrorKindConfiguration:
		return []string{"Fix the highlighted setting and retry"}
	case csvfmt.ErrorKindSinkWrite:
		return []string{
			"Check free disk space",
			"Check write permission on the output directory",
		}
	}
	return nil
}

// Kind returns the error category shown.
func (e ErrorDisplay) Kind() csvfmt.ErrorKind {
	return e.kind
}

// Title returns the error title.
func (e ErrorDisplay) Title() string {
	return e.title
}

// Suggestions returns the fix hints.
func (e ErrorDisplay) Suggestions() []string {
	return e.suggestions
}

// SetWidth sets the available width.
func (e *ErrorDisplay) SetWidth(width int) {
	e.width = width
}

// Hide dismisses the error.
func (e *ErrorDisplay) Hide() {
	e.visible = false
}

// IsVisible returns true while the error is shown.
func (e ErrorDisplay) IsVisible() bool {
	return e.visible
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Update dismisses the box on esc, enter or q.
func (e ErrorDisplay) Update(msg tea.Msg) (ErrorDisplay, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		e.width = msg.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "enter", "q":
			e.Hide()
		}
	}
	return e, nil
}

// View renders the error box.
func (e ErrorDisplay) View() string {
	if !e.visible {
		return ""
	}

	width := e.width
	if width == 0 {
		width = 60
	}
	maxWidth := min(max(width-8, 30), 80)

	// ACCESSIBILITY: error icon alongside high contrast red
	parts := []string{
		lipgloss.NewStyle().Foreground(styles.ErrorHighContrast).Bold(true).
			Render(styles.StatusIndicators.Error + " " + e.title),
		"",
	}

	if e.message != "" {
		parts = append(parts,
			lipgloss.NewStyle().Foreground(styles.TextPrimary).Width(maxWidth-4).Render(e.message),
			"")
	}

	if len(e.suggestions) > 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(styles.InfoHighContrast).Bold(true).Render("Suggestions:"))
		bullet := lipgloss.NewStyle().Foreground(styles.Cyan)
		text := lipgloss.NewStyle().Foreground(styles.TextSecondary)
		for _, s := range e.suggestions {
			parts = append(parts, bullet.Render("  * ")+text.Render(s))
		}
		parts = append(parts, "")
	}

	if e.logsPath != "" {
		parts = append(parts,
			lipgloss.NewStyle().Foreground(styles.WarningHighContrast).Render("[LOG] Logs: ")+
				lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(e.logsPath))
	}

	parts = append(parts, lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true).
		Render("Press Esc or Enter to dismiss"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Rose).
		Padding(1, 2).
		Width(maxWidth).
		Render(strings.Join(parts, "\n"))
}

// =============================================================================
// INLINE MESSAGES
// =============================================================================

// InlineError renders a one-line error.
func InlineError(message string) string {
	return styles.RenderError(message)
}

// InlineWarning renders a one-line warning.
func InlineWarning(message string) string {
	return styles.RenderWarning(message)
}

// InlineSuccess renders a one-line success note.
func InlineSuccess(message string) string {
	return styles.RenderSuccess(message)
}
