// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package convert

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/sheetcsv-tui/internal/ui/components"
	"github.com/jeranaias/sheetcsv-tui/internal/ui/styles"
)

const (
	// optionsWidth is the options panel width in the side-by-side layout.
	optionsWidth = 46
	jobsHeight   = 8
)

// =============================================================================
// LAYOUT
// =============================================================================

// sideBySide reports whether options and preview fit next to each other.
func (m Model) sideBySide() bool {
	return m.width >= 100
}

// layout pushes the window size into every component.
func (m *Model) layout() {
	w := m.width
	m.theme.SetSize(m.width, m.height)
	m.header.SetWidth(w)
	m.status.SetWidth(w)
	m.progress.Width = w
	m.errBox.SetWidth(w)
	m.jobs.SetSize(w, jobsHeight)
	m.help.Width = w

	previewWidth := w - 4
	if m.sideBySide() {
		previewWidth = w - optionsWidth - 5
	}
	m.preview.SetWidth(max(previewWidth, 20))

	inputWidth := optionsWidth - 24
	if !m.sideBySide() {
		inputWidth = max(w-26, 10)
	}
	m.path.Width = inputWidth
	m.sigFigs.Width = inputWidth
	m.dest.Width = max(w-16, 10)

	m.helpView.Width = max(w-4, 20)
	m.helpView.Height = max(m.height-4, 5)
	if m.showHelp {
		m.renderHelp()
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the converter screen.
func (m Model) View() string {
	if m.showHelp {
		return m.theme.HelpBox.Render(m.helpView.View())
	}

	sections := []string{m.header.View()}

	if m.errBox.IsVisible() {
		sections = append(sections, "", m.errBox.View())
		sections = append(sections, m.status.View())
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	sections = append(sections, m.renderBody())

	if p := m.progress.Render(); p != "" {
		sections = append(sections, p)
	}
	if m.prompting {
		sections = append(sections, m.renderPrompt())
	}
	if m.showJobs {
		sections = append(sections, m.theme.Panel.Render(m.jobs.View()))
	}

	sections = append(sections, m.status.View(), m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderBody() string {
	options := m.renderOptions()
	preview := m.renderPreview()
	if m.sideBySide() {
		return lipgloss.JoinHorizontal(lipgloss.Top, options, " ", preview)
	}
	return lipgloss.JoinVertical(lipgloss.Left, options, preview)
}

// =============================================================================
// OPTIONS PANEL
// =============================================================================

func (m Model) renderOptions() string {
	var b strings.Builder
	b.WriteString(m.theme.PanelTitle.Render("Options"))
	b.WriteString("\n")

	for f := fieldPath; f < fieldCount; f++ {
		if !m.visible(f) {
			continue
		}
		b.WriteString(m.renderField(f))
		b.WriteString("\n")
	}

	if err := m.settingsError(); err != nil {
		b.WriteString("\n")
		b.WriteString(components.InlineError(err.Error()))
		b.WriteString("\n")
	}

	style := m.theme.PanelFocused
	if m.prompting {
		style = m.theme.Panel
	}
	if m.sideBySide() {
		style = style.Width(optionsWidth)
	} else {
		style = style.Width(max(m.width-2, 20))
	}
	return style.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderField(f field) string {
	label := m.theme.Label.Render(f.String())
	focused := f == m.focus && !m.prompting

	switch f {
	case fieldPath:
		return label + m.path.View()
	case fieldCustomSeparator:
		return label + m.customSep.View()
	case fieldQuote:
		return label + m.quote.View()
	case fieldSigFigs:
		return label + m.sigFigs.View()
	}

	value := m.choiceValue(f)
	if focused {
		return label + m.theme.ValueActive.Render("< "+value+" >")
	}
	return label + m.theme.Value.Render(value)
}

// choiceValue returns the display text of a cycle field.
func (m Model) choiceValue(f field) string {
	format := m.cfg.Format
	switch f {
	case fieldSheet:
		if m.sheet == nil {
			return "-"
		}
		if len(m.sheets) > 1 {
			return fmt.Sprintf("%s (%d/%d)", m.sheet.Name, m.sheetIdx+1, len(m.sheets))
		}
		return m.sheet.Name
	case fieldSeparator:
		return separatorLabel(format.Separator)
	case fieldQuoting:
		return format.Quoting
	case fieldEncoding:
		return encodingLabel(format.Encoding)
	case fieldLineEnding:
		return format.LineEnding
	}
	return ""
}

// =============================================================================
// PREVIEW PANEL
// =============================================================================

func (m Model) renderPreview() string {
	var body string
	switch {
	case m.state == StateLoading && m.sheet == nil:
		body = m.spinner.View() + " Reading workbook..."
	default:
		body = m.preview.View()
	}

	title := m.theme.PanelTitle.Render("Preview")
	if m.state == StateLoading && m.sheet != nil {
		title += " " + m.spinner.View()
	}

	width := max(m.width-2, 20)
	if m.sideBySide() {
		width = m.width - optionsWidth - 3
	}
	return m.theme.Panel.Width(width).Render(title + "\n" + body)
}

// =============================================================================
// EXPORT PROMPT
// =============================================================================

func (m Model) renderPrompt() string {
	lines := []string{
		m.theme.PanelTitle.Render("Export to"),
		m.dest.View(),
	}
	if m.confirmOverwrite {
		lines = append(lines, components.InlineWarning("File exists. Press Enter again to overwrite or Esc to cancel"))
	} else {
		lines = append(lines, m.theme.Hint.Render("Enter to export, Esc to cancel"))
	}
	return m.theme.PanelFocused.
		Width(max(m.width-2, 20)).
		BorderForeground(styles.Cyan).
		Render(strings.Join(lines, "\n"))
}
