// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jeranaias/sheetcsv-tui/internal/ui/styles"
	"github.com/jeranaias/sheetcsv-tui/internal/util"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the title bar: brand, workbook and sheet position.
type Header struct {
	Title      string
	Source     string
	Sheet      string
	SheetIndex int // zero-based
	SheetCount int
	Width      int
	theme      *styles.Theme
}

// NewHeader creates a new Header component with default values.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "sheetcsv",
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetSheet records the selected sheet and its position in the workbook.
func (h *Header) SetSheet(name string, index, count int) {
	h.Sheet = name
	h.SheetIndex = index
	h.SheetCount = count
}

// View renders the header on one line, truncated to Width.
func (h *Header) View() string {
	accent := lipgloss.NewStyle().Foreground(styles.Purple)
	brand := accent.Render("< ") + h.theme.HeaderTitle.Render(h.Title) + accent.Render(" >")

	parts := []string{brand}
	if h.Source != "" {
		parts = append(parts, h.theme.HeaderSubtitle.Render(filepath.Base(h.Source)))
	}
	if h.Sheet != "" {
		label := h.Sheet
		if h.SheetCount > 1 {
			label = fmt.Sprintf("%s (%d/%d)", h.Sheet, h.SheetIndex+1, h.SheetCount)
		}
		parts = append(parts, lipgloss.NewStyle().Foreground(styles.Cyan).Render("["+label+"]"))
	}

	line := strings.Join(parts, "  ")
	width := max(h.Width, 20)
	if lipgloss.Width(line) > width-2 {
		// Plain text keeps the cut from landing inside an escape sequence.
		plain := h.Title
		if h.Source != "" {
			plain += "  " + filepath.Base(h.Source)
		}
		if h.Sheet != "" {
			plain += "  [" + h.Sheet + "]"
		}
		line = util.TruncateWidth(plain, width-2)
	}
	return h.theme.Header.Width(width).Render(line)
}
