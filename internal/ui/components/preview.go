// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jeranaias/sheetcsv-tui/internal/csvfmt"
	"github.com/jeranaias/sheetcsv-tui/internal/ui/styles"
	"github.com/jeranaias/sheetcsv-tui/internal/util"
)

// =============================================================================
// PREVIEW GRID COMPONENT
// =============================================================================

// PreviewMode selects how the preview is drawn.
type PreviewMode int

const (
	// PreviewGrid shows one column per field, colored by cell kind.
	PreviewGrid PreviewMode = iota
	// PreviewRaw shows the records exactly as they will be written.
	PreviewRaw
)

// String returns the mode label.
func (m PreviewMode) String() string {
	if m == PreviewRaw {
		return "raw"
	}
	return "grid"
}

const (
	maxColumnWidth = 24
	minColumnWidth = 3
	columnGap      = " │ "
)

// PreviewTable renders a csvfmt.PreviewResult.
type PreviewTable struct {
	result *csvfmt.PreviewResult
	theme  *styles.Theme
	mode   PreviewMode
	width  int

	// colOffset is the first grid column drawn, for horizontal scrolling.
	colOffset int
}

// NewPreviewTable creates an empty preview.
func NewPreviewTable(theme *styles.Theme) *PreviewTable {
	return &PreviewTable{theme: theme, width: 80}
}

// SetResult replaces the previewed records. The scroll position is kept
// when the column count allows it.
func (pt *PreviewTable) SetResult(res *csvfmt.PreviewResult) {
	pt.result = res
	pt.clampOffset()
}

// Result returns the current preview, or nil.
func (pt *PreviewTable) Result() *csvfmt.PreviewResult {
	return pt.result
}

// SetWidth sets the available width in cells.
func (pt *PreviewTable) SetWidth(width int) {
	pt.width = width
}

// Mode returns the current drawing mode.
func (pt *PreviewTable) Mode() PreviewMode {
	return pt.mode
}

// ToggleMode switches between grid and raw output.
func (pt *PreviewTable) ToggleMode() {
	if pt.mode == PreviewGrid {
		pt.mode = PreviewRaw
	} else {
		pt.mode = PreviewGrid
	}
}

// ScrollLeft moves the grid one column left.
func (pt *PreviewTable) ScrollLeft() {
	if pt.colOffset > 0 {
		pt.colOffset--
	}
}

// ScrollRight moves the grid one column right.
func (pt *PreviewTable) ScrollRight() {
	pt.colOffset++
	pt.clampOffset()
}

// ColumnOffset returns the first visible grid column.
func (pt *PreviewTable) ColumnOffset() int {
	return pt.colOffset
}

func (pt *PreviewTable) clampOffset() {
	n := 0
	if pt.result != nil {
		n = len(pt.result.HeaderFields)
	}
	if pt.colOffset > n-1 {
		pt.colOffset = max(n-1, 0)
	}
}

// =============================================================================
// RENDERING
// =============================================================================

// View renders the preview followed by a summary line.
func (pt *PreviewTable) View() string {
	if pt.result == nil {
		return pt.theme.Hint.Render("No sheet loaded")
	}

	var body string
	if pt.mode == PreviewRaw {
		body = pt.renderRaw()
	} else {
		body = pt.renderGrid()
	}

	lines := []string{body, "", pt.renderSummary()}
	if warn := pt.renderProblem(); warn != "" {
		lines = append(lines, warn)
	}
	return strings.Join(lines, "\n")
}

// renderRaw shows each record on one line with line breaks made visible.
func (pt *PreviewTable) renderRaw() string {
	res := pt.result
	lines := make([]string, 0, len(res.Lines)+1)
	lines = append(lines, pt.theme.GridHeader.Render(pt.fit(res.Header)))
	for _, line := range res.Lines {
		lines = append(lines, pt.theme.PreviewText.Render(pt.fit(line)))
	}
	return strings.Join(lines, "\n")
}

func (pt *PreviewTable) fit(s string) string {
	return util.TruncateWidth(util.Printable(s), max(pt.width, 1))
}

func (pt *PreviewTable) renderGrid() string {
	res := pt.result
	if len(res.HeaderFields) == 0 {
		return pt.theme.Hint.Render("Sheet has no columns")
	}

	widths := columnWidths(res)
	visible := pt.visibleColumns(widths)
	sep := pt.theme.GridRule.Render(columnGap)

	var b strings.Builder
	cells := make([]string, 0, len(visible))
	for _, c := range visible {
		cells = append(cells, pt.theme.GridHeader.Render(util.PadWidth(util.Printable(res.HeaderFields[c]), widths[c])))
	}
	b.WriteString(strings.Join(cells, sep))
	b.WriteString("\n")

	rules := make([]string, 0, len(visible))
	for _, c := range visible {
		rules = append(rules, strings.Repeat("─", widths[c]))
	}
	b.WriteString(pt.theme.GridRule.Render(strings.Join(rules, "─┼─")))

	for r, fields := range res.Fields {
		b.WriteString("\n")
		cells = cells[:0]
		for _, c := range visible {
			text, kind := "", csvfmt.KindEmpty
			if c < len(fields) {
				text = fields[c]
			}
			if r < len(res.Kinds) && c < len(res.Kinds[r]) {
				kind = res.Kinds[r][c]
			}
			cells = append(cells, pt.theme.CellStyle(kind).Render(util.PadWidth(util.Printable(text), widths[c])))
		}
		b.WriteString(strings.Join(cells, sep))
	}
	return b.String()
}

// visibleColumns returns the column indexes that fit from colOffset on.
// At least one column is always shown.
func (pt *PreviewTable) visibleColumns(widths []int) []int {
	var cols []int
	used := 0
	for c := pt.colOffset; c < len(widths); c++ {
		need := widths[c]
		if len(cols) > 0 {
			need += util.StringWidth(columnGap)
		}
		if len(cols) > 0 && used+need > pt.width {
			break
		}
		used += need
		cols = append(cols, c)
	}
	return cols
}

func (pt *PreviewTable) renderSummary() string {
	res := pt.result
	shown := len(res.Lines)
	text := fmt.Sprintf("Showing %s of %s · %d columns · %s view",
		fmtNumber(shown), fmtRows(res.TotalRows, 0), len(res.HeaderFields), pt.mode)
	if pt.mode == PreviewGrid && pt.colOffset > 0 {
		text += fmt.Sprintf(" · from column %d", pt.colOffset+1)
	}
	return pt.theme.Hint.Render(text)
}

func (pt *PreviewTable) renderProblem() string {
	p := pt.result.Problem
	if p == nil {
		return ""
	}
	msg := p.Error() + "; export will fail"
	return lipgloss.NewStyle().Foreground(styles.Amber).Render(styles.StatusIndicators.Warning + " " + msg)
}

// columnWidths sizes each column to its widest previewed field, within
// [minColumnWidth, maxColumnWidth].
func columnWidths(res *csvfmt.PreviewResult) []int {
	widths := make([]int, len(res.HeaderFields))
	for c, h := range res.HeaderFields {
		widths[c] = util.StringWidth(util.Printable(h))
	}
	for _, fields := range res.Fields {
		for c, f := range fields {
			if c < len(widths) {
				widths[c] = max(widths[c], util.StringWidth(util.Printable(f)))
			}
		}
	}
	for c := range widths {
		widths[c] = min(max(widths[c], minColumnWidth), maxColumnWidth)
	}
	return widths
}
