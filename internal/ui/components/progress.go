// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/jeranaias/sheetcsv-tui/internal/ui/styles"
)

// =============================================================================
// EXPORT PROGRESS COMPONENT
// =============================================================================

// ProgressStatus represents the state of an export run.
type ProgressStatus string

const (
	ProgressStatusIdle     ProgressStatus = "Idle"
	ProgressStatusRunning  ProgressStatus = "Running"
	ProgressStatusComplete ProgressStatus = "Complete"
	ProgressStatusCanceled ProgressStatus = "Canceled"
	ProgressStatusError    ProgressStatus = "Error"
)

// ExportProgress tracks one export run: rows written, destination and
// elapsed time.
type ExportProgress struct {
	Sheet       string
	Destination string
	Rows        int
	TotalRows   int
	Message     string // failure reason or completion note

	Status   ProgressStatus
	Start    time.Time
	Finished time.Time

	// Display settings
	Width          int
	ShowCancelHint bool
	Compact        bool

	bar  progress.Model
	dark bool
}

// NewExportProgress creates an idle progress indicator.
func NewExportProgress() *ExportProgress {
	return &ExportProgress{
		Status:         ProgressStatusIdle,
		Width:          80,
		ShowCancelHint: true,
		dark:           lipgloss.HasDarkBackground(),
		bar: progress.New(
			progress.WithSolidFill(styles.Purple.Dark),
			progress.WithoutPercentage(),
		),
	}
}

// Begin resets the indicator for a new run.
func (p *ExportProgress) Begin(sheet, destination string, totalRows int) {
	p.Sheet = sheet
	p.Destination = destination
	p.TotalRows = totalRows
	p.Rows = 0
	p.Message = ""
	p.Status = ProgressStatusRunning
	p.Start = time.Now()
	p.Finished = time.Time{}
}

// SetRows records the rows written so far. Counts never move backwards.
func (p *ExportProgress) SetRows(rows int) {
	if rows > p.Rows {
		p.Rows = rows
	}
}

// Complete marks the run successful.
func (p *ExportProgress) Complete(rows int) {
	p.Rows = rows
	p.Status = ProgressStatusComplete
	p.Finished = time.Now()
}

// Cancel marks the run canceled.
func (p *ExportProgress) Cancel() {
	p.Status = ProgressStatusCanceled
	p.Finished = time.Now()
}

// Fail marks the run failed with a user-facing reason.
func (p *ExportProgress) Fail(message string) {
	p.Status = ProgressStatusError
	p.Message = message
	p.Finished = time.Now()
}

// Elapsed returns the run time so far, or the total once finished.
func (p *ExportProgress) Elapsed() time.Duration {
	if p.Start.IsZero() {
		return 0
	}
	if !p.Finished.IsZero() {
		return p.Finished.Sub(p.Start)
	}
	return time.Since(p.Start)
}

// Fraction returns progress as 0-1.
func (p *ExportProgress) Fraction() float64 {
	if p.Status == ProgressStatusComplete {
		return 1
	}
	if p.TotalRows <= 0 {
		return 0
	}
	f := float64(p.Rows) / float64(p.TotalRows)
	return min(max(f, 0), 1)
}

// IsActive returns true while the run is in flight.
func (p *ExportProgress) IsActive() bool {
	return p.Status == ProgressStatusRunning
}

// =============================================================================
// RENDERING
// =============================================================================

// Render renders the progress indicator. An idle indicator renders nothing.
func (p *ExportProgress) Render() string {
	if p.Status == ProgressStatusIdle {
		return ""
	}
	if p.Compact {
		return p.renderCompact()
	}
	return p.renderFull()
}

func (p *ExportProgress) renderFull() string {
	width := p.Width
	if width <= 0 {
		width = 80
	}
	contentWidth := width - 4

	if contentWidth < 30 {
		return p.renderCompact()
	}

	lines := []string{
		p.renderTargetLine(contentWidth),
		p.renderBar(contentWidth),
		p.renderCountLine(),
	}
	if p.Message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(p.statusColor())
		lines = append(lines, msgStyle.Render(p.Message))
	}
	if p.ShowCancelHint && p.Status == ProgressStatusRunning {
		lines = append(lines, lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			Render("Press Esc to cancel"))
	}

	color := p.statusColor()
	title := lipgloss.NewStyle().Bold(true).Foreground(color).Render(p.title())
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Width(contentWidth).
		Render(strings.Join(lines, "\n"))

	return title + "\n" + box
}

// renderCompact renders a single line.
// Format: [OK] Sheet1 | 1,000 / 5,000 rows | 2.3s | 20.0% [##--------]
func (p *ExportProgress) renderCompact() string {
	color := p.statusColor()
	var parts []string

	parts = append(parts, lipgloss.NewStyle().Bold(true).Foreground(color).Render(p.icon()))
	if p.Sheet != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(styles.TextPrimary).Render(p.Sheet))
	}
	parts = append(parts, lipgloss.NewStyle().Foreground(styles.Cyan).Render(fmtRows(p.Rows, p.TotalRows)))
	parts = append(parts, lipgloss.NewStyle().Foreground(styles.TextMuted).Render(fmtDuration(p.Elapsed())))

	frac := p.Fraction()
	bar := styles.RenderProgressBar(10, frac*100)
	parts = append(parts, lipgloss.NewStyle().Foreground(color).Render(fmtPercent(frac)+" "+bar))

	sep := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" | ")
	return strings.Join(parts, sep)
}

func (p *ExportProgress) renderTargetLine(width int) string {
	label := lipgloss.NewStyle().Foreground(styles.TextMuted)
	value := lipgloss.NewStyle().Foreground(styles.TextPrimary).Bold(true)

	dest := p.Destination
	if dest != "" {
		dest = filepath.Base(dest)
	}
	line := label.Render("Sheet: ") + value.Render(p.Sheet)
	if dest != "" {
		line += label.Render("  ->  ") + value.Render(dest)
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(line)
}

func (p *ExportProgress) renderBar(width int) string {
	barWidth := width - 8
	if barWidth < 10 {
		barWidth = 10
	}
	p.bar.Width = barWidth
	p.bar.FullColor = colorFor(p.statusColor(), p.dark)

	pct := lipgloss.NewStyle().Bold(true).Foreground(p.statusColor()).Render(fmtPercent(p.Fraction()))
	return p.bar.ViewAs(p.Fraction()) + " " + pct
}

func (p *ExportProgress) renderCountLine() string {
	label := lipgloss.NewStyle().Foreground(styles.TextMuted)
	value := lipgloss.NewStyle().Foreground(styles.TextSecondary)
	return label.Render("Rows: ") + value.Render(fmtRows(p.Rows, p.TotalRows)) +
		label.Render(" | Elapsed: ") + value.Render(fmtDuration(p.Elapsed()))
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (p *ExportProgress) statusColor() lipgloss.AdaptiveColor {
	switch p.Status {
	case ProgressStatusComplete:
		return styles.Emerald
	case ProgressStatusCanceled:
		return styles.TextMuted
	case ProgressStatusError:
		return styles.Rose
	default:
		return styles.Purple
	}
}

func (p *ExportProgress) title() string {
	switch p.Status {
	case ProgressStatusRunning:
		return "- Exporting -"
	case ProgressStatusComplete:
		return "- Complete -"
	case ProgressStatusCanceled:
		return "- Canceled -"
	case ProgressStatusError:
		return "- Failed -"
	default:
		return "- Export -"
	}
}

func (p *ExportProgress) icon() string {
	switch p.Status {
	case ProgressStatusComplete:
		return styles.StatusIndicators.Success
	case ProgressStatusError:
		return styles.StatusIndicators.Error
	case ProgressStatusCanceled:
		return styles.StatusIndicators.Warning
	default:
		return styles.StatusIndicators.Pending
	}
}

// colorFor picks the hex for the background. The bar takes a plain color
// string rather than an adaptive color.
func colorFor(c lipgloss.AdaptiveColor, dark bool) string {
	if dark {
		return c.Dark
	}
	return c.Light
}
