// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jeranaias/sheetcsv-tui/internal/tasks"
	"github.com/jeranaias/sheetcsv-tui/internal/ui/styles"
	"github.com/jeranaias/sheetcsv-tui/internal/util"
)

// =============================================================================
// TASK LIST COMPONENT
// =============================================================================

// TaskList renders the export jobs held by a queue.
type TaskList struct {
	queue  *tasks.Queue
	theme  *styles.Theme
	width  int
	height int

	// Failed and cancelled runs always show; completed ones can be hidden.
	showCompleted bool
}

// NewTaskList creates a new task list component.
func NewTaskList(queue *tasks.Queue, theme *styles.Theme) *TaskList {
	return &TaskList{
		queue:         queue,
		theme:         theme,
		width:         80,
		showCompleted: true,
	}
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// SetSize sets the component dimensions.
func (tl *TaskList) SetSize(width, height int) {
	tl.width = width
	tl.height = height
}

// SetShowCompleted sets whether to show completed tasks.
func (tl *TaskList) SetShowCompleted(show bool) {
	tl.showCompleted = show
}

// =============================================================================
// RENDERING
// =============================================================================

// View renders the task list.
func (tl *TaskList) View() string {
	if tl.queue == nil {
		return tl.renderEmpty("No exports yet")
	}

	all := tl.queue.All()
	if len(all) == 0 {
		return tl.renderEmpty("No exports yet")
	}

	var filtered []*tasks.Task
	for _, task := range all {
		if tl.shouldShow(task) {
			filtered = append(filtered, task)
		}
	}
	if len(filtered) == 0 {
		return tl.renderEmpty("No exports match current filter")
	}

	// Newest last, trimmed to the rows that fit.
	if tl.height > 4 && len(filtered) > tl.height-4 {
		filtered = filtered[len(filtered)-(tl.height-4):]
	}
	return tl.renderTasks(filtered)
}

// shouldShow returns true if the task should be displayed based on filters.
func (tl *TaskList) shouldShow(task *tasks.Task) bool {
	if task.GetStatus() == tasks.TaskStatusComplete {
		return tl.showCompleted
	}
	return true
}

func (tl *TaskList) renderEmpty(text string) string {
	return lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true).
		Padding(1).
		Width(tl.width).
		Align(lipgloss.Center).
		Render(text)
}

func (tl *TaskList) renderTasks(list []*tasks.Task) string {
	var b strings.Builder

	b.WriteString(tl.renderHeader())
	b.WriteString("\n")
	for i, task := range list {
		b.WriteString(tl.renderTask(task))
		if i < len(list)-1 {
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(tl.renderFooter())
	return b.String()
}

func (tl *TaskList) renderHeader() string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Cyan).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(styles.Overlay).
		Width(tl.width).
		Padding(0, 1).
		Render("Exports")
}

// renderTask renders one row: icon, sheet -> file, progress, duration.
func (tl *TaskList) renderTask(task *tasks.Task) string {
	icon, color := statusIcon(task.GetStatus())
	muted := lipgloss.NewStyle().Foreground(styles.TextMuted)

	var detail string
	switch task.GetStatus() {
	case tasks.TaskStatusRunning:
		detail = fmt.Sprintf("[%d%%] %s", task.Percent(), fmtRows(task.GetRows(), task.TotalRows))
	case tasks.TaskStatusComplete:
		detail = fmtRows(task.GetRows(), 0)
	case tasks.TaskStatusFailed:
		detail = lipgloss.NewStyle().Foreground(styles.Rose).Render(task.GetError())
	}

	row := fmt.Sprintf("%s %s -> %s  %s %s",
		lipgloss.NewStyle().Foreground(color).Render(icon),
		task.Sheet,
		filepath.Base(task.Destination),
		detail,
		muted.Render(fmtDuration(task.Duration())),
	)

	return lipgloss.NewStyle().
		Padding(0, 1).
		Width(tl.width).
		Render(util.TruncateWidth(row, max(tl.width-2, 1)))
}

// statusIcon returns the icon and color for a task status (ASCII-compatible).
func statusIcon(status tasks.TaskStatus) (string, lipgloss.AdaptiveColor) {
	switch status {
	case tasks.TaskStatusQueued:
		return "[ ]", styles.Amber
	case tasks.TaskStatusRunning:
		return "[>]", styles.Cyan
	case tasks.TaskStatusComplete:
		return "[OK]", styles.Emerald
	case tasks.TaskStatusFailed:
		return "[X]", styles.Rose
	case tasks.TaskStatusCanceled:
		return "[--]", styles.TextMuted
	default:
		return "[?]", styles.TextMuted
	}
}

func (tl *TaskList) renderFooter() string {
	return lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(styles.Overlay).
		Width(tl.width).
		Padding(0, 1).
		Render(tl.queue.Summary())
}

// =============================================================================
// TASK DETAIL VIEW
// =============================================================================

// ViewDetail renders detailed information about a specific task.
func (tl *TaskList) ViewDetail(taskID string) string {
	task := tl.queue.Get(taskID)
	if task == nil {
		return lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true).
			Padding(1).
			Width(tl.width).
			Align(lipgloss.Center).
			Render(fmt.Sprintf("Export not found: %s", taskID))
	}

	label := lipgloss.NewStyle().Foreground(styles.TextMuted).Bold(true).Width(13)
	value := lipgloss.NewStyle().Foreground(styles.TextPrimary)

	var b strings.Builder
	icon, color := statusIcon(task.GetStatus())
	b.WriteString(lipgloss.NewStyle().Foreground(color).Bold(true).Render(icon + "  " + task.Description))
	b.WriteString("\n\n")

	field := func(name, v string) {
		b.WriteString(label.Render(name))
		b.WriteString(value.Render(v))
		b.WriteString("\n")
	}
	field("ID", task.ID)
	field("Status", string(task.GetStatus()))
	field("Source", task.Source)
	field("Sheet", task.Sheet)
	field("Destination", task.Destination)
	field("Rows", fmtRows(task.GetRows(), task.TotalRows))
	if d := task.Duration(); d > 0 {
		field("Duration", fmtDuration(d))
	}

	if msg := task.GetError(); msg != "" {
		b.WriteString("\n")
		b.WriteString(tl.theme.ErrorBox.Width(max(tl.width-4, 10)).Render(
			tl.theme.ErrorTitle.Render("Error: ") + tl.theme.ErrorMessage.Render(msg)))
	}
	return b.String()
}
