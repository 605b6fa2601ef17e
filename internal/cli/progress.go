// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// progress.go - Live progress line for long conversions.

package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/jeranaias/sheetcsv-tui/internal/export"
	"github.com/jeranaias/sheetcsv-tui/internal/tasks"
	"github.com/jeranaias/sheetcsv-tui/internal/ui/styles"
	"github.com/jeranaias/sheetcsv-tui/internal/util"
	"golang.org/x/time/rate"
)

// progressInterval throttles redraws; a large sheet emits thousands of
// progress events.
const progressInterval = 100 * time.Millisecond

// progressPrinter redraws one status line on a terminal.
type progressPrinter struct {
	w       io.Writer
	enabled bool
	width   int
	redraw  rate.Sometimes
	drawn   bool
	frames  int
}

func newProgressPrinter(w io.Writer, enabled bool) *progressPrinter {
	return &progressPrinter{
		w:       w,
		enabled: enabled,
		width:   max(GetTerminalWidth()-50, 10),
		redraw:  rate.Sometimes{First: 1, Interval: progressInterval},
	}
}

// Observe is a tasks.EventFunc.
func (p *progressPrinter) Observe(task *tasks.Task, ev export.Event) {
	if !p.enabled {
		return
	}
	if _, ok := ev.(export.Progress); !ok {
		return
	}
	p.redraw.Do(func() { p.draw(task) })
}

func (p *progressPrinter) draw(task *tasks.Task) {
	snap := task.Clone()
	fmt.Fprintf(p.w, "\r%s %-20s %s %3d%% %d/%d rows",
		styles.LineSpinner.Frame(p.frames),
		util.TruncateWidth(snap.Sheet, 20),
		styles.RenderProgressBar(p.width, float64(task.Percent())),
		task.Percent(), snap.Rows, snap.TotalRows)
	p.drawn = true
	p.frames++
}

// Clear erases the progress line so the summary starts on a clean row.
func (p *progressPrinter) Clear() {
	if !p.drawn {
		return
	}
	fmt.Fprint(p.w, "\r\x1b[2K")
	p.drawn = false
	p.redraw = rate.Sometimes{First: 1, Interval: progressInterval}
}
