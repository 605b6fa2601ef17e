// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package convert

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/sheetcsv-tui/internal/csvfmt"
	"github.com/jeranaias/sheetcsv-tui/internal/export"
	"github.com/jeranaias/sheetcsv-tui/internal/tasks"
)

// =============================================================================
// WORKBOOK MESSAGES
// =============================================================================

// WorkbookLoadedMsg delivers a freshly opened workbook and its selected sheet.
type WorkbookLoadedMsg struct {
	Path   string
	Sheets []string
	Sheet  *csvfmt.Sheet
	Reload bool // triggered by the file watcher
}

// SheetLoadedMsg delivers another sheet of the current workbook.
type SheetLoadedMsg struct {
	Path  string
	Sheet *csvfmt.Sheet
}

// AllSheetsLoadedMsg delivers every sheet for a batch export.
type AllSheetsLoadedMsg struct {
	Path    string
	Sheets  []*csvfmt.Sheet
	Options csvfmt.Options
	Dir     string
}

// LoadFailedMsg reports a workbook that could not be read.
type LoadFailedMsg struct {
	Path string
	Err  error
}

// SourceChangedMsg reports that the watched workbook changed on disk.
type SourceChangedMsg struct {
	Path    string
	Removed bool
}

// =============================================================================
// EXPORT MESSAGES
// =============================================================================

// ExportEventMsg relays one export event from the runner.
type ExportEventMsg struct {
	Task  *tasks.Task
	Event export.Event
}

// TaskDoneMsg relays a queue notification for a finished task.
type TaskDoneMsg struct {
	Notification tasks.TaskNotification
}

// =============================================================================
// SETTINGS MESSAGES
// =============================================================================

// SettingsSavedMsg reports the outcome of persisting settings.
type SettingsSavedMsg struct {
	Err error
}

// =============================================================================
// EVENT BRIDGE
// =============================================================================

// bridge carries messages from runner and watcher goroutines into the
// program. Model.Update is the only consumer, so state is never touched off
// the event loop.
type bridge struct {
	ch   chan tea.Msg
	done chan struct{}
	once sync.Once
}

func newBridge() *bridge {
	return &bridge{
		ch:   make(chan tea.Msg, 256),
		done: make(chan struct{}),
	}
}

// send delivers msg. Droppable messages are skipped when the buffer is full;
// the others wait until there is room or the bridge closes.
func (b *bridge) send(msg tea.Msg, droppable bool) {
	if droppable {
		select {
		case b.ch <- msg:
		case <-b.done:
		default:
		}
		return
	}
	select {
	case b.ch <- msg:
	case <-b.done:
	}
}

// listen waits for the next bridged message.
func (b *bridge) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.ch:
			return msg
		case <-b.done:
			return nil
		}
	}
}

func (b *bridge) close() {
	b.once.Do(func() { close(b.done) })
}

// waitNotification waits for the next finished task on q.
func waitNotification(q *tasks.Queue, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case n := <-q.Notifications():
			return TaskDoneMsg{Notification: n}
		case <-done:
			return nil
		}
	}
}
