// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package convert

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/sheetcsv-tui/internal/csvfmt"
	"github.com/jeranaias/sheetcsv-tui/internal/source"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// loadWorkbookCmd opens path and reads the preferred sheet, or the first one
// when preferred is missing. The whole sheet is read because an export needs
// every row anyway.
func loadWorkbookCmd(path, password, preferred string, reload bool) tea.Cmd {
	return func() tea.Msg {
		wb, err := source.Open(path, source.Options{Password: password})
		if err != nil {
			return LoadFailedMsg{Path: path, Err: err}
		}
		defer wb.Close()

		sheets := wb.Sheets()
		if len(sheets) == 0 {
			return LoadFailedMsg{Path: path, Err: &csvfmt.SourceReadError{
				Path:   path,
				Reason: csvfmt.SourceUnreadable,
				Err:    errors.New("workbook has no worksheets"),
			}}
		}
		name := sheets[0]
		if preferred != "" && wb.HasSheet(preferred) {
			name = preferred
		}

		sheet, err := wb.ReadSheet(name, 0)
		if err != nil {
			return LoadFailedMsg{Path: path, Err: err}
		}
		return WorkbookLoadedMsg{Path: path, Sheets: sheets, Sheet: sheet, Reload: reload}
	}
}

// readSheetCmd reads one sheet of an already loaded workbook.
func readSheetCmd(path, password, name string) tea.Cmd {
	return func() tea.Msg {
		wb, err := source.Open(path, source.Options{Password: password})
		if err != nil {
			return LoadFailedMsg{Path: path, Err: err}
		}
		defer wb.Close()

		sheet, err := wb.ReadSheet(name, 0)
		if err != nil {
			return LoadFailedMsg{Path: path, Err: err}
		}
		return SheetLoadedMsg{Path: path, Sheet: sheet}
	}
}

// readAllSheetsCmd reads every sheet for a batch export. opts is captured
// when the batch is requested so later edits do not affect it.
func readAllSheetsCmd(path, password, dir string, opts csvfmt.Options) tea.Cmd {
	return func() tea.Msg {
		wb, err := source.Open(path, source.Options{Password: password})
		if err != nil {
			return LoadFailedMsg{Path: path, Err: err}
		}
		defer wb.Close()

		var sheets []*csvfmt.Sheet
		for _, name := range wb.Sheets() {
			sheet, err := wb.ReadSheet(name, 0)
			if err != nil {
				return LoadFailedMsg{Path: path, Err: err}
			}
			sheets = append(sheets, sheet)
		}
		return AllSheetsLoadedMsg{Path: path, Sheets: sheets, Options: opts, Dir: dir}
	}
}

// watchCmd starts a watcher for path whose changes arrive through the
// bridge. The watcher is returned to Update in a watcherStartedMsg.
func watchCmd(factory WatcherFactory, b *bridge, path string) tea.Cmd {
	return func() tea.Msg {
		w, err := factory(path, func(changed string, removed bool) {
			b.send(SourceChangedMsg{Path: changed, Removed: removed}, false)
		})
		return watcherStartedMsg{path: path, watcher: w, err: err}
	}
}

type watcherStartedMsg struct {
	path    string
	watcher source.FileWatcher
	err     error
}

// DefaultWatcher watches with source.NewWatcher and its default debounce.
func DefaultWatcher(path string, onChange source.ChangeFunc) (source.FileWatcher, error) {
	return source.NewWatcher(path, source.DefaultDebounce, onChange)
}
