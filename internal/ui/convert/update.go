// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package convert

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/sheetcsv-tui/internal/config"
	"github.com/jeranaias/sheetcsv-tui/internal/csvfmt"
	"github.com/jeranaias/sheetcsv-tui/internal/export"
	"github.com/jeranaias/sheetcsv-tui/internal/tasks"
	"github.com/jeranaias/sheetcsv-tui/internal/ui/components"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and returns the updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.state != StateLoading && m.state != StateExporting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case WorkbookLoadedMsg:
		return m.handleWorkbookLoaded(msg)

	case SheetLoadedMsg:
		return m.handleSheetLoaded(msg)

	case AllSheetsLoadedMsg:
		return m.handleAllSheetsLoaded(msg)

	case LoadFailedMsg:
		return m.handleLoadFailed(msg)

	case SourceChangedMsg:
		return m.handleSourceChanged(msg)

	case watcherStartedMsg:
		return m.handleWatcherStarted(msg)

	case ExportEventMsg:
		m.handleExportEvent(msg)
		return m, m.bridge.listen()

	case TaskDoneMsg:
		n := msg.Notification
		m.logger.Debug("export finished",
			"task_id", n.TaskID,
			"status", n.Status,
			"rows", n.Rows,
			"duration", n.Duration)
		return m, waitNotification(m.queue, m.bridge.done)

	case SettingsSavedMsg:
		if msg.Err != nil {
			m.status.SetMessage("Could not save settings: " + msg.Err.Error())
			m.logger.Warn("saving settings failed", "error", msg.Err)
		} else {
			m.status.SetMessage("Settings saved")
		}
		return m, nil
	}

	// Anything else (cursor blink) goes to the focused input.
	return m.updateInput(msg)
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// A visible error box takes every key until dismissed.
	if m.errBox.IsVisible() {
		var cmd tea.Cmd
		m.errBox, cmd = m.errBox.Update(msg)
		return m, cmd
	}

	if m.showHelp {
		switch {
		case key.Matches(msg, m.keys.Help), msg.String() == "esc", msg.String() == "q":
			m.showHelp = false
			return m, nil
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		}
		var cmd tea.Cmd
		m.helpView, cmd = m.helpView.Update(msg)
		return m, cmd
	}

	// Esc and Ctrl+C stop a running export instead of quitting.
	if m.state == StateExporting && (key.Matches(msg, m.keys.Cancel) || msg.String() == "ctrl+c") {
		return m.cancelExport()
	}

	if m.prompting {
		return m.handlePromptKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Help) && (msg.String() == "f1" || !m.focus.isText()):
		m.showHelp = true
		m.renderHelp()
		return m, nil

	case key.Matches(msg, m.keys.Export):
		return m.openPrompt()

	case key.Matches(msg, m.keys.ExportAll):
		return m.exportAll()

	case key.Matches(msg, m.keys.Save):
		return m, saveSettingsCmd(m.save, m.persistable())

	case key.Matches(msg, m.keys.ToggleView):
		m.preview.ToggleMode()
		return m, nil

	case key.Matches(msg, m.keys.ScrollLeft):
		m.preview.ScrollLeft()
		return m, nil

	case key.Matches(msg, m.keys.ScrollRight):
		m.preview.ScrollRight()
		return m, nil

	case key.Matches(msg, m.keys.Jobs):
		m.showJobs = !m.showJobs
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.NextField):
		m.moveFocus(1)
		return m, nil

	case key.Matches(msg, m.keys.PrevField):
		m.moveFocus(-1)
		return m, nil

	case key.Matches(msg, m.keys.Load) && m.focus == fieldPath:
		return m.loadPath()

	case key.Matches(msg, m.keys.Left) && !m.focus.isText():
		return m.cycleOption(-1)

	case key.Matches(msg, m.keys.Right) && !m.focus.isText():
		return m.cycleOption(1)
	}

	if m.focus.isText() {
		return m.updateInput(msg)
	}
	return m, nil
}

// quit persists the edited settings and exits. A save failure is logged but
// never blocks quitting.
func (m Model) quit() (tea.Model, tea.Cmd) {
	if err := m.save(m.persistable()); err != nil {
		m.logger.Warn("saving settings failed", "error", err)
	}
	return m, tea.Quit
}

// persistable returns the settings to write to disk. A format that does not
// validate is replaced by the last one that did, so the next start never
// fails on a half-typed value.
func (m Model) persistable() *config.Config {
	cfg := m.cfg.Clone()
	if m.optErr != nil {
		cfg.Format = m.goodFormat
	}
	if m.sourcePath != "" {
		cfg.Source.LastFile = m.sourcePath
	}
	if m.sheet != nil {
		cfg.Source.Sheet = m.sheet.Name
	}
	return cfg
}

func saveSettingsCmd(save func(*config.Config) error, cfg *config.Config) tea.Cmd {
	return func() tea.Msg {
		return SettingsSavedMsg{Err: save(cfg)}
	}
}

// =============================================================================
// FOCUS AND INPUTS
// =============================================================================

// input returns the text input behind f, or nil for cycle fields.
func (m *Model) input(f field) *textinput.Model {
	switch f {
	case fieldPath:
		return &m.path
	case fieldCustomSeparator:
		return &m.customSep
	case fieldQuote:
		return &m.quote
	case fieldSigFigs:
		return &m.sigFigs
	}
	return nil
}

// visible reports whether f is shown and reachable with Tab.
func (m Model) visible(f field) bool {
	if f == fieldCustomSeparator {
		return strings.EqualFold(m.cfg.Format.Separator, config.SeparatorCustom)
	}
	return true
}

func (m *Model) moveFocus(delta int) {
	next := m.focus
	for i := 0; i < int(fieldCount); i++ {
		next = field((int(next) + delta + int(fieldCount)) % int(fieldCount))
		if m.visible(next) {
			break
		}
	}
	m.setFocus(next)
}

func (m *Model) setFocus(f field) {
	if in := m.input(m.focus); in != nil {
		in.Blur()
	}
	m.focus = f
	if in := m.input(f); in != nil {
		in.Focus()
	}
}

// updateInput forwards msg to the focused text input and applies its value.
func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	in := m.input(m.focus)
	if in == nil {
		return m, nil
	}
	before := in.Value()
	var cmd tea.Cmd
	*in, cmd = in.Update(msg)
	if in.Value() != before {
		m.applyInput(m.focus, in.Value())
	}
	return m, cmd
}

// applyInput copies a typed value into the settings and refreshes the
// preview. The path field only takes effect on Enter.
func (m *Model) applyInput(f field, value string) {
	switch f {
	case fieldCustomSeparator:
		m.cfg.Format.CustomSeparator = value
	case fieldQuote:
		m.cfg.Format.Quote = value
	case fieldSigFigs:
		parsed, err := parseSigFigs(value)
		m.sigErr = err
		if err != nil {
			return
		}
		m.cfg.SignificantFigures = parsed
	default:
		return
	}
	m.refreshPreview()
}

// cycleOption steps the focused choice field by delta.
func (m Model) cycleOption(delta int) (tea.Model, tea.Cmd) {
	f := &m.cfg.Format
	switch m.focus {
	case fieldSheet:
		if len(m.sheets) < 2 || m.state == StateLoading {
			return m, nil
		}
		n := len(m.sheets)
		m.sheetIdx = ((m.sheetIdx+delta)%n + n) % n
		m.state = StateLoading
		m.status.SetStatus(components.StatusLoading)
		return m, tea.Batch(m.spinner.Tick, readSheetCmd(m.sourcePath, m.password, m.sheets[m.sheetIdx]))
	case fieldSeparator:
		f.Separator = cycle(separatorChoices(), f.Separator, delta)
	case fieldQuoting:
		f.Quoting = cycle(quotingChoices(), f.Quoting, delta)
	case fieldEncoding:
		f.Encoding = cycle(encodingChoices(), f.Encoding, delta)
	case fieldLineEnding:
		f.LineEnding = cycle(lineEndingChoices(), f.LineEnding, delta)
	default:
		return m, nil
	}
	m.refreshPreview()
	return m, nil
}

// refreshPreview rebuilds the preview from the edited settings. Invalid
// settings keep the previous preview and surface the error inline.
func (m *Model) refreshPreview() {
	opts, err := m.cfg.FormatOptions()
	m.optErr = err
	if err != nil {
		return
	}
	m.goodFormat = m.cfg.Format
	if m.sheet == nil {
		return
	}
	res, err := csvfmt.Preview(m.sheet, opts)
	if err != nil {
		m.optErr = err
		return
	}
	m.preview.SetResult(res)
}

// settingsError returns the error blocking an export, if any.
func (m Model) settingsError() error {
	if m.optErr != nil {
		return m.optErr
	}
	return m.sigErr
}

// =============================================================================
// LOADING
// =============================================================================

func (m Model) loadPath() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(m.path.Value())
	if raw == "" {
		m.status.SetMessage("Enter a workbook path first")
		return m, nil
	}
	path, err := filepath.Abs(raw)
	if err != nil {
		path = raw
	}
	preferred := ""
	if path == m.sourcePath && m.sheet != nil {
		preferred = m.sheet.Name
	} else if path == m.cfg.Source.LastFile {
		preferred = m.cfg.Source.Sheet
	}
	m.loadingPath = path
	if m.state != StateExporting {
		m.state = StateLoading
		m.status.SetStatus(components.StatusLoading)
	}
	return m, tea.Batch(m.spinner.Tick, loadWorkbookCmd(path, m.password, preferred, false))
}

func (m Model) handleWorkbookLoaded(msg WorkbookLoadedMsg) (tea.Model, tea.Cmd) {
	// A newer load supersedes this one.
	if msg.Reload && msg.Path != m.sourcePath {
		return m, nil
	}
	if !msg.Reload && msg.Path != m.loadingPath {
		return m, nil
	}

	previous := m.sourcePath
	m.sourcePath = msg.Path
	m.loadingPath = ""
	m.sheets = msg.Sheets
	m.showSheet(msg.Sheet)
	m.path.SetValue(msg.Path)
	m.cfg.Source.LastFile = msg.Path
	m.header.Source = msg.Path
	m.status.Source = msg.Path
	m.ready()

	if msg.Reload {
		m.status.SetMessage("Reloaded after change on disk")
		m.logger.Info("workbook reloaded", "path", msg.Path, "sheet", msg.Sheet.Name)
		return m, nil
	}
	m.logger.Info("workbook loaded", "path", msg.Path, "sheets", len(msg.Sheets))

	if m.watch == nil || (previous == msg.Path && m.watcher != nil) {
		return m, nil
	}
	if m.watcher != nil {
		m.watcher.Close()
		m.watcher = nil
		m.status.Watching = false
	}
	return m, watchCmd(m.watch, m.bridge, msg.Path)
}

func (m Model) handleSheetLoaded(msg SheetLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Path != m.sourcePath {
		return m, nil
	}
	m.showSheet(msg.Sheet)
	m.ready()
	return m, nil
}

// showSheet makes sheet the previewed one.
func (m *Model) showSheet(sheet *csvfmt.Sheet) {
	m.sheet = sheet
	m.sheetIdx = 0
	for i, name := range m.sheets {
		if name == sheet.Name {
			m.sheetIdx = i
			break
		}
	}
	m.cfg.Source.Sheet = sheet.Name
	m.header.SetSheet(sheet.Name, m.sheetIdx, len(m.sheets))
	m.status.Sheet = sheet.Name
	m.refreshPreview()
}

// ready returns to the idle-with-preview state unless an export is running.
func (m *Model) ready() {
	if m.state == StateExporting {
		return
	}
	if m.sheet == nil {
		m.state = StateIdle
		m.status.SetStatus(components.StatusIdle)
		return
	}
	m.state = StateReady
	m.status.SetStatus(components.StatusReady)
}

func (m Model) handleLoadFailed(msg LoadFailedMsg) (tea.Model, tea.Cmd) {
	if msg.Path == m.loadingPath {
		m.loadingPath = ""
	}
	if m.state != StateExporting {
		m.state = StateIdle
		m.ready()
		m.status.SetStatus(components.StatusError)
	}
	m.logger.Warn("reading workbook failed", "path", msg.Path, "error", msg.Err)
	m.showError(msg.Err)
	return m, nil
}

func (m Model) handleSourceChanged(msg SourceChangedMsg) (tea.Model, tea.Cmd) {
	listen := m.bridge.listen()
	if msg.Path != m.sourcePath {
		return m, listen
	}
	if msg.Removed {
		m.status.SetMessage("Workbook was removed; the preview shows the last read")
		return m, listen
	}
	preferred := ""
	if m.sheet != nil {
		preferred = m.sheet.Name
	}
	return m, tea.Batch(listen, loadWorkbookCmd(m.sourcePath, m.password, preferred, true))
}

func (m Model) handleWatcherStarted(msg watcherStartedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Warn("watching workbook failed", "path", msg.path, "error", msg.err)
		return m, nil
	}
	// The user moved on to another workbook while this one started.
	if msg.path != m.sourcePath || m.watcher != nil {
		msg.watcher.Close()
		return m, nil
	}
	m.watcher = msg.watcher
	m.status.Watching = true
	return m, nil
}

// =============================================================================
// EXPORT PROMPT
// =============================================================================

func (m Model) openPrompt() (tea.Model, tea.Cmd) {
	if m.sheet == nil {
		m.status.SetMessage("Load a workbook first")
		return m, nil
	}
	if m.state == StateExporting {
		m.status.SetMessage("An export is already running")
		return m, nil
	}
	if err := m.settingsError(); err != nil {
		m.showError(err)
		return m, nil
	}
	m.prompting = true
	m.confirmOverwrite = false
	m.dest.SetValue(export.DefaultDestination(m.sourcePath, m.sheet.Name, false))
	m.dest.CursorEnd()
	if in := m.input(m.focus); in != nil {
		in.Blur()
	}
	return m, m.dest.Focus()
}

func (m *Model) closePrompt() {
	m.prompting = false
	m.confirmOverwrite = false
	m.dest.Blur()
	if in := m.input(m.focus); in != nil {
		in.Focus()
	}
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePrompt()
		return m, nil
	case "enter":
		dest := strings.TrimSpace(m.dest.Value())
		if dest == "" {
			return m, nil
		}
		if _, err := os.Stat(dest); err == nil && !m.confirmOverwrite {
			m.confirmOverwrite = true
			return m, nil
		}
		m.closePrompt()
		return m.startExport(dest)
	}

	before := m.dest.Value()
	var cmd tea.Cmd
	m.dest, cmd = m.dest.Update(msg)
	if m.dest.Value() != before {
		m.confirmOverwrite = false
	}
	return m, cmd
}

// =============================================================================
// EXPORTS
// =============================================================================

// startExport queues the current sheet. The options are captured now, so
// edits made while the run is going only affect the next one.
func (m Model) startExport(dest string) (tea.Model, tea.Cmd) {
	opts, err := m.cfg.FormatOptions()
	if err != nil {
		m.showError(err)
		return m, nil
	}
	task := tasks.NewTask(m.sourcePath, export.Job{
		Sheet:       m.sheet,
		Options:     opts,
		Destination: dest,
	})
	if err := m.queue.Add(task); err != nil {
		m.showError(err)
		return m, nil
	}

	m.activeTask = task.ID
	m.progress.Begin(m.sheet.Name, dest, m.sheet.Len())
	m.state = StateExporting
	m.status.SetStatus(components.StatusExporting)
	m.logger.Info("export queued", "task_id", task.ID, "sheet", m.sheet.Name, "destination", dest)
	return m, m.spinner.Tick
}

// exportAll reads every sheet and writes each next to the workbook as
// <file>_<sheet>.csv.
func (m Model) exportAll() (tea.Model, tea.Cmd) {
	if m.sheet == nil {
		m.status.SetMessage("Load a workbook first")
		return m, nil
	}
	if m.state == StateExporting {
		m.status.SetMessage("An export is already running")
		return m, nil
	}
	if err := m.settingsError(); err != nil {
		m.showError(err)
		return m, nil
	}
	opts, _ := m.cfg.FormatOptions()
	m.state = StateLoading
	m.status.SetStatus(components.StatusLoading)
	dir := filepath.Dir(m.sourcePath)
	return m, tea.Batch(m.spinner.Tick, readAllSheetsCmd(m.sourcePath, m.password, dir, opts))
}

func (m Model) handleAllSheetsLoaded(msg AllSheetsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Path != m.sourcePath || len(msg.Sheets) == 0 {
		m.ready()
		return m, nil
	}

	m.batch = map[string]bool{}
	m.batchRows = map[string]int{}
	m.batchDone, m.batchFail = 0, 0
	total := 0
	for _, sheet := range msg.Sheets {
		task := tasks.NewTask(msg.Path, export.Job{
			Sheet:       sheet,
			Options:     msg.Options,
			Destination: export.DestinationIn(msg.Dir, msg.Path, sheet.Name, true),
		})
		if err := m.queue.Add(task); err != nil {
			m.logger.Warn("queueing sheet failed", "sheet", sheet.Name, "error", err)
			continue
		}
		m.batch[task.ID] = true
		total += sheet.Len()
	}
	if len(m.batch) == 0 {
		m.ready()
		m.status.SetMessage("No sheets could be queued")
		return m, nil
	}

	m.progress.Begin(fmt.Sprintf("%d sheets", len(m.batch)), msg.Dir, total)
	m.state = StateExporting
	m.status.SetStatus(components.StatusExporting)
	m.showJobs = true
	m.layout()
	return m, m.spinner.Tick
}

func (m Model) cancelExport() (tea.Model, tea.Cmd) {
	if len(m.batch) > 0 {
		n := 0
		for id := range m.batch {
			if m.queue.Cancel(id) {
				n++
			}
		}
		m.logger.Info("batch export cancel requested", "tasks", n)
	} else if m.activeTask != "" {
		m.queue.Cancel(m.activeTask)
		m.logger.Info("export cancel requested", "task_id", m.activeTask)
	}
	m.status.SetMessage("Cancelling...")
	return m, nil
}

func (m *Model) handleExportEvent(msg ExportEventMsg) {
	id := msg.Task.ID
	if m.batch[id] {
		m.handleBatchEvent(id, msg.Event)
		return
	}
	if id != m.activeTask {
		return
	}

	switch ev := msg.Event.(type) {
	case export.Progress:
		m.progress.SetRows(ev.Rows)
	case export.Completed:
		m.progress.Complete(ev.Rows)
		m.finishExport()
		m.status.SetMessage(fmt.Sprintf("Wrote %s to %s", rowsLabel(ev.Rows), filepath.Base(ev.Destination)))
	case export.Failed:
		m.progress.Fail(ev.Err.Error())
		m.finishExport()
		m.status.SetStatus(components.StatusError)
		m.showError(ev.Err)
	case export.Cancelled:
		m.progress.Cancel()
		m.finishExport()
		m.status.SetMessage("Export cancelled; partial output removed")
	}
}

func (m *Model) handleBatchEvent(id string, ev export.Event) {
	switch ev := ev.(type) {
	case export.Progress:
		m.batchRows[id] = ev.Rows
	case export.Completed:
		m.batchRows[id] = ev.Rows
		m.batchDone++
	case export.Failed:
		m.batchFail++
		m.logger.Warn("sheet export failed", "task_id", id, "error", ev.Err)
	case export.Cancelled:
		m.batchFail++
	}

	sum := 0
	for _, rows := range m.batchRows {
		sum += rows
	}
	m.progress.SetRows(sum)

	if m.batchDone+m.batchFail < len(m.batch) {
		return
	}
	sheets := len(m.batch)
	failed := m.batchFail
	m.batch = map[string]bool{}
	m.batchRows = map[string]int{}
	m.batchDone, m.batchFail = 0, 0

	if failed == 0 {
		m.progress.Complete(sum)
		m.finishExport()
		m.status.SetMessage(fmt.Sprintf("Exported %d sheets", sheets))
		return
	}
	m.progress.Fail(fmt.Sprintf("%d of %d sheets did not export", failed, sheets))
	m.finishExport()
	m.status.SetMessage("Some sheets did not export; see the exports panel")
}

func (m *Model) finishExport() {
	m.activeTask = ""
	m.state = StateReady
	m.ready()
}

// showError opens the error box for err.
func (m *Model) showError(err error) {
	var cfgErr *csvfmt.ConfigurationError
	if errors.As(err, &cfgErr) {
		m.logger.Debug("settings rejected", "field", cfgErr.Field, "reason", cfgErr.Reason)
	}
	m.errBox = components.ErrorFor(err, m.logPath)
	m.errBox.SetWidth(m.width)
}

func rowsLabel(n int) string {
	if n == 1 {
		return "1 row"
	}
	return fmt.Sprintf("%d rows", n)
}
