// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package convert

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/sheetcsv-tui/internal/config"
	"github.com/jeranaias/sheetcsv-tui/internal/csvfmt"
	"github.com/jeranaias/sheetcsv-tui/internal/export"
	"github.com/jeranaias/sheetcsv-tui/internal/source"
	"github.com/jeranaias/sheetcsv-tui/internal/tasks"
	"github.com/jeranaias/sheetcsv-tui/internal/ui/components"
	"github.com/jeranaias/sheetcsv-tui/internal/ui/styles"
)

// =============================================================================
// MODEL STATE
// =============================================================================

// State represents the current state of the converter screen.
type State int

const (
	StateIdle      State = iota // no workbook yet
	StateLoading                // reading a workbook or sheet
	StateReady                  // preview shown, ready to export
	StateExporting              // an export is running
)

// WatcherFactory starts watching a workbook. source.NewWatcher is the
// default; tests pass a stub.
type WatcherFactory func(path string, onChange source.ChangeFunc) (source.FileWatcher, error)

// Options wires the model to its collaborators. Zero values get defaults.
type Options struct {
	// Config holds the starting settings. The model edits a clone.
	Config *config.Config

	// Path is loaded on start when set.
	Path string

	// Password opens protected workbooks.
	Password string

	// Recorder stores finished runs in history. Nil disables history.
	Recorder tasks.Recorder

	// Save persists settings on quit. Nil means config.Save.
	Save func(*config.Config) error

	// Watch starts a watcher for each loaded workbook. Nil disables
	// watching.
	Watch WatcherFactory

	Logger  *slog.Logger
	LogPath string
}

// Model is the Bubble Tea model for the converter screen.
type Model struct {
	state State
	theme *styles.Theme
	keys  KeyMap

	width  int
	height int

	// Settings being edited; FormatOptions is rebuilt from it on every
	// change so the preview reflects unsaved values.
	cfg        *config.Config
	goodFormat config.FormatConfig // last format that validated
	save       func(*config.Config) error
	optErr     error
	sigErr     error
	logger     *slog.Logger
	logPath    string

	// Focus and inputs
	focus     field
	path      textinput.Model
	customSep textinput.Model
	quote     textinput.Model
	sigFigs   textinput.Model

	// Export destination prompt
	prompting        bool
	dest             textinput.Model
	confirmOverwrite bool

	// Workbook state
	sourcePath  string
	loadingPath string
	password    string
	autoload    bool
	sheets     []string
	sheetIdx   int
	sheet      *csvfmt.Sheet

	// Components
	header   *components.Header
	status   *components.StatusBar
	preview  *components.PreviewTable
	progress *components.ExportProgress
	jobs     *components.TaskList
	errBox   components.ErrorDisplay
	spinner  spinner.Model
	help     help.Model
	helpView viewport.Model

	showJobs bool
	showHelp bool

	// Background work
	queue      *tasks.Queue
	runner     *tasks.Runner
	bridge     *bridge
	watch      WatcherFactory
	watcher    source.FileWatcher
	activeTask string
	batch      map[string]bool
	batchRows  map[string]int
	batchDone  int
	batchFail  int
}

// New creates a converter model and starts its task runner. Call Close when
// the program exits.
func New(theme *styles.Theme, opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	cfg = cfg.Clone()
	// Round-trip through the engine options so separators are stored in
	// preset-or-custom form and the cycles line up.
	if fo, err := cfg.FormatOptions(); err == nil {
		cfg.ApplyFormatOptions(fo)
	}

	save := opts.Save
	if save == nil {
		save = config.Save
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	path := newInput("path/to/workbook.xlsx", 0)
	path.SetValue(opts.Path)
	if opts.Path == "" {
		path.SetValue(cfg.Source.LastFile)
	}
	path.Focus()

	customSep := newInput(`e.g. || or \t`, 8)
	customSep.SetValue(cfg.Format.CustomSeparator)
	quote := newInput(`"`, 1)
	quote.SetValue(cfg.Format.Quote)
	sigFigs := newInput("column=3, other=2", 0)
	sigFigs.SetValue(csvfmt.FormatSignificantFigures(cfg.SignificantFigures))
	dest := newInput("output.csv", 0)

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{Frames: styles.LineSpinner.Frames, FPS: styles.LineSpinner.Duration()}
	sp.Style = theme.Spinner

	queue := tasks.NewQueue(100)
	runner := tasks.NewRunner(queue)
	runner.SetLogger(logger)
	if opts.Recorder != nil {
		runner.SetRecorder(opts.Recorder)
	}
	b := newBridge()
	runner.OnEvent(func(task *tasks.Task, ev export.Event) {
		b.send(ExportEventMsg{Task: task, Event: ev}, !ev.Terminal())
	})
	runner.Start()

	m := Model{
		state:      StateIdle,
		theme:      theme,
		keys:       DefaultKeyMap(),
		width:      100,
		height:     30,
		cfg:        cfg,
		goodFormat: cfg.Format,
		save:       save,
		logger:     logger,
		logPath:    opts.LogPath,
		focus:      fieldPath,
		path:       path,
		customSep:  customSep,
		quote:      quote,
		sigFigs:    sigFigs,
		dest:       dest,
		password:   opts.Password,
		autoload:   opts.Path != "",
		header:     components.NewHeader(theme),
		status:     components.NewStatusBar(theme),
		preview:    components.NewPreviewTable(theme),
		progress:   components.NewExportProgress(),
		jobs:       components.NewTaskList(queue, theme),
		spinner:    sp,
		help:       help.New(),
		helpView:   viewport.New(80, 20),
		queue:      queue,
		runner:     runner,
		bridge:     b,
		watch:      opts.Watch,
		batch:      map[string]bool{},
		batchRows:  map[string]int{},
	}
	if m.autoload {
		m.state = StateLoading
		m.loadingPath = opts.Path
		m.status.SetStatus(components.StatusLoading)
	}
	m.layout()
	return m
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	if limit > 0 {
		ti.CharLimit = limit
	}
	return ti
}

// Init starts listening for background messages and loads the initial
// workbook when one was given.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		m.bridge.listen(),
		waitNotification(m.queue, m.bridge.done),
	}
	if m.autoload {
		cmds = append(cmds, m.spinner.Tick, loadWorkbookCmd(m.loadingPath, m.password, m.cfg.Source.Sheet, false))
	}
	return tea.Batch(cmds...)
}

// Close stops background work: running exports are cancelled and their
// partial output removed.
func (m Model) Close() {
	m.bridge.close()
	if m.watcher != nil {
		m.watcher.Close()
	}
	m.runner.Stop()
}

// Config returns the settings as currently edited.
func (m Model) Config() *config.Config {
	return m.cfg
}

// State returns the current screen state.
func (m Model) State() State {
	return m.state
}
