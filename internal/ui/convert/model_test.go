// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package convert

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jeranaias/sheetcsv-tui/internal/config"
	"github.com/jeranaias/sheetcsv-tui/internal/source"
	"github.com/jeranaias/sheetcsv-tui/internal/ui/styles"
)

// =============================================================================
// HELPERS
// =============================================================================

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"id", "name", "price"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{1, "apple", 1.5}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{2, "pear", 2.25}))
	_, err := f.NewSheet("Totals")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Totals", "A1", &[]any{"sum"}))
	require.NoError(t, f.SetSheetRow("Totals", "A2", &[]any{3.75}))

	path := filepath.Join(t.TempDir(), "fruit.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

type savedConfig struct {
	calls int
	last  *config.Config
}

func (s *savedConfig) save(cfg *config.Config) error {
	s.calls++
	s.last = cfg
	return nil
}

func newTestModel(t *testing.T, opts Options) (Model, *savedConfig) {
	t.Helper()
	saved := &savedConfig{}
	if opts.Save == nil {
		opts.Save = saved.save
	}
	cfg := config.Default()
	cfg.Format.LineEnding = "unix"
	if opts.Config == nil {
		opts.Config = cfg
	}
	m := New(styles.NewThemeFor(termenv.Ascii, true), opts)
	t.Cleanup(m.Close)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), saved
}

// loaded returns a model with path loaded, the way Init would.
func loaded(t *testing.T, path string, opts Options) (Model, *savedConfig) {
	t.Helper()
	opts.Path = path
	m, saved := newTestModel(t, opts)
	msg := loadWorkbookCmd(path, "", "", false)()
	require.IsType(t, WorkbookLoadedMsg{}, msg)
	next, _ := m.Update(msg)
	return next.(Model), saved
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(Model)
	}
	return m
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	return press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

var (
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyCtrlS = tea.KeyMsg{Type: tea.KeyCtrlS}
	keyCtrlQ = tea.KeyMsg{Type: tea.KeyCtrlQ}
)

// pump feeds bridged messages into m until the export finishes.
func pump(t *testing.T, m Model) Model {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for m.State() == StateExporting {
		got := make(chan tea.Msg, 1)
		listen := m.bridge.listen()
		go func() { got <- listen() }()
		select {
		case msg := <-got:
			next, _ := m.Update(msg)
			m = next.(Model)
		case <-deadline:
			t.Fatal("export did not finish")
		}
	}
	return m
}

// =============================================================================
// LOADING TESTS
// =============================================================================

func TestModel_StartsIdle(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	assert.Equal(t, StateIdle, m.State())
	assert.Contains(t, m.View(), "No sheet loaded")
}

func TestModel_LoadsWorkbookAndPreviews(t *testing.T) {
	path := writeWorkbook(t)
	m, _ := loaded(t, path, Options{})

	assert.Equal(t, StateReady, m.State())
	require.NotNil(t, m.preview.Result())
	assert.Equal(t, `"id","name","price"`, m.preview.Result().Header)
	assert.Equal(t, []string{"Sheet1", "Totals"}, m.sheets)
	assert.Equal(t, path, m.Config().Source.LastFile)
	assert.Contains(t, m.View(), "fruit.xlsx")
}

func TestModel_IgnoresSupersededLoad(t *testing.T) {
	path := writeWorkbook(t)
	m, _ := newTestModel(t, Options{})
	m.loadingPath = "/elsewhere/other.xlsx"

	next, _ := m.Update(loadWorkbookCmd(path, "", "", false)())
	m = next.(Model)
	assert.Nil(t, m.sheet)
}

func TestModel_LoadFailureShowsError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.xlsx")
	m, _ := newTestModel(t, Options{Path: missing})

	next, _ := m.Update(loadWorkbookCmd(missing, "", "", false)())
	m = next.(Model)
	assert.True(t, m.errBox.IsVisible())
	assert.Equal(t, StateIdle, m.State())

	m = press(t, m, keyEsc)
	assert.False(t, m.errBox.IsVisible())
}

func TestModel_CyclesSheets(t *testing.T) {
	path := writeWorkbook(t)
	m, _ := loaded(t, path, Options{})

	m = press(t, m, keyTab) // sheet field
	require.Equal(t, fieldSheet, m.focus)

	next, cmd := m.Update(keyRight)
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, StateLoading, m.State())

	next, _ = m.Update(readSheetCmd(path, "", "Totals")())
	m = next.(Model)
	assert.Equal(t, "Totals", m.sheet.Name)
	assert.Equal(t, `"sum"`, m.preview.Result().Header)
	assert.Equal(t, "Totals", m.Config().Source.Sheet)
}

// =============================================================================
// SETTINGS TESTS
// =============================================================================

func TestModel_PreviewFollowsUnsavedSettings(t *testing.T) {
	path := writeWorkbook(t)
	m, saved := loaded(t, path, Options{})

	m = press(t, m, keyTab, keyTab) // separator
	require.Equal(t, fieldSeparator, m.focus)
	m = press(t, m, keyRight)

	assert.Equal(t, "semicolon", m.Config().Format.Separator)
	assert.Equal(t, `"id";"name";"price"`, m.preview.Result().Header)
	assert.Zero(t, saved.calls, "editing never saves")
}

func TestModel_CustomSeparatorField(t *testing.T) {
	path := writeWorkbook(t)
	m, _ := loaded(t, path, Options{})
	assert.False(t, m.visible(fieldCustomSeparator))

	m.cfg.Format.Separator = config.SeparatorCustom
	m.cfg.Format.CustomSeparator = ""
	m.refreshPreview()
	require.Error(t, m.settingsError())
	assert.Equal(t, `"id","name","price"`, m.preview.Result().Header, "last good preview is kept")

	m.setFocus(fieldSeparator)
	m = press(t, m, keyTab)
	require.Equal(t, fieldCustomSeparator, m.focus)
	m = typeText(t, m, "||")

	assert.NoError(t, m.settingsError())
	assert.Equal(t, `"id"||"name"||"price"`, m.preview.Result().Header)
}

func TestModel_SignificantFiguresInput(t *testing.T) {
	path := writeWorkbook(t)
	m, _ := loaded(t, path, Options{})

	m.setFocus(fieldSigFigs)
	m = typeText(t, m, "price=x")
	require.Error(t, m.settingsError())
	assert.Contains(t, m.settingsError().Error(), "significant_figures")

	m.sigFigs.SetValue("")
	m = typeText(t, m, "price=1")
	require.NoError(t, m.settingsError())
	assert.Equal(t, map[string]int{"price": 1}, m.Config().SignificantFigures)
	assert.Contains(t, m.preview.Result().Text(), "1,\"apple\",2")
}

func TestModel_QuitSavesSettings(t *testing.T) {
	path := writeWorkbook(t)
	m, saved := loaded(t, path, Options{})
	m = press(t, m, keyTab, keyTab, keyRight)

	_, cmd := m.Update(keyCtrlQ)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())

	require.Equal(t, 1, saved.calls)
	assert.Equal(t, "semicolon", saved.last.Format.Separator)
	assert.Equal(t, path, saved.last.Source.LastFile)
	assert.Equal(t, "Sheet1", saved.last.Source.Sheet)
}

func TestModel_QuitKeepsLastValidFormat(t *testing.T) {
	m, saved := newTestModel(t, Options{})
	m.cfg.Format.Separator = config.SeparatorCustom
	m.cfg.Format.CustomSeparator = ""
	m.refreshPreview()
	require.Error(t, m.settingsError())

	m = press(t, m, keyCtrlQ)
	require.Equal(t, 1, saved.calls)
	assert.Equal(t, "comma", saved.last.Format.Separator)
}

func TestModel_SaveFailureDoesNotBlockQuit(t *testing.T) {
	m, _ := newTestModel(t, Options{Save: func(*config.Config) error {
		return errors.New("read-only home")
	}})
	_, cmd := m.Update(keyCtrlQ)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

// =============================================================================
// EXPORT TESTS
// =============================================================================

func TestModel_ExportWritesFile(t *testing.T) {
	path := writeWorkbook(t)
	m, _ := loaded(t, path, Options{})

	m = press(t, m, keyCtrlS)
	require.True(t, m.prompting)
	assert.Equal(t, strings.TrimSuffix(path, ".xlsx")+".csv", m.dest.Value())

	m = press(t, m, keyEnter)
	assert.False(t, m.prompting)
	require.Equal(t, StateExporting, m.State())

	m = pump(t, m)
	assert.Equal(t, StateReady, m.State())

	data, err := os.ReadFile(strings.TrimSuffix(path, ".xlsx") + ".csv")
	require.NoError(t, err)
	assert.Equal(t, "\"id\",\"name\",\"price\"\n1,\"apple\",1.5\n2,\"pear\",2.25\n", string(data))
	assert.Contains(t, m.status.Message, "2 rows")
}

func TestModel_ExportAsksBeforeOverwrite(t *testing.T) {
	path := writeWorkbook(t)
	dest := strings.TrimSuffix(path, ".xlsx") + ".csv"
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0o644))
	m, _ := loaded(t, path, Options{})

	m = press(t, m, keyCtrlS, keyEnter)
	assert.True(t, m.prompting)
	assert.True(t, m.confirmOverwrite)
	assert.Contains(t, m.View(), "File exists")

	m = press(t, m, keyEsc)
	assert.False(t, m.prompting)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	m = press(t, m, keyCtrlS, keyEnter, keyEnter)
	m = pump(t, m)
	data, err = os.ReadFile(dest)
	require.NoError(t, err)
	assert.NotEqual(t, "old", string(data))
}

func TestModel_ExportBlockedByInvalidSettings(t *testing.T) {
	path := writeWorkbook(t)
	m, _ := loaded(t, path, Options{})
	m.cfg.Format.Quote = ""
	m.refreshPreview()

	m = press(t, m, keyCtrlS)
	assert.False(t, m.prompting)
	assert.True(t, m.errBox.IsVisible())
}

func TestModel_ExportAllSheets(t *testing.T) {
	path := writeWorkbook(t)
	m, _ := loaded(t, path, Options{})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlA})
	m = next.(Model)
	require.NotNil(t, cmd)

	opts, err := m.cfg.FormatOptions()
	require.NoError(t, err)
	next, _ = m.Update(readAllSheetsCmd(path, "", filepath.Dir(path), opts)())
	m = next.(Model)
	require.Equal(t, StateExporting, m.State())
	assert.True(t, m.showJobs)

	m = pump(t, m)
	base := strings.TrimSuffix(path, ".xlsx")
	for _, name := range []string{"Sheet1", "Totals"} {
		_, err := os.Stat(base + "_" + name + ".csv")
		assert.NoError(t, err, name)
	}
	assert.Contains(t, m.status.Message, "Exported 2 sheets")
}

// =============================================================================
// WATCHER TESTS
// =============================================================================

type stubWatcher struct{ closed bool }

func (w *stubWatcher) Watch() error { return nil }
func (w *stubWatcher) Close() error { w.closed = true; return nil }

func TestModel_WatchesAndReloads(t *testing.T) {
	path := writeWorkbook(t)
	stub := &stubWatcher{}
	var notify source.ChangeFunc
	factory := func(p string, onChange source.ChangeFunc) (source.FileWatcher, error) {
		notify = onChange
		return stub, nil
	}

	m, _ := newTestModel(t, Options{Path: path, Watch: factory})
	next, cmd := m.Update(loadWorkbookCmd(path, "", "", false)())
	m = next.(Model)
	require.NotNil(t, cmd)

	next, _ = m.Update(cmd())
	m = next.(Model)
	assert.True(t, m.status.Watching)
	require.NotNil(t, notify)

	next, cmd = m.Update(SourceChangedMsg{Path: path})
	m = next.(Model)
	require.NotNil(t, cmd)

	next, _ = m.Update(loadWorkbookCmd(path, "", "Sheet1", true)())
	m = next.(Model)
	assert.Contains(t, m.status.Message, "Reloaded")

	next, _ = m.Update(SourceChangedMsg{Path: path, Removed: true})
	m = next.(Model)
	assert.Contains(t, m.status.Message, "removed")
	assert.NotNil(t, m.sheet, "preview survives removal")
}

func TestModel_HelpOverlay(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyF1})
	assert.True(t, m.showHelp)
	assert.NotEmpty(t, m.View())

	m = press(t, m, keyEsc)
	assert.False(t, m.showHelp)
}
