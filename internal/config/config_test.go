// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/sheetcsv-tui/internal/csvfmt"
)

// isolateHome points the home directory at a temp dir so tests never touch
// the real ~/.sheetcsv.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, key := range []string{
		"SHEETCSV_SEPARATOR", "SHEETCSV_ENCODING", "SHEETCSV_QUOTING",
		"SHEETCSV_LINE_ENDING", "SHEETCSV_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
	return home
}

// TestConfig_Default tests that Default() returns a valid config with defaults.
func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should validate: %v", err)
	}

	opts, err := cfg.FormatOptions()
	if err != nil {
		t.Fatalf("FormatOptions() failed: %v", err)
	}
	want := csvfmt.DefaultOptions()
	if opts.Separator != want.Separator || opts.QuoteChar != want.QuoteChar ||
		opts.Quoting != want.Quoting || opts.Encoding != want.Encoding ||
		opts.LineEnding != want.LineEnding {
		t.Errorf("Default config options %+v differ from engine defaults %+v", opts, want)
	}

	if !cfg.History.Enabled {
		t.Error("History should be enabled by default")
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// TestConfig_Validate tests configuration validation.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid default", func(c *Config) {}, ""},
		{"custom separator", func(c *Config) {
			c.Format.Separator = SeparatorCustom
			c.Format.CustomSeparator = "||"
		}, ""},
		{"escaped tab literal", func(c *Config) { c.Format.Separator = `\t` }, ""},
		{"custom separator missing", func(c *Config) {
			c.Format.Separator = SeparatorCustom
		}, "format.separator"},
		{"unknown quoting", func(c *Config) { c.Format.Quoting = "sometimes" }, "format.quoting"},
		{"unknown encoding", func(c *Config) { c.Format.Encoding = "ebcdic" }, "format.encoding"},
		{"unknown line ending", func(c *Config) { c.Format.LineEnding = "mac" }, "format.line_ending"},
		{"two-character quote", func(c *Config) { c.Format.Quote = "ab" }, "format.quote"},
		{"separator not encodable", func(c *Config) {
			c.Format.Separator = "→"
			c.Format.Encoding = "latin1"
		}, "format.separator"},
		{"zero significant figures", func(c *Config) {
			c.SignificantFigures["price"] = 0
		}, "significant_figures.price"},
		{"negative max entries", func(c *Config) { c.History.MaxEntries = -1 }, "history.max_entries"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			var verrs ValidateErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Validate() error should be ValidateErrors, got %T", err)
			}
			found := false
			for _, v := range verrs {
				if v.Field == tt.wantErr {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() errors %v do not name %q", verrs, tt.wantErr)
			}
		})
	}
}

// =============================================================================
// FORMAT OPTIONS
// =============================================================================

func TestConfig_FormatOptions(t *testing.T) {
	cfg := Default()
	cfg.Format.Separator = "semicolon"
	cfg.Format.Quoting = "all"
	cfg.Format.Quote = "'"
	cfg.Format.Encoding = "cp1252"
	cfg.Format.LineEnding = "windows"
	cfg.SignificantFigures["price"] = 3

	opts, err := cfg.FormatOptions()
	if err != nil {
		t.Fatalf("FormatOptions() failed: %v", err)
	}
	if opts.Separator != ";" {
		t.Errorf("Separator = %q, want ';'", opts.Separator)
	}
	if opts.Quoting != csvfmt.QuoteAll {
		t.Errorf("Quoting = %v, want all", opts.Quoting)
	}
	if opts.QuoteChar != "'" {
		t.Errorf("QuoteChar = %q, want \"'\"", opts.QuoteChar)
	}
	if opts.Encoding != csvfmt.Windows1252 {
		t.Errorf("Encoding = %v, want windows-1252", opts.Encoding)
	}
	if opts.LineEnding != csvfmt.LineEndingWindows {
		t.Errorf("LineEnding = %v, want windows", opts.LineEnding)
	}

	// The options must not share the config's map.
	cfg.SignificantFigures["price"] = 9
	if opts.SignificantFigures["price"] != 3 {
		t.Errorf("options changed with config: got %d sig figs", opts.SignificantFigures["price"])
	}
}

func TestConfig_FormatOptionsCustomSeparator(t *testing.T) {
	cfg := Default()
	cfg.Format.Separator = SeparatorCustom
	cfg.Format.CustomSeparator = `→`

	opts, err := cfg.FormatOptions()
	if err != nil {
		t.Fatalf("FormatOptions() failed: %v", err)
	}
	if opts.Separator != "→" {
		t.Errorf("Separator = %q, want '→'", opts.Separator)
	}
}

func TestConfig_ApplyFormatOptionsRoundTrip(t *testing.T) {
	cases := []string{",", ";", "\t", "|", " ", "||", "→"}
	for _, sep := range cases {
		opts := csvfmt.DefaultOptions()
		opts.Separator = sep
		opts.Quoting = csvfmt.QuoteNone
		opts.SignificantFigures = map[string]int{"x": 2}

		cfg := Default()
		cfg.ApplyFormatOptions(opts)

		got, err := cfg.FormatOptions()
		if err != nil {
			t.Fatalf("separator %q: FormatOptions() failed: %v", sep, err)
		}
		if got.Separator != sep {
			t.Errorf("separator %q came back as %q", sep, got.Separator)
		}
		if got.Quoting != csvfmt.QuoteNone || got.SignificantFigures["x"] != 2 {
			t.Errorf("separator %q: options not preserved: %+v", sep, got)
		}
	}

	cfg := Default()
	opts := csvfmt.DefaultOptions()
	opts.Separator = ";"
	cfg.ApplyFormatOptions(opts)
	if cfg.Format.Separator != "semicolon" || cfg.Format.CustomSeparator != "" {
		t.Errorf("preset separator should be saved by name, got %+v", cfg.Format)
	}
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

func TestConfig_LoadMissingFileUsesDefaults(t *testing.T) {
	isolateHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Format.Separator != "comma" {
		t.Errorf("Expected default separator, got %q", cfg.Format.Separator)
	}
}

func TestConfig_SaveAndLoad(t *testing.T) {
	home := isolateHome(t)

	cfg := Default()
	cfg.Format.Separator = SeparatorCustom
	cfg.Format.CustomSeparator = "||"
	cfg.Format.Encoding = "iso-8859-1"
	cfg.Source.LastFile = "/data/sales.xlsx"
	cfg.Source.Sheet = "Q1 Totals"
	cfg.SignificantFigures["unit price"] = 4
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	path := filepath.Join(home, ".sheetcsv", "config.toml")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 && os.PathSeparator == '/' {
		t.Errorf("config file permissions = %o, want 600", perm)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.Format.CustomSeparator != "||" || loaded.Format.Encoding != "iso-8859-1" {
		t.Errorf("format not restored: %+v", loaded.Format)
	}
	if loaded.Source.Sheet != "Q1 Totals" {
		t.Errorf("sheet not restored: %q", loaded.Source.Sheet)
	}
	if loaded.SignificantFigures["unit price"] != 4 {
		t.Errorf("significant figures not restored: %v", loaded.SignificantFigures)
	}
}

func TestConfig_LoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "[format]\nseparator = \"tab\"\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() failed: %v", err)
	}
	if cfg.Format.Separator != "tab" {
		t.Errorf("separator = %q, want tab", cfg.Format.Separator)
	}
	if cfg.Format.Quote != `"` || cfg.Format.Encoding != "utf-8" {
		t.Errorf("missing keys should keep defaults: %+v", cfg.Format)
	}
	if !cfg.History.Enabled || cfg.History.MaxEntries != 500 {
		t.Errorf("history defaults lost: %+v", cfg.History)
	}
}

func TestConfig_LoadRejectsUnknownKeysAndBadValues(t *testing.T) {
	dir := t.TempDir()

	unknown := filepath.Join(dir, "unknown.toml")
	if err := os.WriteFile(unknown, []byte("[format]\ndelimiter = \";\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromPath(unknown); err == nil || !strings.Contains(err.Error(), "format.delimiter") {
		t.Errorf("expected unknown key error, got %v", err)
	}

	invalid := filepath.Join(dir, "invalid.toml")
	if err := os.WriteFile(invalid, []byte("[format]\nquoting = \"sometimes\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFromPath(invalid)
	var verrs ValidateErrors
	if !errors.As(err, &verrs) {
		t.Errorf("expected ValidateErrors, got %v", err)
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	isolateHome(t)
	t.Setenv("SHEETCSV_SEPARATOR", "pipe")
	t.Setenv("SHEETCSV_ENCODING", "utf-8-bom")
	t.Setenv("SHEETCSV_QUOTING", "none")
	t.Setenv("SHEETCSV_LINE_ENDING", "unix")
	t.Setenv("SHEETCSV_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	opts, err := cfg.FormatOptions()
	if err != nil {
		t.Fatalf("FormatOptions() failed: %v", err)
	}
	if opts.Separator != "|" || opts.Encoding != csvfmt.UTF8BOM ||
		opts.Quoting != csvfmt.QuoteNone || opts.LineEnding != csvfmt.LineEndingUnix {
		t.Errorf("env overrides not applied: %+v", opts)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
}

func TestConfig_Paths(t *testing.T) {
	home := isolateHome(t)
	cfg := Default()

	got, err := cfg.HistoryPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, ".sheetcsv", "history.db"); got != want {
		t.Errorf("HistoryPath() = %q, want %q", got, want)
	}

	cfg.Logging.File = "~/logs/run.log"
	got, err = cfg.LogPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, "logs", "run.log"); got != want {
		t.Errorf("LogPath() = %q, want %q", got, want)
	}
}

// =============================================================================
// GET / SET
// =============================================================================

// TestConfig_GetSet tests the Get and Set methods with dot notation.
func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	if err := cfg.Set("format.quoting", "all"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	val, err := cfg.Get("format.quoting")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if val != "all" {
		t.Errorf("Expected 'all', got '%v'", val)
	}

	if err := cfg.Set("history.max_entries", "25"); err != nil {
		t.Fatalf("Set() int failed: %v", err)
	}
	if cfg.History.MaxEntries != 25 {
		t.Errorf("Expected 25, got %d", cfg.History.MaxEntries)
	}

	if err := cfg.Set("history.enabled", "off"); err != nil {
		t.Fatalf("Set() bool failed: %v", err)
	}
	if cfg.History.Enabled {
		t.Error("history.enabled should be false")
	}
	if err := cfg.Set("history.enabled", "maybe"); err == nil {
		t.Error("Set() should reject an invalid boolean")
	}

	if _, err := cfg.Get("format.nonexistent"); err == nil {
		t.Error("Get() should fail for unknown key")
	}
	if err := cfg.Set("format", "x"); err == nil {
		t.Error("Set() should refuse to overwrite a section")
	}
}

func TestConfig_GetSetSignificantFigures(t *testing.T) {
	cfg := Default()

	if err := cfg.Set("significant_figures.Unit_Price", "3"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if cfg.SignificantFigures["Unit_Price"] != 3 {
		t.Errorf("column name should keep its spelling: %v", cfg.SignificantFigures)
	}

	val, err := cfg.Get("significant_figures.Unit_Price")
	if err != nil || val != 3 {
		t.Errorf("Get() = %v, %v; want 3", val, err)
	}

	keys := cfg.GetAllKeys()
	if keys[len(keys)-1] != "significant_figures.Unit_Price" {
		t.Errorf("GetAllKeys() should list the column, got %v", keys)
	}

	if err := cfg.Set("significant_figures.Unit_Price", "0"); err != nil {
		t.Fatalf("Set() to zero failed: %v", err)
	}
	if _, ok := cfg.SignificantFigures["Unit_Price"]; ok {
		t.Error("setting zero should remove the column")
	}
}

// TestConfig_Clone tests that Clone creates an independent copy.
func TestConfig_Clone(t *testing.T) {
	original := Default()
	original.SignificantFigures["a"] = 2

	clone := original.Clone()
	clone.Format.Separator = "tab"
	clone.SignificantFigures["a"] = 5

	if original.Format.Separator == "tab" {
		t.Error("Modifying clone should not affect original")
	}
	if original.SignificantFigures["a"] != 2 {
		t.Error("Clone should not share the significant figures map")
	}
}
