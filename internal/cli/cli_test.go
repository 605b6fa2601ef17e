// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"testing"

	"github.com/jeranaias/sheetcsv-tui/internal/config"
	"github.com/jeranaias/sheetcsv-tui/internal/csvfmt"
	"github.com/jeranaias/sheetcsv-tui/internal/storage"
)

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		bools    []string
		wantSub  string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name:    "simple subcommand",
			args:    []string{"show"},
			wantSub: "show",
		},
		{
			name:    "flag with value",
			args:    []string{"book.xlsx", "--sheet", "Q1"},
			wantSub: "book.xlsx",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("sheet") != "Q1" {
					t.Errorf("Flag(sheet) = %q, want %q", p.Flag("sheet"), "Q1")
				}
			},
		},
		{
			name:    "flag with equals",
			args:    []string{"book.xlsx", "--separator=;"},
			wantSub: "book.xlsx",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("separator") != ";" {
					t.Errorf("Flag(separator) = %q, want %q", p.Flag("separator"), ";")
				}
			},
		},
		{
			name:    "boolean flag does not eat the positional",
			args:    []string{"--force", "book.xlsx"},
			bools:   []string{"force"},
			wantSub: "book.xlsx",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("force") {
					t.Error("BoolFlag(force) should be true")
				}
			},
		},
		{
			name:    "repeated flag keeps every value",
			args:    []string{"book.xlsx", "-s", "A", "--sheet", "B", "-s", "C"},
			wantSub: "book.xlsx",
			validate: func(t *testing.T, p *ArgParser) {
				got := p.Flags("sheet", "s")
				if len(got) != 3 {
					t.Fatalf("Flags(sheet, s) = %v, want three values", got)
				}
				if p.Flag("s") != "C" {
					t.Errorf("Flag(s) = %q, want last value %q", p.Flag("s"), "C")
				}
			},
		},
		{
			name:    "dash is positional",
			args:    []string{"book.xlsx", "-o", "-"},
			wantSub: "book.xlsx",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("o") != "-" {
					t.Errorf("Flag(o) = %q, want %q", p.Flag("o"), "-")
				}
			},
		},
		{
			name:    "double dash ends flags",
			args:    []string{"--", "--odd-name.xlsx"},
			wantSub: "--odd-name.xlsx",
			validate: func(t *testing.T, p *ArgParser) {
				if p.HasFlag("odd-name.xlsx") {
					t.Error("arguments after -- must stay positional")
				}
			},
		},
		{
			name:    "trailing flag without value is boolean",
			args:    []string{"book.xlsx", "--verbose"},
			wantSub: "book.xlsx",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("verbose") {
					t.Error("BoolFlag(verbose) should be true")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewArgParser(tt.args, tt.bools...)
			if p.Subcommand() != tt.wantSub {
				t.Errorf("Subcommand() = %q, want %q", p.Subcommand(), tt.wantSub)
			}
			if tt.validate != nil {
				tt.validate(t, p)
			}
		})
	}
}

func TestArgParser_Unknown(t *testing.T) {
	p := NewArgParser([]string{"book.xlsx", "--sheet", "A", "--bogus", "1"})
	got := p.Unknown("sheet")
	if !reflect.DeepEqual(got, []string{"bogus"}) {
		t.Errorf("Unknown() = %v, want [bogus]", got)
	}
}

func TestArgParser_FlagInt(t *testing.T) {
	p := NewArgParser([]string{"--limit", "5", "--rows", "many"})
	if n, err := p.FlagInt("limit"); err != nil || n != 5 {
		t.Errorf("FlagInt(limit) = %d, %v; want 5, nil", n, err)
	}
	if _, err := p.FlagInt("rows"); err == nil {
		t.Error("FlagInt(rows) should fail for a non-number")
	}
	if n, err := p.FlagInt("missing"); err != nil || n != 0 {
		t.Errorf("FlagInt(missing) = %d, %v; want 0, nil", n, err)
	}
}

func TestParseBoolString(t *testing.T) {
	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{"true", true, false},
		{"YES", true, false},
		{"1", true, false},
		{"off", false, false},
		{"n", false, false},
		{"maybe", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBoolString(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBoolString(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseBoolString(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// =============================================================================
// PARSE TESTS (cli.go)
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		wantCmd Command
		check   func(*testing.T, Args)
	}{
		{
			name:    "no arguments starts the TUI",
			argv:    nil,
			wantCmd: CmdTUI,
		},
		{
			name:    "workbook path opens the TUI",
			argv:    []string{"report.xlsx"},
			wantCmd: CmdTUI,
			check: func(t *testing.T, a Args) {
				if a.File != "report.xlsx" {
					t.Errorf("File = %q, want report.xlsx", a.File)
				}
			},
		},
		{
			name:    "global flags anywhere",
			argv:    []string{"convert", "book.xlsx", "--json", "-q"},
			wantCmd: CmdConvert,
			check: func(t *testing.T, a Args) {
				if !a.JSON || !a.Quiet {
					t.Errorf("JSON = %v, Quiet = %v; want both true", a.JSON, a.Quiet)
				}
				if !reflect.DeepEqual(a.Raw, []string{"book.xlsx"}) {
					t.Errorf("Raw = %v, want [book.xlsx]", a.Raw)
				}
			},
		},
		{
			name:    "history flag is not a subcommand",
			argv:    []string{"history", "--limit", "5"},
			wantCmd: CmdHistory,
			check: func(t *testing.T, a Args) {
				if a.Subcommand != "" {
					t.Errorf("Subcommand = %q, want empty", a.Subcommand)
				}
			},
		},
		{
			name:    "config set joins the value",
			argv:    []string{"config", "set", "format.separator", "semicolon"},
			wantCmd: CmdConfig,
			check: func(t *testing.T, a Args) {
				if a.Subcommand != "set" || a.ConfigKey != "format.separator" || a.ConfigVal != "semicolon" {
					t.Errorf("got %q %q %q", a.Subcommand, a.ConfigKey, a.ConfigVal)
				}
			},
		},
		{
			name:    "aliases",
			argv:    []string{"export", "book.xlsx"},
			wantCmd: CmdConvert,
		},
		{
			name:    "version flag",
			argv:    []string{"--version"},
			wantCmd: CmdVersion,
		},
		{
			name:    "typo is unknown",
			argv:    []string{"convrt"},
			wantCmd: CmdUnknown,
			check: func(t *testing.T, a Args) {
				if a.Unknown != "convrt" {
					t.Errorf("Unknown = %q, want convrt", a.Unknown)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := Parse(tt.argv)
			if cmd != tt.wantCmd {
				t.Fatalf("Parse(%v) command = %v, want %v", tt.argv, cmd, tt.wantCmd)
			}
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestSuggestCommand(t *testing.T) {
	tests := map[string]string{
		"convrt":  "convert",
		"previwe": "preview",
		"sheet":   "sheets",
		"HISTROY": "history",
		"exprot":  "export",
		"convert": "",
		"c":       "",
		"zzzzzz":  "",
	}
	for input, want := range tests {
		if got := SuggestCommand(input); got != want {
			t.Errorf("SuggestCommand(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "ls", 2},
		{"sheets", "sheets", 0},
		{"prevew", "preview", 1},
		{"café", "cafe", 1},
	}
	for _, tt := range tests {
		if got := editDistance([]rune(tt.a), []rune(tt.b)); got != tt.want {
			t.Errorf("editDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestUnknownCommandError(t *testing.T) {
	err := UnknownCommandError("convrt")
	var usage *UsageError
	if !errors.As(err, &usage) {
		t.Fatalf("expected *UsageError, got %T", err)
	}
	if usage.Example != "sheetcsv convert" {
		t.Errorf("Example = %q, want suggestion", usage.Example)
	}
	if ExitCode(err) != ExitUsageError {
		t.Errorf("ExitCode = %d, want %d", ExitCode(err), ExitUsageError)
	}
}

// =============================================================================
// EXIT CODE TESTS (errors.go)
// =============================================================================

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", errors.New("boom"), ExitGeneralError},
		{"usage", NewUsageError("--rows", "x", "bad"), ExitUsageError},
		{"cancelled", fmt.Errorf("stop: %w", context.Canceled), ExitCancelled},
		{"history miss", fmt.Errorf("%w: abc", storage.ErrNotFound), ExitNotFoundError},
		{"missing file", &csvfmt.SourceReadError{Path: "x.xlsx", Reason: csvfmt.SourceUnreadable, Err: fs.ErrNotExist}, ExitNotFoundError},
		{"missing sheet", &csvfmt.SourceReadError{Path: "x.xlsx", Sheet: "Q9", Reason: csvfmt.SourceMissingSheet}, ExitNotFoundError},
		{"protected", &csvfmt.SourceReadError{Path: "x.xlsx", Reason: csvfmt.SourceProtected}, ExitSourceError},
		{"bad option", &csvfmt.ConfigurationError{Field: "quoting", Value: "some", Reason: "bad"}, ExitConfigError},
		{"bad config file", config.ValidateErrors{{Field: "format.encoding", Message: "unknown"}}, ExitConfigError},
		{"encoding", &csvfmt.EncodingError{Row: 2, Column: 1, Char: '€', Encoding: csvfmt.ISO8859_1}, ExitEncodingError},
		{"sink", &csvfmt.SinkWriteError{Path: "out.csv", Op: "write", Err: errors.New("disk full")}, ExitSinkError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestHintFor(t *testing.T) {
	protected := &csvfmt.SourceReadError{Path: "x.xlsx", Reason: csvfmt.SourceProtected}
	if hint := hintFor(protected); hint == "" {
		t.Error("protected workbooks should suggest --password")
	}
	if hint := hintFor(errors.New("boom")); hint != "" {
		t.Errorf("hintFor(plain) = %q, want empty", hint)
	}
}
