// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and top-level command handlers for sheetcsv.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/jeranaias/sheetcsv-tui/internal/config"
	"github.com/jeranaias/sheetcsv-tui/internal/storage"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdConvert
	CmdPreview
	CmdSheets
	CmdHistory
	CmdConfig
	CmdVersion
	CmdHelp
	CmdUnknown
)

// String returns the command name used in JSON responses and logs.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdConvert:
		return "convert"
	case CmdPreview:
		return "preview"
	case CmdSheets:
		return "sheets"
	case CmdHistory:
		return "history"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool // Output in JSON format

	// Command-specific
	File       string // Workbook opened by the TUI
	Subcommand string
	ConfigKey  string
	ConfigVal  string
	Unknown    string // The command word when Parse returns CmdUnknown

	// Raw args (remaining after the command word and global flags)
	Raw []string
}

// Env carries what every handler needs. main builds it once.
type Env struct {
	Config *config.Config
	Logger *slog.Logger

	// History is nil when history is disabled.
	History *storage.History

	Stdout io.Writer
	Stderr io.Writer

	// Confirm asks a yes/no question. Nil uses an interactive prompt.
	Confirm func(prompt string) (bool, error)

	// Save persists the config. Nil uses config.Save.
	Save func(*config.Config) error

	// Progress draws a progress bar on Stderr while converting.
	Progress bool
}

func (e *Env) confirm(prompt string) (bool, error) {
	if e.Confirm != nil {
		return e.Confirm(prompt)
	}
	return PromptConfirm(prompt)
}

func (e *Env) save(cfg *config.Config) error {
	if e.Save != nil {
		return e.Save(cfg)
	}
	return config.Save(cfg)
}

func (e *Env) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

const usageText = `sheetcsv - Convert spreadsheet sheets to delimited text

Usage:
  sheetcsv [file.xlsx]              Start the converter TUI (default)
  sheetcsv convert <file> [flags]   Export sheets to delimited text
  sheetcsv preview <file> [flags]   Show the first rows as they would be written
  sheetcsv sheets <file>            List the sheets in a workbook
  sheetcsv history [list|show|clear] Past conversion runs
  sheetcsv config [show|get|set|path] Saved settings
  sheetcsv version                  Show version information
  sheetcsv help                     Show this help

Format flags (convert, preview):
  --separator <sep>      comma, semicolon, tab, pipe, space, or a literal such as "||"
  --quoting <mode>       none, text (default) or all
  --quote <char>         Quote character (default ")
  --encoding <enc>       utf-8, utf-8-bom, iso-8859-1, windows-1252
  --line-ending <le>     auto, unix (\n) or windows (\r\n)
  --sig-figs COL=N       Significant figures for a numeric column (repeatable)
  --password <pw>        Password for a protected workbook

Convert flags:
  -s, --sheet <name>     Sheet to export (repeatable; default: first sheet)
  --all-sheets           Export every sheet to <book>_<sheet>.csv
  -o, --output <path>    Output file for a single sheet ("-" writes to stdout)
  --output-dir <dir>     Directory for the output files (default: beside the workbook)
  -f, --force            Overwrite existing files without asking
  --save-settings        Store the format flags as the new defaults

Global flags:
  --json                 Machine-readable output
  -q, --quiet            Only print errors
  -v, --verbose          Debug logging on stderr

Examples:
  sheetcsv report.xlsx
  sheetcsv convert report.xlsx --sheet Q1 --separator semicolon --encoding windows-1252
  sheetcsv convert report.xlsx --all-sheets --output-dir out/
  sheetcsv convert report.xlsx -o - --quoting all | head
  sheetcsv preview report.xlsx --sig-figs price=3
  sheetcsv config set format.separator tab

Settings are read from ~/.sheetcsv/config.toml. Flags override them for one run.
`

// PrintUsage prints the usage text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// PrintVersion prints the version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "sheetcsv %s\n", Version)
	fmt.Fprintf(w, "  Commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Built:  %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:     %s\n", runtime.Version())
}

// =============================================================================
// PARSING
// =============================================================================

// Parse reads the command word and global flags from argv (without the
// program name).
func Parse(argv []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(argv)

	// If no remaining args, default to TUI
	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	word := remaining[0]
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch strings.ToLower(word) {
	case "tui", "open":
		if len(remaining) > 0 {
			parsedArgs.File = remaining[0]
		}
		return CmdTUI, parsedArgs

	case "convert", "export":
		return CmdConvert, parsedArgs

	case "preview", "show":
		return CmdPreview, parsedArgs

	case "sheets", "ls":
		return CmdSheets, parsedArgs

	case "history", "runs":
		if len(remaining) > 0 && !strings.HasPrefix(remaining[0], "-") {
			parsedArgs.Subcommand = remaining[0]
		}
		return CmdHistory, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "version", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs
	}

	// A workbook path opens the TUI on that file.
	if looksLikePath(word) {
		parsedArgs.File = word
		return CmdTUI, parsedArgs
	}
	parsedArgs.Unknown = word
	return CmdUnknown, parsedArgs
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
// Everything after "--" is left untouched.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	for i, arg := range args {
		if arg == "--" {
			remaining = append(remaining, args[i:]...)
			break
		}
		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, parsedArgs
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = strings.ToLower(remaining[0])
	}
	if len(remaining) > 1 {
		args.ConfigKey = remaining[1]
	}
	if len(remaining) > 2 {
		args.ConfigVal = strings.Join(remaining[2:], " ")
	}
}

func looksLikePath(s string) bool {
	if strings.ContainsAny(s, `/\`) {
		return true
	}
	switch strings.ToLower(filepath.Ext(s)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return true
	}
	return false
}

// =============================================================================
// SIMPLE HANDLERS
// =============================================================================

// HandleVersion handles the "version" command with JSON output support.
func HandleVersion(env *Env, args Args) error {
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}).PrintTo(env.Stdout)
	}
	PrintVersion(env.Stdout)
	return nil
}

// HandleHelp handles the "help" command.
func HandleHelp(env *Env) error {
	PrintUsage(env.Stdout)
	return nil
}

// UnknownCommandError builds the usage error for a word Parse did not know.
func UnknownCommandError(word string) error {
	err := &UsageError{Field: "command", Value: word, Reason: "unknown command"}
	if s := SuggestCommand(word); s != "" {
		err.Example = "sheetcsv " + s
	}
	return err
}

// Dispatch runs a non-interactive command. CmdTUI is handled by main.
func Dispatch(ctx context.Context, cmd Command, env *Env, args Args) error {
	switch cmd {
	case CmdConvert:
		return HandleConvert(ctx, env, args)
	case CmdPreview:
		return HandlePreview(ctx, env, args)
	case CmdSheets:
		return HandleSheets(ctx, env, args)
	case CmdHistory:
		return HandleHistory(ctx, env, args)
	case CmdConfig:
		return HandleConfig(env, args)
	case CmdVersion:
		return HandleVersion(env, args)
	case CmdHelp:
		return HandleHelp(env)
	case CmdUnknown:
		return UnknownCommandError(args.Unknown)
	default:
		return fmt.Errorf("command %s is not a batch command", cmd)
	}
}
