// sheetcsv - Convert spreadsheet sheets to delimited text, from a TUI or a script.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/sheetcsv-tui/internal/cli"
	"github.com/jeranaias/sheetcsv-tui/internal/config"
	"github.com/jeranaias/sheetcsv-tui/internal/logging"
	"github.com/jeranaias/sheetcsv-tui/internal/storage"
	"github.com/jeranaias/sheetcsv-tui/internal/ui/convert"
	"github.com/jeranaias/sheetcsv-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes one invocation and returns the process exit code.
func run(argv []string) int {
	cmd, args := cli.Parse(argv)

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		cli.DisplayError(cmd.String(), err, args.JSON)
		return cli.ExitCode(err)
	}

	if cmd == cli.CmdTUI {
		if err := runTUI(cfg, args); err != nil {
			cli.DisplayError(cmd.String(), err, false)
			return cli.ExitCode(err)
		}
		return cli.ExitSuccess
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, closeEnv, err := commandEnv(cfg, args)
	if err != nil {
		cli.DisplayError(cmd.String(), err, args.JSON)
		return cli.ExitCode(err)
	}
	defer closeEnv()

	if err := cli.Dispatch(ctx, cmd, env, args); err != nil {
		cli.DisplayError(cmd.String(), err, args.JSON)
		return cli.ExitCode(err)
	}
	return cli.ExitSuccess
}

// loadConfig reads the settings file. Commands that repair or describe the
// configuration run on defaults when the file is broken.
func loadConfig(cmd cli.Command, args cli.Args) (*config.Config, error) {
	cfg, err := config.Load()
	if err == nil {
		return cfg, nil
	}
	path, _ := config.ConfigPathTOML()
	switch {
	case cmd == cli.CmdHelp, cmd == cli.CmdVersion:
		return config.Default(), nil
	case cmd == cli.CmdConfig && (args.Subcommand == "reset" || args.Subcommand == "path"):
		return config.Default(), nil
	}
	return nil, &cli.ConfigError{Path: path, Err: err}
}

// commandEnv builds the environment for batch commands. Logs go to stderr,
// or to logging.file when one is configured.
func commandEnv(cfg *config.Config, args cli.Args) (*cli.Env, func(), error) {
	closers := []func() error{}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	level := "warn"
	if args.Verbose {
		level = "debug"
	}
	var logOut io.Writer = os.Stderr
	if cfg.Logging.File != "" {
		path, err := cfg.LogPath()
		if err == nil {
			if f, err := logging.OpenFile(path); err == nil {
				closers = append(closers, f.Close)
				logOut = f
				level = cfg.Logging.Level
			}
		}
	}
	logger := logging.Setup(level, cfg.Logging.Format, logOut)

	var hist *storage.History
	if cfg.History.Enabled {
		path, err := cfg.HistoryPath()
		if err != nil {
			closeAll()
			return nil, nil, &cli.ConfigError{Err: err}
		}
		hist, err = storage.Open(path, cfg.History.MaxEntries)
		if err != nil {
			// A broken history store should not block conversions.
			logger.Warn("history unavailable", "path", path, "error", err)
			hist = nil
		} else {
			closers = append(closers, hist.Close)
		}
	}

	env := &cli.Env{
		Config:   cfg,
		Logger:   logger,
		History:  hist,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Progress: cli.IsStderrTTY(),
	}
	return env, closeAll, nil
}

// runTUI starts the converter screen. Logs go to a file because the screen
// owns the terminal.
func runTUI(cfg *config.Config, args cli.Args) error {
	logPath, err := cfg.LogPath()
	if err != nil {
		return &cli.ConfigError{Err: err}
	}
	var logger *slog.Logger
	if f, err := logging.OpenFile(logPath); err == nil {
		defer f.Close()
		level := cfg.Logging.Level
		if args.Verbose {
			level = "debug"
		}
		logger = logging.Setup(level, cfg.Logging.Format, f)
	} else {
		logger = logging.Setup("error", cfg.Logging.Format, io.Discard)
	}

	opts := convert.Options{
		Config:  cfg,
		Path:    args.File,
		Watch:   convert.DefaultWatcher,
		Logger:  logger,
		LogPath: logPath,
	}
	if opts.Path == "" {
		opts.Path = cfg.Source.LastFile
		if _, err := os.Stat(opts.Path); err != nil {
			opts.Path = ""
		}
	}

	if cfg.History.Enabled {
		histPath, err := cfg.HistoryPath()
		if err == nil {
			hist, err := storage.Open(histPath, cfg.History.MaxEntries)
			if err == nil {
				defer hist.Close()
				opts.Recorder = hist
			} else {
				logger.Warn("history unavailable", "path", histPath, "error", err)
			}
		}
	}

	m := convert.New(styles.NewTheme(), opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()

	// The final model owns the watcher started for the last workbook.
	if fm, ok := final.(convert.Model); ok {
		fm.Close()
	} else {
		m.Close()
	}
	if err != nil {
		return fmt.Errorf("error running sheetcsv: %w", err)
	}
	return nil
}
