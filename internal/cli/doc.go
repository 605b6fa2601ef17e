// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the batch commands of sheetcsv.
//
// Without a command sheetcsv starts the converter TUI. The batch commands
// share the engine, the task runner and the history store with it, so a
// conversion from a script produces the same bytes as one from the screen.
//
// # Key Types
//
//   - Command: Enumeration of the commands
//   - Args: Global flags plus the words after the command
//   - Env: Config, logger, history and output streams shared by handlers
//   - ArgParser: Per-command flag parsing with repeatable flags
//
// # Usage
//
//	cmd, args := cli.Parse(os.Args[1:])
//	if err := cli.Dispatch(ctx, cmd, env, args); err != nil {
//	    cli.DisplayError(cmd.String(), err, args.JSON)
//	    os.Exit(cli.ExitCode(err))
//	}
//
// # Commands Overview
//
//   - convert: Export one, several or all sheets
//   - preview: Print the first rows as they would be written
//   - sheets: List worksheet names
//   - history: List, show and clear past runs
//   - config: Show and change saved settings
//
// All commands support --json. Exit codes are listed in errors.go.
package cli
