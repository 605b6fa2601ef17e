// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and persistence for sheetcsv.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - FormatConfig: Last-used separator, quoting, encoding and line ending
//   - HistoryConfig: Run history database settings
//   - LoggingConfig: slog level, handler format and file
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (SHEETCSV_*)
//   - ~/.sheetcsv/config.toml
//   - Built-in defaults
//
// # Usage
//
// Build the options for one conversion run:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	opts, err := cfg.FormatOptions()
//
// The returned csvfmt.Options shares nothing with cfg, so settings edited
// while a run is in flight never reach it.
package config
