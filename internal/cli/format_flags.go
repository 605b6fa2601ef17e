// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// format_flags.go - Format flags shared by convert and preview.

package cli

import (
	"strings"

	"github.com/jeranaias/sheetcsv-tui/internal/config"
	"github.com/jeranaias/sheetcsv-tui/internal/csvfmt"
	"github.com/jeranaias/sheetcsv-tui/internal/source"
)

// formatFlagNames are the value flags every formatting command accepts.
var formatFlagNames = []string{
	"separator", "sep", "quoting", "quote", "encoding", "line-ending",
	"sig-figs", "password",
}

// applyFormatFlags overrides the format section of cfg with flags.
// cfg should be a clone; the saved config is not touched.
func applyFormatFlags(cfg *config.Config, p *ArgParser) error {
	if sep := p.Flag("separator", "sep"); sep != "" {
		cfg.Format.Separator = sep
		if !strings.EqualFold(sep, config.SeparatorCustom) {
			cfg.Format.CustomSeparator = ""
		}
	}
	if p.HasFlag("quote") {
		cfg.Format.Quote = p.Flag("quote")
	}
	if v := p.Flag("quoting"); v != "" {
		cfg.Format.Quoting = v
	}
	if v := p.Flag("encoding"); v != "" {
		cfg.Format.Encoding = v
	}
	if v := p.Flag("line-ending"); v != "" {
		cfg.Format.LineEnding = v
	}

	entries := p.Flags("sig-figs")
	if len(entries) > 0 && cfg.SignificantFigures == nil {
		cfg.SignificantFigures = make(map[string]int)
	}
	for _, entry := range entries {
		for _, part := range strings.Split(entry, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			column, n, err := csvfmt.ParseSignificantFigure(part)
			if err != nil {
				return err
			}
			cfg.SignificantFigures[column] = n
		}
	}
	return nil
}

// resolveFormat applies the flags to a clone of base and builds the engine
// options from it.
func resolveFormat(base *config.Config, p *ArgParser) (*config.Config, csvfmt.Options, error) {
	cfg := base.Clone()
	if err := applyFormatFlags(cfg, p); err != nil {
		return nil, csvfmt.Options{}, err
	}
	opts, err := cfg.FormatOptions()
	if err != nil {
		return nil, csvfmt.Options{}, err
	}
	return cfg, opts, nil
}

// openWorkbook opens the positional workbook argument.
func openWorkbook(p *ArgParser, command string) (*source.Workbook, string, error) {
	path := p.Positional(0)
	if path == "" {
		return nil, "", ErrMissingArgument("file", "sheetcsv "+command+" report.xlsx")
	}
	path = absPath(path)
	wb, err := source.Open(path, source.Options{Password: p.Flag("password")})
	if err != nil {
		return nil, path, err
	}
	return wb, path, nil
}

// checkFlags rejects flags the command does not know.
func checkFlags(p *ArgParser, known ...string) error {
	if unknown := p.Unknown(known...); len(unknown) > 0 {
		return NewUsageError("--"+unknown[0], "", "unknown flag")
	}
	return nil
}
