// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package convert

import (
	"strings"

	"github.com/jeranaias/sheetcsv-tui/internal/config"
	"github.com/jeranaias/sheetcsv-tui/internal/csvfmt"
)

// =============================================================================
// FOCUSABLE FIELDS
// =============================================================================

type field int

const (
	fieldPath field = iota
	fieldSheet
	fieldSeparator
	fieldCustomSeparator
	fieldQuoting
	fieldQuote
	fieldEncoding
	fieldLineEnding
	fieldSigFigs
	fieldCount
)

var fieldLabels = [fieldCount]string{
	fieldPath:            "Workbook",
	fieldSheet:           "Sheet",
	fieldSeparator:       "Separator",
	fieldCustomSeparator: "Custom separator",
	fieldQuoting:         "Quoting",
	fieldQuote:           "Quote character",
	fieldEncoding:        "Encoding",
	fieldLineEnding:      "Line ending",
	fieldSigFigs:         "Significant figs",
}

func (f field) String() string {
	if f >= 0 && f < fieldCount {
		return fieldLabels[f]
	}
	return "?"
}

// isText reports whether the field takes typed input.
func (f field) isText() bool {
	switch f {
	case fieldPath, fieldCustomSeparator, fieldQuote, fieldSigFigs:
		return true
	}
	return false
}

// =============================================================================
// OPTION CYCLES
// =============================================================================

func separatorChoices() []string {
	return append(config.SeparatorPresets(), config.SeparatorCustom)
}

func quotingChoices() []string {
	return []string{csvfmt.QuoteNone.String(), csvfmt.QuoteTextOnly.String(), csvfmt.QuoteAll.String()}
}

func encodingChoices() []string {
	encs := csvfmt.Encodings()
	out := make([]string, len(encs))
	for i, e := range encs {
		out[i] = e.String()
	}
	return out
}

func lineEndingChoices() []string {
	return []string{csvfmt.LineEndingOS.String(), csvfmt.LineEndingUnix.String(), csvfmt.LineEndingWindows.String()}
}

// cycle returns the value delta steps away from current, wrapping around.
// An unknown current value starts from the first choice.
func cycle(choices []string, current string, delta int) string {
	if len(choices) == 0 {
		return current
	}
	idx := -1
	for i, c := range choices {
		if strings.EqualFold(c, current) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return choices[0]
	}
	n := len(choices)
	return choices[((idx+delta)%n+n)%n]
}

// encodingLabel returns the display name for a stored encoding value.
func encodingLabel(value string) string {
	enc, err := csvfmt.ParseEncoding(value)
	if err != nil {
		return value
	}
	return enc.Label()
}

// separatorLabel describes a separator choice for display.
func separatorLabel(name string) string {
	switch name {
	case "comma":
		return "Comma (,)"
	case "semicolon":
		return "Semicolon (;)"
	case "tab":
		return "Tab (\\t)"
	case "pipe":
		return "Pipe (|)"
	case "space":
		return "Space"
	case config.SeparatorCustom:
		return "Custom"
	}
	return name
}

// parseSigFigs parses "price=3, qty=2". Empty input clears all entries.
func parseSigFigs(text string) (map[string]int, error) {
	out := map[string]int{}
	for _, entry := range strings.Split(text, ",") {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		column, n, err := csvfmt.ParseSignificantFigure(entry)
		if err != nil {
			return nil, err
		}
		out[column] = n
	}
	return out, nil
}
