// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package csvfmt

import "strings"

// =============================================================================
// ROW FORMATTER
// =============================================================================

// RowFormatter is the single per-row function shared by exports and previews.
// It is built once per run from validated Options and the sheet header, and
// resolves the line terminator at that point.
type RowFormatter struct {
	separator  string
	quote      string
	mode       Quoting
	terminator string
	header     []string
	sigFigs    []int
}

// NewRowFormatter validates opts and prepares a formatter for rows of a
// sheet with the given header.
func NewRowFormatter(opts Options, header []string) (*RowFormatter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	sigFigs := make([]int, len(header))
	for i, name := range header {
		sigFigs[i] = opts.SignificantFigures[name]
	}

	return &RowFormatter{
		separator:  opts.Separator,
		quote:      opts.QuoteChar,
		mode:       opts.Quoting,
		terminator: opts.LineEnding.Terminator(),
		header:     append([]string(nil), header...),
		sigFigs:    sigFigs,
	}, nil
}

// Terminator returns the record terminator chosen for this run.
func (f *RowFormatter) Terminator() string {
	return f.terminator
}

// Field renders one classified cell of column col, quoting and escaping it
// when required.
func (f *RowFormatter) Field(c CellValue, col int) string {
	digits := 0
	if col >= 0 && col < len(f.sigFigs) {
		digits = f.sigFigs[col]
	}
	text := FormatCell(c, digits)
	if NeedsQuote(text, c.Kind(), f.separator, f.quote, f.mode) {
		return Escape(text, f.quote)
	}
	return text
}

// HeaderFields renders the header names as Text cells.
func (f *RowFormatter) HeaderFields() []string {
	fields := make([]string, len(f.header))
	for i, name := range f.header {
		fields[i] = f.Field(Text(name), i)
	}
	return fields
}

// Fields renders every cell of a data row. Rows shorter than the header are
// padded with empty fields; cells past the header width are kept.
func (f *RowFormatter) Fields(row Row) []string {
	width := len(row)
	if width < len(f.header) {
		width = len(f.header)
	}
	fields := make([]string, width)
	for i := 0; i < width; i++ {
		var raw any
		if i < len(row) {
			raw = row[i]
		}
		fields[i] = f.Field(Classify(raw), i)
	}
	return fields
}

// Join assembles fields into one record without its terminator.
func (f *RowFormatter) Join(fields []string) string {
	return strings.Join(fields, f.separator)
}

// Line formats a data row into one record without its terminator.
func (f *RowFormatter) Line(row Row) string {
	return f.Join(f.Fields(row))
}

// ColumnName returns the header name of column col, or "" past the header.
func (f *RowFormatter) ColumnName(col int) string {
	if col >= 0 && col < len(f.header) {
		return f.header[col]
	}
	return ""
}
