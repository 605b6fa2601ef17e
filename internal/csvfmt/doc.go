// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package csvfmt turns typed spreadsheet rows into delimited text.
//
// The pipeline for one row is fixed:
//
//	raw value -> Classify -> format -> quoting decision -> escape -> join -> encode
//
// Every entry point goes through the same per-row function
// (RowFormatter.Fields), so a preview line is always byte-for-byte the line a
// full export writes for that row.
//
// # Key Types
//
//   - CellValue: closed tagged union of Empty, Text, Number, Boolean, Date, DateTime
//   - Options: immutable formatting options for one run
//   - Sheet: header plus data rows handed over read-only by a reader
//   - RowFormatter: classifies, formats, quotes and joins rows
//   - Encoder: transcodes assembled lines and owns the BOM
//   - Writer: streams a whole Sheet to an io.Writer with progress and cancellation
//
// # Usage
//
//	opts := csvfmt.DefaultOptions()
//	opts.Separator = ";"
//	w, err := csvfmt.NewWriter(opts, func(rows int) { fmt.Println(rows) })
//	if err != nil {
//	    return err // *ConfigurationError
//	}
//	rows, err := w.WriteSheet(ctx, file, sheet)
//
// Preview the first rows with identical output:
//
//	p, err := csvfmt.Preview(sheet, opts)
package csvfmt
