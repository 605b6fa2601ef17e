// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package source reads worksheets from xlsx workbooks into csvfmt.Sheet
// values and watches workbook files for changes.
//
// Cell values keep their spreadsheet type: numbers stay numeric, booleans
// stay booleans and date-formatted numbers become csvfmt.Timestamp. Failures
// are reported as *csvfmt.SourceReadError before any row is produced.
//
// # Usage
//
//	wb, err := source.Open("report.xlsx", source.Options{})
//	if err != nil {
//	    return err
//	}
//	defer wb.Close()
//	sheet, err := wb.ReadSheet(wb.Sheets()[0], 0)
package source
