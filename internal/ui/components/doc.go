// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the widgets the sheetcsv converter screen is
built from.

Components are plain structs with a View method; the converter model owns
them and feeds them state. None of them touch the filesystem or run
exports.

# Display Components

Header (header.go) - Brand, workbook name and sheet position.
StatusBar (statusbar.go) - File, sheet, status and key hints.
PreviewTable (preview.go) - Grid or raw view of a csvfmt.PreviewResult,
colored by cell kind, with horizontal scrolling.

# Progress and Feedback

ExportProgress (progress.go) - Rows written, elapsed time and a
bubbles/progress bar for the running export.
TaskList (task_list.go) - Export jobs from a tasks.Queue, used by the
batch "export all sheets" panel.
ErrorDisplay (error.go) - Error box with suggestions chosen by
csvfmt.ErrorKind.

# Accessibility

Status is never shown by color alone: every state carries an ASCII marker
such as [OK], [X] or [!].
*/
package components
