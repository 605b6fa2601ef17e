// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package convert provides the converter screen of the sheetcsv TUI.

The screen pairs an options panel with a live preview of the selected sheet.
Every edit rebuilds the engine options from the settings on screen, so the
preview shows exactly what an export would write, saved or not.

# Key Components

## Model (model.go)

The Model struct holds the edited settings, the loaded workbook and the
components that draw it. New wires a task queue and runner for exports and
starts them; Close stops both.

## Update Loop (update.go)

Handles keys, workbook loads, export events and file watcher changes:
  - Tab and Shift+Tab move between fields
  - Left and Right cycle choice fields
  - Ctrl+S opens the destination prompt, Ctrl+A exports every sheet
  - Esc or Ctrl+C cancels a running export
  - Ctrl+Q saves the settings and quits

## Background Work (commands.go, messages.go)

Workbooks are read in commands. Export events from the runner and change
notifications from the watcher cross into the program through a bridge
channel, so Update stays the only place model state changes.

## View Rendering (view.go, help.go)

Options and preview sit side by side on wide terminals and stack on narrow
ones. The help overlay is markdown rendered with glamour.
*/
package convert
