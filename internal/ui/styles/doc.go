// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the sheetcsv TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. The Theme detects the color profile with termenv once at startup.

# Colors (colors.go)

  - Purple - focused panels and the active option value
  - Cyan - brand, grid headers and key hints
  - Emerald, Rose, Amber - completed, failed and cancelled runs

Preview grid cells are tinted by their classified kind (number, date,
boolean, text, empty) so a quick glance shows how a column will be quoted.

# Accessibility

Every status color is paired with an ASCII shape ([OK], [X], [!], [i]) so
the interface reads correctly without color.
*/
package styles
