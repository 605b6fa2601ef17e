// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// HEADER TESTS
// =============================================================================

func TestNewHeader(t *testing.T) {
	h := NewHeader(testTheme())
	if h.Title != "sheetcsv" {
		t.Errorf("NewHeader() Title = %q, want %q", h.Title, "sheetcsv")
	}
	if h.Width != 80 {
		t.Errorf("NewHeader() Width = %d, want 80", h.Width)
	}
}

func TestHeader_View(t *testing.T) {
	h := NewHeader(testTheme())
	h.SetWidth(100)
	h.Source = "/data/finance/budget.xlsx"
	h.SetSheet("Q2", 1, 4)

	out := h.View()
	for _, want := range []string{"sheetcsv", "budget.xlsx", "[Q2 (2/4)]"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q: %q", want, out)
		}
	}
	if strings.Contains(out, "/data/finance") {
		t.Error("header should show the file name only")
	}
}

func TestHeader_SingleSheetOmitsPosition(t *testing.T) {
	h := NewHeader(testTheme())
	h.SetSheet("Only", 0, 1)
	if out := h.View(); !strings.Contains(out, "[Only]") || strings.Contains(out, "1/1") {
		t.Errorf("single sheet header = %q", out)
	}
}

func TestHeader_Narrow(t *testing.T) {
	h := NewHeader(testTheme())
	h.SetWidth(24)
	h.Source = "a-very-long-workbook-name-indeed.xlsx"
	h.SetSheet("Sheet1", 0, 3)

	out := h.View()
	if strings.Contains(out, "\n") {
		t.Errorf("narrow header should stay on one line: %q", out)
	}
	if w := lipgloss.Width(out); w > 24 {
		t.Errorf("narrow header width = %d, want <= 24", w)
	}
}
