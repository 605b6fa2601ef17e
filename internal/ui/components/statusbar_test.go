// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// STATUS BAR TESTS
// =============================================================================

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusReady, "Ready"},
		{StatusLoading, "Loading..."},
		{StatusExporting, "Exporting..."},
		{StatusError, "Error"},
		{StatusIdle, "Idle"},
		{Status(99), "Unknown"},
	}
	for _, tc := range tests {
		if got := tc.status.String(); got != tc.want {
			t.Errorf("Status(%d).String() = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestStatusBar_Wide(t *testing.T) {
	sb := NewStatusBar(testTheme())
	sb.SetWidth(120)
	sb.Source = "/home/me/reports/q1.xlsx"
	sb.Sheet = "Summary"
	sb.SetStatus(StatusReady)
	sb.SetMessage("Settings saved")

	out := sb.View()
	for _, want := range []string{"q1.xlsx", "Summary", "Ready", "Settings saved", "ctrl+s", "export"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q: %q", want, out)
		}
	}
	if strings.Contains(out, "/home/me") {
		t.Error("status bar should show the file name only")
	}
	if w := lipgloss.Width(out); w != 120 {
		t.Errorf("View() width = %d, want 120", w)
	}
}

func TestStatusBar_SetStatusClearsMessage(t *testing.T) {
	sb := NewStatusBar(testTheme())
	sb.SetMessage("stale")
	sb.SetStatus(StatusExporting)
	if sb.Message != "" {
		t.Errorf("Message = %q, want empty after SetStatus", sb.Message)
	}
}

func TestStatusBar_Narrow(t *testing.T) {
	sb := NewStatusBar(testTheme())
	sb.SetWidth(40)
	sb.Sheet = "Data"
	sb.SetStatus(StatusError)

	out := sb.View()
	if strings.Contains(out, "\n") {
		t.Errorf("narrow bar should be one line: %q", out)
	}
	if strings.Contains(out, "ctrl+s") {
		t.Error("narrow bar should drop shortcuts")
	}
	if !strings.Contains(out, "Data") {
		t.Error("narrow bar should keep the sheet name")
	}
}
