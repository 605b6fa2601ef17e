// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - JSON output support for scripting.
//
// Every command accepts --json and prints exactly one JSONResponse on
// stdout. Progress and prompts never appear in JSON mode.
package cli

import (
	"encoding/json"
	"io"
	"time"
)

// JSONResponse is the standardized response format for all CLI commands.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the ISO8601 timestamp when the response was generated
	Timestamp string `json:"timestamp"`

	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// PrintTo writes the indented response to w.
func (r *JSONResponse) PrintTo(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// String returns the JSON response as a string.
func (r *JSONResponse) String() string {
	data, err := json.Marshal(r)
	if err != nil {
		return `{"success":false,"error":"failed to marshal response"}`
	}
	return string(data)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// VersionData represents the data returned by the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// ConvertData represents the data returned by the convert command.
type ConvertData struct {
	Source  string          `json:"source"`
	Outputs []ConvertOutput `json:"outputs"`
}

// ConvertOutput describes one exported sheet.
type ConvertOutput struct {
	RunID       string `json:"run_id"`
	Sheet       string `json:"sheet"`
	Destination string `json:"destination"`
	Status      string `json:"status"`
	Rows        int    `json:"rows"`
	DurationMs  int64  `json:"duration_ms"`
	Error       string `json:"error,omitempty"`
	ErrorKind   string `json:"error_kind,omitempty"`
}

// PreviewData represents the data returned by the preview command.
type PreviewData struct {
	Source    string   `json:"source"`
	Sheet     string   `json:"sheet"`
	Header    string   `json:"header"`
	Lines     []string `json:"lines"`
	TotalRows int      `json:"total_rows"`
	Problem   string   `json:"problem,omitempty"`
}

// SheetsData represents the data returned by the sheets command.
type SheetsData struct {
	Source string   `json:"source"`
	Sheets []string `json:"sheets"`
}

// HistoryData represents the data returned by history list.
type HistoryData struct {
	Path    string      `json:"path"`
	Entries interface{} `json:"entries"`
	Count   int         `json:"count"`
}

// ConfigData represents the data returned by config show and get.
type ConfigData struct {
	Path  string      `json:"path,omitempty"`
	Key   string      `json:"key,omitempty"`
	Value interface{} `json:"value"`
}
