// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Unified error handling and exit codes for sheetcsv commands.
//
// Handlers always return errors and never exit themselves. main maps the
// returned error to an exit code with ExitCode after DisplayError has shown
// it.

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jeranaias/sheetcsv-tui/internal/config"
	"github.com/jeranaias/sheetcsv-tui/internal/csvfmt"
	"github.com/jeranaias/sheetcsv-tui/internal/storage"
)

// =============================================================================
// EXIT CODES - Specific codes for different error categories
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates a bad config file or format option
	ExitConfigError = 3
	// ExitNotFoundError indicates a missing workbook, sheet or history entry
	ExitNotFoundError = 7
	// ExitSourceError indicates a workbook that could not be read
	ExitSourceError = 9
	// ExitEncodingError indicates a character the encoding cannot represent
	ExitEncodingError = 10
	// ExitSinkError indicates the output could not be written
	ExitSinkError = 11
	// ExitCancelled follows the shell convention for SIGINT
	ExitCancelled = 130
)

// =============================================================================
// ERROR TYPES FOR STRUCTURED ERROR HANDLING
// =============================================================================

// UsageError reports a bad flag or argument.
type UsageError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *UsageError) Error() string {
	msg := e.Reason
	if e.Field != "" {
		if e.Value != "" {
			msg = fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Reason)
		} else {
			msg = fmt.Sprintf("%s: %s", e.Field, e.Reason)
		}
	}
	if e.Example != "" {
		msg += "\n  Example: " + e.Example
	}
	return msg
}

// NotFoundError reports a missing resource such as a history entry.
type NotFoundError struct {
	Resource string
	ID       string
	Err      error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// ConfigError wraps a failure to load or save the config file.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("config: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR CONSTRUCTORS
// =============================================================================

// NewUsageError creates a usage error for a flag or argument.
func NewUsageError(field, value, reason string) error {
	return &UsageError{Field: field, Value: value, Reason: reason}
}

// ErrMissingArgument creates an error for a missing required argument.
func ErrMissingArgument(argName, usage string) error {
	return &UsageError{
		Field:   argName,
		Reason:  "is required",
		Example: usage,
	}
}

// ErrUnknownSubcommand creates an error for an unsupported subcommand.
func ErrUnknownSubcommand(command, sub, usage string) error {
	return &UsageError{
		Field:   command,
		Value:   sub,
		Reason:  "unknown subcommand",
		Example: usage,
	}
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// ExitCode determines the exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if csvfmt.IsCancelled(err) {
		return ExitCancelled
	}

	var (
		usageErr    *UsageError
		notFoundErr *NotFoundError
		configErr   *ConfigError
		validateErr config.ValidateErrors
		fieldErr    config.ValidationError
		sourceErr   *csvfmt.SourceReadError
	)
	switch {
	case errors.As(err, &usageErr):
		return ExitUsageError
	case errors.As(err, &notFoundErr), errors.Is(err, storage.ErrNotFound):
		return ExitNotFoundError
	case errors.As(err, &configErr), errors.As(err, &validateErr), errors.As(err, &fieldErr):
		return ExitConfigError
	case errors.As(err, &sourceErr):
		if sourceErr.Reason == csvfmt.SourceMissingSheet || errors.Is(err, fs.ErrNotExist) {
			return ExitNotFoundError
		}
		return ExitSourceError
	}

	switch csvfmt.KindOf(err) {
	case csvfmt.ErrorKindConfiguration:
		return ExitConfigError
	case csvfmt.ErrorKindEncoding:
		return ExitEncodingError
	case csvfmt.ErrorKindSinkWrite:
		return ExitSinkError
	}
	return ExitGeneralError
}

// =============================================================================
// ERROR DISPLAY HELPERS
// =============================================================================

// DisplayError shows err on stderr, or as a JSON error response on stdout in
// JSON mode.
func DisplayError(command string, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		DisplayErrorJSON(command, err)
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
	if hint := hintFor(err); hint != "" {
		fmt.Fprintf(os.Stderr, "        %s\n", DimStyle.Render(hint))
	}
}

// DisplayErrorJSON writes an error response with structured details.
func DisplayErrorJSON(command string, err error) {
	resp := NewJSONErrorResponse(command, err)
	details := map[string]interface{}{
		"exit_code": ExitCode(err),
	}

	var (
		usageErr  *UsageError
		cfgErr    *csvfmt.ConfigurationError
		encErr    *csvfmt.EncodingError
		sourceErr *csvfmt.SourceReadError
	)
	switch {
	case errors.As(err, &usageErr):
		details["error_type"] = "usage_error"
		details["field"] = usageErr.Field
		details["value"] = usageErr.Value
	case errors.As(err, &cfgErr):
		details["error_type"] = csvfmt.ErrorKindConfiguration.String()
		details["field"] = cfgErr.Field
		details["value"] = cfgErr.Value
	case errors.As(err, &encErr):
		details["error_type"] = csvfmt.ErrorKindEncoding.String()
		details["row"] = encErr.Row
		details["column"] = encErr.ColumnName
		details["char"] = string(encErr.Char)
	case errors.As(err, &sourceErr):
		details["error_type"] = csvfmt.ErrorKindSourceRead.String()
		details["path"] = sourceErr.Path
		details["sheet"] = sourceErr.Sheet
	default:
		details["error_type"] = csvfmt.KindOf(err).String()
	}
	resp.Data = details

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	encoder.Encode(resp)
}

// hintFor suggests a next step for common failures.
func hintFor(err error) string {
	var sourceErr *csvfmt.SourceReadError
	if errors.As(err, &sourceErr) {
		switch sourceErr.Reason {
		case csvfmt.SourceProtected:
			return "Pass --password to open protected workbooks."
		case csvfmt.SourceMissingSheet:
			return "Run 'sheetcsv sheets <file>' to list the sheet names."
		}
	}
	switch csvfmt.KindOf(err) {
	case csvfmt.ErrorKindEncoding:
		return "Choose --encoding utf-8, or remove the character from the sheet."
	case csvfmt.ErrorKindSinkWrite:
		return "Check free disk space and write permission for the output directory."
	}
	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return "Run 'sheetcsv help' for usage."
	}
	return ""
}
