// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package csvfmt

import (
	"context"
	"errors"
	"fmt"
)

// =============================================================================
// ERROR KINDS
// =============================================================================

// ErrorKind classifies a failed run for callers that only need the category.
type ErrorKind int

const (
	// ErrorKindUnknown is any error not produced by this package.
	ErrorKindUnknown ErrorKind = iota
	ErrorKindSourceRead
	ErrorKindConfiguration
	ErrorKindEncoding
	ErrorKindSinkWrite
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindSourceRead:
		return "SourceReadError"
	case ErrorKindConfiguration:
		return "ConfigurationError"
	case ErrorKindEncoding:
		return "EncodingError"
	case ErrorKindSinkWrite:
		return "SinkWriteError"
	default:
		return "Error"
	}
}

// KindOf returns the ErrorKind of err, looking through wrapped errors.
func KindOf(err error) ErrorKind {
	var (
		srcErr  *SourceReadError
		cfgErr  *ConfigurationError
		encErr  *EncodingError
		sinkErr *SinkWriteError
	)
	switch {
	case errors.As(err, &srcErr):
		return ErrorKindSourceRead
	case errors.As(err, &cfgErr):
		return ErrorKindConfiguration
	case errors.As(err, &encErr):
		return ErrorKindEncoding
	case errors.As(err, &sinkErr):
		return ErrorKindSinkWrite
	default:
		return ErrorKindUnknown
	}
}

// IsCancelled reports whether err means the caller stopped the run.
// Cancellation is an outcome, not a failure.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// =============================================================================
// SOURCE READ ERROR
// =============================================================================

// SourceFailure says why a workbook could not be read.
type SourceFailure int

const (
	SourceUnreadable SourceFailure = iota
	SourceProtected
	SourceMissingSheet
)

func (f SourceFailure) String() string {
	switch f {
	case SourceProtected:
		return "workbook is password-protected"
	case SourceMissingSheet:
		return "worksheet does not exist"
	default:
		return "workbook is unreadable"
	}
}

// SourceReadError is reported before any row is processed when the workbook
// cannot be opened or the requested sheet is missing.
type SourceReadError struct {
	Path   string
	Sheet  string
	Reason SourceFailure
	Err    error
}

func (e *SourceReadError) Error() string {
	msg := fmt.Sprintf("read %s: %s", e.Path, e.Reason)
	if e.Reason == SourceMissingSheet && e.Sheet != "" {
		msg = fmt.Sprintf("read %s: sheet %q not found", e.Path, e.Sheet)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SourceReadError) Unwrap() error {
	return e.Err
}

// =============================================================================
// CONFIGURATION ERROR
// =============================================================================

// ConfigurationError names the option that failed validation.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// =============================================================================
// ENCODING ERROR
// =============================================================================

// EncodingError reports the first character the target encoding cannot
// represent. Row 0 is the header; data rows count from 1.
type EncodingError struct {
	Row        int
	Column     int
	ColumnName string
	Char       rune
	Encoding   Encoding
}

func (e *EncodingError) Error() string {
	col := fmt.Sprintf("column %d", e.Column+1)
	if e.ColumnName != "" {
		col = fmt.Sprintf("column %d (%s)", e.Column+1, e.ColumnName)
	}
	where := fmt.Sprintf("row %d", e.Row)
	if e.Row == 0 {
		where = "header"
	}
	return fmt.Sprintf("character %q (U+%04X) in %s, %s cannot be encoded as %s",
		e.Char, e.Char, where, col, e.Encoding)
}

// =============================================================================
// SINK WRITE ERROR
// =============================================================================

// SinkWriteError wraps an I/O failure on the output.
type SinkWriteError struct {
	Path string
	Op   string
	Err  error
}

func (e *SinkWriteError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s output: %v", e.Op, e.Err)
}

func (e *SinkWriteError) Unwrap() error {
	return e.Err
}
