// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import "github.com/jeranaias/sheetcsv-tui/internal/csvfmt"

// =============================================================================
// RUN EVENTS
// =============================================================================

// Event is one immutable notification from a run's worker. The concrete
// types are Progress, Completed, Failed and Cancelled.
type Event interface {
	// Run returns the ID of the run that emitted the event.
	Run() string

	// Terminal reports whether this is the run's last event.
	Terminal() bool
}

// Progress reports the cumulative number of data rows written.
type Progress struct {
	RunID string
	Rows  int
}

// Completed means every row was written and the sink committed.
type Completed struct {
	RunID       string
	Rows        int
	Destination string
}

// Failed carries the error that ended the run. Partial output was discarded.
type Failed struct {
	RunID string
	Kind  csvfmt.ErrorKind
	Err   error
	Rows  int
}

// Cancelled means the caller stopped the run. Partial output was discarded.
type Cancelled struct {
	RunID string
	Rows  int
}

func (e Progress) Run() string  { return e.RunID }
func (e Completed) Run() string { return e.RunID }
func (e Failed) Run() string    { return e.RunID }
func (e Cancelled) Run() string { return e.RunID }

func (Progress) Terminal() bool  { return false }
func (Completed) Terminal() bool { return true }
func (Failed) Terminal() bool    { return true }
func (Cancelled) Terminal() bool { return true }
