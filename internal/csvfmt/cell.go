// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package csvfmt

import (
	"fmt"
	"time"
)

// =============================================================================
// CELL KIND
// =============================================================================

// Kind identifies which variant a CellValue holds.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindText
	KindNumber
	KindBoolean
	KindDate
	KindDateTime
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindText:
		return "Text"
	case KindNumber:
		return "Number"
	case KindBoolean:
		return "Boolean"
	case KindDate:
		return "Date"
	case KindDateTime:
		return "DateTime"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// =============================================================================
// CELL VALUE
// =============================================================================

// CellValue is one classified spreadsheet cell. The zero value is Empty.
// Values are immutable; build them with the constructors below.
type CellValue struct {
	kind Kind

	text string

	// Number payload. exact is set when the source carried an integer,
	// in which case i is authoritative and f is informational.
	f     float64
	i     int64
	exact bool

	b bool

	// Date and DateTime payload. zoned reports whether the source supplied
	// a UTC offset.
	t     time.Time
	zoned bool
}

// Empty returns the Empty cell.
func Empty() CellValue { return CellValue{} }

// Text returns a Text cell.
func Text(s string) CellValue { return CellValue{kind: KindText, text: s} }

// Float returns a Number cell holding a binary float.
func Float(f float64) CellValue { return CellValue{kind: KindNumber, f: f} }

// Int returns a Number cell holding an exact integer.
func Int(i int64) CellValue { return CellValue{kind: KindNumber, i: i, f: float64(i), exact: true} }

// Bool returns a Boolean cell.
func Bool(b bool) CellValue { return CellValue{kind: KindBoolean, b: b} }

// Date returns a Date cell for the given calendar day.
func Date(year int, month time.Month, day int) CellValue {
	return CellValue{kind: KindDate, t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateTime returns a DateTime cell. When zoned is false the location of t is
// ignored and no offset is rendered.
func DateTime(t time.Time, zoned bool) CellValue {
	return CellValue{kind: KindDateTime, t: t, zoned: zoned}
}

// Kind returns the variant tag.
func (c CellValue) Kind() Kind { return c.kind }

// IsText reports whether the cell is the Text variant.
func (c CellValue) IsText() bool { return c.kind == KindText }

// Str returns the Text payload.
func (c CellValue) Str() string { return c.text }

// Float64 returns the numeric payload as a float.
func (c CellValue) Float64() float64 { return c.f }

// Int64 returns the integer payload and whether the number is an exact integer.
func (c CellValue) Int64() (int64, bool) { return c.i, c.exact }

// BoolValue returns the Boolean payload.
func (c CellValue) BoolValue() bool { return c.b }

// Time returns the Date or DateTime payload.
func (c CellValue) Time() time.Time { return c.t }

// Zoned reports whether a DateTime carries a UTC offset.
func (c CellValue) Zoned() bool { return c.zoned }

// =============================================================================
// RAW TEMPORAL VALUE
// =============================================================================

// Timestamp is the raw temporal value a spreadsheet reader hands to Classify.
type Timestamp struct {
	Time time.Time

	// TimeTyped is set when the source column is formatted with a time
	// component, so midnight values stay DateTime.
	TimeTyped bool

	// Zoned is set when the source supplied an explicit UTC offset.
	Zoned bool
}

// =============================================================================
// SHEET
// =============================================================================

// Row is one record of raw values, one per column.
type Row []any

// Sheet is a header plus data rows in source order. A Sheet is produced by a
// reader and never modified by this package, so it is safe to share between
// a preview and a running export.
type Sheet struct {
	Name   string
	Header []string
	Rows   []Row
}

// Width returns the number of columns.
func (s *Sheet) Width() int { return len(s.Header) }

// Len returns the number of data rows.
func (s *Sheet) Len() int { return len(s.Rows) }
