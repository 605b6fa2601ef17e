// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package csvfmt

import (
	"fmt"
	"math"
	"time"
)

// Classify maps a raw value to its CellValue. It never fails: anything it does
// not recognise becomes Text using its default string form.
func Classify(raw any) CellValue {
	switch v := raw.(type) {
	case nil:
		return Empty()
	case CellValue:
		return v
	case string:
		return Text(v)
	case bool:
		return Bool(v)
	case int:
		return Int(int64(v))
	case int8:
		return Int(int64(v))
	case int16:
		return Int(int64(v))
	case int32:
		return Int(int64(v))
	case int64:
		return Int(v)
	case uint:
		return classifyUnsigned(uint64(v))
	case uint8:
		return Int(int64(v))
	case uint16:
		return Int(int64(v))
	case uint32:
		return Int(int64(v))
	case uint64:
		return classifyUnsigned(v)
	case float32:
		return classifyFloat(float64(v))
	case float64:
		return classifyFloat(v)
	case Timestamp:
		return classifyTimestamp(v)
	case *Timestamp:
		if v == nil {
			return Empty()
		}
		return classifyTimestamp(*v)
	case time.Time:
		return classifyTimestamp(Timestamp{Time: v, Zoned: v.Location() != time.UTC})
	case time.Duration:
		return Text(v.String())
	case fmt.Stringer:
		return Text(v.String())
	default:
		return Text(fmt.Sprint(v))
	}
}

// ClassifyRow classifies every value of a row.
func ClassifyRow(row Row) []CellValue {
	cells := make([]CellValue, len(row))
	for i, raw := range row {
		cells[i] = Classify(raw)
	}
	return cells
}

func classifyFloat(f float64) CellValue {
	// Spreadsheet readers use NaN for missing numeric cells.
	if math.IsNaN(f) {
		return Empty()
	}
	return Float(f)
}

func classifyUnsigned(u uint64) CellValue {
	if u > math.MaxInt64 {
		return Float(float64(u))
	}
	return Int(int64(u))
}

func classifyTimestamp(ts Timestamp) CellValue {
	if ts.Time.IsZero() {
		return Empty()
	}
	if !ts.TimeTyped && !ts.Zoned && isMidnight(ts.Time) {
		y, m, d := ts.Time.Date()
		return Date(y, m, d)
	}
	return DateTime(ts.Time, ts.Zoned)
}

func isMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}
