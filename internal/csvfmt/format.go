// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package csvfmt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Canonical Boolean tokens.
const (
	TrueToken  = "TRUE"
	FalseToken = "FALSE"
)

// FormatCell renders a cell without any quoting. sigFigs > 0 rounds numbers
// to that many significant digits first.
func FormatCell(c CellValue, sigFigs int) string {
	switch c.kind {
	case KindEmpty:
		return ""
	case KindText:
		return c.text
	case KindNumber:
		if sigFigs > 0 {
			return formatSignificant(c.f, sigFigs)
		}
		if c.exact {
			return strconv.FormatInt(c.i, 10)
		}
		return formatFloat(c.f)
	case KindBoolean:
		if c.b {
			return TrueToken
		}
		return FalseToken
	case KindDate:
		y, m, d := c.t.Date()
		return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
	case KindDateTime:
		return formatDateTime(c.t, c.zoned)
	}
	panic(fmt.Sprintf("csvfmt: unhandled cell kind %s", c.kind))
}

// formatFloat returns the shortest decimal that parses back to f, never in
// exponent form. Integral values have no decimal point.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == 0:
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatSignificant rounds f to n significant digits and renders the result
// with formatFloat, so 123456 at two digits is "120000" rather than "1.2e+05".
func formatSignificant(f float64, n int) string {
	if math.IsInf(f, 0) || math.IsNaN(f) || f == 0 {
		return formatFloat(f)
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(f, 'g', n, 64), 64)
	if err != nil {
		return formatFloat(f)
	}
	return formatFloat(rounded)
}

// formatDateTime renders YYYY-MM-DDTHH:MM:SS[.ffffff][+HH:MM].
func formatDateTime(t time.Time, zoned bool) string {
	var b strings.Builder
	b.Grow(32)

	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	fmt.Fprintf(&b, "%04d-%02d-%02dT%02d:%02d:%02d", y, int(mo), d, h, mi, s)

	if us := t.Nanosecond() / 1000; us != 0 {
		fmt.Fprintf(&b, ".%06d", us)
	}

	if zoned {
		_, offset := t.Zone()
		sign := '+'
		if offset < 0 {
			sign = '-'
			offset = -offset
		}
		fmt.Fprintf(&b, "%c%02d:%02d", sign, offset/3600, (offset%3600)/60)
	}
	return b.String()
}
