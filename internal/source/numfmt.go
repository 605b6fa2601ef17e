// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package source

import "strings"

// numberClass says how a numeric cell should be interpreted.
type numberClass int

const (
	classNumber numberClass = iota
	classDate               // date, possibly with a time of day
	classTime               // time of day only
)

// cellFormat is the resolved meaning of a cell style's number format.
type cellFormat struct {
	class     numberClass
	timeTyped bool
}

// Built-in number format ids that carry dates or times.
var builtinFormats = map[int]cellFormat{
	14: {class: classDate},
	15: {class: classDate},
	16: {class: classDate},
	17: {class: classDate},
	22: {class: classDate, timeTyped: true},
	18: {class: classTime},
	19: {class: classTime},
	20: {class: classTime},
	21: {class: classTime},
	45: {class: classTime},
	46: {class: classTime},
	47: {class: classTime},
}

// classifyFormat resolves a style's number format. custom is the format code
// when the style uses one.
func classifyFormat(id int, custom string) cellFormat {
	if custom != "" {
		return classifyCode(custom)
	}
	if f, ok := builtinFormats[id]; ok {
		return f
	}
	return cellFormat{class: classNumber}
}

// classifyCode inspects a custom format code for date and time tokens.
// Quoted literals, escaped characters, colour and locale brackets are
// ignored. Elapsed-time formats such as [h]:mm stay numeric because they
// can exceed one day.
func classifyCode(code string) cellFormat {
	// Only the first section (positive numbers) matters.
	if i := strings.IndexByte(code, ';'); i >= 0 {
		code = code[:i]
	}

	var b strings.Builder
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case inQuote:
			if c == '"' {
				inQuote = false
			}
		case inBracket:
			if c == ']' {
				inBracket = false
			}
		case c == '"':
			inQuote = true
		case c == '[':
			if end := strings.IndexByte(code[i:], ']'); end > 1 && isElapsed(code[i+1:i+end]) {
				return cellFormat{class: classNumber}
			}
			inBracket = true
		case c == '\\' || c == '_' || c == '*':
			i++
		default:
			b.WriteByte(c)
		}
	}

	tokens := strings.ToLower(b.String())
	hasDate := strings.ContainsAny(tokens, "yd")
	hasTime := strings.ContainsAny(tokens, "hs")
	if !hasDate && !hasTime && strings.Contains(tokens, "m") && !strings.Contains(tokens, "0") && !strings.Contains(tokens, "#") {
		// A lone "m" token is a month.
		hasDate = true
	}

	switch {
	case hasDate:
		return cellFormat{class: classDate, timeTyped: hasTime}
	case hasTime:
		return cellFormat{class: classTime}
	default:
		return cellFormat{class: classNumber}
	}
}

// isElapsed reports whether a bracketed token such as "h" or "mm" is an
// elapsed-time unit rather than a colour or locale.
func isElapsed(token string) bool {
	return strings.Trim(strings.ToLower(token), "hms") == ""
}
