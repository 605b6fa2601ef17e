// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package csvfmt

import "strings"

// =============================================================================
// QUOTING DECISION
// =============================================================================

// NeedsQuote decides whether a formatted field must be quoted. Content that
// would break parsing (the separator, the quote character or a line break)
// always forces quoting, whatever the mode. Otherwise the mode decides.
func NeedsQuote(field string, kind Kind, separator, quote string, mode Quoting) bool {
	if mustQuote(field, separator, quote) {
		return true
	}
	switch mode {
	case QuoteAll:
		return true
	case QuoteTextOnly:
		return kind == KindText
	case QuoteNone:
		return false
	}
	return false
}

func mustQuote(field, separator, quote string) bool {
	return strings.Contains(field, separator) ||
		strings.Contains(field, quote) ||
		strings.ContainsAny(field, "\r\n")
}

// =============================================================================
// ESCAPER
// =============================================================================

// Escape doubles every quote character in field and wraps it in quotes.
func Escape(field, quote string) string {
	var b strings.Builder
	b.Grow(len(field) + 2*len(quote) + 4)
	b.WriteString(quote)
	b.WriteString(strings.ReplaceAll(field, quote, quote+quote))
	b.WriteString(quote)
	return b.String()
}
