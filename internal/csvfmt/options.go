// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package csvfmt

import (
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// =============================================================================
// QUOTING MODE
// =============================================================================

// Quoting selects which fields are quoted beyond the mandatory rule.
type Quoting int

const (
	// QuoteNone quotes only fields that would otherwise break parsing.
	QuoteNone Quoting = iota
	// QuoteTextOnly also quotes every Text cell.
	QuoteTextOnly
	// QuoteAll quotes every field.
	QuoteAll
)

func (q Quoting) String() string {
	switch q {
	case QuoteNone:
		return "none"
	case QuoteTextOnly:
		return "text"
	case QuoteAll:
		return "all"
	default:
		return fmt.Sprintf("Quoting(%d)", int(q))
	}
}

// ParseQuoting parses "none", "text" or "all" (case-insensitive).
func ParseQuoting(s string) (Quoting, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "minimal":
		return QuoteNone, nil
	case "text", "text-only", "textonly", "nonnumeric":
		return QuoteTextOnly, nil
	case "all":
		return QuoteAll, nil
	}
	return 0, &ConfigurationError{Field: "quoting", Value: s, Reason: "must be one of none, text, all"}
}

// =============================================================================
// ENCODING
// =============================================================================

// Encoding is the target byte encoding of the output.
type Encoding int

const (
	UTF8 Encoding = iota
	UTF8BOM
	ISO8859_1
	Windows1252
)

func (e Encoding) String() string {
	switch e {
	case UTF8:
		return "utf-8"
	case UTF8BOM:
		return "utf-8-bom"
	case ISO8859_1:
		return "iso-8859-1"
	case Windows1252:
		return "windows-1252"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// Label returns the human-readable name used in the interface.
func (e Encoding) Label() string {
	switch e {
	case UTF8:
		return "UTF-8"
	case UTF8BOM:
		return "UTF-8 with BOM"
	case ISO8859_1:
		return "ISO-8859-1"
	case Windows1252:
		return "Windows-1252"
	default:
		return e.String()
	}
}

// Encodings lists the supported encodings in display order.
func Encodings() []Encoding {
	return []Encoding{UTF8, UTF8BOM, ISO8859_1, Windows1252}
}

// ParseEncoding accepts the canonical names plus the common aliases.
func ParseEncoding(s string) (Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("_", "-", " ", "-").Replace(key)
	switch key {
	case "utf-8", "utf8":
		return UTF8, nil
	case "utf-8-bom", "utf8-bom", "utf-8-sig", "utf-8-with-bom":
		return UTF8BOM, nil
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return ISO8859_1, nil
	case "windows-1252", "cp1252", "win1252":
		return Windows1252, nil
	}
	return 0, &ConfigurationError{Field: "encoding", Value: s, Reason: "must be one of utf-8, utf-8-bom, iso-8859-1, windows-1252"}
}

// =============================================================================
// LINE ENDING
// =============================================================================

// LineEnding selects the record terminator.
type LineEnding int

const (
	LineEndingOS LineEnding = iota
	LineEndingUnix
	LineEndingWindows
)

func (l LineEnding) String() string {
	switch l {
	case LineEndingOS:
		return "auto"
	case LineEndingUnix:
		return "unix"
	case LineEndingWindows:
		return "windows"
	default:
		return fmt.Sprintf("LineEnding(%d)", int(l))
	}
}

// ParseLineEnding parses "auto", "unix" or "windows".
func ParseLineEnding(s string) (LineEnding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto", "os", "default", "":
		return LineEndingOS, nil
	case "unix", "lf", `\n`:
		return LineEndingUnix, nil
	case "windows", "crlf", `\r\n`:
		return LineEndingWindows, nil
	}
	return 0, &ConfigurationError{Field: "line_ending", Value: s, Reason: "must be one of auto, unix, windows"}
}

// Terminator returns the byte sequence ending each record. LineEndingOS is
// resolved against the running platform.
func (l LineEnding) Terminator() string {
	return l.terminatorFor(runtime.GOOS)
}

func (l LineEnding) terminatorFor(goos string) string {
	switch l {
	case LineEndingUnix:
		return "\n"
	case LineEndingWindows:
		return "\r\n"
	default:
		if goos == "windows" {
			return "\r\n"
		}
		return "\n"
	}
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options holds the formatting choices for one conversion or preview.
// Treat an Options value as immutable once a run starts; the engine copies
// what it needs at construction time.
type Options struct {
	// Separator is placed between fields. It may be several codepoints.
	Separator string

	// QuoteChar wraps quoted fields. It must be exactly one codepoint.
	QuoteChar string

	Quoting    Quoting
	Encoding   Encoding
	LineEnding LineEnding

	// SignificantFigures rounds numbers in the named columns.
	SignificantFigures map[string]int
}

// DefaultOptions returns comma-separated, text-quoted UTF-8 output.
func DefaultOptions() Options {
	return Options{
		Separator:  ",",
		QuoteChar:  `"`,
		Quoting:    QuoteTextOnly,
		Encoding:   UTF8,
		LineEnding: LineEndingOS,
	}
}

// Validate checks the options before any row is processed.
func (o Options) Validate() error {
	if o.Separator == "" {
		return &ConfigurationError{Field: "separator", Reason: "must not be empty"}
	}
	if !utf8.ValidString(o.Separator) {
		return &ConfigurationError{Field: "separator", Value: o.Separator, Reason: "is not valid UTF-8"}
	}
	if n := utf8.RuneCountInString(o.QuoteChar); n != 1 {
		return &ConfigurationError{Field: "quote_char", Value: o.QuoteChar, Reason: "must be exactly one character"}
	}
	if r, _ := utf8.DecodeRuneInString(o.QuoteChar); r == utf8.RuneError {
		return &ConfigurationError{Field: "quote_char", Value: o.QuoteChar, Reason: "is not valid UTF-8"}
	}
	if strings.ContainsAny(o.QuoteChar, "\r\n") {
		return &ConfigurationError{Field: "quote_char", Value: o.QuoteChar, Reason: "must not be a line break"}
	}
	if o.Quoting < QuoteNone || o.Quoting > QuoteAll {
		return &ConfigurationError{Field: "quoting", Value: o.Quoting.String(), Reason: "unknown quoting mode"}
	}
	if o.LineEnding < LineEndingOS || o.LineEnding > LineEndingWindows {
		return &ConfigurationError{Field: "line_ending", Value: o.LineEnding.String(), Reason: "unknown line ending"}
	}
	cm, err := o.Encoding.charmap()
	if err != nil {
		return err
	}
	if cm != nil {
		for _, field := range []struct{ name, value string }{
			{"separator", o.Separator},
			{"quote_char", o.QuoteChar},
		} {
			for _, r := range field.value {
				if _, ok := cm.EncodeRune(r); !ok {
					return &ConfigurationError{
						Field:  field.name,
						Value:  field.value,
						Reason: fmt.Sprintf("%q cannot be encoded as %s", r, o.Encoding),
					}
				}
			}
		}
	}
	for _, column := range sortedKeys(o.SignificantFigures) {
		if n := o.SignificantFigures[column]; n <= 0 {
			return &ConfigurationError{
				Field:  "significant_figures." + column,
				Value:  strconv.Itoa(n),
				Reason: "must be a positive integer",
			}
		}
	}
	return nil
}

// Clone returns a copy that shares no maps with o.
func (o Options) Clone() Options {
	clone := o
	if o.SignificantFigures != nil {
		clone.SignificantFigures = make(map[string]int, len(o.SignificantFigures))
		for k, v := range o.SignificantFigures {
			clone.SignificantFigures[k] = v
		}
	}
	return clone
}

// ParseSeparator turns user input into a separator. It understands the
// escapes people type for invisible delimiters: "\t", "tab", "x09", "\x09",
// "\u0009" and "0x09".
func ParseSeparator(s string) (string, error) {
	switch strings.ToLower(s) {
	case "":
		return "", &ConfigurationError{Field: "separator", Reason: "must not be empty"}
	case `\t`, "tab", "x09", `\x09`, "0x09", `\u0009`:
		return "\t", nil
	case "space":
		return " ", nil
	case "comma":
		return ",", nil
	case "semicolon":
		return ";", nil
	case "pipe":
		return "|", nil
	}
	if strings.Contains(s, `\`) {
		unquoted, err := strconv.Unquote(`"` + strings.ReplaceAll(s, `"`, `\"`) + `"`)
		if err != nil {
			return "", &ConfigurationError{Field: "separator", Value: s, Reason: "invalid escape sequence"}
		}
		if unquoted == "" {
			return "", &ConfigurationError{Field: "separator", Value: s, Reason: "must not be empty"}
		}
		return unquoted, nil
	}
	return s, nil
}

// ParseSignificantFigure parses one "COLUMN=N" entry. The last '=' splits,
// so column names may contain '='.
func ParseSignificantFigure(entry string) (string, int, error) {
	i := strings.LastIndex(entry, "=")
	if i <= 0 {
		return "", 0, &ConfigurationError{Field: "significant_figures", Value: entry, Reason: "expected COLUMN=N"}
	}
	column := strings.TrimSpace(entry[:i])
	n, err := strconv.Atoi(strings.TrimSpace(entry[i+1:]))
	if column == "" || err != nil || n <= 0 {
		return "", 0, &ConfigurationError{Field: "significant_figures", Value: entry, Reason: "expected COLUMN=N with N > 0"}
	}
	return column, n, nil
}

// FormatSignificantFigures renders m as "a=2, b=3" sorted by column.
func FormatSignificantFigures(m map[string]int) string {
	parts := make([]string, 0, len(m))
	for _, column := range sortedKeys(m) {
		parts = append(parts, column+"="+strconv.Itoa(m[column]))
	}
	return strings.Join(parts, ", ")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
