// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// args.go - Shared argument parsing for sheetcsv commands.

package cli

import (
	"strconv"
	"strings"
)

// =============================================================================
// ARGUMENT PARSER
// =============================================================================

// ArgParser provides unified argument parsing for CLI commands.
// It handles multiple flag formats consistently:
//   - Long flags: --flag value or --flag=value
//   - Short flags: -f value
//   - Boolean flags: --flag (no value needed)
//   - Repeated flags: --sheet A --sheet B
//   - Positional arguments: arguments without flags
//
// A flag only takes a value when it is not listed as boolean, so
// "--force book.xlsx" keeps book.xlsx positional.
type ArgParser struct {
	subcommand string              // First positional arg (e.g., "show", "list", "clear")
	flags      map[string][]string // String flags in the order given
	boolFlags  map[string]bool     // Boolean flags (--force)
	positional []string            // All positional arguments including subcommand
	raw        []string            // Original raw arguments
}

// NewArgParser creates a parser. boolNames lists the flags that never take a
// value; short names are given without the dash.
//
// Example:
//
//	p := NewArgParser([]string{"book.xlsx", "--sheet", "Q1", "--force"}, "force")
//	p.Positional(0)    // "book.xlsx"
//	p.Flag("sheet")    // "Q1"
//	p.BoolFlag("force") // true
func NewArgParser(raw []string, boolNames ...string) *ArgParser {
	parser := &ArgParser{
		flags:      make(map[string][]string),
		boolFlags:  make(map[string]bool),
		positional: make([]string, 0),
		raw:        raw,
	}
	isBool := make(map[string]bool, len(boolNames))
	for _, name := range boolNames {
		isBool[name] = true
	}

	i := 0
	for i < len(raw) {
		arg := raw[i]

		// "--" ends flag parsing; "-" alone is a positional (stdin/stdout).
		if arg == "--" {
			parser.positional = append(parser.positional, raw[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			parser.positional = append(parser.positional, arg)
			i++
			continue
		}

		name := strings.TrimLeft(arg, "-")
		if before, value, ok := strings.Cut(name, "="); ok {
			if isBool[before] {
				b, err := ParseBoolString(value)
				parser.boolFlags[before] = err == nil && b
			} else {
				parser.flags[before] = append(parser.flags[before], value)
			}
			i++
			continue
		}

		if isBool[name] || i+1 >= len(raw) {
			parser.boolFlags[name] = true
			i++
			continue
		}
		parser.flags[name] = append(parser.flags[name], raw[i+1])
		i += 2
	}

	if len(parser.positional) > 0 {
		parser.subcommand = parser.positional[0]
	}
	return parser
}

// Subcommand returns the first positional argument (subcommand).
// Returns empty string if no positional arguments.
func (p *ArgParser) Subcommand() string {
	return p.subcommand
}

// Flag returns the last value of a string flag, checking each alias in turn.
// Returns empty string if the flag was not provided.
func (p *ArgParser) Flag(names ...string) string {
	for _, name := range names {
		if values := p.flags[name]; len(values) > 0 {
			return values[len(values)-1]
		}
	}
	return ""
}

// Flags returns every value given for a repeatable flag, across aliases, in
// command-line order per alias.
func (p *ArgParser) Flags(names ...string) []string {
	var out []string
	for _, name := range names {
		out = append(out, p.flags[name]...)
	}
	return out
}

// FlagInt returns a flag value parsed as an integer.
// Returns 0 and nil error if flag not provided.
func (p *ArgParser) FlagInt(name string) (int, error) {
	value := p.Flag(name)
	if value == "" {
		return 0, nil
	}
	return ParseIntWithValidation(value, name)
}

// BoolFlag returns true if any of the boolean flags was provided.
func (p *ArgParser) BoolFlag(names ...string) bool {
	for _, name := range names {
		if p.boolFlags[name] {
			return true
		}
	}
	return false
}

// Positional returns the positional argument at the given index.
// Returns empty string if index is out of bounds.
func (p *ArgParser) Positional(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return p.positional[index]
}

// HasFlag returns true if the flag was provided (string or boolean).
func (p *ArgParser) HasFlag(name string) bool {
	_, hasString := p.flags[name]
	return hasString || p.boolFlags[name]
}

// Unknown returns the flags that are not in known.
func (p *ArgParser) Unknown(known ...string) []string {
	ok := make(map[string]bool, len(known))
	for _, k := range known {
		ok[k] = true
	}
	var out []string
	for name := range p.flags {
		if !ok[name] {
			out = append(out, name)
		}
	}
	for name := range p.boolFlags {
		if !ok[name] {
			out = append(out, name)
		}
	}
	return out
}

// Raw returns the original raw arguments.
func (p *ArgParser) Raw() []string {
	return p.raw
}

// =============================================================================
// VALUE HELPERS
// =============================================================================

// ParseIntWithValidation parses an integer and returns a usage error naming
// the field when it is not one.
func ParseIntWithValidation(s string, fieldName string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, NewUsageError("--"+fieldName, s, "must be a whole number")
	}
	return n, nil
}

// ParseBoolString parses common boolean spellings.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "on":
		return true, nil
	case "false", "no", "n", "0", "off":
		return false, nil
	}
	return false, NewUsageError("value", s, "expected true or false")
}
