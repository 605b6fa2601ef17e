// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package csvfmt

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// BOM is the UTF-8 byte-order mark written once before the header.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// charmap returns the single-byte code page for legacy encodings, or nil for
// the Unicode ones.
func (e Encoding) charmap() (*charmap.Charmap, error) {
	switch e {
	case UTF8, UTF8BOM:
		return nil, nil
	case ISO8859_1:
		return charmap.ISO8859_1, nil
	case Windows1252:
		return charmap.Windows1252, nil
	}
	return nil, &ConfigurationError{Field: "encoding", Value: e.String(), Reason: "unsupported encoding"}
}

// =============================================================================
// ENCODER
// =============================================================================

// Encoder is the only stage aware of bytes. It is not safe for concurrent use;
// each run owns one.
type Encoder struct {
	encoding Encoding
	cm       *charmap.Charmap
	enc      *encoding.Encoder
}

// NewEncoder returns an encoder for the target encoding.
func NewEncoder(e Encoding) (*Encoder, error) {
	cm, err := e.charmap()
	if err != nil {
		return nil, err
	}
	enc := &Encoder{encoding: e, cm: cm}
	if cm != nil {
		enc.enc = cm.NewEncoder()
	}
	return enc, nil
}

// Prefix returns the bytes that open the output, the BOM for UTF8BOM and
// nothing otherwise.
func (e *Encoder) Prefix() []byte {
	if e.encoding == UTF8BOM {
		return BOM
	}
	return nil
}

// Check reports the first character of fields the target encoding cannot
// represent. row is 0 for the header.
func (e *Encoder) Check(row int, fields []string, f *RowFormatter) error {
	if e.cm == nil {
		return nil
	}
	for col, field := range fields {
		for _, r := range field {
			if _, ok := e.cm.EncodeRune(r); !ok {
				return &EncodingError{
					Row:        row,
					Column:     col,
					ColumnName: f.ColumnName(col),
					Char:       r,
					Encoding:   e.encoding,
				}
			}
		}
	}
	return nil
}

// Record checks, joins, terminates and transcodes one record.
func (e *Encoder) Record(row int, fields []string, f *RowFormatter) ([]byte, error) {
	if err := e.Check(row, fields, f); err != nil {
		return nil, err
	}
	line := f.Join(fields) + f.Terminator()
	if e.enc == nil {
		return []byte(line), nil
	}
	out, err := e.enc.String(line)
	if err != nil {
		// Check has already vetted every field, so only invalid UTF-8 in
		// the source text can land here.
		return nil, &EncodingError{Row: row, Column: -1, Char: '�', Encoding: e.encoding}
	}
	return []byte(out), nil
}
