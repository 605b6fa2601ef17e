// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package csvfmt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ENCODER TESTS
// =============================================================================

func newTestFormatter(t *testing.T, enc Encoding, header ...string) *RowFormatter {
	t.Helper()
	opts := DefaultOptions()
	opts.Encoding = enc
	opts.LineEnding = LineEndingUnix
	opts.Quoting = QuoteNone
	rf, err := NewRowFormatter(opts, header)
	require.NoError(t, err)
	return rf
}

func TestEncoder_UTF8PassThrough(t *testing.T) {
	rf := newTestFormatter(t, UTF8, "a", "b")
	enc, err := NewEncoder(UTF8)
	require.NoError(t, err)

	assert.Nil(t, enc.Prefix())
	out, err := enc.Record(1, []string{"café", "😊"}, rf)
	require.NoError(t, err)
	assert.Equal(t, []byte("café,😊\n"), out)
}

func TestEncoder_BOMPrefix(t *testing.T) {
	enc, err := NewEncoder(UTF8BOM)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, enc.Prefix())
}

func TestEncoder_Latin1(t *testing.T) {
	rf := newTestFormatter(t, ISO8859_1, "name")
	enc, err := NewEncoder(ISO8859_1)
	require.NoError(t, err)

	out, err := enc.Record(1, []string{"café"}, rf)
	require.NoError(t, err)
	assert.Equal(t, []byte{'c', 'a', 'f', 0xE9, '\n'}, out)
}

func TestEncoder_Windows1252EuroSign(t *testing.T) {
	rf := newTestFormatter(t, Windows1252, "price")
	enc, err := NewEncoder(Windows1252)
	require.NoError(t, err)

	out, err := enc.Record(3, []string{"€5"}, rf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x80, '5', '\n'}, out)

	// The euro sign is not part of ISO-8859-1.
	latin, err := NewEncoder(ISO8859_1)
	require.NoError(t, err)
	_, err = latin.Record(3, []string{"€5"}, rf)
	require.Error(t, err)
}

func TestEncoder_ReportsRowColumnAndCharacter(t *testing.T) {
	rf := newTestFormatter(t, ISO8859_1, "id", "comment")
	enc, err := NewEncoder(ISO8859_1)
	require.NoError(t, err)

	_, err = enc.Record(7, []string{"1", "café 😊"}, rf)
	require.Error(t, err)

	var encErr *EncodingError
	require.True(t, errors.As(err, &encErr))
	assert.Equal(t, 7, encErr.Row)
	assert.Equal(t, 1, encErr.Column)
	assert.Equal(t, "comment", encErr.ColumnName)
	assert.Equal(t, '😊', encErr.Char)
	assert.Equal(t, ErrorKindEncoding, KindOf(err))
	assert.Contains(t, err.Error(), "row 7")
	assert.Contains(t, err.Error(), "comment")
}

func TestEncoder_HeaderProblemsAreRowZero(t *testing.T) {
	rf := newTestFormatter(t, ISO8859_1, "名前")
	enc, err := NewEncoder(ISO8859_1)
	require.NoError(t, err)

	_, err = enc.Record(0, rf.HeaderFields(), rf)
	var encErr *EncodingError
	require.True(t, errors.As(err, &encErr))
	assert.Equal(t, 0, encErr.Row)
	assert.Contains(t, err.Error(), "header")
}
