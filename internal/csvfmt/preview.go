// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package csvfmt

import "strings"

// PreviewRowLimit caps the data rows a preview formats.
const PreviewRowLimit = 20

// PreviewResult is the formatted head of a sheet.
type PreviewResult struct {
	// Header and Lines are records without terminators, exactly as an
	// export writes them.
	Header string
	Lines  []string

	// HeaderFields and Fields hold the same records split per column, for
	// grid rendering.
	HeaderFields []string
	Fields       [][]string

	// Kinds classifies each previewed cell, parallel to Fields.
	Kinds [][]Kind

	// TotalRows is the number of data rows in the whole sheet.
	TotalRows int

	// Problem is the first character in the previewed records that the
	// chosen encoding cannot represent. The export would fail on it.
	Problem *EncodingError
}

// Preview formats the header and the first min(PreviewRowLimit, n) data rows
// with the current options, using the same per-row function as Writer.
func Preview(sheet *Sheet, opts Options) (*PreviewResult, error) {
	return PreviewN(sheet, opts, PreviewRowLimit)
}

// PreviewN is Preview with an explicit row limit.
func PreviewN(sheet *Sheet, opts Options, limit int) (*PreviewResult, error) {
	rf, err := NewRowFormatter(opts, sheet.Header)
	if err != nil {
		return nil, err
	}
	enc, err := NewEncoder(opts.Encoding)
	if err != nil {
		return nil, err
	}

	n := len(sheet.Rows)
	if limit >= 0 && n > limit {
		n = limit
	}

	res := &PreviewResult{
		HeaderFields: rf.HeaderFields(),
		Lines:        make([]string, 0, n),
		Fields:       make([][]string, 0, n),
		Kinds:        make([][]Kind, 0, n),
		TotalRows:    len(sheet.Rows),
	}
	res.Header = rf.Join(res.HeaderFields)
	res.noteProblem(enc.Check(0, res.HeaderFields, rf))

	for i, row := range sheet.Rows[:n] {
		fields := rf.Fields(row)
		res.Fields = append(res.Fields, fields)
		res.Kinds = append(res.Kinds, rowKinds(row, len(fields)))
		res.Lines = append(res.Lines, rf.Join(fields))
		res.noteProblem(enc.Check(i+1, fields, rf))
	}
	return res, nil
}

func rowKinds(row Row, width int) []Kind {
	kinds := make([]Kind, width)
	for i := range kinds {
		if i < len(row) {
			kinds[i] = Classify(row[i]).Kind()
		}
	}
	return kinds
}

func (p *PreviewResult) noteProblem(err error) {
	if p.Problem != nil || err == nil {
		return
	}
	if encErr, ok := err.(*EncodingError); ok {
		p.Problem = encErr
	}
}

// Text joins the header and preview lines with newlines for display.
func (p *PreviewResult) Text() string {
	var b strings.Builder
	b.WriteString(p.Header)
	for _, line := range p.Lines {
		b.WriteByte('\n')
		b.WriteString(line)
	}
	return b.String()
}
