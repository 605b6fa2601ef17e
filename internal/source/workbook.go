// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package source

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jeranaias/sheetcsv-tui/internal/csvfmt"
)

// oleSignature starts every OLE compound file. Encrypted xlsx packages are
// wrapped in one.
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// encryptionInfo is the UTF-16LE name of the stream an encrypted package
// carries.
var encryptionInfo = []byte("E\x00n\x00c\x00r\x00y\x00p\x00t\x00i\x00o\x00n\x00I\x00n\x00f\x00o\x00")

// Options configures how a workbook is opened.
type Options struct {
	// Password decrypts a protected workbook.
	Password string
}

// =============================================================================
// WORKBOOK
// =============================================================================

// Workbook is an open xlsx file.
type Workbook struct {
	mu       sync.Mutex
	path     string
	f        *excelize.File
	date1904 bool
	formats  map[int]cellFormat
}

// Open reads the workbook at path. Failures are *csvfmt.SourceReadError
// with Reason Unreadable or Protected.
func Open(path string, opts Options) (*Workbook, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &csvfmt.SourceReadError{Path: path, Reason: csvfmt.SourceUnreadable, Err: err}
	}

	f, err := excelize.OpenFile(path, excelize.Options{Password: opts.Password})
	if err != nil {
		reason := csvfmt.SourceUnreadable
		if errors.Is(err, excelize.ErrWorkbookPassword) || isEncryptedPackage(path) {
			reason = csvfmt.SourceProtected
		}
		return nil, &csvfmt.SourceReadError{Path: path, Reason: reason, Err: err}
	}

	wb := &Workbook{
		path:    path,
		f:       f,
		formats: make(map[int]cellFormat),
	}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		wb.date1904 = *props.Date1904
	}
	return wb, nil
}

func isEncryptedPackage(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil || !bytes.HasPrefix(data, oleSignature) {
		return false
	}
	return bytes.Contains(data, encryptionInfo)
}

// Path returns the file the workbook was opened from.
func (w *Workbook) Path() string {
	return w.path
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

// Sheets returns worksheet names in workbook order.
func (w *Workbook) Sheets() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.GetSheetList()
}

// HasSheet reports whether name is a worksheet of this workbook.
func (w *Workbook) HasSheet(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	idx, err := w.f.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// ReadSheet reads the named worksheet. The first row becomes the header.
// limit caps the number of data rows read; 0 reads all of them.
func (w *Workbook) ReadSheet(name string, limit int) (*csvfmt.Sheet, error) {
	if !w.HasSheet(name) {
		return nil, &csvfmt.SourceReadError{Path: w.path, Sheet: name, Reason: csvfmt.SourceMissingSheet}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	rows, err := w.f.Rows(name)
	if err != nil {
		return nil, w.readError(name, err)
	}
	defer rows.Close()

	sheet := &csvfmt.Sheet{Name: name}
	rowNum := 0
	haveHeader := false
	for rows.Next() {
		rowNum++
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, w.readError(name, err)
		}

		values := make(csvfmt.Row, len(cols))
		for i, raw := range cols {
			values[i], err = w.cellValue(name, i+1, rowNum, raw)
			if err != nil {
				return nil, w.readError(name, err)
			}
		}

		if !haveHeader {
			sheet.Header = headerNames(values)
			haveHeader = true
			continue
		}

		sheet.Rows = append(sheet.Rows, values)
		if limit > 0 && len(sheet.Rows) >= limit {
			break
		}
	}
	if err := rows.Error(); err != nil {
		return nil, w.readError(name, err)
	}

	sheet.Rows = trimTrailingBlank(sheet.Rows)
	width := len(sheet.Header)
	for _, row := range sheet.Rows {
		width = max(width, len(row))
	}
	for i := len(sheet.Header); i < width; i++ {
		sheet.Header = append(sheet.Header, fmt.Sprintf("Unnamed: %d", i))
	}
	for i, row := range sheet.Rows {
		if len(row) < width {
			padded := make(csvfmt.Row, width)
			copy(padded, row)
			sheet.Rows[i] = padded
		}
	}
	return sheet, nil
}

// CountRows returns how many data rows ReadSheet(name, 0) would return
// without typing any cell. Previews use it to report the sheet size.
func (w *Workbook) CountRows(name string) (int, error) {
	if !w.HasSheet(name) {
		return 0, &csvfmt.SourceReadError{Path: w.path, Sheet: name, Reason: csvfmt.SourceMissingSheet}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	rows, err := w.f.Rows(name)
	if err != nil {
		return 0, w.readError(name, err)
	}
	defer rows.Close()

	n, last := 0, 0
	for rows.Next() {
		n++
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return 0, w.readError(name, err)
		}
		for _, raw := range cols {
			if raw != "" {
				last = n
				break
			}
		}
	}
	if err := rows.Error(); err != nil {
		return 0, w.readError(name, err)
	}
	// The first row is the header.
	return max(last-1, 0), nil
}

func (w *Workbook) readError(sheet string, err error) error {
	return &csvfmt.SourceReadError{Path: w.path, Sheet: sheet, Reason: csvfmt.SourceUnreadable, Err: err}
}

// =============================================================================
// CELL TYPING
// =============================================================================

// cellValue turns the raw text of one cell into the value the classifier
// expects.
func (w *Workbook) cellValue(sheet string, col, row int, raw string) (any, error) {
	if raw == "" {
		return nil, nil
	}

	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, err
	}
	typ, err := w.f.GetCellType(sheet, cell)
	if err != nil {
		return nil, err
	}

	switch typ {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true"), nil
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeFormula, excelize.CellTypeError:
		return raw, nil
	case excelize.CellTypeDate:
		if t, zoned, ok := parseISODate(raw); ok {
			return csvfmt.Timestamp{Time: t, TimeTyped: strings.Contains(raw, "T"), Zoned: zoned}, nil
		}
		return raw, nil
	}

	// Unset and Number cells hold numbers, possibly a formula's cached result.
	num, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw, nil
	}

	format, err := w.cellFormat(sheet, cell)
	if err != nil {
		return nil, err
	}
	switch format.class {
	case classDate:
		t, err := excelize.ExcelDateToTime(num, w.date1904)
		if err != nil {
			return num, nil
		}
		// Serial days carry float noise; Excel itself stores milliseconds.
		t = t.Round(time.Millisecond)
		return csvfmt.Timestamp{Time: t, TimeTyped: format.timeTyped}, nil
	case classTime:
		return timeOfDay(num), nil
	}

	if !strings.ContainsAny(raw, ".eE") {
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return i, nil
		}
	}
	return num, nil
}

// cellFormat resolves and caches the number format of a cell's style.
func (w *Workbook) cellFormat(sheet, cell string) (cellFormat, error) {
	styleID, err := w.f.GetCellStyle(sheet, cell)
	if err != nil {
		return cellFormat{}, err
	}
	if f, ok := w.formats[styleID]; ok {
		return f, nil
	}

	style, err := w.f.GetStyle(styleID)
	if err != nil {
		return cellFormat{}, err
	}
	custom := ""
	if style.CustomNumFmt != nil {
		custom = *style.CustomNumFmt
	}
	f := classifyFormat(style.NumFmt, custom)
	w.formats[styleID] = f
	return f, nil
}

// timeOfDay renders the fractional day of serial as HH:MM:SS.
func timeOfDay(serial float64) string {
	_, frac := math.Modf(math.Abs(serial))
	secs := int(math.Round(frac * 86400))
	if secs >= 86400 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}

// isoLayouts are tried in order for t="d" cells. zoned marks layouts that
// carry a UTC offset.
var isoLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02", false},
}

func parseISODate(raw string) (t time.Time, zoned, ok bool) {
	for _, l := range isoLayouts {
		if parsed, err := time.Parse(l.layout, raw); err == nil {
			return parsed, l.zoned, true
		}
	}
	return time.Time{}, false, false
}

// =============================================================================
// HEADER AND ROW SHAPING
// =============================================================================

// headerNames renders the first row as column names. Blank names become
// "Unnamed: N" and repeated names get a ".1", ".2" suffix.
func headerNames(values csvfmt.Row) []string {
	names := make([]string, len(values))
	seen := make(map[string]int, len(values))
	for i, v := range values {
		name := strings.TrimSpace(csvfmt.FormatCell(csvfmt.Classify(v), 0))
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n)
		} else {
			seen[name] = 1
		}
		names[i] = name
	}
	return names
}

func trimTrailingBlank(rows []csvfmt.Row) []csvfmt.Row {
	for len(rows) > 0 && blank(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	return rows
}

func blank(row csvfmt.Row) bool {
	for _, v := range row {
		if v != nil {
			return false
		}
	}
	return true
}
