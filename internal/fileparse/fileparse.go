// Package fileparse reads CSV and spreadsheet exports into sheets of
// header-keyed rows. Panel exports frequently put banner or summary rows
// above the real header, so spreadsheet sheets are scanned for a header
// candidate instead of trusting row 1.
package fileparse

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"PanelLedger/api/constants"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrFileFormat        = errors.New("unreadable or corrupt file")
)

// Row maps a header name to the raw cell text of one data row.
type Row map[string]string

// Sheet is one worksheet (or the single implicit "CSV" sheet) in source order.
type Sheet struct {
	Name string
	Rows []Row
}

// headerScanWindow caps how many leading rows are inspected for a header
// candidate before falling back to row 1.
const headerScanWindow = 10

// ParseFile reads the file at path according to the declared extension and
// returns its sheets in source order. The extension is validated before any
// parsing is attempted.
func ParseFile(path, ext string) ([]Sheet, error) {
	switch normalizeExt(ext) {
	case constants.ExtCSV:
		rows, err := parseCSV(path)
		if err != nil {
			return nil, err
		}
		return []Sheet{{Name: "CSV", Rows: rows}}, nil
	case constants.ExtXLSX:
		return parseXLSX(path)
	case constants.ExtXLS:
		return parseXLS(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// parseCSV reads the single implicit sheet of a comma-separated export.
// The first row is the header; malformed lines are logged and skipped
// rather than aborting the file.
func parseCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileFormat, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		// Best effort: a hard parse failure on ReadAll still aborts, but
		// quoting oddities are already absorbed by LazyQuotes above.
		log.Printf("[WARN] csv parse warnings for %s: %v", path, err)
		if len(records) == 0 {
			return nil, fmt.Errorf("%w: %v", ErrFileFormat, err)
		}
	}
	if len(records) == 0 {
		return nil, nil
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = headerName(h, i)
	}
	return rowsFromRaw(headers, records[1:]), nil
}

func parseXLSX(path string) ([]Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileFormat, err)
	}
	defer f.Close()

	sheets := make([]Sheet, 0, len(f.GetSheetList()))
	for _, name := range f.GetSheetList() {
		raw, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %s: %v", ErrFileFormat, name, err)
		}
		sheets = append(sheets, sheetFromRaw(name, raw))
	}
	return sheets, nil
}

func parseXLS(path string) ([]Sheet, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileFormat, err)
	}

	var sheets []Sheet
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}
		raw := make([][]string, 0, int(sheet.MaxRow)+1)
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				raw = append(raw, nil)
				continue
			}
			cells := make([]string, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				cells[c] = row.Col(c)
			}
			raw = append(raw, cells)
		}
		sheets = append(sheets, sheetFromRaw(sheet.Name, raw))
	}
	return sheets, nil
}

// sheetFromRaw applies the header scan to the raw cell grid of one sheet.
func sheetFromRaw(name string, raw [][]string) Sheet {
	headerIdx, headers := findHeaderRow(raw)
	if headerIdx < 0 {
		// Fallback: row 1 is the header.
		if len(raw) == 0 {
			return Sheet{Name: name}
		}
		headerIdx = 0
		headers = make([]string, len(raw[0]))
		for i, h := range raw[0] {
			headers[i] = headerName(h, i)
		}
	}
	return Sheet{Name: name, Rows: rowsFromRaw(headers, raw[headerIdx+1:])}
}

// findHeaderRow scans the first headerScanWindow rows for a row with at
// least 3 non-empty cells where at least one cell matches a known header
// keyword case-insensitively. Returns -1 when no candidate is found.
func findHeaderRow(raw [][]string) (int, []string) {
	limit := len(raw)
	if limit > headerScanWindow {
		limit = headerScanWindow
	}
	for i := 0; i < limit; i++ {
		row := raw[i]
		nonEmpty := 0
		hasKeyword := false
		for _, cell := range row {
			v := normalizeCell(cell)
			if v == "" {
				continue
			}
			nonEmpty++
			upper := strings.ToUpper(v)
			for _, kw := range constants.HeaderKeywords {
				if upper == kw {
					hasKeyword = true
					break
				}
			}
		}
		if nonEmpty >= 3 && hasKeyword {
			headers := make([]string, len(row))
			for j, cell := range row {
				headers[j] = headerName(cell, j)
			}
			return i, headers
		}
	}
	return -1, nil
}

// rowsFromRaw zips data rows against the headers, dropping rows that are
// entirely empty after trimming. Cells past the header width are ignored;
// missing trailing cells are simply absent from the row map.
func rowsFromRaw(headers []string, data [][]string) []Row {
	rows := make([]Row, 0, len(data))
	for _, rec := range data {
		if allEmptyRow(rec) {
			continue
		}
		row := make(Row, len(headers))
		for j, h := range headers {
			if j >= len(rec) {
				break
			}
			if v := normalizeCell(rec[j]); v != "" {
				row[h] = v
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}

// headerName trims a header cell, substituting a positional placeholder for
// unnamed columns.
func headerName(cell string, idx int) string {
	if v := normalizeCell(cell); v != "" {
		return v
	}
	return fmt.Sprintf("Column_%d", idx)
}

// normalizeCell trims, removes non-breaking spaces and collapses whitespace.
func normalizeCell(s string) string {
	s = strings.ReplaceAll(s, constants.NBSP, " ")
	return strings.Join(strings.Fields(s), " ")
}

// allEmptyRow returns true when every cell in the row is empty or whitespace.
func allEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
