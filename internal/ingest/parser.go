// Package ingest turns uploaded tabular files into normalized contact records.
package ingest

import (
	"io"
	"path/filepath"
	"strings"

	appErrors "distribution-service/internal/errors"
)

// Column headers every upload must carry. Notes is optional.
const (
	ColumnFirstName = "FirstName"
	ColumnPhone     = "Phone"
	ColumnNotes     = "Notes"
)

// Format identifies a supported upload format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// Row maps a header name to the cell value in one data row. Cells that are
// missing from a short row are absent from the map.
type Row map[string]string

// RowReader yields rows in file order. Next returns io.EOF after the last row.
type RowReader interface {
	Next() (Row, error)
}

// FormatFromFilename maps a file extension to a Format, case-insensitively
func FormatFromFilename(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, true
	case ".xlsx":
		return FormatXLSX, true
	case ".xls":
		return FormatXLS, true
	}
	return "", false
}

// NewReader opens r as the given format and validates its header row.
// Spreadsheets are read fully into memory; CSV is read row by row.
func NewReader(r io.ReadSeeker, format Format) (RowReader, error) {
	switch format {
	case FormatCSV:
		return newCSVReader(r)
	case FormatXLSX:
		return newXLSXReader(r)
	case FormatXLS:
		return newXLSReader(r)
	}
	return nil, appErrors.NewParseError(string(format), "unsupported file type, only CSV, XLSX and XLS files are allowed", nil)
}

// normalizeHeaders trims header cells and checks the required columns exist
func normalizeHeaders(format Format, raw []string) ([]string, error) {
	headers := make([]string, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, h := range raw {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		headers[i] = strings.TrimSpace(h)
		seen[headers[i]] = true
	}

	if !seen[ColumnFirstName] || !seen[ColumnPhone] {
		return nil, appErrors.NewParseError(string(format), "file must contain FirstName and Phone columns", nil)
	}
	return headers, nil
}

// rowFromCells zips headers with cells; blank header names are skipped
func rowFromCells(headers, cells []string) Row {
	row := make(Row, len(headers))
	for i, h := range headers {
		if h == "" || i >= len(cells) {
			continue
		}
		row[h] = cells[i]
	}
	return row
}

// sliceReader serves rows that were already materialized
type sliceReader struct {
	headers []string
	rows    [][]string
	pos     int
}

func (s *sliceReader) Next() (Row, error) {
	for s.pos < len(s.rows) {
		cells := s.rows[s.pos]
		s.pos++
		if blank(cells) {
			continue
		}
		return rowFromCells(s.headers, cells), nil
	}
	return nil, io.EOF
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// newSliceReader uses the first non-blank row of a materialized sheet as the header
func newSliceReader(format Format, table [][]string) (RowReader, error) {
	for len(table) > 0 && blank(table[0]) {
		table = table[1:]
	}
	if len(table) == 0 {
		return nil, appErrors.NewParseError(string(format), "first worksheet is empty", nil)
	}
	headers, err := normalizeHeaders(format, table[0])
	if err != nil {
		return nil, err
	}
	return &sliceReader{headers: headers, rows: table[1:]}, nil
}
