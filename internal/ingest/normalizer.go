package ingest

import (
	"errors"
	"io"
	"strings"
)

// Record is the canonical contact shape produced from one row
type Record struct {
	FirstName string `json:"firstName"`
	Phone     string `json:"phone"`
	Notes     string `json:"notes"`
}

// Normalize trims the known columns of row. It reports false when the
// trimmed FirstName or Phone is empty, meaning the row must be dropped.
func Normalize(row Row) (Record, bool) {
	rec := Record{
		FirstName: strings.TrimSpace(row[ColumnFirstName]),
		Phone:     strings.TrimSpace(row[ColumnPhone]),
		Notes:     strings.TrimSpace(row[ColumnNotes]),
	}
	if rec.FirstName == "" || rec.Phone == "" {
		return Record{}, false
	}
	return rec, true
}

// NormalizeAll drains rr, keeping valid records in order and counting the
// rows that were dropped. Any reader error aborts the whole read.
func NormalizeAll(rr RowReader) (records []Record, dropped int, err error) {
	for {
		row, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return records, dropped, nil
		}
		if err != nil {
			return nil, 0, err
		}

		rec, ok := Normalize(row)
		if !ok {
			dropped++
			continue
		}
		records = append(records, rec)
	}
}
