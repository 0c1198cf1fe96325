package ingest

import (
	"io"

	appErrors "distribution-service/internal/errors"

	"github.com/extrame/xls"
)

// newXLSReader reads the first worksheet of a legacy BIFF workbook. Shared
// strings are decoded by extrame/xls; numeric, boolean, error and formula
// cells are taken from their records and rendered like XLSX cells.
func newXLSReader(r io.ReadSeeker) (reader RowReader, err error) {
	// the compound file and BIFF decoders index slices straight from file data
	defer func() {
		if p := recover(); p != nil {
			reader = nil
			err = appErrors.NewParseError(string(FormatXLS), "invalid workbook", errCorruptWorkbook)
		}
	}()

	stream, err := readWorkbookStream(r)
	if err != nil {
		return nil, appErrors.NewParseError(string(FormatXLS), "invalid workbook", err)
	}
	globals, err := scanGlobals(stream)
	if err != nil {
		return nil, appErrors.NewParseError(string(FormatXLS), "invalid workbook", err)
	}
	scan, err := scanSheet(stream, globals)
	if err != nil {
		return nil, appErrors.NewParseError(string(FormatXLS), "first worksheet is unreadable", err)
	}

	var sheet *xls.WorkSheet
	if len(scan.sst) > 0 {
		if sheet, err = openFirstSheet(r); err != nil {
			return nil, err
		}
	}

	table := make([][]string, scan.maxRow+1)
	for rowIdx, width := range scan.widths {
		cells := make([]string, width)
		var row *xls.Row
		for c := range cells {
			pos := cellPos{row: rowIdx, col: c}
			if v, ok := scan.values[pos]; ok {
				cells[c] = v
				continue
			}
			if !scan.sst[pos] {
				continue
			}
			if row == nil {
				row = sheet.Row(rowIdx)
			}
			cells[c] = row.Col(c)
		}
		table[rowIdx] = cells
	}

	return newSliceReader(FormatXLS, table)
}

func openFirstSheet(r io.ReadSeeker) (*xls.WorkSheet, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, appErrors.NewParseError(string(FormatXLS), "invalid workbook", err)
	}
	wb, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, appErrors.NewParseError(string(FormatXLS), "invalid workbook", err)
	}
	if wb == nil {
		return nil, appErrors.NewParseError(string(FormatXLS), "invalid workbook", errNoWorkbookStream)
	}
	if wb.NumSheets() == 0 {
		return nil, appErrors.NewParseError(string(FormatXLS), "workbook has no sheets", nil)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, appErrors.NewParseError(string(FormatXLS), "first worksheet is unreadable", nil)
	}
	return sheet, nil
}
