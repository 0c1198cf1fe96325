package ingest

import (
	"io"
	"strconv"
	"strings"
	"time"

	appErrors "distribution-service/internal/errors"

	"github.com/xuri/excelize/v2"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

func newXLSXReader(r io.Reader) (RowReader, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, appErrors.NewParseError(string(FormatXLSX), "invalid workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, appErrors.NewParseError(string(FormatXLSX), "workbook has no sheets", nil)
	}

	table, err := readSheet(f, sheets[0])
	if err != nil {
		return nil, appErrors.NewParseError(string(FormatXLSX), "unreadable worksheet", err)
	}
	return newSliceReader(FormatXLSX, table)
}

// readSheet materializes a worksheet, converting every cell with cellText
func readSheet(f *excelize.File, sheet string) ([][]string, error) {
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	conv := &cellConverter{f: f, sheet: sheet, date1904: date1904, dateStyles: map[int]bool{}}

	table := make([][]string, len(raw))
	for r, cells := range raw {
		row := make([]string, len(cells))
		for c, value := range cells {
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			row[c] = conv.cellText(cell, value)
		}
		table[r] = row
	}
	return table, nil
}

type cellConverter struct {
	f          *excelize.File
	sheet      string
	date1904   bool
	dateStyles map[int]bool
}

// cellText renders one raw cell value as a string:
//
//	text, inline string, formula string -> as stored
//	number                              -> shortest decimal, no exponent
//	number with a date format           -> 2006-01-02 or 2006-01-02 15:04:05
//	boolean                             -> true / false
//	error                               -> empty
func (cc *cellConverter) cellText(cell, raw string) string {
	typ, err := cc.f.GetCellType(cc.sheet, cell)
	if err != nil {
		return raw
	}

	switch typ {
	case excelize.CellTypeBool:
		if raw == "1" || strings.EqualFold(raw, "true") {
			return "true"
		}
		return "false"
	case excelize.CellTypeError:
		return ""
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return raw
	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return formatDate(t)
		}
		return raw
	}

	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	return numberText(n, cc.isDateCell(cell), cc.date1904)
}

// numberText renders a numeric cell. Numbers carrying a date format become
// dates; everything else is the shortest decimal without an exponent.
func numberText(n float64, isDate, date1904 bool) string {
	if isDate {
		if t, err := excelize.ExcelDateToTime(n, date1904); err == nil {
			return formatDate(t)
		}
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func (cc *cellConverter) isDateCell(cell string) bool {
	styleID, err := cc.f.GetCellStyle(cc.sheet, cell)
	if err != nil || styleID == 0 {
		return false
	}
	if isDate, ok := cc.dateStyles[styleID]; ok {
		return isDate
	}

	isDate := false
	if style, err := cc.f.GetStyle(styleID); err == nil {
		if style.CustomNumFmt != nil {
			isDate = isDateFormatCode(*style.CustomNumFmt)
		} else {
			isDate = isBuiltInDateFormat(style.NumFmt)
		}
	}
	cc.dateStyles[styleID] = isDate
	return isDate
}

func formatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format(dateLayout)
	}
	return t.Format(dateTimeLayout)
}

// isBuiltInDateFormat covers the ECMA-376 built-in date and time formats
// plus the CJK locale ranges excelize recognizes.
func isBuiltInDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22:
		return true
	case id >= 27 && id <= 36:
		return true
	case id >= 45 && id <= 47:
		return true
	case id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom number format renders a date or
// time. Quoted literals, escaped characters and bracketed sections such as
// colors are ignored.
func isDateFormatCode(code string) bool {
	// only the first section applies to positive numbers
	if i := strings.IndexByte(code, ';'); i >= 0 {
		code = code[:i]
	}

	inQuote, inBracket, escaped := false, false, false
	for _, ch := range strings.ToLower(code) {
		switch {
		case escaped:
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == '"':
			inQuote = !inQuote
		case inQuote:
		case ch == '[':
			inBracket = true
		case ch == ']':
			inBracket = false
		case inBracket:
		case ch == 'y', ch == 'm', ch == 'd', ch == 'h', ch == 's':
			return true
		}
	}
	return false
}
