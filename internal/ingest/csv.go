package ingest

import (
	"encoding/csv"
	"errors"
	"io"

	appErrors "distribution-service/internal/errors"
)

type csvReader struct {
	r       *csv.Reader
	headers []string
}

func newCSVReader(r io.Reader) (RowReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, appErrors.NewParseError(string(FormatCSV), "file is empty", nil)
	}
	if err != nil {
		return nil, appErrors.NewParseError(string(FormatCSV), "invalid header row", err)
	}

	headers, err := normalizeHeaders(FormatCSV, header)
	if err != nil {
		return nil, err
	}
	return &csvReader{r: cr, headers: headers}, nil
}

func (c *csvReader) Next() (Row, error) {
	record, err := c.r.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, appErrors.NewParseError(string(FormatCSV), "malformed row", err)
	}
	return rowFromCells(c.headers, record), nil
}
