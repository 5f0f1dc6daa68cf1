package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"rsvp-checkin/internal/apperr"
)

var delimiters = []rune{',', ';', '\t'}

// ParseCSV reads a spreadsheet export whose first line is the header.
// A UTF-8 BOM is dropped, the delimiter is guessed from the header line and
// short rows simply miss their trailing columns.
func ParseCSV(r io.Reader) ([]Row, error) {
	const op = "parse csv"

	data, err := io.ReadAll(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	if err != nil {
		return nil, apperr.Validation(op, fmt.Sprintf("unreadable file: %v", err))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []Row{}, nil
	}
	if err != nil {
		return nil, apperr.Validation(op, fmt.Sprintf("invalid CSV: %v", err))
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	rows := make([]Row, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperr.Validation(op, fmt.Sprintf("invalid CSV: %v", err))
		}

		row := make(Row, 0, len(header))
		for i, value := range record {
			if i >= len(header) {
				break
			}
			row = append(row, Cell{Column: header[i], Value: strings.TrimSpace(value)})
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// sniffDelimiter picks the delimiter occurring most often on the first line
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		line = data[:i]
	}

	best, bestCount := delimiters[0], 0
	for _, d := range delimiters {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
