// Package ingest parses uploaded and remote launch datasets into records.
package ingest

import (
	"encoding/csv"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/target/launchlens/internal/domain/model"
	apperrors "github.com/target/launchlens/internal/errors"
)

// Dataset is a parsed document: its column names and rows.
type Dataset struct {
	Headers []string
	Records []model.Record
}

// ParseCSV reads a CSV document with a header row. Header names are trimmed,
// blank cells are omitted and numeric cells become float64 so records match
// what a JSON upload would produce.
func ParseCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.Validation("csv document is empty")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "read csv header")
	}
	headers := trimHeaders(header)

	var records []model.Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.Wrapf(err, apperrors.ErrCodeValidation, "read csv line %d", line)
		}
		rec := make(model.Record, len(headers))
		for i, h := range headers {
			if h == "" || i >= len(row) {
				continue
			}
			if v, ok := coerceCell(row[i]); ok {
				rec[h] = v
			}
		}
		records = append(records, rec)
	}
	return &Dataset{Headers: headers, Records: records}, nil
}

func trimHeaders(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		out[i] = strings.TrimSpace(strings.ReplaceAll(h, `"`, ""))
	}
	return out
}

var numericCell = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?$`)

// coerceCell returns the typed value of a cell and false for blank cells.
func coerceCell(cell string) (any, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, false
	}
	if numericCell.MatchString(cell) {
		if f, err := strconv.ParseFloat(cell, 64); err == nil {
			return f, true
		}
	}
	return cell, true
}

// HasCSVExtension reports whether name ends in .csv, ignoring case.
func HasCSVExtension(name string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(name)), ".csv")
}
