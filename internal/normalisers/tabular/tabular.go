// Package tabular reads CSV-family documents as a header plus records.
//
// Spreadsheets are read from their first worksheet; everything else is
// parsed as CSV. Parsing is best effort: a malformed line is skipped
// rather than failing the whole file.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
	"github.com/custodia-labs/ragsync/internal/logger"
	"github.com/custodia-labs/ragsync/internal/normalisers/plaintext"
	"github.com/custodia-labs/ragsync/internal/normalisers/xlsx"
)

// ReadTable returns all rows of a tabular document.
func ReadTable(content []byte) ([][]string, error) {
	if xlsx.IsZip(content) {
		return xlsx.ReadRows(content)
	}
	return readCSV(content), nil
}

func readCSV(content []byte) [][]string {
	text := strings.TrimPrefix(plaintext.Decode(content), "\ufeff")

	r := csv.NewReader(strings.NewReader(text))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.ReuseRecord = false

	var rows [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				logger.Debug("skipping malformed csv line %d: %v", perr.Line, perr.Err)
				continue
			}
			break
		}
		rows = append(rows, record)
	}
	return rows
}

// Schema returns the header row.
func Schema(content []byte) ([]string, error) {
	rows, err := ReadTable(content)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	if len(rows) == 0 {
		return []string{}, nil
	}
	return rows[0], nil
}

// Rows returns one record per data row keyed by the header. Short rows are
// padded with empty strings and extra cells are kept as column_N, where N
// is the 1-based cell position.
func Rows(content []byte) ([]map[string]any, error) {
	rows, err := ReadTable(content)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	if len(rows) < 2 {
		return []map[string]any{}, nil
	}

	header := rows[0]
	records := make([]map[string]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rec := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		for i := len(header); i < len(row); i++ {
			rec[fmt.Sprintf("column_%d", i+1)] = row[i]
		}
		records = append(records, rec)
	}
	return records, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Ensure Reader implements the interface.
var _ driven.TableReader = Reader{}

// Reader adapts Schema and Rows to the driven port.
type Reader struct{}

// Schema implements driven.TableReader.
func (Reader) Schema(content []byte) ([]string, error) { return Schema(content) }

// Rows implements driven.TableReader.
func (Reader) Rows(content []byte) ([]map[string]any, error) { return Rows(content) }
