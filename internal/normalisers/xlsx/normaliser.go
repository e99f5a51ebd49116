// Package xlsx reads the first worksheet of an OOXML spreadsheet.
package xlsx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser renders a spreadsheet's first worksheet as CSV text.
type Normaliser struct{}

// New creates a new XLSX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{domain.MediaTypeXLSX}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise returns the first worksheet as CSV.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}

	rows, err := ReadRows(raw.Content)
	if err != nil {
		return "", err
	}
	return ToCSV(rows)
}

// IsZip reports whether content starts with a zip local file header.
func IsZip(content []byte) bool {
	return bytes.HasPrefix(content, []byte("PK\x03\x04"))
}

// ReadRows returns the cell values of the first worksheet, row by row.
// Gaps between referenced cells are filled with empty strings.
func ReadRows(content []byte) ([][]string, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", domain.ErrInvalidInput)
	}

	files := make(map[string]*zip.File, len(reader.File))
	var sheets []string
	for _, f := range reader.File {
		files[f.Name] = f
		if strings.HasPrefix(f.Name, "xl/worksheets/sheet") && strings.HasSuffix(f.Name, ".xml") {
			sheets = append(sheets, f.Name)
		}
	}
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no worksheets: %w", domain.ErrInvalidInput)
	}
	sort.Slice(sheets, func(i, j int) bool { return sheetNumber(sheets[i]) < sheetNumber(sheets[j]) })

	var shared []string
	if f, ok := files["xl/sharedStrings.xml"]; ok {
		data, err := readFile(f)
		if err != nil {
			return nil, err
		}
		shared, err = parseSharedStrings(data)
		if err != nil {
			return nil, err
		}
	}

	data, err := readFile(files[sheets[0]])
	if err != nil {
		return nil, err
	}
	return parseSheet(data, shared)
}

// ToCSV renders rows as CSV text.
func ToCSV(rows [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}
	return buf.String(), nil
}

func sheetNumber(name string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "xl/worksheets/sheet"), ".xml"))
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}

func readFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return data, nil
}

type richText struct {
	Text string `xml:"t"`
	Runs []struct {
		Text string `xml:"t"`
	} `xml:"r"`
}

func (r richText) String() string {
	if len(r.Runs) == 0 {
		return r.Text
	}
	var b strings.Builder
	for _, run := range r.Runs {
		b.WriteString(run.Text)
	}
	return b.String()
}

type sharedStringsXML struct {
	Items []richText `xml:"si"`
}

func parseSharedStrings(data []byte) ([]string, error) {
	var sst sharedStringsXML
	if err := xml.Unmarshal(data, &sst); err != nil {
		return nil, fmt.Errorf("parse shared strings: %w", err)
	}
	out := make([]string, len(sst.Items))
	for i, item := range sst.Items {
		out[i] = item.String()
	}
	return out, nil
}

type sheetXML struct {
	Rows []struct {
		Cells []struct {
			Ref    string    `xml:"r,attr"`
			Type   string    `xml:"t,attr"`
			Value  string    `xml:"v"`
			Inline *richText `xml:"is"`
		} `xml:"c"`
	} `xml:"sheetData>row"`
}

func parseSheet(data []byte, shared []string) ([][]string, error) {
	var sheet sheetXML
	if err := xml.Unmarshal(data, &sheet); err != nil {
		return nil, fmt.Errorf("parse worksheet: %w", err)
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, r := range sheet.Rows {
		var row []string
		for _, c := range r.Cells {
			col := len(row)
			if c.Ref != "" {
				col = columnIndex(c.Ref)
			}
			for len(row) < col {
				row = append(row, "")
			}

			value := c.Value
			switch c.Type {
			case "s":
				if i, err := strconv.Atoi(strings.TrimSpace(c.Value)); err == nil && i >= 0 && i < len(shared) {
					value = shared[i]
				}
			case "inlineStr":
				if c.Inline != nil {
					value = c.Inline.String()
				}
			case "b":
				if value == "1" {
					value = "TRUE"
				} else {
					value = "FALSE"
				}
			}
			row = append(row, value)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// columnIndex converts the letters of a cell reference like "C7" to a
// 0-based column.
func columnIndex(ref string) int {
	col := 0
	for _, r := range ref {
		if r < 'A' || r > 'Z' {
			break
		}
		col = col*26 + int(r-'A'+1)
	}
	return col - 1
}
