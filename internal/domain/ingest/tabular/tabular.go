// Package tabular decodes uploaded statement files (CSV or spreadsheet)
// into an in-memory table of named columns and rows.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

var ErrUnsupportedOrEmpty = errors.New("unsupported file format or empty table")

// Dataset is a decoded table: the header names in source order plus the data
// rows. Every row has exactly len(Columns) cells; short rows are padded with
// empty strings and long rows truncated during load. Read-only after Load.
type Dataset struct {
	Columns []string
	Rows    [][]string
}

// Column returns all values of the named column in row order.
func (d *Dataset) Column(name string) ([]string, bool) {
	idx := -1
	for i, c := range d.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	values := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		values[i] = row[idx]
	}
	return values, true
}

// Load decodes the raw bytes of an uploaded file. The filename is only used
// to choose the decoder: CSV-like extensions go through the CSV path with a
// single Latin-1 retry on invalid UTF-8, spreadsheet extensions go through
// excelize. Anything else, or a table without rows or columns, fails with
// ErrUnsupportedOrEmpty.
func Load(data []byte, filename string) (*Dataset, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var (
		ds  *Dataset
		err error
	)
	switch ext {
	case ".csv", ".tsv", ".txt":
		ds, err = loadCSV(data)
	case ".xlsx", ".xls":
		ds, err = loadSpreadsheet(data)
	default:
		return nil, fmt.Errorf("%w: unrecognized extension %q", ErrUnsupportedOrEmpty, ext)
	}
	if err != nil {
		return nil, err
	}

	if len(ds.Columns) == 0 || len(ds.Rows) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrUnsupportedOrEmpty)
	}
	return ds, nil
}

func loadCSV(data []byte) (*Dataset, error) {
	data = normalizeCSVBytes(data)

	delimiter := detectDelimiter(data)
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedOrEmpty, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrUnsupportedOrEmpty)
	}

	return buildDataset(records), nil
}

func loadSpreadsheet(data []byte) (*Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedOrEmpty, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnsupportedOrEmpty)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedOrEmpty, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty sheet", ErrUnsupportedOrEmpty)
	}

	return buildDataset(rows), nil
}

func buildDataset(records [][]string) *Dataset {
	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([][]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make([]string, len(headers))
		for i := range headers {
			if i < len(record) {
				row[i] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}

	return &Dataset{Columns: headers, Rows: rows}
}

// normalizeCSVBytes strips a UTF-8 BOM and falls back to Latin-1 when the
// payload is not valid UTF-8. The Latin-1 decode is byte-preserving and
// cannot fail, so there is exactly one retry.
func normalizeCSVBytes(data []byte) []byte {
	data = stripUTF8BOM(data)
	if utf8.Valid(data) {
		return data
	}
	return decodeLatin1(data)
}

func stripUTF8BOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

func decodeLatin1(data []byte) []byte {
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return []byte(string(runes))
}

// detectDelimiter picks the delimiter with the highest count in the header
// line. Comma wins ties and is the default for single-column files.
func detectDelimiter(data []byte) rune {
	line := string(data)
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}

	best := ','
	bestCount := strings.Count(line, ",")
	for _, d := range []rune{';', '\t', '|'} {
		if count := strings.Count(line, string(d)); count > bestCount {
			best = d
			bestCount = count
		}
	}
	return best
}

// NumericColumn reports whether every non-empty value in the column parses
// as a plain number. Columns with no non-empty values are not numeric.
func NumericColumn(values []string) bool {
	seen := false
	for _, v := range values {
		if v == "" {
			continue
		}
		seen = true
		if _, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64); err != nil {
			return false
		}
	}
	return seen
}
