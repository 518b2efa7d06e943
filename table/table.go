// Package table converts between the ragged rows of cell values returned by the Sheets API and
// a rectangular table of strings with a header row, and reads and writes tables as CSV, TSV and
// XLSX files.
package table

import (
	"fmt"
	"strconv"
	"strings"
)

type Table struct {
	Header  []string
	Records [][]string
}

// MakeTable builds a table from rows of cell values. If no header is supplied the first row
// is used as the header, unless there is only a single row in which case the columns are
// numbered from 0. Short rows are padded with empty strings.
func MakeTable(rows [][]any, header ...string) (*Table, error) {
	if len(header) == 0 && len(rows) > 1 {
		header = make([]string, len(rows[0]))
		for i, v := range rows[0] {
			header[i] = clean(v)
		}

		rows = rows[1:]
	}

	if len(header) == 0 {
		width := 0
		for _, row := range rows {
			if len(row) > width {
				width = len(row)
			}
		}

		for i := 0; i < width; i++ {
			header = append(header, strconv.Itoa(i))
		}
	}

	// .. build index (blank column names are allowed and never match)
	index := map[string]int{}
	for i, h := range header {
		k := normalise(h)
		if k == "" {
			continue
		}

		if _, ok := index[k]; ok {
			return nil, fmt.Errorf("duplicate column name '%s'", h)
		}

		index[k] = i
	}

	// ... records
	records := [][]string{}
	for i, row := range rows {
		if len(row) > len(header) {
			return nil, fmt.Errorf("row %v has %v values (header has %v columns)", i+1, len(row), len(header))
		}

		record := make([]string, len(header))
		for j, v := range row {
			record[j] = clean(v)
		}

		records = append(records, record)
	}

	return &Table{
		Header:  header,
		Records: records,
	}, nil
}

// Column returns the values in the column with the name, ignoring case and whitespace.
func (t *Table) Column(name string) ([]string, error) {
	ix := -1
	for i, h := range t.Header {
		if normalise(h) != "" && normalise(h) == normalise(name) {
			ix = i
			break
		}
	}

	if ix < 0 {
		return nil, fmt.Errorf("missing '%s' column", name)
	}

	column := make([]string, len(t.Records))
	for i, record := range t.Records {
		if ix < len(record) {
			column[i] = record[ix]
		}
	}

	return column, nil
}

// Rows returns the header and records as rows of cell values, i.e. the inverse of MakeTable.
func (t *Table) Rows() [][]any {
	rows := make([][]any, 0, len(t.Records)+1)

	if len(t.Header) > 0 {
		row := make([]any, len(t.Header))
		for i, h := range t.Header {
			row[i] = h
		}

		rows = append(rows, row)
	}

	for _, record := range t.Records {
		row := make([]any, len(record))
		for i, v := range record {
			row[i] = v
		}

		rows = append(rows, row)
	}

	return rows
}

func clean(v any) string {
	switch s := v.(type) {
	case nil:
		return ""

	case string:
		return strings.TrimSpace(s)

	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

func normalise(v string) string {
	return strings.ToLower(strings.ReplaceAll(v, " ", ""))
}
