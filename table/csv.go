package table

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes the header and records as delimited text, e.g. ',' for CSV or '\t' for TSV.
func WriteCSV(f io.Writer, t *Table, comma rune) error {
	w := csv.NewWriter(f)
	w.Comma = comma

	if err := w.Write(t.Header); err != nil {
		return err
	}

	for _, record := range t.Records {
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

// ReadCSV reads delimited text with a header row.
func ReadCSV(f io.Reader, comma rune) (*Table, error) {
	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	rows := make([][]any, len(records)-1)
	for i, record := range records[1:] {
		rows[i] = make([]any, len(record))
		for j, v := range record {
			rows[i][j] = v
		}
	}

	return MakeTable(rows, records[0]...)
}
