package spreadsheet

import (
	"context"
	"fmt"
	"io"

	"github.com/uhppoted/gsheets/table"
)

// ToTable retrieves the values in a range as a table. If no header is supplied, the first row
// is the header.
func (s *Sheet) ToTable(ctx context.Context, rng string, header ...string) (*table.Table, error) {
	rows, err := s.Get(ctx, rng)
	if err != nil {
		return nil, err
	}

	t, err := table.MakeTable(rows, header...)
	if err != nil {
		return nil, newError("Sheet.ToTable", rng, err)
	}

	return t, nil
}

// ToCSV writes the values in a range as delimited text, exactly as returned (i.e. without a
// synthesized header). Nothing is written if the range is empty. Returns the number of rows
// written.
func (s *Sheet) ToCSV(ctx context.Context, w io.Writer, rng string, comma rune) (int, error) {
	rows, err := s.Get(ctx, rng)
	if err != nil {
		return 0, err
	} else if len(rows) == 0 {
		return 0, nil
	}

	if err := table.WriteCSV(w, block(rows), comma); err != nil {
		return 0, newError("Sheet.ToCSV", rng, err)
	}

	return len(rows), nil
}

// ToXLSX writes the values in a range to an Excel workbook with a single worksheet named after
// the sheet. Returns the number of rows written.
func (s *Sheet) ToXLSX(ctx context.Context, w io.Writer, rng string) (int, error) {
	rows, err := s.Get(ctx, rng)
	if err != nil {
		return 0, err
	} else if len(rows) == 0 {
		return 0, nil
	}

	if err := table.WriteXLSX(w, s.Title(), block(rows)); err != nil {
		return 0, newError("Sheet.ToXLSX", rng, err)
	}

	return len(rows), nil
}

// block pads ragged rows to a rectangle, with the first row as the header. Unlike MakeTable,
// blank and duplicate header cells are kept as-is.
func block(rows [][]any) *table.Table {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	records := make([][]string, len(rows))
	for i, row := range rows {
		records[i] = make([]string, width)
		for j, v := range row {
			if v != nil {
				records[i][j] = fmt.Sprintf("%v", v)
			}
		}
	}

	return &table.Table{
		Header:  records[0],
		Records: records[1:],
	}
}
