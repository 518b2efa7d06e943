package table

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const DEFAULT_XLSX_SHEET = "Sheet1"

// MAX_XLSX_SHEET_NAME is the Excel limit on the length of a worksheet name.
const MAX_XLSX_SHEET_NAME = 31

var forbidden = strings.NewReplacer(":", "_", `\`, "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_")

// worksheet converts a sheet title to a valid Excel worksheet name, replacing the characters
// Excel does not allow and truncating it to 31 characters.
func worksheet(name string) string {
	name = forbidden.Replace(strings.TrimSpace(name))

	if r := []rune(name); len(r) > MAX_XLSX_SHEET_NAME {
		name = string(r[:MAX_XLSX_SHEET_NAME])
	}

	name = strings.Trim(name, "' ")
	if name == "" {
		return DEFAULT_XLSX_SHEET
	}

	return name
}

// WriteXLSX writes the table to a single worksheet in an Excel workbook. The worksheet name is
// adjusted to the Excel naming rules if necessary.
func WriteXLSX(w io.Writer, sheet string, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet = worksheet(sheet)

	if sheet != DEFAULT_XLSX_SHEET {
		if err := f.SetSheetName(DEFAULT_XLSX_SHEET, sheet); err != nil {
			return err
		}
	}

	for i, row := range t.Rows() {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}

		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)

	return err
}

// ReadXLSX reads a table from a worksheet in an Excel workbook. The first worksheet is used if
// the sheet name is empty.
func ReadXLSX(r io.Reader, sheet string) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, fmt.Errorf("workbook has no worksheets")
		}

		sheet = list[0]
	} else {
		sheet = worksheet(sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("empty worksheet '%v'", sheet)
	}

	values := make([][]any, len(rows)-1)
	for i, row := range rows[1:] {
		values[i] = make([]any, len(row))
		for j, v := range row {
			values[i][j] = v
		}
	}

	return MakeTable(values, rows[0]...)
}
