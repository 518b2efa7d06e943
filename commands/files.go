package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/uhppoted/gsheets/spreadsheet"
	"github.com/uhppoted/gsheets/table"
)

const (
	TSV  = ".tsv"
	CSV  = ".csv"
	XLSX = ".xlsx"
)

func format(file string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(file)); ext {
	case TSV, CSV, XLSX:
		return ext, nil

	default:
		return "", fmt.Errorf("unsupported file type '%v' - expected .tsv, .csv or .xlsx", filepath.Ext(file))
	}
}

// export retrieves a range and stores it to a TSV, CSV or XLSX file (by extension). The file is
// written to a temporary file and then renamed so that a failed export does not clobber an
// existing file.
func export(ctx context.Context, sheet *spreadsheet.Sheet, rng, file string) (int, error) {
	ext, err := format(file)
	if err != nil {
		return 0, err
	}

	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0770); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(dir, ".gsheets-*")
	if err != nil {
		return 0, err
	}

	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	var N int

	switch ext {
	case TSV:
		N, err = sheet.ToCSV(ctx, tmp, rng, '\t')

	case CSV:
		N, err = sheet.ToCSV(ctx, tmp, rng, ',')

	case XLSX:
		N, err = sheet.ToXLSX(ctx, tmp, rng)
	}

	if err != nil {
		return 0, err
	} else if N == 0 {
		return 0, fmt.Errorf("no data in spreadsheet/range")
	}

	if err := tmp.Close(); err != nil {
		return 0, err
	}

	if err := os.Rename(tmp.Name(), file); err != nil {
		return 0, err
	}

	return N, nil
}

// load reads a TSV, CSV or XLSX file (by extension) with a header row.
func load(file string) (*table.Table, error) {
	ext, err := format(file)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	switch ext {
	case TSV:
		return table.ReadCSV(f, '\t')

	case CSV:
		return table.ReadCSV(f, ',')

	default:
		return table.ReadXLSX(f, "")
	}
}
