package commands

import (
	"flag"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/uhppoted/gsheets/spreadsheet"
)

var AppendCmd = Append{}

type Append struct {
	command
	area      string
	file      string
	header    bool
	overwrite bool
	raw       bool
}

func (cmd *Append) Name() string {
	return "append"
}

func (cmd *Append) Description() string {
	return "Appends the records in a TSV, CSV or XLSX file to a table in a Google Sheets worksheet"
}

func (cmd *Append) Usage() string {
	return "--url <url> --range <range> --file <file>"
}

func (cmd *Append) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] append [options] --url <URL> --range <range> --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Appends the records in a TSV, CSV or XLSX file after the last row of the table found in the")
	fmt.Println("  range. The header row is skipped unless --header is specified.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    gsheets append --url 1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms --range "Sales!A:G" --file "march.csv"`)
	fmt.Println()
}

func (cmd *Append) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("append")

	flagset.StringVar(&cmd.area, "range", cmd.area, "Spreadsheet range used to find the table e.g. 'Sales!A:G'")
	flagset.StringVar(&cmd.file, "file", cmd.file, "TSV, CSV or XLSX file")
	flagset.BoolVar(&cmd.header, "header", cmd.header, "Includes the file header row in the appended rows")
	flagset.BoolVar(&cmd.overwrite, "overwrite", cmd.overwrite, "Overwrites the rows after the table rather than inserting new rows")
	flagset.BoolVar(&cmd.raw, "raw", cmd.raw, "Stores the values as-is rather than parsing them as if typed into the sheet")

	return flagset
}

func (cmd *Append) Execute(args ...any) error {
	options := args[0].(*Options)

	if err := cmd.configure(options); err != nil {
		return err
	}

	if strings.TrimSpace(cmd.area) == "" {
		return fmt.Errorf("--range is a required option")
	}

	if strings.TrimSpace(cmd.file) == "" {
		return fmt.Errorf("--file is a required option")
	}

	t, err := load(cmd.file)
	if err != nil {
		return fmt.Errorf("invalid file %v (%w)", cmd.file, err)
	}

	rows := t.Rows()
	if !cmd.header && len(rows) > 0 {
		rows = rows[1:]
	}

	if len(rows) == 0 {
		return fmt.Errorf("no records in %v", cmd.file)
	}

	ctx, cancel := cmd.deadline(contextOf(args))
	defer cancel()

	ss, err := cmd.open(ctx, options)
	if err != nil {
		return err
	}

	sheet, rng, err := cmd.sheet(ss, cmd.area)
	if err != nil {
		return err
	}

	opts := spreadsheet.AppendOptions{
		Input:  spreadsheet.UserEntered,
		Insert: spreadsheet.InsertRows,
	}

	if cmd.raw {
		opts.Input = spreadsheet.Raw
	}

	if cmd.overwrite {
		opts.Insert = spreadsheet.Overwrite
	}

	result, err := sheet.Append(ctx, rng, rows, opts)
	if err != nil {
		return err
	}

	cmd.log.Info("appended",
		zap.String("file", cmd.file),
		zap.String("table", result.TableRange),
		zap.String("range", result.UpdatedRange),
		zap.Int64("rows", result.UpdatedRows))

	return nil
}
