package commands

import (
	"flag"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/uhppoted/gsheets/spreadsheet"
)

var PutCmd = Put{
	area: "",
	file: "",
	raw:  false,
}

type Put struct {
	command
	area string
	file string
	raw  bool
}

func (cmd *Put) Name() string {
	return "put"
}

func (cmd *Put) Description() string {
	return "Uploads a TSV, CSV or XLSX file to a Google Sheets worksheet range"
}

func (cmd *Put) Usage() string {
	return "--url <url> --range <range> --file <file>"
}

func (cmd *Put) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] put [options] --url <URL> --range <range> --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Uploads a TSV, CSV or XLSX file (header row included) to a Google Sheets worksheet. A")
	fmt.Println("  single cell range is the top left corner of the uploaded block.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    gsheets --debug put --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`)
	fmt.Println(`                        --range "Sales!A1" \`)
	fmt.Println(`                        --file "sales.tsv"`)
	fmt.Println()
}

func (cmd *Put) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("put")

	flagset.StringVar(&cmd.area, "range", cmd.area, "Spreadsheet range e.g. 'Sales!A1'. A sheet name on its own uploads to A1")
	flagset.StringVar(&cmd.file, "file", cmd.file, "TSV, CSV or XLSX file")
	flagset.BoolVar(&cmd.raw, "raw", cmd.raw, "Stores the values as-is rather than parsing them as if typed into the sheet")

	return flagset
}

func (cmd *Put) Execute(args ...any) error {
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

	ctx, cancel := cmd.deadline(contextOf(args))
	defer cancel()

	ss, err := cmd.open(ctx, options)
	if err != nil {
		return err
	}

	sheet, rng, err := cmd.sheet(ss, cmd.area)
	if err != nil {
		return err
	} else if rng == "" {
		rng = "A1"
	}

	opts := spreadsheet.UpdateOptions{
		Input: spreadsheet.UserEntered,
	}

	if cmd.raw {
		opts.Input = spreadsheet.Raw
	}

	result, err := sheet.Update(ctx, rng, t.Rows(), opts)
	if err != nil {
		return err
	}

	cmd.log.Info("uploaded",
		zap.String("file", cmd.file),
		zap.String("range", result.UpdatedRange),
		zap.Int64("cells", result.UpdatedCells))

	return nil
}
