package commands

import (
	"flag"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var ClearCmd = Clear{}

type Clear struct {
	command
	area string
}

func (cmd *Clear) Name() string {
	return "clear"
}

func (cmd *Clear) Description() string {
	return "Clears the values in a Google Sheets worksheet range"
}

func (cmd *Clear) Usage() string {
	return "--url <url> --range <range>"
}

func (cmd *Clear) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] clear [options] --url <URL> --range <range>\n", APP)
	fmt.Println()
	fmt.Println("  Clears the values (but not the formatting) in a worksheet range, or the whole worksheet")
	fmt.Println("  if the range is just the sheet name.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    gsheets clear --url 1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms --range "Sales!A2:G100"`)
	fmt.Println()
}

func (cmd *Clear) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("clear")

	flagset.StringVar(&cmd.area, "range", cmd.area, "Spreadsheet range e.g. 'Sales!A2:G100'")

	return flagset
}

func (cmd *Clear) Execute(args ...any) error {
	options := args[0].(*Options)

	if err := cmd.configure(options); err != nil {
		return err
	}

	if strings.TrimSpace(cmd.area) == "" {
		return fmt.Errorf("--range is a required option")
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

	cleared, err := sheet.Clear(ctx, rng)
	if err != nil {
		return err
	}

	cmd.log.Info("cleared", zap.String("range", cleared))

	return nil
}
