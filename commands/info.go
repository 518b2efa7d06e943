package commands

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/uhppoted/gsheets/spreadsheet"
)

var InfoCmd = Info{
	out: os.Stdout,
}

type Info struct {
	command
	out io.Writer
}

func (cmd *Info) Name() string {
	return "info"
}

func (cmd *Info) Description() string {
	return "Displays the spreadsheet title, locale, time zone and worksheets"
}

func (cmd *Info) Usage() string {
	return "--url <url>"
}

func (cmd *Info) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] info [options] --url <URL>\n", APP)
	fmt.Println()
	fmt.Println("  Displays the spreadsheet metadata and the ID and size of each worksheet")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    gsheets info --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms"`)
	fmt.Println()
}

func (cmd *Info) FlagSet() *flag.FlagSet {
	return cmd.flagset("info")
}

func (cmd *Info) Execute(args ...any) error {
	options := args[0].(*Options)

	if err := cmd.configure(options); err != nil {
		return err
	}

	ctx, cancel := cmd.deadline(contextOf(args))
	defer cancel()

	ss, err := cmd.open(ctx, options)
	if err != nil {
		return err
	}

	out := cmd.out
	if out == nil {
		out = os.Stdout
	}

	describe(out, ss)

	return nil
}

func describe(w io.Writer, ss *spreadsheet.Spreadsheet) {
	list := ss.Sheets()

	width := len("TITLE")
	for _, s := range list {
		width = max(width, len(s.Title))
	}

	fmt.Fprintf(w, "%v\n", ss.Name())
	fmt.Fprintf(w, "  ID:        %v\n", ss.ID)
	fmt.Fprintf(w, "  locale:    %v\n", ss.Locale())
	fmt.Fprintf(w, "  time zone: %v\n", ss.TimeZone())
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-12v %-*v %8v %8v\n", "SHEET ID", width, "TITLE", "ROWS", "COLUMNS")

	for _, s := range list {
		fmt.Fprintf(w, "  %-12v %-*v %8v %8v\n", s.ID, width, s.Title, s.Rows, s.Columns)
	}
}
