package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/uhppoted/gsheets/spreadsheet"
)

var GetCmd = Get{
	area:     "",
	file:     time.Now().Format("2006-01-02T150405.tsv"),
	schedule: "",
}

type Get struct {
	command
	area     string
	file     string
	schedule string
}

func (cmd *Get) Name() string {
	return "get"
}

func (cmd *Get) Description() string {
	return "Retrieves a range from a Google Sheets worksheet and stores it to a local TSV, CSV or XLSX file"
}

func (cmd *Get) Usage() string {
	return "--url <url> --range <range> --file <file> [--schedule <cron>]"
}

func (cmd *Get) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] get [options] --url <URL> --range <range> --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Downloads a Google Sheets worksheet range to a TSV, CSV or XLSX file. The file format is")
	fmt.Println("  determined by the file extension.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    gsheets --debug get --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`)
	fmt.Println(`                        --range "Sales!A1:G12" \`)
	fmt.Println(`                        --file "sales.tsv"`)
	fmt.Println()
	fmt.Println(`    gsheets get --url 1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms --range Sales --file sales.xlsx --schedule "@every 15m"`)
	fmt.Println()
}

func (cmd *Get) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("get")

	flagset.StringVar(&cmd.area, "range", cmd.area, "Spreadsheet range e.g. 'Sales!A1:G12'. A sheet name on its own retrieves the whole sheet")
	flagset.StringVar(&cmd.file, "file", cmd.file, "TSV, CSV or XLSX file name. Defaults to '<yyyy-mm-ddTHHmmss>.tsv'")
	flagset.StringVar(&cmd.schedule, "schedule", cmd.schedule, "Cron schedule (e.g. '0 * * * *' or '@every 10m') for repeated retrieval")

	return flagset
}

func (cmd *Get) Execute(args ...any) error {
	options := args[0].(*Options)

	if err := cmd.configure(options); err != nil {
		return err
	}

	// ... check parameters
	if strings.TrimSpace(cmd.area) == "" {
		return fmt.Errorf("--range is a required option")
	}

	if strings.TrimSpace(cmd.file) == "" {
		return fmt.Errorf("--file is a required option")
	}

	if _, err := format(cmd.file); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(contextOf(args), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ss, err := cmd.open(ctx, options)
	if err != nil {
		return err
	}

	if strings.TrimSpace(cmd.schedule) == "" {
		return cmd.get(ctx, ss)
	}

	return cmd.scheduled(ctx, ss)
}

func (cmd *Get) get(ctx context.Context, ss *spreadsheet.Spreadsheet) error {
	ctx, cancel := cmd.deadline(ctx)
	defer cancel()

	sheet, rng, err := cmd.sheet(ss, cmd.area)
	if err != nil {
		return err
	}

	N, err := export(ctx, sheet, rng, cmd.file)
	if err != nil {
		return fmt.Errorf("unable to retrieve data from sheet (%w)", err)
	}

	cmd.log.Info("retrieved",
		zap.String("range", cmd.area),
		zap.String("file", cmd.file),
		zap.Int("rows", N))

	return nil
}

// scheduled retrieves the range immediately and then on the cron schedule until interrupted.
// Failed scheduled retrievals are logged and do not stop the schedule.
func (cmd *Get) scheduled(ctx context.Context, ss *spreadsheet.Spreadsheet) error {
	c := cron.New()

	if _, err := c.AddFunc(cmd.schedule, func() {
		if err := cmd.get(ctx, ss); err != nil {
			cmd.log.Warn("scheduled get", zap.String("range", cmd.area), zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid --schedule '%v' (%w)", cmd.schedule, err)
	}

	if err := cmd.get(ctx, ss); err != nil {
		return err
	}

	c.Start()
	cmd.log.Info("scheduled", zap.String("schedule", cmd.schedule))

	<-ctx.Done()
	<-c.Stop().Done()

	cmd.log.Info("stopped")

	return nil
}
