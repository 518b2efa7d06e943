package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/uhppoted/gsheets/a1"
	"github.com/uhppoted/gsheets/auth"
	"github.com/uhppoted/gsheets/config"
	"github.com/uhppoted/gsheets/spreadsheet"
)

const APP = "gsheets"

// Options are the global command line options, shared by all commands.
type Options struct {
	Config string
	Env    string
	Debug  bool

	// Logger and Spreadsheet are for embedding the commands. Logger defaults to a production
	// (or development, with --debug) zap logger.
	Logger      *zap.Logger
	Spreadsheet []spreadsheet.Option
}

type command struct {
	workdir     string
	credentials string
	tokens      string
	url         string
	debug       bool

	config *config.Config
	log    *zap.Logger
}

var sheetURL = regexp.MustCompile(`^https://docs.google.com/spreadsheets/d/(.*?)(?:/.*)?$`)
var sheetID = regexp.MustCompile(`^[a-zA-Z0-9_-]{20,}$`)

func (cmd *command) flagset(name string) *flag.FlagSet {
	flagset := flag.NewFlagSet(name, flag.ExitOnError)

	flagset.StringVar(&cmd.workdir, "workdir", cmd.workdir, "Directory for working files (credentials, tokens, etc). Defaults to the configured 'workdir'")
	flagset.StringVar(&cmd.credentials, "credentials", cmd.credentials, "Path for the OAuth2 client credentials file. Defaults to 'auth/cred.json'")
	flagset.StringVar(&cmd.tokens, "tokens", cmd.tokens, "Path for the OAuth2 tokens file. Defaults to 'auth/token.json'")
	flagset.StringVar(&cmd.url, "url", cmd.url, "Spreadsheet URL or ID")

	return flagset
}

// configure loads the configuration file and merges the command line options into it.
func (cmd *command) configure(options *Options) error {
	cmd.debug = options.Debug

	file := options.Config
	if file == "" {
		if _, err := os.Stat(DEFAULT_CONFIG); err == nil {
			file = DEFAULT_CONFIG
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	cfg, err := config.Load(file, options.Env)
	if err != nil {
		return err
	}

	if cmd.workdir != "" {
		cfg.WorkDir = cmd.workdir
	}

	if cmd.credentials != "" {
		cfg.Credentials = cmd.credentials
	}

	if cmd.tokens != "" {
		cfg.Tokens = cmd.tokens
	}

	if strings.TrimSpace(cmd.url) == "" {
		cmd.url = cfg.Spreadsheet
	}

	cmd.config = cfg

	if options.Logger != nil {
		cmd.log = options.Logger
	} else if cmd.log, err = logger(options.Debug); err != nil {
		return err
	}

	return nil
}

// open authorises access to the spreadsheet identified by the --url option.
func (cmd *command) open(ctx context.Context, options *Options) (*spreadsheet.Spreadsheet, error) {
	if strings.TrimSpace(cmd.url) == "" {
		return nil, fmt.Errorf("--url is a required option")
	}

	id, err := spreadsheetID(cmd.url)
	if err != nil {
		return nil, err
	}

	cmd.log.Debug("spreadsheet", zap.String("ID", id))

	opts := []spreadsheet.Option{
		spreadsheet.WithAuth(cmd.auth()),
		spreadsheet.WithLogger(cmd.log),
		spreadsheet.WithRetries(cmd.config.Retries),
	}

	return spreadsheet.Open(ctx, id, append(opts, options.Spreadsheet...)...)
}

// sheet resolves the worksheet for a range e.g. 'Sales!A1:E100' or 'Sales'. A range without a
// sheet prefix refers to the first sheet.
func (cmd *command) sheet(ss *spreadsheet.Spreadsheet, rng string) (*spreadsheet.Sheet, string, error) {
	title, cells := a1.Split(rng)
	if title == "" && cells != "" && !a1.Validate(cells) {
		title, cells = cells, ""
	}

	if title == "" {
		list := ss.Sheets()
		if len(list) == 0 {
			return nil, "", fmt.Errorf("spreadsheet '%v' has no worksheets", ss.Name())
		}

		title = list[0].Title
	}

	sheet, err := ss.Sheet(title)
	if err != nil {
		return nil, "", err
	}

	return sheet, cells, nil
}

// deadline bounds a single spreadsheet operation by the configured timeout.
func (cmd *command) deadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if cmd.config == nil || cmd.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, cmd.config.Timeout)
}

func (cmd *command) auth() auth.Config {
	cfg := cmd.config.Auth()
	cfg.Logger = cmd.log

	return cfg
}

// spreadsheetID extracts the spreadsheet ID from a Google Sheets URL, or returns the ID as-is
// if it looks like a spreadsheet ID.
func spreadsheetID(url string) (string, error) {
	url = strings.TrimSpace(url)

	if match := sheetURL.FindStringSubmatch(url); len(match) > 1 && match[1] != "" {
		return match[1], nil
	}

	if sheetID.MatchString(url) {
		return url, nil
	}

	return "", fmt.Errorf("invalid spreadsheet URL - expected something like 'https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms'")
}

func logger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}

func helpOptions(flagset *flag.FlagSet) {
	count := 0
	flag.VisitAll(func(f *flag.Flag) {
		count++
	})

	flagset.VisitAll(func(f *flag.Flag) {
		fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
	})

	if count > 0 {
		fmt.Println()
		fmt.Println("  Options:")
		flag.VisitAll(func(f *flag.Flag) {
			fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
		})
	}
}

// contextOf returns the context passed to Execute after the options (if any).
func contextOf(args []any) context.Context {
	for _, arg := range args {
		if ctx, ok := arg.(context.Context); ok {
			return ctx
		}
	}

	return context.Background()
}
