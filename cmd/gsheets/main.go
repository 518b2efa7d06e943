package main

import (
	"flag"
	"fmt"
	"os"

	uhppoted "github.com/uhppoted/uhppoted-lib/command"

	"github.com/uhppoted/gsheets/commands"
)

var cli = []uhppoted.Command{
	&commands.AuthoriseCmd,
	&commands.InfoCmd,
	&commands.GetCmd,
	&commands.PutCmd,
	&commands.AppendCmd,
	&commands.ClearCmd,
	&commands.VersionCmd,
}

var options = commands.Options{
	Config: "",
	Env:    "",
	Debug:  false,
}

var help = uhppoted.NewHelp(commands.APP, cli, nil)

func main() {
	flag.BoolVar(&options.Debug, "debug", options.Debug, "Enable debugging information")
	flag.StringVar(&options.Config, "config", options.Config, "Configuration file (YAML, JSON or TOML)")
	flag.StringVar(&options.Env, "env", options.Env, "Environment variables file. Defaults to '.env'")
	flag.Parse()

	cmd, err := uhppoted.Parse(cli, nil, help)
	if err != nil {
		fmt.Printf("\nError parsing command line: %v\n\n", err)
		os.Exit(1)
	}

	if cmd == nil {
		help.Execute()
		os.Exit(1)
	}

	if err = cmd.Execute(&options); err != nil {
		fmt.Fprintf(os.Stderr, "\n   ERROR: %v\n\n", err)
		os.Exit(1)
	}
}
