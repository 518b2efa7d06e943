package commands

import (
	"flag"
	"fmt"

	"go.uber.org/zap"

	"github.com/uhppoted/gsheets/auth"
)

var AuthoriseCmd = Authorise{}

type Authorise struct {
	command
}

func (cmd *Authorise) Name() string {
	return "authorise"
}

func (cmd *Authorise) Description() string {
	return "Authorises gsheets to access Google Sheets on your behalf"
}

func (cmd *Authorise) Usage() string {
	return "--credentials <file> --tokens <file>"
}

func (cmd *Authorise) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] authorise [options]\n", APP)
	fmt.Println()
	fmt.Println("  Opens the Google consent page in your browser and stores the authorised OAuth2 tokens to")
	fmt.Println("  the tokens file. Not required for service account credentials.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    gsheets authorise --credentials "auth/cred.json" --tokens "auth/token.json"`)
	fmt.Println()
}

func (cmd *Authorise) FlagSet() *flag.FlagSet {
	return cmd.flagset("authorise")
}

func (cmd *Authorise) Execute(args ...any) error {
	options := args[0].(*Options)

	if err := cmd.configure(options); err != nil {
		return err
	}

	cfg := cmd.auth()

	if _, err := auth.Authorise(contextOf(args), cfg); err != nil {
		return fmt.Errorf("authorisation error (%w)", err)
	}

	cmd.log.Info("authorised", zap.String("tokens", cfg.Tokens))

	return nil
}
