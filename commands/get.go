package commands

import (
	"context"
	"flag"
	"fmt"
)

var GetCmd = Get{
	command: command{
		credentials: DEFAULT_CREDENTIALS,
		folder:      "",
		name:        DEFAULT_NAME,
		file:        DEFAULT_FILE,
		timeout:     DEFAULT_TIMEOUT,
		debug:       false,
	},
}

type Get struct {
	command
}

func (cmd *Get) Name() string {
	return "get"
}

func (cmd *Get) Description() string {
	return "Downloads the spreadsheet from a Google Drive folder to a local file"
}

func (cmd *Get) Usage() string {
	return "--credentials <file> --folder <folder ID> --name <name> --file <file>"
}

func (cmd *Get) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] get [options] --folder <folder ID>\n", APP)
	fmt.Println()
	fmt.Println("  Downloads the most recently modified file with a matching name from a Google Drive folder,")
	fmt.Println("  replacing the local file only once the download has completed")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    uhppoted-app-drive --debug get --credentials "credentials.json" \`)
	fmt.Println(`                                   --folder "1UyApTKtmY2OvscPLcxdH-uwEy8l8rlfI" \`)
	fmt.Println(`                                   --name "data.xlsx" \`)
	fmt.Println(`                                   --file "data.xlsx"`)
	fmt.Println()
}

func (cmd *Get) FlagSet() *flag.FlagSet {
	return cmd.flagset("get")
}

func (cmd *Get) Execute(args ...any) error {
	options := args[0].(*Options)

	cmd.debug = options.Debug

	// ... check parameters
	if err := cmd.validate(); err != nil {
		return err
	}

	// ... authorise
	ctx := context.Background()

	fetcher, err := cmd.authorize(ctx)
	if err != nil {
		return err
	}

	// ... download
	if _, err := cmd.get(ctx, fetcher); err != nil {
		return fmt.Errorf("unable to retrieve '%s' from Google Drive (%w)", cmd.name, err)
	}

	return nil
}
