package commands

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/uhppoted/uhppoted-app-drive/xlsx"
)

var RowsCmd = Rows{
	file:   DEFAULT_FILE,
	sheet:  "",
	format: "tsv",
	debug:  false,
}

type Rows struct {
	file   string
	sheet  string
	format string
	debug  bool
}

func (cmd *Rows) Name() string {
	return "rows"
}

func (cmd *Rows) Description() string {
	return "Prints the rows of the local copy of the spreadsheet"
}

func (cmd *Rows) Usage() string {
	return "--file <file> --format <tsv|json>"
}

func (cmd *Rows) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] rows [options]\n", APP)
	fmt.Println()
	fmt.Println("  Prints the rows of the local copy of the spreadsheet as TSV or as the JSON served on GET /data")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    uhppoted-app-drive rows --file "data.xlsx" --format json`)
	fmt.Println()
}

func (cmd *Rows) FlagSet() *flag.FlagSet {
	flagset := flag.NewFlagSet("rows", flag.ExitOnError)

	flagset.StringVar(&cmd.file, "file", cmd.file, fmt.Sprintf("Local spreadsheet file. Defaults to %s", DEFAULT_FILE))
	flagset.StringVar(&cmd.sheet, "sheet", cmd.sheet, "Worksheet to print. Defaults to the first worksheet in the spreadsheet")
	flagset.StringVar(&cmd.format, "format", cmd.format, "Output format (tsv or json). Defaults to tsv")

	return flagset
}

func (cmd *Rows) Execute(args ...any) error {
	options := args[0].(*Options)

	cmd.debug = options.Debug

	if strings.TrimSpace(cmd.file) == "" {
		return fmt.Errorf("--file is a required option")
	}

	rows, err := xlsx.Load(cmd.file, cmd.sheet)
	if err != nil {
		return fmt.Errorf("error loading spreadsheet %s (%w)", cmd.file, err)
	}

	if cmd.debug {
		debugf("%v: %v rows", cmd.file, len(rows))
	}

	return cmd.print(os.Stdout, rows)
}

func (cmd *Rows) print(w io.Writer, rows []xlsx.Row) error {
	switch strings.ToLower(strings.TrimSpace(cmd.format)) {
	case "tsv":
		return rowsToTSV(w, rows)

	case "json":
		b, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(w, "%s\n", b)
		return err

	default:
		return fmt.Errorf("invalid --format '%s' - expected 'tsv' or 'json'", cmd.format)
	}
}
