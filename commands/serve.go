package commands

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"strings"
	"time"

	"github.com/uhppoted/uhppoted-app-drive/fetch"
	"github.com/uhppoted/uhppoted-app-drive/httpd"
	"github.com/uhppoted/uhppoted-app-drive/xlsx"
)

var ServeCmd = Serve{
	command: command{
		credentials: DEFAULT_CREDENTIALS,
		folder:      "",
		name:        DEFAULT_NAME,
		file:        DEFAULT_FILE,
		timeout:     DEFAULT_TIMEOUT,
		debug:       false,
	},

	bind:           DEFAULT_BIND,
	sheet:          "",
	refresh:        0,
	cache:          false,
	maxConnections: 0,
}

type Serve struct {
	command
	bind           string
	sheet          string
	refresh        time.Duration
	cache          bool
	maxConnections int
}

func (cmd *Serve) Name() string {
	return "serve"
}

func (cmd *Serve) Description() string {
	return "Downloads the spreadsheet from a Google Drive folder and serves the rows on GET /data"
}

func (cmd *Serve) Usage() string {
	return "--credentials <file> --folder <folder ID> --bind <address>"
}

func (cmd *Serve) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] serve [options] --folder <folder ID>\n", APP)
	fmt.Println()
	fmt.Println("  Downloads the spreadsheet from a Google Drive folder and serves the rows of the local copy")
	fmt.Println("  as JSON on GET /data. The server still starts if the download fails, in which case the")
	fmt.Println("  endpoint serves whatever local copy exists (or an error if there is none)")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    uhppoted-app-drive serve --folder "1UyApTKtmY2OvscPLcxdH-uwEy8l8rlfI"`)
	fmt.Println()
	fmt.Println(`    uhppoted-app-drive --debug serve --credentials "credentials.json" \`)
	fmt.Println(`                                     --folder "1UyApTKtmY2OvscPLcxdH-uwEy8l8rlfI" \`)
	fmt.Println(`                                     --bind "127.0.0.1:8000" \`)
	fmt.Println(`                                     --refresh 15m --cache`)
	fmt.Println()
}

func (cmd *Serve) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("serve")

	flagset.StringVar(&cmd.bind, "bind", cmd.bind, fmt.Sprintf("HTTP server bind address. Defaults to %s", DEFAULT_BIND))
	flagset.StringVar(&cmd.sheet, "sheet", cmd.sheet, "Worksheet to serve. Defaults to the first worksheet in the spreadsheet")
	flagset.DurationVar(&cmd.refresh, "refresh", cmd.refresh, "Interval for downloading the spreadsheet again while serving e.g. 15m. Disabled by default")
	flagset.BoolVar(&cmd.cache, "cache", cmd.cache, "Keeps the parsed rows in memory until the local file is replaced")
	flagset.IntVar(&cmd.maxConnections, "max-connections", cmd.maxConnections, "Maximum number of simultaneous HTTP connections (0 for unlimited)")

	return flagset
}

func (cmd *Serve) Execute(args ...any) error {
	options := args[0].(*Options)

	cmd.debug = options.Debug

	// ... check parameters
	if err := cmd.validate(); err != nil {
		return err
	}

	if strings.TrimSpace(cmd.bind) == "" {
		return fmt.Errorf("--bind is a required option")
	}

	if cmd.refresh < 0 {
		return fmt.Errorf("invalid --refresh interval (%v)", cmd.refresh)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), signals()...)
	defer cancel()

	// ... authorise
	fetcher, err := cmd.authorize(ctx)
	if err != nil {
		return err
	}

	// ... initial download
	source := cmd.start(ctx, fetcher)

	if cmd.refresh > 0 {
		go cmd.poll(ctx, fetcher, source)
	}

	// ... serve
	server := httpd.NewServer(cmd.bind, source, httpd.Options{
		MaxConnections: cmd.maxConnections,
		Debug:          cmd.debug,
	})

	return server.Run(ctx)
}

// start makes the initial download and returns the source for the served rows. A failed download
// is logged and whatever local copy exists is served instead.
func (cmd *Serve) start(ctx context.Context, fetcher *fetch.Fetcher) xlsx.Source {
	var source xlsx.Source = xlsx.File{Path: cmd.file, Sheet: cmd.sheet}
	if cmd.cache {
		source = xlsx.NewCache(cmd.file, cmd.sheet)
	}

	cmd.sync(ctx, fetcher, source)

	if cmd.debug {
		if rows, err := source.Rows(); err != nil {
			warnf("%v: %v", cmd.file, err)
		} else {
			debugf("%v: %v rows", cmd.file, len(rows))
		}
	}

	return source
}

// poll downloads the spreadsheet every refresh interval until the context is cancelled.
func (cmd *Serve) poll(ctx context.Context, fetcher *fetch.Fetcher, source xlsx.Source) {
	tick := time.NewTicker(cmd.refresh)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-tick.C:
			cmd.sync(ctx, fetcher, source)
		}
	}
}

type invalidator interface {
	Invalidate()
}

// sync downloads the spreadsheet, logging rather than returning any error so that the server
// keeps running on the existing local file. Cached rows are discarded after a successful download.
func (cmd *Serve) sync(ctx context.Context, fetcher *fetch.Fetcher, source xlsx.Source) bool {
	if _, err := cmd.get(ctx, fetcher); err != nil {
		warnf("unable to retrieve '%s' from Google Drive (%v)", cmd.name, err)
		return false
	}

	if c, ok := source.(invalidator); ok {
		c.Invalidate()
	}

	return true
}
