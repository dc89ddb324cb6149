package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/uhppoted/uhppoted-app-drive/credentials"
	"github.com/uhppoted/uhppoted-app-drive/fetch"
)

const APP = "uhppoted-app-drive"

type Options struct {
	Debug bool
}

type command struct {
	credentials string
	folder      string
	name        string
	file        string
	timeout     time.Duration
	debug       bool
}

func (c *command) flagset(name string) *flag.FlagSet {
	flagset := flag.NewFlagSet(name, flag.ExitOnError)

	flagset.StringVar(&c.credentials, "credentials", c.credentials, fmt.Sprintf("Path for the service account 'credentials.json' file. The %s environment variable takes precedence", credentials.ENV))
	flagset.StringVar(&c.folder, "folder", c.folder, fmt.Sprintf("Google Drive folder ID. Defaults to the %s environment variable", FOLDER_ENV))
	flagset.StringVar(&c.name, "name", c.name, fmt.Sprintf("Name of the spreadsheet in the Google Drive folder. Defaults to %s", DEFAULT_NAME))
	flagset.StringVar(&c.file, "file", c.file, fmt.Sprintf("Local file for the downloaded spreadsheet. Defaults to %s", DEFAULT_FILE))
	flagset.DurationVar(&c.timeout, "timeout", c.timeout, "Maximum time allowed for locating and downloading the spreadsheet")

	return flagset
}

func (c *command) validate() error {
	if strings.TrimSpace(c.folder) == "" {
		c.folder = strings.TrimSpace(os.Getenv(FOLDER_ENV))
	}

	if strings.TrimSpace(c.folder) == "" {
		return fmt.Errorf("--folder is a required option (or set %s)", FOLDER_ENV)
	}

	if strings.TrimSpace(c.name) == "" {
		return fmt.Errorf("--name is a required option")
	}

	if strings.TrimSpace(c.file) == "" {
		return fmt.Errorf("--file is a required option")
	}

	return nil
}

// authorize resolves the service account credentials and creates the Google Drive fetcher. It
// does not contact Google Drive.
func (c *command) authorize(ctx context.Context) (*fetch.Fetcher, error) {
	sources := credentials.DefaultSources()
	if strings.TrimSpace(c.credentials) != "" {
		sources.File = c.credentials
	}

	creds, err := credentials.Resolve(sources, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("authentication/authorization error (%w)", err)
	}

	if c.debug {
		debugf("using credentials from %v", creds)
	}

	gdrive, err := fetch.NewDrive(ctx, option.WithHTTPClient(creds.Client(context.Background())))
	if err != nil {
		return nil, err
	}

	return fetch.NewFetcher(gdrive), nil
}

func (c *command) get(ctx context.Context, fetcher *fetch.Fetcher) (*fetch.File, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if c.debug {
		debugf("fetching '%s' from folder %s to %s", c.name, c.folder, c.file)
	}

	file, err := fetcher.Fetch(ctx, c.folder, c.name, c.file)
	if err != nil {
		return file, err
	}

	infof("retrieved '%s' (ID:%s modified:%s size:%v) to %s", file.Name, file.ID, modified(file.Modified), file.Size, c.file)

	return file, nil
}

func modified(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	return t.Format("2006-01-02 15:04:05")
}

func helpOptions(flagset *flag.FlagSet) {
	listOptions(os.Stdout, flagset, flag.CommandLine)
}

// listOptions lists the command flags followed by the global flags that precede the command.
func listOptions(w io.Writer, flagset *flag.FlagSet, global *flag.FlagSet) {
	fmt.Fprintln(w, "  Options:")
	flagset.VisitAll(func(f *flag.Flag) {
		fmt.Fprintf(w, "    --%-15s %s\n", f.Name, f.Usage)
	})

	count := 0
	global.VisitAll(func(f *flag.Flag) {
		count++
	})

	if count > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "  Global options:")
		global.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(w, "    --%-15s %s\n", f.Name, f.Usage)
		})
	}
}

func debugf(format string, args ...any) {
	log.Printf("%-5s %s", "DEBUG", fmt.Sprintf(format, args...))
}

func infof(format string, args ...any) {
	log.Printf("%-5s %s", "INFO", fmt.Sprintf(format, args...))
}

func warnf(format string, args ...any) {
	log.Printf("%-5s %s", "WARN", fmt.Sprintf(format, args...))
}
