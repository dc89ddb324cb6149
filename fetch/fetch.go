package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

var ErrNotFound = errors.New("file not found")
var ErrIncomplete = errors.New("incomplete download")

// File is a reference to a file in a remote folder.
type File struct {
	ID       string
	Name     string
	MimeType string
	Size     int64
	Modified time.Time
}

type Provider interface {
	List(ctx context.Context, folder, name string) ([]File, error)
	Download(ctx context.Context, file File) (io.ReadCloser, error)
}

type Fetcher struct {
	provider Provider
}

func NewFetcher(provider Provider) *Fetcher {
	return &Fetcher{
		provider: provider,
	}
}

// Locate returns the first file in the folder matching the name. The provider lists matches most
// recently modified first.
func (f *Fetcher) Locate(ctx context.Context, folder, name string) (*File, error) {
	files, err := f.provider.List(ctx, folder, name)
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: '%s' in folder %s", ErrNotFound, name, folder)
	}

	file := files[0]

	return &file, nil
}

// Retrieve downloads the file and atomically replaces the destination with it. The destination is
// left untouched if the download fails for any reason.
func (f *Fetcher) Retrieve(ctx context.Context, file File, destination string) (int64, error) {
	r, err := f.provider.Download(ctx, file)
	if err != nil {
		return 0, err
	}

	defer r.Close()

	size := file.Size
	if file.MimeType == SPREADSHEET {
		size = 0
	}

	n, err := Replace(destination, r, size)
	if err != nil {
		return n, fmt.Errorf("error retrieving '%s' to %s (%w)", file.Name, destination, err)
	}

	return n, nil
}

// Fetch locates and retrieves the named file in a single step.
func (f *Fetcher) Fetch(ctx context.Context, folder, name, destination string) (*File, error) {
	file, err := f.Locate(ctx, folder, name)
	if err != nil {
		return nil, err
	}

	if _, err := f.Retrieve(ctx, *file, destination); err != nil {
		return file, err
	}

	return file, nil
}

// Replace writes the content to a temporary file alongside the destination and renames it into
// place once it is complete. A size greater than zero is checked against the number of bytes
// written.
func Replace(destination string, r io.Reader, size int64) (int64, error) {
	dir, name := filepath.Split(destination)
	if dir == "" {
		dir = "."
	}

	if err := os.MkdirAll(dir, 0770); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(dir, fmt.Sprintf(".%s.*", name))
	if err != nil {
		return 0, err
	}

	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	n, err := io.Copy(tmp, r)
	if err != nil {
		return n, err
	}

	if size > 0 && n != size {
		return n, fmt.Errorf("%w: received %v of %v bytes", ErrIncomplete, n, size)
	}

	if err := tmp.Sync(); err != nil {
		return n, err
	}

	if err := tmp.Close(); err != nil {
		return n, err
	}

	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return n, err
	}

	if err := os.Rename(tmp.Name(), destination); err != nil {
		return n, err
	}

	return n, nil
}
