package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	SPREADSHEET = "application/vnd.google-apps.spreadsheet"
	XLSX        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Drive is the Google Drive v3 implementation of Provider.
type Drive struct {
	gdrive *drive.Service
}

func NewDrive(ctx context.Context, opts ...option.ClientOption) (*Drive, error) {
	gdrive, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create new Google Drive client (%w)", err)
	}

	return &Drive{
		gdrive: gdrive,
	}, nil
}

// List returns the untrashed files in the folder with exactly the given name, most recently
// modified first.
func (d *Drive) List(ctx context.Context, folder, name string) ([]File, error) {
	q := query(folder, name)

	response, err := d.gdrive.Files.List().
		Q(q).
		Fields(googleapi.Field("files(id, name, mimeType, size, modifiedTime)")).
		OrderBy("modifiedTime desc").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()

	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: folder %s (%v)", ErrNotFound, folder, gerr.Message)
		}

		return nil, fmt.Errorf("unable to list files in folder %s (%w)", folder, err)
	}

	files := make([]File, 0, len(response.Files))
	for _, f := range response.Files {
		file := File{
			ID:       f.Id,
			Name:     f.Name,
			MimeType: f.MimeType,
			Size:     f.Size,
		}

		if f.ModifiedTime != "" {
			if t, err := time.Parse(time.RFC3339Nano, f.ModifiedTime); err == nil {
				file.Modified = t
			}
		}

		files = append(files, file)
	}

	return files, nil
}

// Download opens the file content. Native Google Sheets have no binary content of their own and are
// exported as xlsx instead.
func (d *Drive) Download(ctx context.Context, file File) (io.ReadCloser, error) {
	var response *http.Response
	var err error

	if file.MimeType == SPREADSHEET {
		response, err = d.gdrive.Files.Export(file.ID, XLSX).Context(ctx).Download()
	} else {
		response, err = d.gdrive.Files.Get(file.ID).SupportsAllDrives(true).Context(ctx).Download()
	}

	if err != nil {
		return nil, fmt.Errorf("unable to download file ID %s (%w)", file.ID, err)
	}

	return response.Body, nil
}

func query(folder, name string) string {
	return fmt.Sprintf("'%s' in parents and name = '%s' and trashed = false", escape(folder), escape(name))
}

func escape(v string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
}
