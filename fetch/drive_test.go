package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func fakeDrive(t *testing.T, handler http.HandlerFunc) *Drive {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	d, err := NewDrive(context.Background(),
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()))

	require.NoError(t, err)

	return d
}

func TestDriveList(t *testing.T) {
	var q, orderBy string

	d := fakeDrive(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/files") {
			http.NotFound(w, r)
			return
		}

		q = r.URL.Query().Get("q")
		orderBy = r.URL.Query().Get("orderBy")

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"files":[
		  {"id":"latest","name":"data.xlsx","mimeType":"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet","size":"1234","modifiedTime":"2025-03-02T10:11:12.345Z"},
		  {"id":"older","name":"data.xlsx","size":"999","modifiedTime":"2025-03-01T10:11:12.345Z"}
		]}`)
	})

	files, err := d.List(context.Background(), "1UyApTKtmY2OvscPLcxdH", "data.xlsx")
	require.NoError(t, err)

	assert.Equal(t, "'1UyApTKtmY2OvscPLcxdH' in parents and name = 'data.xlsx' and trashed = false", q)
	assert.Equal(t, "modifiedTime desc", orderBy)

	require.Len(t, files, 2)
	assert.Equal(t, "latest", files[0].ID)
	assert.Equal(t, int64(1234), files[0].Size)
	assert.Equal(t, 2025, files[0].Modified.Year())
	assert.Equal(t, "older", files[1].ID)
}

func TestDriveListWithMissingFolder(t *testing.T) {
	d := fakeDrive(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"code":404,"message":"File not found: 1UyApTKtmY2OvscPLcxdH."}}`)
	})

	_, err := d.List(context.Background(), "1UyApTKtmY2OvscPLcxdH", "data.xlsx")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDriveListWithServerError(t *testing.T) {
	d := fakeDrive(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"message":"Insufficient permissions"}}`)
	})

	_, err := d.List(context.Background(), "1UyApTKtmY2OvscPLcxdH", "data.xlsx")

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestDriveDownload(t *testing.T) {
	d := fakeDrive(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/files/abc") || r.URL.Query().Get("alt") != "media" {
			http.NotFound(w, r)
			return
		}

		fmt.Fprint(w, "qwerty")
	})

	r, err := d.Download(context.Background(), File{ID: "abc"})
	require.NoError(t, err)
	defer r.Close()

	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "qwerty", string(b))
}

func TestDriveDownloadExportsNativeSpreadsheets(t *testing.T) {
	var mimeType string

	d := fakeDrive(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/files/abc/export") {
			http.NotFound(w, r)
			return
		}

		mimeType = r.URL.Query().Get("mimeType")
		fmt.Fprint(w, "uiop")
	})

	r, err := d.Download(context.Background(), File{ID: "abc", MimeType: SPREADSHEET})
	require.NoError(t, err)
	defer r.Close()

	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "uiop", string(b))
	assert.Equal(t, XLSX, mimeType)
}

func TestQueryEscaping(t *testing.T) {
	expected := `'folder' in parents and name = 'Bob\'s \\data.xlsx' and trashed = false`

	assert.Equal(t, expected, query("folder", `Bob's \data.xlsx`))
}
