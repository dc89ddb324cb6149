package httpd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/uhppoted/uhppoted-app-drive/fetch"
	"github.com/uhppoted/uhppoted-app-drive/xlsx"
)

func workbook(t *testing.T, rows ...[]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var b bytes.Buffer
	require.NoError(t, f.Write(&b))

	return b.Bytes()
}

func get(t *testing.T, s *Server) *httptest.ResponseRecorder {
	t.Helper()

	rq := httptest.NewRequest(http.MethodGet, "/data", nil)
	w := httptest.NewRecorder()

	s.Handler().ServeHTTP(w, rq)

	return w
}

func TestDataWithMissingFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "data.xlsx")
	s := NewServer("", xlsx.File{Path: file}, Options{})

	for i := 0; i < 2; i++ {
		w := get(t, s)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var response map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Contains(t, response["error"], "error loading spreadsheet")
	}
}

func TestDataWithInvalidFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, os.WriteFile(file, []byte("not a spreadsheet"), 0644))

	w := get(t, NewServer("", xlsx.File{Path: file}, Options{}))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.NotEmpty(t, response["error"])
}

func TestData(t *testing.T) {
	file := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, os.WriteFile(file, workbook(t,
		[]any{"Card Number", "Name", "Active"},
		[]any{6001001, "Eine", true},
		[]any{6001002, "Zwei", false},
	), 0644))

	s := NewServer("", xlsx.File{Path: file}, Options{})

	first := get(t, s)
	second := get(t, s)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, `[{"Card Number":6001001,"Name":"Eine","Active":true},{"Card Number":6001002,"Name":"Zwei","Active":false}]`, first.Body.String())
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
}

func TestDataWithEmptySheet(t *testing.T) {
	file := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, os.WriteFile(file, workbook(t), 0644))

	w := get(t, NewServer("", xlsx.File{Path: file}, Options{}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `[]`, w.Body.String())
}

func TestDataWithUnsupportedMethod(t *testing.T) {
	s := NewServer("", xlsx.File{Path: filepath.Join(t.TempDir(), "data.xlsx")}, Options{})

	rq := httptest.NewRequest(http.MethodPost, "/data", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, rq)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDataDuringReplace(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "data.xlsx")

	small := workbook(t,
		[]any{"Card Number", "Name"},
		[]any{6001001, "Eine"},
	)

	large := workbook(t,
		[]any{"Card Number", "Name"},
		[]any{6001001, "Eine"},
		[]any{6001002, "Zwei"},
		[]any{6001003, "Drei"},
		[]any{6001004, "Vier"},
	)

	_, err := fetch.Replace(file, bytes.NewReader(small), int64(len(small)))
	require.NoError(t, err)

	for _, source := range []xlsx.Source{xlsx.File{Path: file}, xlsx.NewCache(file, "")} {
		s := NewServer("", source, Options{})

		var wg sync.WaitGroup
		done := make(chan struct{})
		failed := make(chan string, 256)

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer close(done)

			for i := 0; i < 20; i++ {
				content := small
				if i%2 == 0 {
					content = large
				}

				if _, err := fetch.Replace(file, bytes.NewReader(content), int64(len(content))); err != nil {
					failed <- err.Error()
					return
				}
			}
		}()

		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				for {
					select {
					case <-done:
						return
					default:
					}

					w := get(t, s)
					if w.Code != http.StatusOK {
						failed <- w.Body.String()
						return
					}

					var rows []map[string]any
					if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil {
						failed <- err.Error()
						return
					}

					if len(rows) != 1 && len(rows) != 4 {
						failed <- w.Body.String()
						return
					}
				}
			}()
		}

		wg.Wait()
		close(failed)

		for message := range failed {
			t.Errorf("Invalid response during file replace (%v)", message)
		}
	}
}
