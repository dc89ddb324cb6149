package xlsx

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Load parses the worksheet in an xlsx file into rows. The first row is the header. A blank sheet
// name selects the first worksheet in the workbook.
func Load(path string, sheet string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	return rows(f, sheet)
}

// Read is Load for a workbook that is not on disk.
func Read(r io.Reader, sheet string) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	return rows(f, sheet)
}

func rows(f *excelize.File, sheet string) ([]Row, error) {
	name, err := worksheet(f, sheet)
	if err != nil {
		return nil, err
	}

	formatted, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("error reading worksheet '%s' (%w)", name, err)
	}

	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("error reading worksheet '%s' (%w)", name, err)
	}

	list := []Row{}
	if len(formatted) == 0 {
		return list, nil
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	width := 0
	for _, cells := range formatted {
		width = max(width, len(cells))
	}

	header := makeHeader(formatted[0], width)

	for i, cells := range formatted[1:] {
		if blank(cells) {
			continue
		}

		r := i + 2
		values := make([]any, width)
		for j := 0; j < len(cells) && j < width; j++ {
			v := ""
			if i+1 < len(raw) && j < len(raw[i+1]) {
				v = raw[i+1][j]
			}

			if values[j], err = value(f, name, j+1, r, cells[j], v, date1904); err != nil {
				return nil, err
			}
		}

		list = append(list, Row{
			columns: header,
			values:  values,
		})
	}

	return list, nil
}

func worksheet(f *excelize.File, sheet string) (string, error) {
	sheets := f.GetSheetList()

	if strings.TrimSpace(sheet) == "" {
		if len(sheets) == 0 {
			return "", fmt.Errorf("workbook has no worksheets")
		}

		return sheets[0], nil
	}

	for _, s := range sheets {
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(sheet)) {
			return s, nil
		}
	}

	return "", fmt.Errorf("no worksheet named '%s'", sheet)
}

// makeHeader names blank columns 'Unnamed: <index>' and suffixes repeated names with '.<n>'.
func makeHeader(cells []string, width int) []string {
	header := make([]string, width)
	used := map[string]bool{}

	for i := range header {
		name := ""
		if i < len(cells) {
			name = clean(cells[i])
		}

		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}

		base := name
		for n := 1; used[name]; n++ {
			name = fmt.Sprintf("%s.%d", base, n)
		}

		used[name] = true
		header[i] = name
	}

	return header
}

// value maps a cell to a JSON compatible value. Numbers formatted as dates or times are converted
// to ISO 8601 text, all other numbers (percentages and currencies included) keep their raw value.
func value(f *excelize.File, sheet string, col, row int, formatted, raw string, date1904 bool) (any, error) {
	if formatted == "" && raw == "" {
		return nil, nil
	}

	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, err
	}

	celltype, err := f.GetCellType(sheet, cell)
	if err != nil {
		return nil, fmt.Errorf("error reading cell %s!%s (%w)", sheet, cell, err)
	}

	switch celltype {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true"), nil

	case excelize.CellTypeUnset, excelize.CellTypeNumber, excelize.CellTypeDate:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return formatted, nil
		}

		switch numberFormat(f, sheet, cell) {
		case formatDate:
			if t, err := excelize.ExcelDateToTime(v, date1904); err == nil {
				return t.Format("2006-01-02T15:04:05"), nil
			}

		case formatTime:
			if t, err := excelize.ExcelDateToTime(v, date1904); err == nil {
				if v < 1 {
					return t.Format(time.TimeOnly), nil
				}

				return t.Format("2006-01-02T15:04:05"), nil
			}
		}

		return number(v), nil

	default:
		return formatted, nil
	}
}

type format int

const (
	formatNumber format = iota
	formatDate
	formatTime
)

// numberFormat classifies the number format applied to a cell.
func numberFormat(f *excelize.File, sheet, cell string) format {
	idx, err := f.GetCellStyle(sheet, cell)
	if err != nil || idx == 0 {
		return formatNumber
	}

	style, err := f.GetStyle(idx)
	if err != nil || style == nil {
		return formatNumber
	}

	if style.CustomNumFmt != nil {
		return classify(*style.CustomNumFmt)
	}

	switch {
	case style.NumFmt >= 14 && style.NumFmt <= 17:
		return formatDate
	case style.NumFmt == 22:
		return formatDate
	case style.NumFmt >= 18 && style.NumFmt <= 21:
		return formatTime
	case style.NumFmt >= 45 && style.NumFmt <= 47:
		return formatTime
	case (style.NumFmt >= 27 && style.NumFmt <= 36) || (style.NumFmt >= 50 && style.NumFmt <= 58):
		return formatDate
	}

	return formatNumber
}

// classify inspects a custom number format code for date and time tokens, ignoring quoted text,
// escaped characters and bracketed sections other than elapsed time ([h], [mm], [ss]).
func classify(code string) format {
	code = strings.ToLower(strings.SplitN(code, ";", 2)[0])

	var ymd, hms, m bool
	var quoted, escaped bool
	var bracket *strings.Builder

	for _, ch := range code {
		switch {
		case escaped:
			escaped = false

		case quoted:
			quoted = ch != '"'

		case bracket != nil:
			if ch != ']' {
				bracket.WriteRune(ch)
			} else {
				if elapsed(bracket.String()) {
					hms = true
				}
				bracket = nil
			}

		case ch == '\\':
			escaped = true

		case ch == '"':
			quoted = true

		case ch == '[':
			bracket = &strings.Builder{}

		case ch == 'y' || ch == 'd':
			ymd = true

		case ch == 'h' || ch == 's':
			hms = true

		case ch == 'm':
			m = true
		}
	}

	switch {
	case ymd:
		return formatDate
	case hms:
		return formatTime
	case m:
		return formatDate
	}

	return formatNumber
}

func elapsed(token string) bool {
	if token == "" {
		return false
	}

	for _, ch := range token {
		if ch != rune(token[0]) {
			return false
		}
	}

	return token[0] == 'h' || token[0] == 'm' || token[0] == 's'
}
