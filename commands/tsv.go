package commands

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/uhppoted/uhppoted-app-drive/xlsx"
)

func rowsToTSV(f io.Writer, rows []xlsx.Row) error {
	if len(rows) == 0 {
		return nil
	}

	header := rows[0].Columns()

	w := csv.NewWriter(f)
	w.Comma = '\t'

	if err := w.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := make([]string, 0, len(header))
		for _, h := range header {
			v, _ := row.Get(h)
			record = append(record, format(v))
		}

		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

func format(v any) string {
	switch value := v.(type) {
	case nil:
		return ""

	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)

	default:
		return fmt.Sprintf("%v", value)
	}
}
