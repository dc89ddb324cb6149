package xlsx

import (
	"bytes"
	"encoding/json"
)

// Row is a single spreadsheet row keyed by the header columns. It marshals to a JSON object with
// the keys in worksheet column order.
type Row struct {
	columns []string
	values  []any
}

func (r Row) Columns() []string {
	return r.columns
}

func (r Row) Get(column string) (any, bool) {
	for i, c := range r.columns {
		if c == column {
			return r.values[i], true
		}
	}

	return nil, false
}

func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.columns))
	for i, c := range r.columns {
		m[c] = r.values[i]
	}

	return m
}

func (r Row) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer

	b.WriteByte('{')
	for i, c := range r.columns {
		if i > 0 {
			b.WriteByte(',')
		}

		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}

		value, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}

		b.Write(key)
		b.WriteByte(':')
		b.Write(value)
	}
	b.WriteByte('}')

	return b.Bytes(), nil
}
