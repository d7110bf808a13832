package types

import "strings"

// Row is one result row with its column order preserved.
type Row struct {
	Columns []string
	Values  []any
}

// Get returns the value of the named column, matched case-insensitively.
func (r Row) Get(name string) (any, bool) {
	for i, c := range r.Columns {
		if strings.EqualFold(c, name) {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Map converts the row into a name to value map.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.Columns))
	for i, c := range r.Columns {
		m[c] = r.Values[i]
	}
	return m
}
