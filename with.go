package dynql

import "strings"

const withPrefix = "__with"

// ParseWithAlias reads the table name and cardinality from an eager-load
// column alias of the form __with1__<table>__<column> (one related row)
// or __withn__<table>__<column> (many).
func ParseWithAlias(alias string) (table string, many bool, ok bool) {
	rest, found := strings.CutPrefix(alias, withPrefix)
	if !found || len(rest) < 3 || rest[1:3] != "__" {
		return "", false, false
	}
	switch rest[0] {
	case '1':
	case 'n':
		many = true
	default:
		return "", false, false
	}
	table, column, found := strings.Cut(rest[3:], "__")
	if !found || table == "" || column == "" {
		return "", false, false
	}
	return table, many, true
}
