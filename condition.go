package dynql

import (
	"sort"

	"github.com/zoobzio/dynql/internal/types"
)

// Pair is a column name and the value it must equal.
type Pair struct {
	Column string
	Value  any
}

// P builds a Pair.
func P(column string, value any) Pair {
	return Pair{Column: column, Value: value}
}

// Criteria conjoins column = value for each pair, in order. Columns are
// resolved against table.
func Criteria(table string, pairs ...Pair) *Expression {
	owner := types.ParseObject(table)
	out := types.Empty
	for _, p := range pairs {
		out = types.AndExpr(out, types.Compare(owner.Child(p.Column), types.Equal, p.Value))
	}
	return out
}

// CriteriaFromMap is Criteria over a map, with keys taken in sorted order
// so equal maps yield equal expressions.
func CriteriaFromMap(table string, m map[string]any) *Expression {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]Pair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, Pair{Column: k, Value: m[k]})
	}
	return Criteria(table, pairs...)
}
