package cli

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/zoobzio/dynql"
	"github.com/zoobzio/dynql/schema"
)

// operators in match order; two-character forms first.
var operators = []string{">=", "<=", "!=", "=", ">", "<", "~"}

type condition struct {
	column string
	op     string
	value  string
}

// parseCondition splits "age>=21" into column, operator and value.
func parseCondition(s string) (condition, error) {
	i := strings.IndexAny(s, "=!<>~")
	if i <= 0 {
		return condition{}, errors.Errorf("malformed condition %q, want column<op>value", s)
	}
	for _, op := range operators {
		if strings.HasPrefix(s[i:], op) {
			return condition{
				column: strings.TrimSpace(s[:i]),
				op:     op,
				value:  strings.TrimSpace(s[i+len(op):]),
			}, nil
		}
	}
	return condition{}, errors.Errorf("malformed condition %q, want column<op>value", s)
}

// criteria builds the conjunction of the --where conditions on table.
// Values are converted to the column's type where it can be resolved;
// "null" matches NULL and a comma-separated value matches any item.
func criteria(s *schema.DatabaseSchema, table string, wheres []string) (*dynql.Expression, error) {
	var parts []*dynql.Expression
	for _, w := range wheres {
		c, err := parseCondition(w)
		if err != nil {
			return nil, err
		}
		ref, err := dynql.TryCol(table + "." + c.column)
		if err != nil {
			return nil, err
		}
		col := resolveColumn(s, table, c.column)

		var value any
		switch {
		case strings.EqualFold(c.value, "null"):
			value = nil
		case c.op == "=" && strings.Contains(c.value, ","):
			items := strings.Split(c.value, ",")
			list := make([]any, len(items))
			for i, item := range items {
				if list[i], err = coerce(col, strings.TrimSpace(item)); err != nil {
					return nil, err
				}
			}
			value = list
		default:
			if value, err = coerce(col, c.value); err != nil {
				return nil, err
			}
		}

		switch c.op {
		case "=":
			parts = append(parts, dynql.Eq(ref, value))
		case "!=":
			parts = append(parts, dynql.Ne(ref, value))
		case ">":
			parts = append(parts, dynql.Gt(ref, value))
		case ">=":
			parts = append(parts, dynql.Ge(ref, value))
		case "<":
			parts = append(parts, dynql.Lt(ref, value))
		case "<=":
			parts = append(parts, dynql.Le(ref, value))
		case "~":
			parts = append(parts, dynql.Like(ref, c.value))
		}
	}
	if len(parts) == 0 {
		return dynql.Empty, nil
	}
	return dynql.And(parts...), nil
}

// resolveColumn follows a dotted column such as posts.views through the
// schema. It returns nil when any step is unknown.
func resolveColumn(s *schema.DatabaseSchema, table, column string) *schema.Column {
	path := strings.Split(column, ".")
	if len(path) > 1 {
		table = path[len(path)-2]
	}
	t, ok := s.TryFindTable(table)
	if !ok {
		return nil
	}
	col, ok := t.TryFindColumn(path[len(path)-1])
	if !ok {
		return nil
	}
	return col
}

// coerce converts a flag value to the Go type of col.
func coerce(col *schema.Column, s string) (any, error) {
	if col == nil {
		return s, nil
	}
	var (
		v   any
		err error
	)
	switch col.DbType {
	case schema.Int16, schema.Int32, schema.Int64:
		v, err = strconv.ParseInt(s, 10, 64)
	case schema.Decimal, schema.Double, schema.Single:
		v, err = strconv.ParseFloat(s, 64)
	case schema.Boolean:
		v, err = strconv.ParseBool(s)
	default:
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "column %s", col.ActualName)
	}
	return v, nil
}
