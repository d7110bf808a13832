package command

import (
	"fmt"
	"strings"
	"sync"

	"github.com/zoobzio/dynql/internal/types"
	"github.com/zoobzio/dynql/schema"
)

var indexPluralizer = sync.OnceValue(schema.DefaultPluralizer)

// BoundParam is one driver-level parameter of a Command.
type BoundParam struct {
	Name     string
	Value    any
	Template ParameterTemplate
}

// Command is finalized SQL with its parameters in placeholder order.
type Command struct {
	Text   string
	Params []BoundParam
}

// Values returns the parameter values in order.
func (c *Command) Values() []any {
	out := make([]any, len(c.Params))
	for i, p := range c.Params {
		out[i] = p.Value
	}
	return out
}

// CommandTemplate is an immutable statement with open parameter slots. It is
// safe for concurrent use.
type CommandTemplate struct {
	dialect schema.Dialect
	parts   Fragment
	params  []ParameterTemplate
	index   map[string]int
}

// Parameters returns the slot templates in order.
func (t *CommandTemplate) Parameters() []ParameterTemplate {
	out := make([]ParameterTemplate, len(t.params))
	copy(out, t.params)
	return out
}

// Ordinal returns the position of a result column, matched
// case-insensitively and tolerating plural/singular differences.
func (t *CommandTemplate) Ordinal(column string) (int, bool) {
	if i, ok := t.index[schema.Homogenize(column)]; ok {
		return i, true
	}
	p := indexPluralizer()
	if i, ok := t.index[schema.Homogenize(p.Pluralize(column))]; ok {
		return i, true
	}
	if i, ok := t.index[schema.Homogenize(p.Singularize(column))]; ok {
		return i, true
	}
	return 0, false
}

// Bind fills the slots with values, in slot order, and renders the SQL.
// Parameters come out in the order their placeholders appear in the text.
func (t *CommandTemplate) Bind(values []any) (*Command, error) {
	if len(values) != len(t.params) {
		return nil, fmt.Errorf("command template has %d parameters, got %d values", len(t.params), len(values))
	}

	var sql strings.Builder
	var bound []BoundParam
	emit := func(name string, value any, p ParameterTemplate) {
		bound = append(bound, BoundParam{Name: name, Value: value, Template: p})
		sql.WriteString(t.dialect.NameParameter(name))
	}

	for _, part := range t.parts {
		switch part.Kind {
		case PartText:
			sql.WriteString(part.Text)
		case PartParam:
			p, v := t.params[part.Param], values[part.Param]
			if k := bindKind(p, v); k == types.ValueRange || k == types.ValueList {
				return nil, types.NewInvalidQueryError("parameter %s cannot take a %s value", p.Name, k)
			}
			emit(p.Name, v, p)
		case PartComparison:
			t.bindComparison(&sql, part, values[part.Param], emit)
		}
	}

	return &Command{Text: sql.String(), Params: bound}, nil
}

func (t *CommandTemplate) bindComparison(sql *strings.Builder, part Part, v any, emit func(string, any, ParameterTemplate)) {
	c := part.Cmp
	p := t.params[part.Param]
	kind := bindKind(p, v)
	if kind == types.ValueList && len(types.Elements(v)) == 0 {
		// Nothing is IN an empty list; everything is NOT IN it.
		if c.Negated {
			sql.WriteString("1=1")
		} else {
			sql.WriteString("1=0")
		}
		return
	}
	sql.WriteString(c.Left)
	switch kind {
	case types.ValueNull:
		if c.Negated {
			sql.WriteString(" IS NOT NULL")
		} else {
			sql.WriteString(" IS NULL")
		}
	case types.ValueRange:
		r, _ := types.RangeOf(v)
		if c.Negated {
			sql.WriteString(" NOT")
		}
		sql.WriteString(" BETWEEN ")
		emit(p.Name+"_start", r.Start, p)
		sql.WriteString(" AND ")
		emit(p.Name+"_end", r.End, p)
	case types.ValueList:
		items := types.Elements(v)
		if c.Negated {
			sql.WriteString(" NOT")
		}
		sql.WriteString(" IN (")
		for i, item := range items {
			if i > 0 {
				sql.WriteString(",")
			}
			emit(fmt.Sprintf("%s_%d", p.Name, i), item, p)
		}
		sql.WriteString(")")
	default:
		sql.WriteString(" " + c.Operator + " ")
		emit(p.Name, v, p)
	}
}
