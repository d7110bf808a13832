package dynql

import (
	"github.com/zoobzio/dynql/internal/query"
	"github.com/zoobzio/dynql/internal/types"
	"github.com/zoobzio/dynql/schema"
)

// Result is a rendered statement and metadata about what it reads.
type Result struct {
	Metadata  QueryMetadata
	SQL       string
	Params    []BoundParam
	Templates []ParameterTemplate
	Unhandled []Clause
}

// QueryMetadata describes the table and columns a statement reads.
type QueryMetadata struct {
	Table   *schema.Table
	Columns []ColumnMetadata
}

// ColumnMetadata is one output column.
type ColumnMetadata struct {
	Name string // output name: the alias, or the column name
	Ref  *Reference
	// With is set for eager-loaded columns: the related table and whether
	// it is one of many rows.
	With     string
	WithMany bool
}

func newResult(res *query.Result) (*Result, error) {
	cmd, err := res.Command.Build()
	if err != nil {
		return nil, err
	}
	return &Result{
		Metadata: QueryMetadata{
			Table:   res.Table,
			Columns: columnMetadata(res.Columns),
		},
		SQL:       cmd.Text,
		Params:    cmd.Params,
		Templates: res.Command.Parameters(),
		Unhandled: res.Unhandled,
	}, nil
}

func columnMetadata(refs []*types.Reference) []ColumnMetadata {
	cols := make([]ColumnMetadata, 0, len(refs))
	for _, r := range refs {
		c := ColumnMetadata{Name: r.AliasOrName(), Ref: r}
		if table, many, ok := ParseWithAlias(r.Alias); ok {
			c.With, c.WithMany = table, many
		}
		cols = append(cols, c)
	}
	return cols
}

// Command returns the statement as an executable command.
func (r *Result) Command() *Command {
	return &Command{Text: r.SQL, Params: r.Params}
}

// Args returns the parameter values in placeholder order.
func (r *Result) Args() []any {
	return r.Command().Values()
}
