package query

import (
	"strings"

	"github.com/zoobzio/dynql/internal/command"
	"github.com/zoobzio/dynql/internal/types"
	"github.com/zoobzio/dynql/schema"
)

// FindBy builds select-all from table restricted by criteria.
func (b *Builder) FindBy(table string, criteria *types.Expression) (*Result, error) {
	return b.Build(types.NewQuery(table).Where(criteria))
}

// Insert builds an insert of the writeable columns present in data.
// Keys match column names case-insensitively; unknown keys are ignored.
func (b *Builder) Insert(table string, data map[string]any) (*Result, error) {
	if err := b.useTable(table); err != nil {
		return nil, err
	}
	values := homogenizedKeys(data)

	var names []string
	var params []command.Fragment
	for _, col := range b.table.Columns() {
		v, ok := values[col.HomogenizedName()]
		if !ok || !col.IsWriteable {
			continue
		}
		names = append(names, col.QuotedName())
		params = append(params, b.cmd.Parameter(v, col))
	}
	if len(names) == 0 {
		return nil, types.NewInvalidQueryError("no writeable columns of %s in data", b.table.ActualName)
	}

	b.cmd.AppendFragment(command.Concat(
		command.Text("insert into "+b.table.QualifiedName()+" ("+strings.Join(names, ",")+") values ("),
		command.Join(params, ","),
		command.Text(")"),
	))
	return b.result(), nil
}

// Update builds an update of the writeable columns present in data for the
// rows matching criteria. Empty criteria updates every row.
func (b *Builder) Update(table string, data map[string]any, criteria *types.Expression) (*Result, error) {
	if err := b.useTable(table); err != nil {
		return nil, err
	}
	if err := b.setList(data, nil); err != nil {
		return nil, err
	}
	if err := b.appendWhere(criteria); err != nil {
		return nil, err
	}
	return b.result(), nil
}

// UpdateByKey builds an update keyed on the primary key values in data.
func (b *Builder) UpdateByKey(table string, data map[string]any) (*Result, error) {
	if err := b.useTable(table); err != nil {
		return nil, err
	}
	key := b.table.PrimaryKey()
	if len(key) == 0 {
		return nil, types.NewInvalidQueryError("table %s has no primary key", b.table.ActualName)
	}

	values := homogenizedKeys(data)
	criteria := types.Empty
	skip := make(map[string]bool, len(key))
	for _, k := range key {
		h := schema.Homogenize(k)
		v, ok := values[h]
		if !ok {
			return nil, types.NewInvalidQueryError("data for %s is missing key column %s", b.table.ActualName, k)
		}
		skip[h] = true
		criteria = types.AndExpr(criteria, types.Compare(b.root.Child(k), types.Equal, v))
	}

	if err := b.setList(data, skip); err != nil {
		return nil, err
	}
	if err := b.appendWhere(criteria); err != nil {
		return nil, err
	}
	return b.result(), nil
}

// Delete builds a delete of the rows matching criteria. Empty criteria
// deletes every row.
func (b *Builder) Delete(table string, criteria *types.Expression) (*Result, error) {
	if err := b.useTable(table); err != nil {
		return nil, err
	}
	b.cmd.Append("delete from " + b.table.QualifiedName())
	if err := b.appendWhere(criteria); err != nil {
		return nil, err
	}
	return b.result(), nil
}

func (b *Builder) useTable(name string) error {
	b.query = types.NewQuery(name)
	return b.resolveTable()
}

func (b *Builder) setList(data map[string]any, skip map[string]bool) error {
	values := homogenizedKeys(data)
	var sets []command.Fragment
	for _, col := range b.table.Columns() {
		v, ok := values[col.HomogenizedName()]
		if !ok || !col.IsWriteable || skip[col.HomogenizedName()] {
			continue
		}
		sets = append(sets, command.Concat(command.Text(col.QuotedName()+" = "), b.cmd.Parameter(v, col)))
	}
	if len(sets) == 0 {
		return types.NewInvalidQueryError("no writeable columns of %s to update", b.table.ActualName)
	}
	b.cmd.AppendFragment(command.Concat(
		command.Text("update "+b.table.QualifiedName()+" set "),
		command.Join(sets, ", "),
	))
	return nil
}

func (b *Builder) appendWhere(criteria *types.Expression) error {
	b.where = b.ownExpr(criteria)
	return b.handleWhere()
}

func (b *Builder) result() *Result {
	return &Result{Command: b.cmd, Table: b.table}
}

func homogenizedKeys(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[schema.Homogenize(k)] = v
	}
	return out
}

// CriteriaColumns returns the homogenized names of the columns compared in
// criteria, through And, Or and Not.
func CriteriaColumns(criteria *types.Expression) map[string]bool {
	out := make(map[string]bool)
	var walk func(e *types.Expression)
	walk = func(e *types.Expression) {
		if e.IsEmpty() {
			return
		}
		switch e.Type {
		case types.And, types.Or:
			walk(e.LeftExpr())
			walk(e.RightExpr())
		case types.Not:
			walk(e.LeftExpr())
		default:
			for _, v := range []any{e.Left, e.Right} {
				if r, ok := v.(*types.Reference); ok && r.Kind == types.RefObject {
					out[schema.Homogenize(r.Name)] = true
				}
			}
		}
	}
	walk(criteria)
	return out
}
