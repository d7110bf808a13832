// Package query turns a Query into a statement on a command.Builder.
//
// A build runs in fixed phases: resolve the root table and the projection,
// expand eager-load (with) clauses, then emit joins, WHERE, GROUP BY, HAVING
// and ORDER BY in that order. Skip, Take and ForUpdate are left for the
// dialect and handed back as unhandled clauses.
package query

import (
	"errors"
	"strings"

	"github.com/zoobzio/dynql/internal/command"
	"github.com/zoobzio/dynql/internal/format"
	"github.com/zoobzio/dynql/internal/types"
	"github.com/zoobzio/dynql/schema"
)

// Result is a built statement.
type Result struct {
	Command   *command.Builder
	Table     *schema.Table
	Columns   []*types.Reference
	Unhandled []types.Clause
}

// Builder builds one statement. It is not reusable.
type Builder struct {
	schema    *schema.DatabaseSchema
	dialect   format.Dialect
	functions format.FunctionNames

	cmd   *command.Builder
	refs  *format.ReferenceFormatter
	exprs *format.ExpressionFormatter

	query     types.Query
	table     *schema.Table
	root      *types.Reference
	path      []*types.Reference
	columns   []*types.Reference
	where     *types.Expression
	having    *types.Expression
	relations []withRelation
}

// NewBuilder returns a builder. bulkIndex is passed to the command builder.
func NewBuilder(s *schema.DatabaseSchema, d format.Dialect, functions format.FunctionNames, bulkIndex int) *Builder {
	cmd := command.NewBuilder(d, bulkIndex)
	refs := format.NewReferenceFormatter(s, cmd, d, functions)
	return &Builder{
		schema:    s,
		dialect:   d,
		functions: functions,
		cmd:       cmd,
		refs:      refs,
		exprs:     format.NewExpressionFormatter(refs),
	}
}

// Build renders q.
func (b *Builder) Build(q types.Query) (*Result, error) {
	b.query = q
	if err := b.setContext(); err != nil {
		return nil, err
	}

	joins, err := b.handleJoins()
	if err != nil {
		return nil, err
	}
	b.cmd.AppendFragment(joins)

	for _, phase := range []func() error{
		b.handleWhere,
		b.handleGrouping,
		b.handleHaving,
		b.handleOrderBy,
	} {
		if err := phase(); err != nil {
			return nil, err
		}
	}

	return &Result{
		Command:   b.cmd,
		Table:     b.table,
		Columns:   b.columns,
		Unhandled: b.unhandled(),
	}, nil
}

func (b *Builder) setContext() error {
	if err := b.resolveTable(); err != nil {
		return err
	}

	if selects := types.ClausesOf[types.SelectClause](b.query); len(selects) > 0 {
		for _, c := range selects[len(selects)-1].Columns {
			if c.Kind == types.RefAllColumns {
				b.columns = append(b.columns, b.expandAllColumns(c)...)
				continue
			}
			b.columns = append(b.columns, b.own(c))
		}
	} else {
		for _, col := range b.table.Columns() {
			b.columns = append(b.columns, b.root.Child(col.ActualName))
		}
	}

	if err := b.handleWithClauses(); err != nil {
		return err
	}

	b.where = types.Empty
	for _, w := range types.ClausesOf[types.WhereClause](b.query) {
		b.where = types.AndExpr(b.where, b.ownExpr(w.Criteria))
	}
	b.having = types.Empty
	for _, h := range types.ClausesOf[types.HavingClause](b.query) {
		b.having = types.AndExpr(b.having, b.ownExpr(h.Criteria))
	}

	return b.setSelect()
}

// resolveTable finds the root table. A dotted table name is either
// schema.table or a relation path such as Customers.Orders, whose last
// element is the root and whose earlier elements are joined back to it.
func (b *Builder) resolveTable() error {
	segments := strings.Split(b.query.TableName, ".")
	schemaName := ""
	path := segments
	if len(segments) > 1 && segments[0] != "" && !b.schema.IsTable(segments[0]) {
		schemaName, path = segments[0], segments[1:]
	}

	var err error
	if len(path) <= 1 {
		var on schema.ObjectName
		if on, err = b.schema.BuildObjectName(b.query.TableName); err != nil {
			return err
		}
		b.table, err = b.schema.FindTableName(on)
	} else {
		qualified := schemaName != ""
		if !qualified {
			schemaName = b.schema.DefaultSchema()
		}
		b.table, err = b.schema.FindTableName(schema.ObjectName{Schema: schemaName, Name: path[len(path)-1]})
		var ue schema.UnresolvableObjectError
		if qualified && errors.As(err, &ue) && !b.knownSchema(schemaName) {
			return schema.MalformedNameError{Name: b.query.TableName}
		}
	}
	if err != nil {
		return err
	}

	if b.table.Schema != "" {
		b.root = types.Object(b.table.Schema, b.table.ActualName)
	} else {
		b.root = types.Object(b.table.ActualName)
	}
	if len(path) > 1 {
		for i := len(path) - 1; i >= 0; i-- {
			b.path = append(b.path, types.Object(path[i]))
		}
	}
	return nil
}

// knownSchema reports whether any table lives in the named schema.
func (b *Builder) knownSchema(name string) bool {
	if strings.EqualFold(name, b.schema.DefaultSchema()) {
		return true
	}
	tables, err := b.schema.Tables()
	if err != nil {
		return false
	}
	for _, t := range tables {
		if strings.EqualFold(t.Schema, name) {
			return true
		}
	}
	return false
}

func (b *Builder) expandAllColumns(c *types.Reference) []*types.Reference {
	owner := c.Owner
	if owner == nil {
		owner = b.root
	}
	table, err := format.ResolveTable(b.schema, owner)
	if err != nil {
		return []*types.Reference{c}
	}
	cols := make([]*types.Reference, 0, len(table.Columns()))
	for _, col := range table.Columns() {
		cols = append(cols, owner.Child(col.ActualName))
	}
	return cols
}

func (b *Builder) setSelect() error {
	var list command.Fragment
	if len(b.columns) == 1 && b.columns[0].IsSpecial() {
		frag, err := b.refs.Format(b.columns[0])
		if err != nil {
			return err
		}
		list = frag
	} else {
		frags := make([]command.Fragment, 0, len(b.columns))
		for _, c := range b.columns {
			frag, err := b.refs.FormatColumnClause(c)
			if err != nil {
				return err
			}
			frags = append(frags, frag)
		}
		list = command.Join(frags, ",")
		if len(types.ClausesOf[types.DistinctClause](b.query)) > 0 {
			list = command.Concat(command.Text("distinct "), list)
		}
	}
	b.cmd.AppendFragment(command.Concat(
		command.Text("select "),
		list,
		command.Text(" from "+b.table.QualifiedName()),
	))
	return nil
}

func (b *Builder) handleWhere() error {
	if b.where.IsEmpty() {
		return nil
	}
	frag, err := b.exprs.Format(b.where)
	if err != nil {
		return err
	}
	b.cmd.AppendFragment(command.Concat(command.Text(" WHERE "), frag))
	return nil
}

func (b *Builder) handleGrouping() error {
	aggregated := false
	for _, c := range b.columns {
		if c.Kind == types.RefFunction && c.Aggregate {
			aggregated = true
			break
		}
	}
	if b.having.IsEmpty() && !aggregated {
		return nil
	}

	var groups []command.Fragment
	for _, c := range b.columns {
		if c.IsSpecial() || (c.Kind == types.RefFunction && c.Aggregate) {
			continue
		}
		frag, err := b.refs.FormatColumnClauseWithoutAlias(c)
		if err != nil {
			return err
		}
		groups = append(groups, frag)
	}
	if len(groups) == 0 {
		return nil
	}
	b.cmd.AppendFragment(command.Concat(command.Text(" GROUP BY "), command.Join(groups, ",")))
	return nil
}

func (b *Builder) handleHaving() error {
	if b.having.IsEmpty() {
		return nil
	}
	frag, err := b.exprs.Format(b.having)
	if err != nil {
		return err
	}
	b.cmd.AppendFragment(command.Concat(command.Text(" HAVING "), frag))
	return nil
}

func (b *Builder) handleOrderBy() error {
	orders := types.ClausesOf[types.OrderByClause](b.query)
	if len(orders) == 0 {
		return nil
	}
	items := make([]string, 0, len(orders))
	for _, o := range orders {
		item, err := b.orderByDirective(o.Ref)
		if err != nil {
			return err
		}
		if o.Direction == types.Descending {
			item += " DESC"
		}
		items = append(items, item)
	}
	b.cmd.Append(" ORDER BY " + strings.Join(items, ", "))
	return nil
}

// orderByDirective prefers an explicit table alias, then a select-list
// alias, then the column's qualified name.
func (b *Builder) orderByDirective(ref *types.Reference) (string, error) {
	if ref.Owner != nil && ref.Owner.Alias != "" {
		return b.dialect.QuoteObjectName(ref.Owner.Alias) + "." + b.dialect.QuoteObjectName(ref.Name), nil
	}
	if ref.Kind == types.RefObject && ref.Owner == nil {
		for _, c := range b.columns {
			if c.Alias != "" && strings.EqualFold(c.Alias, ref.Name) {
				return b.dialect.QuoteObjectName(c.Alias), nil
			}
		}
	}
	if ref.Kind != types.RefObject {
		frag, err := b.refs.Format(b.own(ref))
		if err != nil {
			return "", err
		}
		if !frag.IsText() {
			return "", types.NewInvalidQueryError("cannot order by %s", ref)
		}
		return frag.Key(), nil
	}
	owned := b.own(ref)
	table, err := format.ResolveTable(b.schema, owned.Owner)
	if err != nil {
		return "", err
	}
	col, err := table.FindColumn(owned.Name)
	if err != nil {
		return "", err
	}
	return col.QualifiedName(), nil
}

func (b *Builder) unhandled() []types.Clause {
	var out []types.Clause
	for _, c := range b.query.Clauses() {
		switch c.(type) {
		case types.SkipClause, types.TakeClause, types.ForUpdateClause:
			out = append(out, c)
		}
	}
	return out
}

// own attaches owner-less column references to the root table.
func (b *Builder) own(r *types.Reference) *types.Reference {
	if r == nil {
		return nil
	}
	switch r.Kind {
	case types.RefObject:
		if r.Owner == nil {
			c := *r
			c.Owner = b.root
			return &c
		}
	case types.RefFunction:
		c := *r
		c.Arg = b.own(r.Arg)
		return &c
	case types.RefMath:
		c := *r
		c.Left = b.ownOperand(r.Left)
		c.Right = b.ownOperand(r.Right)
		return &c
	case types.RefAllColumns:
		if r.Owner == nil {
			c := *r
			c.Owner = b.root
			return &c
		}
	}
	return r
}

func (b *Builder) ownOperand(v any) any {
	if ref, ok := v.(*types.Reference); ok {
		return b.own(ref)
	}
	return v
}

func (b *Builder) ownExpr(e *types.Expression) *types.Expression {
	if e.IsEmpty() {
		return types.Empty
	}
	c := *e
	switch e.Type {
	case types.And, types.Or:
		c.Left = b.ownExpr(e.LeftExpr())
		c.Right = b.ownExpr(e.RightExpr())
	case types.Not:
		c.Left = b.ownExpr(e.LeftExpr())
	default:
		c.Left = b.ownOperand(e.Left)
		c.Right = b.ownOperand(e.Right)
	}
	return &c
}

// isCoreTable reports whether ref is the unaliased root table.
func (b *Builder) isCoreTable(ref *types.Reference) bool {
	if ref == nil || ref.Alias != "" {
		return false
	}
	t, err := format.ResolveTable(b.schema, ref)
	return err == nil && t == b.table
}
