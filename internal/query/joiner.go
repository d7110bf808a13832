package query

import (
	"strings"

	"github.com/zoobzio/dynql/internal/command"
	"github.com/zoobzio/dynql/internal/format"
	"github.com/zoobzio/dynql/internal/types"
	"github.com/zoobzio/dynql/schema"
)

// handleJoins collects joins from the table path, explicit join clauses,
// the WHERE and HAVING criteria and the select list, in that order. Exact
// duplicates are dropped, as is any LEFT join whose inner twin is present.
func (b *Builder) handleJoins() (command.Fragment, error) {
	explicit := types.ClausesOf[types.JoinClause](b.query)
	if b.where.IsEmpty() && b.having.IsEmpty() && len(explicit) == 0 && allCounts(b.columns) {
		return nil, nil
	}

	var joins []command.Fragment
	add := func(fs []command.Fragment, err error) error {
		if err != nil {
			return err
		}
		joins = append(joins, fs...)
		return nil
	}

	if err := add(b.pathJoins()); err != nil {
		return nil, err
	}
	if err := add(b.explicitJoins(explicit)); err != nil {
		return nil, err
	}
	if err := add(b.refJoins(b.where.References(), explicit, types.InnerJoin)); err != nil {
		return nil, err
	}
	if err := add(b.refJoins(b.having.References(), explicit, types.InnerJoin)); err != nil {
		return nil, err
	}
	if !allSpecial(b.columns) {
		var refs []*types.Reference
		for _, c := range b.columns {
			types.WalkObjects(c, func(r *types.Reference) { refs = append(refs, r) })
		}
		if err := add(b.refJoins(refs, explicit, types.OuterJoin)); err != nil {
			return nil, err
		}
	}

	joins = dedupeJoins(joins)
	if len(joins) == 0 {
		return nil, nil
	}
	return command.Concat(command.Text(" "), command.Join(joins, " ")), nil
}

func allCounts(columns []*types.Reference) bool {
	for _, c := range columns {
		if c.Kind != types.RefCount {
			return false
		}
	}
	return true
}

func allSpecial(columns []*types.Reference) bool {
	for _, c := range columns {
		if !c.IsSpecial() {
			return false
		}
	}
	return true
}

func dedupeJoins(joins []command.Fragment) []command.Fragment {
	seen := make(map[string]bool, len(joins))
	var out []command.Fragment
	for _, j := range joins {
		j = j.TrimSpace()
		key := j.Key()
		if len(j) == 0 || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, j)
	}

	inner := make(map[string]bool, len(out))
	for _, j := range out {
		inner[strings.ToLower(j.Key())] = true
	}
	kept := out[:0]
	for _, j := range out {
		if j.HasPrefixFold("LEFT ") && inner[strings.ToLower(j.TrimPrefix(len("LEFT ")).Key())] {
			continue
		}
		kept = append(kept, j)
	}
	return kept
}

// pathJoins joins the tables of a dotted relation path back from the root.
func (b *Builder) pathJoins() ([]command.Fragment, error) {
	var joins []command.Fragment
	for i := 1; i < len(b.path); i++ {
		from := b.path[i-1]
		if i == 1 {
			from = b.root
		}
		j, err := b.join(from, b.path[i], types.InnerJoin)
		if err != nil {
			return nil, err
		}
		joins = append(joins, j)
	}
	return joins, nil
}

func (b *Builder) explicitJoins(clauses []types.JoinClause) ([]command.Fragment, error) {
	joins := make([]command.Fragment, 0, len(clauses))
	for _, jc := range clauses {
		if jc.On.IsEmpty() {
			from := jc.Table.Owner
			if from == nil || format.IsSchemaOwner(b.schema, from) {
				from = b.root
			}
			j, err := b.join(from, jc.Table, jc.Type)
			if err != nil {
				return nil, err
			}
			joins = append(joins, j)
			continue
		}

		table, err := format.ResolveTable(b.schema, jc.Table)
		if err != nil {
			return nil, err
		}
		on, err := b.exprs.Format(b.ownExpr(jc.On))
		if err != nil {
			return nil, err
		}
		if jc.On.Type != types.And && jc.On.Type != types.Or {
			on = command.Wrap("(", on, ")")
		}
		joins = append(joins, command.Concat(
			command.Text(b.joinHead(table, jc.Table.Alias, jc.Type)+" ON "),
			on,
		))
	}
	return joins, nil
}

// refJoins joins the owner chain of each column reference. A chain that
// passes through an explicitly joined table starts there, otherwise it is
// joined from the root.
func (b *Builder) refJoins(refs []*types.Reference, explicit []types.JoinClause, jt types.JoinType) ([]command.Fragment, error) {
	var joins []command.Fragment
	for _, r := range refs {
		chain := b.tableChain(r.Owner)
		if len(chain) == 0 {
			continue
		}

		start := -1
		for i, t := range chain {
			if _, ok := findJoin(explicit, t.AliasOrName()); ok {
				start = i
			}
		}
		if start < 0 {
			if b.isCoreTable(chain[0]) {
				start = 0
			} else {
				chain = append([]*types.Reference{b.root}, chain...)
				start = 0
			}
		}

		for i := start + 1; i < len(chain); i++ {
			j, err := b.join(chain[i-1], chain[i], jt)
			if err != nil {
				return nil, err
			}
			joins = append(joins, j)
		}
	}
	return joins, nil
}

// tableChain lists the table references owning a column, outermost first,
// without any schema qualifier.
func (b *Builder) tableChain(table *types.Reference) []*types.Reference {
	var chain []*types.Reference
	for cur := table; cur != nil; cur = cur.Owner {
		if cur.Owner == nil && cur != table && format.IsSchemaOwner(b.schema, cur) {
			break
		}
		chain = append([]*types.Reference{cur}, chain...)
	}
	return chain
}

// join renders a foreign-key join from one table reference to the next.
func (b *Builder) join(from, to *types.Reference, jt types.JoinType) (command.Fragment, error) {
	fromTable, err := format.ResolveTable(b.schema, from)
	if err != nil {
		return nil, err
	}
	toTable, err := format.ResolveTable(b.schema, to)
	if err != nil {
		return nil, err
	}

	fromQualifier := b.qualifier(from, fromTable)
	toQualifier := b.qualifier(to, toTable)

	var pairs []string
	if fk := fromTable.GetMaster(toTable); fk != nil {
		pairs = b.keyPairs(toQualifier, toTable, fk.UniqueColumns, fromQualifier, fromTable, fk.Columns)
	} else if fk := fromTable.GetDetail(toTable); fk != nil {
		pairs = b.keyPairs(fromQualifier, fromTable, fk.UniqueColumns, toQualifier, toTable, fk.Columns)
	} else {
		return nil, types.NewInvalidQueryError("no join found between %s and %s", fromTable.ActualName, toTable.ActualName)
	}

	return command.Text(b.joinHead(toTable, to.Alias, jt) + " ON (" + strings.Join(pairs, " AND ") + ")"), nil
}

func (b *Builder) joinHead(table *schema.Table, alias string, jt types.JoinType) string {
	head := "JOIN " + table.QualifiedName()
	if alias != "" {
		head += " " + b.dialect.QuoteObjectName(alias)
	}
	if jt == types.OuterJoin {
		head = "LEFT " + head
	}
	return head
}

func (b *Builder) qualifier(ref *types.Reference, table *schema.Table) string {
	if ref.Alias != "" {
		return b.dialect.QuoteObjectName(ref.Alias)
	}
	return table.QualifiedName()
}

// keyPairs renders master.unique = detail.column for each key column.
func (b *Builder) keyPairs(masterQ string, master *schema.Table, unique schema.Key, detailQ string, detail *schema.Table, columns schema.Key) []string {
	pairs := make([]string, 0, len(columns))
	for i := range columns {
		if i >= len(unique) {
			break
		}
		pairs = append(pairs, masterQ+"."+b.quoteColumn(master, unique[i])+" = "+detailQ+"."+b.quoteColumn(detail, columns[i]))
	}
	return pairs
}

func (b *Builder) quoteColumn(t *schema.Table, name string) string {
	if c, ok := t.TryFindColumn(name); ok {
		return c.QuotedName()
	}
	return b.dialect.QuoteObjectName(name)
}
