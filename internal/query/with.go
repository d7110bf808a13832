package query

import (
	"fmt"
	"strings"

	"github.com/zoobzio/dynql/internal/format"
	"github.com/zoobzio/dynql/internal/types"
	"github.com/zoobzio/dynql/schema"
)

type withRelation struct {
	table *types.Reference
	rel   schema.RelationType
}

// handleWithClauses adds the columns of eagerly loaded tables and aliases
// them so the materializer can fold them back into nested records:
// __with1__<table>__<column> for a single related row, __withn__ for many.
func (b *Builder) handleWithClauses() error {
	withs := types.ClausesOf[types.WithClause](b.query)
	if len(withs) == 0 {
		return nil
	}
	joins := types.ClausesOf[types.JoinClause](b.query)

	for _, w := range withs {
		ref := w.Ref
		if ref.Owner == nil {
			if j, ok := findJoin(joins, ref.AliasOrName()); ok {
				if err := b.addWithColumns(j.Table, withRelationType(w.Type, schema.OneToMany)); err != nil {
					return err
				}
				continue
			}
			// No explicit join: treat it as a relation of the root table.
			c := *ref
			c.Owner = b.root
			ref = &c
		}
		t := w.Type
		if t == types.WithNotSpecified {
			t = b.inferWithType(ref)
		}
		if err := b.addWithColumns(ref, withRelationType(t, schema.NoRelation)); err != nil {
			return err
		}
	}

	for i, c := range b.columns {
		if c.Kind != types.RefObject || c.Owner == nil || b.isCoreTable(c.Owner) {
			continue
		}
		rel, ok := b.relationOf(c.Owner)
		if !ok {
			continue
		}
		aliased, err := b.withAlias(c, rel)
		if err != nil {
			return err
		}
		b.columns[i] = aliased
	}
	return nil
}

func findJoin(joins []types.JoinClause, name string) (types.JoinClause, bool) {
	for _, j := range joins {
		if strings.EqualFold(j.Table.AliasOrName(), name) {
			return j, true
		}
	}
	return types.JoinClause{}, false
}

func (b *Builder) addWithColumns(table *types.Reference, rel schema.RelationType) error {
	t, err := format.ResolveTable(b.schema, table)
	if err != nil {
		return err
	}
	for _, col := range t.Columns() {
		b.columns = append(b.columns, table.Child(col.ActualName))
	}
	b.relations = append(b.relations, withRelation{table: table, rel: rel})
	return nil
}

func (b *Builder) relationOf(table *types.Reference) (schema.RelationType, bool) {
	for _, r := range b.relations {
		if r.table.Equal(table) {
			return r.rel, true
		}
	}
	return schema.NoRelation, false
}

// inferWithType walks the relation path and reports Many as soon as one
// step goes from master to detail.
func (b *Builder) inferWithType(ref *types.Reference) types.WithType {
	for cur := ref; cur.Owner != nil && !format.IsSchemaOwner(b.schema, cur.Owner); cur = cur.Owner {
		to, err := format.ResolveTable(b.schema, cur)
		if err != nil {
			break
		}
		from, err := format.ResolveTable(b.schema, cur.Owner)
		if err != nil {
			break
		}
		if from.RelationTo(to) == schema.OneToMany {
			return types.WithMany
		}
	}
	return types.WithNotSpecified
}

func (b *Builder) withAlias(c *types.Reference, rel schema.RelationType) (*types.Reference, error) {
	owner := c.Owner
	if rel == schema.NoRelation && owner.Owner != nil && !format.IsSchemaOwner(b.schema, owner.Owner) {
		from, err := format.ResolveTable(b.schema, owner.Owner)
		if err != nil {
			return nil, err
		}
		to, err := format.ResolveTable(b.schema, owner)
		if err != nil {
			return nil, err
		}
		rel = from.RelationTo(to)
	}
	if rel == schema.NoRelation {
		return nil, types.NewInvalidQueryError("no join found for with clause on %s", owner)
	}
	cardinality := "1"
	if rel == schema.OneToMany {
		cardinality = "n"
	}
	return c.As(fmt.Sprintf("__with%s__%s__%s", cardinality, owner.AliasOrName(), c.Name)), nil
}

func withRelationType(t types.WithType, fallback schema.RelationType) schema.RelationType {
	switch t {
	case types.WithOne:
		return schema.ManyToOne
	case types.WithMany:
		return schema.OneToMany
	default:
		return fallback
	}
}
