package dynql

import (
	"context"
	"fmt"
)

// Builder provides a fluent API for constructing and running a query
// against one Database.
type Builder struct {
	db    *Database
	query Query
	err   error
}

// From starts a query against table. The name is resolved loosely when the
// query is built.
func (db *Database) From(table string) *Builder {
	b := &Builder{db: db, query: NewQuery(table)}
	if err := validatePath(table); err != nil {
		b.err = fmt.Errorf("invalid table: %w", err)
	}
	return b
}

// Query returns the clauses collected so far.
func (b *Builder) Query() Query {
	return b.query
}

// Err returns the first error recorded by the builder.
func (b *Builder) Err() error {
	return b.err
}

func (b *Builder) add(c Clause) *Builder {
	if b.err != nil {
		return b
	}
	b.query = b.query.Add(c)
	return b
}

// Select sets the columns to read. A later call replaces an earlier one.
func (b *Builder) Select(columns ...*Reference) *Builder {
	for _, c := range columns {
		if c == nil {
			b.err = fmt.Errorf("Select() columns cannot be nil")
			return b
		}
	}
	return b.add(SelectClause{Columns: columns})
}

// Where adds criteria. Multiple calls are combined with AND.
func (b *Builder) Where(criteria *Expression) *Builder {
	if criteria == nil {
		return b
	}
	return b.add(WhereClause{Criteria: criteria})
}

// Having adds criteria on grouped rows.
func (b *Builder) Having(criteria *Expression) *Builder {
	if criteria == nil {
		return b
	}
	return b.add(HavingClause{Criteria: criteria})
}

// Join adds an inner join. A nil on infers the condition from foreign keys.
func (b *Builder) Join(table *Reference, on *Expression) *Builder {
	return b.join(table, InnerJoin, on)
}

// LeftJoin adds an outer join.
func (b *Builder) LeftJoin(table *Reference, on *Expression) *Builder {
	return b.join(table, OuterJoin, on)
}

func (b *Builder) join(table *Reference, jt JoinType, on *Expression) *Builder {
	if table == nil {
		b.err = fmt.Errorf("join table cannot be nil")
		return b
	}
	return b.add(JoinClause{Table: table, Type: jt, On: on})
}

// With eager-loads a related table, inferring whether it is one or many
// rows from the relation.
func (b *Builder) With(ref *Reference) *Builder {
	return b.with(ref, WithNotSpecified)
}

// WithOne eager-loads a related table as a single row.
func (b *Builder) WithOne(ref *Reference) *Builder {
	return b.with(ref, WithOne)
}

// WithMany eager-loads a related table as a list of rows.
func (b *Builder) WithMany(ref *Reference) *Builder {
	return b.with(ref, WithMany)
}

func (b *Builder) with(ref *Reference, wt WithType) *Builder {
	if ref == nil {
		b.err = fmt.Errorf("with reference cannot be nil")
		return b
	}
	return b.add(WithClause{Ref: ref, Type: wt})
}

// OrderBy adds an ascending sort.
func (b *Builder) OrderBy(ref *Reference) *Builder {
	return b.order(ref, ASC)
}

// OrderByDescending adds a descending sort.
func (b *Builder) OrderByDescending(ref *Reference) *Builder {
	return b.order(ref, DESC)
}

func (b *Builder) order(ref *Reference, d Direction) *Builder {
	if ref == nil {
		b.err = fmt.Errorf("order reference cannot be nil")
		return b
	}
	return b.add(OrderByClause{Ref: ref, Direction: d})
}

// Distinct removes duplicate rows.
func (b *Builder) Distinct() *Builder {
	return b.add(DistinctClause{})
}

// Skip omits the first n rows.
func (b *Builder) Skip(n int) *Builder {
	if n < 0 {
		b.err = fmt.Errorf("Skip() count cannot be negative: %d", n)
		return b
	}
	return b.add(SkipClause{Count: n})
}

// Take limits the result to n rows.
func (b *Builder) Take(n int) *Builder {
	if n < 0 {
		b.err = fmt.Errorf("Take() count cannot be negative: %d", n)
		return b
	}
	return b.add(TakeClause{Count: n})
}

// ForUpdate locks the selected rows. Dialects without row locking fail
// when the query runs.
func (b *Builder) ForUpdate(skipLocked bool) *Builder {
	return b.add(ForUpdateClause{SkipLocked: skipLocked})
}

// Build renders the query without its paging or locking clauses, which are
// returned in Result.Unhandled.
func (b *Builder) Build() (*Result, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.db.Build(b.query)
}

// SQL renders the complete statement with paging and locking applied.
func (b *Builder) SQL() (*Command, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.db.queryCommand(b.query)
}

// All runs the query and returns every row.
func (b *Builder) All(ctx context.Context) ([]Row, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.db.Query(ctx, b.query)
}

// First runs the query limited to one row.
func (b *Builder) First(ctx context.Context) (Row, bool, error) {
	if b.err != nil {
		return Row{}, false, b.err
	}
	rows, err := b.db.Query(ctx, b.query.Add(TakeClause{Count: 1}))
	if err != nil || len(rows) == 0 {
		return Row{}, false, err
	}
	return rows[0], true, nil
}

// Count runs the query as COUNT(*), ignoring its select list and sorting.
func (b *Builder) Count(ctx context.Context) (int64, error) {
	if b.err != nil {
		return 0, b.err
	}
	rows, err := b.db.Query(ctx, b.reduced(CountAll()))
	if err != nil {
		return 0, err
	}
	return scalarCount(rows)
}

// Exists reports whether the query returns any row.
func (b *Builder) Exists(ctx context.Context) (bool, error) {
	if b.err != nil {
		return false, b.err
	}
	rows, err := b.db.Query(ctx, b.reduced(ExistsMarker()).Add(TakeClause{Count: 1}))
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// reduced keeps the filtering clauses of the query and projects col.
func (b *Builder) reduced(col *Reference) Query {
	q := NewQuery(b.query.TableName)
	for _, c := range b.query.Clauses() {
		switch c.(type) {
		case WhereClause, JoinClause, HavingClause:
			q = q.Add(c)
		}
	}
	return q.Add(SelectClause{Columns: []*Reference{col}})
}
