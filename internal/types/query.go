package types

// Query is a table name plus an ordered clause list. Adding a clause
// returns a new Query; the receiver is never modified.
type Query struct {
	TableName string
	clauses   []Clause
}

// NewQuery starts a query against table.
func NewQuery(table string) Query {
	return Query{TableName: table}
}

// Clauses returns a copy of the clause list.
func (q Query) Clauses() []Clause {
	out := make([]Clause, len(q.clauses))
	copy(out, q.clauses)
	return out
}

// Add returns a new Query with clauses appended.
func (q Query) Add(clauses ...Clause) Query {
	next := make([]Clause, len(q.clauses), len(q.clauses)+len(clauses))
	copy(next, q.clauses)
	return Query{TableName: q.TableName, clauses: append(next, clauses...)}
}

func (q Query) Select(columns ...*Reference) Query {
	return q.Add(SelectClause{Columns: columns})
}

func (q Query) Where(criteria *Expression) Query {
	return q.Add(WhereClause{Criteria: criteria})
}

func (q Query) Having(criteria *Expression) Query {
	return q.Add(HavingClause{Criteria: criteria})
}

// Join adds an inner join. Passing nil for on infers the condition.
func (q Query) Join(table *Reference, on *Expression) Query {
	return q.Add(JoinClause{Table: table, Type: InnerJoin, On: on})
}

// LeftJoin adds an outer join.
func (q Query) LeftJoin(table *Reference, on *Expression) Query {
	return q.Add(JoinClause{Table: table, Type: OuterJoin, On: on})
}

func (q Query) With(ref *Reference) Query {
	return q.Add(WithClause{Ref: ref})
}

func (q Query) WithOne(ref *Reference) Query {
	return q.Add(WithClause{Ref: ref, Type: WithOne})
}

func (q Query) WithMany(ref *Reference) Query {
	return q.Add(WithClause{Ref: ref, Type: WithMany})
}

func (q Query) OrderBy(ref *Reference) Query {
	return q.Add(OrderByClause{Ref: ref})
}

func (q Query) OrderByDescending(ref *Reference) Query {
	return q.Add(OrderByClause{Ref: ref, Direction: Descending})
}

func (q Query) Distinct() Query {
	return q.Add(DistinctClause{})
}

func (q Query) Skip(n int) Query {
	return q.Add(SkipClause{Count: n})
}

func (q Query) Take(n int) Query {
	return q.Add(TakeClause{Count: n})
}

func (q Query) ForUpdate(skipLocked bool) Query {
	return q.Add(ForUpdateClause{SkipLocked: skipLocked})
}

// ClausesOf returns the clauses of q with concrete type T, in order.
func ClausesOf[T Clause](q Query) []T {
	var out []T
	for _, c := range q.clauses {
		if t, ok := c.(T); ok {
			out = append(out, t)
		}
	}
	return out
}
