package types

// Clause is one element of a Query. The set of clause types is closed.
type Clause interface {
	clause()
}

// SelectClause replaces the default all-columns projection.
type SelectClause struct {
	Columns []*Reference
}

// WhereClause restricts rows. Several are conjoined.
type WhereClause struct {
	Criteria *Expression
}

// HavingClause restricts groups. Several are conjoined.
type HavingClause struct {
	Criteria *Expression
}

// JoinType selects INNER or LEFT joins.
type JoinType uint8

const (
	InnerJoin JoinType = iota
	OuterJoin
)

// JoinClause joins Table, optionally aliased. A nil or empty On lets the
// builder infer the condition from foreign keys.
type JoinClause struct {
	Table *Reference
	Type  JoinType
	On    *Expression
}

// WithType is the requested cardinality of an eager-loaded relation.
type WithType uint8

const (
	WithNotSpecified WithType = iota
	WithOne
	WithMany
)

// WithClause eagerly includes a related table's columns.
type WithClause struct {
	Ref  *Reference
	Type WithType
}

// Direction is an ORDER BY direction.
type Direction uint8

const (
	Ascending Direction = iota
	Descending
)

// OrderByClause orders by one reference.
type OrderByClause struct {
	Ref       *Reference
	Direction Direction
}

// DistinctClause makes the projection DISTINCT.
type DistinctClause struct{}

// SkipClause skips Count rows. Left to the dialect pager.
type SkipClause struct {
	Count int
}

// TakeClause limits to Count rows. Left to the dialect pager.
type TakeClause struct {
	Count int
}

// ForUpdateClause requests row locks. Left to the dialect.
type ForUpdateClause struct {
	SkipLocked bool
}

func (SelectClause) clause()    {}
func (WhereClause) clause()     {}
func (HavingClause) clause()    {}
func (JoinClause) clause()      {}
func (WithClause) clause()      {}
func (OrderByClause) clause()   {}
func (DistinctClause) clause()  {}
func (SkipClause) clause()      {}
func (TakeClause) clause()      {}
func (ForUpdateClause) clause() {}
