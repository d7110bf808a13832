// Package dynql builds parameterized SQL from loosely named tables, columns
// and criteria, resolving names against a live database schema.
//
// Names are forgiving: "user", "Users" and "USERS" all resolve to the same
// table, and relations between tables are discovered from foreign keys so
// joins can be inferred from a column path such as Customers.Orders.Total.
//
// # Basic Usage
//
// Open a Database with a schema provider, a dialect and an executor:
//
//	import "github.com/zoobzio/dynql/sqlite"
//
//	db, err := sqlite.Open(ctx, "file:app.db")
//	if err != nil {
//		return err
//	}
//
//	rows, err := db.Find(ctx, "Users", dynql.Eq(dynql.Col("Users.Age"), dynql.To(18, 65)))
//	// select "Users"."Id","Users"."Name","Users"."Age" from "Users"
//	//   WHERE "Users"."Age" BETWEEN @p1_start AND @p1_end
//
// # Value Shapes
//
// Equality against a value renders according to the value: nil becomes
// IS NULL, a Range becomes BETWEEN, a slice becomes IN and anything else a
// single parameter. Strings and []byte are single values.
//
// # Query Building
//
// For more than a single predicate, use the fluent builder:
//
//	rows, err := db.From("Customers").
//		Where(dynql.Gt(dynql.Col("Customers.Orders.Total"), 100)).
//		With(dynql.Col("Customers.Orders")).
//		OrderBy(dynql.Col("Customers.Name")).
//		Take(10).
//		All(ctx)
//
// # Templates
//
// Find, FindOne, Exists and Count cache the statement they build per table
// and criteria shape, so repeated lookups that differ only in values skip
// name resolution and formatting entirely.
package dynql

import (
	"github.com/zoobzio/dynql/internal/command"
	"github.com/zoobzio/dynql/internal/render"
	"github.com/zoobzio/dynql/internal/types"
)

// Reference points at a column, table, function call, math expression or
// one of the COUNT(*)/DISTINCT 1 markers.
type Reference = types.Reference

// RefKind discriminates references.
type RefKind = types.RefKind

// Re-export reference kinds for public API.
const (
	RefObject     = types.RefObject
	RefFunction   = types.RefFunction
	RefMath       = types.RefMath
	RefAllColumns = types.RefAllColumns
	RefCount      = types.RefCount
	RefExists     = types.RefExists
)

// Expression is a predicate tree node.
type Expression = types.Expression

// ExprType is the operator of an Expression.
type ExprType = types.ExprType

// Re-export expression types for public API.
const (
	ExprEmpty      = types.ExprEmpty
	Equal          = types.Equal
	NotEqual       = types.NotEqual
	GreaterThan    = types.GreaterThan
	LessThan       = types.LessThan
	GreaterOrEqual = types.GreaterOrEqual
	LessOrEqual    = types.LessOrEqual
	LikeExpr       = types.Like
	ILikeExpr      = types.ILike
	AndExpr        = types.And
	OrExpr         = types.Or
	NotExpr        = types.Not
)

// Empty is the identity predicate.
var Empty = types.Empty

// MathOp is an arithmetic operator.
type MathOp = types.MathOp

// Re-export math operators for public API.
const (
	OpAdd      = types.Add
	OpSubtract = types.Subtract
	OpMultiply = types.Multiply
	OpDivide   = types.Divide
	OpModulo   = types.Modulo
)

// Operators maps expression and math operators to dialect tokens.
type Operators = types.Operators

// StandardOperators are the ANSI tokens.
var StandardOperators = types.StandardOperators

// Range is an inclusive pair rendered as BETWEEN.
type Range = types.Range

// ValueKind is the SQL shape a bound value takes.
type ValueKind = types.ValueKind

// Re-export value kinds for public API.
const (
	ValueScalar = types.ValueScalar
	ValueNull   = types.ValueNull
	ValueRange  = types.ValueRange
	ValueList   = types.ValueList
)

// Query is an immutable list of clauses against a table.
type Query = types.Query

// Clause is one element of a Query.
type Clause = types.Clause

// Clause types.
type (
	SelectClause    = types.SelectClause
	WhereClause     = types.WhereClause
	HavingClause    = types.HavingClause
	JoinClause      = types.JoinClause
	WithClause      = types.WithClause
	OrderByClause   = types.OrderByClause
	DistinctClause  = types.DistinctClause
	SkipClause      = types.SkipClause
	TakeClause      = types.TakeClause
	ForUpdateClause = types.ForUpdateClause
)

// JoinType selects INNER or LEFT joins.
type JoinType = types.JoinType

// Re-export join types for public API.
const (
	InnerJoin = types.InnerJoin
	OuterJoin = types.OuterJoin
)

// WithType is the cardinality of an eager-loaded relation.
type WithType = types.WithType

// Re-export with types for public API.
const (
	WithNotSpecified = types.WithNotSpecified
	WithOne          = types.WithOne
	WithMany         = types.WithMany
)

// Direction is an ORDER BY direction.
type Direction = types.Direction

// Re-export direction constants for public API.
const (
	ASC  = types.Ascending
	DESC = types.Descending
)

// Row is one result row with its column names.
type Row = types.Row

// Command is finalized SQL with its parameters in placeholder order.
type Command = command.Command

// BoundParam is one parameter of a Command.
type BoundParam = command.BoundParam

// ParameterTemplate describes one parameter slot of a statement.
type ParameterTemplate = command.ParameterTemplate

// InvalidQueryError reports a query that cannot be expressed as SQL.
type InvalidQueryError = types.InvalidQueryError

// UnsupportedFeatureError reports a feature the dialect cannot render.
type UnsupportedFeatureError = render.UnsupportedFeatureError

// Capabilities describes the SQL features a dialect supports.
type Capabilities = render.Capabilities

// RowLockingLevel indicates the level of row-level locking support.
type RowLockingLevel = render.RowLockingLevel

// Re-export row locking levels for public API.
const (
	RowLockingNone       = render.RowLockingNone
	RowLockingBasic      = render.RowLockingBasic
	RowLockingSkipLocked = render.RowLockingSkipLocked
)

// PagingStyle is how a dialect limits and offsets a result.
type PagingStyle = render.PagingStyle

// Re-export paging styles for public API.
const (
	PagingLimitOffset = render.PagingLimitOffset
	PagingRowNumber   = render.PagingRowNumber
)

// NewQuery starts a query against table.
func NewQuery(table string) Query {
	return types.NewQuery(table)
}

// ClausesOf returns the clauses of q with concrete type T, in order.
func ClausesOf[T Clause](q Query) []T {
	return types.ClausesOf[T](q)
}

// NewUnsupportedFeatureError creates an error for a feature a dialect
// cannot render.
func NewUnsupportedFeatureError(dialect, feature string, hint ...string) error {
	return render.NewUnsupportedFeatureError(dialect, feature, hint...)
}
